package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"outreach_backend/platform/logger"
)

type testProviderConfig struct {
	baseURL string
}

func (c testProviderConfig) GetProviderBaseURL() string       { return c.baseURL }
func (c testProviderConfig) GetProviderAPIKey() string        { return "test-key" }
func (c testProviderConfig) GetProviderWebhookSecret() string { return "" }
func (c testProviderConfig) GetPublicBaseURL() string         { return "" }

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client := NewClient(testProviderConfig{baseURL: srv.URL}, logger.New("development"))
	return client, srv
}

func TestResolveProfile(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-API-KEY") != "test-key" {
			t.Errorf("missing api key header")
		}
		if r.URL.Path != "/users/jane-doe" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("account_id") != "acc_1" {
			t.Errorf("unexpected account_id %s", r.URL.Query().Get("account_id"))
		}
		json.NewEncoder(w).Encode(map[string]any{
			"provider_id":       "prov_123",
			"public_identifier": "jane-doe",
			"first_name":        "Jane",
			"last_name":         "Doe",
			"headline":          "CTO at Acme",
			"network_distance":  "FIRST_DEGREE",
		})
	}))

	profile, err := client.ResolveProfile(context.Background(), "acc_1", "jane-doe")
	if err != nil {
		t.Fatalf("ResolveProfile: %v", err)
	}
	if profile.ProviderID != "prov_123" {
		t.Fatalf("expected provider id prov_123, got %s", profile.ProviderID)
	}
	if !profile.IsFirstDegree() {
		t.Fatal("expected first degree relation")
	}
}

func TestSendConnectionRequestBody(t *testing.T) {
	var got map[string]any
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/users/invite" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusCreated)
	}))

	if err := client.SendConnectionRequest(context.Background(), "acc_1", "prov_123", "Hi Jane"); err != nil {
		t.Fatalf("SendConnectionRequest: %v", err)
	}
	if got["provider_id"] != "prov_123" || got["message"] != "Hi Jane" {
		t.Fatalf("unexpected body %v", got)
	}
}

func TestSendConnectionRequestOmitsEmptyMessage(t *testing.T) {
	var got map[string]any
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&got)
	}))

	if err := client.SendConnectionRequest(context.Background(), "acc_1", "prov_123", ""); err != nil {
		t.Fatalf("SendConnectionRequest: %v", err)
	}
	if _, ok := got["message"]; ok {
		t.Fatal("empty message must not be sent")
	}
}

func TestFindConversationEmpty(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"items": []any{}})
	}))

	chatID, err := client.FindConversation(context.Background(), "acc_1", "prov_123")
	if err != nil {
		t.Fatalf("FindConversation: %v", err)
	}
	if chatID != "" {
		t.Fatalf("expected empty chat id, got %q", chatID)
	}
}

func TestErrorClassification(t *testing.T) {
	cases := []struct {
		status    int
		transient bool
	}{
		{http.StatusInternalServerError, true},
		{http.StatusBadGateway, true},
		{http.StatusTooManyRequests, true},
		{http.StatusUnprocessableEntity, false},
		{http.StatusNotFound, false},
		{http.StatusBadRequest, false},
	}

	for _, tc := range cases {
		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
		}))
		err := client.SendMessage(context.Background(), "chat_1", "hello")
		if err == nil {
			t.Fatalf("status %d: expected error", tc.status)
		}
		if IsTransient(err) != tc.transient {
			t.Fatalf("status %d: IsTransient = %v, want %v", tc.status, IsTransient(err), tc.transient)
		}
	}
}

func TestNetworkErrorIsTransient(t *testing.T) {
	client, srv := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	err := client.SendMessage(context.Background(), "chat_1", "hello")
	if err == nil {
		t.Fatal("expected error after server close")
	}
	if !IsTransient(err) {
		t.Fatal("network error should be transient")
	}
}
