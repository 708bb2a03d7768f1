package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"outreach_backend/platform/config"
	"outreach_backend/platform/logger"
)

// Client talks to the messaging provider's REST API. All calls carry the
// account id so one client serves every connected account.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	log     *logger.Logger
}

func NewClient(cfg config.ProviderConfig, log *logger.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.GetProviderBaseURL(), "/"),
		apiKey:  cfg.GetProviderAPIKey(),
		http:    &http.Client{Timeout: 30 * time.Second},
		log:     log,
	}
}

// ResolveProfile fetches a member profile by public identifier or provider id.
func (c *Client) ResolveProfile(ctx context.Context, accountID, identifier string) (Profile, error) {
	var resp profileResponse
	path := fmt.Sprintf("/users/%s?account_id=%s", url.PathEscape(identifier), url.QueryEscape(accountID))
	if err := c.do(ctx, "resolve_profile", http.MethodGet, path, nil, &resp); err != nil {
		return Profile{}, err
	}
	return Profile(resp), nil
}

// SendConnectionRequest sends an invite with an optional note.
func (c *Client) SendConnectionRequest(ctx context.Context, accountID, providerID, message string) error {
	body := map[string]any{
		"account_id":  accountID,
		"provider_id": providerID,
	}
	if message != "" {
		body["message"] = message
	}
	return c.do(ctx, "send_connection_request", http.MethodPost, "/users/invite", body, nil)
}

// StartChat opens a new conversation with an initial message and returns
// the chat id.
func (c *Client) StartChat(ctx context.Context, accountID, providerID, text string) (string, error) {
	body := map[string]any{
		"account_id":    accountID,
		"attendees_ids": []string{providerID},
		"text":          text,
	}
	var resp chatStartedResponse
	if err := c.do(ctx, "start_chat", http.MethodPost, "/chats", body, &resp); err != nil {
		return "", err
	}
	return resp.ChatID, nil
}

// SendMessage posts into an existing conversation.
func (c *Client) SendMessage(ctx context.Context, chatID, text string) error {
	body := map[string]any{"text": text}
	path := fmt.Sprintf("/chats/%s/messages", url.PathEscape(chatID))
	return c.do(ctx, "send_message", http.MethodPost, path, body, nil)
}

// FindConversation returns the chat id for a one on one conversation with
// the given member, or empty when none exists yet.
func (c *Client) FindConversation(ctx context.Context, accountID, providerID string) (string, error) {
	var resp chatsResponse
	path := fmt.Sprintf("/chats?account_id=%s&attendee_id=%s",
		url.QueryEscape(accountID), url.QueryEscape(providerID))
	if err := c.do(ctx, "find_conversation", http.MethodGet, path, nil, &resp); err != nil {
		return "", err
	}
	if len(resp.Items) == 0 {
		return "", nil
	}
	return resp.Items[0].ID, nil
}

// ListRelations returns one page of the account's first-degree relations.
// Pass the cursor from the previous page, or empty for the first page.
func (c *Client) ListRelations(ctx context.Context, accountID, cursor string) (RelationsPage, error) {
	path := fmt.Sprintf("/users/relations?account_id=%s&limit=100", url.QueryEscape(accountID))
	if cursor != "" {
		path += "&cursor=" + url.QueryEscape(cursor)
	}
	var resp relationsResponse
	if err := c.do(ctx, "list_relations", http.MethodGet, path, nil, &resp); err != nil {
		return RelationsPage{}, err
	}
	return RelationsPage(resp), nil
}

// ListSentInvitations returns the account's outstanding sent invites.
func (c *Client) ListSentInvitations(ctx context.Context, accountID string) ([]Invitation, error) {
	var resp invitationsResponse
	path := fmt.Sprintf("/users/invite/sent?account_id=%s", url.QueryEscape(accountID))
	if err := c.do(ctx, "list_sent_invitations", http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

// CreateWebhook registers a callback for the given source ("messaging" or
// "account_status") and returns its id.
func (c *Client) CreateWebhook(ctx context.Context, source, requestURL string) (string, error) {
	body := map[string]any{
		"source":      source,
		"request_url": requestURL,
	}
	var resp createdResponse
	if err := c.do(ctx, "create_webhook", http.MethodPost, "/webhooks", body, &resp); err != nil {
		return "", err
	}
	return resp.ID, nil
}

// ListWebhooks returns the registered callbacks.
func (c *Client) ListWebhooks(ctx context.Context) ([]Webhook, error) {
	var resp webhooksResponse
	if err := c.do(ctx, "list_webhooks", http.MethodGet, "/webhooks", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

// DeleteWebhook removes a registered callback.
func (c *Client) DeleteWebhook(ctx context.Context, id string) error {
	path := fmt.Sprintf("/webhooks/%s", url.PathEscape(id))
	return c.do(ctx, "delete_webhook", http.MethodDelete, path, nil, nil)
}

func (c *Client) do(ctx context.Context, op, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return &Error{Op: op, Err: err}
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return &Error{Op: op, Err: err}
	}
	req.Header.Set("X-API-KEY", c.apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.ProviderError(op, err)
		return &Error{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		apiErr := &Error{Op: op, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(data))}
		c.log.ProviderError(op, apiErr)
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &Error{Op: op, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}
