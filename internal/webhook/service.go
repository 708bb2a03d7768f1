package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"outreach_backend/internal/accounts"
	"outreach_backend/internal/events"
	"outreach_backend/internal/leads"
	"outreach_backend/platform/logger"
)

// messagingPayload covers the provider's messaging-source callbacks:
// inbound messages and new relations share one endpoint, discriminated by
// the event field.
type messagingPayload struct {
	Event     string `json:"event"`
	AccountID string `json:"account_id"`
	ChatID    string `json:"chat_id"`
	Message   string `json:"message"`
	Sender    struct {
		ProviderID       string `json:"attendee_provider_id"`
		PublicIdentifier string `json:"attendee_public_identifier"`
		Name             string `json:"attendee_name"`
	} `json:"sender"`
	User struct {
		ProviderID       string `json:"user_provider_id"`
		PublicIdentifier string `json:"user_public_identifier"`
		FullName         string `json:"user_full_name"`
	} `json:"user"`
}

// accountStatusPayload is the account-status-source callback shape.
type accountStatusPayload struct {
	AccountStatus struct {
		AccountID string `json:"account_id"`
		Message   string `json:"message"`
	} `json:"AccountStatus"`
}

// Service interprets stored payloads into domain transitions.
type Service struct {
	leadsRepo *leads.Repository
	leadsSvc  *leads.Service
	acctRepo  *accounts.Repository
	bus       events.Bus
	log       *logger.Logger
}

func NewService(leadsRepo *leads.Repository, leadsSvc *leads.Service, acctRepo *accounts.Repository, bus events.Bus, log *logger.Logger) *Service {
	return &Service{leadsRepo: leadsRepo, leadsSvc: leadsSvc, acctRepo: acctRepo, bus: bus, log: log}
}

// HandleMessaging processes a messaging-source callback. Unknown events and
// unmatched senders are ignored, never errors: the provider retries on
// non-2xx and these payloads will not parse differently next time.
func (s *Service) HandleMessaging(ctx context.Context, body []byte) error {
	var payload messagingPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		s.log.Warn("unparseable messaging webhook", "error", err)
		return nil
	}

	switch payload.Event {
	case "message_received":
		return s.handleInboundMessage(ctx, payload)
	case "new_relation":
		return s.handleNewRelation(ctx, payload)
	default:
		s.log.Debug("messaging webhook ignored", "event", payload.Event)
		return nil
	}
}

func (s *Service) handleInboundMessage(ctx context.Context, payload messagingPayload) error {
	// Outbound echoes carry our own account as the sender.
	if payload.Sender.ProviderID == "" || payload.Sender.ProviderID == payload.AccountID {
		return nil
	}

	lead, err := s.findLead(ctx, payload.ChatID, payload.Sender.ProviderID, payload.Sender.PublicIdentifier)
	if err != nil {
		if errors.Is(err, leads.ErrNotFound) {
			s.log.Debug("inbound message from unknown sender", "chat_id", payload.ChatID)
			return nil
		}
		return err
	}

	if lead.ConversationID == nil && payload.ChatID != "" {
		if err := s.leadsRepo.SetConversationID(ctx, lead.ID, payload.ChatID); err != nil {
			s.log.WithLead(lead.ID.String()).DatabaseError("set conversation id", err)
		}
	}

	return s.leadsSvc.MarkResponded(ctx, lead.ID, payload.ChatID)
}

func (s *Service) handleNewRelation(ctx context.Context, payload messagingPayload) error {
	lead, err := s.findLead(ctx, "", payload.User.ProviderID, payload.User.PublicIdentifier)
	if errors.Is(err, leads.ErrNotFound) && payload.User.FullName != "" {
		first, last, _ := strings.Cut(payload.User.FullName, " ")
		lead, err = s.leadsRepo.FindInviteSentByName(ctx, first, last)
	}
	if err != nil {
		if errors.Is(err, leads.ErrNotFound) {
			s.log.Debug("new relation does not match a lead", "provider_id", payload.User.ProviderID)
			return nil
		}
		return err
	}

	return s.leadsSvc.MarkConnected(ctx, lead.ID, payload.AccountID, "webhook")
}

// HandleAccountStatus processes an account-status callback, updating the
// account row and announcing the change on the bus.
func (s *Service) HandleAccountStatus(ctx context.Context, body []byte) error {
	var payload accountStatusPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		s.log.Warn("unparseable account status webhook", "error", err)
		return nil
	}
	if payload.AccountStatus.AccountID == "" {
		return nil
	}

	status := mapAccountStatus(payload.AccountStatus.Message)
	previous, err := s.acctRepo.SetStatus(ctx, payload.AccountStatus.AccountID, status)
	if errors.Is(err, accounts.ErrNotFound) {
		// First sighting of this account: register it.
		if _, err := s.acctRepo.Upsert(ctx, payload.AccountStatus.AccountID, "", status); err != nil {
			return fmt.Errorf("register account from webhook: %w", err)
		}
		previous = ""
	} else if err != nil {
		return err
	}

	if previous != status {
		s.log.Info("account status changed",
			"account_id", payload.AccountStatus.AccountID,
			"old_status", previous,
			"new_status", status,
		)
		s.bus.Publish(ctx, events.AccountStatusChanged{
			BaseEvent: events.NewBaseEvent(),
			AccountID: payload.AccountStatus.AccountID,
			OldStatus: string(previous),
			NewStatus: string(status),
		})
	}
	return nil
}

// mapAccountStatus folds the provider's status vocabulary into ours.
// Anything other than an explicit OK means the account cannot send.
func mapAccountStatus(message string) accounts.Status {
	switch strings.ToUpper(strings.TrimSpace(message)) {
	case "OK", "CONNECTED", "RECONNECTED", "CREATION_SUCCESS", "SYNC_SUCCESS":
		return accounts.StatusConnected
	default:
		return accounts.StatusDisconnected
	}
}

// findLead matches conversation id first since it is the strongest signal,
// then the sender's provider id, then the public identifier.
func (s *Service) findLead(ctx context.Context, chatID, providerID, publicIdentifier string) (leads.Lead, error) {
	if chatID != "" {
		if lead, err := s.leadsRepo.FindByConversationID(ctx, chatID); err == nil {
			return lead, nil
		} else if !errors.Is(err, leads.ErrNotFound) {
			return leads.Lead{}, err
		}
	}
	if providerID != "" {
		if lead, err := s.leadsRepo.FindByProviderID(ctx, providerID); err == nil {
			return lead, nil
		} else if !errors.Is(err, leads.ErrNotFound) {
			return leads.Lead{}, err
		}
	}
	if publicIdentifier != "" {
		return s.leadsRepo.FindByPublicIdentifier(ctx, publicIdentifier)
	}
	return leads.Lead{}, leads.ErrNotFound
}
