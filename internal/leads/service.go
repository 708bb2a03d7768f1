package leads

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"outreach_backend/internal/activity"
	"outreach_backend/internal/events"
	"outreach_backend/internal/leads/domain"
	"outreach_backend/platform/apperr"
	"outreach_backend/platform/logger"
)

// Service owns lead lifecycle transitions triggered from outside the
// scheduler: webhook detections, reconciliation jobs and manual actions.
// Every transition runs under the lead's row lock so it cannot interleave
// with a step execution in flight.
type Service struct {
	pool       *pgxpool.Pool
	repo       *Repository
	activities *activity.Repository
	bus        events.Bus
	log        *logger.Logger
}

func NewService(pool *pgxpool.Pool, repo *Repository, activities *activity.Repository, bus events.Bus, log *logger.Logger) *Service {
	return &Service{pool: pool, repo: repo, activities: activities, bus: bus, log: log}
}

// ImportLead is one entry of a lead import request.
type ImportLead struct {
	FirstName        string         `json:"first_name"`
	LastName         string         `json:"last_name"`
	CompanyName      string         `json:"company_name"`
	PublicIdentifier string         `json:"public_identifier" binding:"required"`
	ProviderID       string         `json:"provider_id"`
	Headline         string         `json:"headline"`
	FirstLevel       bool           `json:"first_level"`
	Meta             map[string]any `json:"meta"`
}

// Import adds leads to a campaign, skipping duplicates. Leads flagged as
// first-level relations enter the sequence already connected.
func (s *Service) Import(ctx context.Context, campaignID uuid.UUID, items []ImportLead) (int, error) {
	if len(items) == 0 {
		return 0, apperr.New(apperr.KindValidation, "no leads to import")
	}

	params := make([]CreateParams, 0, len(items))
	for _, item := range items {
		meta := item.Meta
		if meta == nil {
			meta = map[string]any{}
		}
		if item.Headline != "" {
			meta["headline"] = item.Headline
		}

		status := domain.StatusPendingInvite
		if item.FirstLevel {
			meta["source"] = SourceFirstLevel
			status = domain.StatusConnected
		}

		var providerID *string
		if item.ProviderID != "" {
			providerID = &item.ProviderID
		}

		params = append(params, CreateParams{
			CampaignID:       campaignID,
			FirstName:        item.FirstName,
			LastName:         item.LastName,
			CompanyName:      item.CompanyName,
			PublicIdentifier: item.PublicIdentifier,
			ProviderID:       providerID,
			Status:           status,
			Meta:             meta,
		})
	}

	inserted, err := s.repo.CreateBatch(ctx, params)
	if err != nil {
		return inserted, err
	}

	if err := s.activities.Insert(ctx, nil, activity.TypeLeadImported, map[string]any{
		"campaign_id": campaignID.String(),
		"imported":    inserted,
		"skipped":     len(items) - inserted,
	}); err != nil {
		s.log.Error("record import event", "error", err)
	}

	s.log.Info("leads imported", "campaign_id", campaignID, "imported", inserted, "skipped", len(items)-inserted)
	return inserted, nil
}

// MarkConnected transitions a lead to connected after an accepted invite
// was detected. Safe to call repeatedly: already-connected and terminal
// leads are left untouched.
func (s *Service) MarkConnected(ctx context.Context, leadID uuid.UUID, accountID, detection string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	lead, err := s.repo.GetForUpdate(ctx, tx, leadID)
	if err != nil {
		return err
	}
	if !lead.Status.CanTransition(domain.StatusConnected) {
		s.log.Debug("connection detection ignored", "lead_id", leadID, "status", lead.Status)
		return nil
	}

	now := time.Now().UTC()
	if err := s.repo.MarkConnectedTx(ctx, tx, leadID, now); err != nil {
		return err
	}
	if err := s.activities.InsertTx(ctx, tx, &leadID, activity.TypeConnectionAccepted, map[string]any{
		"detection": detection,
	}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	s.log.Info("lead connected", "lead_id", leadID, "detection", detection)
	s.bus.Publish(ctx, events.LeadConnected{
		BaseEvent:  events.NewBaseEvent(),
		LeadID:     leadID,
		CampaignID: lead.CampaignID,
		AccountID:  accountID,
		Detection:  detection,
	})
	return nil
}

// MarkResponded stops automation for a lead that replied. Duplicates are
// ignored, as are replies arriving after the sequence completed.
func (s *Service) MarkResponded(ctx context.Context, leadID uuid.UUID, conversationID string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	lead, err := s.repo.GetForUpdate(ctx, tx, leadID)
	if err != nil {
		return err
	}
	if !lead.Status.CanTransition(domain.StatusResponded) {
		s.log.Debug("reply ignored", "lead_id", leadID, "status", lead.Status)
		return nil
	}

	if err := s.repo.SetStatusTx(ctx, tx, leadID, domain.StatusResponded); err != nil {
		return err
	}
	if err := s.activities.InsertTx(ctx, tx, &leadID, activity.TypeReplyReceived, map[string]any{
		"conversation_id": conversationID,
	}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	s.log.Info("lead responded", "lead_id", leadID)
	s.bus.Publish(ctx, events.LeadReplied{
		BaseEvent:      events.NewBaseEvent(),
		LeadID:         leadID,
		CampaignID:     lead.CampaignID,
		ConversationID: conversationID,
	})
	return nil
}

// MarkFailed moves a lead to error after a permanent failure, recording
// the reason in its history.
func (s *Service) MarkFailed(ctx context.Context, leadID uuid.UUID, reason string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	lead, err := s.repo.GetForUpdate(ctx, tx, leadID)
	if err != nil {
		return err
	}
	if lead.Status.IsTerminal() {
		return nil
	}

	if err := s.repo.SetStatusTx(ctx, tx, leadID, domain.StatusError); err != nil {
		return err
	}
	if err := s.activities.InsertTx(ctx, tx, &leadID, activity.TypeStepFailed, map[string]any{
		"reason": reason,
	}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	s.log.Warn("lead failed", "lead_id", leadID, "reason", reason)
	s.bus.Publish(ctx, events.LeadFailed{
		BaseEvent:  events.NewBaseEvent(),
		LeadID:     leadID,
		CampaignID: lead.CampaignID,
		Reason:     reason,
	})
	return nil
}

// Retry returns an errored lead to pending_invite for another attempt.
func (s *Service) Retry(ctx context.Context, leadID uuid.UUID) error {
	err := s.repo.ResetError(ctx, leadID)
	if errors.Is(err, ErrNotFound) {
		return apperr.New(apperr.KindUnprocessable, "lead is not in error status")
	}
	return err
}

// Get loads a single lead.
func (s *Service) Get(ctx context.Context, leadID uuid.UUID) (Lead, error) {
	lead, err := s.repo.GetByID(ctx, leadID)
	if errors.Is(err, ErrNotFound) {
		return Lead{}, apperr.New(apperr.KindNotFound, "lead not found")
	}
	return lead, err
}

// History returns a lead's event log.
func (s *Service) History(ctx context.Context, leadID uuid.UUID, limit int) ([]activity.Event, error) {
	if _, err := s.Get(ctx, leadID); err != nil {
		return nil, err
	}
	return s.activities.ListByLead(ctx, leadID, limit)
}
