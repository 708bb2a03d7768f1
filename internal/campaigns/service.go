package campaigns

import (
	"context"

	"outreach_backend/platform/apperr"
	"outreach_backend/platform/logger"
	"outreach_backend/platform/validator"

	"github.com/google/uuid"
)

// Service applies campaign-level business rules: sequence validation at save
// time and the status transitions that gate scheduler processing.
type Service struct {
	repo *Repository
	val  *validator.Validator
	log  *logger.Logger
}

func NewService(repo *Repository, val *validator.Validator, log *logger.Logger) *Service {
	return &Service{repo: repo, val: val, log: log}
}

func (s *Service) Create(ctx context.Context, params CreateParams) (Campaign, error) {
	if err := ValidateTimezone(params.Timezone); err != nil {
		return Campaign{}, err
	}
	if params.Sequence != nil {
		report := ValidateSequence(s.val, params.Sequence)
		if !report.Valid {
			return Campaign{}, apperr.New(apperr.KindValidation, "invalid sequence").WithDetails(report)
		}
	}
	return s.repo.Create(ctx, params)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (Campaign, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err == ErrNotFound {
		return Campaign{}, apperr.New(apperr.KindNotFound, "campaign not found")
	}
	return c, err
}

func (s *Service) List(ctx context.Context) ([]Campaign, error) {
	return s.repo.List(ctx)
}

// SaveSequence validates and persists a new sequence definition. The report
// is returned even on success so callers can surface warnings.
func (s *Service) SaveSequence(ctx context.Context, id uuid.UUID, timezone string, seq Sequence) (SequenceReport, error) {
	if timezone == "" {
		c, err := s.Get(ctx, id)
		if err != nil {
			return SequenceReport{}, err
		}
		timezone = c.Timezone
	}
	if err := ValidateTimezone(timezone); err != nil {
		return SequenceReport{}, err
	}

	report := ValidateSequence(s.val, seq)
	if !report.Valid {
		return report, apperr.New(apperr.KindValidation, "invalid sequence").WithDetails(report)
	}

	if err := s.repo.UpdateSequence(ctx, id, timezone, seq); err != nil {
		if err == ErrNotFound {
			return report, apperr.New(apperr.KindNotFound, "campaign not found")
		}
		return report, err
	}
	return report, nil
}

// Activate moves a campaign into the active status, making its leads
// visible to the scheduler. A campaign without a sequence cannot activate.
func (s *Service) Activate(ctx context.Context, id uuid.UUID) error {
	c, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if len(c.Sequence) == 0 {
		return apperr.New(apperr.KindUnprocessable, "campaign has no sequence")
	}

	if err := s.repo.SetStatus(ctx, id, StatusActive); err != nil {
		return err
	}
	s.log.Info("campaign activated", "campaign_id", id)
	return nil
}

// Pause removes a campaign's leads from scheduler consideration.
func (s *Service) Pause(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.SetStatus(ctx, id, StatusPaused); err != nil {
		if err == ErrNotFound {
			return apperr.New(apperr.KindNotFound, "campaign not found")
		}
		return err
	}
	s.log.Info("campaign paused", "campaign_id", id)
	return nil
}
