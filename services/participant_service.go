package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/showmanfest/luckydraw/models"
	"github.com/showmanfest/luckydraw/repositories"
)

type CreateParticipantInput struct {
	Name           string `json:"name"`
	ExternalID     string `json:"external_id"`
	Category       string `json:"category"`
	EmploymentType string `json:"employment_type"`
}

type UpdateParticipantInput struct {
	Name           string `json:"name"`
	ExternalID     string `json:"external_id"`
	Category       string `json:"category"`
	EmploymentType string `json:"employment_type"`
}

type ParticipantService interface {
	CreateParticipant(ctx context.Context, input CreateParticipantInput) (*models.Participant, error)
	BulkCreateParticipants(ctx context.Context, inputs []CreateParticipantInput) ([]*models.Participant, error)
	GetParticipantByID(ctx context.Context, id string) (*models.Participant, error)
	FindByExternalID(ctx context.Context, externalID string) (*models.Participant, error)
	ListParticipants(ctx context.Context) ([]*models.Participant, error)
	ListEligible(ctx context.Context) ([]*models.Participant, error)
	UpdateParticipant(ctx context.Context, id string, input UpdateParticipantInput) (*models.Participant, error)
	// DeleteParticipant removes the record and, when the participant holds
	// a winner row, reverses its effect on prize stock first.
	DeleteParticipant(ctx context.Context, id string) error
}

type participantService struct {
	tx              TxRunner
	participantRepo repositories.ParticipantRepository
	prizeRepo       repositories.PrizeRepository
	winnerRepo      repositories.WinnerRepository
}

func NewParticipantService(
	tx TxRunner,
	participantRepo repositories.ParticipantRepository,
	prizeRepo repositories.PrizeRepository,
	winnerRepo repositories.WinnerRepository,
) ParticipantService {
	return &participantService{
		tx:              tx,
		participantRepo: participantRepo,
		prizeRepo:       prizeRepo,
		winnerRepo:      winnerRepo,
	}
}

func validateParticipantInput(name, externalID string) (string, string, error) {
	name = strings.TrimSpace(name)
	externalID = strings.TrimSpace(externalID)
	if name == "" {
		return "", "", ErrParticipantNameRequired
	}
	if externalID == "" {
		return "", "", ErrExternalIDRequired
	}
	return name, externalID, nil
}

func (s *participantService) CreateParticipant(ctx context.Context, input CreateParticipantInput) (*models.Participant, error) {
	name, externalID, err := validateParticipantInput(input.Name, input.ExternalID)
	if err != nil {
		return nil, err
	}

	participant := &models.Participant{
		ID:             uuid.NewString(),
		Name:           name,
		ExternalID:     externalID,
		Category:       strings.TrimSpace(input.Category),
		EmploymentType: strings.TrimSpace(input.EmploymentType),
	}

	if err := s.participantRepo.Create(ctx, nil, participant); err != nil {
		if errors.Is(err, repositories.ErrParticipantExternalIDConflict) {
			return nil, ErrExternalIDConflict
		}
		return nil, fmt.Errorf("failed to create participant: %w", err)
	}
	return participant, nil
}

func (s *participantService) BulkCreateParticipants(ctx context.Context, inputs []CreateParticipantInput) ([]*models.Participant, error) {
	participants := make([]*models.Participant, 0, len(inputs))
	for _, input := range inputs {
		name, externalID, err := validateParticipantInput(input.Name, input.ExternalID)
		if err != nil {
			return nil, fmt.Errorf("%w (external id %q)", err, input.ExternalID)
		}
		participants = append(participants, &models.Participant{
			ID:             uuid.NewString(),
			Name:           name,
			ExternalID:     externalID,
			Category:       strings.TrimSpace(input.Category),
			EmploymentType: strings.TrimSpace(input.EmploymentType),
		})
	}

	// One transaction: a bad row anywhere imports nothing.
	err := s.tx.RunInTx(ctx, func(tx repositories.SQLExecutor) error {
		if err := s.participantRepo.CreateBatch(ctx, tx, participants); err != nil {
			if errors.Is(err, repositories.ErrParticipantExternalIDConflict) {
				return ErrExternalIDConflict
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return participants, nil
}

func (s *participantService) GetParticipantByID(ctx context.Context, id string) (*models.Participant, error) {
	participant, err := s.participantRepo.FindByID(ctx, nil, id)
	if err != nil {
		if errors.Is(err, repositories.ErrParticipantNotFound) {
			return nil, ErrParticipantNotFound
		}
		return nil, fmt.Errorf("failed to get participant %s: %w", id, err)
	}
	return participant, nil
}

func (s *participantService) FindByExternalID(ctx context.Context, externalID string) (*models.Participant, error) {
	participant, err := s.participantRepo.FindByExternalID(ctx, nil, strings.TrimSpace(externalID))
	if err != nil {
		if errors.Is(err, repositories.ErrParticipantNotFound) {
			return nil, ErrParticipantNotFound
		}
		return nil, fmt.Errorf("failed to find participant by external id: %w", err)
	}
	return participant, nil
}

func (s *participantService) ListParticipants(ctx context.Context) ([]*models.Participant, error) {
	return s.participantRepo.List(ctx, nil)
}

func (s *participantService) ListEligible(ctx context.Context) ([]*models.Participant, error) {
	return s.participantRepo.ListEligible(ctx, nil)
}

func (s *participantService) UpdateParticipant(ctx context.Context, id string, input UpdateParticipantInput) (*models.Participant, error) {
	name, externalID, err := validateParticipantInput(input.Name, input.ExternalID)
	if err != nil {
		return nil, err
	}

	participant, err := s.GetParticipantByID(ctx, id)
	if err != nil {
		return nil, err
	}
	participant.Name = name
	participant.ExternalID = externalID
	participant.Category = strings.TrimSpace(input.Category)
	participant.EmploymentType = strings.TrimSpace(input.EmploymentType)

	if err := s.participantRepo.Update(ctx, nil, participant); err != nil {
		switch {
		case errors.Is(err, repositories.ErrParticipantNotFound):
			return nil, ErrParticipantNotFound
		case errors.Is(err, repositories.ErrParticipantExternalIDConflict):
			return nil, ErrExternalIDConflict
		default:
			return nil, fmt.Errorf("failed to update participant %s: %w", id, err)
		}
	}
	return participant, nil
}

func (s *participantService) DeleteParticipant(ctx context.Context, id string) error {
	return s.tx.RunInTx(ctx, func(tx repositories.SQLExecutor) error {
		if _, err := s.participantRepo.LockByID(ctx, tx, id); err != nil {
			if errors.Is(err, repositories.ErrParticipantNotFound) {
				return ErrParticipantNotFound
			}
			return err
		}

		winner, err := s.winnerRepo.FindByParticipant(ctx, tx, id)
		if err != nil && !errors.Is(err, repositories.ErrWinnerNotFound) {
			return err
		}
		if winner != nil {
			if _, err := s.prizeRepo.LockByID(ctx, tx, winner.PrizeID); err != nil {
				return err
			}
			if err := s.winnerRepo.DeleteByIDs(ctx, tx, []string{winner.ID}); err != nil {
				return err
			}
			if err := s.prizeRepo.AdjustQuota(ctx, tx, winner.PrizeID, 1); err != nil {
				return err
			}
		}

		return s.participantRepo.Delete(ctx, tx, id)
	})
}
