package services

import (
	"context"

	"github.com/showmanfest/luckydraw/models"
	"github.com/showmanfest/luckydraw/repositories"
)

type EventService interface {
	// Reset wipes the event back to its pre-doors state in one
	// transaction: winner history gone, winner and check-in flags cleared,
	// prize stock restored and the sequence counter back at zero.
	Reset(ctx context.Context) error
}

type eventService struct {
	tx              TxRunner
	participantRepo repositories.ParticipantRepository
	prizeRepo       repositories.PrizeRepository
	winnerRepo      repositories.WinnerRepository
	settingRepo     repositories.SettingRepository
}

func NewEventService(
	tx TxRunner,
	participantRepo repositories.ParticipantRepository,
	prizeRepo repositories.PrizeRepository,
	winnerRepo repositories.WinnerRepository,
	settingRepo repositories.SettingRepository,
) EventService {
	return &eventService{
		tx:              tx,
		participantRepo: participantRepo,
		prizeRepo:       prizeRepo,
		winnerRepo:      winnerRepo,
		settingRepo:     settingRepo,
	}
}

func (s *eventService) Reset(ctx context.Context) error {
	return s.tx.RunInTx(ctx, func(tx repositories.SQLExecutor) error {
		if err := s.winnerRepo.DeleteAll(ctx, tx); err != nil {
			return err
		}
		if err := s.participantRepo.ResetAllWinners(ctx, tx); err != nil {
			return err
		}
		if err := s.participantRepo.ResetAllCheckIns(ctx, tx); err != nil {
			return err
		}
		// Row classes are always taken in the order participants, settings,
		// prizes; the counter write must precede the quota reset or this
		// transaction could deadlock against a concurrent check-in.
		if err := s.settingRepo.Set(ctx, tx, models.SettingCheckInSequence, "0"); err != nil {
			return err
		}
		return s.prizeRepo.ResetQuotas(ctx, tx)
	})
}
