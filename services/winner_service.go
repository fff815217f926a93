package services

import (
	"context"
	"errors"
	"sort"

	"github.com/google/uuid"
	"github.com/showmanfest/luckydraw/models"
	"github.com/showmanfest/luckydraw/repositories"
	"github.com/showmanfest/luckydraw/storage"
)

// ConfirmResult reports the prize stock left after a confirmed batch.
type ConfirmResult struct {
	Winners        []*models.Winner `json:"winners"`
	RemainingQuota int              `json:"remaining_quota"`
}

type WinnerService interface {
	// ConfirmWinners commits a tentative winner list: marks every
	// participant a winner, inserts winner rows and takes the quota, all
	// or nothing.
	ConfirmWinners(ctx context.Context, participantIDs []string, prizeID string) (*ConfirmResult, error)
	// RemoveWinner reverses one winner record: row deleted, is_winner
	// cleared, one unit of quota restored.
	RemoveWinner(ctx context.Context, winnerID string) error
	// RemoveWinnersBulk reverses several winner records atomically. The
	// batch is all-or-nothing: one unresolved id fails the whole call.
	RemoveWinnersBulk(ctx context.Context, winnerIDs []string) error
	ListWinners(ctx context.Context) ([]*models.Winner, error)
}

type winnerService struct {
	tx              TxRunner
	participantRepo repositories.ParticipantRepository
	prizeRepo       repositories.PrizeRepository
	winnerRepo      repositories.WinnerRepository
	uploader        storage.FileUploader
	notifier        StageNotifier
}

func NewWinnerService(
	tx TxRunner,
	participantRepo repositories.ParticipantRepository,
	prizeRepo repositories.PrizeRepository,
	winnerRepo repositories.WinnerRepository,
	uploader storage.FileUploader,
	notifier StageNotifier,
) WinnerService {
	return &winnerService{
		tx:              tx,
		participantRepo: participantRepo,
		prizeRepo:       prizeRepo,
		winnerRepo:      winnerRepo,
		uploader:        uploader,
		notifier:        notifier,
	}
}

func dedupeSorted(ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func (s *winnerService) ConfirmWinners(ctx context.Context, participantIDs []string, prizeID string) (*ConfirmResult, error) {
	ids := dedupeSorted(participantIDs)
	if len(ids) == 0 {
		return nil, ErrNoWinnersGiven
	}

	result := &ConfirmResult{}

	err := s.tx.RunInTx(ctx, func(tx repositories.SQLExecutor) error {
		// Participant locks in sorted-id order, then the prize lock. Same
		// global order as check-in, so concurrent confirms and check-ins
		// cannot deadlock.
		participants, err := s.participantRepo.LockByIDs(ctx, tx, ids)
		if err != nil {
			if errors.Is(err, repositories.ErrParticipantNotFound) {
				return ErrParticipantNotFound
			}
			return err
		}
		for _, p := range participants {
			if p.IsWinner {
				return ErrParticipantAlreadyWinner
			}
		}

		prize, err := s.prizeRepo.LockByID(ctx, tx, prizeID)
		if err != nil {
			if errors.Is(err, repositories.ErrPrizeNotFound) {
				return ErrPrizeNotFound
			}
			return err
		}
		if prize.CurrentQuota < len(ids) {
			return ErrInsufficientQuota
		}

		for _, p := range participants {
			winner := &models.Winner{
				ID:            uuid.NewString(),
				ParticipantID: p.ID,
				PrizeID:       prize.ID,
				Participant:   p,
				Prize:         prize,
			}
			if err := s.winnerRepo.Create(ctx, tx, winner); err != nil {
				return err
			}
			if err := s.participantRepo.SetWinner(ctx, tx, p.ID, true); err != nil {
				return err
			}
			result.Winners = append(result.Winners, winner)
		}

		if err := s.prizeRepo.AdjustQuota(ctx, tx, prize.ID, -len(ids)); err != nil {
			return err
		}
		result.RemainingQuota = prize.CurrentQuota - len(ids)
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, w := range result.Winners {
		resolvePrizeImageURL(s.uploader, w.Prize)
	}

	if s.notifier != nil {
		s.notifier.BroadcastToRoom(StageRoom, map[string]interface{}{
			"type":    "WINNERS_CONFIRMED",
			"payload": result,
		})
	}
	return result, nil
}

func (s *winnerService) RemoveWinner(ctx context.Context, winnerID string) error {
	return s.RemoveWinnersBulk(ctx, []string{winnerID})
}

func (s *winnerService) RemoveWinnersBulk(ctx context.Context, winnerIDs []string) error {
	ids := dedupeSorted(winnerIDs)
	if len(ids) == 0 {
		return ErrNoWinnersGiven
	}

	return s.tx.RunInTx(ctx, func(tx repositories.SQLExecutor) error {
		winners, err := s.winnerRepo.FindByIDs(ctx, tx, ids)
		if err != nil {
			return err
		}
		if len(winners) != len(ids) {
			return ErrWinnerNotFound
		}

		participantIDs := make([]string, 0, len(winners))
		quotaRestore := make(map[string]int)
		for _, w := range winners {
			participantIDs = append(participantIDs, w.ParticipantID)
			quotaRestore[w.PrizeID]++
		}
		prizeIDs := make([]string, 0, len(quotaRestore))
		for id := range quotaRestore {
			prizeIDs = append(prizeIDs, id)
		}

		// Same global lock order as everywhere else: participants sorted,
		// then prizes sorted, then mutate.
		if _, err := s.participantRepo.LockByIDs(ctx, tx, dedupeSorted(participantIDs)); err != nil {
			if errors.Is(err, repositories.ErrParticipantNotFound) {
				return ErrParticipantNotFound
			}
			return err
		}
		if _, err := s.prizeRepo.LockByIDs(ctx, tx, dedupeSorted(prizeIDs)); err != nil {
			if errors.Is(err, repositories.ErrPrizeNotFound) {
				return ErrPrizeNotFound
			}
			return err
		}

		if err := s.winnerRepo.DeleteByIDs(ctx, tx, ids); err != nil {
			if errors.Is(err, repositories.ErrWinnerNotFound) {
				return ErrWinnerNotFound
			}
			return err
		}
		for _, participantID := range participantIDs {
			if err := s.participantRepo.SetWinner(ctx, tx, participantID, false); err != nil {
				return err
			}
		}
		for prizeID, n := range quotaRestore {
			if err := s.prizeRepo.AdjustQuota(ctx, tx, prizeID, n); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *winnerService) ListWinners(ctx context.Context) ([]*models.Winner, error) {
	winners, err := s.winnerRepo.ListWithDetails(ctx, nil)
	if err != nil {
		return nil, err
	}
	for _, w := range winners {
		resolvePrizeImageURL(s.uploader, w.Prize)
	}
	return winners, nil
}
