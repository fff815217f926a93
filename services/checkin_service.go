package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strconv"

	"github.com/google/uuid"
	"github.com/showmanfest/luckydraw/draw"
	"github.com/showmanfest/luckydraw/models"
	"github.com/showmanfest/luckydraw/repositories"
	"github.com/showmanfest/luckydraw/storage"
)

// StageNotifier pushes committed events to the live stage screens.
type StageNotifier interface {
	BroadcastToRoom(roomID string, message interface{})
}

// StageRoom is the single websocket room the event stage listens on.
const StageRoom = "stage"

// CheckInResult is everything the check-in flow reports back: the outcome,
// the allocated position and observed digit for auditing, and prize info
// when the draw hit.
type CheckInResult struct {
	Participant      *models.Participant `json:"participant"`
	AlreadyCheckedIn bool                `json:"already_checked_in"`
	// Position and Digit describe the draw performed by this call; on a
	// repeated check-in no draw happens and both stay zero, so clients
	// must key off AlreadyCheckedIn, not off a zero position.
	Position int           `json:"position"`
	Digit    int           `json:"digit"`
	IsWinner bool          `json:"is_winner"`
	Prize    *models.Prize `json:"prize,omitempty"`
	// PrizeExhausted marks a winning draw downgraded because no prize had
	// stock left. Surfaced so the UI can explain the outcome.
	PrizeExhausted bool `json:"prize_exhausted"`
}

type CheckInService interface {
	// CheckIn atomically checks a participant in, allocates the next
	// sequence position, runs the deterministic draw and, on a win,
	// assigns a prize. Repeating the call is safe: an already-checked-in
	// participant gets their original outcome back, no second draw.
	CheckIn(ctx context.Context, participantID string) (*CheckInResult, error)
}

type checkInService struct {
	tx              TxRunner
	participantRepo repositories.ParticipantRepository
	prizeRepo       repositories.PrizeRepository
	winnerRepo      repositories.WinnerRepository
	settingRepo     repositories.SettingRepository
	rule            draw.Rule
	uploader        storage.FileUploader
	notifier        StageNotifier
	randInt         func(bound int) int
}

func NewCheckInService(
	tx TxRunner,
	participantRepo repositories.ParticipantRepository,
	prizeRepo repositories.PrizeRepository,
	winnerRepo repositories.WinnerRepository,
	settingRepo repositories.SettingRepository,
	rule draw.Rule,
	uploader storage.FileUploader,
	notifier StageNotifier,
) CheckInService {
	return &checkInService{
		tx:              tx,
		participantRepo: participantRepo,
		prizeRepo:       prizeRepo,
		winnerRepo:      winnerRepo,
		settingRepo:     settingRepo,
		rule:            rule,
		uploader:        uploader,
		notifier:        notifier,
		randInt:         rand.Intn,
	}
}

func (s *checkInService) CheckIn(ctx context.Context, participantID string) (*CheckInResult, error) {
	result := &CheckInResult{}

	err := s.tx.RunInTx(ctx, func(tx repositories.SQLExecutor) error {
		// Lock order across all core transactions: participant row first,
		// then the sequence counter, then prize rows.
		participant, err := s.participantRepo.LockByID(ctx, tx, participantID)
		if err != nil {
			if errors.Is(err, repositories.ErrParticipantNotFound) {
				return ErrParticipantNotFound
			}
			return err
		}
		result.Participant = participant

		if participant.CheckedIn {
			result.AlreadyCheckedIn = true
			winner, err := s.winnerRepo.FindByParticipant(ctx, tx, participantID)
			if err != nil {
				if errors.Is(err, repositories.ErrWinnerNotFound) {
					return nil
				}
				return err
			}
			result.IsWinner = true
			result.Prize = winner.Prize
			return nil
		}

		position, err := s.nextSequencePosition(ctx, tx)
		if err != nil {
			return err
		}

		if err := s.participantRepo.SetCheckedIn(ctx, tx, participantID); err != nil {
			return err
		}
		participant.CheckedIn = true

		decision := draw.Decide(position, s.rule)
		result.Position = decision.Position
		result.Digit = decision.Digit

		if !decision.Win || participant.IsWinner {
			return nil
		}

		return s.assignPrize(ctx, tx, participant, result)
	})
	if err != nil {
		return nil, err
	}

	resolvePrizeImageURL(s.uploader, result.Prize)

	if s.notifier != nil {
		s.notifier.BroadcastToRoom(StageRoom, map[string]interface{}{
			"type":    "CHECKED_IN",
			"payload": result,
		})
	}
	return result, nil
}

// nextSequencePosition locks the shared counter row, returns its current
// value and persists the increment. Positions are gapless relative to
// commit order: a rolled-back check-in releases its position with the row
// lock.
func (s *checkInService) nextSequencePosition(ctx context.Context, tx repositories.SQLExecutor) (int, error) {
	raw, err := s.settingRepo.LockValue(ctx, tx, models.SettingCheckInSequence)
	if err != nil {
		if errors.Is(err, repositories.ErrSettingNotFound) {
			return 0, ErrSequenceCounterMissing
		}
		return 0, err
	}

	position, err := strconv.Atoi(raw)
	if err != nil || position < 0 {
		return 0, fmt.Errorf("%w: malformed counter value %q", ErrSequenceCounterMissing, raw)
	}

	if err := s.settingRepo.Set(ctx, tx, models.SettingCheckInSequence, strconv.Itoa(position+1)); err != nil {
		return 0, err
	}
	return position, nil
}

// assignPrize picks one prize uniformly among those with remaining stock,
// takes one unit and records the win. An empty pool downgrades the win to
// "no prize available" instead of failing the check-in.
func (s *checkInService) assignPrize(ctx context.Context, tx repositories.SQLExecutor, participant *models.Participant, result *CheckInResult) error {
	available, err := s.prizeRepo.LockAvailable(ctx, tx)
	if err != nil {
		return err
	}
	if len(available) == 0 {
		result.PrizeExhausted = true
		return nil
	}

	prize := available[s.randInt(len(available))]

	if err := s.prizeRepo.AdjustQuota(ctx, tx, prize.ID, -1); err != nil {
		return err
	}
	prize.CurrentQuota--

	winner := &models.Winner{
		ID:            uuid.NewString(),
		ParticipantID: participant.ID,
		PrizeID:       prize.ID,
	}
	if err := s.winnerRepo.Create(ctx, tx, winner); err != nil {
		return err
	}

	if err := s.participantRepo.SetWinner(ctx, tx, participant.ID, true); err != nil {
		return err
	}
	participant.IsWinner = true

	result.IsWinner = true
	result.Prize = prize
	return nil
}
