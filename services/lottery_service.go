package services

import (
	"context"
	"errors"
	"math/rand"

	"github.com/showmanfest/luckydraw/draw"
	"github.com/showmanfest/luckydraw/models"
	"github.com/showmanfest/luckydraw/repositories"
)

// TentativeDraw is the operator's draw result before confirmation. It is
// never persisted; a stale list is simply thrown away.
type TentativeDraw struct {
	Winners []*models.Participant `json:"winners"`
	Prize   *models.Prize         `json:"prize"`
}

type LotteryService interface {
	// DrawCandidates picks count distinct tentative winners for the given
	// prize from the eligible pool (checked in, not yet winners). Unlike
	// the per-check-in draw this uses real randomness: it is a witnessed
	// stage ceremony, not an unattended decision. No state is changed.
	DrawCandidates(ctx context.Context, prizeID string, count int) (*TentativeDraw, error)
}

type lotteryService struct {
	participantRepo repositories.ParticipantRepository
	prizeRepo       repositories.PrizeRepository
	randInt         func(bound int) int
}

func NewLotteryService(
	participantRepo repositories.ParticipantRepository,
	prizeRepo repositories.PrizeRepository,
) LotteryService {
	return &lotteryService{
		participantRepo: participantRepo,
		prizeRepo:       prizeRepo,
		randInt:         rand.Intn,
	}
}

func (s *lotteryService) DrawCandidates(ctx context.Context, prizeID string, count int) (*TentativeDraw, error) {
	if count < 1 {
		return nil, ErrDrawCountInvalid
	}

	prize, err := s.prizeRepo.FindByID(ctx, nil, prizeID)
	if err != nil {
		if errors.Is(err, repositories.ErrPrizeNotFound) {
			return nil, ErrPrizeNotFound
		}
		return nil, err
	}
	if prize.CurrentQuota < count {
		return nil, ErrInsufficientQuota
	}

	eligible, err := s.participantRepo.ListEligible(ctx, nil)
	if err != nil {
		return nil, err
	}
	if len(eligible) < count {
		return nil, ErrInsufficientParticipants
	}

	winners := draw.ShuffledPick(eligible, count, s.randInt)

	return &TentativeDraw{Winners: winners, Prize: prize}, nil
}
