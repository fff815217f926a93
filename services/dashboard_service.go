package services

import (
	"context"

	"github.com/showmanfest/luckydraw/models"
	"github.com/showmanfest/luckydraw/repositories"
	"golang.org/x/sync/errgroup"
)

type DashboardService interface {
	GetStats(ctx context.Context) (*models.EventStats, error)
}

type dashboardService struct {
	participantRepo repositories.ParticipantRepository
	prizeRepo       repositories.PrizeRepository
	winnerRepo      repositories.WinnerRepository
}

func NewDashboardService(
	participantRepo repositories.ParticipantRepository,
	prizeRepo repositories.PrizeRepository,
	winnerRepo repositories.WinnerRepository,
) DashboardService {
	return &dashboardService{
		participantRepo: participantRepo,
		prizeRepo:       prizeRepo,
		winnerRepo:      winnerRepo,
	}
}

func (s *dashboardService) GetStats(ctx context.Context) (*models.EventStats, error) {
	stats := &models.EventStats{}
	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		total, err := s.participantRepo.Count(gCtx, nil, false)
		stats.ParticipantsTotal = total
		return err
	})
	g.Go(func() error {
		checkedIn, err := s.participantRepo.Count(gCtx, nil, true)
		stats.CheckedInTotal = checkedIn
		return err
	})
	g.Go(func() error {
		winners, err := s.winnerRepo.Count(gCtx, nil)
		stats.WinnersTotal = winners
		return err
	})
	g.Go(func() error {
		count, stock, err := s.prizeRepo.CountAndStock(gCtx, nil)
		stats.PrizesTotal = count
		stats.PrizeStockLeft = stock
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return stats, nil
}
