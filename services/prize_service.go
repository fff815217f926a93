package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/showmanfest/luckydraw/models"
	"github.com/showmanfest/luckydraw/repositories"
	"github.com/showmanfest/luckydraw/storage"
)

type CreatePrizeInput struct {
	Name  string `json:"name"`
	Quota int    `json:"quota"`
}

type UpdatePrizeInput struct {
	Name         string `json:"name"`
	InitialQuota int    `json:"initial_quota"`
	// CurrentQuota overrides remaining stock explicitly. When nil, editing
	// initial_quota shifts current_quota by the same delta.
	CurrentQuota *int `json:"current_quota"`
}

type PrizeService interface {
	CreatePrize(ctx context.Context, input CreatePrizeInput) (*models.Prize, error)
	GetPrizeByID(ctx context.Context, id string) (*models.Prize, error)
	ListPrizes(ctx context.Context) ([]*models.Prize, error)
	ListAvailablePrizes(ctx context.Context) ([]*models.Prize, error)
	UpdatePrize(ctx context.Context, id string, input UpdatePrizeInput) (*models.Prize, error)
	// DeletePrize refuses while winner rows reference the prize; orphaned
	// winner history would make quota accounting unauditable.
	DeletePrize(ctx context.Context, id string) error
	UploadPrizeImage(ctx context.Context, id string, contentType string, data io.Reader) (*models.Prize, error)
}

type prizeService struct {
	tx         TxRunner
	prizeRepo  repositories.PrizeRepository
	winnerRepo repositories.WinnerRepository
	uploader   storage.FileUploader
}

func NewPrizeService(
	tx TxRunner,
	prizeRepo repositories.PrizeRepository,
	winnerRepo repositories.WinnerRepository,
	uploader storage.FileUploader,
) PrizeService {
	return &prizeService{
		tx:         tx,
		prizeRepo:  prizeRepo,
		winnerRepo: winnerRepo,
		uploader:   uploader,
	}
}

// resolvePrizeImageURL fills in the public artwork URL. Every surface that
// hands a prize to a client goes through this: admin CRUD, the check-in
// result and the winner listings all show the same image.
func resolvePrizeImageURL(uploader storage.FileUploader, prize *models.Prize) {
	if prize == nil || prize.ImageKey == nil || uploader == nil {
		return
	}
	url := uploader.GetPublicURL(*prize.ImageKey)
	prize.ImageURL = &url
}

func (s *prizeService) withImageURL(prize *models.Prize) *models.Prize {
	resolvePrizeImageURL(s.uploader, prize)
	return prize
}

func (s *prizeService) CreatePrize(ctx context.Context, input CreatePrizeInput) (*models.Prize, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrPrizeNameRequired
	}
	if input.Quota < 0 {
		return nil, ErrQuotaInvalid
	}

	prize := &models.Prize{
		ID:           uuid.NewString(),
		Name:         name,
		InitialQuota: input.Quota,
		CurrentQuota: input.Quota,
	}

	if err := s.prizeRepo.Create(ctx, nil, prize); err != nil {
		if errors.Is(err, repositories.ErrPrizeNameConflict) {
			return nil, ErrPrizeNameConflict
		}
		return nil, fmt.Errorf("failed to create prize: %w", err)
	}
	return prize, nil
}

func (s *prizeService) GetPrizeByID(ctx context.Context, id string) (*models.Prize, error) {
	prize, err := s.prizeRepo.FindByID(ctx, nil, id)
	if err != nil {
		if errors.Is(err, repositories.ErrPrizeNotFound) {
			return nil, ErrPrizeNotFound
		}
		return nil, fmt.Errorf("failed to get prize %s: %w", id, err)
	}
	return s.withImageURL(prize), nil
}

func (s *prizeService) ListPrizes(ctx context.Context) ([]*models.Prize, error) {
	prizes, err := s.prizeRepo.List(ctx, nil)
	if err != nil {
		return nil, err
	}
	for _, p := range prizes {
		s.withImageURL(p)
	}
	return prizes, nil
}

func (s *prizeService) ListAvailablePrizes(ctx context.Context) ([]*models.Prize, error) {
	prizes, err := s.prizeRepo.ListAvailable(ctx, nil)
	if err != nil {
		return nil, err
	}
	for _, p := range prizes {
		s.withImageURL(p)
	}
	return prizes, nil
}

func (s *prizeService) UpdatePrize(ctx context.Context, id string, input UpdatePrizeInput) (*models.Prize, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrPrizeNameRequired
	}
	if input.InitialQuota < 0 {
		return nil, ErrQuotaInvalid
	}

	var updated *models.Prize
	err := s.tx.RunInTx(ctx, func(tx repositories.SQLExecutor) error {
		prize, err := s.prizeRepo.LockByID(ctx, tx, id)
		if err != nil {
			if errors.Is(err, repositories.ErrPrizeNotFound) {
				return ErrPrizeNotFound
			}
			return err
		}

		newCurrent := prize.CurrentQuota + (input.InitialQuota - prize.InitialQuota)
		if input.CurrentQuota != nil {
			newCurrent = *input.CurrentQuota
		}
		if newCurrent < 0 {
			return ErrQuotaBelowAwarded
		}

		prize.Name = name
		prize.InitialQuota = input.InitialQuota
		prize.CurrentQuota = newCurrent

		if err := s.prizeRepo.Update(ctx, tx, prize); err != nil {
			switch {
			case errors.Is(err, repositories.ErrPrizeNameConflict):
				return ErrPrizeNameConflict
			case errors.Is(err, repositories.ErrPrizeQuotaNegative):
				return ErrQuotaBelowAwarded
			default:
				return err
			}
		}
		updated = prize
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.withImageURL(updated), nil
}

func (s *prizeService) DeletePrize(ctx context.Context, id string) error {
	var imageKey *string
	err := s.tx.RunInTx(ctx, func(tx repositories.SQLExecutor) error {
		prize, err := s.prizeRepo.LockByID(ctx, tx, id)
		if err != nil {
			if errors.Is(err, repositories.ErrPrizeNotFound) {
				return ErrPrizeNotFound
			}
			return err
		}

		awarded, err := s.winnerRepo.CountByPrize(ctx, tx, id)
		if err != nil {
			return err
		}
		if awarded > 0 {
			return ErrPrizeHasWinners
		}

		imageKey = prize.ImageKey
		return s.prizeRepo.Delete(ctx, tx, id)
	})
	if err != nil {
		return err
	}

	if imageKey != nil && s.uploader != nil {
		// Best effort: the DB row is gone, a stale object is harmless.
		_ = s.uploader.Delete(ctx, *imageKey)
	}
	return nil
}

func (s *prizeService) UploadPrizeImage(ctx context.Context, id string, contentType string, data io.Reader) (*models.Prize, error) {
	prize, err := s.GetPrizeByID(ctx, id)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("prizes/%s/%s", prize.ID, uuid.NewString())
	result, err := s.uploader.Upload(ctx, key, contentType, data)
	if err != nil {
		return nil, fmt.Errorf("failed to upload prize image: %w", err)
	}

	oldKey := prize.ImageKey
	if err := s.prizeRepo.UpdateImageKey(ctx, nil, prize.ID, &result.Key); err != nil {
		_ = s.uploader.Delete(ctx, result.Key)
		return nil, err
	}
	if oldKey != nil {
		_ = s.uploader.Delete(ctx, *oldKey)
	}

	prize.ImageKey = &result.Key
	return s.withImageURL(prize), nil
}
