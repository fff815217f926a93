package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/showmanfest/luckydraw/models"
)

var (
	ErrPrizeNotFound      = errors.New("prize not found")
	ErrPrizeNameConflict  = errors.New("prize conflict: name already exists")
	ErrPrizeQuotaNegative = errors.New("prize quota would drop below zero")
)

type PrizeRepository interface {
	Create(ctx context.Context, exec SQLExecutor, prize *models.Prize) error
	FindByID(ctx context.Context, exec SQLExecutor, id string) (*models.Prize, error)
	// LockByID reads the prize row FOR UPDATE; the caller must already hold
	// any participant and settings locks it needs (prizes lock last).
	LockByID(ctx context.Context, exec SQLExecutor, id string) (*models.Prize, error)
	LockByIDs(ctx context.Context, exec SQLExecutor, ids []string) ([]*models.Prize, error)
	// LockAvailable locks every prize that still has stock, in id order.
	LockAvailable(ctx context.Context, exec SQLExecutor) ([]*models.Prize, error)
	List(ctx context.Context, exec SQLExecutor) ([]*models.Prize, error)
	ListAvailable(ctx context.Context, exec SQLExecutor) ([]*models.Prize, error)
	Update(ctx context.Context, exec SQLExecutor, prize *models.Prize) error
	UpdateImageKey(ctx context.Context, exec SQLExecutor, id string, imageKey *string) error
	// AdjustQuota shifts current_quota by delta. The CHECK constraint on
	// the column turns an oversell into ErrPrizeQuotaNegative.
	AdjustQuota(ctx context.Context, exec SQLExecutor, id string, delta int) error
	ResetQuotas(ctx context.Context, exec SQLExecutor) error
	Delete(ctx context.Context, exec SQLExecutor, id string) error
	CountAndStock(ctx context.Context, exec SQLExecutor) (count int, stock int, err error)
}

type postgresPrizeRepository struct {
	db *sql.DB
}

func NewPostgresPrizeRepository(db *sql.DB) PrizeRepository {
	return &postgresPrizeRepository{db: db}
}

func (r *postgresPrizeRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const prizeColumns = `id, name, initial_quota, current_quota, image_key, created_at`

func scanPrize(rowScanner interface {
	Scan(dest ...interface{}) error
}, p *models.Prize) error {
	return rowScanner.Scan(
		&p.ID,
		&p.Name,
		&p.InitialQuota,
		&p.CurrentQuota,
		&p.ImageKey,
		&p.CreatedAt,
	)
}

func (r *postgresPrizeRepository) Create(ctx context.Context, exec SQLExecutor, prize *models.Prize) error {
	query := `
		INSERT INTO prizes (id, name, initial_quota, current_quota, image_key)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at`

	err := r.getExecutor(exec).QueryRowContext(ctx, query,
		prize.ID,
		prize.Name,
		prize.InitialQuota,
		prize.CurrentQuota,
		prize.ImageKey,
	).Scan(&prize.CreatedAt)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return ErrPrizeNameConflict
		}
		return fmt.Errorf("failed to create prize: %w", err)
	}
	return nil
}

func (r *postgresPrizeRepository) findOne(ctx context.Context, exec SQLExecutor, query string, args ...interface{}) (*models.Prize, error) {
	p := &models.Prize{}
	row := r.getExecutor(exec).QueryRowContext(ctx, query, args...)
	if err := scanPrize(row, p); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPrizeNotFound
		}
		return nil, fmt.Errorf("failed to find prize: %w", err)
	}
	return p, nil
}

func (r *postgresPrizeRepository) FindByID(ctx context.Context, exec SQLExecutor, id string) (*models.Prize, error) {
	query := `SELECT ` + prizeColumns + ` FROM prizes WHERE id = $1`
	return r.findOne(ctx, exec, query, id)
}

func (r *postgresPrizeRepository) LockByID(ctx context.Context, exec SQLExecutor, id string) (*models.Prize, error) {
	query := `SELECT ` + prizeColumns + ` FROM prizes WHERE id = $1 FOR UPDATE`
	return r.findOne(ctx, exec, query, id)
}

func (r *postgresPrizeRepository) list(ctx context.Context, exec SQLExecutor, query string, args ...interface{}) ([]*models.Prize, error) {
	rows, err := r.getExecutor(exec).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list prizes: %w", err)
	}
	defer rows.Close()

	prizes := make([]*models.Prize, 0)
	for rows.Next() {
		var p models.Prize
		if err := scanPrize(rows, &p); err != nil {
			return nil, fmt.Errorf("failed to scan prize row: %w", err)
		}
		prizes = append(prizes, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating prize rows: %w", err)
	}
	return prizes, nil
}

func (r *postgresPrizeRepository) LockByIDs(ctx context.Context, exec SQLExecutor, ids []string) ([]*models.Prize, error) {
	if len(ids) == 0 {
		return []*models.Prize{}, nil
	}
	query := `SELECT ` + prizeColumns + ` FROM prizes WHERE id = ANY($1) ORDER BY id FOR UPDATE`
	prizes, err := r.list(ctx, exec, query, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	if len(prizes) != len(ids) {
		return nil, ErrPrizeNotFound
	}
	return prizes, nil
}

func (r *postgresPrizeRepository) LockAvailable(ctx context.Context, exec SQLExecutor) ([]*models.Prize, error) {
	query := `SELECT ` + prizeColumns + ` FROM prizes WHERE current_quota > 0 ORDER BY id FOR UPDATE`
	return r.list(ctx, exec, query)
}

func (r *postgresPrizeRepository) List(ctx context.Context, exec SQLExecutor) ([]*models.Prize, error) {
	query := `SELECT ` + prizeColumns + ` FROM prizes ORDER BY name`
	return r.list(ctx, exec, query)
}

func (r *postgresPrizeRepository) ListAvailable(ctx context.Context, exec SQLExecutor) ([]*models.Prize, error) {
	query := `SELECT ` + prizeColumns + ` FROM prizes WHERE current_quota > 0 ORDER BY name`
	return r.list(ctx, exec, query)
}

func (r *postgresPrizeRepository) Update(ctx context.Context, exec SQLExecutor, prize *models.Prize) error {
	query := `UPDATE prizes SET name = $1, initial_quota = $2, current_quota = $3 WHERE id = $4`
	result, err := r.getExecutor(exec).ExecContext(ctx, query, prize.Name, prize.InitialQuota, prize.CurrentQuota, prize.ID)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			switch pqErr.Code {
			case "23505":
				return ErrPrizeNameConflict
			case "23514":
				return ErrPrizeQuotaNegative
			}
		}
		return fmt.Errorf("failed to update prize: %w", err)
	}
	return checkAffectedRows(result, ErrPrizeNotFound)
}

func (r *postgresPrizeRepository) UpdateImageKey(ctx context.Context, exec SQLExecutor, id string, imageKey *string) error {
	query := `UPDATE prizes SET image_key = $1 WHERE id = $2`
	result, err := r.getExecutor(exec).ExecContext(ctx, query, imageKey, id)
	if err != nil {
		return fmt.Errorf("failed to update prize image key: %w", err)
	}
	return checkAffectedRows(result, ErrPrizeNotFound)
}

func (r *postgresPrizeRepository) AdjustQuota(ctx context.Context, exec SQLExecutor, id string, delta int) error {
	query := `UPDATE prizes SET current_quota = current_quota + $1 WHERE id = $2`
	result, err := r.getExecutor(exec).ExecContext(ctx, query, delta, id)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23514" {
			return ErrPrizeQuotaNegative
		}
		return fmt.Errorf("failed to adjust prize quota: %w", err)
	}
	return checkAffectedRows(result, ErrPrizeNotFound)
}

func (r *postgresPrizeRepository) ResetQuotas(ctx context.Context, exec SQLExecutor) error {
	query := `UPDATE prizes SET current_quota = initial_quota`
	if _, err := r.getExecutor(exec).ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to reset prize quotas: %w", err)
	}
	return nil
}

func (r *postgresPrizeRepository) Delete(ctx context.Context, exec SQLExecutor, id string) error {
	query := `DELETE FROM prizes WHERE id = $1`
	result, err := r.getExecutor(exec).ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete prize: %w", err)
	}
	return checkAffectedRows(result, ErrPrizeNotFound)
}

func (r *postgresPrizeRepository) CountAndStock(ctx context.Context, exec SQLExecutor) (int, int, error) {
	query := `SELECT COUNT(*), COALESCE(SUM(current_quota), 0) FROM prizes`
	var count, stock int
	if err := r.getExecutor(exec).QueryRowContext(ctx, query).Scan(&count, &stock); err != nil {
		return 0, 0, fmt.Errorf("failed to count prizes: %w", err)
	}
	return count, stock, nil
}
