package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/showmanfest/luckydraw/models"
)

var ErrWinnerNotFound = errors.New("winner record not found")

type WinnerRepository interface {
	Create(ctx context.Context, exec SQLExecutor, winner *models.Winner) error
	FindByID(ctx context.Context, exec SQLExecutor, id string) (*models.Winner, error)
	FindByIDs(ctx context.Context, exec SQLExecutor, ids []string) ([]*models.Winner, error)
	// FindByParticipant returns the participant's winner row with the prize
	// joined in, or ErrWinnerNotFound. A participant holds at most one.
	FindByParticipant(ctx context.Context, exec SQLExecutor, participantID string) (*models.Winner, error)
	ListWithDetails(ctx context.Context, exec SQLExecutor) ([]*models.Winner, error)
	DeleteByIDs(ctx context.Context, exec SQLExecutor, ids []string) error
	DeleteAll(ctx context.Context, exec SQLExecutor) error
	CountByPrize(ctx context.Context, exec SQLExecutor, prizeID string) (int, error)
	Count(ctx context.Context, exec SQLExecutor) (int, error)
}

type postgresWinnerRepository struct {
	db *sql.DB
}

func NewPostgresWinnerRepository(db *sql.DB) WinnerRepository {
	return &postgresWinnerRepository{db: db}
}

func (r *postgresWinnerRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresWinnerRepository) Create(ctx context.Context, exec SQLExecutor, winner *models.Winner) error {
	query := `
		INSERT INTO winners (id, participant_id, prize_id)
		VALUES ($1, $2, $3)
		RETURNING won_at`

	err := r.getExecutor(exec).QueryRowContext(ctx, query,
		winner.ID,
		winner.ParticipantID,
		winner.PrizeID,
	).Scan(&winner.WonAt)
	if err != nil {
		return fmt.Errorf("failed to create winner record: %w", err)
	}
	return nil
}

func (r *postgresWinnerRepository) FindByID(ctx context.Context, exec SQLExecutor, id string) (*models.Winner, error) {
	query := `SELECT id, participant_id, prize_id, won_at FROM winners WHERE id = $1`
	w := &models.Winner{}
	row := r.getExecutor(exec).QueryRowContext(ctx, query, id)
	if err := row.Scan(&w.ID, &w.ParticipantID, &w.PrizeID, &w.WonAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrWinnerNotFound
		}
		return nil, fmt.Errorf("failed to find winner record: %w", err)
	}
	return w, nil
}

func (r *postgresWinnerRepository) FindByIDs(ctx context.Context, exec SQLExecutor, ids []string) ([]*models.Winner, error) {
	if len(ids) == 0 {
		return []*models.Winner{}, nil
	}
	query := `SELECT id, participant_id, prize_id, won_at FROM winners WHERE id = ANY($1) ORDER BY id`
	rows, err := r.getExecutor(exec).QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to query winner records: %w", err)
	}
	defer rows.Close()

	winners := make([]*models.Winner, 0, len(ids))
	for rows.Next() {
		var w models.Winner
		if err := rows.Scan(&w.ID, &w.ParticipantID, &w.PrizeID, &w.WonAt); err != nil {
			return nil, fmt.Errorf("failed to scan winner row: %w", err)
		}
		winners = append(winners, &w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating winner rows: %w", err)
	}
	return winners, nil
}

func (r *postgresWinnerRepository) FindByParticipant(ctx context.Context, exec SQLExecutor, participantID string) (*models.Winner, error) {
	query := `
		SELECT w.id, w.participant_id, w.prize_id, w.won_at,
		       pr.id, pr.name, pr.initial_quota, pr.current_quota, pr.image_key, pr.created_at
		FROM winners w
		JOIN prizes pr ON w.prize_id = pr.id
		WHERE w.participant_id = $1
		ORDER BY w.won_at DESC
		LIMIT 1`

	w := &models.Winner{Prize: &models.Prize{}}
	row := r.getExecutor(exec).QueryRowContext(ctx, query, participantID)
	err := row.Scan(
		&w.ID, &w.ParticipantID, &w.PrizeID, &w.WonAt,
		&w.Prize.ID, &w.Prize.Name, &w.Prize.InitialQuota, &w.Prize.CurrentQuota, &w.Prize.ImageKey, &w.Prize.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrWinnerNotFound
		}
		return nil, fmt.Errorf("failed to find winner record by participant: %w", err)
	}
	return w, nil
}

func (r *postgresWinnerRepository) ListWithDetails(ctx context.Context, exec SQLExecutor) ([]*models.Winner, error) {
	query := `
		SELECT w.id, w.participant_id, w.prize_id, w.won_at,
		       p.id, p.name, p.external_id, p.category, p.employment_type, p.is_winner, p.checked_in, p.created_at,
		       pr.id, pr.name, pr.initial_quota, pr.current_quota, pr.image_key, pr.created_at
		FROM winners w
		JOIN participants p ON w.participant_id = p.id
		JOIN prizes pr ON w.prize_id = pr.id
		ORDER BY w.won_at DESC`

	rows, err := r.getExecutor(exec).QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list winner records: %w", err)
	}
	defer rows.Close()

	winners := make([]*models.Winner, 0)
	for rows.Next() {
		w := models.Winner{Participant: &models.Participant{}, Prize: &models.Prize{}}
		err := rows.Scan(
			&w.ID, &w.ParticipantID, &w.PrizeID, &w.WonAt,
			&w.Participant.ID, &w.Participant.Name, &w.Participant.ExternalID, &w.Participant.Category,
			&w.Participant.EmploymentType, &w.Participant.IsWinner, &w.Participant.CheckedIn, &w.Participant.CreatedAt,
			&w.Prize.ID, &w.Prize.Name, &w.Prize.InitialQuota, &w.Prize.CurrentQuota, &w.Prize.ImageKey, &w.Prize.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan winner row: %w", err)
		}
		winners = append(winners, &w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating winner rows: %w", err)
	}
	return winners, nil
}

func (r *postgresWinnerRepository) DeleteByIDs(ctx context.Context, exec SQLExecutor, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	query := `DELETE FROM winners WHERE id = ANY($1)`
	result, err := r.getExecutor(exec).ExecContext(ctx, query, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("failed to delete winner records: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if int(rowsAffected) != len(ids) {
		return ErrWinnerNotFound
	}
	return nil
}

func (r *postgresWinnerRepository) DeleteAll(ctx context.Context, exec SQLExecutor) error {
	if _, err := r.getExecutor(exec).ExecContext(ctx, `DELETE FROM winners`); err != nil {
		return fmt.Errorf("failed to delete winner records: %w", err)
	}
	return nil
}

func (r *postgresWinnerRepository) CountByPrize(ctx context.Context, exec SQLExecutor, prizeID string) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM winners WHERE prize_id = $1`
	if err := r.getExecutor(exec).QueryRowContext(ctx, query, prizeID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count winners for prize: %w", err)
	}
	return count, nil
}

func (r *postgresWinnerRepository) Count(ctx context.Context, exec SQLExecutor) (int, error) {
	var count int
	if err := r.getExecutor(exec).QueryRowContext(ctx, `SELECT COUNT(*) FROM winners`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count winners: %w", err)
	}
	return count, nil
}
