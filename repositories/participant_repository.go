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
	ErrParticipantNotFound           = errors.New("participant not found")
	ErrParticipantExternalIDConflict = errors.New("participant conflict: external id already registered")
)

type ParticipantRepository interface {
	Create(ctx context.Context, exec SQLExecutor, p *models.Participant) error
	CreateBatch(ctx context.Context, exec SQLExecutor, participants []*models.Participant) error
	FindByID(ctx context.Context, exec SQLExecutor, id string) (*models.Participant, error)
	FindByExternalID(ctx context.Context, exec SQLExecutor, externalID string) (*models.Participant, error)
	// LockByID reads the participant row FOR UPDATE. Must run inside a
	// transaction; this is always the first lock a core transaction takes.
	LockByID(ctx context.Context, exec SQLExecutor, id string) (*models.Participant, error)
	// LockByIDs locks the given rows FOR UPDATE in ascending id order and
	// fails with ErrParticipantNotFound unless every id resolves.
	LockByIDs(ctx context.Context, exec SQLExecutor, ids []string) ([]*models.Participant, error)
	List(ctx context.Context, exec SQLExecutor) ([]*models.Participant, error)
	ListEligible(ctx context.Context, exec SQLExecutor) ([]*models.Participant, error)
	Update(ctx context.Context, exec SQLExecutor, p *models.Participant) error
	SetCheckedIn(ctx context.Context, exec SQLExecutor, id string) error
	SetWinner(ctx context.Context, exec SQLExecutor, id string, isWinner bool) error
	ResetAllWinners(ctx context.Context, exec SQLExecutor) error
	ResetAllCheckIns(ctx context.Context, exec SQLExecutor) error
	Delete(ctx context.Context, exec SQLExecutor, id string) error
	Count(ctx context.Context, exec SQLExecutor, checkedInOnly bool) (int, error)
}

type postgresParticipantRepository struct {
	db *sql.DB
}

func NewPostgresParticipantRepository(db *sql.DB) ParticipantRepository {
	return &postgresParticipantRepository{db: db}
}

func (r *postgresParticipantRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const participantColumns = `id, name, external_id, category, employment_type, is_winner, checked_in, created_at`

func scanParticipant(rowScanner interface {
	Scan(dest ...interface{}) error
}, p *models.Participant) error {
	return rowScanner.Scan(
		&p.ID,
		&p.Name,
		&p.ExternalID,
		&p.Category,
		&p.EmploymentType,
		&p.IsWinner,
		&p.CheckedIn,
		&p.CreatedAt,
	)
}

func (r *postgresParticipantRepository) Create(ctx context.Context, exec SQLExecutor, p *models.Participant) error {
	query := `
		INSERT INTO participants (id, name, external_id, category, employment_type, is_winner, checked_in)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at`

	err := r.getExecutor(exec).QueryRowContext(ctx, query,
		p.ID,
		p.Name,
		p.ExternalID,
		p.Category,
		p.EmploymentType,
		p.IsWinner,
		p.CheckedIn,
	).Scan(&p.CreatedAt)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			if pqErr.Constraint == "participants_external_id_key" {
				return ErrParticipantExternalIDConflict
			}
		}
		return fmt.Errorf("failed to create participant: %w", err)
	}
	return nil
}

func (r *postgresParticipantRepository) CreateBatch(ctx context.Context, exec SQLExecutor, participants []*models.Participant) error {
	for _, p := range participants {
		if err := r.Create(ctx, exec, p); err != nil {
			return fmt.Errorf("failed to create participant %q: %w", p.ExternalID, err)
		}
	}
	return nil
}

func (r *postgresParticipantRepository) findOne(ctx context.Context, exec SQLExecutor, query string, args ...interface{}) (*models.Participant, error) {
	p := &models.Participant{}
	row := r.getExecutor(exec).QueryRowContext(ctx, query, args...)
	if err := scanParticipant(row, p); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrParticipantNotFound
		}
		return nil, fmt.Errorf("failed to find participant: %w", err)
	}
	return p, nil
}

func (r *postgresParticipantRepository) FindByID(ctx context.Context, exec SQLExecutor, id string) (*models.Participant, error) {
	query := `SELECT ` + participantColumns + ` FROM participants WHERE id = $1`
	return r.findOne(ctx, exec, query, id)
}

func (r *postgresParticipantRepository) FindByExternalID(ctx context.Context, exec SQLExecutor, externalID string) (*models.Participant, error) {
	query := `SELECT ` + participantColumns + ` FROM participants WHERE external_id = $1`
	return r.findOne(ctx, exec, query, externalID)
}

func (r *postgresParticipantRepository) LockByID(ctx context.Context, exec SQLExecutor, id string) (*models.Participant, error) {
	query := `SELECT ` + participantColumns + ` FROM participants WHERE id = $1 FOR UPDATE`
	return r.findOne(ctx, exec, query, id)
}

func (r *postgresParticipantRepository) LockByIDs(ctx context.Context, exec SQLExecutor, ids []string) ([]*models.Participant, error) {
	if len(ids) == 0 {
		return []*models.Participant{}, nil
	}

	// ORDER BY id keeps the lock acquisition order identical across
	// concurrent transactions regardless of the order the caller passed.
	query := `SELECT ` + participantColumns + ` FROM participants WHERE id = ANY($1) ORDER BY id FOR UPDATE`
	rows, err := r.getExecutor(exec).QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to lock participants: %w", err)
	}
	defer rows.Close()

	participants := make([]*models.Participant, 0, len(ids))
	for rows.Next() {
		var p models.Participant
		if err := scanParticipant(rows, &p); err != nil {
			return nil, fmt.Errorf("failed to scan participant row: %w", err)
		}
		participants = append(participants, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating participant rows: %w", err)
	}
	if len(participants) != len(ids) {
		return nil, ErrParticipantNotFound
	}
	return participants, nil
}

func (r *postgresParticipantRepository) list(ctx context.Context, exec SQLExecutor, query string, args ...interface{}) ([]*models.Participant, error) {
	rows, err := r.getExecutor(exec).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list participants: %w", err)
	}
	defer rows.Close()

	participants := make([]*models.Participant, 0)
	for rows.Next() {
		var p models.Participant
		if err := scanParticipant(rows, &p); err != nil {
			return nil, fmt.Errorf("failed to scan participant row: %w", err)
		}
		participants = append(participants, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating participant rows: %w", err)
	}
	return participants, nil
}

func (r *postgresParticipantRepository) List(ctx context.Context, exec SQLExecutor) ([]*models.Participant, error) {
	query := `SELECT ` + participantColumns + ` FROM participants ORDER BY name`
	return r.list(ctx, exec, query)
}

func (r *postgresParticipantRepository) ListEligible(ctx context.Context, exec SQLExecutor) ([]*models.Participant, error) {
	query := `SELECT ` + participantColumns + ` FROM participants WHERE checked_in = TRUE AND is_winner = FALSE ORDER BY name`
	return r.list(ctx, exec, query)
}

func (r *postgresParticipantRepository) Update(ctx context.Context, exec SQLExecutor, p *models.Participant) error {
	query := `UPDATE participants SET name = $1, external_id = $2, category = $3, employment_type = $4 WHERE id = $5`
	result, err := r.getExecutor(exec).ExecContext(ctx, query, p.Name, p.ExternalID, p.Category, p.EmploymentType, p.ID)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return ErrParticipantExternalIDConflict
		}
		return fmt.Errorf("failed to update participant: %w", err)
	}
	return checkAffectedRows(result, ErrParticipantNotFound)
}

func (r *postgresParticipantRepository) SetCheckedIn(ctx context.Context, exec SQLExecutor, id string) error {
	query := `UPDATE participants SET checked_in = TRUE WHERE id = $1`
	result, err := r.getExecutor(exec).ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to mark participant as checked in: %w", err)
	}
	return checkAffectedRows(result, ErrParticipantNotFound)
}

func (r *postgresParticipantRepository) SetWinner(ctx context.Context, exec SQLExecutor, id string, isWinner bool) error {
	query := `UPDATE participants SET is_winner = $1 WHERE id = $2`
	result, err := r.getExecutor(exec).ExecContext(ctx, query, isWinner, id)
	if err != nil {
		return fmt.Errorf("failed to update participant winner flag: %w", err)
	}
	return checkAffectedRows(result, ErrParticipantNotFound)
}

func (r *postgresParticipantRepository) ResetAllWinners(ctx context.Context, exec SQLExecutor) error {
	query := `UPDATE participants SET is_winner = FALSE`
	if _, err := r.getExecutor(exec).ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to reset participant winner flags: %w", err)
	}
	return nil
}

func (r *postgresParticipantRepository) ResetAllCheckIns(ctx context.Context, exec SQLExecutor) error {
	query := `UPDATE participants SET checked_in = FALSE`
	if _, err := r.getExecutor(exec).ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to reset participant check-in flags: %w", err)
	}
	return nil
}

func (r *postgresParticipantRepository) Delete(ctx context.Context, exec SQLExecutor, id string) error {
	query := `DELETE FROM participants WHERE id = $1`
	result, err := r.getExecutor(exec).ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete participant: %w", err)
	}
	return checkAffectedRows(result, ErrParticipantNotFound)
}

func (r *postgresParticipantRepository) Count(ctx context.Context, exec SQLExecutor, checkedInOnly bool) (int, error) {
	query := `SELECT COUNT(*) FROM participants`
	if checkedInOnly {
		query += ` WHERE checked_in = TRUE`
	}
	var count int
	if err := r.getExecutor(exec).QueryRowContext(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count participants: %w", err)
	}
	return count, nil
}
