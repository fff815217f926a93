package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

var ErrSettingNotFound = errors.New("setting not found")

type SettingRepository interface {
	Get(ctx context.Context, exec SQLExecutor, key string) (string, error)
	// LockValue reads the settings row FOR UPDATE, serializing every
	// transaction that allocates a check-in position.
	LockValue(ctx context.Context, exec SQLExecutor, key string) (string, error)
	Set(ctx context.Context, exec SQLExecutor, key, value string) error
}

type postgresSettingRepository struct {
	db *sql.DB
}

func NewPostgresSettingRepository(db *sql.DB) SettingRepository {
	return &postgresSettingRepository{db: db}
}

func (r *postgresSettingRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresSettingRepository) get(ctx context.Context, exec SQLExecutor, query, key string) (string, error) {
	var value string
	err := r.getExecutor(exec).QueryRowContext(ctx, query, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrSettingNotFound
		}
		return "", fmt.Errorf("failed to read setting %q: %w", key, err)
	}
	return value, nil
}

func (r *postgresSettingRepository) Get(ctx context.Context, exec SQLExecutor, key string) (string, error) {
	return r.get(ctx, exec, `SELECT value FROM settings WHERE key = $1`, key)
}

func (r *postgresSettingRepository) LockValue(ctx context.Context, exec SQLExecutor, key string) (string, error) {
	return r.get(ctx, exec, `SELECT value FROM settings WHERE key = $1 FOR UPDATE`, key)
}

func (r *postgresSettingRepository) Set(ctx context.Context, exec SQLExecutor, key, value string) error {
	query := `UPDATE settings SET value = $1 WHERE key = $2`
	result, err := r.getExecutor(exec).ExecContext(ctx, query, value, key)
	if err != nil {
		return fmt.Errorf("failed to write setting %q: %w", key, err)
	}
	return checkAffectedRows(result, ErrSettingNotFound)
}
