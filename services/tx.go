package services

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/showmanfest/luckydraw/repositories"
)

// TxRunner runs fn inside a single database transaction. Any error (or
// panic) from fn rolls back every partial effect; there is no partial
// commit path.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(tx repositories.SQLExecutor) error) error
}

type sqlTxRunner struct {
	db *sql.DB
}

// NewSQLTxRunner wraps the database pool in a TxRunner. Core transactions
// run serializable; row-level FOR UPDATE locks inside fn do the actual
// serialization of the hot counters.
func NewSQLTxRunner(db *sql.DB) TxRunner {
	return &sqlTxRunner{db: db}
}

func (r *sqlTxRunner) RunInTx(ctx context.Context, fn func(tx repositories.SQLExecutor) error) (err error) {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				err = fmt.Errorf("transaction error: %w (rollback also failed: %v)", err, rbErr)
			}
			return
		}
		if cErr := tx.Commit(); cErr != nil {
			err = fmt.Errorf("failed to commit transaction: %w", cErr)
		}
	}()

	err = fn(tx)
	return err
}
