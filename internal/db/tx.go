package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// TxBeginner is satisfied by *pgxpool.Pool and *pgx.Conn.
type TxBeginner interface {
	BeginTx(ctx context.Context, opts pgx.TxOptions) (pgx.Tx, error)
}

// Store pairs Queries with the pool they run on so callers can open
// transactions.
type Store struct {
	*Queries
	pool TxBeginner
}

// NewStore binds Queries to pool.
func NewStore(pool interface {
	DBTX
	TxBeginner
}) *Store {
	return &Store{Queries: New(pool), pool: pool}
}

// InTx runs fn inside a read-committed transaction. The transaction commits
// when fn returns nil and rolls back otherwise.
func (s *Store) InTx(ctx context.Context, fn func(q *Queries) error) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()
	if err := fn(s.WithTx(tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}
