package reminder

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore persists med state in PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, strings.TrimSpace(databaseURL))
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := initMedStateSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	return &PostgresStore{pool: pool}, nil
}

func initMedStateSchema(ctx context.Context, pool *pgxpool.Pool) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS med_state (
			user_id TEXT PRIMARY KEY,
			day_yyyymmdd TEXT NOT NULL,
			done BOOLEAN NOT NULL DEFAULT FALSE,
			last_slot TEXT NOT NULL DEFAULT ''
		);`,
		// Additive migration for tables created before slot debouncing existed.
		`ALTER TABLE med_state ADD COLUMN IF NOT EXISTS last_slot TEXT NOT NULL DEFAULT '';`,
	}

	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init med_state schema failed on %q: %w", stmt, err)
		}
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, userID, today string) (MedState, error) {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO med_state (user_id, day_yyyymmdd, done, last_slot)
		 VALUES ($1, $2, FALSE, '')
		 ON CONFLICT (user_id) DO NOTHING`,
		userID, today,
	)
	if err != nil {
		return MedState{}, fmt.Errorf("ensure med_state row: %w", err)
	}

	// Daily rollover. The WHERE guard keeps concurrent resets idempotent.
	_, err = s.pool.Exec(ctx,
		`UPDATE med_state SET day_yyyymmdd=$2, done=FALSE, last_slot=''
		 WHERE user_id=$1 AND day_yyyymmdd <> $2`,
		userID, today,
	)
	if err != nil {
		return MedState{}, fmt.Errorf("roll over med_state: %w", err)
	}

	var st MedState
	err = s.pool.QueryRow(ctx,
		`SELECT user_id, day_yyyymmdd, done, last_slot FROM med_state WHERE user_id=$1`,
		userID,
	).Scan(&st.UserID, &st.Day, &st.Done, &st.LastSlot)
	if err != nil {
		return MedState{}, fmt.Errorf("read med_state: %w", err)
	}
	return st, nil
}

func (s *PostgresStore) MarkDone(ctx context.Context, userID, today string) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO med_state (user_id, day_yyyymmdd, done, last_slot)
		 VALUES ($1, $2, TRUE, '')
		 ON CONFLICT (user_id) DO UPDATE SET
			day_yyyymmdd = EXCLUDED.day_yyyymmdd,
			done = TRUE,
			last_slot = CASE
				WHEN med_state.day_yyyymmdd = EXCLUDED.day_yyyymmdd THEN med_state.last_slot
				ELSE ''
			END`,
		userID, today,
	)
	if err != nil {
		return fmt.Errorf("mark done: %w", err)
	}
	return nil
}

func (s *PostgresStore) ClaimSlot(ctx context.Context, userID, today, slot string) (bool, error) {
	// Single guarded UPDATE: row-level locking makes the check-and-set atomic,
	// so concurrent turns cannot both claim the same slot.
	tag, err := s.pool.Exec(ctx,
		`UPDATE med_state SET last_slot=$3
		 WHERE user_id=$1 AND day_yyyymmdd=$2 AND done=FALSE AND last_slot <> $3`,
		userID, today, slot,
	)
	if err != nil {
		return false, fmt.Errorf("claim slot: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
