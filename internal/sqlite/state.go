package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/linkrunner-labs/pageone/internal/domain/attribution"
)

// Keys in the app_state table. The install timestamp is stored as RFC3339.
const (
	keyInstallTimestamp    = "install_timestamp"
	keyInstallPostbackSent = "install_postback_sent"
)

// StateRepository implements attribution.StateStore over the app_state
// key-value table.
type StateRepository struct {
	db *DB
}

// NewStateRepository creates a new StateRepository
func NewStateRepository(db *DB) *StateRepository {
	return &StateRepository{db: db}
}

// Load reads the install record. A missing install timestamp means no record
// exists yet; a present but undecodable one is reported as corrupt.
func (r *StateRepository) Load(ctx context.Context) (attribution.State, bool, error) {
	var state attribution.State

	raw, ok, err := r.get(ctx, keyInstallTimestamp)
	if err != nil {
		return state, false, err
	}
	if !ok {
		return state, false, nil
	}
	installedAt, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return state, false, fmt.Errorf("%w: install timestamp %q", attribution.ErrStateCorrupt, raw)
	}
	state.InstalledAt = installedAt

	raw, ok, err = r.get(ctx, keyInstallPostbackSent)
	if err != nil {
		return state, false, err
	}
	if ok {
		sent, err := strconv.ParseBool(raw)
		if err != nil {
			return state, false, fmt.Errorf("%w: postback flag %q", attribution.ErrStateCorrupt, raw)
		}
		state.PostbackSent = sent
	}

	return state, true, nil
}

// Save upserts both install-state entries in one transaction.
func (r *StateRepository) Save(ctx context.Context, state attribution.State) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin state save: %w", err)
	}
	defer tx.Rollback()

	entries := map[string]string{
		keyInstallTimestamp:    state.InstalledAt.UTC().Format(time.RFC3339Nano),
		keyInstallPostbackSent: strconv.FormatBool(state.PostbackSent),
	}
	query := `
		INSERT INTO app_state (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP
	`
	for key, value := range entries {
		if _, err := tx.ExecContext(ctx, query, key, value); err != nil {
			return fmt.Errorf("failed to save state key %s: %w", key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit state save: %w", err)
	}
	return nil
}

func (r *StateRepository) get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := r.db.QueryRowContext(ctx, `SELECT value FROM app_state WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read state key %s: %w", key, err)
	}
	return value, true, nil
}
