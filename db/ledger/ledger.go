// Package ledger records which change-sets have been applied to the database.
//
// Each change-set kind has its own table, named after the kind's directory
// (migrations, seeders). A row for an ID means the change-set was applied and
// not reverted since.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"go.hackfix.me/dbctl/db/changeset"
	"go.hackfix.me/dbctl/db/types"
)

// Entry is a single ledger record.
type Entry struct {
	ID        string
	Name      string
	AppliedAt time.Time
}

// Store reads and writes the ledger tables.
type Store struct {
	exec   types.Executor
	logger *slog.Logger
}

// New returns a new Store that runs its queries with exec.
func New(exec types.Executor, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{exec: exec, logger: logger.With("component", "ledger")}
}

// EnsureSchema creates the ledger tables of all kinds if they don't exist. It
// must be called before any other method.
func (s *Store) EnsureSchema(ctx context.Context) error {
	for _, kind := range changeset.Kinds() {
		if err := s.exec.Execute(ctx, s.exec.Dialect().CreateLedgerTable(kind.Dir())); err != nil {
			return fmt.Errorf("failed creating %s table: %w", kind.Dir(), err)
		}
	}
	s.logger.Debug("ledger schema ready")

	return nil
}

// AppliedIDs returns the IDs of all applied change-sets of the given kind.
func (s *Store) AppliedIDs(ctx context.Context, kind changeset.Kind) (map[string]struct{}, error) {
	rows, err := s.exec.Query(ctx, fmt.Sprintf(`SELECT id FROM %s`, kind.Dir()))
	if err != nil {
		return nil, fmt.Errorf("failed loading applied %s IDs: %w", kind, err)
	}

	ids := make(map[string]struct{}, len(rows))
	for _, row := range rows {
		if id, ok := row.String("id"); ok {
			ids[id] = struct{}{}
		}
	}

	return ids, nil
}

// Entries returns all ledger records of the given kind, sorted by ID.
func (s *Store) Entries(ctx context.Context, kind changeset.Kind) ([]Entry, error) {
	rows, err := s.exec.Query(ctx, fmt.Sprintf(`SELECT id, name, applied_at FROM %s`, kind.Dir()))
	if err != nil {
		return nil, fmt.Errorf("failed loading %s ledger: %w", kind, err)
	}

	entries := make([]Entry, 0, len(rows))
	for _, row := range rows {
		id, ok := row.String("id")
		if !ok {
			continue
		}
		name, _ := row.String("name")
		appliedAt, _ := row.Time("applied_at")
		entries = append(entries, Entry{ID: id, Name: name, AppliedAt: appliedAt})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].ID < entries[j].ID })

	return entries, nil
}

// MarkApplied records the change-set with the given ID as applied. It fails if
// the ID is already recorded.
func (s *Store) MarkApplied(ctx context.Context, kind changeset.Kind, id, name string) error {
	d := s.exec.Dialect()
	stmt := fmt.Sprintf(`INSERT INTO %s (id, name) VALUES (%s, %s)`,
		kind.Dir(), d.Placeholder(1), d.Placeholder(2))

	err := s.exec.Execute(ctx, stmt, types.Text(id), types.Text(name))
	if err != nil {
		var serr *types.StoreError
		if errors.As(err, &serr) {
			serr.Err = types.Err(kind.String(), id, serr.Err)
		}
		return fmt.Errorf("failed marking %s %s as applied: %w", kind, id, err)
	}
	s.logger.Debug("marked as applied", "kind", kind, "id", id)

	return nil
}

// UnmarkApplied removes the record of the change-set with the given ID.
// Removing an ID that isn't recorded is not an error.
func (s *Store) UnmarkApplied(ctx context.Context, kind changeset.Kind, id string) error {
	stmt := fmt.Sprintf(`DELETE FROM %s WHERE id = %s`, kind.Dir(), s.exec.Dialect().Placeholder(1))
	if err := s.exec.Execute(ctx, stmt, types.Text(id)); err != nil {
		return fmt.Errorf("failed unmarking %s %s: %w", kind, id, err)
	}
	s.logger.Debug("unmarked as applied", "kind", kind, "id", id)

	return nil
}
