package migrator

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"

	"go.hackfix.me/dbctl/db/changeset"
	"go.hackfix.me/dbctl/db/ledger"
	"go.hackfix.me/dbctl/db/types"
)

// Engine runs change-sets found in a Repository, and records them in the
// ledger.
type Engine struct {
	repo   *changeset.Repository
	ledger *ledger.Store
	exec   types.Executor
	logger *slog.Logger
}

// New returns a new Engine.
func New(repo *changeset.Repository, store *ledger.Store, exec types.Executor, opts ...Option) *Engine {
	e := &Engine{repo: repo, ledger: store, exec: exec}
	opts = append([]Option{WithLogger(slog.Default())}, opts...)
	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Status is the state of a single change-set.
type Status struct {
	ID         string
	Name       string
	Applied    bool
	AppliedAt  time.Time
	HasForward bool
	HasReverse bool
}

// Apply executes all forward files of the given kind that aren't recorded in
// the ledger, in ascending ID order, and records each one after it ran. The
// run stops at the first failure. Change-sets applied before the failure stay
// applied. It returns the files applied by this run.
func (e *Engine) Apply(ctx context.Context, kind changeset.Kind) ([]changeset.File, error) {
	logger := e.runLogger(kind)

	pending, err := e.Pending(ctx, kind)
	if err != nil {
		return nil, err
	}
	logger.Debug("starting apply run", "pending", len(pending))

	applied := make([]changeset.File, 0, len(pending))
	for _, f := range pending {
		if err = e.run(ctx, f); err != nil {
			return applied, err
		}
		if err = e.ledger.MarkApplied(ctx, kind, f.ID, f.Name); err != nil {
			return applied, err
		}
		logger.Info("applied", "id", f.ID, "name", f.Name)
		applied = append(applied, f)
	}

	return applied, nil
}

// Pending returns the forward files of the given kind that aren't recorded in
// the ledger, in the order Apply would execute them. Nothing is executed.
func (e *Engine) Pending(ctx context.Context, kind changeset.Kind) ([]changeset.File, error) {
	appliedIDs, err := e.appliedIDs(ctx, kind)
	if err != nil {
		return nil, err
	}

	files, err := e.repo.ListForward(kind)
	if err != nil {
		return nil, err
	}

	pending := make([]changeset.File, 0, len(files))
	for _, f := range files {
		if _, ok := appliedIDs[f.ID]; ok {
			continue
		}
		pending = append(pending, f)
	}

	return pending, nil
}

// Undo executes the reverse file of the newest applied change-set of the given
// kind, and removes it from the ledger. Applied change-sets without a reverse
// file are passed over. At most one change-set is reverted per call. If there
// is nothing to revert, it returns nil and no error.
func (e *Engine) Undo(ctx context.Context, kind changeset.Kind) (*changeset.File, error) {
	logger := e.runLogger(kind)

	appliedIDs, err := e.appliedIDs(ctx, kind)
	if err != nil {
		return nil, err
	}

	sets, err := e.repo.ChangeSets(kind)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(appliedIDs))
	for id := range appliedIDs {
		ids = append(ids, id)
	}
	slices.SortFunc(ids, func(a, b string) int { return cmp.Compare(b, a) })

	for _, id := range ids {
		cs, ok := sets[id]
		if !ok || cs.Reverse == nil {
			logger.Warn("applied change-set has no reverse file", "id", id)
			continue
		}
		f := *cs.Reverse
		if err = e.run(ctx, f); err != nil {
			return nil, err
		}
		if err = e.ledger.UnmarkApplied(ctx, kind, f.ID); err != nil {
			return nil, err
		}
		logger.Info("reverted", "id", f.ID, "name", f.Name)

		return &f, nil
	}

	logger.Debug("nothing to revert")

	return nil, nil
}

// Status returns the state of every change-set of the given kind, either found
// on disk or recorded in the ledger, sorted by ID.
func (e *Engine) Status(ctx context.Context, kind changeset.Kind) ([]Status, error) {
	if err := e.ledger.EnsureSchema(ctx); err != nil {
		return nil, err
	}

	entries, err := e.ledger.Entries(ctx, kind)
	if err != nil {
		return nil, err
	}

	sets, err := e.repo.ChangeSets(kind)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]*Status, len(sets))
	for id, cs := range sets {
		byID[id] = &Status{
			ID:         id,
			Name:       cs.Name,
			HasForward: cs.Forward != nil,
			HasReverse: cs.Reverse != nil,
		}
	}
	for _, en := range entries {
		st, ok := byID[en.ID]
		if !ok {
			st = &Status{ID: en.ID, Name: en.Name}
			byID[en.ID] = st
		}
		st.Applied = true
		st.AppliedAt = en.AppliedAt
	}

	status := make([]Status, 0, len(byID))
	for _, st := range byID {
		status = append(status, *st)
	}
	slices.SortFunc(status, func(a, b Status) int { return cmp.Compare(a.ID, b.ID) })

	return status, nil
}

func (e *Engine) appliedIDs(ctx context.Context, kind changeset.Kind) (map[string]struct{}, error) {
	if err := e.ledger.EnsureSchema(ctx); err != nil {
		return nil, err
	}

	return e.ledger.AppliedIDs(ctx, kind)
}

func (e *Engine) run(ctx context.Context, f changeset.File) error {
	body, err := e.repo.ReadBody(f)
	if err != nil {
		return err
	}

	if err = e.exec.Execute(ctx, body); err != nil {
		return fmt.Errorf("failed running %s '%s': %w", f.Kind, f.Path, err)
	}

	return nil
}

func (e *Engine) runLogger(kind changeset.Kind) *slog.Logger {
	return e.logger.With("kind", kind.String(), "run_id", uuid.NewString())
}
