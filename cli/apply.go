package cli

import (
	"errors"
	"fmt"

	"github.com/alecthomas/kong"

	actx "go.hackfix.me/dbctl/app/context"
	aerrors "go.hackfix.me/dbctl/app/errors"
	"go.hackfix.me/dbctl/db"
	"go.hackfix.me/dbctl/db/changeset"
	"go.hackfix.me/dbctl/db/ledger"
	"go.hackfix.me/dbctl/db/migrator"
	"go.hackfix.me/dbctl/db/types"
)

// The Apply command runs all pending change-sets of a kind.
type Apply struct {
	DryRun bool `help:"Only list the pending change-sets, without running them."`
}

// Run the apply command.
func (c *Apply) Run(kctx *kong.Context, appCtx *actx.Context) error {
	kind := kindOf(kctx)
	engine := newEngine(appCtx)

	if c.DryRun {
		pending, err := engine.Pending(appCtx.Ctx, kind)
		if err != nil {
			return runError(kind, fmt.Sprintf("failed loading pending %ss", kind), err)
		}
		if len(pending) == 0 {
			_, err = fmt.Fprintf(appCtx.Stdout, "No pending %ss.\n", kind)
			return err
		}
		for _, f := range pending {
			if _, err = fmt.Fprintf(appCtx.Stdout, "Pending %s: %s\n", kind, f.Path); err != nil {
				return err
			}
		}
		return nil
	}

	applied, err := engine.Apply(appCtx.Ctx, kind)
	// Report the change-sets applied before any failure.
	for _, f := range applied {
		if _, werr := fmt.Fprintf(appCtx.Stdout, "Applied %s: %s\n", kind, f.Path); werr != nil {
			return werr
		}
	}
	if err != nil {
		return runError(kind, fmt.Sprintf("failed applying %ss", kind), err)
	}

	return nil
}

// The Undo command reverts the most recently applied change-set of a kind.
type Undo struct{}

// Run the undo command.
func (c *Undo) Run(kctx *kong.Context, appCtx *actx.Context) error {
	kind := kindOf(kctx)

	reverted, err := newEngine(appCtx).Undo(appCtx.Ctx, kind)
	if err != nil {
		return runError(kind, fmt.Sprintf("failed reverting %s", kind), err)
	}
	if reverted == nil {
		return nil
	}

	_, err = fmt.Fprintf(appCtx.Stdout, "Reverted %s: %s\n", kind, reverted.Path)

	return err
}

func newEngine(appCtx *actx.Context) *migrator.Engine {
	exec := db.NewExecutor(appCtx.DB)
	repo := changeset.NewRepository(appCtx.FS, appCtx.Config.RootDir.V)

	return migrator.New(repo, ledger.New(exec, appCtx.Logger), exec,
		migrator.WithLogger(appCtx.Logger))
}

func runError(kind changeset.Kind, msg string, err error) error {
	var hint string
	var cerr *types.ConnectionError
	if errors.As(err, &cerr) {
		hint = "check the database settings in the configuration file or the DB_* environment variables"
	}

	return aerrors.With(aerrors.NewRuntimeError(msg, err, hint), "kind", kind.String())
}
