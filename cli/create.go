package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"

	"github.com/alecthomas/kong"

	actx "go.hackfix.me/dbctl/app/context"
	aerrors "go.hackfix.me/dbctl/app/errors"
	"go.hackfix.me/dbctl/db/changeset"
)

// The Create command creates a forward/reverse file pair for a new change-set.
// If the name isn't given as an argument, it's read from stdin.
type Create struct {
	Name string `arg:"" optional:"" help:"Name of the change-set. Spaces are replaced with underscores."`
}

// Run the create command.
func (c *Create) Run(kctx *kong.Context, appCtx *actx.Context) error {
	kind := kindOf(kctx)

	name := c.Name
	if name == "" {
		var err error
		if name, err = prompt(appCtx, "Enter name: "); err != nil {
			return aerrors.NewRuntimeError("failed reading name", err, "")
		}
	}

	name = changeset.NormalizeName(name)
	if name == "" {
		_, err := fmt.Fprintln(appCtx.Stdout, "Name cannot be empty.")
		return err
	}

	repo := changeset.NewRepository(appCtx.FS, appCtx.Config.RootDir.V)
	fwd, rev, err := repo.Create(kind, name, appCtx.TimeSource.Now())
	if err != nil {
		return aerrors.NewRuntimeError(fmt.Sprintf("failed creating %s", kind), err, "")
	}

	_, err = fmt.Fprintf(appCtx.Stdout, "Created:\n  %s\n  %s\n", fwd.Path, rev.Path)

	return err
}

func prompt(appCtx *actx.Context, msg string) (string, error) {
	if _, err := fmt.Fprint(appCtx.Stdout, msg); err != nil {
		return "", err
	}

	line, err := bufio.NewReader(appCtx.Stdin).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}

	return line, nil
}
