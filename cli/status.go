package cli

import (
	"fmt"

	"github.com/alecthomas/kong"

	actx "go.hackfix.me/dbctl/app/context"
)

// The Status command lists the change-sets of a kind and whether they were
// applied.
type Status struct{}

// Run the status command.
func (c *Status) Run(kctx *kong.Context, appCtx *actx.Context) error {
	kind := kindOf(kctx)

	status, err := newEngine(appCtx).Status(appCtx.Ctx, kind)
	if err != nil {
		return runError(kind, fmt.Sprintf("failed loading %s status", kind), err)
	}
	if len(status) == 0 {
		_, err = fmt.Fprintf(appCtx.Stdout, "No %ss found.\n", kind)
		return err
	}

	data := make([][]string, 0, len(status))
	for _, st := range status {
		state, appliedAt := "pending", ""
		if st.Applied {
			state = "applied"
			appliedAt = st.AppliedAt.Local().Format("2006-01-02 15:04:05")
		}
		if !st.HasForward {
			state += " (missing file)"
		}
		reverse := "no"
		if st.HasReverse {
			reverse = "yes"
		}
		data = append(data, []string{st.ID, st.Name, state, appliedAt, reverse})
	}

	if err = renderTable(
		[]string{"ID", "Name", "Status", "Applied At", "Reversible"}, data, appCtx.Stdout,
	); err != nil {
		return fmt.Errorf("failed rendering %s status: %w", kind, err)
	}

	return nil
}
