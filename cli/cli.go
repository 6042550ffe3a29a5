package cli

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/alecthomas/kong"

	"go.hackfix.me/dbctl/app/config"
	actx "go.hackfix.me/dbctl/app/context"
	"go.hackfix.me/dbctl/db/changeset"
)

// CLI is the command line interface of dbctl.
type CLI struct {
	MigrationNew  Create `kong:"cmd,name='migration:new',help='Create a new migration file pair.'"`
	SeedNew       Create `kong:"cmd,name='seed:new',help='Create a new seeder file pair.'"`
	Migrate       Apply  `kong:"cmd,help='Apply all pending migrations.'"`
	Seed          Apply  `kong:"cmd,help='Apply all pending seeders.'"`
	MigrateUndo   Undo   `kong:"cmd,name='migrate:undo',help='Revert the most recently applied migration.'"`
	SeedUndo      Undo   `kong:"cmd,name='seed:undo',help='Revert the most recently applied seeder.'"`
	MigrateStatus Status `kong:"cmd,name='migrate:status',help='Show the state of all migrations.'"`
	SeedStatus    Status `kong:"cmd,name='seed:status',help='Show the state of all seeders.'"`

	Log struct {
		Level slog.Level `enum:"DEBUG,INFO,WARN,ERROR" default:"INFO" help:"Set the app logging level."`
	} `embed:"" prefix:"log-"`
	// NOTE: I'm deliberately not using kong.ConfigFlag or its support for reading
	// values from configuration files, since I want to manage configuration
	// independently from the CLI.
	ConfigFile string           `kong:"default='${configFile}',help='Path to the dbctl configuration file.'"`
	RootDir    string           `kong:"help='Directory that contains the migrations and seeders directories.'"`
	Version    kong.VersionFlag `kong:"help='Output version and exit.'"`

	kong *kong.Kong
	kctx *kong.Context
}

// New initializes the command-line interface.
func New(configFilePath, version string) (*CLI, error) {
	c := &CLI{}
	kparser, err := kong.New(c,
		kong.Name("dbctl"),
		kong.Description("Manage SQL migrations and seeders."),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
			Summary: true,
		}),
		kong.Vars{
			"configFile": configFilePath,
			"version":    version,
		},
	)
	if err != nil {
		return nil, fmt.Errorf("failed creating the Kong parser: %w", err)
	}

	c.kong = kparser

	return c, nil
}

// Execute starts the command execution. Parse must be called before this method.
func (c *CLI) Execute(appCtx *actx.Context) error {
	if c.kctx == nil {
		panic("the CLI wasn't initialized properly")
	}

	//nolint:wrapcheck // This is fine.
	return c.kctx.Run(appCtx)
}

// Parse the given command line arguments. This method must be called before
// Execute. If parsing fails, the usage is written to stderr.
func (c *CLI) Parse(args []string, appCtx *actx.Context) error {
	c.kong.Stdout = appCtx.Stdout
	c.kong.Stderr = appCtx.Stderr

	kctx, err := c.kong.Parse(args)
	if err != nil {
		var perr *kong.ParseError
		if errors.As(err, &perr) && perr.Context != nil {
			// Kong prints usage to its stdout writer.
			c.kong.Stdout = appCtx.Stderr
			_ = perr.Context.PrintUsage(true)
			c.kong.Stdout = appCtx.Stdout
		}
		return fmt.Errorf("failed parsing CLI arguments: %w", err)
	}
	c.kctx = kctx

	return nil
}

// Command returns the full path of the executed command.
func (c *CLI) Command() string {
	if c.kctx == nil {
		panic("the CLI wasn't initialized properly")
	}
	cmdPath := []string{}
	for _, p := range c.kctx.Path {
		if p.Command != nil {
			cmdPath = append(cmdPath, p.Command.Name)
		}
	}

	return strings.Join(cmdPath, " ")
}

// ApplyConfig overrides configuration values with the ones set via CLI flags.
func (c *CLI) ApplyConfig(cfg *config.Config) {
	if c.RootDir != "" {
		cfg.RootDir = sql.Null[string]{V: c.RootDir, Valid: true}
	}
}

// kindOf returns the change-set kind a command operates on.
func kindOf(kctx *kong.Context) changeset.Kind {
	if strings.HasPrefix(kctx.Command(), "seed") {
		return changeset.Seed
	}
	return changeset.Migration
}
