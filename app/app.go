package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mandelsoft/vfs/pkg/memoryfs"

	"go.hackfix.me/dbctl/app/config"
	actx "go.hackfix.me/dbctl/app/context"
	"go.hackfix.me/dbctl/cli"
	"go.hackfix.me/dbctl/db"
)

// App is the application.
type App struct {
	name string
	ctx  *actx.Context
	cli  *cli.CLI
	// the logging level is set via the CLI, if the app was initialized with the
	// WithLogger option.
	logLevel *slog.LevelVar
}

// New initializes a new application. configFilePath is the default path of
// the configuration file, which can be changed with the --config-file flag.
func New(name, configFilePath string, opts ...Option) (*App, error) {
	version, err := actx.GetVersion()
	if err != nil {
		return nil, err
	}

	defaultCtx := &actx.Context{
		Ctx:     context.Background(),
		FS:      memoryfs.New(),
		Logger:  slog.Default(),
		Version: version,
	}
	app := &App{name: name, ctx: defaultCtx}

	for _, opt := range opts {
		opt(app)
	}

	ver := fmt.Sprintf("%s %s", app.name, app.ctx.Version.String())
	app.cli, err = cli.New(configFilePath, ver)
	if err != nil {
		return nil, err
	}

	return app, nil
}

// Run initializes the application environment and starts execution of the
// application.
func (app *App) Run(args []string) error {
	if err := app.cli.Parse(args, app.ctx); err != nil {
		return err
	}

	if app.logLevel != nil {
		app.logLevel.Set(app.cli.Log.Level)
		slog.SetLogLoggerLevel(app.cli.Log.Level)
	}

	if err := app.loadConfig(); err != nil {
		return err
	}

	if app.ctx.DB == nil {
		pool, err := db.NewPool(app.ctx.Config.Database.PoolConfig(),
			db.WithLogger(app.ctx.Logger))
		if err != nil {
			return err
		}
		app.ctx.DB = pool
	}

	app.ctx.Logger.Debug("running command",
		"command", app.cli.Command(), "root_dir", app.ctx.Config.RootDir.V)

	if err := app.cli.Execute(app.ctx); err != nil {
		return err
	}

	return nil
}

// loadConfig reads the configuration file if one wasn't set with WithConfig,
// and applies the environment and CLI overrides on top of it.
func (app *App) loadConfig() error {
	if app.ctx.Config == nil {
		cfg := config.NewConfig(app.ctx.FS, app.cli.ConfigFile)
		if err := cfg.Load(); err != nil {
			return err
		}
		app.ctx.Config = cfg
	}

	if app.ctx.Env != nil {
		app.ctx.Config.ApplyEnv(app.ctx.Env.Get)
	}
	app.cli.ApplyConfig(app.ctx.Config)
	app.ctx.Config.SetDefaults()

	return nil
}
