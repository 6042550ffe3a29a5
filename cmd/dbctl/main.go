package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/adrg/xdg"
	"github.com/mandelsoft/vfs/pkg/osfs"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"

	"go.hackfix.me/dbctl/app"
	actx "go.hackfix.me/dbctl/app/context"
	aerrors "go.hackfix.me/dbctl/app/errors"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New("dbctl",
		filepath.Join(xdg.ConfigHome, "dbctl", "config.json"),
		app.WithContext(ctx),
		app.WithTimeSource(osTime{}),
		app.WithEnv(osEnv{}),
		app.WithFDs(
			os.Stdin,
			colorable.NewColorable(os.Stdout),
			colorable.NewColorable(os.Stderr),
		),
		app.WithFS(osfs.New()),
		app.WithLogger(isatty.IsTerminal(os.Stderr.Fd())),
	)
	if err != nil {
		aerrors.Log(err)
		os.Exit(1)
	}
	if err = a.Run(os.Args[1:]); err != nil {
		aerrors.Log(err)
		stop()
		os.Exit(1)
	}
}

type osEnv struct{}

var _ actx.Environment = &osEnv{}

func (e osEnv) Get(key string) string {
	return os.Getenv(key)
}

func (e osEnv) Set(key, val string) error {
	return os.Setenv(key, val)
}

type osTime struct{}

var _ actx.TimeSource = &osTime{}

func (osTime) Now() time.Time {
	return time.Now()
}
