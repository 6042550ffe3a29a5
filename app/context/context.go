package context

import (
	"context"
	"io"
	"log/slog"

	"github.com/mandelsoft/vfs/pkg/vfs"

	"go.hackfix.me/dbctl/app/config"
	"go.hackfix.me/dbctl/db"
)

// Context contains common objects used by the application. It is passed around
// the application to avoid direct dependencies on external systems, and make
// testing easier.
type Context struct {
	Ctx        context.Context // global context
	FS         vfs.FileSystem  // filesystem
	Env        Environment     // process environment
	Logger     *slog.Logger    // global logger
	TimeSource TimeSource

	// Standard streams
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	Config *config.Config
	// DB is shared by all commands, and connects on first use.
	DB *db.Pool

	// Metadata
	Version *VersionInfo
}
