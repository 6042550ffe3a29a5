package context

import (
	"errors"
	"fmt"
	"runtime/debug"
)

// VersionInfo is the build information of the running binary.
type VersionInfo struct {
	Semantic  string
	Commit    string
	Dirty     bool
	GoVersion string
}

// GetVersion reads the version information embedded in the binary by the Go
// toolchain.
func GetVersion() (*VersionInfo, error) {
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return nil, errors.New("failed reading binary build information")
	}

	vi := &VersionInfo{Semantic: bi.Main.Version, GoVersion: bi.GoVersion}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			vi.Commit = s.Value
			if len(vi.Commit) > 12 {
				vi.Commit = vi.Commit[:12]
			}
		case "vcs.modified":
			vi.Dirty = s.Value == "true"
		}
	}

	return vi, nil
}

func (vi *VersionInfo) String() string {
	ver := vi.Semantic
	if ver == "" {
		ver = "(devel)"
	}
	if vi.Commit != "" {
		ver = fmt.Sprintf("%s (%s", ver, vi.Commit)
		if vi.Dirty {
			ver += "-dirty"
		}
		ver += ")"
	}

	return fmt.Sprintf("%s, %s", ver, vi.GoVersion)
}
