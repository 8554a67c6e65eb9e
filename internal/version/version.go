// Package version reports the build the binary was produced from.
package version

import (
	"runtime/debug"
	"sync"
)

// Overridden with -ldflags "-X github.com/memohai/converse/internal/version.Version=...".
var (
	Version    = "dev"
	CommitHash = ""
	BuildTime  = ""
)

// Info describes the running build.
type Info struct {
	Version   string
	Commit    string
	BuildTime string
}

var (
	once sync.Once
	info Info
)

// Get returns the build info, filling commit and time from the embedded VCS
// settings when ldflags did not set them.
func Get() Info {
	once.Do(func() {
		info = Info{Version: Version, Commit: CommitHash, BuildTime: BuildTime}
		if info.Commit != "" {
			return
		}
		if bi, ok := debug.ReadBuildInfo(); ok {
			info = fromSettings(info, bi.Settings)
		}
	})
	return info
}

func fromSettings(base Info, settings []debug.BuildSetting) Info {
	for _, s := range settings {
		switch s.Key {
		case "vcs.revision":
			base.Commit = s.Value
		case "vcs.time":
			base.BuildTime = s.Value
		}
	}
	return base
}

// String is the version followed by the short commit, e.g. "1.2.0 (a1b2c3d)".
func (i Info) String() string {
	if i.Commit == "" {
		return i.Version
	}
	short := i.Commit
	if len(short) > 7 {
		short = short[:7]
	}
	return i.Version + " (" + short + ")"
}
