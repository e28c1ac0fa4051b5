// Package buildinfo holds version information injected at link time, e.g.
//
//	go build -ldflags "-X gpxracer.app/internal/buildinfo.Version=1.2.0"
package buildinfo

import "runtime/debug"

var (
	Version    = "dev"
	CommitHash = ""
	Branch     = ""
	BuildTime  = ""
	Dirty      = ""
)

func init() {
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			if CommitHash == "" {
				CommitHash = s.Value
			}
		case "vcs.time":
			if BuildTime == "" {
				BuildTime = s.Value
			}
		case "vcs.modified":
			if Dirty == "" {
				Dirty = s.Value
			}
		}
	}
}

// ShortHash returns the first 7 characters of the commit hash, or "unknown".
func ShortHash() string {
	if len(CommitHash) >= 7 {
		return CommitHash[:7]
	}
	return "unknown"
}
