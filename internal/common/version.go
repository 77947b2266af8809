package common

import (
	"fmt"
	"runtime/debug"
)

// Set with -ldflags "-X github.com/ternarybob/marketmood/internal/common.Version=..."
var (
	Version   = "dev"
	Build     = "unknown"
	GitCommit = "unknown"
)

// GetVersion returns the release version, or the module version when built with go install
func GetVersion() string {
	if Version == "dev" {
		if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
			return info.Main.Version
		}
	}
	return Version
}

// GetFullVersion returns the version with build time and commit. Values not set at
// link time come from the VCS stamp the toolchain embeds.
func GetFullVersion() string {
	build, commit := Build, GitCommit
	if info, ok := debug.ReadBuildInfo(); ok {
		settings := make(map[string]string, len(info.Settings))
		for _, s := range info.Settings {
			settings[s.Key] = s.Value
		}
		if commit == "unknown" && settings["vcs.revision"] != "" {
			commit = shortRevision(settings["vcs.revision"])
			if settings["vcs.modified"] == "true" {
				commit += "-dirty"
			}
		}
		if build == "unknown" && settings["vcs.time"] != "" {
			build = settings["vcs.time"]
		}
	}
	return fmt.Sprintf("marketmood %s (build: %s, commit: %s)", GetVersion(), build, commit)
}

func shortRevision(rev string) string {
	if len(rev) > 12 {
		return rev[:12]
	}
	return rev
}
