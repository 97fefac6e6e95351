package vcs

import (
	"runtime/debug"
)

// Version returns the module version stamped into the binary, or the VCS
// revision when the build is not a tagged module build.
func Version() string {
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}

	if bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		return bi.Main.Version
	}

	var revision, modified string
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			revision = s.Value
		case "vcs.modified":
			modified = s.Value
		}
	}

	if revision == "" {
		return bi.Main.Version
	}

	if modified == "true" {
		return revision + "-dirty"
	}

	return revision
}
