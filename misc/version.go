// Package misc keeps program identity helpers used by logging, the CLI
// front end and the debug reporter.
package misc

import (
	"runtime/debug"
)

const appName = "citeproc"

// set by the build system via -ldflags
var (
	version = ""
	gitHash = ""
)

// GetAppName returns the program name used in logs and file names.
func GetAppName() string {
	return appName
}

// GetVersion returns the program version: the linker-provided value or
// the main module version from build info.
func GetVersion() string {
	if version != "" {
		return version
	}
	if bi, ok := debug.ReadBuildInfo(); ok && bi.Main.Version != "" {
		return bi.Main.Version
	}
	return "(devel)"
}

// GetGitHash returns the vcs revision the binary was built from.
func GetGitHash() string {
	if gitHash != "" {
		return gitHash
	}
	if bi, ok := debug.ReadBuildInfo(); ok {
		for _, s := range bi.Settings {
			if s.Key == "vcs.revision" {
				return s.Value
			}
		}
	}
	return "unknown"
}
