// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// These variables are set via -ldflags at build time.
var (
	// GitCommit is the short git SHA of the build.
	GitCommit = "unknown"

	// GitDirty is "true" when the tree had uncommitted changes.
	GitDirty = "false"

	// BuildTime is the UTC timestamp of the build.
	BuildTime = "unknown"

	// Version is the release version. Set manually for releases.
	Version = "0.1.0-dev"
)

// Build is the resolved build identity.
type Build struct {
	Version string
	Commit  string
	Dirty   bool
	Time    string
}

// readBuildInfo is swapped in tests.
var readBuildInfo = debug.ReadBuildInfo

// Current resolves the build identity. Values injected with -ldflags
// win; "go install" builds carry none and fall back to the VCS stamp
// the toolchain embeds.
func Current() Build {
	build := Build{
		Version: Version,
		Commit:  GitCommit,
		Dirty:   GitDirty == "true",
		Time:    BuildTime,
	}
	if build.Commit != "unknown" {
		return build
	}
	info, ok := readBuildInfo()
	if !ok {
		return build
	}
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			build.Commit = setting.Value
			if len(build.Commit) > 12 {
				build.Commit = build.Commit[:12]
			}
		case "vcs.modified":
			build.Dirty = setting.Value == "true"
		case "vcs.time":
			if build.Time == "unknown" {
				build.Time = setting.Value
			}
		}
	}
	return build
}

// Info returns e.g. "0.1.0-dev (abc1234-dirty, 2026-10-01T00:00:00Z)".
func Info() string {
	build := Current()
	dirty := ""
	if build.Dirty {
		dirty = "-dirty"
	}
	return fmt.Sprintf("%s (%s%s, %s)", build.Version, build.Commit, dirty, build.Time)
}

// Full adds the Go toolchain and platform to [Info].
func Full() string {
	return fmt.Sprintf("%s\n  Go: %s\n  Platform: %s/%s",
		Info(), runtime.Version(), runtime.GOOS, runtime.GOARCH)
}

// UserAgent is the User-Agent header the REST client sends.
func UserAgent() string {
	return fmt.Sprintf("nagarniti/%s (%s/%s)", Version, runtime.GOOS, runtime.GOARCH)
}
