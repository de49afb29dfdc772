// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package version

import (
	"fmt"
	"io"
	"runtime"
	"runtime/debug"
	"sync"
)

// Set with -ldflags at build time, for example:
//
//	go build -ldflags "-X github.com/bureau-foundation/mxchat/lib/version.GitCommit=$(git rev-parse --short HEAD)"
//
// Values left empty fall back to the VCS stamp the go command embeds.
var (
	GitCommit = ""
	GitDirty  = ""
	BuildTime = ""
	Version   = "0.1.0-dev"
)

// Build is the resolved build identity.
type Build struct {
	Version string
	Commit  string
	Dirty   bool
	Time    string
}

var (
	resolved     Build
	resolvedOnce sync.Once
)

// Current returns the build identity, preferring -ldflags values over
// the embedded VCS stamp and "unknown" over nothing.
func Current() Build {
	resolvedOnce.Do(func() {
		var settings []debug.BuildSetting
		if info, ok := debug.ReadBuildInfo(); ok {
			settings = info.Settings
		}
		resolved = resolve(GitCommit, GitDirty, BuildTime, Version, settings)
	})
	return resolved
}

func resolve(commit, dirty, buildTime, semver string, settings []debug.BuildSetting) Build {
	stamped := make(map[string]string, len(settings))
	for _, setting := range settings {
		stamped[setting.Key] = setting.Value
	}
	pick := func(injected, key string) string {
		if injected != "" {
			return injected
		}
		if value := stamped[key]; value != "" {
			return value
		}
		return "unknown"
	}

	build := Build{
		Version: semver,
		Commit:  pick(commit, "vcs.revision"),
		Dirty:   pick(dirty, "vcs.modified") == "true",
		Time:    pick(buildTime, "vcs.time"),
	}
	if len(build.Commit) > 12 {
		build.Commit = build.Commit[:12]
	}
	return build
}

// Info returns the one-line form used by --version.
func (b Build) Info() string {
	dirty := ""
	if b.Dirty {
		dirty = "-dirty"
	}
	return fmt.Sprintf("%s (%s%s, %s)", b.Version, b.Commit, dirty, b.Time)
}

// UserAgent returns the User-Agent header sent to the homeserver.
func UserAgent() string {
	return fmt.Sprintf("mxchat/%s (%s/%s)", Current().Version, runtime.GOOS, runtime.GOARCH)
}

// Print writes the --version output for the named binary.
func Print(writer io.Writer, name string) {
	fmt.Fprintf(writer, "%s %s\n  Go: %s\n  Platform: %s/%s\n",
		name, Current().Info(), runtime.Version(), runtime.GOOS, runtime.GOARCH)
}
