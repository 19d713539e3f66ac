// Package version provides build version information and runtime metadata.
package version

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
	"sync"
	"time"
)

// Name is the binary name used in version output.
const Name = "tokentray"

var (
	// These are set via ldflags at build time
	Version = ""
	Commit  = ""
	Date    = ""

	once sync.Once

	// describe runs git describe with the given flags.
	describe = gitDescribe

	builtVersion, builtCommit, builtDate = Version, Commit, Date
)

const gitTimeout = 2 * time.Second

func ensureInitialized() {
	once.Do(func() {
		if Date == "" {
			Date = time.Now().Format("2006-01-02")
		}
		if Commit == "" {
			Commit = getGitCommit()
		}
		if Version == "" {
			Version = getGitVersion()
		}
	})
}

// Reset restores the build-time values so the next access re-resolves them.
func Reset() {
	Version, Commit, Date = builtVersion, builtCommit, builtDate
	once = sync.Once{}
}

func gitDescribe(flags ...string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), gitTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "git", append([]string{"describe"}, flags...)...)
	var out bytes.Buffer
	cmd.Stdout = &out
	if err := cmd.Run(); err != nil {
		return "", err
	}
	return strings.TrimSpace(out.String()), nil
}

func getGitCommit() string {
	commit, err := describe("--always", "--dirty")
	if err != nil || commit == "" {
		return "unknown"
	}
	return commit
}

func getGitVersion() string {
	v, err := describe("--tags", "--abbrev=0")
	if err == nil && v != "" {
		return strings.TrimPrefix(v, "v")
	}
	return "dev"
}

// GetVersion returns the resolved version.
func GetVersion() string {
	ensureInitialized()
	return Version
}

// GetCommit returns the resolved commit.
func GetCommit() string {
	ensureInitialized()
	return Commit
}

// GetDate returns the build date.
func GetDate() string {
	ensureInitialized()
	return Date
}

// Info returns a one-line description of the build.
func Info() string {
	ensureInitialized()
	return fmt.Sprintf("%s %s (commit: %s, built: %s, %s/%s)",
		Name, Version, Commit, Date, runtime.GOOS, runtime.GOARCH)
}
