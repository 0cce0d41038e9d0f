package version

import (
	"fmt"
	"runtime"

	"github.com/Masterminds/semver/v3"

	"github.com/teranos/typeahead/errors"
)

// Build information. These variables are set at build time via ldflags.
var (
	// CommitHash is the git commit hash when the binary was built
	CommitHash = "dev"

	// BuildTime is when the binary was built
	BuildTime = "unknown"

	// Version is the semantic version (if tagged)
	Version = "dev"
)

// Info contains version and build information
type Info struct {
	CommitHash string `json:"commit_hash"`
	BuildTime  string `json:"build_time"`
	Version    string `json:"version"`
	GoVersion  string `json:"go_version"`
	Platform   string `json:"platform"`
}

// Get returns the current version information
func Get() Info {
	return Info{
		CommitHash: CommitHash,
		BuildTime:  BuildTime,
		Version:    Version,
		GoVersion:  runtime.Version(),
		Platform:   fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
	}
}

// String returns a human-readable version string
func (i Info) String() string {
	if i.Version != "dev" {
		return fmt.Sprintf("typeahead %s (commit %s, built %s)", i.Version, i.CommitHash, i.BuildTime)
	}
	return fmt.Sprintf("typeahead dev (commit %s, built %s)", i.CommitHash, i.BuildTime)
}

// Short returns a short version string with just the commit hash
func (i Info) Short() string {
	if len(i.CommitHash) >= 7 {
		return i.CommitHash[:7]
	}
	return i.CommitHash
}

// Semver parses Version. Development builds have no semantic version.
func (i Info) Semver() (*semver.Version, bool) {
	v, err := semver.NewVersion(i.Version)
	if err != nil {
		return nil, false
	}
	return v, true
}

// CheckClient enforces a minimum client version. An empty minimum disables
// the gate and clients that do not report a version are let through.
func CheckClient(clientVersion, minimum string) error {
	if minimum == "" || clientVersion == "" {
		return nil
	}
	min, err := semver.NewVersion(minimum)
	if err != nil {
		return errors.Wrapf(err, "invalid minimum client version %q", minimum)
	}
	got, err := semver.NewVersion(clientVersion)
	if err != nil {
		return errors.WithHint(
			errors.Wrapf(err, "invalid client version %q", clientVersion),
			"send a semantic version such as 1.4.0")
	}
	if got.LessThan(min) {
		return errors.WithHintf(
			errors.Newf("client version %s is older than %s", got, min),
			"upgrade the client to %s or newer", min)
	}
	return nil
}
