// Package update checks GitHub Releases for newer pilot builds and replaces
// the running binary, verifying release checksums.
package update

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/Masterminds/semver/v3"
	selfupdate "github.com/creativeprojects/go-selfupdate"
)

// Repository is the GitHub repository pilot releases are published to.
const Repository = "leadpilot/pilot"

// ReleasesURL is where users can browse published versions.
const ReleasesURL = "https://github.com/" + Repository + "/releases"

// Disabled reports whether PILOT_UPDATE_DISABLED turns update checks off.
func Disabled() bool {
	v := strings.TrimSpace(os.Getenv("PILOT_UPDATE_DISABLED"))
	return v == "1" || strings.EqualFold(v, "true")
}

// Release describes the newest published build relative to the running one.
type Release struct {
	Current   string `json:"current_version"`
	Latest    string `json:"latest_version"`
	Available bool   `json:"update_available"`
	URL       string `json:"release_url,omitempty"`

	asset *selfupdate.Release
}

// Installable reports whether the release carries an asset for this platform.
func (r *Release) Installable() bool {
	return r.asset != nil
}

// Updater checks for and installs releases.
type Updater struct {
	updater *selfupdate.Updater
	repo    selfupdate.Repository
}

// NewUpdater returns an Updater reading GitHub Releases. GITHUB_TOKEN, when
// set, raises the API rate limit.
func NewUpdater() (*Updater, error) {
	source, err := selfupdate.NewGitHubSource(selfupdate.GitHubConfig{
		APIToken: os.Getenv("GITHUB_TOKEN"),
	})
	if err != nil {
		return nil, fmt.Errorf("create github source: %w", err)
	}

	return newUpdater(selfupdate.Config{
		Source:    source,
		Validator: &selfupdate.ChecksumValidator{UniqueFilename: "checksums.txt"},
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	})
}

func newUpdater(cfg selfupdate.Config) (*Updater, error) {
	updater, err := selfupdate.NewUpdater(cfg)
	if err != nil {
		return nil, fmt.Errorf("create updater: %w", err)
	}

	return &Updater{updater: updater, repo: selfupdate.ParseSlug(Repository)}, nil
}

// Latest looks up the newest release and compares it with current.
// A current version that is not semver (a dev build) always counts as
// outdated when any release exists.
func (u *Updater) Latest(ctx context.Context, current string) (*Release, error) {
	found, ok, err := u.updater.DetectLatest(ctx, u.repo)
	if err != nil {
		return nil, fmt.Errorf("detect latest release: %w", err)
	}

	rel := &Release{Current: current, Latest: current}
	if !ok {
		return rel, nil
	}

	rel.Latest = found.Version()
	rel.URL = found.URL
	rel.asset = found
	rel.Available = Newer(found.Version(), current)

	if _, parseErr := semver.NewVersion(current); parseErr != nil {
		rel.Available = true
	}

	return rel, nil
}

// Install replaces the running executable with rel.
func (u *Updater) Install(ctx context.Context, rel *Release) error {
	if !rel.Installable() {
		return fmt.Errorf("no release asset for %s/%s", runtime.GOOS, runtime.GOARCH)
	}

	execPath, err := selfupdate.ExecutablePath()
	if err != nil {
		return fmt.Errorf("find executable path: %w", err)
	}

	if err := u.updater.UpdateTo(ctx, rel.asset, execPath); err != nil {
		return fmt.Errorf("apply update: %w", err)
	}

	return nil
}

// InstallVersion installs a specific version, with or without a leading "v".
func (u *Updater) InstallVersion(ctx context.Context, version string) (*Release, error) {
	version = strings.TrimPrefix(version, "v")

	found, ok, err := u.updater.DetectVersion(ctx, u.repo, version)
	if err != nil {
		return nil, fmt.Errorf("detect version %s: %w", version, err)
	}

	if !ok {
		return nil, fmt.Errorf("version %s not found", version)
	}

	rel := &Release{Latest: found.Version(), URL: found.URL, asset: found}
	if err := u.Install(ctx, rel); err != nil {
		return nil, err
	}

	return rel, nil
}

// Newer reports whether latest is a strictly greater semver than current.
// Unparseable versions never compare as newer.
func Newer(latest, current string) bool {
	l, err := semver.NewVersion(latest)
	if err != nil {
		return false
	}

	c, err := semver.NewVersion(current)
	if err != nil {
		return false
	}

	return l.GreaterThan(c)
}
