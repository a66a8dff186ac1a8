// Package api contains clients for the remote version catalog.
// Each API client is self-contained and handles its own caching.
package api

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Masterminds/semver/v3"

	"github.com/aayushdutt/mcinstall/internal/core"
)

// DefaultManifestURL is the upstream version catalog
const DefaultManifestURL = "https://piston-meta.mojang.com/mc/game/version_manifest_v2.json"

// Fetcher retrieves and decodes a JSON document
type Fetcher interface {
	FetchJSON(ctx context.Context, url string, v any) error
}

// MojangClient lists the remote version catalog
type MojangClient struct {
	fetcher     Fetcher
	manifestURL string
	manifestTTL time.Duration

	mu              sync.Mutex
	manifest        *core.VersionManifest
	manifestFetched time.Time
}

// NewMojangClient creates a new catalog client. An empty manifestURL uses
// DefaultManifestURL; a zero ttl fetches the manifest on every call.
func NewMojangClient(fetcher Fetcher, manifestURL string, ttl time.Duration) *MojangClient {
	if manifestURL == "" {
		manifestURL = DefaultManifestURL
	}
	return &MojangClient{
		fetcher:     fetcher,
		manifestURL: manifestURL,
		manifestTTL: ttl,
	}
}

// GetVersionManifest fetches the version manifest, serving a cached copy
// while it is younger than the TTL.
func (c *MojangClient) GetVersionManifest(ctx context.Context) (*core.VersionManifest, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	// Check cache
	if c.manifest != nil && time.Since(c.manifestFetched) < c.manifestTTL {
		return c.manifest, nil
	}

	var manifest core.VersionManifest
	if err := c.fetcher.FetchJSON(ctx, c.manifestURL, &manifest); err != nil {
		if core.KindOf(err) != core.KindUnknown {
			return nil, err
		}
		return nil, &core.Error{Kind: core.KindFetchFailed, URL: c.manifestURL, Err: fmt.Errorf("decoding manifest: %w", err)}
	}

	// Update cache
	c.manifest = &manifest
	c.manifestFetched = time.Now()

	return &manifest, nil
}

// GetLatestRelease returns the latest release version ID
func (c *MojangClient) GetLatestRelease(ctx context.Context) (string, error) {
	manifest, err := c.GetVersionManifest(ctx)
	if err != nil {
		return "", err
	}
	return manifest.Latest.Release, nil
}

// GetLatestSnapshot returns the latest snapshot version ID
func (c *MojangClient) GetLatestSnapshot(ctx context.Context) (string, error) {
	manifest, err := c.GetVersionManifest(ctx)
	if err != nil {
		return "", err
	}
	return manifest.Latest.Snapshot, nil
}

// FindVersion finds a version by ID in the manifest. The aliases
// "latest" and "latest-snapshot" name the manifest's latest pointers.
func (c *MojangClient) FindVersion(ctx context.Context, id string) (*core.Version, error) {
	manifest, err := c.GetVersionManifest(ctx)
	if err != nil {
		return nil, err
	}

	switch id {
	case "latest", "latest-release":
		id = manifest.Latest.Release
	case "latest-snapshot":
		id = manifest.Latest.Snapshot
	}

	for _, v := range manifest.Versions {
		if v.ID == id {
			return &v, nil
		}
	}

	return nil, &core.Error{Kind: core.KindVersionMissing, Version: id, Err: fmt.Errorf("version not found in catalog")}
}

// ListVersions returns catalog entries of the given types in manifest
// order (newest first). No types means every entry.
func (c *MojangClient) ListVersions(ctx context.Context, types ...core.VersionType) ([]core.Version, error) {
	manifest, err := c.GetVersionManifest(ctx)
	if err != nil {
		return nil, err
	}
	return filterTypes(manifest.Versions, types), nil
}

// Releases returns release entries only
func (c *MojangClient) Releases(ctx context.Context) ([]core.Version, error) {
	return c.ListVersions(ctx, core.VersionTypeRelease)
}

// Snapshots returns snapshot entries only
func (c *MojangClient) Snapshots(ctx context.Context) ([]core.Version, error) {
	return c.ListVersions(ctx, core.VersionTypeSnapshot)
}

// ReleasesMatching returns releases whose id satisfies a semver
// constraint such as ">= 1.20", newest first.
func (c *MojangClient) ReleasesMatching(ctx context.Context, constraint string) ([]core.Version, error) {
	cons, err := semver.NewConstraint(constraint)
	if err != nil {
		return nil, fmt.Errorf("parsing constraint %q: %w", constraint, err)
	}
	releases, err := c.Releases(ctx)
	if err != nil {
		return nil, err
	}
	return MatchReleases(releases, cons), nil
}

// MatchReleases keeps the entries whose id parses as a version and
// satisfies cons, sorted newest first. Ids that are not versions are
// dropped.
func MatchReleases(versions []core.Version, cons *semver.Constraints) []core.Version {
	type entry struct {
		v   core.Version
		ver *semver.Version
	}
	var matched []entry
	for _, v := range versions {
		ver, err := semver.NewVersion(v.ID)
		if err != nil {
			continue
		}
		if cons.Check(ver) {
			matched = append(matched, entry{v, ver})
		}
	}

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].ver.GreaterThan(matched[j].ver)
	})

	out := make([]core.Version, len(matched))
	for i, m := range matched {
		out[i] = m.v
	}
	return out
}

func filterTypes(versions []core.Version, types []core.VersionType) []core.Version {
	if len(types) == 0 {
		out := make([]core.Version, len(versions))
		copy(out, versions)
		return out
	}
	var out []core.Version
	for _, v := range versions {
		for _, t := range types {
			if v.Type == t {
				out = append(out, v)
				break
			}
		}
	}
	return out
}
