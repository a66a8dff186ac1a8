package core

import (
	"fmt"
	"runtime"
	"strings"
)

// Platform is a target operating system as named in version documents.
type Platform string

const (
	PlatformLinux   Platform = "linux"
	PlatformOSX     Platform = "osx"
	PlatformWindows Platform = "windows"
)

// Platforms lists every platform a rule table tracks.
func Platforms() []Platform {
	return []Platform{PlatformLinux, PlatformOSX, PlatformWindows}
}

// ParsePlatform accepts document names plus Go's GOOS spellings.
func ParsePlatform(s string) (Platform, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "linux":
		return PlatformLinux, nil
	case "osx", "darwin", "macos", "mac":
		return PlatformOSX, nil
	case "windows", "win":
		return PlatformWindows, nil
	}
	return "", fmt.Errorf("unknown platform %q", s)
}

// CurrentPlatform maps runtime.GOOS to a Platform. Anything that is not
// darwin or windows is treated as linux.
func CurrentPlatform() Platform {
	switch runtime.GOOS {
	case "darwin":
		return PlatformOSX
	case "windows":
		return PlatformWindows
	default:
		return PlatformLinux
	}
}

// IsRequired evaluates lib's rules for platform p. Rules are applied in
// document order over a table that starts with every platform disallowed:
// a rule without an OS name sets every entry, a rule with one sets only
// that entry. Later rules override earlier ones.
func IsRequired(lib Library, p Platform) bool {
	if lib.Rules == nil {
		return true
	}

	table := make(map[Platform]bool, 3)
	for _, platform := range Platforms() {
		table[platform] = false
	}

	for _, rule := range lib.Rules {
		allow := rule.Action == RuleAllow
		if rule.OS == nil || rule.OS.Name == "" {
			for platform := range table {
				table[platform] = allow
			}
			continue
		}
		table[Platform(rule.OS.Name)] = allow
	}

	return table[p]
}

// Arch is the value substituted for ${arch} in natives classifiers:
// "32" or "64" depending on the pointer width of the running program.
func Arch() string {
	switch runtime.GOARCH {
	case "386", "arm", "mips", "mipsle", "wasm":
		return "32"
	default:
		return "64"
	}
}

// NativesClassifier returns the classifier key lib declares for p, if any,
// with ${arch} expanded.
func NativesClassifier(lib Library, p Platform) (string, bool) {
	if lib.Natives == nil {
		return "", false
	}
	key, ok := lib.Natives[string(p)]
	if !ok || key == "" {
		return "", false
	}
	return strings.ReplaceAll(key, "${arch}", Arch()), true
}

// SelectArtifact picks the artifact to fetch for lib on platform p.
// A natives classifier for p wins when the library publishes it, then
// the generic artifact, then a name-derived artifact under the library's
// repository URL. ok is false when the library is not required on p or
// contributes nothing downloadable.
func SelectArtifact(lib Library, p Platform) (Artifact, bool) {
	if !IsRequired(lib, p) {
		return Artifact{}, false
	}

	if lib.Downloads != nil {
		if key, ok := NativesClassifier(lib, p); ok && lib.Downloads.Classifiers != nil {
			if a := lib.Downloads.Classifiers[key]; a != nil {
				return withPath(*a, lib), true
			}
		}
		if lib.Downloads.Artifact != nil {
			return withPath(*lib.Downloads.Artifact, lib), true
		}
		return Artifact{}, false
	}

	if lib.URL != "" {
		rel := JarPath(lib.Name)
		if rel == "" {
			return Artifact{}, false
		}
		return Artifact{
			Path: rel,
			URL:  strings.TrimSuffix(lib.URL, "/") + "/" + rel,
		}, true
	}

	return Artifact{}, false
}

// withPath fills in a name-derived path for descriptors that omit one.
func withPath(a Artifact, lib Library) Artifact {
	if a.Path == "" {
		a.Path = JarPath(lib.Name)
	}
	return a
}
