package core

import (
	"encoding/json"
	"path"
	"strings"
)

// Library represents a dependency library
type Library struct {
	Name      string            `json:"name"`
	URL       string            `json:"url,omitempty"` // Repository base for name-derived downloads
	Downloads *LibraryDownloads `json:"downloads,omitempty"`
	// A nil Rules means "no rules"; an empty, non-nil slice disallows
	// every platform, so it must survive a round trip.
	Rules   []Rule            `json:"rules,omitzero"`
	Natives map[string]string `json:"natives,omitempty"`
	Extract json.RawMessage   `json:"extract,omitempty"`
}

// LibraryDownloads contains artifact download info
type LibraryDownloads struct {
	Artifact    *Artifact            `json:"artifact,omitempty"`
	Classifiers map[string]*Artifact `json:"classifiers,omitempty"`
}

// Artifact represents a downloadable file
type Artifact struct {
	Path string `json:"path,omitempty"`
	SHA1 string `json:"sha1"`
	Size int64  `json:"size"`
	URL  string `json:"url"`
}

// Rule represents OS/feature-based conditions
type Rule struct {
	Action   RuleAction      `json:"action"`
	OS       *OSRule         `json:"os,omitempty"`
	Features map[string]bool `json:"features,omitempty"`
}

// RuleAction is allow or disallow
type RuleAction string

const (
	RuleAllow    RuleAction = "allow"
	RuleDisallow RuleAction = "disallow"
)

// OSRule specifies OS conditions
type OSRule struct {
	Name    string `json:"name,omitempty"`
	Version string `json:"version,omitempty"`
	Arch    string `json:"arch,omitempty"`
}

// Coordinate is a parsed maven coordinate group:artifact:version[:classifier][@ext]
type Coordinate struct {
	Group      string
	Artifact   string
	Version    string
	Classifier string
	Extension  string
}

// ParseCoordinate parses a library name. ok is false when the name does
// not have at least three segments.
func ParseCoordinate(name string) (Coordinate, bool) {
	ext := "jar"
	if at := strings.LastIndex(name, "@"); at >= 0 {
		ext = name[at+1:]
		name = name[:at]
	}
	parts := strings.Split(name, ":")
	if len(parts) < 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return Coordinate{}, false
	}
	c := Coordinate{
		Group:     parts[0],
		Artifact:  parts[1],
		Version:   parts[2],
		Extension: ext,
	}
	if len(parts) > 3 {
		c.Classifier = parts[3]
	}
	return c, true
}

// Path returns the repository-relative path of the coordinate's file.
func (c Coordinate) Path() string {
	file := c.Artifact + "-" + c.Version
	if c.Classifier != "" {
		file += "-" + c.Classifier
	}
	file += "." + c.Extension
	return path.Join(strings.ReplaceAll(c.Group, ".", "/"), c.Artifact, c.Version, file)
}

// JarPath derives the libraries/-relative path for a library name, e.g.
// "com.mojang:patchy:1.1" -> "com/mojang/patchy/1.1/patchy-1.1.jar".
// Returns "" for malformed names.
func JarPath(name string) string {
	c, ok := ParseCoordinate(name)
	if !ok {
		return ""
	}
	return c.Path()
}
