// Package core version handling.
// Version catalog entries, raw version documents and the resolved form.
package core

import (
	"encoding/json"
	"time"
)

// VersionType represents the type of a version
type VersionType string

const (
	VersionTypeRelease    VersionType = "release"
	VersionTypeSnapshot   VersionType = "snapshot"
	VersionTypeOldRelease VersionType = "old_release"
	VersionTypeOldBeta    VersionType = "old_beta"
	VersionTypeOldAlpha   VersionType = "old_alpha"
)

// Version is a catalog pointer from the version manifest
type Version struct {
	ID          string      `json:"id"`
	Type        VersionType `json:"type"`
	URL         string      `json:"url"`
	Time        time.Time   `json:"time"`
	ReleaseTime time.Time   `json:"releaseTime"`
	SHA1        string      `json:"sha1,omitempty"`
}

// VersionManifest is the root of the remote version catalog
type VersionManifest struct {
	Latest   LatestVersions `json:"latest"`
	Versions []Version      `json:"versions"`
}

// LatestVersions contains the latest release and snapshot
type LatestVersions struct {
	Release  string `json:"release"`
	Snapshot string `json:"snapshot"`
}

// VersionDocument is a version JSON as published or stored on disk.
// Inheritable fields are optional so a child can leave them to its parent.
type VersionDocument struct {
	ID                 string                    `json:"id"`
	InheritsFrom       string                    `json:"inheritsFrom,omitempty"`
	Type               Optional[VersionType]     `json:"type,omitzero"`
	MainClass          Optional[string]          `json:"mainClass,omitzero"`
	Jar                Optional[string]          `json:"jar,omitzero"`
	MinecraftArguments Optional[string]          `json:"minecraftArguments,omitzero"`
	Arguments          *Arguments                `json:"arguments,omitempty"`
	Libraries          []Library                 `json:"libraries,omitempty"`
	AssetIndex         Optional[AssetIndexRef]   `json:"assetIndex,omitzero"`
	Assets             Optional[string]          `json:"assets,omitzero"`
	Downloads          Optional[Downloads]       `json:"downloads,omitzero"`
	Logging            Optional[json.RawMessage] `json:"logging,omitzero"`
	JavaVersion        Optional[JavaVersionReq]  `json:"javaVersion,omitzero"`
	ReleaseTime        Optional[time.Time]       `json:"releaseTime,omitzero"`
	Time               Optional[time.Time]       `json:"time,omitzero"`
}

// Arguments contains game and JVM arguments (modern format)
type Arguments struct {
	Game []Argument `json:"game"`
	JVM  []Argument `json:"jvm"`
}

// AssetIndexRef references the asset index
type AssetIndexRef struct {
	ID        string `json:"id"`
	SHA1      string `json:"sha1"`
	Size      int64  `json:"size"`
	TotalSize int64  `json:"totalSize,omitempty"`
	URL       string `json:"url"`
}

// Downloads contains client/server download info
type Downloads struct {
	Client         *Artifact `json:"client,omitempty"`
	ClientMappings *Artifact `json:"client_mappings,omitempty"`
	Server         *Artifact `json:"server,omitempty"`
	ServerMappings *Artifact `json:"server_mappings,omitempty"`
}

// JavaVersionReq specifies required Java version
type JavaVersionReq struct {
	Component    string `json:"component"`
	MajorVersion int    `json:"majorVersion"`
}
