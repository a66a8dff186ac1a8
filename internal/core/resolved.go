package core

import (
	"encoding/json"
	"slices"
	"time"
)

// ResolvedVersion is a version with its inheritance chain merged in.
// It is immutable; accessors return copies.
type ResolvedVersion struct {
	id           string
	inheritsFrom string
	versionType  Optional[VersionType]
	mainClass    Optional[string]
	jar          Optional[string]
	downloads    Optional[Downloads]
	assetIndex   Optional[AssetIndexRef]
	assets       Optional[string]
	logging      Optional[json.RawMessage]
	javaVersion  Optional[JavaVersionReq]
	releaseTime  Optional[time.Time]
	time         Optional[time.Time]

	game      []Argument
	jvm       []Argument
	legacy    bool
	libraries []Library
}

// Merge resolves doc on top of parent. A nil parent projects doc as is.
// Scalars take the child's value when present, else the parent's.
// Libraries and argument lists are the parent's followed by the child's,
// without de-duplication.
func Merge(parent *ResolvedVersion, doc VersionDocument) *ResolvedVersion {
	v := &ResolvedVersion{
		id:           doc.ID,
		inheritsFrom: doc.InheritsFrom,
		versionType:  doc.Type,
		mainClass:    doc.MainClass,
		jar:          doc.Jar,
		downloads:    doc.Downloads,
		assetIndex:   doc.AssetIndex,
		assets:       doc.Assets,
		logging:      doc.Logging,
		javaVersion:  doc.JavaVersion,
		releaseTime:  doc.ReleaseTime,
		time:         doc.Time,
	}

	var ownGame, ownJVM []Argument
	ownLegacy := false
	switch {
	case doc.Arguments != nil:
		ownGame = doc.Arguments.Game
		ownJVM = doc.Arguments.JVM
	case doc.MinecraftArguments.IsSet():
		ownGame = TokenizeLegacyArguments(doc.MinecraftArguments.Value())
		ownLegacy = true
	}

	if parent == nil {
		v.game = slices.Clone(ownGame)
		v.jvm = slices.Clone(ownJVM)
		v.legacy = ownLegacy
		v.libraries = slices.Clone(doc.Libraries)
		return v
	}

	v.versionType = v.versionType.Or(parent.versionType)
	v.mainClass = v.mainClass.Or(parent.mainClass)
	v.jar = v.jar.Or(parent.jar)
	v.downloads = v.downloads.Or(parent.downloads)
	v.assetIndex = v.assetIndex.Or(parent.assetIndex)
	v.assets = v.assets.Or(parent.assets)
	v.logging = v.logging.Or(parent.logging)
	v.javaVersion = v.javaVersion.Or(parent.javaVersion)
	v.releaseTime = v.releaseTime.Or(parent.releaseTime)
	v.time = v.time.Or(parent.time)

	v.game = concat(parent.game, ownGame)
	v.jvm = concat(parent.jvm, ownJVM)
	v.libraries = concat(parent.libraries, doc.Libraries)

	// The legacy form only survives when nothing in the chain declared
	// structured arguments.
	switch {
	case doc.Arguments != nil:
		v.legacy = false
	case ownLegacy:
		v.legacy = parent.legacy || (len(parent.game) == 0 && len(parent.jvm) == 0)
	default:
		v.legacy = parent.legacy
	}
	return v
}

func concat[T any](a, b []T) []T {
	if a == nil && b == nil {
		return nil
	}
	out := make([]T, 0, len(a)+len(b))
	out = append(out, a...)
	return append(out, b...)
}

// ID returns the version id
func (v *ResolvedVersion) ID() string { return v.id }

// InheritsFrom returns the parent id the document declared, if any.
func (v *ResolvedVersion) InheritsFrom() string { return v.inheritsFrom }

// Type returns the version type
func (v *ResolvedVersion) Type() VersionType { return v.versionType.Value() }

// MainClass returns the entry point class
func (v *ResolvedVersion) MainClass() string { return v.mainClass.Value() }

// JarName is the directory and file stem of the client jar. Defaults to the id.
func (v *ResolvedVersion) JarName() string {
	if jar, ok := v.jar.Get(); ok && jar != "" {
		return jar
	}
	return v.id
}

// Client returns the primary artifact descriptor.
func (v *ResolvedVersion) Client() (Artifact, bool) {
	d, ok := v.downloads.Get()
	if !ok || d.Client == nil {
		return Artifact{}, false
	}
	return *d.Client, true
}

// Arguments returns copies of the game and JVM argument lists.
func (v *ResolvedVersion) Arguments() Arguments {
	return Arguments{Game: slices.Clone(v.game), JVM: slices.Clone(v.jvm)}
}

// IsLegacyArguments reports whether arguments came from a single
// minecraftArguments string.
func (v *ResolvedVersion) IsLegacyArguments() bool { return v.legacy }

// Libraries returns a copy of the merged library list.
func (v *ResolvedVersion) Libraries() []Library { return slices.Clone(v.libraries) }

// AssetIndex returns the asset index reference.
func (v *ResolvedVersion) AssetIndex() (AssetIndexRef, bool) { return v.assetIndex.Get() }

// Assets returns the assets id
func (v *ResolvedVersion) Assets() string { return v.assets.Value() }

// Logging returns the opaque logging configuration.
func (v *ResolvedVersion) Logging() json.RawMessage {
	return slices.Clone(v.logging.Value())
}

// JavaVersion returns the required Java runtime.
func (v *ResolvedVersion) JavaVersion() (JavaVersionReq, bool) { return v.javaVersion.Get() }

// ReleaseTime returns the release time when known.
func (v *ResolvedVersion) ReleaseTime() time.Time { return v.releaseTime.Value() }

// Document renders the resolved version for persistence. The parent is
// already absorbed, so inheritsFrom is not written; legacy arguments
// are written back as a single minecraftArguments string.
func (v *ResolvedVersion) Document() VersionDocument {
	doc := VersionDocument{
		ID:          v.id,
		Type:        v.versionType,
		MainClass:   v.mainClass,
		Jar:         v.jar,
		Libraries:   slices.Clone(v.libraries),
		AssetIndex:  v.assetIndex,
		Assets:      v.assets,
		Downloads:   v.downloads,
		Logging:     v.logging,
		JavaVersion: v.javaVersion,
		ReleaseTime: v.releaseTime,
		Time:        v.time,
	}
	switch {
	case v.legacy:
		doc.MinecraftArguments = Some(JoinLegacyArguments(v.game))
	case v.game != nil || v.jvm != nil:
		doc.Arguments = &Arguments{
			Game: nonNil(v.game),
			JVM:  nonNil(v.jvm),
		}
	}
	return doc
}

func nonNil(args []Argument) []Argument {
	if args == nil {
		return []Argument{}
	}
	return slices.Clone(args)
}
