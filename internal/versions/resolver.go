// Package versions loads version documents and resolves their
// inheritance chains into a single effective version.
package versions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"slices"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/aayushdutt/mcinstall/internal/core"
	"github.com/aayushdutt/mcinstall/internal/integrity"
	"github.com/aayushdutt/mcinstall/internal/storage"
)

// MaxInheritanceDepth bounds how many ancestors a version may have.
const MaxInheritanceDepth = 16

// Fetcher retrieves a remote document
type Fetcher interface {
	FetchBytes(ctx context.Context, url string) ([]byte, error)
}

// Catalog looks up a version entry in the remote catalog
type Catalog interface {
	FindVersion(ctx context.Context, id string) (*core.Version, error)
}

// Resolver turns version ids and locators into resolved versions.
type Resolver struct {
	store   *storage.Store
	fetcher Fetcher
	catalog Catalog
	log     *log.Logger
}

// NewResolver creates a resolver over store. fetcher and catalog may be
// nil, in which case only local documents resolve.
func NewResolver(store *storage.Store, fetcher Fetcher, catalog Catalog, logger *log.Logger) *Resolver {
	if logger == nil {
		logger = log.Default()
	}
	return &Resolver{
		store:   store,
		fetcher: fetcher,
		catalog: catalog,
		log:     logger,
	}
}

// Resolve loads id from the install root and merges its parents.
// A missing document is core.KindVersionMissing and an unparsable one
// core.KindVersionCorrupted.
func (r *Resolver) Resolve(ctx context.Context, id string) (*core.ResolvedVersion, error) {
	doc, err := r.loadLocal(id)
	if err != nil {
		return nil, err
	}
	return r.resolveDoc(ctx, doc, nil)
}

// ResolveFromLocator fetches the document at url and merges its parents.
func (r *Resolver) ResolveFromLocator(ctx context.Context, url string) (*core.ResolvedVersion, error) {
	doc, err := r.fetchRemote(ctx, url, "")
	if err != nil {
		return nil, err
	}
	return r.resolveDoc(ctx, doc, nil)
}

// ResolveRemote looks id up in the catalog and resolves the document the
// entry points at, checking it against the entry's digest when present.
func (r *Resolver) ResolveRemote(ctx context.Context, id string) (*core.ResolvedVersion, error) {
	if r.catalog == nil {
		return nil, &core.Error{Kind: core.KindVersionMissing, Version: id, Err: errors.New("no catalog configured")}
	}
	entry, err := r.catalog.FindVersion(ctx, id)
	if err != nil {
		return nil, err
	}
	doc, err := r.fetchRemote(ctx, entry.URL, entry.SHA1)
	if err != nil {
		return nil, err
	}
	return r.resolveDoc(ctx, doc, nil)
}

// resolveDoc merges doc onto its resolved parent. chain holds the ids
// already being resolved below this one.
func (r *Resolver) resolveDoc(ctx context.Context, doc core.VersionDocument, chain []string) (*core.ResolvedVersion, error) {
	if slices.Contains(chain, doc.ID) {
		cycle := append(slices.Clone(chain), doc.ID)
		return nil, &core.Error{
			Kind:    core.KindVersionCorrupted,
			Version: chain[0],
			Err:     fmt.Errorf("inheritance cycle: %s", strings.Join(cycle, " -> ")),
		}
	}
	chain = append(chain, doc.ID)
	if len(chain) > MaxInheritanceDepth+1 {
		return nil, &core.Error{
			Kind:    core.KindVersionCorrupted,
			Version: chain[0],
			Err:     fmt.Errorf("inheritance chain deeper than %d", MaxInheritanceDepth),
		}
	}

	if doc.InheritsFrom == "" {
		return core.Merge(nil, doc), nil
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	parentDoc, err := r.loadParent(ctx, doc.InheritsFrom)
	if err != nil {
		return nil, &core.Error{
			Kind:    core.KindOf(err),
			Version: doc.ID,
			Err:     fmt.Errorf("resolving parent %s: %w", doc.InheritsFrom, err),
		}
	}
	parent, err := r.resolveDoc(ctx, parentDoc, chain)
	if err != nil {
		return nil, err
	}

	r.log.Debug("merged version", "version", doc.ID, "parent", doc.InheritsFrom)
	return core.Merge(parent, doc), nil
}

// loadParent prefers an installed parent and falls back to the catalog.
func (r *Resolver) loadParent(ctx context.Context, id string) (core.VersionDocument, error) {
	doc, err := r.loadLocal(id)
	if err == nil || !errors.Is(err, core.ErrVersionMissing) || r.catalog == nil || r.fetcher == nil {
		return doc, err
	}

	entry, findErr := r.catalog.FindVersion(ctx, id)
	if findErr != nil {
		if errors.Is(findErr, core.ErrVersionMissing) {
			return core.VersionDocument{}, err
		}
		return core.VersionDocument{}, findErr
	}
	r.log.Debug("parent not installed, using catalog", "version", id)
	return r.fetchRemote(ctx, entry.URL, entry.SHA1)
}

func (r *Resolver) loadLocal(id string) (core.VersionDocument, error) {
	path := r.store.VersionPath(id)
	data, err := r.store.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return core.VersionDocument{}, &core.Error{Kind: core.KindVersionMissing, Version: id, Path: path, Err: err}
		}
		return core.VersionDocument{}, &core.Error{Kind: core.KindIOError, Version: id, Path: path, Err: err}
	}

	doc, err := decode(data, id)
	if err != nil {
		return core.VersionDocument{}, &core.Error{Kind: core.KindVersionCorrupted, Version: id, Path: path, Err: err}
	}
	return doc, nil
}

func (r *Resolver) fetchRemote(ctx context.Context, url, sha1 string) (core.VersionDocument, error) {
	if r.fetcher == nil {
		return core.VersionDocument{}, &core.Error{Kind: core.KindFetchFailed, URL: url, Err: errors.New("no fetcher configured")}
	}
	data, err := r.fetcher.FetchBytes(ctx, url)
	if err != nil {
		return core.VersionDocument{}, err
	}

	if sha1 != "" {
		if got := integrity.HashBytes(data); got != strings.ToLower(sha1) {
			return core.VersionDocument{}, &core.Error{
				Kind: core.KindVersionCorrupted,
				URL:  url,
				Err:  fmt.Errorf("sha1 mismatch: expected %s, got %s", sha1, got),
			}
		}
	}

	doc, err := decode(data, "")
	if err != nil {
		return core.VersionDocument{}, &core.Error{Kind: core.KindVersionCorrupted, URL: url, Err: err}
	}
	return doc, nil
}

// decode parses a version document. A document without an id takes
// fallbackID; with neither it is rejected.
func decode(data []byte, fallbackID string) (core.VersionDocument, error) {
	var doc core.VersionDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return doc, fmt.Errorf("decoding version document: %w", err)
	}
	if doc.ID == "" {
		doc.ID = fallbackID
	}
	if doc.ID == "" {
		return doc, errors.New("version document has no id")
	}
	return doc, nil
}

// Save persists v as versions/<id>/<id>.json. Failures are
// core.KindIOError.
func (r *Resolver) Save(v *core.ResolvedVersion) error {
	data, err := encode(v)
	if err != nil {
		return &core.Error{Kind: core.KindIOError, Version: v.ID(), Err: fmt.Errorf("encoding version: %w", err)}
	}
	return r.store.WriteFile(r.store.VersionPath(v.ID()), data)
}

func encode(v *core.ResolvedVersion) ([]byte, error) {
	return json.MarshalIndent(v.Document(), "", "  ")
}
