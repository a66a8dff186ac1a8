// Package assets reads, fetches and stores asset indexes.
package assets

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/aayushdutt/mcinstall/internal/core"
	"github.com/aayushdutt/mcinstall/internal/integrity"
	"github.com/aayushdutt/mcinstall/internal/storage"
)

// DefaultResourcesURL serves asset blobs by hash
const DefaultResourcesURL = "https://resources.download.minecraft.net"

// Object is one asset entry
type Object struct {
	Hash string `json:"hash"`
	Size int64  `json:"size"`
}

// Catalog maps asset names to content-addressed objects for one index.
type Catalog struct {
	id      string
	objects map[string]Object

	// raw holds the bytes the catalog was fetched as, if any
	raw []byte
}

// envelope is the upstream index format. Its virtual and
// map_to_resources flags only matter to extraction and are not read.
type envelope struct {
	Objects map[string]Object `json:"objects"`
}

// Fetcher retrieves a remote document
type Fetcher interface {
	FetchBytes(ctx context.Context, url string) ([]byte, error)
}

// New builds a catalog from a name -> object mapping
func New(id string, objects map[string]Object) *Catalog {
	cp := make(map[string]Object, len(objects))
	for name, obj := range objects {
		obj.Hash = strings.ToLower(obj.Hash)
		cp[name] = obj
	}
	return &Catalog{id: id, objects: cp}
}

// Parse decodes an index in either the flat {name: {hash, size}} form or
// the upstream {"objects": {...}} envelope.
func Parse(id string, data []byte) (*Catalog, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err == nil && env.Objects != nil {
		c := New(id, env.Objects)
		return c, c.validate()
	}

	var flat map[string]Object
	if err := json.Unmarshal(data, &flat); err != nil {
		return nil, fmt.Errorf("decoding asset index: %w", err)
	}
	if flat == nil {
		return nil, errors.New("asset index is empty")
	}
	c := New(id, flat)
	return c, c.validate()
}

func (c *Catalog) validate() error {
	for name, obj := range c.objects {
		if !validHash(obj.Hash) {
			return fmt.Errorf("asset %s: invalid hash %q", name, obj.Hash)
		}
		if obj.Size < 0 {
			return fmt.Errorf("asset %s: negative size", name)
		}
	}
	return nil
}

func validHash(h string) bool {
	if len(h) != 40 {
		return false
	}
	_, err := hex.DecodeString(h)
	return err == nil
}

// Load reads index id from the install root. A missing index is
// core.KindIntegrityMissing and an unreadable one core.KindIntegrityCorrupted.
func Load(store *storage.Store, id string) (*Catalog, error) {
	p := store.IndexPath(id)
	data, err := store.ReadFile(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &core.Error{Kind: core.KindIntegrityMissing, Path: p, Err: err}
		}
		return nil, &core.Error{Kind: core.KindIntegrityCorrupted, Path: p, Err: err}
	}

	c, err := Parse(id, data)
	if err != nil {
		return nil, &core.Error{Kind: core.KindIntegrityCorrupted, Path: p, Err: err}
	}
	return c, nil
}

// Fetch downloads the index ref points at and checks it against the
// ref's digest. Every failure is core.KindFetchFailed.
func Fetch(ctx context.Context, fetcher Fetcher, ref core.AssetIndexRef) (*Catalog, error) {
	data, err := fetcher.FetchBytes(ctx, ref.URL)
	if err != nil {
		return nil, err
	}

	if ref.SHA1 != "" {
		if got := integrity.HashBytes(data); got != strings.ToLower(ref.SHA1) {
			return nil, &core.Error{
				Kind: core.KindFetchFailed,
				URL:  ref.URL,
				Err: &core.Error{
					Kind: core.KindIntegrityCorrupted,
					Err:  fmt.Errorf("sha1 mismatch: expected %s, got %s", ref.SHA1, got),
				},
			}
		}
	}

	c, err := Parse(ref.ID, data)
	if err != nil {
		return nil, &core.Error{Kind: core.KindFetchFailed, URL: ref.URL, Err: err}
	}
	c.raw = data
	return c, nil
}

// Save writes the index to assets/indexes/<id>.json. A fetched catalog
// is written byte for byte so it keeps matching its published digest;
// anything else is written in the flat form.
func (c *Catalog) Save(store *storage.Store) error {
	data := c.raw
	if data == nil {
		var err error
		data, err = json.MarshalIndent(c.objects, "", "  ")
		if err != nil {
			return &core.Error{Kind: core.KindIOError, Path: store.IndexPath(c.id), Err: err}
		}
	}
	return store.WriteFile(store.IndexPath(c.id), data)
}

// ID returns the index id
func (c *Catalog) ID() string { return c.id }

// Len returns the number of named assets
func (c *Catalog) Len() int { return len(c.objects) }

// Blobs returns each distinct object once, ordered by hash. Several
// names may share one blob.
func (c *Catalog) Blobs() []Object {
	seen := make(map[string]bool, len(c.objects))
	blobs := make([]Object, 0, len(c.objects))
	for _, obj := range c.objects {
		if seen[obj.Hash] {
			continue
		}
		seen[obj.Hash] = true
		blobs = append(blobs, obj)
	}
	sort.Slice(blobs, func(i, j int) bool { return blobs[i].Hash < blobs[j].Hash })
	return blobs
}

// TotalSize sums the size of every distinct blob
func (c *Catalog) TotalSize() int64 {
	var total int64
	for _, obj := range c.Blobs() {
		total += obj.Size
	}
	return total
}

// ObjectURL is where the object is served under base
func ObjectURL(base, hash string) string {
	if base == "" {
		base = DefaultResourcesURL
	}
	hash = strings.ToLower(hash)
	return strings.TrimSuffix(base, "/") + "/" + hash[:2] + "/" + hash
}
