package assets

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/aayushdutt/mcinstall/internal/core"
	"github.com/aayushdutt/mcinstall/internal/integrity"
	"github.com/aayushdutt/mcinstall/internal/storage"
)

const envelopeJSON = `{
  "objects": {
    "icons/icon_16x16.png": {"hash": "bdf48ef6b5d0d23bbb02e17d04865216179f510a", "size": 3665},
    "minecraft/sounds/ambient/cave/cave1.ogg": {"hash": "5ef6e2e1d5d43b4b6c9e2b0b4c0f6a5b1b54c9a1", "size": 105423},
    "minecraft/sounds/ambient/cave/cave1_copy.ogg": {"hash": "5ef6e2e1d5d43b4b6c9e2b0b4c0f6a5b1b54c9a1", "size": 105423}
  }
}`

type fakeFetcher map[string][]byte

func (f fakeFetcher) FetchBytes(ctx context.Context, url string) ([]byte, error) {
	data, ok := f[url]
	if !ok {
		return nil, &core.Error{Kind: core.KindFetchFailed, URL: url}
	}
	return data, nil
}

func TestSaveLoadRoundTrip(t *testing.T) {
	store := storage.New(t.TempDir())
	orig := New("1.20", map[string]Object{
		"minecraft/lang/en_us.json": {Hash: "A1B2C3D4E5F60718293A4B5C6D7E8F9012345678", Size: 10},
		"icons/icon_32x32.png":      {Hash: "92750c5f93c312ba9ab413d546f32190c56d6f1f", Size: 5362},
	})

	if err := orig.Save(store); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	loaded, err := Load(store, "1.20")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if !reflect.DeepEqual(loaded.objects, orig.objects) {
		t.Errorf("round trip mismatch:\n got %v\nwant %v", loaded.objects, orig.objects)
	}
	if obj := loaded.objects["minecraft/lang/en_us.json"]; obj.Hash != "a1b2c3d4e5f60718293a4b5c6d7e8f9012345678" {
		t.Errorf("hash not normalized: %q", obj.Hash)
	}
}

func TestParse_Forms(t *testing.T) {
	c, err := Parse("1.12", []byte(envelopeJSON))
	if err != nil {
		t.Fatalf("Parse envelope failed: %v", err)
	}
	if c.Len() != 3 {
		t.Errorf("Len = %d, want 3", c.Len())
	}

	flat, err := Parse("1.12", []byte(`{"icons/icon_16x16.png": {"hash": "bdf48ef6b5d0d23bbb02e17d04865216179f510a", "size": 3665}}`))
	if err != nil {
		t.Fatalf("Parse flat failed: %v", err)
	}
	if flat.Len() != 1 {
		t.Errorf("flat Len = %d, want 1", flat.Len())
	}

	invalid := []string{
		`[]`,
		`null`,
		`{"a": {"hash": "xyz", "size": 1}}`,
		`{"a": {"hash": "bdf48ef6b5d0d23bbb02e17d04865216179f510a", "size": -1}}`,
	}
	for _, in := range invalid {
		if _, err := Parse("x", []byte(in)); err == nil {
			t.Errorf("Parse(%s) should fail", in)
		}
	}
}

func TestLoad_Errors(t *testing.T) {
	store := storage.New(t.TempDir())

	if _, err := Load(store, "missing"); !errors.Is(err, core.ErrIntegrityMissing) {
		t.Errorf("missing index = %v, want integrity missing", err)
	}

	p := store.IndexPath("broken")
	os.MkdirAll(filepath.Dir(p), 0755)
	os.WriteFile(p, []byte(`{"objects": `), 0644)
	if _, err := Load(store, "broken"); !errors.Is(err, core.ErrIntegrityCorrupted) {
		t.Errorf("broken index = %v, want integrity corrupted", err)
	}
}

func TestFetch_SavesExactBytes(t *testing.T) {
	store := storage.New(t.TempDir())
	data := []byte(envelopeJSON)
	ref := core.AssetIndexRef{ID: "1.12", URL: "https://example.invalid/1.12.json", SHA1: integrity.HashBytes(data)}

	c, err := Fetch(context.Background(), fakeFetcher{ref.URL: data}, ref)
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if err := c.Save(store); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	// The persisted index must still verify against the published digest.
	if err := integrity.Verify(store.IndexPath("1.12"), ref.SHA1); err != nil {
		t.Errorf("saved index does not verify: %v", err)
	}
}

func TestFetch_Errors(t *testing.T) {
	data := []byte(envelopeJSON)
	ref := core.AssetIndexRef{ID: "1.12", URL: "https://example.invalid/1.12.json", SHA1: "0000000000000000000000000000000000000000"}

	_, err := Fetch(context.Background(), fakeFetcher{ref.URL: data}, ref)
	if !errors.Is(err, core.ErrFetchFailed) || !errors.Is(err, core.ErrIntegrityCorrupted) {
		t.Errorf("digest mismatch = %v, want fetch failure caused by corruption", err)
	}

	ref.SHA1 = ""
	if _, err := Fetch(context.Background(), fakeFetcher{ref.URL: []byte("garbage")}, ref); !errors.Is(err, core.ErrFetchFailed) {
		t.Errorf("undecodable index = %v, want fetch failure", err)
	}
	if _, err := Fetch(context.Background(), fakeFetcher{}, ref); !errors.Is(err, core.ErrFetchFailed) {
		t.Errorf("unreachable index = %v, want fetch failure", err)
	}
}

func TestBlobs_Deduplicates(t *testing.T) {
	c, err := Parse("1.12", []byte(envelopeJSON))
	if err != nil {
		t.Fatal(err)
	}

	blobs := c.Blobs()
	if len(blobs) != 2 {
		t.Fatalf("blobs = %d, want 2 distinct", len(blobs))
	}
	if blobs[0].Hash > blobs[1].Hash {
		t.Error("blobs not sorted by hash")
	}
	if c.TotalSize() != 3665+105423 {
		t.Errorf("TotalSize = %d", c.TotalSize())
	}
}

func TestObjectURL(t *testing.T) {
	hash := "BDF48EF6B5D0D23BBB02E17D04865216179F510A"

	if got := ObjectURL("https://resources.example/", hash); got != "https://resources.example/bd/bdf48ef6b5d0d23bbb02e17d04865216179f510a" {
		t.Errorf("ObjectURL = %q", got)
	}
	if got := ObjectURL("", "bdf48ef6b5d0d23bbb02e17d04865216179f510a"); got != DefaultResourcesURL+"/bd/bdf48ef6b5d0d23bbb02e17d04865216179f510a" {
		t.Errorf("default ObjectURL = %q", got)
	}
}
