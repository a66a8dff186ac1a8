package install

import (
	"context"
	"errors"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/aayushdutt/mcinstall/internal/assets"
	"github.com/aayushdutt/mcinstall/internal/core"
	"github.com/aayushdutt/mcinstall/internal/download"
	"github.com/aayushdutt/mcinstall/internal/integrity"
)

// run holds the state of one pipeline execution
type run struct {
	t       *Task
	opts    Options
	started time.Time

	version *core.ResolvedVersion
	catalog *assets.Catalog

	stageIndex int
	stageCount int

	verified   atomic.Int64
	downloaded atomic.Int64
	skipped    atomic.Int64
	bytes      atomic.Int64

	problemsMu sync.Mutex
	problems   []Problem
}

type step struct {
	stage Stage
	label string
	fn    func(context.Context) error
}

// job is one file to verify and, if needed, download
type job struct {
	item string // Identifier for progress and errors
	path string
	url  string
	sha1 string
	size int64

	// annotate adds resource context to a failure
	annotate func(e *core.Error)
}

func newRun(t *Task) *run {
	return &run{
		t:       t,
		opts:    t.in.opts,
		started: time.Now(),
	}
}

func (r *run) steps() []step {
	steps := []step{
		{StageResolve, "Resolving version", r.resolve},
		{StagePersist, "Saving version document", r.persist},
		{StageClient, "Checking client jar", r.client},
		{StageLibraries, "Checking libraries", r.libraries},
		{StageAssetIndex, "Checking asset index", r.assetIndex},
		{StageAssets, "Checking assets", r.assets},
	}
	if r.t.req.VerifyOnly {
		// Nothing is written when only verifying.
		steps = append(steps[:1], steps[2:]...)
	}
	return steps
}

func (r *run) progress(p Progress) {
	p.StageIndex, p.StageCount = r.stageIndex, r.stageCount
	r.t.emitProgress(p)
}

func (r *run) result() *Result {
	res := &Result{
		RunID:      r.t.id,
		Version:    r.t.req.VersionID,
		Verified:   int(r.verified.Load()),
		Downloaded: int(r.downloaded.Load()),
		Skipped:    int(r.skipped.Load()),
		Bytes:      r.bytes.Load(),
		Elapsed:    time.Since(r.started),
	}
	if r.version != nil {
		res.Version = r.version.ID()
	}
	r.problemsMu.Lock()
	res.Problems = append([]Problem(nil), r.problems...)
	r.problemsMu.Unlock()
	return res
}

func (r *run) resolve(ctx context.Context) error {
	id := r.t.req.VersionID
	if r.t.req.Offline {
		v, err := r.opts.Resolver.Resolve(ctx, id)
		if err != nil {
			return err
		}
		r.version = v
		return nil
	}

	v, err := r.opts.Resolver.ResolveRemote(ctx, id)
	if errors.Is(err, core.ErrVersionMissing) {
		// Not in the catalog; it may be a locally installed derived version.
		r.t.log.Debug("version not in catalog, trying install root", "version", id)
		v, err = r.opts.Resolver.Resolve(ctx, id)
	}
	if err != nil {
		return err
	}
	r.version = v
	return nil
}

func (r *run) persist(ctx context.Context) error {
	return r.opts.Resolver.Save(r.version)
}

func (r *run) client(ctx context.Context) error {
	artifact, ok := r.version.Client()
	if !ok {
		r.t.log.Debug("version declares no client download")
		r.skipped.Add(1)
		return nil
	}

	jar := r.version.JarName()
	j := job{
		item: jar + ".jar",
		path: r.opts.Store.JarPath(jar),
		url:  artifact.URL,
		sha1: artifact.SHA1,
		size: artifact.Size,
		annotate: func(e *core.Error) {
			if e.Version == "" {
				e.Version = r.version.ID()
			}
		},
	}
	return r.runJobs(ctx, StageClient, []job{j})
}

func (r *run) libraries(ctx context.Context) error {
	platform := r.opts.Platform
	seen := make(map[string]bool)
	var jobs []job

	for _, lib := range r.version.Libraries() {
		if !core.IsRequired(lib, platform) {
			r.t.log.Debug("library not required", "library", lib.Name, "platform", platform)
			r.skipped.Add(1)
			continue
		}

		artifact, ok := core.SelectArtifact(lib, platform)
		if !ok {
			if classifier, wantsNatives := core.NativesClassifier(lib, platform); wantsNatives {
				r.t.log.Warn("natives not published, skipping", "library", lib.Name, "classifier", classifier)
			} else {
				r.t.log.Debug("library has nothing to download", "library", lib.Name)
			}
			r.skipped.Add(1)
			continue
		}
		if artifact.Path == "" {
			return &core.Error{
				Kind:    core.KindLibraryUnavailable,
				Version: r.version.ID(),
				Library: lib.Name,
				Err:     errors.New("cannot derive a path from the library name"),
			}
		}

		path := r.opts.Store.LibraryPath(artifact.Path)
		if seen[path] {
			// Inherited duplicates share one file.
			r.skipped.Add(1)
			continue
		}
		seen[path] = true

		name := lib.Name
		jobs = append(jobs, job{
			item: name,
			path: path,
			url:  artifact.URL,
			sha1: artifact.SHA1,
			size: artifact.Size,
			annotate: func(e *core.Error) {
				if e.Library == "" {
					e.Library = name
				}
			},
		})
	}

	return r.runJobs(ctx, StageLibraries, jobs)
}

func (r *run) assetIndex(ctx context.Context) error {
	ref, ok := r.version.AssetIndex()
	if !ok || ref.ID == "" {
		r.t.log.Debug("version declares no asset index")
		return nil
	}

	store := r.opts.Store
	path := store.IndexPath(ref.ID)
	r.progress(Progress{Stage: StageAssetIndex, Label: "Checking asset index", Item: ref.ID, Total: 1})

	err := integrity.Verify(path, ref.SHA1)
	if err == nil {
		catalog, loadErr := assets.Load(store, ref.ID)
		if loadErr == nil {
			r.verified.Add(1)
			r.catalog = catalog
			return nil
		}
		err = loadErr
	}
	if !integrity.NeedsDownload(err) {
		return err
	}

	r.t.log.Debug("asset index needs fetching", "index", ref.ID, "reason", err)
	if r.t.req.VerifyOnly {
		r.addProblem(StageAssetIndex, ref.ID, path, core.KindOf(err))
		return nil
	}

	catalog, err := assets.Fetch(ctx, r.opts.Fetcher, ref)
	if err != nil {
		return err
	}
	if err := catalog.Save(store); err != nil {
		return err
	}
	r.downloaded.Add(1)
	r.bytes.Add(ref.Size)
	r.catalog = catalog
	return nil
}

func (r *run) assets(ctx context.Context) error {
	if r.catalog == nil {
		return nil
	}

	blobs := r.catalog.Blobs()
	r.t.log.Debug("asset index loaded",
		"index", r.catalog.ID(),
		"assets", r.catalog.Len(),
		"objects", len(blobs),
		"size", humanize.Bytes(uint64(r.catalog.TotalSize())))
	jobs := make([]job, 0, len(blobs))
	for _, obj := range blobs {
		hash := obj.Hash
		jobs = append(jobs, job{
			item: hash,
			path: r.opts.Store.ObjectPath(hash),
			url:  assets.ObjectURL(r.opts.ResourcesURL, hash),
			sha1: hash,
			size: obj.Size,
			annotate: func(e *core.Error) {
				if e.Asset == "" {
					e.Asset = hash
				}
			},
		})
	}
	return r.runJobs(ctx, StageAssets, jobs)
}

// ensure verifies one file and downloads it when verification fails.
func (r *run) ensure(ctx context.Context, stage Stage, j job) error {
	err := integrity.Verify(j.path, j.sha1)
	if err == nil {
		r.verified.Add(1)
		return nil
	}
	if !integrity.NeedsDownload(err) {
		return err
	}

	r.t.log.Debug("verification failed", "item", j.item, "reason", core.KindOf(err))
	if r.t.req.VerifyOnly {
		r.addProblem(stage, j.item, j.path, core.KindOf(err))
		return nil
	}

	if j.url == "" {
		return &core.Error{
			Kind: core.KindLibraryUnavailable,
			Path: j.path,
			Err:  errors.New("no download url and no valid local copy"),
		}
	}

	if err := r.opts.Downloader.Download(ctx, download.Item{
		URL:  j.url,
		Path: j.path,
		SHA1: j.sha1,
		Size: j.size,
	}); err != nil {
		return err
	}

	r.downloaded.Add(1)
	if info, statErr := os.Stat(j.path); statErr == nil {
		r.bytes.Add(info.Size())
	} else {
		r.bytes.Add(j.size)
	}
	return nil
}

func (r *run) addProblem(stage Stage, item, path string, kind core.Kind) {
	r.problemsMu.Lock()
	defer r.problemsMu.Unlock()
	r.problems = append(r.problems, Problem{Stage: stage, Item: item, Path: path, Kind: kind})
}

// annotate copies a classified error and lets fn add resource context.
func annotate(err error, fn func(e *core.Error)) error {
	var e *core.Error
	if fn == nil || !errors.As(err, &e) {
		return err
	}
	cp := *e
	fn(&cp)
	return &cp
}
