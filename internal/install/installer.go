// Package install drives the ordered install pipeline for a version:
// resolve, persist, client jar, libraries, asset index, assets.
package install

import (
	"context"
	"runtime"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/aayushdutt/mcinstall/internal/core"
	"github.com/aayushdutt/mcinstall/internal/download"
	"github.com/aayushdutt/mcinstall/internal/storage"
)

// Resolver produces resolved versions and persists them
type Resolver interface {
	Resolve(ctx context.Context, id string) (*core.ResolvedVersion, error)
	ResolveRemote(ctx context.Context, id string) (*core.ResolvedVersion, error)
	Save(v *core.ResolvedVersion) error
}

// Fetcher retrieves remote documents
type Fetcher interface {
	FetchBytes(ctx context.Context, url string) ([]byte, error)
}

// Downloader writes a remote file to disk, verifying it on the way
type Downloader interface {
	Download(ctx context.Context, item download.Item) error
}

// Options configures an Installer
type Options struct {
	Store        *storage.Store
	Resolver     Resolver
	Fetcher      Fetcher
	Downloader   Downloader
	Platform     core.Platform
	Workers      int
	ResourcesURL string
	Logger       *log.Logger
}

// Request selects what a task installs
type Request struct {
	VersionID string
	// Offline resolves from the install root only and never fetches
	// version documents from the catalog.
	Offline bool
	// VerifyOnly checks files without downloading or writing anything.
	// Implies Offline.
	VerifyOnly bool
}

// Installer creates install tasks sharing one install root. Tasks for
// the same version never run at the same time.
type Installer struct {
	opts  Options
	log   *log.Logger
	locks *keyedMutex
}

// New creates an installer
func New(opts Options) *Installer {
	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
	}
	if opts.Platform == "" {
		opts.Platform = core.CurrentPlatform()
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Installer{
		opts:  opts,
		log:   logger,
		locks: newKeyedMutex(),
	}
}

// NewTask creates an idle task for req
func (in *Installer) NewTask(req Request) *Task {
	if req.VerifyOnly {
		req.Offline = true
	}
	id := uuid.NewString()
	return &Task{
		in:    in,
		req:   req,
		id:    id,
		log:   in.log.With("run", id[:8], "version", req.VersionID),
		state: StateIdle,
		done:  make(chan struct{}),
	}
}

// Install runs a task for req to completion
func (in *Installer) Install(ctx context.Context, req Request) (*Result, error) {
	t := in.NewTask(req)
	err := t.Run(ctx)
	return t.Result(), err
}

// keyedMutex serializes holders of the same key
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyLock
}

type keyLock struct {
	ch   chan struct{}
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*keyLock)}
}

// Lock blocks until key is free or ctx is done. The returned func
// releases the key.
func (k *keyedMutex) Lock(ctx context.Context, key string) (func(), error) {
	k.mu.Lock()
	l, ok := k.locks[key]
	if !ok {
		l = &keyLock{ch: make(chan struct{}, 1)}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	select {
	case l.ch <- struct{}{}:
		return func() {
			<-l.ch
			k.release(key, l)
		}, nil
	case <-ctx.Done():
		k.release(key, l)
		return nil, ctx.Err()
	}
}

func (k *keyedMutex) release(key string, l *keyLock) {
	k.mu.Lock()
	defer k.mu.Unlock()
	l.refs--
	if l.refs == 0 {
		delete(k.locks, key)
	}
}
