package install

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/aayushdutt/mcinstall/internal/core"
)

// State is a task's lifecycle state
type State int

const (
	StateIdle State = iota
	StateRunning
	StateFinished
	StateFailed
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateFinished:
		return "finished"
	case StateFailed:
		return "failed"
	case StateStopped:
		return "stopped"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Done reports whether s is terminal
func (s State) Done() bool {
	return s == StateFinished || s == StateFailed || s == StateStopped
}

// Stage names a pipeline step
type Stage string

const (
	StageResolve    Stage = "resolve"
	StagePersist    Stage = "persist"
	StageClient     Stage = "client"
	StageLibraries  Stage = "libraries"
	StageAssetIndex Stage = "asset-index"
	StageAssets     Stage = "assets"
)

// Progress is an advisory notification sent before each stage and each item.
type Progress struct {
	Stage      Stage
	Label      string
	Item       string // Library name, asset hash or file; empty for stage notices
	Done       int    // Items settled in this stage so far
	Total      int    // Items in this stage, 0 when not itemized
	StageIndex int
	StageCount int
}

// Fraction estimates overall completion in [0, 1].
func (p Progress) Fraction() float64 {
	if p.StageCount == 0 {
		return 0
	}
	within := 0.0
	if p.Total > 0 {
		within = float64(p.Done) / float64(p.Total)
	}
	f := (float64(p.StageIndex) + within) / float64(p.StageCount)
	return min(max(f, 0), 1)
}

// Problem is a file that failed verification in verify-only mode.
type Problem struct {
	Stage Stage
	Item  string
	Path  string
	Kind  core.Kind
}

// Result summarizes a run
type Result struct {
	RunID      string
	Version    string
	Verified   int
	Downloaded int
	Skipped    int
	Bytes      int64
	Elapsed    time.Duration
	Problems   []Problem
}

// Summary renders the result as a single line
func (r *Result) Summary() string {
	s := fmt.Sprintf("%s: %s verified, %s downloaded (%s), %s skipped in %s",
		r.Version,
		humanize.Comma(int64(r.Verified)),
		humanize.Comma(int64(r.Downloaded)),
		humanize.Bytes(uint64(max(r.Bytes, 0))),
		humanize.Comma(int64(r.Skipped)),
		r.Elapsed.Round(time.Millisecond),
	)
	if len(r.Problems) > 0 {
		s += fmt.Sprintf(", %d problem(s)", len(r.Problems))
	}
	return s
}
