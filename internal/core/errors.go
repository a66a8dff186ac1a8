package core

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies install failures.
type Kind int

const (
	KindUnknown Kind = iota
	KindFetchFailed
	KindVersionMissing
	KindVersionCorrupted
	KindIntegrityMissing
	KindIntegrityCorrupted
	KindLibraryUnavailable
	KindDownloadFailed
	KindIOError
)

var kindNames = map[Kind]string{
	KindUnknown:            "unknown",
	KindFetchFailed:        "fetch failed",
	KindVersionMissing:     "version missing",
	KindVersionCorrupted:   "version corrupted",
	KindIntegrityMissing:   "integrity missing",
	KindIntegrityCorrupted: "integrity corrupted",
	KindLibraryUnavailable: "library unavailable",
	KindDownloadFailed:     "download failed",
	KindIOError:            "io error",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Sentinels for errors.Is. They match any *Error of the same kind.
var (
	ErrFetchFailed        = &Error{Kind: KindFetchFailed}
	ErrVersionMissing     = &Error{Kind: KindVersionMissing}
	ErrVersionCorrupted   = &Error{Kind: KindVersionCorrupted}
	ErrIntegrityMissing   = &Error{Kind: KindIntegrityMissing}
	ErrIntegrityCorrupted = &Error{Kind: KindIntegrityCorrupted}
	ErrLibraryUnavailable = &Error{Kind: KindLibraryUnavailable}
	ErrDownloadFailed     = &Error{Kind: KindDownloadFailed}
	ErrIOError            = &Error{Kind: KindIOError}
)

// Error is a classified install failure. Only the context fields relevant
// to the failing resource are populated.
type Error struct {
	Kind    Kind
	Stage   string
	Version string
	Library string
	Asset   string
	Path    string
	URL     string
	Err     error
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Stage != "" {
		b.WriteString(e.Stage)
		b.WriteString(": ")
	}
	b.WriteString(e.Kind.String())

	var ctx []string
	if e.Version != "" {
		ctx = append(ctx, "version "+e.Version)
	}
	if e.Library != "" {
		ctx = append(ctx, "library "+e.Library)
	}
	if e.Asset != "" {
		ctx = append(ctx, "asset "+e.Asset)
	}
	if e.Path != "" {
		ctx = append(ctx, "path "+e.Path)
	}
	if e.URL != "" {
		ctx = append(ctx, "url "+e.URL)
	}
	if len(ctx) > 0 {
		b.WriteString(" (")
		b.WriteString(strings.Join(ctx, ", "))
		b.WriteString(")")
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error of the same kind, so the package sentinels
// work with errors.Is regardless of context fields.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf returns the kind of the outermost *Error in err's chain,
// or KindUnknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// WithStage returns err annotated with the pipeline stage. A classified
// error keeps its kind; anything else is returned unchanged.
func WithStage(err error, stage string) error {
	var e *Error
	if !errors.As(err, &e) {
		return err
	}
	if e.Stage != "" {
		return err
	}
	cp := *e
	cp.Stage = stage
	return &cp
}
