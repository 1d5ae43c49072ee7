package builderr

import (
	"errors"
	"fmt"
	"strings"
)

// Kind names the pipeline stage that failed.
type Kind string

const (
	KindResolution Kind = "resolution" // specifier cannot be mapped to a module
	KindRead       Kind = "read"       // module source missing or unreadable
	KindParse      Kind = "parse"      // analyzer rejected the source
	KindEmit       Kind = "emit"       // emitter could not produce target code
	KindWrite      Kind = "write"      // bundle could not be written
)

// Sentinels matched by errors.Is against an *Error of the same kind.
var (
	ErrResolution = errors.New("resolution error")
	ErrRead       = errors.New("read error")
	ErrParse      = errors.New("parse error")
	ErrEmit       = errors.New("emit error")
	ErrWrite      = errors.New("write error")
)

var sentinels = map[Kind]error{
	KindResolution: ErrResolution,
	KindRead:       ErrRead,
	KindParse:      ErrParse,
	KindEmit:       ErrEmit,
	KindWrite:      ErrWrite,
}

// Error is a pipeline failure.
type Error struct {
	Cause     error
	Kind      Kind
	Module    string // identity of the failing module
	Specifier string // offending import specifier
	Path      string // filesystem path involved
	Detail    string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Kind))
	b.WriteByte(']')

	if e.Module != "" {
		fmt.Fprintf(&b, " module %q", e.Module)
	}
	if e.Specifier != "" {
		fmt.Fprintf(&b, " import %q", e.Specifier)
	}
	if e.Path != "" {
		fmt.Fprintf(&b, " (%s)", e.Path)
	}
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

// Unwrap returns the underlying cause
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is the sentinel for e's kind, or an *Error with
// the same kind.
func (e *Error) Is(target error) bool {
	if s, ok := sentinels[e.Kind]; ok && target == s {
		return true
	}
	var t *Error
	if errors.As(target, &t) {
		return t.Kind == e.Kind
	}
	return false
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(kind Kind) *Builder {
	return &Builder{err: Error{Kind: kind}}
}

// Module sets the failing module identity
func (b *Builder) Module(id string) *Builder {
	b.err.Module = id
	return b
}

// Specifier sets the offending import specifier
func (b *Builder) Specifier(spec string) *Builder {
	b.err.Specifier = spec
	return b
}

// Path sets the filesystem path
func (b *Builder) Path(path string) *Builder {
	b.err.Path = path
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// KindOf returns the kind of the first *Error in err's chain, or "" if there
// is none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
