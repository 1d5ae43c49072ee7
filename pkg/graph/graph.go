// Package graph discovers every module reachable from an entry module and
// records each one exactly once.
//
// Architecture:
//   - A pump goroutine owns the module table and the set of seen identities,
//     so the at-most-once check never races.
//   - Workers read, parse, resolve and emit one module at a time and report
//     the record and its dependencies back to the pump.
//   - The pump enqueues dependencies it has not seen yet and stops when the
//     queue is empty and nothing is in flight, or on the first error.
package graph

import (
	"context"
	"errors"
	"os"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/coldog/minipack/pkg/builderr"
	"github.com/coldog/minipack/pkg/compiler"
	"github.com/coldog/minipack/pkg/logging"
)

// Module is one built module. It is never modified after the build.
type Module struct {
	ID string
	// Dependencies maps each specifier written in the module to the identity
	// it resolved to.
	Dependencies map[string]string
	Code         string
	Hash         string
}

// Graph is every module reachable from Entry, keyed by identity.
type Graph struct {
	Entry   string
	Modules map[string]*Module
}

// Keys returns the module identities in sorted order.
func (g *Graph) Keys() []string {
	keys := make([]string, 0, len(g.Modules))
	for k := range g.Modules {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Resolver maps a specifier written in importer to a module identity, and an
// identity to its file.
type Resolver interface {
	Resolve(specifier, importer string) (string, error)
	Path(id string) string
}

// Analyzer parses source and lists its static import specifiers.
type Analyzer interface {
	Parse(ctx context.Context, source []byte) (*compiler.Tree, error)
	Imports(tree *compiler.Tree) []string
}

// Emitter produces the module's runnable code.
type Emitter interface {
	Emit(tree *compiler.Tree) (string, error)
}

// Builder builds graphs. A Builder holds no per-build state and may run
// several builds at once.
type Builder struct {
	Resolver Resolver
	Analyzer Analyzer
	Emitter  Emitter
	// Concurrency is the number of modules processed at once. Values below
	// one mean one.
	Concurrency int
	// ReadFile reads module sources. Defaults to os.ReadFile.
	ReadFile func(path string) ([]byte, error)
}

type done struct {
	id   string
	mod  *Module
	deps []string
	err  error
}

type work struct {
	id  string
	ctx context.Context
}

// build is the state of one Build call.
type build struct {
	*Builder

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	work   chan work
	done   chan done

	// Owned by the pump goroutine.
	modules  map[string]*Module
	seen     map[string]bool
	queue    []string
	inFlight map[string]bool
	err      error
}

// Build discovers and builds every module reachable from entry. Any failure
// aborts the build and no graph is returned.
func (b *Builder) Build(ctx context.Context, entry string) (*Graph, error) {
	concurrency := b.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}

	s := &build{
		Builder:  b,
		work:     make(chan work),
		done:     make(chan done),
		modules:  map[string]*Module{},
		seen:     map[string]bool{entry: true},
		queue:    []string{entry},
		inFlight: map[string]bool{},
	}
	s.ctx, s.cancel = context.WithCancel(ctx)
	defer s.cancel()

	s.wg.Add(concurrency)
	for i := 0; i < concurrency; i++ {
		go s.worker(i)
	}
	err := s.pump(ctx)
	s.wg.Wait()
	if err != nil {
		return nil, err
	}

	logging.Logger().Info("graph built",
		zap.String("entry", entry),
		zap.Int("modules", len(s.modules)))
	return &Graph{Entry: entry, Modules: s.modules}, nil
}

// worker processes identities from the work channel.
func (s *build) worker(i int) {
	defer s.wg.Done()

	for w := range s.work {
		logging.Logger().Debug("building module", zap.Int("worker", i), zap.String("module", w.id))
		mod, deps, err := s.process(w.ctx, w.id)
		s.done <- done{id: w.id, mod: mod, deps: deps, err: err}
	}
}

// pump hands queued identities to workers and folds their results into the
// module table.
func (s *build) pump(ctx context.Context) error {
	defer close(s.work)

	cancelled := ctx.Done()
	for s.pending() {
		// Only offer work while the build is healthy; a nil channel never
		// receives.
		var send chan<- work
		var next string
		if s.err == nil && len(s.queue) > 0 {
			send = s.work
			next = s.queue[0]
		}

		select {
		case send <- work{id: next, ctx: s.ctx}:
			s.queue = s.queue[1:]
			s.inFlight[next] = true
		case d := <-s.done:
			delete(s.inFlight, d.id)
			if d.err != nil {
				logging.Logger().Debug("module failed", zap.String("module", d.id), zap.Error(d.err))
				s.errored(d.err)
				continue
			}
			s.modules[d.id] = d.mod
			for _, dep := range d.deps {
				if !s.seen[dep] {
					s.seen[dep] = true
					s.queue = append(s.queue, dep)
				}
			}
		case <-cancelled:
			cancelled = nil
			s.errored(ctx.Err())
		}
	}
	return s.err
}

// pending reports whether the pump must keep running: there is queued work
// and no error, or results are still outstanding.
func (s *build) pending() bool {
	if len(s.inFlight) > 0 {
		return true
	}
	return s.err == nil && len(s.queue) > 0
}

// errored keeps the first error and cancels outstanding work.
func (s *build) errored(err error) {
	if s.err == nil {
		s.err = err
	}
	s.cancel()
}

// process builds the record for one identity and returns the identities it
// depends on, in the order they are first imported.
func (s *build) process(ctx context.Context, id string) (*Module, []string, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	path := s.Resolver.Path(id)
	readFile := s.ReadFile
	if readFile == nil {
		readFile = os.ReadFile
	}
	src, err := readFile(path)
	if err != nil {
		return nil, nil, builderr.New(builderr.KindRead).Module(id).Path(path).Cause(err).Build()
	}

	tree, err := s.Analyzer.Parse(ctx, src)
	if err != nil {
		return nil, nil, inModule(err, builderr.KindParse, id, path)
	}
	defer tree.Close()

	mod := &Module{
		ID:           id,
		Dependencies: map[string]string{},
		Hash:         tree.Hash(),
	}
	var deps []string
	for _, spec := range s.Analyzer.Imports(tree) {
		dep, err := s.Resolver.Resolve(spec, id)
		if err != nil {
			return nil, nil, err
		}
		if _, ok := mod.Dependencies[spec]; !ok {
			deps = append(deps, dep)
		}
		mod.Dependencies[spec] = dep
	}

	mod.Code, err = s.Emitter.Emit(tree)
	if err != nil {
		return nil, nil, inModule(err, builderr.KindEmit, id, path)
	}
	return mod, deps, nil
}

// inModule attaches the module identity to a pipeline error raised without
// one, or wraps a foreign error as kind.
func inModule(err error, kind builderr.Kind, id, path string) error {
	var be *builderr.Error
	if errors.As(err, &be) {
		if be.Module == "" {
			be.Module = id
		}
		if be.Path == "" {
			be.Path = path
		}
		return err
	}
	return builderr.New(kind).Module(id).Path(path).Cause(err).Build()
}
