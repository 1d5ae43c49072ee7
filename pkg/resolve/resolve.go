// Package resolve maps import specifiers to module identities.
//
// An identity is the module's path relative to the build root, slash
// separated and prefixed with "./" (or "../" for files above the root).
// Symlinks are evaluated first, so every path naming the same file yields
// the same identity.
package resolve

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/coldog/minipack/pkg/builderr"
	"github.com/coldog/minipack/pkg/logging"
)

// Resolver resolves specifiers relative to their importer. Without
// Extensions a specifier must name an existing file exactly.
type Resolver struct {
	root       string
	extensions []string
}

// New returns a Resolver rooted at root. Extensions are tried in order when
// a specifier names no existing file; "js" and ".js" are equivalent.
func New(root string, extensions []string) (*Resolver, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve: root %q: %w", root, err)
	}
	canonical, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, fmt.Errorf("resolve: root %q: %w", root, err)
	}

	exts := make([]string, 0, len(extensions))
	for _, ext := range extensions {
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		exts = append(exts, ext)
	}
	return &Resolver{root: canonical, extensions: exts}, nil
}

// Root returns the absolute build root.
func (r *Resolver) Root() string {
	return r.root
}

// Path returns the filesystem path of a module identity.
func (r *Resolver) Path(id string) string {
	return filepath.Join(r.root, filepath.FromSlash(id))
}

// Entry canonicalizes the entry file path into an identity. Relative paths
// are taken from the working directory.
func (r *Resolver) Entry(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", builderr.New(builderr.KindRead).Path(path).Cause(err).Build()
	}
	st, err := os.Stat(abs)
	if err != nil {
		return "", builderr.New(builderr.KindRead).Path(abs).Detail("entry not readable").Cause(err).Build()
	}
	if st.IsDir() {
		return "", builderr.New(builderr.KindRead).Path(abs).Detail("entry is a directory").Build()
	}
	id, err := r.identity(abs)
	if err != nil {
		return "", builderr.New(builderr.KindRead).Path(abs).Cause(err).Build()
	}
	return id, nil
}

// Resolve maps specifier, as written in the module importer, to the identity
// of the file it names.
func (r *Resolver) Resolve(specifier, importer string) (string, error) {
	fail := func() *builderr.Builder {
		return builderr.New(builderr.KindResolution).Module(importer).Specifier(specifier)
	}

	var name string
	switch {
	case isAbsolute(specifier):
		name = filepath.Clean(filepath.FromSlash(specifier))
	case isRelative(specifier):
		name = filepath.Join(filepath.Dir(r.Path(importer)), filepath.FromSlash(specifier))
	default:
		return "", fail().Detail("bare specifiers are not supported; use a relative or absolute path").Build()
	}

	st, err := os.Stat(name)
	if err != nil {
		for _, ext := range r.extensions {
			if st, err = os.Stat(name + ext); err == nil {
				name = name + ext
				break
			}
		}
	}
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fail().Path(name).Detail("no such file").Build()
		}
		return "", fail().Path(name).Cause(err).Build()
	}
	if st.IsDir() {
		return "", fail().Path(name).Detail("is a directory").Build()
	}

	id, err := r.identity(name)
	if err != nil {
		return "", fail().Path(name).Cause(err).Build()
	}
	logging.Logger().Debug("resolved",
		zap.String("module", importer),
		zap.String("specifier", specifier),
		zap.String("identity", id))
	return id, nil
}

func (r *Resolver) identity(name string) (string, error) {
	canonical, err := filepath.EvalSymlinks(name)
	if err != nil {
		return "", err
	}
	rel, err := filepath.Rel(r.root, canonical)
	if err != nil {
		return "", err
	}
	rel = filepath.ToSlash(rel)
	if rel == ".." || strings.HasPrefix(rel, "../") {
		return rel, nil
	}
	return "./" + rel, nil
}

func isRelative(name string) bool {
	return name == "." || name == ".." || strings.HasPrefix(name, "./") || strings.HasPrefix(name, "../")
}

func isAbsolute(name string) bool {
	return strings.HasPrefix(name, "/") || filepath.IsAbs(name)
}
