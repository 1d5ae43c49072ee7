package resolve

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/coldog/minipack/pkg/builderr"
)

func writeFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
}

func newResolver(t *testing.T, files map[string]string, exts ...string) *Resolver {
	t.Helper()
	root := t.TempDir()
	writeFiles(t, root, files)
	r, err := New(root, exts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return r
}

func TestResolve(t *testing.T) {
	r := newResolver(t, map[string]string{
		"src/index.js":      "",
		"src/b.js":          "",
		"src/lib/c.js":      "",
		"shared/d.js":       "",
		"src/lib/nested.js": "",
	})

	tests := []struct {
		specifier string
		importer  string
		want      string
	}{
		{"./b.js", "./src/index.js", "./src/b.js"},
		{"./lib/c.js", "./src/index.js", "./src/lib/c.js"},
		{"../b.js", "./src/lib/c.js", "./src/b.js"},
		{"../../shared/d.js", "./src/lib/c.js", "./shared/d.js"},
		{"./lib/../b.js", "./src/index.js", "./src/b.js"},
		{"./././b.js", "./src/index.js", "./src/b.js"},
		{"./nested.js", "./src/lib/c.js", "./src/lib/nested.js"},
	}
	for _, tt := range tests {
		t.Run(tt.specifier+" from "+tt.importer, func(t *testing.T) {
			got, err := r.Resolve(tt.specifier, tt.importer)
			if err != nil {
				t.Fatalf("Resolve: %v", err)
			}
			if got != tt.want {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestResolveAbsolute(t *testing.T) {
	r := newResolver(t, map[string]string{"a.js": "", "b.js": ""})

	got, err := r.Resolve(filepath.ToSlash(filepath.Join(r.Root(), "b.js")), "./a.js")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got != "./b.js" {
		t.Fatalf("got %q, want ./b.js", got)
	}
}

func TestResolveDeterministic(t *testing.T) {
	r := newResolver(t, map[string]string{"a.js": "", "b.js": ""})

	first, err := r.Resolve("./b.js", "./a.js")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	for i := 0; i < 3; i++ {
		again, err := r.Resolve("./b.js", "./a.js")
		if err != nil {
			t.Fatalf("Resolve: %v", err)
		}
		if again != first {
			t.Fatalf("resolution changed: %q != %q", again, first)
		}
	}
}

func TestResolveSameSpecifierDifferentImporters(t *testing.T) {
	r := newResolver(t, map[string]string{
		"a/x.js":   "",
		"a/dep.js": "",
		"b/y.js":   "",
		"b/dep.js": "",
	})

	fromA, err := r.Resolve("./dep.js", "./a/x.js")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	fromB, err := r.Resolve("./dep.js", "./b/y.js")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if fromA == fromB {
		t.Fatalf("distinct files collided on %q", fromA)
	}
}

func TestResolveInjectivePerImporter(t *testing.T) {
	r := newResolver(t, map[string]string{"a.js": "", "b.js": "", "c.js": ""})

	b, err := r.Resolve("./b.js", "./a.js")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	c, err := r.Resolve("./c.js", "./a.js")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if b == c {
		t.Fatalf("./b.js and ./c.js both resolved to %q", b)
	}

	alias, err := r.Resolve("./sub/../b.js", "./a.js")
	if err == nil && alias != b {
		t.Fatalf("same file produced two identities: %q and %q", alias, b)
	}
}

func TestResolveSymlinkSharesIdentity(t *testing.T) {
	r := newResolver(t, map[string]string{"a.js": "", "lib/real.js": ""})
	if err := os.Symlink(filepath.Join(r.Root(), "lib", "real.js"), filepath.Join(r.Root(), "alias.js")); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}

	direct, err := r.Resolve("./lib/real.js", "./a.js")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	linked, err := r.Resolve("./alias.js", "./a.js")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if direct != linked {
		t.Fatalf("symlink produced %q, direct path %q", linked, direct)
	}
}

func TestResolveErrors(t *testing.T) {
	r := newResolver(t, map[string]string{"a.js": "", "dir/x.js": ""})

	tests := []struct {
		name      string
		specifier string
	}{
		{"missing", "./missing"},
		{"missing with extension", "./missing.js"},
		{"bare", "react"},
		{"directory", "./dir"},
		{"no extension inference by default", "./a"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.Resolve(tt.specifier, "./a.js")
			if err == nil {
				t.Fatalf("expected error")
			}
			if !errors.Is(err, builderr.ErrResolution) {
				t.Fatalf("expected resolution error, got %v", err)
			}
			var be *builderr.Error
			if !errors.As(err, &be) {
				t.Fatalf("expected *builderr.Error, got %T", err)
			}
			if be.Module != "./a.js" || be.Specifier != tt.specifier {
				t.Fatalf("error lacks location: %+v", be)
			}
		})
	}
}

func TestResolveExtensions(t *testing.T) {
	r := newResolver(t, map[string]string{"a.js": "", "b.mjs": "", "c.js": "", "c.mjs": ""}, "js", ".mjs")

	tests := map[string]string{
		"./b":    "./b.mjs",
		"./c":    "./c.js",
		"./c.js": "./c.js",
	}
	for spec, want := range tests {
		got, err := r.Resolve(spec, "./a.js")
		if err != nil {
			t.Fatalf("Resolve(%q): %v", spec, err)
		}
		if got != want {
			t.Fatalf("Resolve(%q) = %q, want %q", spec, got, want)
		}
	}
}

func TestEntry(t *testing.T) {
	r := newResolver(t, map[string]string{"src/index.js": ""})

	id, err := r.Entry(filepath.Join(r.Root(), "src", "index.js"))
	if err != nil {
		t.Fatalf("Entry: %v", err)
	}
	if id != "./src/index.js" {
		t.Fatalf("got %q", id)
	}
	if got := r.Path(id); got != filepath.Join(r.Root(), "src", "index.js") {
		t.Fatalf("Path(%q) = %q", id, got)
	}

	if _, err := r.Entry(filepath.Join(r.Root(), "nope.js")); !errors.Is(err, builderr.ErrRead) {
		t.Fatalf("missing entry: expected read error, got %v", err)
	}
	if _, err := r.Entry(filepath.Join(r.Root(), "src")); !errors.Is(err, builderr.ErrRead) {
		t.Fatalf("directory entry: expected read error, got %v", err)
	}
}

func TestEntryOutsideRoot(t *testing.T) {
	parent := t.TempDir()
	writeFiles(t, parent, map[string]string{"root/a.js": "", "outside.js": ""})
	r, err := New(filepath.Join(parent, "root"), nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	id, err := r.Resolve("../outside.js", "./a.js")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if id != "../outside.js" {
		t.Fatalf("got %q", id)
	}
	if got := r.Path(id); got != filepath.Join(r.Root(), "..", "outside.js") {
		t.Fatalf("Path(%q) = %q", id, got)
	}
}
