package registry

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

func touch(t *testing.T, dir, name string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte("GGUF"), 0o644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	return p
}

func TestLoadDir_FiltersGGUF(t *testing.T) {
	dir := t.TempDir()
	for _, f := range []string{"b.gguf", "A.GGUF", "not-model.txt", "model.bin"} {
		touch(t, dir, f)
	}
	if err := os.Mkdir(filepath.Join(dir, "sub.gguf"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	models, err := LoadDir(dir)
	if err != nil {
		t.Fatalf("scan error: %v", err)
	}
	if len(models) != 2 {
		t.Fatalf("expected 2 models, got %d: %+v", len(models), models)
	}
	if models[0].Name != "A.GGUF" || models[1].Name != "b.gguf" {
		t.Fatalf("unexpected order: %+v", models)
	}
	for _, m := range models {
		if !filepath.IsAbs(m.Path) || m.Size != 4 {
			t.Fatalf("unexpected entry: %+v", m)
		}
	}
}

func TestLoadDir_ExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("no home dir on this platform: %v", err)
	}
	hTmp, err := os.MkdirTemp(home, "llamachat-registry-*")
	if err != nil {
		t.Skipf("cannot create temp under home: %v", err)
	}
	defer os.RemoveAll(hTmp)
	touch(t, hTmp, "x.gguf")
	var tildePath string
	if runtime.GOOS == "windows" {
		tildePath = filepath.Join("~", filepath.Base(hTmp))
	} else {
		tildePath = "~/" + filepath.Base(hTmp)
	}
	models, err := LoadDir(tildePath)
	if err != nil {
		t.Fatalf("scan error: %v", err)
	}
	if len(models) != 1 || models[0].Name != "x.gguf" {
		t.Fatalf("unexpected models: %+v", models)
	}
}

func TestResolve(t *testing.T) {
	t.Run("file passes through", func(t *testing.T) {
		p := touch(t, t.TempDir(), "m.gguf")
		got, err := Resolve(p)
		if err != nil || got != p {
			t.Fatalf("got %q err=%v", got, err)
		}
	})

	t.Run("missing path passes through", func(t *testing.T) {
		p := filepath.Join(t.TempDir(), "missing.gguf")
		got, err := Resolve(p)
		if err != nil || got != p {
			t.Fatalf("got %q err=%v", got, err)
		}
	})

	t.Run("directory with one model", func(t *testing.T) {
		dir := t.TempDir()
		want := touch(t, dir, "only.gguf")
		touch(t, dir, "readme.txt")
		got, err := Resolve(dir)
		if err != nil {
			t.Fatalf("resolve: %v", err)
		}
		if got != want {
			t.Fatalf("got %q want %q", got, want)
		}
	})

	t.Run("empty directory", func(t *testing.T) {
		if _, err := Resolve(t.TempDir()); err == nil || !strings.Contains(err.Error(), "no *.gguf") {
			t.Fatalf("expected no models error, got %v", err)
		}
	})

	t.Run("ambiguous directory", func(t *testing.T) {
		dir := t.TempDir()
		touch(t, dir, "a.gguf")
		touch(t, dir, "b.gguf")
		_, err := Resolve(dir)
		if err == nil || !strings.Contains(err.Error(), "a.gguf, b.gguf") {
			t.Fatalf("expected ambiguity error listing models, got %v", err)
		}
	})
}
