package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/anyroot/anyroot/internal/rewrite"
)

func TestRewriteTree(t *testing.T) {
	rootDir := t.TempDir()
	outDir := t.TempDir()

	files := map[string]string{
		"index.html":     `<a href="/docs/a.html">a</a>`,
		"docs/a.html":    `<link href="/css/site.css">`,
		"css/site.css":   "body {}",
		"docs/plain.txt": "keep",
	}
	for name, content := range files {
		path := filepath.Join(rootDir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
	}

	rw, err := rewrite.New(rewrite.DefaultOptions)
	if err != nil {
		t.Fatalf("rewrite.New error: %v", err)
	}

	changedFiles, links, err := rewriteTree(rw, rootDir, outDir)
	if err != nil {
		t.Fatalf("rewriteTree error: %v", err)
	}
	if changedFiles != 2 || links != 2 {
		t.Fatalf("expected 2 files / 2 links, got %d / %d", changedFiles, links)
	}

	got, err := os.ReadFile(filepath.Join(outDir, "docs", "a.html"))
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if string(got) != `<link href="../css/site.css">` {
		t.Fatalf("unexpected rewritten content %q", string(got))
	}

	kept, err := os.ReadFile(filepath.Join(outDir, "docs", "plain.txt"))
	if err != nil {
		t.Fatalf("read copied file: %v", err)
	}
	if string(kept) != "keep" {
		t.Fatalf("plain file should be copied unchanged, got %q", string(kept))
	}
}
