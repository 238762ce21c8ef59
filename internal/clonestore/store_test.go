package clonestore

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"siteclone/internal/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore returned error: %v", err)
	}
	return store
}

func testSite() *domain.GeneratedSite {
	return &domain.GeneratedSite{
		SourceURL: "https://example.com/",
		HTML:      "<html><body>clone</body></html>",
		CSS:       "body { color: red }",
		Provider:  "anthropic",
	}
}

func TestCreatePersistsEntryDocument(t *testing.T) {
	store := newTestStore(t)
	ref, err := store.Create(context.Background(), testSite())
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if _, err := ParseRef(ref.String()); err != nil {
		t.Fatalf("Create returned unparseable ref %q: %v", ref, err)
	}

	entry, err := store.Resolve(ref, "")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	data, err := os.ReadFile(entry)
	if err != nil {
		t.Fatalf("read entry: %v", err)
	}
	if string(data) != "<html><body>clone</body></html>" {
		t.Fatalf("entry content = %q", data)
	}

	if _, err := store.Resolve(ref, "styles.css"); err != nil {
		t.Fatalf("styles.css missing: %v", err)
	}
	if _, err := store.Resolve(ref, "clone.json"); err != nil {
		t.Fatalf("clone.json missing: %v", err)
	}
}

func TestCreateLeavesNoStagingBehind(t *testing.T) {
	store := newTestStore(t)
	if _, err := store.Create(context.Background(), testSite()); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	entries, err := os.ReadDir(store.BaseDir())
	if err != nil {
		t.Fatalf("read base dir: %v", err)
	}
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), stagingMark) {
			t.Fatalf("staging directory %q left behind", e.Name())
		}
	}
}

func TestConcurrentCreatesGetDistinctRefs(t *testing.T) {
	store := newTestStore(t)
	const n = 16

	var mu sync.Mutex
	refs := make(map[Ref]bool)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ref, err := store.Create(context.Background(), testSite())
			if err != nil {
				t.Errorf("Create returned error: %v", err)
				return
			}
			mu.Lock()
			refs[ref] = true
			mu.Unlock()
		}()
	}
	wg.Wait()

	if len(refs) != n {
		t.Fatalf("got %d distinct refs, want %d", len(refs), n)
	}
}

func TestParseRefRejectsMalformedInput(t *testing.T) {
	cases := []string{
		"",
		"c-",
		"c-XYZ",
		"c-123",
		"c-0123456789abcdef", // too long
		"d-0123456789ab",     // wrong prefix
		"c-0123456789AB",     // uppercase
		"../etc",
		"c-0123456789ab/../..",
	}
	for _, raw := range cases {
		if _, err := ParseRef(raw); !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("ParseRef(%q) = %v, want ErrNotFound", raw, err)
		}
	}
}

func TestResolveRejectsTraversal(t *testing.T) {
	store := newTestStore(t)
	ref, err := store.Create(context.Background(), testSite())
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	// A file outside the clone subtree that traversal would reach.
	secret := filepath.Join(store.BaseDir(), "secret.txt")
	if err := os.WriteFile(secret, []byte("nope"), 0o644); err != nil {
		t.Fatalf("write secret: %v", err)
	}

	cases := []string{
		"../secret.txt",
		"..",
		"/etc/passwd",
		"a/../../secret.txt",
		"..\\secret.txt",
	}
	for _, rel := range cases {
		if _, err := store.Resolve(ref, rel); !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("Resolve(%q) = %v, want ErrNotFound", rel, err)
		}
	}
}

func TestResolveUnknownRef(t *testing.T) {
	store := newTestStore(t)
	ref, err := ParseRef("c-0123456789ab")
	if err != nil {
		t.Fatalf("ParseRef returned error: %v", err)
	}
	if _, err := store.Resolve(ref, ""); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("Resolve unknown ref = %v, want ErrNotFound", err)
	}
	if store.Exists(ref) {
		t.Fatal("Exists reported true for unknown ref")
	}
}

func TestArchiveCollectsAllFiles(t *testing.T) {
	store := newTestStore(t)
	ref, err := store.Create(context.Background(), testSite())
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	files, err := store.Archive(ref)
	if err != nil {
		t.Fatalf("Archive returned error: %v", err)
	}
	names := make(map[string]bool, len(files))
	for _, f := range files {
		names[f.Name] = true
	}
	for _, want := range []string{"index.html", "styles.css", "clone.json"} {
		if !names[want] {
			t.Fatalf("Archive missing %s (got %v)", want, names)
		}
	}
}
