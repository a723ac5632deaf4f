package filesvc

import (
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"

	"github.com/Kuroson/cs3900-project-sub002/core"
)

func newTestStore(t *testing.T, timeout time.Duration) *LocalStore {
	return &LocalStore{
		dir:     t.TempDir(),
		baseURL: "http://localhost:8000/files",
		secret:  []byte("secret"),
		timeout: timeout,
	}
}

func TestLocalStore_StoreAndSign(t *testing.T) {
	s := newTestStore(t, 15*time.Minute)

	ref, err := s.Store([]byte("hello"), core.FileMeta{Name: "notes.pdf", ContentType: "application/pdf"})
	if err != nil {
		t.Fatalf("Store() failed: %v", err)
	}
	if filepath.Ext(ref) != ".pdf" {
		t.Errorf("ref = %q, want the original extension kept", ref)
	}
	data, err := os.ReadFile(s.Path(ref))
	if err != nil {
		t.Fatalf("reading stored file failed: %v", err)
	}
	if string(data) != "hello" {
		t.Errorf("stored contents = %q, want %q", data, "hello")
	}

	signed, err := s.URLFor(ref)
	if err != nil {
		t.Fatalf("URLFor() failed: %v", err)
	}
	if !strings.HasPrefix(signed, "http://localhost:8000/files/"+ref+"?") {
		t.Fatalf("URLFor() = %q, want base URL and ref", signed)
	}

	u, err := url.Parse(signed)
	if err != nil {
		t.Fatalf("parsing signed URL failed: %v", err)
	}
	expires, sig := u.Query().Get("expires"), u.Query().Get("sig")
	if err = s.VerifyURL(ref, expires, sig); err != nil {
		t.Errorf("VerifyURL() rejected a fresh signature: %v", err)
	}
	if err = s.VerifyURL(ref, expires, sig+"ff"); !errors.Is(err, core.ErrForbidden) {
		t.Errorf("VerifyURL(bad sig) error = %v, want forbidden", err)
	}
	if err = s.VerifyURL(ref, "not-a-number", sig); !errors.Is(err, core.ErrForbidden) {
		t.Errorf("VerifyURL(bad expiry) error = %v, want forbidden", err)
	}

	if _, err = s.URLFor("nope.pdf"); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("URLFor(unknown) error = %v, want ErrNotFound", err)
	}
}

func TestLocalStore_expiredURL(t *testing.T) {
	s := newTestStore(t, -time.Minute)

	ref, err := s.Store([]byte("x"), core.FileMeta{Name: "x.txt"})
	if err != nil {
		t.Fatalf("Store() failed: %v", err)
	}
	signed, err := s.URLFor(ref)
	if err != nil {
		t.Fatalf("URLFor() failed: %v", err)
	}

	u, _ := url.Parse(signed)
	err = s.VerifyURL(ref, u.Query().Get("expires"), u.Query().Get("sig"))
	if !errors.Is(err, core.ErrForbidden) {
		t.Errorf("VerifyURL(expired) error = %v, want forbidden", err)
	}
}

func TestMemStore(t *testing.T) {
	s := NewMemStore()

	ref, err := s.Store([]byte("hello"), core.FileMeta{Name: "notes.pdf"})
	if err != nil {
		t.Fatalf("Store() failed: %v", err)
	}
	got, err := s.URLFor(ref)
	if err != nil {
		t.Fatalf("URLFor() failed: %v", err)
	}
	if got != "mem://"+ref {
		t.Errorf("URLFor() = %q, want mem ref", got)
	}
	if _, err = s.URLFor("nope"); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("URLFor(unknown) error = %v, want ErrNotFound", err)
	}
}
