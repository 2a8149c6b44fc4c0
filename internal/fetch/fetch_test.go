package fetch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func newTestFetcher() *Fetcher {
	return NewFetcher(NewClientFactory(ClientOptions{})(), zerolog.Nop())
}

func TestFetchOneSavesImage(t *testing.T) {
	body := []byte("\x89PNG fake bytes")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Content-Disposition", `attachment; filename="cat.png"`)
		w.Write(body)
	}))
	defer srv.Close()

	dir := t.TempDir()
	name, err := newTestFetcher().FetchOne(context.Background(), srv.URL, dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if name != "cat.png" {
		t.Fatalf("expected cat.png, got %q", name)
	}

	got, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		t.Fatalf("read saved file: %v", err)
	}
	if string(got) != string(body) {
		t.Fatalf("saved bytes differ: %q", got)
	}
}

func TestFetchOneFilenameFromURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png; charset=binary")
		w.Write([]byte("png"))
	}))
	defer srv.Close()

	dir := t.TempDir()
	name, err := newTestFetcher().FetchOne(context.Background(), srv.URL+"/pics/dog", dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if name != "dog.png" {
		t.Fatalf("expected dog.png, got %q", name)
	}
}

func TestFetchOneRejectsNonImage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("not an image"))
	}))
	defer srv.Close()

	dir := t.TempDir()
	_, err := newTestFetcher().FetchOne(context.Background(), srv.URL, dir)

	var ctErr *ContentTypeError
	if !errors.As(err, &ctErr) {
		t.Fatalf("expected ContentTypeError, got %v", err)
	}
	if ctErr.ContentType != "text/plain" {
		t.Fatalf("expected declared type in error, got %q", ctErr.ContentType)
	}
	if !strings.Contains(err.Error(), "text/plain") {
		t.Fatalf("error message should name the content type: %v", err)
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Fatalf("no file should be written, found %d entries", len(entries))
	}
}

func TestFetchOneEmptySubtype(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/")
		w.Write([]byte("x"))
	}))
	defer srv.Close()

	var ctErr *ContentTypeError
	_, err := newTestFetcher().FetchOne(context.Background(), srv.URL, t.TempDir())
	if !errors.As(err, &ctErr) {
		t.Fatalf("expected ContentTypeError for empty subtype, got %v", err)
	}
}

func TestFetchOneStatusError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	_, err := newTestFetcher().FetchOne(context.Background(), srv.URL, t.TempDir())

	var stErr *StatusError
	if !errors.As(err, &stErr) {
		t.Fatalf("expected StatusError, got %v", err)
	}
	if stErr.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", stErr.StatusCode)
	}
}

func TestFetchOneNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // unreachable from here on

	if _, err := newTestFetcher().FetchOne(context.Background(), srv.URL, t.TempDir()); err == nil {
		t.Fatal("expected a network error")
	}
}

func TestFetchOneRenamesOnCollision(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		w.Header().Set("Content-Disposition", `attachment; filename="test.jpeg"`)
		w.Write([]byte("jpeg"))
	}))
	defer srv.Close()

	dir := t.TempDir()
	f := newTestFetcher()

	first, err := f.FetchOne(context.Background(), srv.URL, dir)
	if err != nil {
		t.Fatalf("first fetch: %v", err)
	}
	second, err := f.FetchOne(context.Background(), srv.URL, dir)
	if err != nil {
		t.Fatalf("second fetch: %v", err)
	}

	if first != "test.jpeg" || second != "test_1.jpeg" {
		t.Fatalf("expected test.jpeg then test_1.jpeg, got %q and %q", first, second)
	}
}

func TestFetchOneSucceedsWhenRenamesExhausted(t *testing.T) {
	body := []byte("jpeg")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		w.Header().Set("Content-Disposition", `attachment; filename="test.jpeg"`)
		w.Write(body)
	}))
	defer srv.Close()

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "test.jpeg"), nil, 0o644); err != nil {
		t.Fatal(err)
	}
	for i := 1; i <= 9999; i++ {
		if err := os.WriteFile(filepath.Join(dir, fmt.Sprintf("test_%d.jpeg", i)), nil, 0o644); err != nil {
			t.Fatal(err)
		}
	}

	// All suffixes taken: the last candidate is reused and the task
	// still counts as a success.
	name, err := newTestFetcher().FetchOne(context.Background(), srv.URL, dir)
	if err != nil {
		t.Fatalf("exhausted renames must not fail the task: %v", err)
	}
	if name != "test_9999.jpeg" {
		t.Fatalf("expected last candidate, got %q", name)
	}

	got, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		t.Fatalf("read overwritten file: %v", err)
	}
	if string(got) != string(body) {
		t.Fatalf("last candidate should hold the new bytes, got %q", got)
	}
}
