package main

import (
	"path/filepath"
	"testing"
)

func newTestCache(t *testing.T) *Cache {
	t.Helper()
	cache, err := openCache(filepath.Join(t.TempDir(), "transcripts.db"))
	if err != nil {
		t.Fatalf("openCache() error = %v", err)
	}
	t.Cleanup(func() { cache.Close() })
	return cache
}

func TestCache(t *testing.T) {
	cache := newTestCache(t)

	videoID := "dQw4w9WgXcQ"
	lang := "en"
	title := "Never Gonna Give You Up"
	transcript := "[00:00] We're no strangers to love"

	if err := cache.Put(videoID, lang, title, transcript); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	entry, err := cache.Get(videoID, lang)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}

	if entry.VideoID != videoID {
		t.Errorf("VideoID = %v, want %v", entry.VideoID, videoID)
	}
	if entry.Language != lang {
		t.Errorf("Language = %v, want %v", entry.Language, lang)
	}
	if entry.Title != title {
		t.Errorf("Title = %v, want %v", entry.Title, title)
	}
	if entry.Transcript != transcript {
		t.Errorf("Transcript = %v, want %v", entry.Transcript, transcript)
	}
	if entry.FetchedAt.IsZero() {
		t.Error("FetchedAt should not be zero")
	}
}

func TestCacheLanguagesAreSeparate(t *testing.T) {
	cache := newTestCache(t)

	videoID := "dQw4w9WgXcQ"
	if err := cache.Put(videoID, "en", "title", "[00:00] english"); err != nil {
		t.Fatal(err)
	}
	if err := cache.Put(videoID, "es", "title", "[00:00] spanish"); err != nil {
		t.Fatal(err)
	}

	en, err := cache.Get(videoID, "en")
	if err != nil {
		t.Fatalf("Get(en) error = %v", err)
	}
	if en.Transcript != "[00:00] english" {
		t.Errorf("english transcript = %q", en.Transcript)
	}

	es, err := cache.Get(videoID, "es")
	if err != nil {
		t.Fatalf("Get(es) error = %v", err)
	}
	if es.Transcript != "[00:00] spanish" {
		t.Errorf("spanish transcript = %q", es.Transcript)
	}

	n, err := cache.Count()
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if n != 2 {
		t.Errorf("Count() = %d, want 2", n)
	}
}

func TestCacheMiss(t *testing.T) {
	cache := newTestCache(t)

	if _, err := cache.Get("missing1234", "en"); err == nil {
		t.Error("expected error for missing entry")
	}
}

func TestCacheReplace(t *testing.T) {
	cache := newTestCache(t)

	videoID := "dQw4w9WgXcQ"
	if err := cache.Put(videoID, "en", "old", "[00:00] old"); err != nil {
		t.Fatal(err)
	}
	if err := cache.Put(videoID, "en", "new", "[00:00] new"); err != nil {
		t.Fatal(err)
	}

	entry, err := cache.Get(videoID, "en")
	if err != nil {
		t.Fatal(err)
	}
	if entry.Transcript != "[00:00] new" || entry.Title != "new" {
		t.Errorf("entry = %+v, want replaced values", entry)
	}

	n, _ := cache.Count()
	if n != 1 {
		t.Errorf("Count() = %d, want 1 after replace", n)
	}
}
