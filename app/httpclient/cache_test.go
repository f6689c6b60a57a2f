package httpclient

import (
	"testing"
	"time"
)

func TestCache_MissReturnsNil(t *testing.T) {
	cache, err := NewCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewCache failed: %v", err)
	}

	entry, body, err := cache.Get("https://ex.com/never-stored")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if entry != nil || body != nil {
		t.Errorf("Expected nil entry and body on miss")
	}
}

func TestCache_PutGetRoundtrip(t *testing.T) {
	cache, err := NewCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewCache failed: %v", err)
	}

	stored := Entry{
		Status:       200,
		Headers:      map[string]string{"Content-Type": "text/html"},
		FinalURL:     "https://ex.com/final",
		ETag:         `"v1"`,
		LastModified: "Wed, 28 Feb 2024 10:00:00 GMT",
		FetchedAt:    time.Now(),
	}
	if err := cache.Put("https://ex.com/page", stored, []byte("<html>body</html>")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	entry, body, err := cache.Get("https://ex.com/page")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if entry == nil {
		t.Fatal("Expected a cache hit")
	}
	if entry.Status != 200 || entry.ETag != `"v1"` || entry.FinalURL != "https://ex.com/final" {
		t.Errorf("Unexpected entry: %+v", entry)
	}
	if string(body) != "<html>body</html>" {
		t.Errorf("Unexpected body: %q", body)
	}

	// A different URL does not collide
	other, _, err := cache.Get("https://ex.com/page2")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if other != nil {
		t.Errorf("Expected miss for different URL")
	}
}

func TestCache_Freshness(t *testing.T) {
	cache, err := NewCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewCache failed: %v", err)
	}

	fresh := &Entry{FetchedAt: time.Now()}
	if !cache.IsFresh(fresh, time.Minute) {
		t.Errorf("Just-fetched entry should be fresh")
	}

	stale := &Entry{FetchedAt: time.Now().Add(-2 * time.Minute)}
	if cache.IsFresh(stale, time.Minute) {
		t.Errorf("Entry older than the TTL should be stale")
	}

	if cache.IsFresh(nil, time.Minute) {
		t.Errorf("Nil entry is never fresh")
	}
}

func TestCache_TouchRefreshesTimestamp(t *testing.T) {
	cache, err := NewCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewCache failed: %v", err)
	}

	past := time.Now().Add(-time.Hour)
	if err := cache.Put("https://ex.com/page", Entry{Status: 200, FetchedAt: past}, []byte("body")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	entry, _, _ := cache.Get("https://ex.com/page")
	if cache.IsFresh(entry, time.Minute) {
		t.Fatal("Entry should start stale")
	}

	if err := cache.Touch("https://ex.com/page", time.Now()); err != nil {
		t.Fatalf("Touch failed: %v", err)
	}

	entry, body, err := cache.Get("https://ex.com/page")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !cache.IsFresh(entry, time.Minute) {
		t.Errorf("Touched entry should be fresh")
	}
	if string(body) != "body" {
		t.Errorf("Touch must not modify the stored body, got %q", body)
	}
}

func TestCache_Clear(t *testing.T) {
	cache, err := NewCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewCache failed: %v", err)
	}

	if err := cache.Put("https://ex.com/a", Entry{Status: 200, FetchedAt: time.Now()}, []byte("a")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := cache.Clear(); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}

	entry, _, err := cache.Get("https://ex.com/a")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if entry != nil {
		t.Errorf("Expected miss after Clear")
	}
}
