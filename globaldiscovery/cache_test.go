package globaldiscovery

import (
	"testing"
	"time"

	"github.com/basiliscos/syncspirit-go/uri"
)

func TestCacheSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	c := &Cache{Dir: dir, TTL: time.Hour}

	addr, err := uri.Parse("tcp://192.168.1.5:22000")
	if err != nil {
		t.Fatalf("uri.Parse: %v", err)
	}
	want := LookupResult{Addresses: []uri.URI{addr}, Seen: time.Now().UTC().Truncate(time.Second)}

	if err := c.Save("KHQNO2S-DEVICE", want); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, ok := c.Load("KHQNO2S-DEVICE")
	if !ok {
		t.Fatal("Load: expected a cache hit")
	}
	if len(got.Addresses) != 1 || !got.Addresses[0].Equal(want.Addresses[0]) {
		t.Fatalf("Addresses = %v, want %v", got.Addresses, want.Addresses)
	}
	if !got.Seen.Equal(want.Seen) {
		t.Fatalf("Seen = %v, want %v", got.Seen, want.Seen)
	}
}

func TestCacheMissReturnsFalse(t *testing.T) {
	c := &Cache{Dir: t.TempDir(), TTL: time.Hour}
	if _, ok := c.Load("never-saved"); ok {
		t.Fatal("expected a cache miss")
	}
}

func TestCacheExpiredEntryIsAMiss(t *testing.T) {
	dir := t.TempDir()
	c := &Cache{Dir: dir, TTL: time.Millisecond}

	if err := c.Save("KHQNO2S-DEVICE", LookupResult{}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	time.Sleep(5 * time.Millisecond)

	if _, ok := c.Load("KHQNO2S-DEVICE"); ok {
		t.Fatal("expected the entry to have expired")
	}
}
