package pattern

import (
	"fmt"
	"testing"
	"time"
)

type fakeClock struct{ now time.Time }

func (f fakeClock) Now() time.Time { return f.now }

func TestMultiChannelSpamThreshold(t *testing.T) {
	index := NewIndex()
	index.WithClock(fakeClock{now: time.Unix(1000, 0)})

	content := "join my server now"
	index.Record("u1", "c1", content)
	index.Record("u1", "c2", content)

	fingerprint := Fingerprint(content)
	if index.IsMultiChannelSpam("u1", fingerprint, 3, 30*time.Second) {
		t.Fatalf("two channels should not trigger threshold of 3")
	}

	index.Record("u1", "c3", content)
	if !index.IsMultiChannelSpam("u1", fingerprint, 3, 30*time.Second) {
		t.Fatalf("three distinct channels should trigger")
	}
}

func TestMultiChannelSpamDistinctChannels(t *testing.T) {
	index := NewIndex()
	index.WithClock(fakeClock{now: time.Unix(1000, 0)})

	content := "same text"
	index.Record("u1", "c1", content)
	index.Record("u1", "c1", content)
	index.Record("u1", "c2", content)

	// Three records but only two distinct channels.
	if index.IsMultiChannelSpam("u1", Fingerprint(content), 3, 30*time.Second) {
		t.Fatalf("duplicate channels must not count twice")
	}
}

func TestMultiChannelSpamWindow(t *testing.T) {
	index := NewIndex()
	base := time.Unix(1000, 0)

	index.WithClock(fakeClock{now: base})
	index.Record("u1", "c1", "hello")
	index.WithClock(fakeClock{now: base.Add(5 * time.Second)})
	index.Record("u1", "c2", "hello")
	index.WithClock(fakeClock{now: base.Add(10 * time.Second)})
	index.Record("u1", "c3", "hello")

	fingerprint := Fingerprint("hello")
	if !index.IsMultiChannelSpam("u1", fingerprint, 3, 30*time.Second) {
		t.Fatalf("expected spam inside window")
	}

	index.WithClock(fakeClock{now: base.Add(2 * time.Minute)})
	if index.IsMultiChannelSpam("u1", fingerprint, 3, 30*time.Second) {
		t.Fatalf("records outside window must not count")
	}
}

func TestEvictOlderThan(t *testing.T) {
	index := NewIndex()
	base := time.Unix(1000, 0)

	index.WithClock(fakeClock{now: base})
	index.Record("u1", "c1", "old message")
	index.WithClock(fakeClock{now: base.Add(time.Hour)})
	index.Record("u2", "c1", "new message")

	index.EvictOlderThan(30 * time.Minute)

	if index.Keys() != 1 {
		t.Fatalf("expected empty key removed, got %d keys", index.Keys())
	}
	if index.IsMultiChannelSpam("u1", Fingerprint("old message"), 1, time.Hour) {
		t.Fatalf("evicted records must not match")
	}
	if !index.IsMultiChannelSpam("u2", Fingerprint("new message"), 1, time.Hour) {
		t.Fatalf("fresh records must survive eviction")
	}
}

func TestInlineMaintenanceSweep(t *testing.T) {
	index := NewIndex()
	base := time.Unix(1000, 0)

	// First record ages past the 30-minute maintenance retention.
	index.WithClock(fakeClock{now: base})
	index.Record("u1", "stale-channel", "burst")

	index.WithClock(fakeClock{now: base.Add(45 * time.Minute)})
	for i := 0; i < 100; i++ {
		index.Record("u1", fmt.Sprintf("c%d", i%5), "burst")
	}

	// 101 records under the key triggered the sweep; the stale first record
	// must be gone from windowed queries even with a generous window.
	fingerprint := Fingerprint("burst")
	if index.IsMultiChannelSpam("u1", fingerprint, 6, 2*time.Hour) {
		t.Fatalf("evicted first channel must not contribute a 6th distinct channel")
	}
	if !index.IsMultiChannelSpam("u1", fingerprint, 5, 2*time.Hour) {
		t.Fatalf("recent records must still match")
	}
}

func TestRecordIgnoresBlankInput(t *testing.T) {
	index := NewIndex()
	if fingerprint := index.Record("", "c1", "text"); fingerprint != "" {
		t.Fatalf("expected no-op for blank user")
	}
	if fingerprint := index.Record("u1", "c1", ""); fingerprint != "" {
		t.Fatalf("expected no-op for blank content")
	}
	if index.Keys() != 0 {
		t.Fatalf("blank input must not create entries")
	}
}

func TestFingerprintStable(t *testing.T) {
	if Fingerprint("abc") != Fingerprint("abc") {
		t.Fatalf("fingerprint must be deterministic")
	}
	if Fingerprint("abc") == Fingerprint("abd") {
		t.Fatalf("different content should not collide")
	}
	if len(Fingerprint("x")) != 64 {
		t.Fatalf("expected fixed-width hex digest")
	}
}
