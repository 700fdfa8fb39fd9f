package pattern

import (
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestSweeperSweep(t *testing.T) {
	index := NewIndex()
	base := time.Unix(1000, 0)

	index.WithClock(fakeClock{now: base})
	index.Record("u1", "c1", "stale")
	index.WithClock(fakeClock{now: base.Add(time.Hour)})
	index.Record("u1", "c1", "fresh")

	sweeper := NewSweeper(index, time.Minute, 30*time.Minute, zap.NewNop())
	sweeper.Sweep()

	if index.Keys() != 1 {
		t.Fatalf("expected only the fresh key to survive, got %d", index.Keys())
	}
	if !index.IsMultiChannelSpam("u1", Fingerprint("fresh"), 1, time.Hour) {
		t.Fatalf("fresh record must survive the sweep")
	}
}

func TestSweeperDefaults(t *testing.T) {
	sweeper := NewSweeper(NewIndex(), 0, 0, zap.NewNop())
	if sweeper.interval <= 0 || sweeper.retention <= 0 {
		t.Fatalf("expected positive defaults")
	}
}
