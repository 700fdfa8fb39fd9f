package detection

import "testing"

func TestConfigStoreLazyDefaults(t *testing.T) {
	store := NewConfigStore()
	cfg := store.Get("g1")
	if cfg.Enabled {
		t.Fatalf("detection must start disabled")
	}
	if cfg.AccountAgeThresholdDays != 30 || cfg.MultiChannelSpamThreshold != 3 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.MultiChannelTimeWindowSeconds != 30 || cfg.JoinAndLinkTimeWindowSeconds != 60 {
		t.Fatalf("unexpected window defaults: %+v", cfg)
	}
	if cfg.AutoAction != ActionDelete || !cfg.ReportToReputation {
		t.Fatalf("unexpected action defaults: %+v", cfg)
	}
}

func TestConfigStoreSnapshotIsolation(t *testing.T) {
	store := NewConfigStore()
	snapshot := store.Get("g1")
	snapshot.AccountAgeThresholdDays = 99

	// Mutating a returned snapshot must not leak into the store.
	if store.Get("g1").AccountAgeThresholdDays != 30 {
		t.Fatalf("snapshot mutation leaked into store")
	}

	updated := store.Get("g1")
	updated.Enabled = true
	updated.MultiChannelSpamThreshold = 5
	store.Set("g1", updated)

	got := store.Get("g1")
	if !got.Enabled || got.MultiChannelSpamThreshold != 5 {
		t.Fatalf("expected whole-snapshot replacement, got %+v", got)
	}
}

func TestConfigNormalizeClampsThresholds(t *testing.T) {
	cfg := Config{Enabled: true, MultiChannelSpamThreshold: -1}
	normalized := cfg.Normalize()
	if normalized.MultiChannelSpamThreshold != 3 {
		t.Fatalf("expected default threshold, got %d", normalized.MultiChannelSpamThreshold)
	}
	if normalized.AccountAgeThresholdDays != 30 || normalized.AutoAction != ActionDelete {
		t.Fatalf("expected defaults restored: %+v", normalized)
	}
	if !normalized.Enabled {
		t.Fatalf("enabled flag must survive normalization")
	}
}

func TestParseAutoAction(t *testing.T) {
	if ParseAutoAction("KICK") != ActionKick {
		t.Fatalf("expected KICK")
	}
	if ParseAutoAction("bogus") != ActionNone {
		t.Fatalf("unknown input defaults to NONE")
	}
}
