package detection

import "sync"

// Config holds per-guild detection thresholds. Configs are immutable
// snapshots: readers get a copy, writers replace the whole value.
type Config struct {
	Enabled                       bool
	AccountAgeThresholdDays       int
	LinkRestrictionMinutes        int
	MultiChannelSpamThreshold     int
	MultiChannelTimeWindowSeconds int
	JoinAndLinkTimeWindowSeconds  int
	AutoAction                    AutoAction
	ReportToReputation            bool
}

// DefaultConfig returns the documented per-guild defaults. Detection starts
// disabled until a moderator turns it on.
//
// LinkRestrictionMinutes is not consulted by any heuristic; it only feeds the
// wording of the DELETE warning message.
func DefaultConfig() Config {
	return Config{
		Enabled:                       false,
		AccountAgeThresholdDays:       30,
		LinkRestrictionMinutes:        20,
		MultiChannelSpamThreshold:     3,
		MultiChannelTimeWindowSeconds: 30,
		JoinAndLinkTimeWindowSeconds:  60,
		AutoAction:                    ActionDelete,
		ReportToReputation:            true,
	}
}

// Normalize clamps non-positive thresholds back to their defaults so a bad
// admin update can never wedge detection.
func (c Config) Normalize() Config {
	defaults := DefaultConfig()
	if c.AccountAgeThresholdDays <= 0 {
		c.AccountAgeThresholdDays = defaults.AccountAgeThresholdDays
	}
	if c.LinkRestrictionMinutes <= 0 {
		c.LinkRestrictionMinutes = defaults.LinkRestrictionMinutes
	}
	if c.MultiChannelSpamThreshold <= 0 {
		c.MultiChannelSpamThreshold = defaults.MultiChannelSpamThreshold
	}
	if c.MultiChannelTimeWindowSeconds <= 0 {
		c.MultiChannelTimeWindowSeconds = defaults.MultiChannelTimeWindowSeconds
	}
	if c.JoinAndLinkTimeWindowSeconds <= 0 {
		c.JoinAndLinkTimeWindowSeconds = defaults.JoinAndLinkTimeWindowSeconds
	}
	if c.AutoAction == "" {
		c.AutoAction = defaults.AutoAction
	}
	return c
}

// ConfigStore keeps one config snapshot per guild, created lazily with
// defaults on first access and never deleted.
type ConfigStore struct {
	mu      sync.RWMutex
	configs map[string]Config
}

func NewConfigStore() *ConfigStore {
	return &ConfigStore{configs: make(map[string]Config)}
}

func (s *ConfigStore) Get(guildID string) Config {
	s.mu.RLock()
	cfg, ok := s.configs[guildID]
	s.mu.RUnlock()
	if ok {
		return cfg
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if cfg, ok = s.configs[guildID]; ok {
		return cfg
	}
	cfg = DefaultConfig()
	s.configs[guildID] = cfg
	return cfg
}

func (s *ConfigStore) Set(guildID string, cfg Config) {
	cfg = cfg.Normalize()
	s.mu.Lock()
	s.configs[guildID] = cfg
	s.mu.Unlock()
}
