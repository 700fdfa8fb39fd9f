package detection

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/TATUMGAMES/TG-MIKROS-MAFIA-BOT-sub002/internal/pattern"
	"github.com/TATUMGAMES/TG-MIKROS-MAFIA-BOT-sub002/internal/reputation"
)

// Suppression window after a user is reported; repeated alerts for the same
// burst are dropped until it elapses.
const reportCooldown = 5 * time.Minute

type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// Message is the inbound chat event the engine evaluates. A zero
// AccountCreatedAt or GuildJoinedAt means the metadata is unknown; the
// affected heuristics simply skip instead of erroring.
type Message struct {
	AuthorID          string
	AuthorIsAutomated bool
	GuildID           string
	ChannelID         string
	Content           string
	FromGuildContext  bool
	AccountCreatedAt  time.Time
	GuildJoinedAt     time.Time
}

// Engine evaluates messages against an ordered heuristic chain. It holds the
// per-guild config store, the report cooldown map, and observational
// prevention counters. All state is in-memory and safe for concurrent use.
type Engine struct {
	configs    *ConfigStore
	index      *pattern.Index
	logger     *zap.Logger
	clock      Clock
	heuristics []heuristic

	cooldownMu sync.Mutex
	cooldowns  map[string]time.Time

	preventionMu sync.Mutex
	preventions  map[string]int
}

func NewEngine(configs *ConfigStore, index *pattern.Index, registry *reputation.Registry, logger *zap.Logger) *Engine {
	return &Engine{
		configs: configs,
		index:   index,
		logger:  logger,
		clock:   realClock{},
		heuristics: []heuristic{
			accountAgeHeuristic{},
			joinAndLinkHeuristic{},
			multiChannelHeuristic{index: index},
			domainReputationHeuristic{registry: registry},
		},
		cooldowns:   make(map[string]time.Time),
		preventions: make(map[string]int),
	}
}

func (e *Engine) WithClock(clock Clock) {
	e.clock = clock
}

func (e *Engine) Configs() *ConfigStore {
	return e.configs
}

// Evaluate runs one message through the gates and the heuristic chain and
// returns the first positive verdict. It never fails: malformed input
// degrades to no detection.
func (e *Engine) Evaluate(msg Message) Result {
	if msg.AuthorIsAutomated || !msg.FromGuildContext {
		return NoDetection()
	}
	if msg.AuthorID == "" || msg.GuildID == "" {
		return NoDetection()
	}

	cfg := e.configs.Get(msg.GuildID)
	if !cfg.Enabled {
		return NoDetection()
	}
	if e.isOnCooldown(msg.GuildID, msg.AuthorID) {
		return NoDetection()
	}

	// Record before any heuristic runs so correlation data for this
	// user/content pair survives an early match.
	fingerprint := e.index.Record(msg.AuthorID, msg.ChannelID, msg.Content)

	ectx := evalContext{
		msg:         msg,
		cfg:         cfg,
		now:         e.clock.Now(),
		fingerprint: fingerprint,
	}
	for _, h := range e.heuristics {
		result, ok := h.evaluate(ectx)
		if !ok {
			continue
		}
		e.logger.Debug("bot behavior detected",
			zap.String("guild_id", msg.GuildID),
			zap.String("user_id", msg.AuthorID),
			zap.String("reason", string(result.Reason)),
			zap.String("confidence", string(result.Confidence)))
		return result
	}
	return NoDetection()
}

// RecordReport starts the cooldown window for a user. Callers invoke it after
// acting on a verdict, not the engine itself.
func (e *Engine) RecordReport(guildID, userID string) {
	if guildID == "" || userID == "" {
		return
	}
	e.cooldownMu.Lock()
	e.cooldowns[guildID+":"+userID] = e.clock.Now()
	e.cooldownMu.Unlock()
}

func (e *Engine) isOnCooldown(guildID, userID string) bool {
	key := guildID + ":" + userID
	e.cooldownMu.Lock()
	defer e.cooldownMu.Unlock()

	lastReport, ok := e.cooldowns[key]
	if !ok {
		return false
	}
	if e.clock.Now().Sub(lastReport) >= reportCooldown {
		delete(e.cooldowns, key)
		return false
	}
	return true
}

// RecordPrevention bumps the per-guild prevention counter and returns the new
// total. Purely observational.
func (e *Engine) RecordPrevention(guildID string) int {
	e.preventionMu.Lock()
	defer e.preventionMu.Unlock()
	e.preventions[guildID]++
	return e.preventions[guildID]
}

func (e *Engine) PreventionCount(guildID string) int {
	e.preventionMu.Lock()
	defer e.preventionMu.Unlock()
	return e.preventions[guildID]
}
