package detection

import (
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/TATUMGAMES/TG-MIKROS-MAFIA-BOT-sub002/internal/pattern"
	"github.com/TATUMGAMES/TG-MIKROS-MAFIA-BOT-sub002/internal/reputation"
)

type fakeClock struct{ now time.Time }

func (f fakeClock) Now() time.Time { return f.now }

func newTestEngine(now time.Time) (*Engine, *pattern.Index, *reputation.Registry) {
	index := pattern.NewIndex()
	index.WithClock(fakeClock{now: now})
	registry := reputation.NewRegistry()
	configs := NewConfigStore()

	engine := NewEngine(configs, index, registry, zap.NewNop())
	engine.WithClock(fakeClock{now: now})

	cfg := DefaultConfig()
	cfg.Enabled = true
	configs.Set("g1", cfg)
	return engine, index, registry
}

func guildMessage(now time.Time, content string) Message {
	return Message{
		AuthorID:         "u1",
		GuildID:          "g1",
		ChannelID:        "c1",
		Content:          content,
		FromGuildContext: true,
		AccountCreatedAt: now.AddDate(-2, 0, 0),
	}
}

func TestAccountTooNewPrecedesShortener(t *testing.T) {
	now := time.Unix(1_000_000, 0)
	engine, _, _ := newTestEngine(now)

	msg := guildMessage(now, "check this out https://bit.ly/x")
	msg.AccountCreatedAt = now.AddDate(0, 0, -2)

	result := engine.Evaluate(msg)
	if !result.Detected || result.Reason != ReasonAccountTooNew {
		t.Fatalf("expected ACCOUNT_TOO_NEW, got %+v", result)
	}
	if result.Confidence != ConfidenceHigh {
		t.Fatalf("expected HIGH confidence")
	}
	if result.RecommendedAction != ActionDelete {
		t.Fatalf("expected config action copied, got %s", result.RecommendedAction)
	}
}

func TestNewAccountWithoutLinkPasses(t *testing.T) {
	now := time.Unix(1_000_000, 0)
	engine, _, _ := newTestEngine(now)

	msg := guildMessage(now, "hello everyone")
	msg.AccountCreatedAt = now.AddDate(0, 0, -2)

	if result := engine.Evaluate(msg); result.Detected {
		t.Fatalf("link-free message must not match account age rule: %+v", result)
	}
}

func TestJoinAndLink(t *testing.T) {
	now := time.Unix(1_000_000, 0)
	engine, _, _ := newTestEngine(now)

	msg := guildMessage(now, "https://example.com/offer")
	msg.GuildJoinedAt = now.Add(-10 * time.Second)

	result := engine.Evaluate(msg)
	if !result.Detected || result.Reason != ReasonJoinAndLink {
		t.Fatalf("expected JOIN_AND_LINK, got %+v", result)
	}
	if result.Confidence != ConfidenceHigh {
		t.Fatalf("expected HIGH confidence")
	}
}

func TestMultiChannelSpamThirdPostTriggers(t *testing.T) {
	now := time.Unix(1_000_000, 0)
	engine, _, _ := newTestEngine(now)

	content := "join my server now"
	for _, channelID := range []string{"c1", "c2"} {
		msg := guildMessage(now, content)
		msg.ChannelID = channelID
		if result := engine.Evaluate(msg); result.Detected {
			t.Fatalf("premature detection in %s: %+v", channelID, result)
		}
	}

	msg := guildMessage(now, content)
	msg.ChannelID = "c3"
	result := engine.Evaluate(msg)
	if !result.Detected || result.Reason != ReasonMultiChannelSpam {
		t.Fatalf("expected MULTI_CHANNEL_SPAM on third channel, got %+v", result)
	}
}

func TestMultiChannelSpamBelowThresholdNeverTriggers(t *testing.T) {
	now := time.Unix(1_000_000, 0)
	engine, _, _ := newTestEngine(now)

	content := "same text twice"
	for _, channelID := range []string{"c1", "c2"} {
		msg := guildMessage(now, content)
		msg.ChannelID = channelID
		if result := engine.Evaluate(msg); result.Detected {
			t.Fatalf("threshold-1 channels must not trigger: %+v", result)
		}
	}
}

func TestSuspiciousDomain(t *testing.T) {
	now := time.Unix(1_000_000, 0)
	engine, _, _ := newTestEngine(now)

	result := engine.Evaluate(guildMessage(now, "visit http://example.ru/promo"))
	if !result.Detected || result.Reason != ReasonSuspiciousDomain {
		t.Fatalf("expected SUSPICIOUS_DOMAIN, got %+v", result)
	}
	if result.Confidence != ConfidenceMedium {
		t.Fatalf("expected MEDIUM confidence")
	}
}

func TestURLShortener(t *testing.T) {
	now := time.Unix(1_000_000, 0)
	engine, _, _ := newTestEngine(now)

	result := engine.Evaluate(guildMessage(now, "grab it https://tinyurl.com/deal"))
	if !result.Detected || result.Reason != ReasonURLShortener {
		t.Fatalf("expected URL_SHORTENER, got %+v", result)
	}
}

func TestReportCooldownSuppressesDetection(t *testing.T) {
	now := time.Unix(1_000_000, 0)
	engine, index, _ := newTestEngine(now)

	engine.RecordReport("g1", "u1")

	msg := guildMessage(now, "grab it https://tinyurl.com/deal")
	if result := engine.Evaluate(msg); result.Detected {
		t.Fatalf("cooldown must suppress detection: %+v", result)
	}

	later := now.Add(5*time.Minute + time.Second)
	engine.WithClock(fakeClock{now: later})
	index.WithClock(fakeClock{now: later})
	if result := engine.Evaluate(msg); !result.Detected {
		t.Fatalf("detection must resume after cooldown")
	}
}

func TestGates(t *testing.T) {
	now := time.Unix(1_000_000, 0)
	engine, _, _ := newTestEngine(now)

	automated := guildMessage(now, "https://tinyurl.com/x")
	automated.AuthorIsAutomated = true
	if engine.Evaluate(automated).Detected {
		t.Fatalf("automated authors must bypass detection")
	}

	direct := guildMessage(now, "https://tinyurl.com/x")
	direct.FromGuildContext = false
	if engine.Evaluate(direct).Detected {
		t.Fatalf("non-guild context must bypass detection")
	}

	disabled := guildMessage(now, "https://tinyurl.com/x")
	disabled.GuildID = "g2" // lazily created default config: disabled
	if engine.Evaluate(disabled).Detected {
		t.Fatalf("disabled guild must not detect")
	}
}

func TestMalformedInputDegradesToNoDetection(t *testing.T) {
	now := time.Unix(1_000_000, 0)
	engine, _, _ := newTestEngine(now)

	empty := guildMessage(now, "")
	if engine.Evaluate(empty).Detected {
		t.Fatalf("empty content must not detect")
	}

	noMeta := Message{
		AuthorID:         "u9",
		GuildID:          "g1",
		ChannelID:        "c1",
		Content:          "https://example.com/x",
		FromGuildContext: true,
	}
	// Zero account/join timestamps: age heuristics skip, domain rules still run.
	if result := engine.Evaluate(noMeta); result.Detected {
		t.Fatalf("benign domain with missing metadata must not detect: %+v", result)
	}
}

func TestPreventionCounter(t *testing.T) {
	now := time.Unix(1_000_000, 0)
	engine, _, _ := newTestEngine(now)

	if engine.PreventionCount("g1") != 0 {
		t.Fatalf("expected zero count")
	}
	if total := engine.RecordPrevention("g1"); total != 1 {
		t.Fatalf("expected 1, got %d", total)
	}
	engine.RecordPrevention("g1")
	if engine.PreventionCount("g1") != 2 {
		t.Fatalf("expected 2")
	}
	if engine.PreventionCount("g2") != 0 {
		t.Fatalf("counters are per guild")
	}
}
