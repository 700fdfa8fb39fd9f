package detection

import (
	"fmt"
	"time"

	"github.com/TATUMGAMES/TG-MIKROS-MAFIA-BOT-sub002/internal/linkscan"
	"github.com/TATUMGAMES/TG-MIKROS-MAFIA-BOT-sub002/internal/pattern"
	"github.com/TATUMGAMES/TG-MIKROS-MAFIA-BOT-sub002/internal/reputation"
)

// evalContext carries one message evaluation through the heuristic chain.
type evalContext struct {
	msg         Message
	cfg         Config
	now         time.Time
	fingerprint string
}

// heuristic is one independent detection rule. Heuristics are evaluated in
// slice order and the first match wins; they are never combined.
type heuristic interface {
	evaluate(ectx evalContext) (Result, bool)
}

// accountAgeHeuristic flags links posted by accounts younger than the
// configured threshold. Unknown creation time skips the rule.
type accountAgeHeuristic struct{}

func (accountAgeHeuristic) evaluate(ectx evalContext) (Result, bool) {
	if ectx.msg.AccountCreatedAt.IsZero() {
		return Result{}, false
	}
	ageDays := int(ectx.now.Sub(ectx.msg.AccountCreatedAt).Hours() / 24)
	if ageDays >= ectx.cfg.AccountAgeThresholdDays {
		return Result{}, false
	}
	if !linkscan.ContainsLink(ectx.msg.Content) {
		return Result{}, false
	}
	return Result{
		Detected:          true,
		Reason:            ReasonAccountTooNew,
		Confidence:        ConfidenceHigh,
		RecommendedAction: ectx.cfg.AutoAction,
		Details:           fmt.Sprintf("Account age: %d days, posted link", ageDays),
	}, true
}

// joinAndLinkHeuristic flags members that post a link within seconds of
// joining the guild. Unknown join time skips the rule.
type joinAndLinkHeuristic struct{}

func (joinAndLinkHeuristic) evaluate(ectx evalContext) (Result, bool) {
	if ectx.msg.GuildJoinedAt.IsZero() {
		return Result{}, false
	}
	sinceJoin := int(ectx.now.Sub(ectx.msg.GuildJoinedAt).Seconds())
	if sinceJoin >= ectx.cfg.JoinAndLinkTimeWindowSeconds {
		return Result{}, false
	}
	if !linkscan.ContainsLink(ectx.msg.Content) {
		return Result{}, false
	}
	return Result{
		Detected:          true,
		Reason:            ReasonJoinAndLink,
		Confidence:        ConfidenceHigh,
		RecommendedAction: ectx.cfg.AutoAction,
		Details:           fmt.Sprintf("Joined %d seconds ago, posted link", sinceJoin),
	}, true
}

// multiChannelHeuristic flags identical content fanned out across channels.
// The engine records the message into the index before any heuristic runs, so
// this rule only queries.
type multiChannelHeuristic struct {
	index *pattern.Index
}

func (h multiChannelHeuristic) evaluate(ectx evalContext) (Result, bool) {
	if ectx.fingerprint == "" {
		return Result{}, false
	}
	window := time.Duration(ectx.cfg.MultiChannelTimeWindowSeconds) * time.Second
	if !h.index.IsMultiChannelSpam(ectx.msg.AuthorID, ectx.fingerprint, ectx.cfg.MultiChannelSpamThreshold, window) {
		return Result{}, false
	}
	return Result{
		Detected:          true,
		Reason:            ReasonMultiChannelSpam,
		Confidence:        ConfidenceHigh,
		RecommendedAction: ectx.cfg.AutoAction,
		Details: fmt.Sprintf("Same message posted in %d+ channels within %d seconds",
			ectx.cfg.MultiChannelSpamThreshold, ectx.cfg.MultiChannelTimeWindowSeconds),
	}, true
}

// domainReputationHeuristic checks every extracted link, in extraction order,
// against the shortener list first and then the broader suspicion check.
type domainReputationHeuristic struct {
	registry *reputation.Registry
}

func (h domainReputationHeuristic) evaluate(ectx evalContext) (Result, bool) {
	for _, link := range linkscan.ExtractLinks(ectx.msg.Content) {
		hostname := linkscan.ExtractHostname(link)
		if hostname == "" {
			continue
		}
		if h.registry.IsURLShortener(hostname) {
			return Result{
				Detected:          true,
				Reason:            ReasonURLShortener,
				Confidence:        ConfidenceMedium,
				RecommendedAction: ectx.cfg.AutoAction,
				Details:           "URL shortener detected: " + hostname,
			}, true
		}
		if h.registry.IsSuspicious(hostname) {
			return Result{
				Detected:          true,
				Reason:            ReasonSuspiciousDomain,
				Confidence:        ConfidenceMedium,
				RecommendedAction: ectx.cfg.AutoAction,
				Details:           fmt.Sprintf("Suspicious domain: %s (risk: %d)", hostname, h.registry.RiskScore(hostname)),
			}, true
		}
	}
	return Result{}, false
}
