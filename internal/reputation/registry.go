package reputation

import (
	"strings"
	"sync"
)

// Risk score at which a dynamically tracked domain counts as suspicious.
const suspiciousRiskThreshold = 3

var suspiciousTLDs = []string{
	".ru", ".xyz", ".top", ".click", ".tk", ".ml", ".ga", ".cf",
	".gq", ".pw", ".bid", ".download", ".stream", ".review",
}

var urlShorteners = []string{
	"bit.ly", "tinyurl.com", "goo.gl", "t.co", "short.link",
	"goo.su", "tiny.cc", "is.gd", "ow.ly", "buff.ly", "rebrand.ly",
	"shorturl.at", "cutt.ly", "v.gd",
}

// Registry tracks domain reputation: a fixed set of suspicious TLDs, a fixed
// set of known URL shorteners, and a mutable domain risk table. All lookups
// are case-insensitive and tolerate blank input.
type Registry struct {
	mu         sync.RWMutex
	riskScores map[string]int
}

func NewRegistry() *Registry {
	return &Registry{riskScores: make(map[string]int)}
}

func (r *Registry) IsSuspiciousTLD(domain string) bool {
	domain = normalizeDomain(domain)
	if domain == "" {
		return false
	}
	for _, tld := range suspiciousTLDs {
		if strings.HasSuffix(domain, tld) {
			return true
		}
	}
	return false
}

func (r *Registry) IsURLShortener(domain string) bool {
	domain = normalizeDomain(domain)
	if domain == "" {
		return false
	}
	for _, shortener := range urlShorteners {
		if domain == shortener || strings.Contains(domain, shortener) {
			return true
		}
	}
	return false
}

// AddSuspiciousDomain upserts a risk score. Last write wins.
func (r *Registry) AddSuspiciousDomain(domain string, score int) {
	domain = normalizeDomain(domain)
	if domain == "" {
		return
	}
	r.mu.Lock()
	r.riskScores[domain] = score
	r.mu.Unlock()
}

func (r *Registry) RemoveSuspiciousDomain(domain string) {
	domain = normalizeDomain(domain)
	if domain == "" {
		return
	}
	r.mu.Lock()
	delete(r.riskScores, domain)
	r.mu.Unlock()
}

// RiskScore returns 0 for unknown or blank domains.
func (r *Registry) RiskScore(domain string) int {
	domain = normalizeDomain(domain)
	if domain == "" {
		return 0
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.riskScores[domain]
}

func (r *Registry) IsSuspicious(domain string) bool {
	domain = normalizeDomain(domain)
	if domain == "" {
		return false
	}
	return r.IsSuspiciousTLD(domain) ||
		r.IsURLShortener(domain) ||
		r.RiskScore(domain) >= suspiciousRiskThreshold
}

// Domains returns a snapshot of the dynamic risk table.
func (r *Registry) Domains() map[string]int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	snapshot := make(map[string]int, len(r.riskScores))
	for domain, score := range r.riskScores {
		snapshot[domain] = score
	}
	return snapshot
}

func normalizeDomain(domain string) string {
	return strings.ToLower(strings.TrimSpace(domain))
}
