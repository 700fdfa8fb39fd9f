package reputation

import (
	"errors"
	"strings"
	"time"

	"github.com/likexian/whois"
	whoisparser "github.com/likexian/whois-parser"
)

// DomainInfo summarizes a whois lookup for moderators vetting a domain
// before scoring it in the registry.
type DomainInfo struct {
	Domain    string
	Registrar string
	CreatedAt time.Time
	AgeDays   int
}

var errDomainBlank = errors.New("domain is blank")

// LookupDomain performs a whois query. This is an admin-surface helper and is
// never called from the detection path.
func LookupDomain(domain string) (DomainInfo, error) {
	domain = normalizeDomain(domain)
	if domain == "" {
		return DomainInfo{}, errDomainBlank
	}

	raw, err := whois.Whois(domain)
	if err != nil {
		return DomainInfo{}, err
	}

	parsed, err := whoisparser.Parse(raw)
	if err != nil {
		return DomainInfo{}, err
	}

	info := DomainInfo{Domain: domain}
	if parsed.Registrar != nil {
		info.Registrar = strings.TrimSpace(parsed.Registrar.Name)
	}
	if parsed.Domain != nil && parsed.Domain.CreatedDateInTime != nil {
		info.CreatedAt = *parsed.Domain.CreatedDateInTime
		info.AgeDays = int(time.Since(info.CreatedAt).Hours() / 24)
	}
	return info, nil
}
