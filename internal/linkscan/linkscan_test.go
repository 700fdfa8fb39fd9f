package linkscan

import "testing"

func TestContainsLink(t *testing.T) {
	if !ContainsLink("check this out https://bit.ly/x") {
		t.Fatalf("expected link detection")
	}
	if !ContainsLink("join discord.gg/abc123 now") {
		t.Fatalf("expected invite detection")
	}
	if ContainsLink("no links here") {
		t.Fatalf("unexpected link detection")
	}
	if ContainsLink("") || ContainsLink("   ") {
		t.Fatalf("blank input should not match")
	}
}

func TestExtractLinksOrder(t *testing.T) {
	links := ExtractLinks("first https://a.example/1 then HTTP://B.example/2 and discord.gg/xyz")
	if len(links) != 3 {
		t.Fatalf("expected 3 links, got %d", len(links))
	}
	if links[0] != "https://a.example/1" {
		t.Fatalf("unexpected first link: %s", links[0])
	}
	if links[2] != "discord.gg/xyz" {
		t.Fatalf("unexpected last link: %s", links[2])
	}
	if got := ExtractLinks(""); len(got) != 0 {
		t.Fatalf("expected no links for empty input")
	}
}

func TestExtractHostname(t *testing.T) {
	cases := map[string]string{
		"https://Example.com/path":      "example.com",
		"http://www.example.RU/promo":   "example.ru",
		"https://example.com:8080/x":    "example.com",
		"discord.gg/abc":                "discord.gg",
		"https://bit.ly/x":              "bit.ly",
		"":                              "",
		"https://":                      "",
	}
	for link, want := range cases {
		if got := ExtractHostname(link); got != want {
			t.Fatalf("ExtractHostname(%q) = %q, want %q", link, got, want)
		}
	}
}
