package reputation

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestNewReporterDisabledWithoutBaseURL(t *testing.T) {
	if r := NewReporter(ReporterOptions{}, zap.NewNop()); r != nil {
		t.Fatalf("expected nil reporter without base URL, got %v", r)
	}
}

func TestReportPayload(t *testing.T) {
	var got trackRatingRequest
	var path string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	reporter := NewReporter(ReporterOptions{BaseURL: server.URL, APIKeyType: "prod"}, zap.NewNop())
	err := reporter.Report(context.Background(), BehaviorReport{
		TargetUserID:     "u1",
		TargetUsername:   "spammer",
		ReporterID:       "BOT_DETECTION_SYSTEM",
		ReporterUsername: "Bot Detection System",
		GuildID:          "g1",
		Timestamp:        time.Date(2024, 6, 1, 12, 30, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("report: %v", err)
	}

	if path != "/mikros/discord/trackPlayerRating" {
		t.Fatalf("unexpected path %q", path)
	}
	if got.Timestamp != "2024-06-01 12:30:00" {
		t.Fatalf("unexpected timestamp %q", got.Timestamp)
	}
	if got.Platform != "discord" || got.APIKeyType != "prod" {
		t.Fatalf("unexpected envelope: %+v", got)
	}
	if got.Sender.DiscordUserID != "BOT_DETECTION_SYSTEM" {
		t.Fatalf("unexpected sender: %+v", got.Sender)
	}
	if len(got.Participants) != 1 || got.Participants[0].DiscordUserID != "u1" || got.Participants[0].Value != spamReportWeight {
		t.Fatalf("unexpected participants: %+v", got.Participants)
	}
}

func TestReportRejectedStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	reporter := NewReporter(ReporterOptions{BaseURL: server.URL}, zap.NewNop())
	if err := reporter.Report(context.Background(), BehaviorReport{TargetUserID: "u1"}); err == nil {
		t.Fatal("expected error for non-2xx status")
	}
}
