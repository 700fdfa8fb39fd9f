package reputation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2/clientcredentials"
)

// Reputation score weight reported for auto-detected spam accounts.
const spamReportWeight = -5

// BehaviorReport is one reputation submission for a user in a guild.
type BehaviorReport struct {
	TargetUserID     string
	TargetUsername   string
	ReporterID       string
	ReporterUsername string
	Notes            string
	GuildID          string
	Timestamp        time.Time
}

// ReporterOptions configures the external reputation API client. When
// ClientID/ClientSecret/TokenURL are set the client authenticates with OAuth2
// client credentials, otherwise requests go out unauthenticated.
type ReporterOptions struct {
	BaseURL      string
	TokenURL     string
	ClientID     string
	ClientSecret string
	APIKeyType   string
}

// Reporter submits behavior reports to the ecosystem reputation API.
type Reporter struct {
	client     *http.Client
	baseURL    string
	apiKeyType string
	logger     *zap.Logger
}

// NewReporter returns nil when no base URL is configured; callers treat a nil
// reporter as reporting disabled.
func NewReporter(opts ReporterOptions, logger *zap.Logger) *Reporter {
	if opts.BaseURL == "" {
		return nil
	}

	client := &http.Client{Timeout: 10 * time.Second}
	if opts.ClientID != "" && opts.ClientSecret != "" && opts.TokenURL != "" {
		cc := clientcredentials.Config{
			ClientID:     opts.ClientID,
			ClientSecret: opts.ClientSecret,
			TokenURL:     opts.TokenURL,
		}
		client = cc.Client(context.Background())
		client.Timeout = 10 * time.Second
	}

	apiKeyType := opts.APIKeyType
	if apiKeyType == "" {
		apiKeyType = "dev"
	}

	return &Reporter{
		client:     client,
		baseURL:    opts.BaseURL,
		apiKeyType: apiKeyType,
		logger:     logger,
	}
}

type trackRatingRequest struct {
	Timestamp    string              `json:"timestamp"`
	Sender       ratingParty         `json:"sender"`
	Participants []ratingParticipant `json:"participants"`
	Platform     string              `json:"platform"`
	APIKeyType   string              `json:"apiKeyType"`
}

type ratingParty struct {
	DiscordUserID   string `json:"discordUserId"`
	DiscordUsername string `json:"discordUsername"`
}

type ratingParticipant struct {
	DiscordUserID   string `json:"discordUserId"`
	DiscordUsername string `json:"discordUsername"`
	Value           int    `json:"value"`
}

// Report posts a spam behavior report. Failures are returned for logging but
// never interrupt detection.
func (r *Reporter) Report(ctx context.Context, report BehaviorReport) error {
	payload := trackRatingRequest{
		Timestamp: report.Timestamp.UTC().Format("2006-01-02 15:04:05"),
		Sender: ratingParty{
			DiscordUserID:   report.ReporterID,
			DiscordUsername: report.ReporterUsername,
		},
		Participants: []ratingParticipant{{
			DiscordUserID:   report.TargetUserID,
			DiscordUsername: report.TargetUsername,
			Value:           spamReportWeight,
		}},
		Platform:   "discord",
		APIKeyType: r.apiKeyType,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode rating request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/mikros/discord/trackPlayerRating", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build rating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("send rating request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("rating request rejected: status %d", resp.StatusCode)
	}

	r.logger.Info("behavior report submitted",
		zap.String("guild_id", report.GuildID),
		zap.String("user_id", report.TargetUserID))
	return nil
}
