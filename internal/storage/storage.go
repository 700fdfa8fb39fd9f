package storage

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrations embed.FS

type Store struct {
	db *sql.DB
}

// DetectionSettings is the persisted per-guild admin configuration. The
// engine's runtime state (pattern index, cooldowns) is never persisted; only
// what moderators set through the admin surface survives a restart.
type DetectionSettings struct {
	GuildID                       string
	Enabled                       bool
	AccountAgeThresholdDays       int
	LinkRestrictionMinutes        int
	MultiChannelSpamThreshold     int
	MultiChannelTimeWindowSeconds int
	JoinAndLinkTimeWindowSeconds  int
	AutoAction                    string
	ReportToReputation            bool
	AlertChannel                  string
}

type ModerationLog struct {
	ID        int64
	GuildID   string
	UserID    string
	Level     string
	Event     string
	Details   string
	CreatedAt time.Time
}

type DomainRisk struct {
	Domain    string
	RiskScore int
}

func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() {
	if s.db != nil {
		_ = s.db.Close()
	}
}

func (s *Store) Migrate() error {
	entries, err := migrations.ReadDir("migrations")
	if err != nil {
		return err
	}

	var files []string
	for _, entry := range entries {
		files = append(files, entry.Name())
	}
	sort.Strings(files)

	for _, file := range files {
		content, err := migrations.ReadFile(path.Join("migrations", file))
		if err != nil {
			return err
		}
		if _, err := s.db.Exec(string(content)); err != nil {
			if isIgnorableMigrationError(err) {
				continue
			}
			return fmt.Errorf("migration %s failed: %w", file, err)
		}
	}
	return nil
}

func (s *Store) GetDetectionSettings(ctx context.Context, guildID string, defaults DetectionSettings) (DetectionSettings, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT enabled, account_age_threshold_days, link_restriction_minutes,
		multi_channel_spam_threshold, multi_channel_time_window_seconds,
		join_and_link_time_window_seconds, auto_action, report_to_reputation,
		alert_channel
		FROM detection_settings WHERE guild_id = ?`, guildID)

	result := defaults
	result.GuildID = guildID

	var enabled, report int
	err := row.Scan(
		&enabled,
		&result.AccountAgeThresholdDays,
		&result.LinkRestrictionMinutes,
		&result.MultiChannelSpamThreshold,
		&result.MultiChannelTimeWindowSeconds,
		&result.JoinAndLinkTimeWindowSeconds,
		&result.AutoAction,
		&report,
		&result.AlertChannel,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return result, nil
		}
		return DetectionSettings{}, err
	}
	result.Enabled = enabled == 1
	result.ReportToReputation = report == 1
	return result, nil
}

func (s *Store) UpsertDetectionSettings(ctx context.Context, settings DetectionSettings) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO detection_settings (
			guild_id, enabled, account_age_threshold_days, link_restriction_minutes,
			multi_channel_spam_threshold, multi_channel_time_window_seconds,
			join_and_link_time_window_seconds, auto_action, report_to_reputation,
			alert_channel
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(guild_id) DO UPDATE SET
			enabled = excluded.enabled,
			account_age_threshold_days = excluded.account_age_threshold_days,
			link_restriction_minutes = excluded.link_restriction_minutes,
			multi_channel_spam_threshold = excluded.multi_channel_spam_threshold,
			multi_channel_time_window_seconds = excluded.multi_channel_time_window_seconds,
			join_and_link_time_window_seconds = excluded.join_and_link_time_window_seconds,
			auto_action = excluded.auto_action,
			report_to_reputation = excluded.report_to_reputation,
			alert_channel = excluded.alert_channel
	`,
		settings.GuildID,
		boolToInt(settings.Enabled),
		settings.AccountAgeThresholdDays,
		settings.LinkRestrictionMinutes,
		settings.MultiChannelSpamThreshold,
		settings.MultiChannelTimeWindowSeconds,
		settings.JoinAndLinkTimeWindowSeconds,
		settings.AutoAction,
		boolToInt(settings.ReportToReputation),
		settings.AlertChannel,
	)
	return err
}

func (s *Store) ListDetectionSettings(ctx context.Context) ([]DetectionSettings, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT guild_id, enabled, account_age_threshold_days, link_restriction_minutes,
		multi_channel_spam_threshold, multi_channel_time_window_seconds,
		join_and_link_time_window_seconds, auto_action, report_to_reputation,
		alert_channel
		FROM detection_settings`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var all []DetectionSettings
	for rows.Next() {
		var settings DetectionSettings
		var enabled, report int
		if err := rows.Scan(
			&settings.GuildID,
			&enabled,
			&settings.AccountAgeThresholdDays,
			&settings.LinkRestrictionMinutes,
			&settings.MultiChannelSpamThreshold,
			&settings.MultiChannelTimeWindowSeconds,
			&settings.JoinAndLinkTimeWindowSeconds,
			&settings.AutoAction,
			&report,
			&settings.AlertChannel,
		); err != nil {
			return nil, err
		}
		settings.Enabled = enabled == 1
		settings.ReportToReputation = report == 1
		all = append(all, settings)
	}
	return all, rows.Err()
}

func (s *Store) AddModerationLog(ctx context.Context, log ModerationLog) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO moderation_logs (guild_id, user_id, level, event, details, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, log.GuildID, log.UserID, log.Level, log.Event, log.Details, log.CreatedAt.Unix())
	return err
}

func (s *Store) ListModerationLogs(ctx context.Context, guildID string, since time.Time) ([]ModerationLog, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, guild_id, user_id, level, event, details, created_at
		FROM moderation_logs
		WHERE guild_id = ? AND created_at >= ?
		ORDER BY created_at DESC
	`, guildID, since.Unix())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []ModerationLog
	for rows.Next() {
		var log ModerationLog
		var created int64
		if err := rows.Scan(&log.ID, &log.GuildID, &log.UserID, &log.Level, &log.Event, &log.Details, &created); err != nil {
			return nil, err
		}
		log.CreatedAt = time.Unix(created, 0)
		logs = append(logs, log)
	}
	return logs, rows.Err()
}

func (s *Store) CleanupModerationLogs(ctx context.Context, retentionDays int) error {
	cutoff := time.Now().AddDate(0, 0, -retentionDays)
	_, err := s.db.ExecContext(ctx, `DELETE FROM moderation_logs WHERE created_at < ?`, cutoff.Unix())
	return err
}

func (s *Store) UpsertSuspiciousDomain(ctx context.Context, domain string, riskScore int) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO suspicious_domains (domain, risk_score) VALUES (?, ?)
		ON CONFLICT(domain) DO UPDATE SET risk_score = excluded.risk_score
	`, strings.ToLower(domain), riskScore)
	return err
}

func (s *Store) RemoveSuspiciousDomain(ctx context.Context, domain string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM suspicious_domains WHERE domain = ?`, strings.ToLower(domain))
	return err
}

func (s *Store) ListSuspiciousDomains(ctx context.Context) ([]DomainRisk, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT domain, risk_score FROM suspicious_domains ORDER BY domain`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var domains []DomainRisk
	for rows.Next() {
		var entry DomainRisk
		if err := rows.Scan(&entry.Domain, &entry.RiskScore); err != nil {
			return nil, err
		}
		domains = append(domains, entry)
	}
	return domains, rows.Err()
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

func isIgnorableMigrationError(err error) bool {
	if err == nil {
		return false
	}
	message := err.Error()
	return strings.Contains(message, "duplicate column name") || strings.Contains(message, "already exists")
}
