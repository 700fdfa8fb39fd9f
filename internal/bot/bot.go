package bot

import (
	"context"
	"fmt"
	"time"

	"github.com/TATUMGAMES/TG-MIKROS-MAFIA-BOT-sub002/internal/config"
	"github.com/TATUMGAMES/TG-MIKROS-MAFIA-BOT-sub002/internal/detection"
	"github.com/TATUMGAMES/TG-MIKROS-MAFIA-BOT-sub002/internal/modules/audit"
	"github.com/TATUMGAMES/TG-MIKROS-MAFIA-BOT-sub002/internal/reputation"
	"github.com/TATUMGAMES/TG-MIKROS-MAFIA-BOT-sub002/internal/storage"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

const (
	colorAction  = 0xF59E0B
	colorWarning = 0xEF4444
	colorError   = 0xF97316
)

// Bot wires the detection engine to the Discord gateway: it feeds message
// events in, acts on verdicts, and exposes the admin slash commands.
type Bot struct {
	cfg      config.Config
	logger   *zap.Logger
	store    *storage.Store
	engine   *detection.Engine
	registry *reputation.Registry
	reporter *reputation.Reporter
	audit    *audit.Logger
	session  *discordgo.Session
}

func New(cfg config.Config, logger *zap.Logger, store *storage.Store, engine *detection.Engine, registry *reputation.Registry, reporter *reputation.Reporter, auditLogger *audit.Logger) (*Bot, error) {
	session, err := discordgo.New("Bot " + cfg.DiscordToken)
	if err != nil {
		return nil, err
	}

	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildMembers |
		discordgo.IntentsMessageContent

	b := &Bot{
		cfg:      cfg,
		logger:   logger,
		store:    store,
		engine:   engine,
		registry: registry,
		reporter: reporter,
		audit:    auditLogger,
		session:  session,
	}

	if b.audit != nil {
		b.audit.SetNotifier(func(ctx context.Context, entry storage.ModerationLog) {
			b.notifyModeration(ctx, entry)
		})
	}
	return b, nil
}

func (b *Bot) Start() error {
	b.session.AddHandler(b.onReady)
	b.session.AddHandler(b.onMessageCreate)
	b.session.AddHandler(b.onInteractionCreate)

	if err := b.session.Open(); err != nil {
		return err
	}
	if err := b.registerCommands(); err != nil {
		return fmt.Errorf("register commands: %w", err)
	}
	return nil
}

func (b *Bot) Close(ctx context.Context) {
	_ = ctx
	if b.session != nil {
		_ = b.session.Close()
	}
}

func (b *Bot) onReady(session *discordgo.Session, event *discordgo.Ready) {
	b.logger.Info("discord ready", zap.String("user", session.State.User.Username))
}

func (b *Bot) onMessageCreate(session *discordgo.Session, msg *discordgo.MessageCreate) {
	if msg.Author == nil || msg.Author.Bot {
		return
	}
	if msg.GuildID == "" {
		return
	}

	ctx := context.Background()
	member := b.memberForUser(msg.GuildID, msg.Author.ID)
	if guild, err := session.State.Guild(msg.GuildID); err == nil && b.memberHasAdmin(guild, member) {
		return
	}

	cfg := b.engine.Configs().Get(msg.GuildID)
	result := b.engine.Evaluate(b.buildEvent(msg, member))
	if !result.Detected {
		return
	}

	// Only act on HIGH confidence unless an auto-action is configured.
	if result.Confidence != detection.ConfidenceHigh && cfg.AutoAction == detection.ActionNone {
		b.logger.Debug("detection below action threshold",
			zap.String("guild_id", msg.GuildID),
			zap.String("confidence", string(result.Confidence)))
		return
	}

	b.applyAction(msg, result, cfg)
	b.audit.Log(ctx, audit.LevelWarn, msg.GuildID, msg.Author.ID, "bot_detection",
		fmt.Sprintf("reason=%s confidence=%s action=%s details=%s",
			result.Reason, result.Confidence, result.RecommendedAction, result.Details))

	total := b.engine.RecordPrevention(msg.GuildID)
	if _, err := b.store.IncrementPrevention(ctx, msg.GuildID); err != nil {
		b.logger.Warn("prevention count persist failed", zap.Error(err))
	}

	if cfg.ReportToReputation && b.reporter != nil {
		b.reportBehavior(ctx, msg, result)
	}
	b.engine.RecordReport(msg.GuildID, msg.Author.ID)

	b.logger.Warn("bot behavior prevented",
		zap.String("guild_id", msg.GuildID),
		zap.String("user_id", msg.Author.ID),
		zap.String("reason", string(result.Reason)),
		zap.Int("guild_total", total))
}

func (b *Bot) buildEvent(msg *discordgo.MessageCreate, member *discordgo.Member) detection.Message {
	created, err := discordgo.SnowflakeTimestamp(msg.Author.ID)
	if err != nil {
		created = time.Time{}
	}
	var joined time.Time
	if member != nil {
		joined = member.JoinedAt
	}
	return detection.Message{
		AuthorID:          msg.Author.ID,
		AuthorIsAutomated: msg.Author.Bot,
		GuildID:           msg.GuildID,
		ChannelID:         msg.ChannelID,
		Content:           msg.Content,
		FromGuildContext:  msg.GuildID != "",
		AccountCreatedAt:  created,
		GuildJoinedAt:     joined,
	}
}

func (b *Bot) applyAction(msg *discordgo.MessageCreate, result detection.Result, cfg detection.Config) {
	switch result.RecommendedAction {
	case detection.ActionDelete:
		if err := b.session.ChannelMessageDelete(msg.ChannelID, msg.ID); err != nil {
			b.logger.Warn("message delete failed", zap.Error(err))
		}
		warning := fmt.Sprintf(
			"⚠️ **%s**, links are restricted for new accounts to prevent spam. Please wait %d minutes after joining before posting links.",
			msg.Author.Mention(), cfg.LinkRestrictionMinutes)
		if sent, err := b.session.ChannelMessageSend(msg.ChannelID, warning); err == nil {
			channelID := msg.ChannelID
			messageID := sent.ID
			time.AfterFunc(10*time.Second, func() {
				_ = b.session.ChannelMessageDelete(channelID, messageID)
			})
		}
	case detection.ActionWarn:
		warning := fmt.Sprintf(
			"⚠️ **%s**, your message was flagged as potential spam. Please review our server rules.",
			msg.Author.Mention())
		if _, err := b.session.ChannelMessageSend(msg.ChannelID, warning); err != nil {
			b.logger.Warn("warning send failed", zap.Error(err))
		}
	case detection.ActionMute:
		until := time.Now().Add(time.Hour)
		if err := b.session.GuildMemberTimeout(msg.GuildID, msg.Author.ID, &until); err != nil {
			b.logger.Warn("timeout failed", zap.Error(err))
		}
		_ = b.session.ChannelMessageDelete(msg.ChannelID, msg.ID)
	case detection.ActionKick:
		reason := "Bot detection: " + result.Details
		if err := b.session.GuildMemberDeleteWithReason(msg.GuildID, msg.Author.ID, reason); err != nil {
			b.logger.Warn("kick failed", zap.Error(err))
		}
		_ = b.session.ChannelMessageDelete(msg.ChannelID, msg.ID)
	}
}

func (b *Bot) reportBehavior(ctx context.Context, msg *discordgo.MessageCreate, result detection.Result) {
	reportCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	err := b.reporter.Report(reportCtx, reputation.BehaviorReport{
		TargetUserID:     msg.Author.ID,
		TargetUsername:   msg.Author.Username,
		ReporterID:       "BOT_DETECTION_SYSTEM",
		ReporterUsername: "Bot Detection System",
		Notes:            fmt.Sprintf("Auto-detected: %s - %s", result.Reason, result.Details),
		GuildID:          msg.GuildID,
		Timestamp:        time.Now(),
	})
	if err != nil {
		b.logger.Warn("reputation report failed",
			zap.String("guild_id", msg.GuildID),
			zap.String("user_id", msg.Author.ID),
			zap.Error(err))
	}
}

// guildSettings reads the persisted admin settings, falling back to the
// engine defaults for guilds that were never configured.
func (b *Bot) guildSettings(ctx context.Context, guildID string) storage.DetectionSettings {
	defaults := detection.DefaultConfig()
	settings, err := b.store.GetDetectionSettings(ctx, guildID, storage.DetectionSettings{
		AccountAgeThresholdDays:       defaults.AccountAgeThresholdDays,
		LinkRestrictionMinutes:        defaults.LinkRestrictionMinutes,
		MultiChannelSpamThreshold:     defaults.MultiChannelSpamThreshold,
		MultiChannelTimeWindowSeconds: defaults.MultiChannelTimeWindowSeconds,
		JoinAndLinkTimeWindowSeconds:  defaults.JoinAndLinkTimeWindowSeconds,
		AutoAction:                    string(defaults.AutoAction),
		ReportToReputation:            defaults.ReportToReputation,
	})
	if err != nil {
		b.logger.Warn("settings read failed", zap.String("guild_id", guildID), zap.Error(err))
		settings.GuildID = guildID
	}
	return settings
}

func (b *Bot) persistSettings(ctx context.Context, guildID string, cfg detection.Config, alertChannel string) {
	err := b.store.UpsertDetectionSettings(ctx, storage.DetectionSettings{
		GuildID:                       guildID,
		Enabled:                       cfg.Enabled,
		AccountAgeThresholdDays:       cfg.AccountAgeThresholdDays,
		LinkRestrictionMinutes:        cfg.LinkRestrictionMinutes,
		MultiChannelSpamThreshold:     cfg.MultiChannelSpamThreshold,
		MultiChannelTimeWindowSeconds: cfg.MultiChannelTimeWindowSeconds,
		JoinAndLinkTimeWindowSeconds:  cfg.JoinAndLinkTimeWindowSeconds,
		AutoAction:                    string(cfg.AutoAction),
		ReportToReputation:            cfg.ReportToReputation,
		AlertChannel:                  alertChannel,
	})
	if err != nil {
		b.logger.Warn("settings persist failed", zap.String("guild_id", guildID), zap.Error(err))
	}
}

func (b *Bot) notifyModeration(ctx context.Context, entry storage.ModerationLog) {
	settings := b.guildSettings(ctx, entry.GuildID)
	channelID := settings.AlertChannel
	if channelID == "" {
		channelID = b.cfg.DefaultAlertChannel
	}
	if channelID == "" {
		return
	}

	color := colorAction
	if entry.Level == audit.LevelWarn || entry.Level == audit.LevelCrit {
		color = colorWarning
	}
	embed := &discordgo.MessageEmbed{
		Title:       "Bot Detection",
		Description: entry.Details,
		Color:       color,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "User", Value: "<@" + entry.UserID + ">", Inline: true},
			{Name: "Event", Value: entry.Event, Inline: true},
		},
		Timestamp: entry.CreatedAt.Format(time.RFC3339),
	}
	_, _ = b.session.ChannelMessageSendEmbed(channelID, embed)
}

func (b *Bot) memberForUser(guildID, userID string) *discordgo.Member {
	member, err := b.session.State.Member(guildID, userID)
	if err == nil && member != nil {
		return member
	}
	member, _ = b.session.GuildMember(guildID, userID)
	return member
}

func (b *Bot) memberHasAdmin(guild *discordgo.Guild, member *discordgo.Member) bool {
	if guild == nil || member == nil {
		return false
	}
	perms := int64(0)
	for _, role := range guild.Roles {
		if role.ID == guild.ID {
			perms |= role.Permissions
			break
		}
	}
	roleMap := make(map[string]*discordgo.Role, len(guild.Roles))
	for _, role := range guild.Roles {
		roleMap[role.ID] = role
	}
	for _, roleID := range member.Roles {
		if role := roleMap[roleID]; role != nil {
			perms |= role.Permissions
		}
	}
	return perms&discordgo.PermissionAdministrator != 0
}

func (b *Bot) respondEmbed(session *discordgo.Session, interaction *discordgo.InteractionCreate, embed *discordgo.MessageEmbed, ephemeral bool) {
	flags := discordgo.MessageFlags(0)
	if ephemeral {
		flags = discordgo.MessageFlagsEphemeral
	}
	_ = session.InteractionRespond(interaction.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{embed},
			Flags:  flags,
		},
	})
}

func (b *Bot) commandEmbed(title, description string, color int, fields []*discordgo.MessageEmbedField) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       title,
		Description: description,
		Color:       color,
		Fields:      fields,
	}
}
