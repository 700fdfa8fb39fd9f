package bot

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/TATUMGAMES/TG-MIKROS-MAFIA-BOT-sub002/internal/detection"
	"github.com/TATUMGAMES/TG-MIKROS-MAFIA-BOT-sub002/internal/modules/audit"
	"github.com/TATUMGAMES/TG-MIKROS-MAFIA-BOT-sub002/internal/reputation"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

func (b *Bot) onInteractionCreate(session *discordgo.Session, interaction *discordgo.InteractionCreate) {
	if interaction.Type != discordgo.InteractionApplicationCommand {
		return
	}

	ctx := context.Background()
	data := interaction.ApplicationCommandData()

	if interaction.GuildID == "" {
		b.respondEmbed(session, interaction, b.commandEmbed("Bot Detection", "This command only works inside a server.", colorError, nil), true)
		return
	}

	switch data.Name {
	case "botdetection":
		b.handleDetectionCommand(ctx, session, interaction, data.Options)
	case "domain":
		b.handleDomainCommand(ctx, session, interaction, data.Options)
	case "botstats":
		b.handleStatsCommand(ctx, session, interaction)
	}
}

func (b *Bot) handleDetectionCommand(ctx context.Context, session *discordgo.Session, interaction *discordgo.InteractionCreate, options []*discordgo.ApplicationCommandInteractionDataOption) {
	if len(options) == 0 {
		b.respondEmbed(session, interaction, b.commandEmbed("Bot Detection", "Missing subcommand.", colorError, nil), true)
		return
	}

	guildID := interaction.GuildID
	sub := options[0]
	cfg := b.engine.Configs().Get(guildID)
	settings := b.guildSettings(ctx, guildID)

	switch sub.Name {
	case "status":
		fields := []*discordgo.MessageEmbedField{
			{Name: "Enabled", Value: fmt.Sprintf("%t", cfg.Enabled), Inline: true},
			{Name: "Account age threshold", Value: fmt.Sprintf("%d days", cfg.AccountAgeThresholdDays), Inline: true},
			{Name: "Multi-channel threshold", Value: fmt.Sprintf("%d channels / %d s", cfg.MultiChannelSpamThreshold, cfg.MultiChannelTimeWindowSeconds), Inline: true},
			{Name: "Join+link window", Value: fmt.Sprintf("%d s", cfg.JoinAndLinkTimeWindowSeconds), Inline: true},
			{Name: "Auto action", Value: string(cfg.AutoAction), Inline: true},
			{Name: "Report to reputation", Value: fmt.Sprintf("%t", cfg.ReportToReputation), Inline: true},
			{Name: "Preventions", Value: fmt.Sprintf("%d", b.engine.PreventionCount(guildID)), Inline: true},
		}
		b.respondEmbed(session, interaction, b.commandEmbed("Bot Detection Status", "Current configuration for this server.", colorAction, fields), true)

	case "enable", "disable":
		cfg.Enabled = sub.Name == "enable"
		b.engine.Configs().Set(guildID, cfg)
		b.persistSettings(ctx, guildID, cfg, settings.AlertChannel)
		b.audit.Log(ctx, audit.LevelInfo, guildID, "", "detection_config", "detection "+sub.Name+"d")
		b.respondEmbed(session, interaction, b.commandEmbed("Bot Detection", "Detection "+sub.Name+"d.", colorAction, nil), true)

	case "set":
		opts := optionMap(sub.Options)
		if opt, ok := opts["account-age-days"]; ok {
			cfg.AccountAgeThresholdDays = int(opt.IntValue())
		}
		if opt, ok := opts["channels"]; ok {
			cfg.MultiChannelSpamThreshold = int(opt.IntValue())
		}
		if opt, ok := opts["window-seconds"]; ok {
			cfg.MultiChannelTimeWindowSeconds = int(opt.IntValue())
		}
		if opt, ok := opts["join-window-seconds"]; ok {
			cfg.JoinAndLinkTimeWindowSeconds = int(opt.IntValue())
		}
		if opt, ok := opts["action"]; ok {
			cfg.AutoAction = detection.ParseAutoAction(opt.StringValue())
		}
		if opt, ok := opts["report"]; ok {
			cfg.ReportToReputation = opt.BoolValue()
		}
		cfg = cfg.Normalize()
		b.engine.Configs().Set(guildID, cfg)
		b.persistSettings(ctx, guildID, cfg, settings.AlertChannel)
		b.audit.Log(ctx, audit.LevelInfo, guildID, "", "detection_config", "thresholds updated")
		b.respondEmbed(session, interaction, b.commandEmbed("Bot Detection", "Configuration updated.", colorAction, nil), true)

	case "alerts":
		opts := optionMap(sub.Options)
		opt, ok := opts["channel"]
		if !ok {
			b.respondEmbed(session, interaction, b.commandEmbed("Bot Detection", "Missing channel option.", colorError, nil), true)
			return
		}
		channel := opt.ChannelValue(session)
		if channel == nil {
			b.respondEmbed(session, interaction, b.commandEmbed("Bot Detection", "Could not resolve channel.", colorError, nil), true)
			return
		}
		b.persistSettings(ctx, guildID, cfg, channel.ID)
		fields := []*discordgo.MessageEmbedField{{Name: "Channel", Value: "<#" + channel.ID + ">", Inline: true}}
		b.respondEmbed(session, interaction, b.commandEmbed("Bot Detection", "Alert channel updated.", colorAction, fields), true)

	default:
		b.respondEmbed(session, interaction, b.commandEmbed("Bot Detection", "Unknown subcommand.", colorError, nil), true)
	}
}

func (b *Bot) handleDomainCommand(ctx context.Context, session *discordgo.Session, interaction *discordgo.InteractionCreate, options []*discordgo.ApplicationCommandInteractionDataOption) {
	if len(options) == 0 {
		b.respondEmbed(session, interaction, b.commandEmbed("Domain Registry", "Missing subcommand.", colorError, nil), true)
		return
	}

	guildID := interaction.GuildID
	sub := options[0]
	opts := optionMap(sub.Options)

	switch sub.Name {
	case "add":
		domainOpt, ok := opts["domain"]
		if !ok {
			b.respondEmbed(session, interaction, b.commandEmbed("Domain Registry", "Missing domain option.", colorError, nil), true)
			return
		}
		domain := strings.ToLower(strings.TrimSpace(domainOpt.StringValue()))
		risk := 3
		if riskOpt, ok := opts["risk"]; ok {
			risk = int(riskOpt.IntValue())
		}
		b.registry.AddSuspiciousDomain(domain, risk)
		if err := b.store.UpsertSuspiciousDomain(ctx, domain, risk); err != nil {
			b.logger.Warn("domain persist failed", zap.Error(err))
		}
		b.audit.Log(ctx, audit.LevelInfo, guildID, "", "domain_registry", fmt.Sprintf("added %s (risk: %d)", domain, risk))
		b.respondEmbed(session, interaction, b.commandEmbed("Domain Registry", fmt.Sprintf("Added `%s` with risk %d.", domain, risk), colorAction, nil), true)

	case "remove":
		domainOpt, ok := opts["domain"]
		if !ok {
			b.respondEmbed(session, interaction, b.commandEmbed("Domain Registry", "Missing domain option.", colorError, nil), true)
			return
		}
		domain := strings.ToLower(strings.TrimSpace(domainOpt.StringValue()))
		b.registry.RemoveSuspiciousDomain(domain)
		if err := b.store.RemoveSuspiciousDomain(ctx, domain); err != nil {
			b.logger.Warn("domain remove persist failed", zap.Error(err))
		}
		b.audit.Log(ctx, audit.LevelInfo, guildID, "", "domain_registry", "removed "+domain)
		b.respondEmbed(session, interaction, b.commandEmbed("Domain Registry", fmt.Sprintf("Removed `%s`.", domain), colorAction, nil), true)

	case "list":
		domains := b.registry.Domains()
		if len(domains) == 0 {
			b.respondEmbed(session, interaction, b.commandEmbed("Domain Registry", "No tracked domains.", colorAction, nil), true)
			return
		}
		names := make([]string, 0, len(domains))
		for domain := range domains {
			names = append(names, domain)
		}
		sort.Strings(names)
		var builder strings.Builder
		for _, domain := range names {
			fmt.Fprintf(&builder, "`%s` (risk %d)\n", domain, domains[domain])
		}
		b.respondEmbed(session, interaction, b.commandEmbed("Domain Registry", builder.String(), colorAction, nil), true)

	case "inspect":
		domainOpt, ok := opts["domain"]
		if !ok {
			b.respondEmbed(session, interaction, b.commandEmbed("Domain Registry", "Missing domain option.", colorError, nil), true)
			return
		}
		domain := strings.ToLower(strings.TrimSpace(domainOpt.StringValue()))
		// Whois lookups are slow; defer the response and follow up.
		_ = session.InteractionRespond(interaction.Interaction, &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
			Data: &discordgo.InteractionResponseData{Flags: discordgo.MessageFlagsEphemeral},
		})
		go b.inspectDomain(session, interaction, domain)

	default:
		b.respondEmbed(session, interaction, b.commandEmbed("Domain Registry", "Unknown subcommand.", colorError, nil), true)
	}
}

func (b *Bot) inspectDomain(session *discordgo.Session, interaction *discordgo.InteractionCreate, domain string) {
	embed := b.commandEmbed("Domain Inspection", "Lookup failed for `"+domain+"`.", colorError, nil)
	if info, err := reputation.LookupDomain(domain); err == nil {
		fields := []*discordgo.MessageEmbedField{
			{Name: "Suspicious TLD", Value: fmt.Sprintf("%t", b.registry.IsSuspiciousTLD(domain)), Inline: true},
			{Name: "URL shortener", Value: fmt.Sprintf("%t", b.registry.IsURLShortener(domain)), Inline: true},
			{Name: "Risk score", Value: fmt.Sprintf("%d", b.registry.RiskScore(domain)), Inline: true},
		}
		if info.Registrar != "" {
			fields = append(fields, &discordgo.MessageEmbedField{Name: "Registrar", Value: info.Registrar, Inline: true})
		}
		if !info.CreatedAt.IsZero() {
			fields = append(fields, &discordgo.MessageEmbedField{Name: "Registered", Value: fmt.Sprintf("%d days ago", info.AgeDays), Inline: true})
		}
		embed = b.commandEmbed("Domain Inspection", "`"+domain+"`", colorAction, fields)
	}
	_, _ = session.FollowupMessageCreate(interaction.Interaction, true, &discordgo.WebhookParams{
		Embeds: []*discordgo.MessageEmbed{embed},
		Flags:  discordgo.MessageFlagsEphemeral,
	})
}

func (b *Bot) handleStatsCommand(ctx context.Context, session *discordgo.Session, interaction *discordgo.InteractionCreate) {
	guildID := interaction.GuildID
	persisted, err := b.store.GetPreventionCount(ctx, guildID)
	if err != nil {
		b.logger.Warn("prevention count read failed", zap.Error(err))
	}
	fields := []*discordgo.MessageEmbedField{
		{Name: "Since startup", Value: fmt.Sprintf("%d", b.engine.PreventionCount(guildID)), Inline: true},
		{Name: "All time", Value: fmt.Sprintf("%d", persisted), Inline: true},
	}
	b.respondEmbed(session, interaction, b.commandEmbed("Bot Prevention Stats", "Messages acted on by bot detection.", colorAction, fields), true)
}

func optionMap(options []*discordgo.ApplicationCommandInteractionDataOption) map[string]*discordgo.ApplicationCommandInteractionDataOption {
	result := make(map[string]*discordgo.ApplicationCommandInteractionDataOption, len(options))
	for _, option := range options {
		result[option.Name] = option
	}
	return result
}
