package bot

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/lorenzocolitta/brotherhood-kos/internal/dto"
	"github.com/lorenzocolitta/brotherhood-kos/internal/models"
	appErrors "github.com/lorenzocolitta/brotherhood-kos/pkg/errors"
)

const (
	colorRed    = 0xe74c3c
	colorGreen  = 0x2ecc71
	colorOrange = 0xe67e22
	colorGrey   = 0x95a5a6

	listPageSize = 10
)

func interactionActor(i *discordgo.InteractionCreate) models.Actor {
	user := i.User
	if i.Member != nil {
		user = i.Member.User
	}
	if user == nil {
		return models.Actor{}
	}
	return models.Actor{DiscordID: user.ID, DiscordName: user.Username}
}

func (b *Bot) deferEphemeral(s *discordgo.Session, i *discordgo.InteractionCreate) bool {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Flags: discordgo.MessageFlagsEphemeral},
	})
	if err != nil {
		b.logger.Error("failed to defer interaction", zap.Error(err))
		return false
	}
	return true
}

func (b *Bot) editText(s *discordgo.Session, i *discordgo.InteractionCreate, content string) {
	empty := []discordgo.MessageComponent{}
	_, err := s.InteractionResponseEdit(i.Interaction, &discordgo.WebhookEdit{
		Content:    &content,
		Components: &empty,
	})
	if err != nil {
		b.logger.Error("failed to edit interaction response", zap.Error(err))
	}
}

func (b *Bot) editEmbed(s *discordgo.Session, i *discordgo.InteractionCreate, embed *discordgo.MessageEmbed, components []discordgo.MessageComponent) {
	edit := &discordgo.WebhookEdit{
		Embeds:     &[]*discordgo.MessageEmbed{embed},
		Components: &components,
	}
	if components == nil {
		empty := []discordgo.MessageComponent{}
		edit.Components = &empty
	}
	if _, err := s.InteractionResponseEdit(i.Interaction, edit); err != nil {
		b.logger.Error("failed to edit interaction response", zap.Error(err))
	}
}

// moderationAllowed reports the kill-switch state, answering the interaction
// itself when commands are disabled.
func (b *Bot) moderationAllowed(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) bool {
	enabled, err := b.admin.BotEnabled(ctx)
	if err != nil {
		b.logger.Error("kill switch lookup failed", zap.Error(err))
		b.editText(s, i, "Something went wrong, try again later.")
		return false
	}
	if !enabled {
		b.editText(s, i, "Moderation commands are currently disabled by an admin.")
		return false
	}
	return true
}

func (b *Bot) handleAdd(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if !b.deferEphemeral(s, i) {
		return
	}
	ctx := context.Background()
	if !b.moderationAllowed(ctx, s, i) {
		return
	}

	opts := optionMap(i)
	target := opts["user"].StringValue()
	reason := opts["reason"].StringValue()
	durationStr := ""
	if opt, ok := opts["duration"]; ok {
		durationStr = opt.StringValue()
	}

	actor := interactionActor(i)
	action := pendingAction{
		Kind:     pendingAdd,
		User:     target,
		Reason:   reason,
		Duration: durationStr,
		ActorID:  actor.DiscordID,
	}
	token, err := b.pending.Put(action, func(string) {
		b.editText(s, i, "Confirmation timed out, nothing was changed.")
	})
	if err != nil {
		b.logger.Error("failed to store pending add", zap.Error(err))
		b.editText(s, i, "Something went wrong, try again later.")
		return
	}

	expiry := "Permanent"
	if durationStr != "" {
		expiry = durationStr
	}
	embed := &discordgo.MessageEmbed{
		Title: "Confirm KOS addition",
		Color: colorOrange,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "User", Value: target, Inline: true},
			{Name: "Duration", Value: expiry, Inline: true},
			{Name: "Reason", Value: reason},
		},
		Footer: &discordgo.MessageEmbedFooter{Text: "Expires in 60 seconds"},
	}
	b.editEmbed(s, i, embed, confirmButtons(token))
}

func (b *Bot) handleRemove(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if !b.deferEphemeral(s, i) {
		return
	}
	ctx := context.Background()
	if !b.moderationAllowed(ctx, s, i) {
		return
	}

	opts := optionMap(i)
	target := opts["user"].StringValue()
	reason := ""
	if opt, ok := opts["reason"]; ok {
		reason = opt.StringValue()
	}

	actor := interactionActor(i)
	action := pendingAction{
		Kind:    pendingRemove,
		User:    target,
		Reason:  reason,
		ActorID: actor.DiscordID,
	}
	token, err := b.pending.Put(action, func(string) {
		b.editText(s, i, "Confirmation timed out, nothing was changed.")
	})
	if err != nil {
		b.logger.Error("failed to store pending remove", zap.Error(err))
		b.editText(s, i, "Something went wrong, try again later.")
		return
	}

	embed := &discordgo.MessageEmbed{
		Title:       "Confirm KOS removal",
		Color:       colorOrange,
		Description: fmt.Sprintf("Remove **%s** from the KOS list?", target),
		Footer:      &discordgo.MessageEmbedFooter{Text: "Expires in 60 seconds"},
	}
	b.editEmbed(s, i, embed, confirmButtons(token))
}

func confirmButtons(token string) []discordgo.MessageComponent {
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.Button{Label: "Confirm", Style: discordgo.DangerButton, CustomID: "confirm:" + token},
				discordgo.Button{Label: "Cancel", Style: discordgo.SecondaryButton, CustomID: "cancel:" + token},
			},
		},
	}
}

func (b *Bot) handleConfirm(s *discordgo.Session, i *discordgo.InteractionCreate, token string) {
	actor := interactionActor(i)

	// check the invoker before consuming, so a stranger's click leaves the
	// confirmation pending for the moderator who started it
	peeked, ok := b.pending.Peek(token)
	if !ok {
		b.respondUpdateText(s, i, "This confirmation already expired.")
		return
	}
	if peeked.ActorID != actor.DiscordID {
		b.respondEphemeralText(s, i, "Only the moderator who started this action can confirm it.")
		return
	}

	action, ok := b.pending.Take(token)
	if !ok {
		b.respondUpdateText(s, i, "This confirmation already expired.")
		return
	}

	if err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredMessageUpdate,
	}); err != nil {
		b.logger.Error("failed to defer component update", zap.Error(err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	switch action.Kind {
	case pendingAdd:
		entry, err := b.kos.Add(ctx, dto.CreateEntryRequest{
			User:     action.User,
			Reason:   action.Reason,
			Duration: action.Duration,
		}, actor)
		if err != nil {
			b.editText(s, i, userFacingError(err))
			return
		}
		b.editEmbed(s, i, entryEmbed("Added to KOS list", colorRed, entry), nil)
	case pendingRemove:
		entry, err := b.kos.RemoveByUser(ctx, action.User, action.Reason, actor)
		if err != nil {
			b.editText(s, i, userFacingError(err))
			return
		}
		b.editEmbed(s, i, entryEmbed("Removed from KOS list", colorGreen, entry), nil)
	}
}

func (b *Bot) handleCancel(s *discordgo.Session, i *discordgo.InteractionCreate, token string) {
	peeked, ok := b.pending.Peek(token)
	if !ok {
		b.respondUpdateText(s, i, "This confirmation already expired.")
		return
	}
	if peeked.ActorID != interactionActor(i).DiscordID {
		b.respondEphemeralText(s, i, "Only the moderator who started this action can cancel it.")
		return
	}
	if _, ok := b.pending.Take(token); !ok {
		b.respondUpdateText(s, i, "This confirmation already expired.")
		return
	}
	b.respondUpdateText(s, i, "Cancelled, nothing was changed.")
}

// respondUpdateText replaces the component message with plain text.
func (b *Bot) respondUpdateText(s *discordgo.Session, i *discordgo.InteractionCreate, content string) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseUpdateMessage,
		Data: &discordgo.InteractionResponseData{
			Content:    content,
			Embeds:     []*discordgo.MessageEmbed{},
			Components: []discordgo.MessageComponent{},
		},
	})
	if err != nil {
		b.logger.Error("failed to update component message", zap.Error(err))
	}
}

// respondEphemeralText answers the clicker privately, leaving the original
// confirmation message untouched.
func (b *Bot) respondEphemeralText(s *discordgo.Session, i *discordgo.InteractionCreate, content string) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		b.logger.Error("failed to send ephemeral reply", zap.Error(err))
	}
}

func entryEmbed(title string, color int, entry *models.KosEntry) *discordgo.MessageEmbed {
	expiry := "Permanent"
	if !entry.IsPermanent && entry.ExpiresAt != nil {
		expiry = fmt.Sprintf("<t:%d:R>", entry.ExpiresAt.Unix())
	}
	embed := &discordgo.MessageEmbed{
		Title: title,
		Color: color,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "User", Value: fmt.Sprintf("%s (`%s`)", entry.RobloxUsername, entry.RobloxUserID), Inline: true},
			{Name: "Expires", Value: expiry, Inline: true},
			{Name: "Reason", Value: entry.Reason},
		},
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	if entry.ThumbnailURL != nil {
		embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: *entry.ThumbnailURL}
	}
	return embed
}

func (b *Bot) handleList(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if !b.deferEphemeral(s, i) {
		return
	}

	opts := optionMap(i)
	filter := models.EntryFilter{Filter: models.FilterActive, Page: 1, PageSize: listPageSize}
	if opt, ok := opts["filter"]; ok {
		filter.Filter = models.ListFilter(opt.StringValue())
	}
	if opt, ok := opts["page"]; ok {
		filter.Page = int(opt.IntValue())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	entries, pagination, err := b.kos.List(ctx, filter)
	if err != nil {
		b.editText(s, i, userFacingError(err))
		return
	}

	if len(entries) == 0 {
		b.editText(s, i, "No entries match that filter.")
		return
	}

	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		expiry := "permanent"
		if !e.IsPermanent && e.ExpiresAt != nil {
			expiry = fmt.Sprintf("expires <t:%d:R>", e.ExpiresAt.Unix())
		}
		if e.Status == models.StatusArchived {
			expiry = "archived"
		}
		lines = append(lines, fmt.Sprintf("**%s** (`%s`) - %s - %s", e.RobloxUsername, e.RobloxUserID, e.Reason, expiry))
	}

	totalPages := (pagination.TotalCount + listPageSize - 1) / listPageSize
	embed := &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("KOS list (%s)", filter.Filter),
		Color:       colorRed,
		Description: strings.Join(lines, "\n"),
		Footer: &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf("Page %d of %d, %d total", pagination.Page, totalPages, pagination.TotalCount),
		},
	}
	b.editEmbed(s, i, embed, nil)
}

func (b *Bot) handleStatus(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if !b.deferEphemeral(s, i) {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	stats, err := b.kos.Stats(ctx)
	if err != nil {
		b.editText(s, i, userFacingError(err))
		return
	}
	enabled, err := b.admin.BotEnabled(ctx)
	if err != nil {
		enabled = true
	}

	state := "🟢 Enabled"
	color := colorGreen
	if !enabled {
		state = "🔴 Disabled"
		color = colorGrey
	}

	embed := &discordgo.MessageEmbed{
		Title: "KOS system status",
		Color: color,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Moderation commands", Value: state, Inline: true},
			{Name: "Uptime", Value: b.kos.Uptime().Round(time.Second).String(), Inline: true},
			{Name: "Active", Value: fmt.Sprintf("%d", stats.Active), Inline: true},
			{Name: "Permanent", Value: fmt.Sprintf("%d", stats.Permanent), Inline: true},
			{Name: "Expiring (7d)", Value: fmt.Sprintf("%d", stats.Expiring), Inline: true},
			{Name: "Archived", Value: fmt.Sprintf("%d", stats.Archived), Inline: true},
		},
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	b.editEmbed(s, i, embed, nil)
}

func (b *Bot) handleManage(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if !b.deferEphemeral(s, i) {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	password := optionMap(i)["password"].StringValue()
	if err := b.admin.VerifyPassword(ctx, password); err != nil {
		b.editText(s, i, userFacingError(err))
		return
	}

	enabled, err := b.admin.BotEnabled(ctx)
	if err != nil {
		b.editText(s, i, userFacingError(err))
		return
	}

	state := "enabled"
	if !enabled {
		state = "disabled"
	}
	embed := &discordgo.MessageEmbed{
		Title:       "Admin panel",
		Color:       colorOrange,
		Description: fmt.Sprintf("Moderation commands are currently **%s**.", state),
	}
	components := []discordgo.MessageComponent{
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.Button{Label: "Enable", Style: discordgo.SuccessButton, CustomID: "killswitch:on", Disabled: enabled},
				discordgo.Button{Label: "Disable", Style: discordgo.DangerButton, CustomID: "killswitch:off", Disabled: !enabled},
			},
		},
	}
	b.editEmbed(s, i, embed, components)
}

func (b *Bot) handleKillSwitch(s *discordgo.Session, i *discordgo.InteractionCreate, enable bool) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	actor := interactionActor(i)
	if err := b.admin.SetBotEnabled(ctx, enable, actor); err != nil {
		b.respondUpdateText(s, i, userFacingError(err))
		return
	}

	state := "disabled"
	if enable {
		state = "enabled"
	}
	b.respondUpdateText(s, i, fmt.Sprintf("Moderation commands are now **%s**.", state))
}

func (b *Bot) handleConsole(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if !b.deferEphemeral(s, i) {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	actor := interactionActor(i)
	code, err := b.auth.GenerateCode(ctx, actor)
	if err != nil {
		b.editText(s, i, userFacingError(err))
		return
	}

	b.editText(s, i, fmt.Sprintf(
		"Your one-time console code: `%s`\nIt is valid for %d minutes and can be used once.",
		code.Code, int(time.Until(code.ExpiresAt).Round(time.Minute).Minutes())))
}

// userFacingError maps domain errors to messages safe to show in Discord.
func userFacingError(err error) string {
	appErr := appErrors.FromError(err)
	switch appErr.Code {
	case appErrors.ErrNotFound.Code,
		appErrors.ErrConflict.Code,
		appErrors.ErrValidation.Code,
		appErrors.ErrForbidden.Code:
		return appErr.Message
	case appErrors.ErrUpstream.Code:
		return "Roblox is not responding right now, try again in a moment."
	default:
		return "Something went wrong, try again later."
	}
}
