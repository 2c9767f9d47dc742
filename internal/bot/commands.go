package bot

import (
	"github.com/bwmarrin/discordgo"
)

var manageCommandPermission = int64(discordgo.PermissionManageServer)

func commandDefinitions() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{
			Name:        "kos-add",
			Description: "Flag a Roblox account as kill on sight",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "user",
					Description: "Roblox username or numeric user id",
					Required:    true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "reason",
					Description: "Why this account is being flagged",
					Required:    true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "duration",
					Description: "How long to keep the flag (7d, 2w, 6mo, 1y); omit for permanent",
					Required:    false,
				},
			},
		},
		{
			Name:        "kos-remove",
			Description: "Remove a Roblox account from the KOS list",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "user",
					Description: "Roblox username or numeric user id",
					Required:    true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "reason",
					Description: "Why the flag is being lifted",
					Required:    false,
				},
			},
		},
		{
			Name:        "kos-list",
			Description: "Show the KOS list",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "filter",
					Description: "Which entries to show",
					Required:    false,
					Choices: []*discordgo.ApplicationCommandOptionChoice{
						{Name: "Active", Value: "active"},
						{Name: "Expiring soon", Value: "expiring"},
						{Name: "Permanent", Value: "permanent"},
						{Name: "Archived", Value: "archived"},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "page",
					Description: "Page number",
					Required:    false,
				},
			},
		},
		{
			Name:        "kos-status",
			Description: "Show bot and list status",
		},
		{
			Name:                     "kos-manage",
			Description:              "Admin panel: enable or disable moderation commands",
			DefaultMemberPermissions: &manageCommandPermission,
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "password",
					Description: "Admin password",
					Required:    true,
				},
			},
		},
		{
			Name:        "kos-console",
			Description: "Get a one-time code for the web console",
		},
	}
}

func (b *Bot) commandHandlers() map[string]func(s *discordgo.Session, i *discordgo.InteractionCreate) {
	return map[string]func(s *discordgo.Session, i *discordgo.InteractionCreate){
		"kos-add":     b.handleAdd,
		"kos-remove":  b.handleRemove,
		"kos-list":    b.handleList,
		"kos-status":  b.handleStatus,
		"kos-manage":  b.handleManage,
		"kos-console": b.handleConsole,
	}
}

// optionMap flattens interaction options for lookup by name.
func optionMap(i *discordgo.InteractionCreate) map[string]*discordgo.ApplicationCommandInteractionDataOption {
	options := i.ApplicationCommandData().Options
	out := make(map[string]*discordgo.ApplicationCommandInteractionDataOption, len(options))
	for _, opt := range options {
		out[opt.Name] = opt
	}
	return out
}
