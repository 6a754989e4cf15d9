package utils

import (
	"slices"

	"discussion-bot/models"

	"github.com/bwmarrin/discordgo"
)

// IsStaff checks if an interacting member holds the course's staff role
// or may manage the guild.
func IsStaff(member *discordgo.Member, course *models.Course) bool {
	if member == nil {
		return false
	}
	if member.Permissions&discordgo.PermissionManageGuild != 0 || member.Permissions&discordgo.PermissionAdministrator != 0 {
		return true
	}
	return course.Roles.Staff != "" && slices.Contains(member.Roles, course.Roles.Staff)
}
