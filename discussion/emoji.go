package discussion

import (
	"regexp"
	"strings"

	"github.com/forPelevin/gomoji"
	"github.com/rivo/uniseg"
)

var customEmojiPattern = regexp.MustCompile(`^<a?:[A-Za-z0-9_]{2,32}:\d{15,21}>$`)

// ParseAwardEmoji accepts exactly one emoji: a single unicode emoji grapheme or one
// Discord custom emoji mention. Anything else, including several emoji, is rejected.
func ParseAwardEmoji(input string) (string, error) {
	emoji := strings.TrimSpace(input)
	if customEmojiPattern.MatchString(emoji) {
		return emoji, nil
	}
	if uniseg.GraphemeClusterCount(emoji) != 1 || len(gomoji.CollectAll(emoji)) != 1 {
		return "", ErrInvalidEmoji
	}
	return emoji, nil
}
