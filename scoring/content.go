package scoring

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"discussion-bot/models"
)

var (
	lineBreakRun = regexp.MustCompile(`[\r\n]+`)
	linkPattern  = regexp.MustCompile(`http+`)
)

// normalizeContent collapses every run of CR/LF into a single newline and trims the edges.
func normalizeContent(text string) string {
	return strings.TrimSpace(lineBreakRun.ReplaceAllString(text, "\n"))
}

// ScoreContent checks a message's text against the length, paragraph and link thresholds.
// Scoring is all-or-nothing: the message earns specs.Points only when every check passes.
// Award fields of the result are left zero.
func ScoreContent(text string, specs models.ContentSpecs) models.MessageScoreData {
	normalized := normalizeContent(text)

	length := utf8.RuneCountInString(strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, normalized))
	paragraphs := strings.Count(normalized, "\n") + 1
	links := len(linkPattern.FindAllStringIndex(normalized, -1))

	data := models.MessageScoreData{
		PassedLength:    length >= specs.MinLength,
		PassedParagraph: paragraphs >= specs.MinParagraphs,
		PassedLinks:     links >= specs.MinLinks,
	}
	if data.Complete() {
		data.Score = specs.Points
	}
	return data
}
