package stubapi

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/samber/lo"
)

const maxTitleLength = 100

var backupTitles = []string{
	"The Global Impact of Climate Change: A Call to Action",
	"Sustainable Solutions: Fighting Climate Change Together",
	"Green Technology: Our Answer to Climate Crisis",
}

var titlePrefixes = []string{"1.", "2.", "3.", "-", "#", "*", "Title:", "Headline:"}

// GenerateTitles builds exactly three unique titles from the first sentence of content.
// Candidates outside 3..12 words are dropped and replaced with backup titles.
func GenerateTitles(content string) []string {
	first := strings.TrimSpace(strings.SplitN(content, ".", 2)[0])
	topics := lo.Filter(strings.Fields(first), func(word string, _ int) bool {
		return utf8.RuneCountInString(word) > 3
	})

	candidates := []string{first}
	if len(topics) > 0 {
		candidates = append(candidates, fmt.Sprintf("%s: What You Need to Know", strings.Join(lo.Slice(topics, 0, 3), ", ")))
	}
	candidates = append(candidates, fmt.Sprintf("Headline: Inside %s", first))

	titles := lo.Filter(lo.Map(candidates, func(c string, _ int) string {
		return CleanTitle(c)
	}), func(title string, _ int) bool {
		words := len(strings.Fields(title))
		return title != "" && words >= 3 && words <= 12
	})
	titles = lo.Uniq(titles)

	for _, backup := range backupTitles {
		if len(titles) >= 3 {
			break
		}
		if !lo.Contains(titles, backup) {
			titles = append(titles, backup)
		}
	}

	return lo.Map(lo.Slice(titles, 0, 3), func(title string, _ int) string {
		return truncateRunes(title, maxTitleLength)
	})
}

// CleanTitle strips list markers, label prefixes and wrapping quotes.
func CleanTitle(title string) string {
	for _, prefix := range titlePrefixes {
		if len(title) >= len(prefix) && strings.EqualFold(title[:len(prefix)], prefix) {
			title = title[len(prefix):]
		}
	}

	title = strings.TrimSpace(title)
	if len(title) >= 2 && strings.HasPrefix(title, `"`) && strings.HasSuffix(title, `"`) {
		title = title[1 : len(title)-1]
	}
	return strings.TrimSpace(title)
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
