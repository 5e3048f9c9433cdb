// Package chronology parses LLM narrative responses and maintains the
// ordered store of chronology parts. Parsing is a narrow boundary: the
// model's free text is scanned with explicit default-on-absence behavior
// and failures never propagate as errors.
package chronology

import (
	"regexp"
	"strconv"
	"strings"

	"wallet-chronicle/internal/domain"
)

var (
	chronologyHeaderRe = regexp.MustCompile(`(?i)^##\s*Chronology\s*\n`)
	dayHeaderRe        = regexp.MustCompile(`^###\s+(\d{4}-\d{2}-\d{2})`)
	headerLineRe       = regexp.MustCompile(`^###\s+`)
	anyDateRe          = regexp.MustCompile(`\d{4}-\d{2}-\d{2}`)
	summaryRe          = regexp.MustCompile(`^\*\*Day summary:\*\*\s*(.+)$`)
	importanceRe       = regexp.MustCompile(`^\*\*Importance:\s*(\d+)\*\*`)
	summaryLineRe      = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2}):\s*(.+)$`)
)

// ParseResponse extracts the chronology text from a raw LLM response,
// stripping an optional leading "## Chronology" header.
func ParseResponse(text string) string {
	text = strings.TrimSpace(text)
	text = chronologyHeaderRe.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}

// ExtractDaySummaries scans a chronology part for day sections and
// returns their one-line summaries in document order. A day section
// without a summary marker contributes nothing; a summary without a
// parsable importance marker gets domain.DefaultImportance.
func ExtractDaySummaries(part string) []domain.DaySummary {
	var summaries []domain.DaySummary
	currentDate := ""
	lastIdx := -1

	for _, line := range strings.Split(part, "\n") {
		if m := dayHeaderRe.FindStringSubmatch(line); m != nil {
			currentDate = m[1]
			lastIdx = -1
			continue
		}
		if m := summaryRe.FindStringSubmatch(line); m != nil && currentDate != "" {
			summaries = append(summaries, domain.DaySummary{
				Date:       currentDate,
				Text:       m[1],
				Importance: domain.DefaultImportance,
			})
			lastIdx = len(summaries) - 1
			currentDate = ""
			continue
		}
		if m := importanceRe.FindStringSubmatch(line); m != nil && lastIdx >= 0 {
			if n, err := strconv.Atoi(m[1]); err == nil && n >= 1 && n <= 5 {
				summaries[lastIdx].Importance = n
			}
			lastIdx = -1
		}
	}
	return summaries
}

// ExtractDateHeaders returns the set of dates named in a part's section
// headers. Merged sections headed by a date range contribute both
// endpoints.
func ExtractDateHeaders(part string) map[string]bool {
	dates := make(map[string]bool)
	for _, line := range strings.Split(part, "\n") {
		if !headerLineRe.MatchString(line) {
			continue
		}
		for _, d := range anyDateRe.FindAllString(line, -1) {
			dates[d] = true
		}
	}
	return dates
}

// SplitSummaryLine parses a "YYYY-MM-DD: text" compression-input line.
// Lines without a leading date return an empty date and the whole text.
func SplitSummaryLine(line string) (date, text string) {
	if m := summaryLineRe.FindStringSubmatch(line); m != nil {
		return m[1], m[2]
	}
	return "", line
}
