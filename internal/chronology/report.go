package chronology

import (
	"strings"

	"wallet-chronicle/internal/domain"
)

// RenderReport assembles the final markdown artifact: a title followed by
// all chronology parts separated by blank lines. This format is the
// contract for downstream readers.
func RenderReport(wallet string, parts []domain.ChronologyPart) string {
	var b strings.Builder
	b.WriteString("# Wallet chronology ")
	b.WriteString(wallet)
	b.WriteString("\n\n")
	b.WriteString(strings.Join(parts, "\n\n"))
	return b.String()
}
