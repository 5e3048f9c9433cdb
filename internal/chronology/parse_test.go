package chronology

import (
	"testing"

	"wallet-chronicle/internal/domain"
)

const samplePart = `### 2024-03-05
Swapped 5.00K USDC for 2.40 ETH on Uniswap and moved it to Aave.
**Day summary:** Rotated $5.00K of stables into ETH and parked it on Aave.
**Importance: 4**

### 2024-03-06
Small gas top-ups across chains.
**Day summary:** Routine gas maintenance, about $40 total.
**Importance: 1**

### 2024-03-07
Bridged funds to Arbitrum.
**Day summary:** Bridged $12.00K to Arbitrum via Stargate.`

func TestParseResponse_StripsHeader(t *testing.T) {
	raw := "## Chronology\n### 2024-03-05\ntext\n"
	got := ParseResponse(raw)
	want := "### 2024-03-05\ntext"
	if got != want {
		t.Errorf("ParseResponse() = %q, want %q", got, want)
	}

	// Case-insensitive
	if ParseResponse("## CHRONOLOGY\nbody") != "body" {
		t.Error("ParseResponse() should strip header case-insensitively")
	}

	// No header: returned trimmed as-is
	if ParseResponse("  plain text  ") != "plain text" {
		t.Error("ParseResponse() should trim plain responses")
	}
}

func TestExtractDaySummaries(t *testing.T) {
	summaries := ExtractDaySummaries(samplePart)

	if len(summaries) != 3 {
		t.Fatalf("got %d summaries, want 3", len(summaries))
	}

	want := []domain.DaySummary{
		{Date: "2024-03-05", Text: "Rotated $5.00K of stables into ETH and parked it on Aave.", Importance: 4},
		{Date: "2024-03-06", Text: "Routine gas maintenance, about $40 total.", Importance: 1},
		{Date: "2024-03-07", Text: "Bridged $12.00K to Arbitrum via Stargate.", Importance: domain.DefaultImportance},
	}
	for i := range want {
		if summaries[i] != want[i] {
			t.Errorf("summary %d = %+v, want %+v", i, summaries[i], want[i])
		}
	}
}

func TestExtractDaySummaries_MalformedImportance(t *testing.T) {
	part := "### 2024-03-05\n**Day summary:** Something.\n**Importance: 9**"

	summaries := ExtractDaySummaries(part)
	if len(summaries) != 1 {
		t.Fatalf("got %d summaries, want 1", len(summaries))
	}
	if summaries[0].Importance != domain.DefaultImportance {
		t.Errorf("out-of-range importance should default, got %d", summaries[0].Importance)
	}
}

func TestExtractDaySummaries_NoHeaders(t *testing.T) {
	if got := ExtractDaySummaries("free text with no structure at all"); len(got) != 0 {
		t.Errorf("expected no summaries, got %d", len(got))
	}
}

func TestExtractDateHeaders(t *testing.T) {
	dates := ExtractDateHeaders(samplePart)

	for _, d := range []string{"2024-03-05", "2024-03-06", "2024-03-07"} {
		if !dates[d] {
			t.Errorf("missing date %s", d)
		}
	}
	if len(dates) != 3 {
		t.Errorf("got %d dates, want 3", len(dates))
	}
}

func TestExtractDateHeaders_RangeHeader(t *testing.T) {
	part := "### 2024-03-05 — 2024-03-07\nmerged section"

	dates := ExtractDateHeaders(part)
	if !dates["2024-03-05"] || !dates["2024-03-07"] {
		t.Errorf("range header should contribute both endpoints, got %v", dates)
	}
}

func TestSplitSummaryLine(t *testing.T) {
	date, text := SplitSummaryLine("2024-03-05: Rotated stables into ETH.")
	if date != "2024-03-05" || text != "Rotated stables into ETH." {
		t.Errorf("SplitSummaryLine() = %q, %q", date, text)
	}

	date, text = SplitSummaryLine("no date here")
	if date != "" || text != "no date here" {
		t.Errorf("SplitSummaryLine() fallback = %q, %q", date, text)
	}
}

func TestStore_ReplaceAt(t *testing.T) {
	store := NewStore([]domain.ChronologyPart{"part a", "part b"})

	store.ReplaceAt(0, "merged a")
	store.Append("part c")

	parts := store.Parts()
	if len(parts) != 3 || parts[0] != "merged a" || parts[1] != "part b" || parts[2] != "part c" {
		t.Errorf("unexpected parts: %v", parts)
	}

	// Parts() returns a copy
	parts[1] = "mutated"
	if store.At(1) != "part b" {
		t.Error("Parts() should not expose internal slice")
	}
}

func TestRenderReport(t *testing.T) {
	got := RenderReport("0xabc", []domain.ChronologyPart{"first", "second"})
	want := "# Wallet chronology 0xabc\n\nfirst\n\nsecond"
	if got != want {
		t.Errorf("RenderReport() = %q, want %q", got, want)
	}
}
