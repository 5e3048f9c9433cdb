package normalization

import (
	"fmt"
	"strings"
	"time"

	"wallet-chronicle/internal/domain"
)

// FormatAmount abbreviates large amounts with K/M suffixes and keeps
// small ones readable: two decimals at 1 and above, six below.
func FormatAmount(amount float64) string {
	switch {
	case amount >= 1_000_000:
		return fmt.Sprintf("%.2fM", amount/1_000_000)
	case amount >= 1_000:
		return fmt.Sprintf("%.2fK", amount/1_000)
	case amount >= 1:
		return fmt.Sprintf("%.2f", amount)
	default:
		return fmt.Sprintf("%.6f", amount)
	}
}

// FormatUSD renders a USD value with a dollar prefix.
func FormatUSD(usd float64) string {
	return "$" + FormatAmount(usd)
}

// FormatTimestamp renders a unix timestamp as "YYYY-MM-DD HH:MM" in UTC.
func FormatTimestamp(ts int64) string {
	return time.Unix(ts, 0).UTC().Format("2006-01-02 15:04")
}

// TimestampDate renders a unix timestamp as a UTC calendar day.
func TimestampDate(ts int64) string {
	return time.Unix(ts, 0).UTC().Format("2006-01-02")
}

// Format renders one transaction as a single line for the model.
// Unknown variants fall back to a generic line.
func Format(tx domain.Transaction) string {
	ts := FormatTimestamp(tx.Timestamp)
	chain := orUnknown(tx.Chain)

	switch {
	case tx.Swap != nil:
		s := tx.Swap
		return fmt.Sprintf("[%s] SWAP %s: %s %s (%s) → %s %s on %s",
			ts, chain,
			FormatAmount(s.Token0Amount), orUnknown(s.Token0Symbol), FormatUSD(s.Token0AmountUSD),
			FormatAmount(s.Token1Amount), orUnknown(s.Token1Symbol),
			orDefault(s.DEX, "DEX"))

	case tx.Lending != nil:
		l := tx.Lending
		hf := ""
		if l.HealthFactor > 0 && l.HealthFactor < 100 {
			hf = fmt.Sprintf(" [HF=%g]", l.HealthFactor)
		}
		return fmt.Sprintf("[%s] LENDING %s: %s %s %s (%s) on %s%s",
			ts, chain, orUnknown(l.Action),
			FormatAmount(l.Amount), orUnknown(l.Symbol), FormatUSD(l.AmountUSD),
			orUnknown(l.Platform), hf)

	case tx.Transfer != nil:
		tr := tx.Transfer
		return fmt.Sprintf("[%s] TRANSFER %s: %s %s (%s) from %s to %s",
			ts, chain,
			FormatAmount(tr.Amount), orUnknown(tr.Symbol), FormatUSD(tr.AmountUSD),
			addressLabel(tr.From, tr.FromLabel), addressLabel(tr.To, tr.ToLabel))

	case tx.LP != nil:
		lp := tx.LP
		rangeStr := ""
		if lp.LowerBound != nil && lp.UpperBound != nil {
			rangeStr = fmt.Sprintf(" range [%.0f-%.0f]", *lp.LowerBound, *lp.UpperBound)
		}
		total := FormatUSD(lp.Token0AmountUSD + lp.Token1AmountUSD)
		return fmt.Sprintf("[%s] LP %s: %s %s %s + %s %s (%s) on %s%s",
			ts, chain, orUnknown(lp.Kind),
			FormatAmount(lp.Token0Amount), orUnknown(lp.Token0Symbol),
			FormatAmount(lp.Token1Amount), orUnknown(lp.Token1Symbol),
			total, orDefault(lp.DEX, "DEX"), rangeStr)

	case tx.Bridge != nil:
		b := tx.Bridge
		return fmt.Sprintf("[%s] BRIDGE %s: %s %s (%s) %s → %s via %s",
			ts, chain,
			FormatAmount(b.Amount), orUnknown(b.TokenSymbol), FormatUSD(b.AmountUSD),
			orUnknown(b.FromChain), orUnknown(b.ToChain), orUnknown(b.Platform))

	case tx.Wrap != nil:
		w := tx.Wrap
		return fmt.Sprintf("[%s] WRAP %s: %s %s %s (%s)",
			ts, chain, orUnknown(w.Action),
			FormatAmount(w.Amount), orUnknown(w.Symbol), FormatUSD(w.AmountUSD))

	case tx.NFTTransfer != nil:
		n := tx.NFTTransfer
		return fmt.Sprintf("[%s] NFT %s: %s #%s from %s to %s",
			ts, chain, orUnknown(n.Name), orUnknown(n.TokenID),
			orUnknown(n.FromLabel), orUnknown(n.ToLabel))
	}

	kind := strings.ToUpper(string(tx.Type))
	if kind == "" {
		kind = "?"
	}
	return fmt.Sprintf("[%s] %s %s", ts, kind, chain)
}

// addressLabel prefers an explicit label; bare addresses longer than ten
// characters are shortened to 0x1234...abcd form.
func addressLabel(address, label string) string {
	if label != "" {
		return label
	}
	if len(address) > 10 {
		return address[:6] + "..." + address[len(address)-4:]
	}
	return address
}

func orUnknown(s string) string {
	return orDefault(s, "?")
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
