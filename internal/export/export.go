// Package export renders computed splits as CSV or PDF.
//
// Renderers only read a SplitResult; they never recompute amounts.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"

	"github.com/mmynk/tipsplit/internal/models"
)

// Options controls the rendered output.
type Options struct {
	// Title heads the PDF. Defaults to "Tip split".
	Title string

	// Currency is printed next to amounts (e.g. "USD").
	Currency string

	// Pool is the amount that was split; zero omits it.
	Pool float64
}

func (o Options) title() string {
	if o.Title == "" {
		return "Tip split"
	}
	return o.Title
}

// WriteCSV writes one "name,role,amount" row per participant.
// Participants without a calculated amount get an empty amount column.
func WriteCSV(w io.Writer, r models.SplitResult, opts Options) error {
	cw := csv.NewWriter(w)
	header := []string{"name", "role", "amount"}
	if opts.Currency != "" {
		header[2] = fmt.Sprintf("amount (%s)", opts.Currency)
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, p := range r.Participants {
		if err := cw.Write([]string{p.Name, p.Role, amountText(p.CalculatedAmount)}); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

// amountText formats an amount with exactly two decimals via whole cents.
func amountText(amount *float64) string {
	if amount == nil {
		return ""
	}
	return formatCents(int64(math.Round(*amount * 100)))
}

func formatCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}
