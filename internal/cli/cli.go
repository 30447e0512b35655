// Package cli computes a split from a template file on the command line.
package cli

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/mmynk/tipsplit/internal/calculator"
	"github.com/mmynk/tipsplit/internal/export"
	"github.com/mmynk/tipsplit/internal/models"
)

// Output formats.
const (
	FormatTable = "table"
	FormatCSV   = "csv"
	FormatPDF   = "pdf"
)

// Config holds the parsed command-line flags.
type Config struct {
	TemplatePath string
	Pool         float64
	Format       string
	OutPath      string
	Currency     string
}

// ParseConfig parses args into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	fs.StringVar(&cfg.TemplatePath, "template", "", "path to a JSON tip template (required)")
	fs.Float64Var(&cfg.Pool, "pool", 0, "tip pool amount to split")
	fs.StringVar(&cfg.Format, "format", FormatTable, "output format: table, csv or pdf")
	fs.StringVar(&cfg.OutPath, "out", "", "write output to this file instead of stdout")
	fs.StringVar(&cfg.Currency, "currency", "USD", "currency label for exported amounts")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	if cfg.TemplatePath == "" {
		return Config{}, errors.New("-template is required")
	}
	switch cfg.Format {
	case FormatTable, FormatCSV, FormatPDF:
	default:
		return Config{}, fmt.Errorf("unknown -format %q", cfg.Format)
	}
	if cfg.Format == FormatPDF && cfg.OutPath == "" {
		return Config{}, errors.New("-format pdf requires -out")
	}
	return cfg, nil
}

// LoadTemplate reads a JSON template from path.
func LoadTemplate(path string) (models.TipTemplate, error) {
	f, err := os.Open(path)
	if err != nil {
		return models.TipTemplate{}, fmt.Errorf("open template: %w", err)
	}
	defer f.Close()

	var tmpl models.TipTemplate
	if err := json.NewDecoder(f).Decode(&tmpl); err != nil {
		return models.TipTemplate{}, fmt.Errorf("decode template %s: %w", path, err)
	}
	return tmpl, nil
}

// Run computes the split and writes it to stdout or cfg.OutPath.
// Warnings go to stderr so they never mix into CSV output.
func Run(cfg Config, stdout, stderr io.Writer) error {
	tmpl, err := LoadTemplate(cfg.TemplatePath)
	if err != nil {
		return err
	}

	result := calculator.ComputeSplits(tmpl, cfg.Pool)
	for _, w := range result.Warnings {
		fmt.Fprintf(stderr, "warning: %s\n", w)
	}

	out := stdout
	if cfg.OutPath != "" {
		f, err := os.Create(cfg.OutPath)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer f.Close()
		out = f
	}

	opts := export.Options{Title: tmpl.Name, Currency: cfg.Currency, Pool: cfg.Pool}
	switch cfg.Format {
	case FormatCSV:
		return export.WriteCSV(out, result, opts)
	case FormatPDF:
		return export.WritePDF(out, result, opts)
	default:
		return writeTable(out, result)
	}
}

func writeTable(w io.Writer, r models.SplitResult) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "NAME\tROLE\tAMOUNT\t")
	for _, p := range r.Participants {
		amount := "-"
		if p.CalculatedAmount != nil {
			amount = fmt.Sprintf("%.2f", *p.CalculatedAmount)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t\n", p.Name, p.Role, amount)
	}
	fmt.Fprintf(tw, "TOTAL\t\t%.2f\t\n", float64(r.TotalCents())/100)
	return tw.Flush()
}
