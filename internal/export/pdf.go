package export

import (
	"fmt"
	"io"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/mmynk/tipsplit/internal/models"
)

// pdfEpoch pins the document creation date.
var pdfEpoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// WritePDF renders a one-page summary: a name/role/amount table, the
// total, and any warnings.
func WritePDF(w io.Writer, r models.SplitResult, opts Options) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetCreationDate(pdfEpoch)
	pdf.SetTitle(opts.title(), true)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(40, 10, tr(opts.title()))
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 11)
	if opts.Pool > 0 {
		pool := opts.Pool
		pdf.Cell(0, 8, tr(fmt.Sprintf("Pool: %s %s", amountText(&pool), opts.Currency)))
		pdf.Ln(10)
	}

	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(80, 8, "Name", "1", 0, "L", false, 0, "")
	pdf.CellFormat(50, 8, "Role", "1", 0, "L", false, 0, "")
	pdf.CellFormat(40, 8, "Amount", "1", 1, "R", false, 0, "")

	pdf.SetFont("Helvetica", "", 11)
	for _, p := range r.Participants {
		pdf.CellFormat(80, 8, tr(p.Name), "1", 0, "L", false, 0, "")
		pdf.CellFormat(50, 8, tr(p.Role), "1", 0, "L", false, 0, "")
		pdf.CellFormat(40, 8, amountText(p.CalculatedAmount), "1", 1, "R", false, 0, "")
	}

	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(130, 8, "Total", "1", 0, "L", false, 0, "")
	pdf.CellFormat(40, 8, formatCents(r.TotalCents()), "1", 1, "R", false, 0, "")

	if len(r.Warnings) > 0 {
		pdf.Ln(6)
		pdf.SetFont("Helvetica", "B", 11)
		pdf.Cell(0, 8, "Warnings")
		pdf.Ln(8)
		pdf.SetFont("Helvetica", "", 10)
		for _, warning := range r.Warnings {
			pdf.MultiCell(0, 6, tr("- "+warning), "", "L", false)
		}
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("render pdf: %w", err)
	}
	return nil
}
