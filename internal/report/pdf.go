// Package report renders bill reports as PDF documents.
package report

import (
	"bytes"
	"fmt"
	"time"

	"github.com/go-pdf/fpdf"

	"contas/internal/core"
)

// Filename is the attachment name used when serving a report.
const Filename = "Relatorio-Completo.pdf"

var columns = []struct {
	title string
	width float64
	align string
}{
	{"Vencimento", 45, "C"},
	{"Valor", 50, "R"},
	{"Parcela", 35, "C"},
	{"Situação", 50, "C"},
}

// Render lays the report out as one table per bill name followed by the
// grand total. Paid rows are shaded green.
func Render(r core.Report, generatedAt time.Time) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetTitle(r.Title, true)
	pdf.SetCreator("contas", true)
	pdf.AliasNbPages("")
	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.CellFormat(0, 10, tr(fmt.Sprintf("Gerado em %s - página %d/{nb}",
			generatedAt.Format("02/01/2006 15:04"), pdf.PageNo())), "", 0, "C", false, 0, "")
	})
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 12, tr(r.Title), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	if len(r.Groups) == 0 {
		pdf.SetFont("Helvetica", "", 11)
		pdf.CellFormat(0, 8, tr("Nenhuma conta encontrada."), "", 1, "L", false, 0, "")
	}

	for _, g := range r.Groups {
		writeGroup(pdf, tr, g)
	}

	pdf.Ln(2)
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 10, tr("Total geral: "+core.FormatBRL(r.GrandTotal)), "", 1, "R", false, 0, "")

	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("write pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func writeGroup(pdf *fpdf.Fpdf, tr func(string) string, g core.ReportGroup) {
	pdf.SetFont("Helvetica", "B", 13)
	pdf.CellFormat(0, 9, tr(g.Name), "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(220, 220, 220)
	for _, c := range columns {
		pdf.CellFormat(c.width, 7, tr(c.title), "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 10)
	for _, item := range g.Items {
		status := "Não paga"
		if item.Paid {
			status = "Paga"
			pdf.SetFillColor(198, 239, 206)
		} else {
			pdf.SetFillColor(255, 255, 255)
		}
		cells := []string{
			item.DueDate.Format("02/01/2006"),
			core.FormatBRL(item.InstallmentAmount),
			fmt.Sprintf("%d/%d", item.Ordinal, item.GroupSize),
			status,
		}
		for i, c := range columns {
			pdf.CellFormat(c.width, 7, tr(cells[i]), "1", 0, c.align, true, 0, "")
		}
		pdf.Ln(-1)
	}
	pdf.Ln(4)
}
