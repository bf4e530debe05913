package report

import (
	"bytes"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"contas/internal/core"
)

func TestRenderProducesPDF(t *testing.T) {
	r := core.Report{
		Title: "Relatório de Contas Mensais",
		Groups: []core.ReportGroup{{
			Name: "Água",
			Items: []core.Annotated{
				{
					Installment: core.Installment{ID: "a", Name: "Água", DueDate: core.NewDate(2025, 1, 5), InstallmentAmount: decimal.RequireFromString("40.10"), Paid: true},
					Ordinal:     1,
					GroupSize:   2,
				},
				{
					Installment: core.Installment{ID: "b", Name: "Água", DueDate: core.NewDate(2025, 2, 5), InstallmentAmount: decimal.RequireFromString("40.10")},
					Ordinal:     2,
					GroupSize:   2,
				},
			},
		}},
		GrandTotal: decimal.RequireFromString("80.20"),
	}

	out, err := Render(r, time.Date(2025, 2, 1, 10, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !bytes.HasPrefix(out, []byte("%PDF-")) {
		t.Fatalf("output is not a PDF: %q", out[:8])
	}
	if len(out) < 500 {
		t.Fatalf("suspiciously small PDF: %d bytes", len(out))
	}
}

func TestRenderEmptyReport(t *testing.T) {
	out, err := Render(core.Report{Title: "Relatório de Contas Mensais", GrandTotal: decimal.Zero}, time.Now())
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !bytes.HasPrefix(out, []byte("%PDF-")) {
		t.Fatal("output is not a PDF")
	}
}
