package api

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"contas/internal/core"
)

func TestBillJSONUsesWireNames(t *testing.T) {
	bill := BillFrom(core.Annotated{
		Installment: core.Installment{
			ID:                "abc",
			Name:              "Energia",
			Year:              2025,
			Month:             2,
			DueDate:           core.NewDate(2025, 2, 15),
			InstallmentAmount: decimal.RequireFromString("100.50"),
			InstallmentCount:  1,
		},
		Ordinal:   2,
		GroupSize: 3,
	})

	raw, err := json.Marshal(bill)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	body := string(raw)
	for _, want := range []string{
		`"nome":"Energia"`,
		`"dataVencimento":"2025-02-15"`,
		`"valorParcela":100.5`,
		`"valorTotal":100.5`,
		`"indiceParcela":2`,
		`"totalParcelas":3`,
		`"paga":false`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("expected %s in %s", want, body)
		}
	}
}

func TestBillInputAcceptsNumberAndString(t *testing.T) {
	for _, body := range []string{
		`{"nome":"Agua","ano":2025,"mes":1,"dataVencimento":"2025-01-10","valorParcela":45.9,"quantidadeParcelas":2}`,
		`{"nome":"Agua","ano":2025,"mes":1,"dataVencimento":"2025-01-10","valorParcela":"45.90","quantidadeParcelas":2}`,
	} {
		var in BillInput
		if err := json.Unmarshal([]byte(body), &in); err != nil {
			t.Fatalf("unmarshal %s: %v", body, err)
		}
		req := in.Request()
		if !req.InstallmentAmount.Equal(decimal.RequireFromString("45.9")) {
			t.Errorf("amount = %s", req.InstallmentAmount)
		}
		if req.DueDate.String() != "2025-01-10" || req.InstallmentCount != 2 {
			t.Errorf("unexpected request %+v", req)
		}
	}
}

func TestBillRoundTripToDomain(t *testing.T) {
	in := core.Annotated{
		Installment: core.Installment{ID: "x", Name: "Internet", DueDate: core.NewDate(2025, 3, 1), InstallmentAmount: decimal.NewFromInt(80), InstallmentCount: 1},
		Ordinal:     1,
		GroupSize:   2,
	}
	raw, _ := json.Marshal(BillFrom(in))
	var back Bill
	if err := json.Unmarshal(raw, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	got := back.Annotated()
	if got.ID != "x" || got.GroupSize != 2 || !got.InstallmentAmount.Equal(decimal.NewFromInt(80)) {
		t.Fatalf("unexpected %+v", got)
	}
}
