package services

import (
	"testing"

	"contas/internal/core"
)

func TestAnnotateUsesWholeDataset(t *testing.T) {
	all := []core.Installment{
		{ID: "c", Name: "Energia", DueDate: core.NewDate(2025, 3, 10)},
		{ID: "a", Name: "Energia", DueDate: core.NewDate(2025, 1, 10)},
		{ID: "b", Name: "Energia", DueDate: core.NewDate(2025, 2, 10)},
		{ID: "z", Name: "Internet", DueDate: core.NewDate(2025, 2, 5)},
	}
	subset := []core.Installment{all[2], all[3]}

	got := Annotate(subset, all)
	if got[0].Ordinal != 2 || got[0].GroupSize != 3 {
		t.Errorf("february energia = %d/%d, want 2/3", got[0].Ordinal, got[0].GroupSize)
	}
	if got[1].Ordinal != 1 || got[1].GroupSize != 1 {
		t.Errorf("lone internet = %d/%d, want 1/1", got[1].Ordinal, got[1].GroupSize)
	}
}

func TestAnnotateOrdinalsAreContiguous(t *testing.T) {
	var all []core.Installment
	start := core.NewDate(2025, 1, 15)
	for i, id := range []string{"e", "d", "c", "b", "a"} {
		all = append(all, core.Installment{ID: id, Name: "Cartão", DueDate: start.AddMonths(i)})
	}
	got := Annotate(all, all)

	seen := make(map[int]bool)
	for _, a := range got {
		if a.GroupSize != 5 {
			t.Fatalf("group size = %d, want 5", a.GroupSize)
		}
		seen[a.Ordinal] = true
	}
	for i := 1; i <= 5; i++ {
		if !seen[i] {
			t.Fatalf("ordinal %d missing: %+v", i, got)
		}
	}
	if got[0].ID != "e" || got[0].Ordinal != 1 {
		t.Fatalf("earliest due date should be first, got %+v", got[0])
	}
}

func TestAnnotateTiebreaksByID(t *testing.T) {
	due := core.NewDate(2025, 1, 10)
	all := []core.Installment{
		{ID: "b", Name: "Agua", DueDate: due},
		{ID: "a", Name: "Agua", DueDate: due},
	}
	got := Annotate(all, all)
	if got[0].ID != "b" || got[0].Ordinal != 2 {
		t.Fatalf("expected b to be 2nd, got %+v", got[0])
	}
	if got[1].ID != "a" || got[1].Ordinal != 1 {
		t.Fatalf("expected a to be 1st, got %+v", got[1])
	}
}

func TestAnnotateUnknownRow(t *testing.T) {
	got := Annotate([]core.Installment{{ID: "x", Name: "Nada"}}, nil)
	if got[0].Ordinal != 1 || got[0].GroupSize != 1 {
		t.Fatalf("expected 1/1, got %d/%d", got[0].Ordinal, got[0].GroupSize)
	}
}
