package services

import (
	"sort"

	"contas/internal/core"
)

type position struct {
	ordinal int
	size    int
}

// Annotate computes, for each row of subset, its 1-based position and the
// size of its name group. Groups are built from all, so the subset only
// selects what is returned. Rows missing from all are reported as 1 of 1.
func Annotate(subset, all []core.Installment) []core.Annotated {
	positions := groupPositions(all)

	out := make([]core.Annotated, len(subset))
	for i, in := range subset {
		pos, ok := positions[in.ID]
		if !ok {
			pos = position{ordinal: 1, size: 1}
		}
		out[i] = core.Annotated{Installment: in, Ordinal: pos.ordinal, GroupSize: pos.size}
	}
	return out
}

func groupPositions(all []core.Installment) map[string]position {
	groups := make(map[string][]core.Installment)
	for _, in := range all {
		groups[in.Name] = append(groups[in.Name], in)
	}

	positions := make(map[string]position, len(all))
	for _, group := range groups {
		sortByDue(group)
		for i, in := range group {
			positions[in.ID] = position{ordinal: i + 1, size: len(group)}
		}
	}
	return positions
}

// sortByDue orders by due date, then id.
func sortByDue(rows []core.Installment) {
	sort.SliceStable(rows, func(i, j int) bool {
		if c := rows[i].DueDate.Compare(rows[j].DueDate); c != 0 {
			return c < 0
		}
		return rows[i].ID < rows[j].ID
	})
}

// sortByNameThenDue orders by folded name, then due date, then id.
func sortByNameThenDue(rows []core.Installment) {
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Name != rows[j].Name {
			fi, fj := core.FoldName(rows[i].Name), core.FoldName(rows[j].Name)
			if fi != fj {
				return fi < fj
			}
			return rows[i].Name < rows[j].Name
		}
		if c := rows[i].DueDate.Compare(rows[j].DueDate); c != 0 {
			return c < 0
		}
		return rows[i].ID < rows[j].ID
	})
}
