package tui

import "sort"

type surfaceBudget struct {
	cols int
	rows int
}

// allocateBudgets runs the two-pass vertical allocator: pass one resolves
// each active surface's desired width/height against the total terminal
// size; pass two walks surfaces in activation order (oldest-active first)
// handing out rows from a shared pool until it is exhausted, after which
// every remaining surface receives a zero row budget. Width is resolved
// independently per surface; there is no horizontal budget contention.
// Hidden surfaces are excluded entirely and receive no entry.
func allocateBudgets(surfaces []*surfaceState, totalCols, totalRows int) map[surfaceID]surfaceBudget {
	active := make([]*surfaceState, 0, len(surfaces))
	for _, s := range surfaces {
		if !s.hidden {
			active = append(active, s)
		}
	}
	sort.SliceStable(active, func(i, j int) bool {
		return active[i].orderSeq < active[j].orderSeq
	})

	budgets := make(map[surfaceID]surfaceBudget, len(active))
	remainingRows := totalRows

	for _, s := range active {
		cols := totalCols
		if s.options.Layout.Width != nil {
			cols = s.options.Layout.Width.resolve(totalCols)
		}
		if cols > totalCols {
			cols = totalCols
		}
		if cols < 0 {
			cols = 0
		}

		desiredRows := totalRows
		if s.options.Layout.MaxHeight != nil {
			desiredRows = s.options.Layout.MaxHeight.resolve(totalRows)
		}

		allocated := desiredRows
		if allocated > remainingRows {
			allocated = remainingRows
		}
		if allocated < 0 {
			allocated = 0
		}
		remainingRows -= allocated

		budgets[s.id] = surfaceBudget{cols: cols, rows: allocated}
	}

	return budgets
}
