package tiling

import (
	"testing"
)

func TestCalculateGrid(t *testing.T) {
	tests := []struct {
		n, rows, cols int
	}{
		{0, 0, 0},
		{1, 1, 1},
		{2, 1, 2},
		{3, 2, 2},
		{4, 2, 2},
		{5, 2, 3},
		{7, 3, 3},
		{9, 3, 3},
		{10, 3, 4},
	}
	for _, tt := range tests {
		rows, cols := CalculateGrid(tt.n)
		if rows != tt.rows || cols != tt.cols {
			t.Fatalf("CalculateGrid(%d) = %dx%d, want %dx%d", tt.n, rows, cols, tt.rows, tt.cols)
		}
	}
}

func TestGrid_CoversScreenWithoutOverlap(t *testing.T) {
	screens := []Rect{
		{Width: 1200, Height: 800},
		{Width: 1366, Height: 768},
		{X: 10, Y: 20, Width: 1001, Height: 997},
	}

	for _, screen := range screens {
		for _, n := range []int{0, 1, 2, 3, 4, 5, 9} {
			rows, cols := CalculateGrid(n)
			cells := Grid(rows, cols, screen)
			if n == 0 {
				if len(cells) != 0 {
					t.Fatalf("expected no cells for n=0")
				}
				continue
			}
			if len(cells) < n {
				t.Fatalf("n=%d: only %d cells", n, len(cells))
			}

			area := 0
			for i, a := range cells {
				if a.Width <= 0 || a.Height <= 0 {
					t.Fatalf("n=%d: empty cell %d %+v", n, i, a)
				}
				if a.X < screen.X || a.Y < screen.Y ||
					a.X+a.Width > screen.X+screen.Width || a.Y+a.Height > screen.Y+screen.Height {
					t.Fatalf("n=%d: cell %d %+v outside %+v", n, i, a, screen)
				}
				area += a.Width * a.Height
				for j := i + 1; j < len(cells); j++ {
					if a.Overlaps(cells[j]) {
						t.Fatalf("n=%d: cells %d and %d overlap: %+v %+v", n, i, j, a, cells[j])
					}
				}
			}
			// Disjoint cells inside the screen with the screen's area cover it.
			if area != screen.Width*screen.Height {
				t.Fatalf("n=%d: cells cover %d of %d pixels", n, area, screen.Width*screen.Height)
			}
		}
	}
}

func TestCalculatePositions_ThreeWindows(t *testing.T) {
	positions := CalculatePositions(3, Rect{Width: 1200, Height: 800}, 0, false)
	want := []Rect{
		{X: 0, Y: 0, Width: 600, Height: 400},
		{X: 600, Y: 0, Width: 600, Height: 400},
		{X: 0, Y: 400, Width: 600, Height: 400},
	}
	if len(positions) != len(want) {
		t.Fatalf("expected %d positions, got %d", len(want), len(positions))
	}
	for i := range want {
		if positions[i] != want[i] {
			t.Fatalf("position %d = %+v, want %+v", i, positions[i], want[i])
		}
	}
}

func TestCalculatePositions_Gap(t *testing.T) {
	// width=210, gap=10, cols=2: inner = 10..210, cells 100 wide, windows 90 wide.
	positions := CalculatePositions(2, Rect{Width: 210, Height: 100}, 10, false)
	if positions[0] != (Rect{X: 10, Y: 10, Width: 90, Height: 80}) {
		t.Fatalf("unexpected pos0 %+v", positions[0])
	}
	if positions[1] != (Rect{X: 110, Y: 10, Width: 90, Height: 80}) {
		t.Fatalf("unexpected pos1 %+v", positions[1])
	}
	if positions[1].X+positions[1].Width != 200 {
		t.Fatalf("expected a %dpx right margin", 10)
	}
}

func TestCalculatePositions_FlexibleLastRow(t *testing.T) {
	positions := CalculatePositions(3, Rect{Width: 1200, Height: 800}, 0, true)
	if positions[2] != (Rect{X: 0, Y: 400, Width: 1200, Height: 400}) {
		t.Fatalf("expected last window to span the row, got %+v", positions[2])
	}
	if positions[0].Width != 600 {
		t.Fatalf("full rows are unaffected, got %+v", positions[0])
	}
}

func TestCalculatePositions_TinyMonitorClamps(t *testing.T) {
	positions := CalculatePositions(4, Rect{Width: 10, Height: 10}, 20, false)
	for i, p := range positions {
		if p.Width < 1 || p.Height < 1 {
			t.Fatalf("position %d not clamped: %+v", i, p)
		}
	}
}
