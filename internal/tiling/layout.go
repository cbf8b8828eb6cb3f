package tiling

import (
	"math"
)

// Rect represents a window position and size
type Rect struct {
	X      int
	Y      int
	Width  int
	Height int
}

// Contains reports whether the point lies inside r.
func (r Rect) Contains(x, y int) bool {
	return x >= r.X && y >= r.Y && x < r.X+r.Width && y < r.Y+r.Height
}

// Overlaps reports whether r and o share any pixel.
func (r Rect) Overlaps(o Rect) bool {
	return r.X < o.X+o.Width && o.X < r.X+r.Width &&
		r.Y < o.Y+o.Height && o.Y < r.Y+r.Height
}

// CalculateGrid determines the grid dimensions for the given number of windows:
// rows = round(sqrt(n)), cols = ceil(n / rows).
func CalculateGrid(numWindows int) (rows, cols int) {
	if numWindows <= 0 {
		return 0, 0
	}

	rows = int(math.Round(math.Sqrt(float64(numWindows))))
	cols = int(math.Ceil(float64(numWindows) / float64(rows)))

	return rows, cols
}

// Grid returns all rows*cols cells of area in row-major order. Integer
// remainders are spread across cells so the cells tile area exactly.
func Grid(rows, cols int, area Rect) []Rect {
	if rows <= 0 || cols <= 0 {
		return nil
	}

	cells := make([]Rect, 0, rows*cols)
	for row := 0; row < rows; row++ {
		for col := 0; col < cols; col++ {
			cells = append(cells, cell(area, rows, cols, row, col))
		}
	}
	return cells
}

func cell(area Rect, rows, cols, row, col int) Rect {
	x0 := area.X + col*area.Width/cols
	x1 := area.X + (col+1)*area.Width/cols
	y0 := area.Y + row*area.Height/rows
	y1 := area.Y + (row+1)*area.Height/rows
	return Rect{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}
}

// CalculatePositions computes window positions for numWindows on monitor.
// gapSize pixels separate neighbouring windows and the monitor edges. With
// flexibleLastRow, windows on a partially filled last row share its full width.
func CalculatePositions(numWindows int, monitor Rect, gapSize int, flexibleLastRow bool) []Rect {
	if numWindows <= 0 {
		return nil
	}

	rows, cols := CalculateGrid(numWindows)

	// Every cell gives up gapSize on its right and bottom edge; the inner
	// area gives up gapSize on the left and top so the edges match.
	inner := Rect{
		X:      monitor.X + gapSize,
		Y:      monitor.Y + gapSize,
		Width:  monitor.Width - gapSize,
		Height: monitor.Height - gapSize,
	}

	lastRow := rows - 1
	inLastRow := numWindows - lastRow*cols

	positions := make([]Rect, numWindows)
	for i := 0; i < numWindows; i++ {
		row := i / cols
		col := i % cols

		var c Rect
		if flexibleLastRow && row == lastRow && inLastRow < cols {
			c = cell(inner, rows, inLastRow, row, col)
		} else {
			c = cell(inner, rows, cols, row, col)
		}

		positions[i] = Rect{
			X:      c.X,
			Y:      c.Y,
			Width:  max(c.Width-gapSize, 1),
			Height: max(c.Height-gapSize, 1),
		}
	}

	return positions
}
