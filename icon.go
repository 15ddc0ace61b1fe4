package main

import "math"

// CreateIconRGBA generates a 22x22 RGBA byte slice for the app icon.
// Draws a speech-bubble symbol: rounded rectangle with a small tail at the
// bottom left. White on transparent background with antialiased edges.
func CreateIconRGBA() ([]byte, int, int) {
	const size = 22
	rgba := make([]byte, size*size*4)

	// Bubble body bounds and corner radius.
	const (
		left   = 3.0
		right  = 19.0
		top    = 4.0
		bottom = 15.0
		radius = 3.0
	)

	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			idx := (y*size + x) * 4
			fx := float64(x) + 0.5
			fy := float64(y) + 0.5

			alpha := 0.0

			// Rounded-rectangle body via distance to the inset core.
			cx := math.Max(left+radius, math.Min(fx, right-radius))
			cy := math.Max(top+radius, math.Min(fy, bottom-radius))
			d := math.Sqrt((fx-cx)*(fx-cx) + (fy-cy)*(fy-cy))
			if d <= radius {
				alpha = 1.0
			} else if d <= radius+0.8 {
				alpha = (radius + 0.8 - d) / 0.8
			}

			// Tail triangle below the body, pointing down-left.
			if fy > bottom && fy <= bottom+4.0 && fx >= 6.0 {
				width := 4.0 - (fy - bottom)
				if fx <= 6.0+width {
					alpha = 1.0
				}
			}

			if alpha > 0.0 {
				a := uint8(math.Min(alpha, 1.0) * 255.0)
				rgba[idx] = 255
				rgba[idx+1] = 255
				rgba[idx+2] = 255
				rgba[idx+3] = a
			}
		}
	}

	return rgba, size, size
}
