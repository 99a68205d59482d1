package analysis

import (
	"math"
	"strings"

	"github.com/san-kum/cascadedrop/internal/dynamo"
)

type Point struct{ X, Y float64 }

// PhasePortrait returns the height of body against its vertical velocity.
func PhasePortrait(samples []dynamo.Sample, body string) []Point {
	var pts []Point
	for _, s := range samples {
		if s.Body != body {
			continue
		}
		pts = append(pts, Point{X: s.State.Pose.Pos[1], Y: s.State.Twist.V[1]})
	}
	return pts
}

// Bounds returns the padded extent of pts.
func Bounds(pts []Point) (minX, maxX, minY, maxY float64) {
	minX, minY = math.Inf(1), math.Inf(1)
	maxX, maxY = math.Inf(-1), math.Inf(-1)
	for _, p := range pts {
		minX = math.Min(minX, p.X)
		maxX = math.Max(maxX, p.X)
		minY = math.Min(minY, p.Y)
		maxY = math.Max(maxY, p.Y)
	}
	rangeX := maxX - minX
	rangeY := maxY - minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	return minX - rangeX*0.1, maxX + rangeX*0.1, minY - rangeY*0.1, maxY + rangeY*0.1
}

// PhasePortraitToASCII plots pts on a width x height character grid.
func PhasePortraitToASCII(pts []Point, width, height int) string {
	if len(pts) == 0 || width < 2 || height < 2 {
		return ""
	}
	minX, maxX, minY, maxY := Bounds(pts)

	grid := make([][]rune, height)
	for i := range grid {
		grid[i] = []rune(strings.Repeat(" ", width))
	}
	// Zero velocity axis.
	if minY < 0 && maxY > 0 {
		row := int((maxY - 0) / (maxY - minY) * float64(height-1))
		for col := range grid[row] {
			grid[row][col] = '-'
		}
	}
	for _, p := range pts {
		col := int((p.X - minX) / (maxX - minX) * float64(width-1))
		row := int((maxY - p.Y) / (maxY - minY) * float64(height-1))
		grid[row][col] = '*'
	}

	var sb strings.Builder
	for _, line := range grid {
		sb.WriteString(string(line))
		sb.WriteByte('\n')
	}
	return sb.String()
}
