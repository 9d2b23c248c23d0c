package tui

import (
	"fmt"
	"sort"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

// clusterPalette holds one color per cluster id, enough for the maximum cluster count.
var clusterPalette = []lipgloss.Color{
	"#FF87D7", "#5FD7FF", "#AFFF5F", "#FFD75F", "#FF875F",
	"#AF87FF", "#5FFFAF", "#FF5F87", "#87AFFF", "#D7D7AF",
}

func clusterStyle(clusterID int) lipgloss.Style {
	if clusterID < 0 {
		return lipgloss.NewStyle().Foreground(lipgloss.Color("239"))
	}
	return lipgloss.NewStyle().Foreground(clusterPalette[clusterID%len(clusterPalette)])
}

// canvasCell represents a single cell in the rendering grid with its character and styling.
type canvasCell struct {
	char  rune
	style lipgloss.Style
}

// gridPoint is a point positioned on the canvas grid.
type gridPoint struct {
	rowIndex    int
	columnIndex int
	pointIndex  int
	clusterID   int
	label       string
}

// renderCanvas draws the 2D projection with one marker per point.
func (m Model) renderCanvas(canvasWidth, canvasHeight int) string {
	canvasGrid := make([][]canvasCell, canvasHeight)
	for rowIndex := range canvasGrid {
		canvasGrid[rowIndex] = make([]canvasCell, canvasWidth)
		for columnIndex := range canvasGrid[rowIndex] {
			canvasGrid[rowIndex][columnIndex] = canvasCell{char: ' ', style: lipgloss.NewStyle()}
		}
	}

	if m.result == nil || len(m.result.Points) == 0 {
		writeCentered(canvasGrid, "Not enough vectors to plot", canvasWidth, canvasHeight)
		return canvasGridToString(canvasGrid)
	}

	gridPoints := m.gridPositions(canvasWidth, canvasHeight)
	neighborIndices := make(map[int]bool)
	if m.selectedIndex >= 0 {
		for _, entry := range m.nearestNeighbors(m.selectedIndex, 5) {
			neighborIndices[entry.index] = true
		}
	}

	// Selected and neighbor points draw last so they stay on top.
	sort.SliceStable(gridPoints, func(first, second int) bool {
		return m.renderPriority(gridPoints[first], neighborIndices) < m.renderPriority(gridPoints[second], neighborIndices)
	})

	selectedStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true)
	for _, point := range gridPoints {
		marker := "○"
		style := clusterStyle(point.clusterID)
		switch {
		case point.pointIndex == m.selectedIndex:
			marker = "●"
			style = selectedStyle
		case neighborIndices[point.pointIndex]:
			marker = "◆"
			style = style.Bold(true)
		}
		canvasGrid[point.rowIndex][point.columnIndex] = canvasCell{char: []rune(marker)[0], style: style}

		if point.pointIndex != m.selectedIndex && !neighborIndices[point.pointIndex] {
			continue
		}
		labelStart := point.columnIndex + 2
		for offset, character := range []rune(ansi.Truncate(point.label, 14, "…")) {
			if labelStart+offset < canvasWidth {
				canvasGrid[point.rowIndex][labelStart+offset] = canvasCell{char: character, style: style}
			}
		}
	}

	legend := make([]rune, 0, canvasWidth)
	for clusterID, size := range m.result.Clusters.Sizes {
		legend = append(legend, []rune(fmt.Sprintf("%d:%d ", clusterID, size))...)
	}
	for offset, character := range legend {
		if offset < canvasWidth {
			canvasGrid[0][offset] = canvasCell{char: character, style: clusterStyle(clusterAt(m.result.Clusters.Sizes, offset))}
		}
	}

	return canvasGridToString(canvasGrid)
}

func (m Model) renderPriority(point gridPoint, neighborIndices map[int]bool) int {
	switch {
	case point.pointIndex == m.selectedIndex:
		return 2
	case neighborIndices[point.pointIndex]:
		return 1
	default:
		return 0
	}
}

// gridPositions maps projected coordinates into the canvas, leaving the top
// row for the cluster legend.
func (m Model) gridPositions(canvasWidth, canvasHeight int) []gridPoint {
	points := m.result.Points
	minimumX, maximumX := points[0].X, points[0].X
	minimumY, maximumY := points[0].Y, points[0].Y
	for _, point := range points {
		minimumX = min(minimumX, point.X)
		maximumX = max(maximumX, point.X)
		minimumY = min(minimumY, point.Y)
		maximumY = max(maximumY, point.Y)
	}
	rangeX := maximumX - minimumX
	rangeY := maximumY - minimumY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}

	paddingSize := 2
	plotWidth := max(canvasWidth-2*paddingSize, 1)
	plotHeight := max(canvasHeight-2*paddingSize, 1)

	gridPoints := make([]gridPoint, len(points))
	for i, point := range points {
		columnIndex := paddingSize + int((point.X-minimumX)/rangeX*float64(plotWidth-1))
		// Screen rows grow downward, so larger Y values sit nearer the top.
		rowIndex := paddingSize + int((maximumY-point.Y)/rangeY*float64(plotHeight-1))
		gridPoints[i] = gridPoint{
			rowIndex:    clamp(rowIndex, 1, canvasHeight-1),
			columnIndex: clamp(columnIndex, 0, canvasWidth-1),
			pointIndex:  point.Index,
			clusterID:   point.ClusterID,
			label:       point.Excerpt,
		}
	}
	return gridPoints
}

// clusterAt returns the cluster whose legend entry covers offset.
func clusterAt(sizes []int, offset int) int {
	position := 0
	for clusterID, size := range sizes {
		entryWidth := len([]rune(fmt.Sprintf("%d:%d ", clusterID, size)))
		if offset < position+entryWidth {
			return clusterID
		}
		position += entryWidth
	}
	return -1
}

func writeCentered(canvasGrid [][]canvasCell, message string, canvasWidth, canvasHeight int) {
	row := canvasHeight / 2
	start := max((canvasWidth-len(message))/2, 0)
	for offset, character := range message {
		if start+offset < canvasWidth {
			canvasGrid[row][start+offset] = canvasCell{char: character, style: lipgloss.NewStyle()}
		}
	}
}

// canvasGridToString converts the 2D canvas grid into a renderable string.
func canvasGridToString(canvasGrid [][]canvasCell) string {
	var outputBuilder []byte
	for rowIndex, gridRow := range canvasGrid {
		for _, cell := range gridRow {
			outputBuilder = append(outputBuilder, cell.style.Render(string(cell.char))...)
		}
		if rowIndex < len(canvasGrid)-1 {
			outputBuilder = append(outputBuilder, '\n')
		}
	}
	return string(outputBuilder)
}

func clamp(value, low, high int) int {
	if high < low {
		return low
	}
	return max(low, min(high, value))
}
