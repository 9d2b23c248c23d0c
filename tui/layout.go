package tui

import (
	"fmt"
	"strings"

	"github.com/alDuncanson/latentscope/report"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/muesli/reflow/truncate"
)

const (
	detailPanelWidth = 44
	minCanvasWidth   = 40
	minCanvasHeight  = 10
	tabBarHeight     = 1
	statusBarHeight  = 2
	borderSize       = 2
)

type viewTab int

const (
	tabScatter viewTab = iota
	tabSimilarity
	tabVariance
	tabCount
)

type layoutDimensions struct {
	totalWidth   int
	canvasWidth  int
	canvasHeight int
}

func (m Model) calculateLayout() layoutDimensions {
	marginX := 2
	marginY := 2

	totalWidth := m.width - marginX
	totalHeight := m.height - marginY

	canvasHeight := totalHeight - tabBarHeight - statusBarHeight
	if canvasHeight < minCanvasHeight {
		canvasHeight = minCanvasHeight
	}

	canvasWidth := totalWidth
	if canvasWidth < minCanvasWidth {
		canvasWidth = minCanvasWidth
	}

	return layoutDimensions{
		totalWidth:   totalWidth,
		canvasWidth:  canvasWidth,
		canvasHeight: canvasHeight,
	}
}

type styles struct {
	title       lipgloss.Style
	canvas      lipgloss.Style
	overlay     lipgloss.Style
	tabActive   lipgloss.Style
	tabInactive lipgloss.Style
	tabBar      lipgloss.Style
	statusBar   lipgloss.Style
	label       lipgloss.Style
	value       lipgloss.Style
	errorText   lipgloss.Style
}

func newStyles() styles {
	accentColor := lipgloss.Color("#FF87D7")
	borderColor := lipgloss.Color("#5F5FAF")
	canvasBorderColor := lipgloss.Color("#FF8700")
	dimColor := lipgloss.Color("#6C6C6C")
	bgColor := lipgloss.Color("#303030")

	return styles{
		title: lipgloss.NewStyle().
			Bold(true).
			Foreground(accentColor),

		canvas: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(canvasBorderColor),

		overlay: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(borderColor).
			Background(bgColor).
			Padding(0, 1),

		tabActive: lipgloss.NewStyle().
			Bold(true).
			Foreground(accentColor).
			Padding(0, 1),

		tabInactive: lipgloss.NewStyle().
			Foreground(dimColor).
			Padding(0, 1),

		tabBar: lipgloss.NewStyle().
			Foreground(dimColor),

		statusBar: lipgloss.NewStyle().
			Foreground(dimColor),

		label: lipgloss.NewStyle().
			Foreground(dimColor),

		value: lipgloss.NewStyle().
			Foreground(lipgloss.Color("255")),

		errorText: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF0000")),
	}
}

// View renders the complete UI as a string.
func (m Model) View() string {
	s := newStyles()
	layout := m.calculateLayout()

	var b strings.Builder
	b.WriteString(m.renderTabBar(s, layout.totalWidth))
	b.WriteString("\n")
	b.WriteString(m.renderContentArea(s, layout))
	b.WriteString("\n")
	if m.err != nil {
		b.WriteString(s.errorText.Render("Error: " + m.err.Error()))
		b.WriteString("\n")
	}
	b.WriteString(m.renderStatusBar(s, layout.totalWidth))

	return lipgloss.NewStyle().Padding(1, 1).Render(b.String())
}

func (m Model) renderTabBar(s styles, width int) string {
	tabs := []struct {
		name string
		tab  viewTab
	}{
		{"Scatter", tabScatter},
		{"Similarity", tabSimilarity},
		{"Variance", tabVariance},
	}

	var parts []string
	for _, t := range tabs {
		style := s.tabInactive
		if t.tab == m.activeTab {
			style = s.tabActive
		}
		parts = append(parts, style.Render(t.name))
	}

	tabRow := strings.Join(parts, s.tabBar.Render(" │ "))
	title := s.title.Render("latentscope")

	gap := width - lipgloss.Width(tabRow) - lipgloss.Width(title)
	if gap < 1 {
		gap = 1
	}

	return tabRow + strings.Repeat(" ", gap) + title
}

func (m Model) renderContentArea(s styles, layout layoutDimensions) string {
	innerWidth := layout.canvasWidth - borderSize
	innerHeight := layout.canvasHeight - borderSize

	var content string
	switch {
	case m.result == nil && m.loading:
		content = "Analyzing..."
	case m.result == nil:
		content = "Loading collection..."
	case m.activeTab == tabScatter:
		content = m.renderCanvas(innerWidth, innerHeight)
	case m.activeTab == tabSimilarity:
		content = m.renderSimilarity(innerWidth)
	case m.activeTab == tabVariance:
		content = report.Variance(m.result.VarianceRanking, innerHeight-1, innerWidth)
	}
	content = clipLines(content, innerWidth, innerHeight)

	box := s.canvas.
		Width(innerWidth).
		Height(innerHeight).
		Render(content)

	if m.activeTab == tabScatter && m.showDetail && m.selectedIndex >= 0 && m.selectedIndex < m.pointCount() {
		box = m.overlayDetailPanel(box, s, layout)
	}
	return box
}

func (m Model) renderSimilarity(width int) string {
	if m.result.Similarity == nil {
		return report.Summary(m.result)
	}
	return strings.Join([]string{
		report.Stats(m.stats),
		report.Histogram(m.result.Similarity.Histogram, m.stats.Threshold, width),
		report.TopPairs(m.topPairs, width),
	}, "\n\n")
}

func (m Model) overlayDetailPanel(base string, s styles, layout layoutDimensions) string {
	panelInnerWidth := detailPanelWidth - 4
	panelInnerHeight := layout.canvasHeight - 4
	if panelInnerHeight > 16 {
		panelInnerHeight = 16
	}

	panel := s.overlay.
		Width(panelInnerWidth).
		Height(panelInnerHeight).
		Render(m.renderDetail(s, panelInnerWidth, panelInnerHeight))

	return overlayAt(base, panel, layout.canvasWidth-detailPanelWidth-1, 1)
}

// renderDetail describes the selected point and its nearest neighbors.
func (m Model) renderDetail(s styles, panelWidth, panelHeight int) string {
	point := m.result.Points[m.selectedIndex]

	lines := []string{
		s.title.Render("Selected"),
		s.value.Render(ansi.Truncate(point.Excerpt, panelWidth, "…")),
		"",
		s.label.Render("ID: ") + s.value.Render(ansi.Truncate(point.DocumentID, panelWidth-4, "…")),
		s.label.Render("Cluster: ") + clusterStyle(point.ClusterID).Render(fmt.Sprint(point.ClusterID)),
		s.label.Render("Position: ") + s.value.Render(fmt.Sprintf("%.3f, %.3f", point.X, point.Y)),
		"",
	}

	if neighbors := m.nearestNeighbors(point.Index, 5); len(neighbors) > 0 {
		lines = append(lines, s.title.Render("Nearest"))
		for _, entry := range neighbors {
			text := m.result.Points[entry.index].Excerpt
			lines = append(lines, fmt.Sprintf("%.3f %s", entry.similarity, ansi.Truncate(text, panelWidth-7, "…")))
		}
	}

	for len(lines) < panelHeight {
		lines = append(lines, "")
	}
	if len(lines) > panelHeight {
		lines = lines[:panelHeight]
	}
	return strings.Join(lines, "\n")
}

func overlayAt(base, overlay string, x, y int) string {
	bgLines, bgWidth := getLines(base)
	fgLines, fgWidth := getLines(overlay)
	bgHeight := len(bgLines)
	fgHeight := len(fgLines)

	if fgWidth >= bgWidth && fgHeight >= bgHeight {
		return overlay
	}

	if x > bgWidth-fgWidth {
		x = bgWidth - fgWidth
	}
	if y > bgHeight-fgHeight {
		y = bgHeight - fgHeight
	}
	if x < 0 {
		x = 0
	}
	if y < 0 {
		y = 0
	}

	var b strings.Builder
	for i, bgLine := range bgLines {
		if i > 0 {
			b.WriteByte('\n')
		}
		if i < y || i >= y+fgHeight {
			b.WriteString(bgLine)
			continue
		}

		pos := 0
		if x > 0 {
			left := truncate.String(bgLine, uint(x))
			pos = ansi.StringWidth(left)
			b.WriteString(left)
			if pos < x {
				b.WriteString(strings.Repeat(" ", x-pos))
				pos = x
			}
		}

		fgLine := fgLines[i-y]
		b.WriteString(fgLine)
		pos += ansi.StringWidth(fgLine)

		right := ansi.TruncateLeft(bgLine, pos, "")
		lineWidth := ansi.StringWidth(bgLine)
		rightWidth := ansi.StringWidth(right)
		if rightWidth <= lineWidth-pos {
			b.WriteString(strings.Repeat(" ", lineWidth-rightWidth-pos))
		}
		b.WriteString(right)
	}

	return b.String()
}

func getLines(s string) ([]string, int) {
	lines := strings.Split(s, "\n")
	widest := 0
	for _, l := range lines {
		w := ansi.StringWidth(l)
		if widest < w {
			widest = w
		}
	}
	return lines, widest
}

// clipLines keeps text within the content box.
func clipLines(text string, width, height int) string {
	lines := strings.Split(text, "\n")
	if len(lines) > height {
		lines = lines[:height]
	}
	for i, line := range lines {
		lines[i] = ansi.Truncate(line, width, "")
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderStatusBar(s styles, width int) string {
	state := "idle"
	if m.loading {
		state = "running"
	}
	settings := fmt.Sprintf("k=%d │ sample=%d │ threshold=%.2f │ %s",
		m.params.TargetClusterCount, m.params.SampleSize, m.params.SimilarityThreshold, state)
	if m.result != nil {
		settings = fmt.Sprintf("%d vectors × %d │ %s │ %s", m.result.VectorCount, m.result.Dimension, m.result.Provenance, settings)
	}

	help := "←→: threshold │ +/-: clusters │ s: sample │ r: reseed │ R: reload │ ↑↓: select │ /: detail │ 1-3: tabs │ q: quit"
	padding := width - lipgloss.Width(help) - lipgloss.Width(m.version)
	if padding < 1 {
		padding = 1
	}

	return s.statusBar.Render(settings) + "\n" + s.statusBar.Render(help+strings.Repeat(" ", padding)+m.version)
}
