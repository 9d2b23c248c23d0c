// Package report renders analysis results as styled terminal text. The same
// renderers back the analyze command output and the interactive explorer tabs.
package report

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/alDuncanson/latentscope/analysis"
	"github.com/alDuncanson/latentscope/projection"
	"github.com/alDuncanson/latentscope/similarity"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/truncate"
)

const (
	defaultBarWidth    = 40
	defaultVarianceTop = 10
)

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.AdaptiveColor{Light: "#D6006F", Dark: "#FF87D7"})
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#9CA3AF"})
	valueStyle   = lipgloss.NewStyle().Bold(true)
	barStyle     = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#3B82F6", Dark: "#60A5FA"})
	aboveStyle   = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#F59E0B", Dark: "#FBBF24"})
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#EF4444", Dark: "#F87171"})
)

// Render returns every section of a result separated by blank lines.
func Render(result *analysis.CombinedResult, width int) string {
	if result == nil {
		return ""
	}
	sections := []string{Summary(result)}
	if result.Status != analysis.StatusComplete {
		return sections[0]
	}

	analyzed := result.Similarity
	sections = append(sections,
		Stats(analyzed.Stats),
		Histogram(analyzed.Histogram, analyzed.Stats.Threshold, width),
		TopPairs(analyzed.TopPairs, width),
		Variance(result.VarianceRanking, defaultVarianceTop, width),
	)
	return strings.Join(sections, "\n\n")
}

// Summary describes the input and the clustering and projection outcome.
func Summary(result *analysis.CombinedResult) string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Collection"))
	b.WriteString("\n")
	writeField(&b, "vectors", fmt.Sprintf("%d × %d", result.VectorCount, result.Dimension))
	model := result.EmbeddingModel
	if model == "" {
		model = "unspecified"
	}
	writeField(&b, "model", model)
	writeField(&b, "provenance", result.Provenance.String())
	writeField(&b, "seed", fmt.Sprint(result.Seed))

	if result.Status == analysis.StatusInsufficientData {
		b.WriteString(warningStyle.Render("not enough vectors to analyze (need at least 2)"))
		return b.String()
	}

	clusters := result.Clusters
	convergence := "converged"
	if !clusters.Converged {
		convergence = "iteration cap"
	}
	writeField(&b, "clusters", fmt.Sprintf("%d, sizes %v, %d iterations (%s)", clusters.Count, clusters.Sizes, clusters.Iterations, convergence))
	if clusters.Reseeds > 0 {
		writeField(&b, "reseeds", fmt.Sprint(clusters.Reseeds))
	}

	explained := make([]string, len(result.ExplainedVariance))
	total := 0.0
	for i, ratio := range result.ExplainedVariance {
		explained[i] = fmt.Sprintf("PC%d %.1f%%", i+1, ratio*100)
		total += ratio
	}
	writeField(&b, "explained", fmt.Sprintf("%s (total %.1f%%)", strings.Join(explained, ", "), total*100))

	if len(result.Warnings) > 0 {
		b.WriteString(warningStyle.Render(fmt.Sprintf("%d numeric warnings (zero-norm vectors)", len(result.Warnings))))
		b.WriteString("\n")
	}
	writeField(&b, "duration", result.Duration.Round(time.Millisecond).String())
	return strings.TrimRight(b.String(), "\n")
}

// Stats renders the similarity summary for the current threshold.
func Stats(stats similarity.Stats) string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Similarity"))
	b.WriteString("\n")
	writeField(&b, "sample", fmt.Sprintf("%d vectors, %d pairs", stats.SampleSize, stats.PairCount))
	writeField(&b, "mean", fmt.Sprintf("%.4f", stats.Mean))
	writeField(&b, "median", fmt.Sprintf("%.4f", stats.Median))
	writeField(&b, "range", fmt.Sprintf("%.4f .. %.4f", stats.Min, stats.Max))
	writeField(&b, "threshold", fmt.Sprintf("%.2f: %d pairs above (%.1f%%)", stats.Threshold, stats.AboveThreshold, stats.AboveThresholdFraction*100))
	return strings.TrimRight(b.String(), "\n")
}

// Histogram draws one bar per bin scaled to the fullest bin. Bins lying
// above threshold are highlighted.
func Histogram(histogram similarity.Histogram, threshold float64, width int) string {
	barWidth := barWidthFor(width, 24)
	maxCount := 0
	for _, bin := range histogram.Bins {
		if bin.Count > maxCount {
			maxCount = bin.Count
		}
	}

	var b strings.Builder
	b.WriteString(headerStyle.Render("Distribution"))
	for _, bin := range histogram.Bins {
		style := barStyle
		if bin.Lower >= threshold {
			style = aboveStyle
		}
		b.WriteString("\n")
		b.WriteString(labelStyle.Render(fmt.Sprintf("%+.2f..%+.2f ", bin.Lower, bin.Upper)))
		b.WriteString(style.Render(bar(bin.Count, maxCount, barWidth)))
		b.WriteString(fmt.Sprintf(" %d", bin.Count))
	}
	return b.String()
}

// TopPairs lists the most similar pairs with document excerpts.
func TopPairs(pairs []similarity.TopPair, width int) string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Most similar pairs"))
	if len(pairs) == 0 {
		b.WriteString("\n")
		b.WriteString(labelStyle.Render("no pairs above threshold"))
		return b.String()
	}

	textWidth := (width - 20) / 2
	if textWidth < 12 {
		textWidth = 12
	}
	for _, pair := range pairs {
		b.WriteString("\n")
		b.WriteString(valueStyle.Render(fmt.Sprintf("%.4f", pair.Similarity)))
		b.WriteString(fmt.Sprintf("  #%d %s  ↔  #%d %s",
			pair.IndexA, label(pair.DocumentA.ID, pair.DocumentA.Text, textWidth),
			pair.IndexB, label(pair.DocumentB.ID, pair.DocumentB.Text, textWidth)))
	}
	return b.String()
}

// Variance draws the limit highest-variance input dimensions.
func Variance(ranking []projection.DimensionVariance, limit, width int) string {
	if limit <= 0 || limit > len(ranking) {
		limit = len(ranking)
	}
	barWidth := barWidthFor(width, 24)

	var b strings.Builder
	b.WriteString(headerStyle.Render("Dimension variance"))
	if limit == 0 {
		return b.String()
	}
	top := ranking[0].Variance
	for _, entry := range ranking[:limit] {
		b.WriteString("\n")
		b.WriteString(labelStyle.Render(fmt.Sprintf("dim %4d ", entry.Dimension)))
		b.WriteString(barStyle.Render(scaledBar(entry.Variance, top, barWidth)))
		b.WriteString(fmt.Sprintf(" %.5f", entry.Variance))
	}
	return b.String()
}

func writeField(b *strings.Builder, name, value string) {
	b.WriteString(labelStyle.Render(fmt.Sprintf("%-11s", name)))
	b.WriteString(value)
	b.WriteString("\n")
}

func label(id, text string, width int) string {
	if text == "" {
		text = id
	}
	if text == "" {
		return "(no text)"
	}
	text = strings.Join(strings.Fields(text), " ")
	return truncate.StringWithTail(text, uint(width), "…")
}

func barWidthFor(width, reserved int) int {
	if width <= 0 {
		return defaultBarWidth
	}
	if barWidth := width - reserved; barWidth > 4 {
		return barWidth
	}
	return 4
}

func bar(count, maxCount, width int) string {
	return scaledBar(float64(count), float64(maxCount), width)
}

func scaledBar(value, maxValue float64, width int) string {
	if maxValue <= 0 || value <= 0 {
		return ""
	}
	length := int(math.Round(value / maxValue * float64(width)))
	if length < 1 {
		length = 1
	}
	return strings.Repeat("█", length)
}
