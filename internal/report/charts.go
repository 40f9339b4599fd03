package report

import (
	"fmt"
	"image/color"
	"io"

	"learnspeed/domain/learning"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

// Dashboard sizes
const (
	trendsWidth       = 15 * vg.Inch
	trendsHeight      = 10 * vg.Inch
	conclusionsWidth  = 14 * vg.Inch
	conclusionsHeight = 10 * vg.Inch
)

var (
	firstGroupColor  = color.RGBA{R: 0xE6, G: 0x4C, B: 0x80, A: 0xFF}
	secondGroupColor = color.RGBA{R: 0x4C, G: 0x78, B: 0xA8, A: 0xFF}
	gainColor        = color.RGBA{R: 0xD6, G: 0x27, B: 0x28, A: 0xB3}
	lossColor        = color.RGBA{R: 0x1F, G: 0x77, B: 0xB4, A: 0xB3}
	winnerTextColor  = color.RGBA{R: 0x00, G: 0x64, B: 0x00, A: 0xFF}
)

func groupColor(pair learning.GroupPair, g learning.GroupLabel) color.Color {
	if g == pair.First {
		return firstGroupColor
	}
	return secondGroupColor
}

// AttemptMeans averages each subject's score per (group, attempt).
// The result is indexed [group][subject][attempt-1].
func AttemptMeans(observations []learning.SimulatedObservation, pair learning.GroupPair, attempts int) [2][learning.SubjectCount][]float64 {
	var buckets [2][learning.SubjectCount][][]float64
	for gi := range buckets {
		for si := range buckets[gi] {
			buckets[gi][si] = make([][]float64, attempts)
		}
	}
	for _, o := range observations {
		gi := pair.Index(o.Group)
		if gi < 0 || o.Attempt < 1 || o.Attempt > attempts {
			continue
		}
		for si, v := range o.Scores {
			buckets[gi][si][o.Attempt-1] = append(buckets[gi][si][o.Attempt-1], v)
		}
	}

	var means [2][learning.SubjectCount][]float64
	for gi := range buckets {
		for si := range buckets[gi] {
			means[gi][si] = make([]float64, attempts)
			for a, vals := range buckets[gi][si] {
				if len(vals) == 0 {
					continue
				}
				means[gi][si][a], _ = stats.Mean(vals)
			}
		}
	}
	return means
}

// RenderTrends draws the 2x3 trends dashboard as PNG: the mean score per
// attempt per group on top, the mean learning rate per group below
func RenderTrends(w io.Writer, a *learning.Analysis, observations []learning.SimulatedObservation, attempts int) error {
	means := AttemptMeans(observations, a.Groups, attempts)
	grid := make([][]*plot.Plot, 2)
	grid[0] = make([]*plot.Plot, learning.SubjectCount)
	grid[1] = make([]*plot.Plot, learning.SubjectCount)

	for _, sub := range learning.Subjects() {
		si := sub.Index()
		top, err := progressionPlot(sub, a.Groups, means, si, attempts)
		if err != nil {
			return err
		}
		grid[0][si] = top

		comp, _ := a.Comparison(sub)
		bottom, err := speedPlot(a, sub, comp.Significant)
		if err != nil {
			return err
		}
		grid[1][si] = bottom
	}
	return renderGrid(w, grid, trendsWidth, trendsHeight, "")
}

func progressionPlot(sub learning.Subject, pair learning.GroupPair, means [2][learning.SubjectCount][]float64, si, attempts int) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = sub.Title() + "\nLearning Progression"
	p.X.Label.Text = "Learning Attempt"
	p.Y.Label.Text = "Average Score"
	p.Add(plotter.NewGrid())

	ticks := make([]plot.Tick, attempts)
	for i := range ticks {
		ticks[i] = plot.Tick{Value: float64(i + 1), Label: fmt.Sprint(i + 1)}
	}
	p.X.Tick.Marker = plot.ConstantTicks(ticks)

	// second group first so the legend reads like the original dashboard
	for _, g := range []learning.GroupLabel{pair.Second, pair.First} {
		gi := pair.Index(g)
		xys := make(plotter.XYs, attempts)
		for i := range xys {
			xys[i].X = float64(i + 1)
			xys[i].Y = means[gi][si][i]
		}
		line, points, err := plotter.NewLinePoints(xys)
		if err != nil {
			return nil, fmt.Errorf("progression %s/%s: %w", sub, g, err)
		}
		c := groupColor(pair, g)
		line.Color = c
		line.Width = vg.Points(3)
		points.Color = c
		points.Radius = vg.Points(3)
		p.Add(line, points)
		p.Legend.Add(g.Title(), line, points)
	}
	p.Legend.Top = true
	return p, nil
}

func speedPlot(a *learning.Analysis, sub learning.Subject, significant bool) (*plot.Plot, error) {
	p := plot.New()
	star := ""
	if significant {
		star = "***"
	}
	p.Title.Text = "Learning Speed" + star + "\n(Slope Coefficient)"
	p.Y.Label.Text = "Points per Attempt"

	labels := make([]string, 0, 2)
	var xys plotter.XYs
	var texts []string
	for i, g := range []learning.GroupLabel{a.Groups.Second, a.Groups.First} {
		v, _ := a.Summary.Mean(g, sub)
		bars, err := plotter.NewBarChart(plotter.Values{v}, vg.Points(60))
		if err != nil {
			return nil, fmt.Errorf("speed %s/%s: %w", sub, g, err)
		}
		bars.XMin = float64(i)
		bars.Color = groupColor(a.Groups, g)
		bars.LineStyle.Width = 0
		p.Add(bars)
		labels = append(labels, g.Title())
		xys = append(xys, plotter.XY{X: float64(i), Y: v})
		texts = append(texts, fmt.Sprintf("%.3f", v))
	}
	values, err := valueLabels(xys, texts)
	if err != nil {
		return nil, err
	}
	p.Add(values)
	p.NominalX(labels...)
	return p, nil
}

// RenderConclusions draws the 2x2 conclusions dashboard as PNG: grouped
// speeds, the speed gap, subject wins per group and the findings text
func RenderConclusions(w io.Writer, a *learning.Analysis, findings []string) error {
	grouped, err := groupedSpeedPlot(a)
	if err != nil {
		return err
	}
	gap, err := gapPlot(a)
	if err != nil {
		return err
	}
	wins, err := winsPlot(a)
	if err != nil {
		return err
	}
	text, err := textPlot(findings)
	if err != nil {
		return err
	}
	grid := [][]*plot.Plot{{grouped, gap}, {wins, text}}
	return renderGrid(w, grid, conclusionsWidth, conclusionsHeight, "Detailed Learning Speed Conclusions")
}

func subjectNames() []string {
	names := make([]string, 0, learning.SubjectCount)
	for _, sub := range learning.Subjects() {
		names = append(names, sub.Short())
	}
	return names
}

func groupedSpeedPlot(a *learning.Analysis) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = "Learning Speed by Subject and Group"
	p.X.Label.Text = "Subjects"
	p.Y.Label.Text = "Learning Speed (Slope)"
	p.Add(plotter.NewGrid())

	width := vg.Points(28)
	var xys plotter.XYs
	var texts []string
	for i, g := range []learning.GroupLabel{a.Groups.Second, a.Groups.First} {
		row, _ := a.Summary.Row(g)
		bars, err := plotter.NewBarChart(plotter.Values(row), width)
		if err != nil {
			return nil, fmt.Errorf("grouped speeds %s: %w", g, err)
		}
		bars.Color = groupColor(a.Groups, g)
		bars.LineStyle.Width = 0
		offset := float64(i)*2 - 1
		bars.Offset = vg.Length(offset) * width / 2
		p.Add(bars)
		p.Legend.Add(g.Title(), bars)
		for si, v := range row {
			xys = append(xys, plotter.XY{X: float64(si) + offset*0.18, Y: v})
			texts = append(texts, fmt.Sprintf("%.3f", v))
		}
	}
	values, err := valueLabels(xys, texts)
	if err != nil {
		return nil, err
	}
	p.Add(values)
	p.Legend.Top = true
	p.NominalX(subjectNames()...)
	return p, nil
}

// gapPlot shows second-group speed minus first-group speed per subject,
// positive gaps in red and the rest in blue
func gapPlot(a *learning.Analysis) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = "Learning Speed Gap Analysis"
	p.X.Label.Text = "Subjects"
	p.Y.Label.Text = fmt.Sprintf("Speed Difference (%s - %s)", a.Groups.Second.Title(), a.Groups.First.Title())
	p.Add(plotter.NewGrid())

	gains := make(plotter.Values, learning.SubjectCount)
	losses := make(plotter.Values, learning.SubjectCount)
	var xys plotter.XYs
	var texts []string
	for _, c := range a.Comparisons {
		si := c.Subject.Index()
		gap := -c.Gap()
		if gap > 0 {
			gains[si] = gap
		} else {
			losses[si] = gap
		}
		xys = append(xys, plotter.XY{X: float64(si), Y: gap})
		texts = append(texts, fmt.Sprintf("%.3f", gap))
	}
	for _, series := range []struct {
		values plotter.Values
		color  color.Color
	}{{gains, gainColor}, {losses, lossColor}} {
		bars, err := plotter.NewBarChart(series.values, vg.Points(50))
		if err != nil {
			return nil, fmt.Errorf("gap bars: %w", err)
		}
		bars.Color = series.color
		bars.LineStyle.Width = 0
		p.Add(bars)
	}
	values, err := valueLabels(xys, texts)
	if err != nil {
		return nil, err
	}
	p.Add(values)
	p.NominalX(subjectNames()...)
	return p, nil
}

func winsPlot(a *learning.Analysis) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = "Subject Wins by Group"
	p.Y.Label.Text = "Subjects Won"
	p.Y.Min = 0
	p.Y.Max = learning.SubjectCount

	wins := a.SubjectWins()
	total := len(a.Comparisons)
	var labels, texts []string
	var xys plotter.XYs
	for i, g := range []learning.GroupLabel{a.Groups.Second, a.Groups.First} {
		n := float64(wins[g])
		bars, err := plotter.NewBarChart(plotter.Values{n}, vg.Points(60))
		if err != nil {
			return nil, fmt.Errorf("wins %s: %w", g, err)
		}
		bars.XMin = float64(i)
		bars.Color = groupColor(a.Groups, g)
		bars.LineStyle.Width = 0
		p.Add(bars)
		labels = append(labels, g.Title())

		share := 0.0
		if total > 0 {
			share = 100 * n / float64(total)
		}
		xys = append(xys, plotter.XY{X: float64(i), Y: n})
		texts = append(texts, fmt.Sprintf("%.0f%%", share))
	}
	values, err := valueLabels(xys, texts)
	if err != nil {
		return nil, err
	}
	p.Add(values)
	p.NominalX(labels...)
	return p, nil
}

func textPlot(lines []string) (*plot.Plot, error) {
	p := plot.New()
	p.HideAxes()
	p.X.Min, p.X.Max = 0, 1
	p.Y.Min, p.Y.Max = 0, 1

	xys := make(plotter.XYs, len(lines))
	for i := range lines {
		xys[i] = plotter.XY{X: 0.02, Y: 0.97 - float64(i)*0.045}
	}
	labels, err := plotter.NewLabels(plotter.XYLabels{XYs: xys, Labels: lines})
	if err != nil {
		return nil, fmt.Errorf("findings text: %w", err)
	}
	for i, line := range lines {
		labels.TextStyle[i].Font.Size = vg.Points(10)
		if isWinnerLine(line) {
			labels.TextStyle[i].Color = winnerTextColor
		}
	}
	p.Add(labels)
	return p, nil
}

func valueLabels(xys plotter.XYs, texts []string) (*plotter.Labels, error) {
	labels, err := plotter.NewLabels(plotter.XYLabels{XYs: xys, Labels: texts})
	if err != nil {
		return nil, fmt.Errorf("value labels: %w", err)
	}
	for i := range labels.TextStyle {
		labels.TextStyle[i].XAlign = draw.XCenter
		labels.TextStyle[i].Font.Size = vg.Points(9)
	}
	labels.Offset = vg.Point{Y: vg.Points(4)}
	return labels, nil
}

func renderGrid(w io.Writer, grid [][]*plot.Plot, width, height vg.Length, title string) error {
	img := vgimg.New(width, height)
	dc := draw.New(img)

	tiles := draw.Tiles{
		Rows:      len(grid),
		Cols:      len(grid[0]),
		PadX:      vg.Millimeter * 8,
		PadY:      vg.Millimeter * 8,
		PadTop:    vg.Millimeter * 4,
		PadBottom: vg.Millimeter * 4,
		PadLeft:   vg.Millimeter * 4,
		PadRight:  vg.Millimeter * 4,
	}
	if title != "" {
		tiles.PadTop = vg.Millimeter * 14
		header := plot.New()
		header.Title.Text = title
		header.Title.TextStyle.Font.Size = vg.Points(16)
		header.HideAxes()
		header.Draw(dc)
	}

	canvases := plot.Align(grid, tiles, dc)
	for r := range grid {
		for c := range grid[r] {
			if grid[r][c] != nil {
				grid[r][c].Draw(canvases[r][c])
			}
		}
	}

	if _, err := (vgimg.PngCanvas{Canvas: img}).WriteTo(w); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return nil
}
