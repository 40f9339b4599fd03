package report

import (
	"fmt"
	"strings"

	"learnspeed/domain/learning"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

// Methodology describes how the analysed numbers were produced
type Methodology struct {
	Attempts    int
	EntityCount int
	Alpha       float64
	GroupColumn string
	Seed        int64
}

func significance(c learning.ComparisonResult) string {
	if c.Significant {
		return "SIGNIFICANT"
	}
	return "Not Significant"
}

func isWinnerLine(line string) bool {
	return strings.Contains(strings.ToUpper(line), "WINNER")
}

// FindingsLines is the plain-text findings summary used on the conclusions
// dashboard
func FindingsLines(a *learning.Analysis, m Methodology) []string {
	first, second := a.Groups.First, a.Groups.Second
	lines := []string{
		"FINDINGS SUMMARY",
		"",
		fmt.Sprintf("OVERALL WINNER: %s", strings.ToUpper(string(a.Overall.Winner))),
		fmt.Sprintf("Average Learning Speed: %.3f vs %.3f", a.Overall.WinnerSpeed, a.Overall.RunnerUpSpeed),
		"",
		"SUBJECT-SPECIFIC RESULTS:",
	}
	for _, c := range a.Comparisons {
		lines = append(lines,
			fmt.Sprintf("- %s: %s learn faster", strings.ToUpper(c.Subject.Title()), c.Faster.Title()),
			fmt.Sprintf("  (%s: %.3f, %s: %.3f)", second.Title(), mustStats(c, second).Mean, first.Title(), mustStats(c, first).Mean),
		)
	}
	lines = append(lines, "", "STATISTICAL SIGNIFICANCE:")
	for _, c := range a.Comparisons {
		lines = append(lines, fmt.Sprintf("- %s: %s", c.Subject.Short(), significance(c)))
	}
	lines = append(lines,
		"",
		"METHODOLOGY:",
		fmt.Sprintf("- Simulated %d learning attempts per entity", m.Attempts),
		"- Learning speed = slope of linear regression",
		fmt.Sprintf("- Statistical testing with t-test (p < %g)", m.Alpha),
		fmt.Sprintf("- Dataset: %s entities with baseline scores", groupThousands(m.EntityCount)),
	)
	return lines
}

func mustStats(c learning.ComparisonResult, g learning.GroupLabel) learning.GroupStats {
	s, _ := c.Stats(g)
	return s
}

func groupThousands(n int) string {
	s := fmt.Sprint(n)
	if n < 0 {
		return "-" + groupThousands(-n)
	}
	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// FindingsMarkdown renders the findings as a markdown document
func FindingsMarkdown(a *learning.Analysis, m Methodology) string {
	var b strings.Builder
	first, second := a.Groups.First, a.Groups.Second

	b.WriteString("# Learning Speed Findings\n\n")
	fmt.Fprintf(&b, "**Overall winner: %s** (average learning speed %.3f vs %.3f for %s)",
		a.Overall.Winner.Title(), a.Overall.WinnerSpeed, a.Overall.RunnerUpSpeed, a.Overall.RunnerUp.Title())
	if a.Overall.Tie {
		b.WriteString(", decided by tie-break")
	}
	b.WriteString("\n\n## Subjects\n\n")

	fmt.Fprintf(&b, "| Subject | Faster | %s mean | %s std | %s mean | %s std | t | df | p | Significant |\n",
		first.Title(), first.Title(), second.Title(), second.Title())
	b.WriteString("|---|---|---|---|---|---|---|---|---|---|\n")
	for _, c := range a.Comparisons {
		faster := c.Faster.Title()
		if c.Tie {
			faster += " (tie)"
		}
		fmt.Fprintf(&b, "| %s | %s | %.3f | %.3f | %.3f | %.3f | %.3f | %g | %.4g | %s |\n",
			c.Subject.Title(), faster,
			c.First.Mean, c.First.StdDev, c.Second.Mean, c.Second.StdDev,
			c.TStatistic, c.DegreesOfFreedom, c.PValue, significance(c))
	}

	wins := a.SubjectWins()
	fmt.Fprintf(&b, "\nSubject wins: %s %d, %s %d.\n", first.Title(), wins[first], second.Title(), wins[second])

	b.WriteString("\n## Methodology\n\n")
	fmt.Fprintf(&b, "- Simulated %d learning attempts per entity from its baseline scores\n", m.Attempts)
	b.WriteString("- Learning speed is the least-squares slope of score on attempt number\n")
	fmt.Fprintf(&b, "- Groups taken from column `%s`, compared with a pooled two-sample t-test (p < %g)\n", m.GroupColumn, m.Alpha)
	fmt.Fprintf(&b, "- Dataset: %s entities\n", groupThousands(m.EntityCount))
	fmt.Fprintf(&b, "- Noise seed: %d\n", m.Seed)
	return b.String()
}

// ProfileMarkdown renders the baseline profile table. It returns an empty
// string when there are no profiles.
func ProfileMarkdown(profiles []learning.BaselineProfile) string {
	if len(profiles) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("\n## Baseline profile\n\n")
	b.WriteString("| Group | Subject | n | Mean | Std | Median | Min | Max | Skew | Outliers | At cap |\n")
	b.WriteString("|---|---|---|---|---|---|---|---|---|---|---|\n")
	for _, p := range profiles {
		fmt.Fprintf(&b, "| %s | %s | %d | %.2f | %.2f | %g | %g | %g | %.3f | %d | %d |\n",
			p.Group.Title(), p.Subject.Short(), p.N, p.Mean, p.StdDev, p.Median, p.Min, p.Max, p.Skewness, p.Outliers, p.AtCap)
	}
	return b.String()
}

// FindingsHTML converts findings markdown to a standalone HTML page
func FindingsHTML(md string) []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions)
	renderer := html.NewRenderer(html.RendererOptions{
		Flags: html.CommonFlags | html.CompletePage,
		Title: "Learning Speed Findings",
	})
	return markdown.ToHTML([]byte(md), p, renderer)
}
