package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/julianstephens/growthtrack/internal/constants"
	"github.com/julianstephens/growthtrack/internal/models"
)

const cell = "■"

var rowLabels = [7]string{"Mon", "", "Wed", "", "Fri", "", ""}

// weekRow returns the row of d in a Monday-first week
func weekRow(d time.Time) int {
	return (int(d.Weekday()) + 6) % 7
}

// RenderHeatmap draws the year as a week-column grid, one cell per day
func RenderHeatmap(c models.ContributionYear) string {
	if len(c.Data) == 0 {
		return mutedStyle.Render(fmt.Sprintf("No data for %d", c.Year))
	}

	first, err := time.Parse(constants.DateFormat, c.Data[0].Date)
	if err != nil {
		return errorStyle.Render(fmt.Sprintf("invalid date %q", c.Data[0].Date))
	}
	offset := weekRow(first)
	weeks := (offset + len(c.Data) + 6) / 7

	grid := make([][]string, 7)
	for r := range grid {
		grid[r] = make([]string, weeks)
		for w := range grid[r] {
			grid[r][w] = " "
		}
	}

	months := make([]string, weeks)
	for i, day := range c.Data {
		pos := offset + i
		level := min(max(day.Level, 0), 4)
		grid[pos%7][pos/7] = levelStyles[level].Render(cell)

		if strings.HasSuffix(day.Date, "-01") {
			if d, err := time.Parse(constants.DateFormat, day.Date); err == nil {
				months[pos/7] = d.Format("Jan")
			}
		}
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("%d contributions in %d", c.TotalContributions, c.Year)))
	b.WriteString("\n\n")
	b.WriteString("    " + monthHeader(months) + "\n")
	for r, row := range grid {
		fmt.Fprintf(&b, "%-3s %s\n", rowLabels[r], strings.Join(row, " "))
	}

	legend := make([]string, len(levelStyles))
	for i, style := range levelStyles {
		legend[i] = style.Render(cell)
	}
	b.WriteString("\n    " + mutedStyle.Render("Less ") + strings.Join(legend, " ") + mutedStyle.Render(" More"))
	return b.String()
}

// monthHeader lays month names over their first week, skipping names that would overlap
func monthHeader(months []string) string {
	line := []rune(strings.Repeat(" ", len(months)*2))
	next := 0
	for w, m := range months {
		col := w * 2
		if m == "" || col < next || col+len(m) > len(line) {
			continue
		}
		copy(line[col:], []rune(m))
		next = col + len(m) + 1
	}
	return strings.TrimRight(string(line), " ")
}
