package render

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"nse-dashboard/internal/selection"
	"nse-dashboard/internal/tradingday"
	"nse-dashboard/internal/types"
)

// Styles.
var (
	titleStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	colHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("245"))
	dimStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	gainStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	lossStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	barStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	chipStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("15")).Background(lipgloss.Color("4")).Padding(0, 1)
	errorStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
)

const (
	DefaultBarCols = 40
	colGap         = 2
)

// Percent formats a change with two decimals, e.g. "-1.25%".
func Percent(v float64) string {
	return fmt.Sprintf("%.2f%%", v)
}

// BarWidth is the bar length for ratio as a percentage of maxRatio.
func BarWidth(ratio, maxRatio float64) float64 {
	if maxRatio <= 0 {
		return 0
	}
	return ratio / maxRatio * 100
}

func changeStyle(v float64) lipgloss.Style {
	if v < 0 {
		return lossStyle
	}
	return gainStyle
}

// table lays rows out in left-aligned columns sized to the widest cell.
func table(headers []string, rows [][]string) string {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, r := range rows {
		for i, c := range r {
			if w := lipgloss.Width(c); i < len(widths) && w > widths[i] {
				widths[i] = w
			}
		}
	}

	line := func(cells []string, style func(i int) lipgloss.Style) string {
		parts := make([]string, len(cells))
		for i, c := range cells {
			parts[i] = style(i).Width(widths[i] + colGap).Render(c)
		}
		return strings.TrimRight(lipgloss.JoinHorizontal(lipgloss.Top, parts...), " ")
	}

	var b strings.Builder
	b.WriteString(line(headers, func(int) lipgloss.Style { return colHeaderStyle }))
	b.WriteString("\n")
	for _, r := range rows {
		b.WriteString(line(r, func(int) lipgloss.Style { return lipgloss.NewStyle() }))
		b.WriteString("\n")
	}
	return b.String()
}

func section(title string, body string) string {
	return titleStyle.Render(title) + "\n" + body
}

func empty(msg string) string {
	return dimStyle.Render("  "+msg) + "\n"
}

func SectorPerformance(d tradingday.Date, p *types.SectorPerformance) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Sector performance, "+tradingday.FormatDisplay(d)) + "\n\n")
	b.WriteString(section("Top Gainers", sectorChanges(p.TopGainers)))
	b.WriteString("\n")
	b.WriteString(section("Top Losers", sectorChanges(p.TopLosers)))
	return b.String()
}

func sectorChanges(rows []types.SectorChange) string {
	if len(rows) == 0 {
		return empty("No data")
	}
	cells := make([][]string, len(rows))
	for i, r := range rows {
		cells[i] = []string{r.Name, changeStyle(r.PercentChange).Render(Percent(r.PercentChange))}
	}
	return table([]string{"Sector", "Change"}, cells)
}

// SectorVolume draws the top and bottom sectors as horizontal bars scaled
// to the largest ratio of each list.
func SectorVolume(from, to tradingday.Date, v *types.SectorVolumeRatio, cols int) string {
	if cols <= 0 {
		cols = DefaultBarCols
	}
	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("Sector volume ratio, %s to %s",
		tradingday.FormatDisplay(from), tradingday.FormatDisplay(to))) + "\n\n")
	b.WriteString(section("Top Sectors", volumeBars(v.TopSectors, cols)))
	b.WriteString("\n")
	b.WriteString(section("Bottom Sectors", volumeBars(v.BottomSectors, cols)))
	return b.String()
}

func volumeBars(rows []types.SectorVolume, cols int) string {
	if len(rows) == 0 {
		return empty("No data")
	}
	maxRatio, nameWidth := 0.0, 0
	for _, r := range rows {
		maxRatio = max(maxRatio, r.VolumeRatio)
		nameWidth = max(nameWidth, lipgloss.Width(r.Sector))
	}

	var b strings.Builder
	for _, r := range rows {
		n := int(BarWidth(r.VolumeRatio, maxRatio) / 100 * float64(cols))
		b.WriteString(lipgloss.NewStyle().Width(nameWidth + colGap).Render(r.Sector))
		b.WriteString(barStyle.Render(strings.Repeat("█", max(n, 0))))
		b.WriteString(fmt.Sprintf(" %.2f\n", r.VolumeRatio))
	}
	return b.String()
}

// StockPerformance renders the Nifty 50 movers. A zero date means the
// backend's latest day.
func StockPerformance(d tradingday.Date, p *types.StockPerformance) string {
	label := "latest"
	if !d.IsZero() {
		label = tradingday.FormatDisplay(d)
	}
	var b strings.Builder
	b.WriteString(titleStyle.Render("Nifty 50 movers, "+label) + "\n\n")
	b.WriteString(section("Top Gainers", stockChanges(p.TopGainers)))
	b.WriteString("\n")
	b.WriteString(section("Top Losers", stockChanges(p.TopLosers)))
	return b.String()
}

func stockChanges(rows []types.StockChange) string {
	if len(rows) == 0 {
		return empty("No data")
	}
	cells := make([][]string, len(rows))
	for i, r := range rows {
		cells[i] = []string{r.Symbol, changeStyle(r.PercentChange).Render(Percent(r.PercentChange))}
	}
	return table([]string{"Symbol", "% Change"}, cells)
}

func StockVolumes(from, to tradingday.Date, rows []types.StockVolume) string {
	title := titleStyle.Render(fmt.Sprintf("Volume differences, %s vs %s",
		tradingday.FormatDisplay(from), tradingday.FormatDisplay(to)))
	if len(rows) == 0 {
		return title + "\n" + empty("No data")
	}
	cells := make([][]string, len(rows))
	for i, r := range rows {
		cells[i] = []string{r.Symbol, changeStyle(r.VolumeDifference).Render(fmt.Sprintf("%.2f", r.VolumeDifference))}
	}
	return title + "\n" + table([]string{"Symbol", "Volume Difference"}, cells)
}

// LastDownloaded renders the last report card; nil means nothing yet.
func LastDownloaded(d *tradingday.Date) string {
	if d == nil {
		return dimStyle.Render("No reports downloaded yet") + "\n"
	}
	return "Last downloaded: " + titleStyle.Render(tradingday.LongString(*d)) + "\n"
}

// Selection renders the selected dates as chips.
func Selection(dates []tradingday.WireDate) string {
	if len(dates) == 0 {
		return dimStyle.Render("No dates selected") + "\n"
	}
	chips := make([]string, len(dates))
	for i, w := range dates {
		label := tradingday.InvalidDisplay
		if d, err := w.Date(); err == nil {
			label = tradingday.LongString(d)
		}
		chips[i] = chipStyle.Render(label)
	}
	return fmt.Sprintf("Selected Dates (%d)\n%s\n", len(dates), strings.Join(chips, " "))
}

// Error renders a failure line for the terminal. Validation failures use
// their user-facing message.
func Error(err error) string {
	msg := err.Error()
	var ve *selection.ValidationError
	if errors.As(err, &ve) {
		msg = ve.Message()
	}
	return errorStyle.Render("Error: ") + msg + "\n"
}
