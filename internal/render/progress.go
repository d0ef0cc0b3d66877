package render

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"nse-dashboard/internal/bhavcopy"
	"nse-dashboard/internal/download"
	"nse-dashboard/internal/interfaces"
)

var (
	pendingStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	downloadingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	currentPageStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("0")).Background(lipgloss.Color("6"))
	toastStyle       = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
)

const progressCols = 20

func statusStyle(s download.Status) lipgloss.Style {
	switch s {
	case download.StatusSuccess:
		return gainStyle
	case download.StatusError:
		return lossStyle
	case download.StatusDownloading:
		return downloadingStyle
	default:
		return pendingStyle
	}
}

// Downloads renders one progress row per item of the current batch.
func Downloads(items []download.Item) string {
	if len(items) == 0 {
		return dimStyle.Render("No downloads") + "\n"
	}
	cells := make([][]string, len(items))
	for i, it := range items {
		filled := it.Progress * progressCols / 100
		bar := barStyle.Render(strings.Repeat("█", filled)) + dimStyle.Render(strings.Repeat("░", progressCols-filled))
		status := statusStyle(it.Status).Render(string(it.Status))
		if it.Error != "" {
			status += " " + dimStyle.Render(it.Error)
		}
		cells[i] = []string{it.Display, bar, fmt.Sprintf("%d%%", it.Progress), status}
	}
	return table([]string{"Date", "Progress", "", "Status"}, cells)
}

// Bhavcopy renders the viewer's current page followed by the pager line.
func Bhavcopy(v *bhavcopy.Viewer) string {
	var b strings.Builder

	title := "Bhavcopy, " + v.Date()
	if v.Search() != "" {
		title += ", symbol " + v.Search()
	}
	b.WriteString(titleStyle.Render(title) + "\n")

	rows := v.Rows()
	if len(rows) == 0 {
		b.WriteString(empty("No data found"))
	} else {
		cells := make([][]string, len(rows))
		for i, r := range rows {
			cells[i] = []string{
				r.Symbol, r.Series,
				price(r.Open), price(r.High), price(r.Low), price(r.Close),
				price(r.Last), price(r.PrevClose), r.Timestamp,
			}
		}
		b.WriteString(table([]string{"Symbol", "Series", "Open", "High", "Low", "Close", "Last", "Prev Close", "Date"}, cells))
	}

	b.WriteString(Pager(v))
	return b.String()
}

// Pager renders "Page n of m" and the visible page window, current page
// highlighted.
func Pager(v *bhavcopy.Viewer) string {
	pages := v.VisiblePages()
	parts := make([]string, len(pages))
	for i, p := range pages {
		label := strconv.Itoa(p)
		if p == v.Page() {
			parts[i] = currentPageStyle.Render("[" + label + "]")
		} else {
			parts[i] = label
		}
	}
	line := strings.Join(parts, " ")
	if v.HasPrev() {
		line = "< " + line
	}
	if v.HasNext() {
		line += " >"
	}
	return fmt.Sprintf("Page %d of %d  %s\n", v.Page(), v.TotalPages(), line)
}

func price(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// Notifier prints download notifications to a terminal.
type Notifier struct {
	mu sync.Mutex
	w  io.Writer
}

var _ interfaces.Notifier = (*Notifier)(nil)

func NewNotifier(w io.Writer) *Notifier {
	return &Notifier{w: w}
}

func (n *Notifier) Notify(ctx context.Context, title, description string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	fmt.Fprintf(n.w, "%s %s\n", toastStyle.Render(title), description)
}
