package tradingday

import "fmt"

// InvalidDisplay is shown in place of a date that could not be parsed.
const InvalidDisplay = "Invalid date"

// FormatDisplay renders d as "24th Oct, 2025".
func FormatDisplay(d Date) string {
	return fmt.Sprintf("%d%s %s, %d", d.Day, ordinalSuffix(d.Day), d.Month.String()[:3], d.Year)
}

// FormatDisplayWire is FormatDisplay for a wire string. It never fails:
// unparseable input yields InvalidDisplay.
func FormatDisplayWire(s string) string {
	d, err := ParseWire(s)
	if err != nil {
		return InvalidDisplay
	}
	return FormatDisplay(d)
}

// LongString renders d as "Fri Oct 24 2025".
func LongString(d Date) string {
	return d.Time().Format("Mon Jan 02 2006")
}

func ordinalSuffix(day int) string {
	switch day % 100 {
	case 11, 12, 13:
		return "th"
	}
	switch day % 10 {
	case 1:
		return "st"
	case 2:
		return "nd"
	case 3:
		return "rd"
	default:
		return "th"
	}
}
