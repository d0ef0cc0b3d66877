package commands

import (
	"nse-dashboard/internal/selection"
	"nse-dashboard/internal/tradingday"
)

// dateOrDefault parses s, falling back to the latest trading day up to
// today when s is empty.
func dateOrDefault(s string) (tradingday.Date, error) {
	if s == "" {
		return tradingday.PreviousTradingDay(tradingday.Today()), nil
	}
	return tradingday.ParseAny(s)
}

func parseDates(raw []string) ([]tradingday.Date, error) {
	out := make([]tradingday.Date, 0, len(raw))
	for _, s := range raw {
		d, err := tradingday.ParseAny(s)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

// parseRange leaves an endpoint nil when its flag is empty so validation
// reports it.
func parseRange(from, to string) (selection.Range, error) {
	var r selection.Range
	if from != "" {
		d, err := tradingday.ParseAny(from)
		if err != nil {
			return r, err
		}
		r.From = &d
	}
	if to != "" {
		d, err := tradingday.ParseAny(to)
		if err != nil {
			return r, err
		}
		r.To = &d
	}
	return r, nil
}
