package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"nse-dashboard/internal/render"
	"nse-dashboard/internal/tradingday"
)

func sectorsCmd() *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "sectors",
		Short: "Top sector gainers and losers for a day",
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := dateOrDefault(date)
			if err != nil {
				return err
			}
			perf, err := session.SectorPerformance(cmd.Context(), d)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), render.SectorPerformance(d, perf))
			return nil
		},
	}
	cmd.Flags().StringVarP(&date, "date", "d", "", "trading day (default: latest trading day)")
	cmd.AddCommand(sectorVolumeCmd())
	return cmd
}

func sectorVolumeCmd() *cobra.Command {
	var (
		from, to string
		cols     int
	)

	cmd := &cobra.Command{
		Use:   "volume",
		Short: "Sector volume ratios over a date range",
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := parseRange(from, to)
			if err != nil {
				return err
			}
			ratio, err := session.SectorVolume(cmd.Context(), r)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), render.SectorVolume(*r.From, *r.To, ratio, cols))
			return nil
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "start of the range")
	cmd.Flags().StringVar(&to, "to", "", "end of the range")
	cmd.Flags().IntVar(&cols, "width", render.DefaultBarCols, "bar chart width in columns")
	return cmd
}

func stocksCmd() *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "stocks",
		Short: "Nifty 50 top gainers and losers",
		RunE: func(cmd *cobra.Command, args []string) error {
			var d tradingday.Date
			if date != "" {
				var err error
				if d, err = tradingday.ParseAny(date); err != nil {
					return err
				}
			}
			perf, err := session.TopMovers(cmd.Context(), d)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), render.StockPerformance(d, perf))
			return nil
		},
	}
	cmd.Flags().StringVarP(&date, "date", "d", "", "trading day (default: backend's latest)")
	cmd.AddCommand(stockVolumeCmd())
	return cmd
}

func stockVolumeCmd() *cobra.Command {
	var dates []string

	cmd := &cobra.Command{
		Use:     "volume",
		Short:   "Stock volume differences between two days",
		Example: "  nsedash stocks volume --dates 2025-10-23,2025-10-24",
		RunE: func(cmd *cobra.Command, args []string) error {
			picked, err := parseDates(dates)
			if err != nil {
				return err
			}
			rows, err := session.VolumeDifferences(cmd.Context(), picked)
			if err != nil {
				return err
			}
			from, to := picked[0], picked[1]
			if to.Before(from) {
				from, to = to, from
			}
			fmt.Fprint(cmd.OutOrStdout(), render.StockVolumes(from, to, rows))
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&dates, "dates", nil, "exactly two trading days")
	return cmd
}
