package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"nse-dashboard/internal/bhavcopy"
	"nse-dashboard/internal/render"
	"nse-dashboard/internal/tradingday"
)

func bhavcopyCmd() *cobra.Command {
	var (
		symbol, date string
		page         int
	)

	cmd := &cobra.Command{
		Use:   "bhavcopy",
		Short: "Browse the end-of-day bhavcopy table",
		RunE: func(cmd *cobra.Command, args []string) error {
			v := bhavcopy.NewViewer()
			v.SetPageSize(cfg.Viewer.PageSize)
			v.SetSearch(symbol)
			if date != "" && date != bhavcopy.LatestDate {
				d, err := tradingday.ParseAny(date)
				if err != nil {
					return err
				}
				v.SetDate(tradingday.ToWire(d))
			}
			v.SetPage(page)

			if err := session.Bhavcopy(cmd.Context(), v); err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), render.Bhavcopy(v))
			return nil
		},
	}
	cmd.Flags().StringVarP(&symbol, "symbol", "s", "", "filter by symbol")
	cmd.Flags().StringVarP(&date, "date", "d", bhavcopy.LatestDate, "report day or \"latest\"")
	cmd.Flags().IntVarP(&page, "page", "p", 1, "page number")
	return cmd
}
