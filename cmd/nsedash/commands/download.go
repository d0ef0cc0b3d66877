package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"nse-dashboard/internal/render"
)

func lastDateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "last-date",
		Short: "Show the last downloaded report date",
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := session.LastDownloaded(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), render.LastDownloaded(d))
			return nil
		},
	}
}

func downloadCmd() *cobra.Command {
	var (
		dates    []string
		from, to string
	)

	cmd := &cobra.Command{
		Use:   "download",
		Short: "Download reports for the selected trading days",
		Example: `  nsedash download --date 2025-10-24
  nsedash download --from 2025-10-20 --to 2025-10-24
  nsedash download --date 23102025 --date 24102025`,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			picked, err := parseDates(dates)
			if err != nil {
				return err
			}
			for _, d := range picked {
				if err := session.AddDate(d); err != nil {
					return err
				}
			}
			if from != "" || to != "" {
				r, err := parseRange(from, to)
				if err != nil {
					return err
				}
				if _, err := session.AddRange(r); err != nil {
					return err
				}
			}

			fmt.Fprint(out, render.Selection(session.Selection.Dates()))
			_, err = session.Download(cmd.Context())
			fmt.Fprint(out, render.Downloads(session.Tracker.Items()))
			return err
		},
	}

	cmd.Flags().StringSliceVarP(&dates, "date", "d", nil, "trading day to download (YYYY-MM-DD or DDMMYYYY, repeatable)")
	cmd.Flags().StringVar(&from, "from", "", "first day of a range")
	cmd.Flags().StringVar(&to, "to", "", "last day of a range")
	return cmd
}
