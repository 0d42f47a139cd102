package cmd

import (
	"encoding/csv"
	"fmt"
	"log"
	"os"
	"strconv"

	"nepwatch-backend/cmd/nepwatch-cli/utils"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var (
	seriesMode  string
	seriesMonth string
	seriesDay   string
	seriesCsv   bool
)

func init() {
	seriesCmd.Flags().StringVar(&seriesMode, "mode", "month", "month or day")
	seriesCmd.Flags().StringVar(&seriesMonth, "month", "", "month as YYYY-MM (mode=month, defaults to current)")
	seriesCmd.Flags().StringVar(&seriesDay, "day", "", "day as YYYY-MM-DD (mode=day, defaults to today)")
	seriesCmd.Flags().BoolVar(&seriesCsv, "csv", false, "write csv to stdout instead of a table")
	rootCmd.AddCommand(seriesCmd)
}

var seriesCmd = &cobra.Command{
	Use:   "series",
	Short: "Prints the mean power series for a month (per day) or a day (per hour).",
	Run: func(cmd *cobra.Command, args []string) {
		query := map[string]string{"mode": seriesMode}
		if seriesMonth != "" {
			query["month"] = seriesMonth
		}
		if seriesDay != "" {
			query["day"] = seriesDay
		}

		var res series
		if err := fetchJSON(cmd, "/api/series", query, &res); err != nil {
			log.Fatal(err)
		}

		if seriesCsv {
			writeSeriesCsv(res)
			return
		}

		t := utils.NewTable()
		t.SetTitle(res.Title)
		t.AppendHeader(table.Row{"Period", "Mean power (W)"})
		for i, label := range res.Labels {
			t.AppendRow(table.Row{label, fmt.Sprintf("%.1f", res.Values[i])})
		}
		t.Render()
	},
}

func writeSeriesCsv(res series) {
	w := csv.NewWriter(os.Stdout)
	_ = w.Write([]string{"period", "mean_power_w"})
	for i, label := range res.Labels {
		_ = w.Write([]string{label, strconv.FormatFloat(res.Values[i], 'f', -1, 64)})
	}
	w.Flush()
}
