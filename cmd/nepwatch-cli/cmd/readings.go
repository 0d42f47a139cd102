package cmd

import (
	"fmt"
	"log"
	"strconv"

	"nepwatch-backend/cmd/nepwatch-cli/utils"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var readingsMinutes int

func init() {
	readingsCmd.Flags().IntVar(&readingsMinutes, "minutes", 60, "window size in minutes")
	rootCmd.AddCommand(readingsCmd)
}

var readingsCmd = &cobra.Command{
	Use:   "readings",
	Short: "Prints recent readings averaged into 5-minute buckets.",
	Run: func(cmd *cobra.Command, args []string) {
		var res series
		err := fetchJSON(cmd, "/api/recent", map[string]string{
			"minutes": strconv.Itoa(readingsMinutes),
		}, &res)
		if err != nil {
			log.Fatal(err)
		}

		t := utils.NewTable()
		t.SetTitle(res.Title)
		t.AppendHeader(table.Row{"Time", "Mean power (W)"})
		for i, label := range res.Labels {
			t.AppendRow(table.Row{label, fmt.Sprintf("%.1f", res.Values[i])})
		}
		t.Render()
	},
}
