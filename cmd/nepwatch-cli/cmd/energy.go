package cmd

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"
)

var energyDay string

func init() {
	energyCmd.Flags().StringVar(&energyDay, "day", "", "day as YYYY-MM-DD (defaults to today)")
	rootCmd.AddCommand(energyCmd)
}

var energyCmd = &cobra.Command{
	Use:   "energy",
	Short: "Prints the energy produced over a day in kWh.",
	Run: func(cmd *cobra.Command, args []string) {
		query := map[string]string{}
		if energyDay != "" {
			query["day"] = energyDay
		}

		var res struct {
			Day      string  `json:"day"`
			KWh      float64 `json:"kwh"`
			Readings int     `json:"readings"`
		}
		if err := fetchJSON(cmd, "/api/energy", query, &res); err != nil {
			log.Fatal(err)
		}

		fmt.Printf("%s: %.2f kWh (%d readings)\n", res.Day, res.KWh, res.Readings)
	},
}
