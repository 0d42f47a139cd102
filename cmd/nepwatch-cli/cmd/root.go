package cmd

import (
	"fmt"
	"os"

	"nepwatch-backend/lib/telemetry"

	"github.com/go-resty/resty/v2"
	"github.com/spf13/cobra"
)

var BaseUrl string

var client *resty.Client

var rootCmd = &cobra.Command{
	Use:   "nepwatch-cli",
	Short: "nepwatch-cli queries the nepwatch dashboard service.",
}

func Execute() {
	client = resty.New().SetBaseURL(BaseUrl)
	telemetry.InstrumentResty(client, "cmd/nepwatch-cli")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// series is the shape every chart endpoint responds with.
type series struct {
	Mode   string    `json:"mode"`
	Title  string    `json:"title"`
	Labels []string  `json:"labels"`
	Values []float64 `json:"values"`
}

func fetchJSON(cmd *cobra.Command, path string, query map[string]string, out any) error {
	res, err := client.R().
		SetContext(cmd.Context()).
		SetQueryParams(query).
		SetResult(out).
		Get(path)
	if err != nil {
		return err
	}
	if res.IsError() {
		return fmt.Errorf("%s: %s", res.Status(), res.String())
	}
	return nil
}
