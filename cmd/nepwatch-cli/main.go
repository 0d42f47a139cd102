package main

import (
	"os"

	"nepwatch-backend/cmd/nepwatch-cli/cmd"
)

func main() {
	baseUrl, ok := os.LookupEnv("NEPWATCH_BASE_URL")
	if !ok {
		baseUrl = "http://localhost:8080"
	}
	cmd.BaseUrl = baseUrl

	cmd.Execute()
}
