package main

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/ovaphlow/pitchfork/service-issue-tracker/internal/output"
)

func main() {
	// load .env file if present so os.Getenv picks values from it
	// this is best-effort: if no .env exists, continue (use defaults or real env)
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		output.New().Error("%v", err)
		os.Exit(1)
	}
}
