package main

import (
	"os"

	"github.com/wonny/leapscreener/cmd/leapscreener/commands"
)

// main is the entry point for the screener CLI
// ⭐ 통합 CLI 진입점: go run ./cmd/leapscreener [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
