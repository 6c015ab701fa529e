package main

import (
	"os"

	"github.com/wonny/moat/backend/cmd/moat/commands"
)

// main is the entry point for the MOAT CLI
// ⭐ 통합 CLI 진입점: go run ./cmd/moat [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
