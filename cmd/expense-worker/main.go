package main

import (
	"os"

	"expensetracker/internal/commands"
)

func main() {
	cmd := commands.Standalone(commands.NewWorkerCommand(), "expense-worker")
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
