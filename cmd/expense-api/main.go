package main

import (
	"os"

	"expensetracker/internal/commands"
)

func main() {
	cmd := commands.Standalone(commands.NewServeCommand(), "expense-api")
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
