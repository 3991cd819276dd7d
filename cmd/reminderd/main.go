package main

import (
	"fmt"
	"os"

	"peptrack_reminders/internal/infra/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "reminderd: %v\n", err)
		os.Exit(1)
	}
}
