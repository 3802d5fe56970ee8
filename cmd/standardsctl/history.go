// Package main provides the standardsctl binary.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

func newHistoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "Show the history of versioning actions",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory()
		},
	}
}

func runHistory() error {
	format, err := parseOutputFormat(outputFlag)
	if err != nil {
		return err
	}
	c, err := newController()
	if err != nil {
		return err
	}

	history := c.History()
	headers := []string{"time", "action", "version", "user"}
	rows := make([][]string, 0, len(history))
	for _, e := range history {
		rows = append(rows, []string{
			e.Timestamp.Format(time.RFC3339),
			e.Action,
			e.VersionID,
			e.User,
		})
	}
	return printOutput(os.Stdout, format, history, headers, rows)
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Summarize the repository",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus()
		},
	}
}

func runStatus() error {
	c, err := newController()
	if err != nil {
		return err
	}

	versions := c.Versions()
	stable := 0
	for _, v := range versions {
		if v.Stable {
			stable++
		}
	}

	fmt.Printf("Repository: %s\n", c.Repo())
	fmt.Printf("Versions:   %d (%d stable)\n", len(versions), stable)
	if active, ok := c.Active(); ok {
		fmt.Printf("Active:     %s (%s)\n", active.VersionID, active.File)
	} else {
		fmt.Println("Active:     none")
	}
	return nil
}
