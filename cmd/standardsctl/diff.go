// Package main provides the standardsctl binary.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newCompareCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "compare FROM TO",
		Short: "Compare two versions",
		Long: `Compare the recorded content of two versions. Prints a similarity ratio,
line add/remove counts and a unified diff.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompare(args[0], args[1])
		},
	}
}

func runCompare(from, to string) error {
	format, err := parseOutputFormat(outputFlag)
	if err != nil {
		return err
	}
	c, err := newController()
	if err != nil {
		return err
	}
	cmp, err := c.Compare(context.Background(), from, to)
	if err != nil {
		return err
	}

	if format != outputTable {
		return printOutput(os.Stdout, format, cmp, nil, nil)
	}

	fmt.Printf("Comparing %s -> %s\n", cmp.From, cmp.To)
	fmt.Printf("  similarity: %.2f%%\n", cmp.Similarity*100)
	fmt.Printf("  added:      %d lines\n", cmp.Additions)
	fmt.Printf("  removed:    %d lines\n", cmp.Deletions)
	if cmp.Diff != "" {
		fmt.Println()
		fmt.Print(cmp.Diff)
	}
	return nil
}

func newChangelogCmd() *cobra.Command {
	var (
		from string
		to   string
	)

	cmd := &cobra.Command{
		Use:   "changelog",
		Short: "Render a changelog across versions",
		Long: `Render a Markdown changelog over the recorded versions in ascending
order, with pairwise diff statistics between consecutive versions.
By default the full range is rendered; use --from/--to to narrow it.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChangelog(from, to)
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "Oldest version to include")
	cmd.Flags().StringVar(&to, "to", "", "Newest version to include")

	return cmd
}

func runChangelog(from, to string) error {
	c, err := newController()
	if err != nil {
		return err
	}
	text, err := c.Changelog(context.Background(), from, to)
	if err != nil {
		return err
	}
	fmt.Print(text)
	return nil
}
