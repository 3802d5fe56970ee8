// Package main provides the standardsctl binary.
package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/solaius/standards-registry/pkg/semver"
)

func newCreateCmd() *cobra.Command {
	var (
		description string
		bump        string
	)

	cmd := &cobra.Command{
		Use:   "create FILE",
		Short: "Record a new version of a document",
		Long: `Record a new immutable version of the document at the repository-relative
path FILE. The live content is hashed and snapshotted; the version id is
derived from the latest recorded version using the requested bump.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCreate(args[0], description, bump)
		},
	}

	cmd.Flags().StringVarP(&description, "description", "d", "", "Human-readable change summary")
	cmd.Flags().StringVar(&bump, "bump", "minor", "Version increment: major, minor, patch")

	return cmd
}

func runCreate(file, description, bump string) error {
	kind, err := semver.ParseBump(bump)
	if err != nil {
		return err
	}
	c, err := newController()
	if err != nil {
		return err
	}
	v, err := c.Create(context.Background(), file, description, kind)
	if err != nil {
		return err
	}
	fmt.Printf("Created version %s of %s\n", v.VersionID, v.File)
	return nil
}

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List recorded versions",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList()
		},
	}
}

func runList() error {
	format, err := parseOutputFormat(outputFlag)
	if err != nil {
		return err
	}
	c, err := newController()
	if err != nil {
		return err
	}

	versions := c.Versions()
	headers := []string{"version", "file", "created", "active", "stable", "description"}
	rows := make([][]string, 0, len(versions))
	for _, v := range versions {
		rows = append(rows, []string{
			v.VersionID,
			v.File,
			v.Timestamp.Format(time.RFC3339),
			strconv.FormatBool(v.Active),
			strconv.FormatBool(v.Stable),
			v.Description,
		})
	}
	return printOutput(os.Stdout, format, versions, headers, rows)
}

func newShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show VERSION",
		Short: "Show one version in detail",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(args[0])
		},
	}
}

func runShow(id string) error {
	format, err := parseOutputFormat(outputFlag)
	if err != nil {
		return err
	}
	c, err := newController()
	if err != nil {
		return err
	}
	v, err := c.Get(id)
	if err != nil {
		return err
	}
	headers := []string{"field", "value"}
	rows := [][]string{
		{"version", v.VersionID},
		{"file", v.File},
		{"hash", v.Hash},
		{"created", v.Timestamp.Format(time.RFC3339)},
		{"active", strconv.FormatBool(v.Active)},
		{"stable", strconv.FormatBool(v.Stable)},
		{"description", v.Description},
	}
	return printOutput(os.Stdout, format, v, headers, rows)
}

func newActivateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "activate VERSION",
		Short: "Activate a version",
		Long: `Activate the given version after verifying that the live document
content still matches its recorded hash.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runActivate(args[0])
		},
	}
}

func runActivate(id string) error {
	c, err := newController()
	if err != nil {
		return err
	}
	if err := c.Activate(context.Background(), id); err != nil {
		return err
	}
	fmt.Printf("Version %s is now active\n", id)
	return nil
}

func newRollbackCmd() *cobra.Command {
	var lastStable bool

	cmd := &cobra.Command{
		Use:   "rollback [VERSION]",
		Short: "Roll back to a version",
		Long: `Roll back to the given version, restoring the document content from its
snapshot when the live file is missing or has drifted.

With --last-stable the target is the newest version marked stable and no
VERSION argument is accepted.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if lastStable {
				if len(args) != 0 {
					return fmt.Errorf("--last-stable does not take a VERSION argument")
				}
				return runRollbackLastStable()
			}
			if len(args) != 1 {
				return fmt.Errorf("VERSION argument is required (or use --last-stable)")
			}
			return runRollback(args[0])
		},
	}

	cmd.Flags().BoolVar(&lastStable, "last-stable", false, "Roll back to the newest stable version")

	return cmd
}

func runRollback(id string) error {
	c, err := newController()
	if err != nil {
		return err
	}
	if err := c.RollbackTo(context.Background(), id); err != nil {
		return err
	}
	fmt.Printf("Rolled back to version %s\n", id)
	return nil
}

func runRollbackLastStable() error {
	c, err := newController()
	if err != nil {
		return err
	}
	id, err := c.RollbackToLastStable(context.Background())
	if err != nil {
		return err
	}
	fmt.Printf("Rolled back to last stable version %s\n", id)
	return nil
}

func newStableCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stable VERSION",
		Short: "Mark a version as stable",
		Long:  "Mark the given version as a safe rollback target for --last-stable.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStable(args[0])
		},
	}
}

func runStable(id string) error {
	c, err := newController()
	if err != nil {
		return err
	}
	if err := c.MarkStable(context.Background(), id); err != nil {
		return err
	}
	fmt.Printf("Version %s marked stable\n", id)
	return nil
}
