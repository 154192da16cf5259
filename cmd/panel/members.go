package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/Veraticus/panel-keeper/internal/cli"
	"github.com/Veraticus/panel-keeper/internal/common"
	"github.com/Veraticus/panel-keeper/internal/model"
	"github.com/spf13/cobra"
)

func membersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "members",
		Short: "Manage the tracked merchant set",
	}
	cmd.AddCommand(membersSeedCmd())
	cmd.AddCommand(membersShowCmd())
	return cmd
}

func membersSeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed <period> <file|->",
		Short: "Set the tracked set for a period",
		Long: `Record the initial tracked set for a period.

The file holds one merchant key per line (the first CSV column is used).
Existing membership for the period is replaced.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			period, err := model.ParsePeriod(args[0])
			if err != nil {
				return err
			}

			r, closeFn, err := openInput(cmd, args[1])
			if err != nil {
				return err
			}
			defer closeFn()

			keys, err := readKeys(r)
			if err != nil {
				return err
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := store.SeedPanel(ctx, period, keys); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Seeded %d merchants for %s", len(keys), period)))
			return nil
		},
	}
}

func membersShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <period>",
		Short: "List the tracked set in force for a period",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			period, err := model.ParsePeriod(args[0])
			if err != nil {
				return err
			}
			countOnly, _ := cmd.Flags().GetBool("count")

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			keys, err := store.GetPanel(ctx, period)
			if err != nil {
				return err
			}

			if len(keys) == 0 {
				return common.NewUserError(
					fmt.Sprintf("no merchants tracked in %s; seed one with 'panel members seed'", period),
					common.ErrEmptyPanel)
			}

			out := cmd.OutOrStdout()
			if !countOnly {
				for _, k := range keys {
					fmt.Fprintln(out, k)
				}
			}
			fmt.Fprintln(cmd.ErrOrStderr(), cli.FormatInfo(fmt.Sprintf("%d merchants tracked in %s", len(keys), period)))
			return nil
		},
	}
	cmd.Flags().Bool("count", false, "Only print the member count")
	return cmd
}

// readKeys reads one merchant key per line, skipping blanks, comments, a
// merchant_key header, and duplicates.
func readKeys(r io.Reader) ([]string, error) {
	seen := make(map[string]struct{})
	var keys []string

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, _, _ := strings.Cut(line, ",")
		key = strings.TrimSpace(key)
		if key == "" || strings.EqualFold(key, "merchant_key") {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		keys = append(keys, key)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read members: %w", err)
	}
	if len(keys) == 0 {
		return nil, fmt.Errorf("no merchant keys found")
	}
	return keys, nil
}
