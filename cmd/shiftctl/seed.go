package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/forgo/shiftboard/api/internal/service"
	"github.com/spf13/cobra"
)

var seedOpts service.SeedRequest

// seedCmd fills a development database with volunteers and upcoming shifts
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Fill a development database with mock volunteers and shifts",
	Long: `Create an admin, a pool of volunteers and shifts for the coming days,
with part of each shift already confirmed. Every seeded account shares the
password "` + service.SeedPassword + `" and an email prefix that
"shiftctl seed cleanup" uses to remove them again.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()
		svc, err := connect(ctx)
		if err != nil {
			return err
		}
		defer svc.Close()

		if svc.cfg.IsProduction() {
			return errors.New("refusing to seed a production database")
		}

		result, err := svc.seeder.Seed(ctx, seedOpts)
		if err != nil {
			return err
		}
		printSeed(cmd.OutOrStdout(), result)
		return nil
	},
}

var seedCleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Remove seeded users, shifts and signups",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()
		svc, err := connect(ctx)
		if err != nil {
			return err
		}
		defer svc.Close()

		result, err := svc.seeder.Cleanup(ctx, seedOpts.Prefix)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Removed %d seeded users in %dms\n", result.Deleted, result.Duration)
		return nil
	},
}

func init() {
	seedCmd.PersistentFlags().StringVar(&seedOpts.Prefix, "prefix", service.DefaultSeedPrefix, "Email prefix marking seeded accounts")
	seedCmd.Flags().IntVar(&seedOpts.Volunteers, "volunteers", 40, "Volunteers to create")
	seedCmd.Flags().IntVar(&seedOpts.Days, "days", 14, "Days of shifts to create, starting tomorrow")
	seedCmd.Flags().Float64Var(&seedOpts.FillRatio, "fill", 0.6, "Share of each shift's capacity to confirm")
	seedCmd.AddCommand(seedCleanupCmd)
}

func printSeed(out io.Writer, r *service.SeedResult) {
	fmt.Fprintln(out, "Seed Data")
	fmt.Fprintln(out, "=========")
	fmt.Fprintf(out, "Admin:        %s\n", r.AdminID)
	fmt.Fprintf(out, "Volunteers:   %d\n", r.Volunteers)
	fmt.Fprintf(out, "Shift types:  %d new\n", r.ShiftTypes)
	fmt.Fprintf(out, "Shifts:       %d\n", r.Shifts)
	fmt.Fprintf(out, "Signups:      %d\n", r.Signups)
	fmt.Fprintf(out, "Took:         %dms\n", r.Duration)
}
