package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/forgo/shiftboard/api/internal/model"
	"github.com/forgo/shiftboard/api/internal/service"
	"github.com/spf13/cobra"
)

var (
	actorID      string
	generateDays int
	rosterFrom   string
	rosterTo     string
	rosterOut    string
)

// rulesCmd groups auto-accept rule commands
var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Manage auto-accept rules",
}

var rulesValidateCmd = &cobra.Command{
	Use:   "validate <file.yaml>",
	Short: "Check a rules file without touching the database",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()
		return validateRules(cmd.OutOrStdout(), f)
	},
}

var rulesImportCmd = &cobra.Command{
	Use:   "import <file.yaml>",
	Short: "Create or update rules from a YAML file",
	Long: `Import auto-accept rules from YAML. Rules are matched to existing ones by
name: matches are updated, the rest are created.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()

		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()
		svc, err := connect(ctx)
		if err != nil {
			return err
		}
		defer svc.Close()

		result, err := svc.rules.ImportRules(ctx, actorID, f)
		if result != nil {
			fmt.Fprintf(cmd.OutOrStdout(), "Created %d, updated %d rules\n", result.Created, result.Updated)
		}
		return err
	},
}

// regularsCmd groups regular volunteer commands
var regularsCmd = &cobra.Command{
	Use:   "regulars",
	Short: "Work with regular volunteer schedules",
}

var regularsGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Create signups for regular volunteers on upcoming shifts",
	RunE: func(cmd *cobra.Command, args []string) error {
		if generateDays < 0 {
			return errors.New("--days must not be negative")
		}
		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()
		svc, err := connect(ctx)
		if err != nil {
			return err
		}
		defer svc.Close()

		report, err := svc.regulars.Generate(ctx, generateDays)
		if err != nil {
			return err
		}
		printReport(cmd.OutOrStdout(), report)
		return nil
	},
}

// rosterCmd groups roster commands
var rosterCmd = &cobra.Command{
	Use:   "roster",
	Short: "Export shift rosters",
}

var rosterExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write an XLSX roster for a date range",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()
		svc, err := connect(ctx)
		if err != nil {
			return err
		}
		defer svc.Close()

		from, to, err := rosterRange(rosterFrom, rosterTo, svc.loc, time.Now())
		if err != nil {
			return err
		}

		var out io.Writer = cmd.OutOrStdout()
		if rosterOut != "-" {
			f, err := os.Create(rosterOut)
			if err != nil {
				return err
			}
			defer f.Close()
			out = f
		}
		if err := svc.spreadsheet.ExportRoster(ctx, from, to, out); err != nil {
			return err
		}
		if rosterOut != "-" {
			fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %s\n", rosterOut)
		}
		return nil
	},
}

// shiftsCmd groups shift commands
var shiftsCmd = &cobra.Command{
	Use:   "shifts",
	Short: "Manage shifts",
}

var shiftsImportCmd = &cobra.Command{
	Use:   "import <file.xlsx>",
	Short: "Create shifts from a spreadsheet",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()

		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()
		svc, err := connect(ctx)
		if err != nil {
			return err
		}
		defer svc.Close()

		result, err := svc.spreadsheet.ImportShifts(ctx, actorID, f)
		if err != nil {
			return err
		}
		return printImport(cmd.OutOrStdout(), result)
	},
}

func init() {
	rulesImportCmd.Flags().StringVar(&actorID, "as", "", "Admin user ID recorded as the creator")
	_ = rulesImportCmd.MarkFlagRequired("as")
	rulesCmd.AddCommand(rulesValidateCmd, rulesImportCmd)

	regularsGenerateCmd.Flags().IntVar(&generateDays, "days", 0, "Days ahead to cover (0 uses the configured horizon)")
	regularsCmd.AddCommand(regularsGenerateCmd)

	rosterExportCmd.Flags().StringVar(&rosterFrom, "from", "", "First day to include (YYYY-MM-DD, default today)")
	rosterExportCmd.Flags().StringVar(&rosterTo, "to", "", "Last day to include (YYYY-MM-DD, default from + 6 days)")
	rosterExportCmd.Flags().StringVarP(&rosterOut, "out", "o", "roster.xlsx", "Output file, or - for stdout")
	rosterCmd.AddCommand(rosterExportCmd)

	shiftsImportCmd.Flags().StringVar(&actorID, "as", "", "Admin user ID recorded as the creator")
	_ = shiftsImportCmd.MarkFlagRequired("as")
	shiftsCmd.AddCommand(shiftsImportCmd)
}

func validateRules(out io.Writer, r io.Reader) error {
	rules, err := service.ParseRulesFile(r)
	if err != nil {
		return err
	}
	for _, rule := range rules {
		state := "enabled"
		if rule.Enabled != nil && !*rule.Enabled {
			state = "disabled"
		}
		fmt.Fprintf(out, "  %-30s priority %-4d %s\n", rule.Name, rule.Priority, state)
	}
	fmt.Fprintf(out, "%d rules OK\n", len(rules))
	return nil
}

// rosterRange turns inclusive calendar days into the half-open range
// ExportRoster expects.
func rosterRange(from, to string, loc *time.Location, now time.Time) (time.Time, time.Time, error) {
	now = now.In(loc)
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
	if from != "" {
		t, err := time.ParseInLocation(model.DateLayout, from, loc)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid --from: %w", err)
		}
		start = t
	}
	end := start.AddDate(0, 0, 7)
	if to != "" {
		t, err := time.ParseInLocation(model.DateLayout, to, loc)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid --to: %w", err)
		}
		end = t.AddDate(0, 0, 1)
	}
	if !end.After(start) {
		return time.Time{}, time.Time{}, errors.New("--to must not be before --from")
	}
	return start, end, nil
}

func printReport(out io.Writer, report *model.GenerationReport) {
	fmt.Fprintln(out, "Regular Signup Generation")
	fmt.Fprintln(out, "=========================")
	fmt.Fprintf(out, "Shifts scanned:    %d\n", report.ShiftsScanned)
	fmt.Fprintf(out, "Created:           %d\n", report.Created)
	fmt.Fprintf(out, "Waitlisted:        %d\n", report.Waitlisted)
	fmt.Fprintf(out, "Already signed up: %d\n", report.SkippedExisting)
	fmt.Fprintf(out, "Time conflicts:    %d\n", report.SkippedConflict)
	fmt.Fprintf(out, "Missing consent:   %d\n", report.SkippedConsent)
	for _, e := range report.Errors {
		fmt.Fprintf(out, "  error: %s\n", e)
	}
}

func printImport(out io.Writer, result *model.ShiftImportResult) error {
	fmt.Fprintf(out, "Created %d shifts\n", result.Created)
	for _, e := range result.Errors {
		fmt.Fprintf(out, "  row %d: %s\n", e.Row, e.Message)
	}
	if len(result.Errors) > 0 {
		return fmt.Errorf("%d rows rejected", len(result.Errors))
	}
	return nil
}
