package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/spf13/cobra"
)

var (
	checkFormat  string
	checkTimeout time.Duration
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate domain values against a form",
	Long: `Restores --input into the form, replays every field through its codec and
validators and reports the errors. Exits non-zero when a field is invalid.`,
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().StringVar(&checkFormat, "format", "text", "report format (text, json)")
	checkCmd.Flags().DurationVar(&checkTimeout, "timeout", 30*time.Second, "bound for asynchronous validators")
	rootCmd.AddCommand(checkCmd)
}

type checkReport struct {
	Form   string            `json:"form"`
	Group  string            `json:"group,omitempty"`
	Valid  bool              `json:"valid"`
	Errors map[string]string `json:"errors,omitempty"`
}

func runCheck(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), checkTimeout)
	defer cancel()

	bundle, err := loadBundle(ctx)
	if err != nil {
		return err
	}
	_, state, err := openState(bundle)
	if err != nil {
		return err
	}
	defer state.Close()

	fields, err := fieldsFor(bundle, state)
	if err != nil {
		return err
	}
	valid, err := fields.Validate(ctx)
	if err != nil {
		return fmt.Errorf("validate: %w", err)
	}

	report := checkReport{
		Form:   bundle.Declaration.Name,
		Group:  groupName,
		Valid:  valid,
		Errors: fields.Errors(),
	}
	if err := writeReport(cmd.OutOrStdout(), checkFormat, report); err != nil {
		return err
	}
	if !valid {
		return errInvalid
	}
	return nil
}

func writeReport(out io.Writer, format string, report checkReport) error {
	switch format {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	case "text", "":
	default:
		return fmt.Errorf("unknown format %q", format)
	}

	paths := make([]string, 0, len(report.Errors))
	for path := range report.Errors {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	for _, path := range paths {
		fmt.Fprintf(out, "  [-] %s: %s\n", path, report.Errors[path])
	}
	status := "valid"
	if !report.Valid {
		status = "invalid"
	}
	fmt.Fprintf(out, "%s: %s\n", report.Form, status)
	return nil
}
