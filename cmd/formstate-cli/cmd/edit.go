package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-formstate/pkg/renderers/tui"
)

var (
	editOutput   string
	editAttempts int

	// newDriver builds the prompt driver for edit; tests swap it out.
	newDriver = func(out io.Writer) tui.PromptDriver { return tui.NewSurveyDriver(out) }
)

var editCmd = &cobra.Command{
	Use:   "edit",
	Short: "Edit domain values interactively",
	Long: `Prompts for every field (or every field of --group), re-prompting while a
field is invalid. Commit-mode fields are committed at the end and the
persisted snapshot is printed as JSON, or written to --output.`,
	RunE: runEdit,
}

func init() {
	editCmd.Flags().StringVarP(&editOutput, "output", "o", "", "write the snapshot to a file instead of stdout")
	editCmd.Flags().IntVar(&editAttempts, "attempts", tui.DefaultMaxAttempts, "prompts per field before giving up")
	rootCmd.AddCommand(editCmd)
}

func runEdit(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	bundle, err := loadBundle(ctx)
	if err != nil {
		return err
	}
	obj, state, err := openState(bundle)
	if err != nil {
		return err
	}
	defer state.Close()

	fields, err := fieldsFor(bundle, state)
	if err != nil {
		return err
	}

	editor := tui.New(
		tui.WithPromptDriver(newDriver(cmd.ErrOrStderr())),
		tui.WithLabels(bundle.Declaration.Labels()),
		tui.WithWidgetHints(bundle.Declaration.Widgets()),
		tui.WithMaxAttempts(editAttempts),
		tui.WithTheme(tui.Theme{ErrorPrefix: "[-] ", InfoPrefix: "  "}),
		tui.WithLogger(logger),
	)
	if err := editor.Edit(ctx, fields); err != nil {
		return err
	}
	if err := editor.Summary(ctx, fields); err != nil {
		return err
	}
	if err := state.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	snapshot, err := obj.Snapshot(nil)
	if err != nil {
		return err
	}
	payload, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	payload = append(payload, '\n')
	if editOutput != "" {
		if err := os.WriteFile(editOutput, payload, 0o644); err != nil {
			return fmt.Errorf("write snapshot: %w", err)
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Snapshot written to %s\n", editOutput)
		return nil
	}
	_, err = cmd.OutOrStdout().Write(payload)
	return err
}
