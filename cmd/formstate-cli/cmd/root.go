package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	formstate "github.com/goliatone/go-formstate"
	"github.com/goliatone/go-formstate/internal/logging"
	"github.com/goliatone/go-formstate/pkg/form"
	"github.com/goliatone/go-formstate/pkg/model"
	"github.com/goliatone/go-formstate/pkg/schema"
)

// errInvalid is returned when the checked or edited values fail validation.
// The report has already been printed.
var errInvalid = errors.New("values are invalid")

var (
	declFile  string
	openAPI   string
	component string
	inputFile string
	groupName string
	verbose   bool

	logger = zerolog.Nop()
)

var rootCmd = &cobra.Command{
	Use:   "formstate-cli",
	Short: "Validate and edit domain values through declared forms",
	Long: `formstate-cli loads a form declaration (JSON, YAML or TOML) or an
OpenAPI component schema, restores domain values into it and runs the
field validators.

Commands:
  check   - validate an input document and report field errors
  edit    - prompt for field values in the terminal and print the snapshot
  version - print build information`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger = logging.New("formstate-cli")
		if verbose {
			logger = logger.Level(zerolog.DebugLevel)
		}
	},
}

func Execute() error {
	err := rootCmd.Execute()
	if err != nil && !errors.Is(err, errInvalid) {
		printError(err)
	}
	return err
}

func init() {
	rootCmd.SilenceErrors = true
	rootCmd.PersistentFlags().StringVarP(&declFile, "decl", "d", "", "form declaration file (.json, .yaml, .toml)")
	rootCmd.PersistentFlags().StringVar(&openAPI, "openapi", "", "OpenAPI document to derive the form from")
	rootCmd.PersistentFlags().StringVar(&component, "component", "", "component schema name used with --openapi")
	rootCmd.PersistentFlags().StringVarP(&inputFile, "input", "i", "", "domain values to restore (.json, .yaml, .toml)")
	rootCmd.PersistentFlags().StringVarP(&groupName, "group", "g", "", "limit the command to one declared group")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}

func printError(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
}

func loadBundle(ctx context.Context) (*formstate.Bundle, error) {
	opts := []form.Option{form.WithLogger(logger)}
	switch {
	case declFile != "" && openAPI != "":
		return nil, fmt.Errorf("--decl and --openapi are mutually exclusive")
	case declFile != "":
		return formstate.LoadFile(declFile, opts...)
	case openAPI != "":
		if strings.TrimSpace(component) == "" {
			return nil, fmt.Errorf("--component is required with --openapi")
		}
		data, err := os.ReadFile(openAPI)
		if err != nil {
			return nil, fmt.Errorf("read openapi document: %w", err)
		}
		return formstate.FromOpenAPI(ctx, data, component, opts...)
	default:
		return nil, fmt.Errorf("one of --decl or --openapi is required")
	}
}

// openState restores --input into a new object and opens a state over it.
func openState(bundle *formstate.Bundle) (*model.Object, *form.FormState, error) {
	var snapshot map[string]any
	if inputFile != "" {
		values, err := schema.LoadValues(schema.SourceFromFile(inputFile))
		if err != nil {
			return nil, nil, err
		}
		snapshot = values
	}
	obj, state, err := bundle.Open(snapshot)
	if err != nil {
		return nil, nil, err
	}
	logger.Debug().Str("form", bundle.Declaration.Name).Str("state", state.ID()).Msg("state opened")
	return obj, state, nil
}

// fieldsFor returns the whole state or the --group view of it.
func fieldsFor(bundle *formstate.Bundle, state *form.FormState) (fieldSet, error) {
	if groupName == "" {
		return state, nil
	}
	group, err := bundle.Group(groupName)
	if err != nil {
		return nil, err
	}
	return group.Access(state)
}

type fieldSet interface {
	Paths() []string
	Field(path string) (*form.FieldAccessor, error)
	Validate(ctx context.Context) (bool, error)
	Errors() map[string]string
}
