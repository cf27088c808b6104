package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/sseqchart/internal/chart"
	"github.com/roach88/sseqchart/internal/schema"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid  bool                     `json:"valid"`
	Errors []schema.ValidationError `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <chart.json|config.yaml>",
		Short: "Validate a chart document or configuration",
		Long: `Validate a chart without saving it.

A JSON document is checked against the chart schema, then decoded to
check references between classes and edges. A YAML configuration is
validated, built, and the resulting chart checked against the schema.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	validator, err := schema.New()
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load chart schema", err)
	}

	var violations []schema.ValidationError
	if isConfigPath(path) {
		violations, err = validateConfig(validator, path, opts, cmd)
	} else {
		violations, err = validateDocument(validator, path, opts, cmd)
	}
	if err != nil {
		return outputValidateError(formatter, loadErrorCode(err), err.Error(), nil)
	}

	if len(violations) > 0 {
		return outputValidationErrors(formatter, violations)
	}
	return outputValidateSuccess(formatter)
}

func validateConfig(validator *schema.Validator, path string, opts *RootOptions, cmd *cobra.Command) ([]schema.ValidationError, error) {
	c, err := loadChart(path, opts.logger(cmd.ErrOrStderr()))
	var loadErr *LoadError
	if errors.As(err, &loadErr) && loadErr.Code == ErrCodeConfig {
		return []schema.ValidationError{{Field: "config", Message: loadErr.Message, Code: ErrCodeConfig}}, nil
	}
	if err != nil {
		return nil, err
	}
	opts.formatter(cmd).VerboseLog("Built chart %q, checking its encoding", c.Name())
	return validator.ValidateChart(c)
}

func validateDocument(validator *schema.Validator, path string, opts *RootOptions, cmd *cobra.Command) ([]schema.ValidationError, error) {
	data, err := readDocument(path)
	if err != nil {
		return nil, err
	}
	if violations := validator.Validate(data); len(violations) > 0 {
		return violations, nil
	}
	opts.formatter(cmd).VerboseLog("Schema check passed, decoding %s", path)

	// The schema cannot see dangling edge endpoints or duplicate ids.
	if _, err := chart.Decode(data); err != nil {
		return []schema.ValidationError{{Field: "document", Message: err.Error(), Code: ErrCodeDecode}}, nil
	}
	return nil, nil
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter) error {
	if formatter.Format == "json" {
		return formatter.Success(ValidationResult{Valid: true})
	}

	fmt.Fprintln(formatter.Writer, "✓ Chart valid")
	return nil
}

// outputValidateError outputs a single command error.
func outputValidateError(formatter *OutputFormatter, code, message string, details any) error {
	_ = formatter.Error(code, message, details)
	return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message))
}

// outputValidationErrors outputs multiple validation errors.
func outputValidationErrors(formatter *OutputFormatter, errs []schema.ValidationError) error {
	if formatter.Format == "json" {
		err := formatter.JSON(CLIResponse{
			Status: "error",
			Data: ValidationResult{
				Valid:  false,
				Errors: errs,
			},
			Error: &CLIError{
				Code:    errs[0].Code,
				Message: errs[0].Message,
			},
		})
		if err != nil {
			return err
		}

		// Validation failures = exit code 1 (test/validation failure)
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
	}

	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)

	for _, err := range errs {
		if err.Line > 0 {
			fmt.Fprintf(formatter.Writer, "line %d\n", err.Line)
		}
		fmt.Fprintf(formatter.Writer, "  %s: %s: %s\n\n", err.Code, err.Field, err.Message)
	}

	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
}
