package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/chantierpro/automation/pkg/cmd"
	"github.com/chantierpro/automation/pkg/config"
	"github.com/chantierpro/automation/pkg/log"
	"github.com/chantierpro/automation/pkg/models"
	"github.com/chantierpro/automation/pkg/services"
	cli "github.com/urfave/cli/v3"
)

var (
	errDispatchUsage = errors.New("usage: dispatch <event> <context.json|->")
	errRulesUsage    = errors.New("usage: rules <validate|import> <rules file|->")
	errInvalidRules  = errors.New("some rules are invalid")
)

// readInput reads path, or stdin when path is "-".
func readInput(path string, stdin io.Reader) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(stdin)
	}

	return os.ReadFile(path)
}

func writeJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")

	return encoder.Encode(v)
}

func NewDispatchCommand() *cli.Command {
	return &cli.Command{
		Name:      "dispatch",
		Usage:     "Run the rules of one event against a context file and print the summaries",
		ArgsUsage: "<event> <context.json|->",
		Action: func(ctx context.Context, command *cli.Command) error {
			if command.Args().Len() != 2 {
				return errDispatchUsage
			}

			data, err := readInput(command.Args().Get(1), os.Stdin)
			if err != nil {
				return fmt.Errorf("failed to read event context: %w", err)
			}

			var ectx models.EventContext

			err = json.Unmarshal(data, &ectx)
			if err != nil {
				return fmt.Errorf("failed to decode event context: %w", err)
			}

			rt, err := newRuntime(ctx, command, "dispatch")
			if err != nil {
				return err
			}
			defer rt.Close(ctx)

			summaries, err := rt.dispatcher.ExecuteWorkflows(ctx, models.EventName(command.Args().Get(0)), ectx)
			if err != nil {
				return err
			}

			return writeJSON(command.Root().Writer, summaries)
		},
	}
}

func NewRulesCommand() *cli.Command {
	return &cli.Command{
		Name:  "rules",
		Usage: "Work with rule files (YAML or JSON)",
		Commands: []*cli.Command{
			{
				Name:      "validate",
				Usage:     "Check the rules of a file without storing them",
				ArgsUsage: "<rules.yaml|rules.json|->",
				Action: func(_ context.Context, command *cli.Command) error {
					raws, err := loadRules(command)
					if err != nil {
						return err
					}

					logger := log.Setup(command.String("log-level"))

					return validateRules(command.Root().Writer, services.NewRules(nil, logger), raws)
				},
			},
			{
				Name:      "import",
				Usage:     "Validate the rules of a file and store them",
				ArgsUsage: "<rules.yaml|rules.json|->",
				Action: func(ctx context.Context, command *cli.Command) error {
					raws, err := loadRules(command)
					if err != nil {
						return err
					}

					logger := log.Setup(command.String("log-level"))

					p, err := cmd.NewPersistence(ctx, logger, command.String("database-url"))
					if err != nil {
						return err
					}

					defer func() {
						if err := p.Close(ctx); err != nil {
							logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
						}
					}()

					return importRules(ctx, command.Root().Writer, services.NewRules(p, logger), raws)
				},
			},
		},
	}
}

func loadRules(command *cli.Command) ([]json.RawMessage, error) {
	if command.Args().Len() != 1 {
		return nil, errRulesUsage
	}

	path := command.Args().First()
	if path != "-" {
		return config.LoadRuleFile(path)
	}

	data, err := readInput(path, os.Stdin)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules: %w", err)
	}

	return config.ParseRuleDocuments(data, config.DetectFormat(path, data))
}

// validateRules prints one report per document and fails when any is invalid.
func validateRules(w io.Writer, rules *services.Rules, raws []json.RawMessage) error {
	reports := rules.ValidateRaw(raws)

	err := writeJSON(w, reports)
	if err != nil {
		return err
	}

	for _, report := range reports {
		if !report.Valid {
			return errInvalidRules
		}
	}

	return nil
}

// importRules stores nothing unless every document is valid and no explicit
// id clashes with another document or a stored rule.
func importRules(ctx context.Context, w io.Writer, rules *services.Rules, raws []json.RawMessage) error {
	err := validateRules(io.Discard, rules, raws)
	if err != nil {
		return validateRules(w, rules, raws)
	}

	err = rules.CheckIDs(ctx, raws)
	if err != nil {
		return fmt.Errorf("failed to import rules: %w", err)
	}

	created := make([]*models.WorkflowRule, 0, len(raws))

	for i, raw := range raws {
		rule, err := rules.Create(ctx, raw)
		if err != nil {
			return fmt.Errorf("failed to import rule %d: %w", i, err)
		}

		created = append(created, rule)
	}

	return writeJSON(w, created)
}
