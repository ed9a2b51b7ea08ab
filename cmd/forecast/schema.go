package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rxtech-lab/argo-forecast/internal/pipeline"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

const (
	schemaName       = "forecast-pipeline-config.json"
	sampleConfigName = "forecast-pipeline-config.yaml"
)

func schemaCommand() *cli.Command {
	return &cli.Command{
		Name:  "schema",
		Usage: "Write the config JSON schema and a sample config",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Output `DIR`",
				Value:   "./config",
			},
		},
		Action: schemaAction,
	}
}

func schemaAction(_ context.Context, cmd *cli.Command) error {
	config := pipeline.EmptyConfig()

	schemaJSON, err := config.GenerateSchemaJSON()
	if err != nil {
		return fmt.Errorf("failed to generate schema: %w", err)
	}

	dir := cmd.String("output")
	schemaPath := filepath.Join(dir, schemaName)
	sampleConfigPath := filepath.Join(dir, sampleConfigName)

	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	if err := os.WriteFile(schemaPath, []byte(schemaJSON), 0644); err != nil {
		return fmt.Errorf("failed to write schema to file: %w", err)
	}

	out := cmd.Root().Writer

	// an existing sample config is never overwritten
	if _, err := os.Stat(sampleConfigPath); os.IsNotExist(err) {
		yamlBytes, err := yaml.Marshal(pipeline.SampleConfig())
		if err != nil {
			return fmt.Errorf("failed to marshal sample config to yaml: %w", err)
		}

		yamlBytes = append([]byte("# yaml-language-server: $schema="+schemaName+"\n"), yamlBytes...)
		if err := os.WriteFile(sampleConfigPath, yamlBytes, 0644); err != nil {
			return fmt.Errorf("failed to write sample config to file: %w", err)
		}

		fmt.Fprintf(out, "Sample config successfully generated at %s\n", sampleConfigPath)
	}

	fmt.Fprintf(out, "Schema successfully generated at %s\n", schemaPath)

	return nil
}
