package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/mimir-aip/credit-decision/pkg/mlmodel"
	"github.com/mimir-aip/credit-decision/pkg/storage"
)

var predictFlags struct {
	input string
	model string
}

var predictCmd = &cobra.Command{
	Use:   "predict",
	Short: "Score loan applications from a JSON file",
	Long: `Predict reads a JSON array of applications (or a single object) and
prints {"Predictions": [...]} with one Approved/Rejected label per row.
Use --input - to read from stdin.`,
	Args: cobra.NoArgs,
	RunE: runPredict,
}

func init() {
	f := predictCmd.Flags()
	f.StringVarP(&predictFlags.input, "input", "i", "", "JSON file with applications, or - for stdin")
	f.StringVar(&predictFlags.model, "model", "", "Artifact key (default: $MODEL_NAME)")
	predictCmd.MarkFlagRequired("input")
}

func runPredict(cmd *cobra.Command, _ []string) error {
	items, err := readApplications(cmd.InOrStdin(), predictFlags.input)
	if err != nil {
		return err
	}

	artifacts, err := storage.NewArtifactStore(cfg.ModelDir)
	if err != nil {
		return err
	}
	predictor, err := mlmodel.LoadPredictor(artifacts, modelKey(predictFlags.model), schema)
	if err != nil {
		return err
	}

	resp, err := predictor.PredictMaps(items)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(resp)
}

func modelKey(flag string) string {
	if flag != "" {
		return flag
	}
	return cfg.ModelName
}

// readApplications accepts either a JSON array of objects or one object.
func readApplications(stdin io.Reader, path string) ([]map[string]any, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}

	data = bytes.TrimSpace(data)
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	if len(data) > 0 && data[0] == '{' {
		var one map[string]any
		if err := dec.Decode(&one); err != nil {
			return nil, fmt.Errorf("invalid JSON input: %w", err)
		}
		return []map[string]any{one}, nil
	}

	var many []map[string]any
	if err := dec.Decode(&many); err != nil {
		return nil, fmt.Errorf("invalid JSON input: %w", err)
	}
	if len(many) == 0 {
		return nil, fmt.Errorf("input holds no applications")
	}
	return many, nil
}
