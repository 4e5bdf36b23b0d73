package main

import (
	"encoding/json"

	"github.com/spf13/cobra"
)

var evaluateFlags struct {
	data  string
	model string
}

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Score a stored model against a labelled CSV",
	Args:  cobra.NoArgs,
	RunE:  runEvaluate,
}

func init() {
	f := evaluateCmd.Flags()
	f.StringVar(&evaluateFlags.data, "data", "", "Labelled CSV (default: $DATA_DIR/$TEST_FILE)")
	f.StringVar(&evaluateFlags.model, "model", "", "Artifact key (default: $MODEL_NAME)")
}

func runEvaluate(cmd *cobra.Command, _ []string) error {
	data := evaluateFlags.data
	if data == "" {
		data = cfg.TestPath()
	}

	svc, err := openServices()
	if err != nil {
		return err
	}
	defer svc.Close()

	metrics, err := svc.models.Evaluate(cmd.Context(), modelKey(evaluateFlags.model), data)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(metrics)
}
