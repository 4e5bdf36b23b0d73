package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List trained models in the registry",
	Args:  cobra.NoArgs,
	RunE:  runModels,
}

func runModels(cmd *cobra.Command, _ []string) error {
	svc, err := openServices()
	if err != nil {
		return err
	}
	defer svc.Close()

	list, err := svc.models.ListModels()
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tVERSION\tSTATUS\tCV\tACCURACY\tROC_AUC\tTRAINED\tID")
	for _, m := range list {
		acc, auc := "-", "-"
		if m.PerformanceMetrics != nil {
			acc = fmt.Sprintf("%.4f", m.PerformanceMetrics.Accuracy)
			auc = fmt.Sprintf("%.4f", m.PerformanceMetrics.ROCAUC)
		}
		trained := "-"
		if m.TrainedAt != nil {
			trained = m.TrainedAt.Format("2006-01-02 15:04")
		}
		fmt.Fprintf(w, "%s\t%d\t%s\t%.4f\t%s\t%s\t%s\t%s\n",
			m.Name, m.Version, m.Status, m.CVScore, acc, auc, trained, m.ID)
	}
	return w.Flush()
}
