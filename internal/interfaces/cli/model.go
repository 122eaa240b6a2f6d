package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/turtacn/TreatIQ-Intelligence/internal/intelligence/success_predictor"
)

// NewModelCmd prints the configured aggregation weights.
func NewModelCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "model",
		Short: "Show the scoring weights in use",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			model, err := success_predictor.NewModelConfig(cliCtx.Config.Prediction.Weights)
			if err != nil {
				return err
			}
			w := model.Weights().DTO()
			if cliCtx.OutputFormat == OutputJSON {
				return printJSON(cmd.OutOrStdout(), w)
			}
			renderTable(cmd.OutOrStdout(), []string{"Factor", "Weight"}, [][]string{
				{"age", fmt.Sprintf("%.2f", w.Age)},
				{"skin_type", fmt.Sprintf("%.2f", w.SkinType)},
				{"conditions", fmt.Sprintf("%.2f", w.Conditions)},
				{"prior_treatments", fmt.Sprintf("%.2f", w.PriorTreatments)},
				{"lifestyle", fmt.Sprintf("%.2f", w.Lifestyle)},
				{"environmental", fmt.Sprintf("%.2f", w.Environmental)},
				{"treatment_match", fmt.Sprintf("%.2f", w.TreatmentMatch)},
			})
			return nil
		},
	}
}

//Personal.AI order the ending
