package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/turtacn/TreatIQ-Intelligence/internal/bootstrap"
	"github.com/turtacn/TreatIQ-Intelligence/internal/config"
	"github.com/turtacn/TreatIQ-Intelligence/pkg/errors"
	ptypes "github.com/turtacn/TreatIQ-Intelligence/pkg/types/prediction"
)

type predictOptions struct {
	profilePath string
	catalogPath string
	treatments  string
	store       string
}

// NewPredictCmd scores treatments for a patient profile read from YAML.
func NewPredictCmd() *cobra.Command {
	opts := &predictOptions{}
	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Predict treatment success for a patient profile",
		Example: "  treatiq predict --profile configs/profile.yaml --catalog configs/catalog.yaml --treatments inj-botox,laser-co2\n" +
			"  treatiq predict --profile p.yaml --store postgres --treatments inj-botox -o json",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPredict(cmd, opts)
		},
	}
	cmd.Flags().StringVarP(&opts.profilePath, "profile", "p", "", "patient profile YAML file [REQUIRED]")
	cmd.Flags().StringVar(&opts.catalogPath, "catalog", "", "treatment catalog YAML file (selects the memory store)")
	cmd.Flags().StringVarP(&opts.treatments, "treatments", "t", "", "comma-separated treatment ids [REQUIRED]")
	cmd.Flags().StringVar(&opts.store, "store", "", "record store override (memory, postgres)")
	_ = cmd.MarkFlagRequired("profile")
	_ = cmd.MarkFlagRequired("treatments")
	return cmd
}

func runPredict(cmd *cobra.Command, opts *predictOptions) error {
	cliCtx, err := GetCLIContext(cmd)
	if err != nil {
		return err
	}
	ids := splitList(opts.treatments)
	if len(ids) == 0 {
		return errors.NewValidationError("at least one treatment id is required")
	}
	profile, err := readProfile(opts.profilePath)
	if err != nil {
		return err
	}

	cfg := *cliCtx.Config
	if err := applyStoreFlags(&cfg, opts.store, opts.catalogPath); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), cliCtx.Timeout)
	defer cancel()

	infra, err := bootstrap.Open(ctx, &cfg, nil, cliCtx.Logger)
	if err != nil {
		return err
	}
	defer infra.Close()

	svc, err := bootstrap.NewService(&cfg, infra, nil, cliCtx.Logger)
	if err != nil {
		return err
	}
	resp, err := svc.Predict(ctx, &ptypes.PredictRequest{Profile: profile, TreatmentIDs: ids})
	if err != nil {
		return err
	}

	if cliCtx.OutputFormat == OutputJSON {
		return printJSON(cmd.OutOrStdout(), resp)
	}
	printPredictions(cmd.OutOrStdout(), resp)
	return nil
}

// applyStoreFlags overrides the configured record store.  A catalog path
// implies the memory store.
func applyStoreFlags(cfg *config.Config, store, catalogPath string) error {
	if catalogPath != "" {
		if store != "" && store != config.StoreMemory {
			return errors.NewValidationError("--catalog can only be used with the memory store")
		}
		cfg.Catalog.Store = config.StoreMemory
		cfg.Catalog.Path = catalogPath
		return nil
	}
	switch store {
	case "":
	case config.StoreMemory, config.StorePostgres:
		cfg.Catalog.Store = store
	default:
		return errors.NewValidationError(fmt.Sprintf("unknown store %q", store))
	}
	return nil
}

func readProfile(path string) (*ptypes.PatientProfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeBadRequest, "read profile file").WithDetail(path)
	}
	var p ptypes.PatientProfile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeBadRequest, "parse profile file").WithDetail(path)
	}
	return &p, nil
}

func printPredictions(w io.Writer, resp *ptypes.PredictResponse) {
	fmt.Fprintf(w, "\n=== Treatment Success Predictions (request %s) ===\n\n", resp.RequestID)

	rows := make([][]string, 0, len(resp.Predictions))
	for i, p := range resp.Predictions {
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			p.TreatmentID,
			truncate(p.TreatmentName, 30),
			colorProbability(p.SuccessProbability),
			fmt.Sprintf("%d%%", p.ConfidenceScore),
			fmt.Sprintf("%d/%d/%d", p.ExpectedResults.Improvement, p.ExpectedResults.Satisfaction, p.ExpectedResults.Longevity),
			fmt.Sprintf("%.0f/%.0f/%.0f", p.Risks.Low*100, p.Risks.Medium*100, p.Risks.High*100),
		})
	}
	renderTable(w, []string{"Rank", "ID", "Treatment", "Success", "Confidence", "Improve/Satisfy/Last", "Risk % L/M/H"}, rows)

	for _, p := range resp.Predictions {
		if len(p.Recommendations) == 0 && len(p.Alternatives) == 0 {
			continue
		}
		fmt.Fprintf(w, "\n%s\n", color.New(color.Bold).Sprint(p.TreatmentID))
		for _, r := range p.Recommendations {
			fmt.Fprintf(w, "  - %s\n", r)
		}
		for _, a := range p.Alternatives {
			fmt.Fprintf(w, "  alternative: %s (%d%%) %s\n", a.TreatmentName, a.SuccessProbability, a.Reason)
		}
	}

	if len(resp.Failures) > 0 {
		fmt.Fprintln(w)
		for _, f := range resp.Failures {
			fmt.Fprintf(w, "%s %s: [%s] %s\n", color.YellowString("skipped"), f.TreatmentID, f.Code, f.Message)
		}
	}
	fmt.Fprintf(w, "\nProcessed %d treatment(s) in %dms\n", len(resp.Predictions)+len(resp.Failures), resp.ProcessingTimeMs)
}

func colorProbability(p int) string {
	s := fmt.Sprintf("%d%%", p)
	switch {
	case p >= 75:
		return color.GreenString(s)
	case p >= 50:
		return color.YellowString(s)
	default:
		return color.RedString(s)
	}
}

// truncate shortens s to n runes.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return strings.TrimSpace(string(r[:n-1])) + "…"
}

//Personal.AI order the ending
