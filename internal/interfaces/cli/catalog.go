package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/turtacn/TreatIQ-Intelligence/internal/bootstrap"
	"github.com/turtacn/TreatIQ-Intelligence/internal/config"
	"github.com/turtacn/TreatIQ-Intelligence/internal/domain/treatment"
	"github.com/turtacn/TreatIQ-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/TreatIQ-Intelligence/pkg/errors"
)

// NewCatalogCmd inspects and loads the treatment catalog.
func NewCatalogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect or import the treatment catalog",
	}
	cmd.AddCommand(newCatalogListCmd(), newCatalogImportCmd())
	return cmd
}

func newCatalogListCmd() *cobra.Command {
	var catalogPath, store string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the treatments of the configured store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			cfg := *cliCtx.Config
			if err := applyStoreFlags(&cfg, store, catalogPath); err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), cliCtx.Timeout)
			defer cancel()

			infra, err := bootstrap.Open(ctx, &cfg, nil, cliCtx.Logger)
			if err != nil {
				return err
			}
			defer infra.Close()
			if infra.Catalog == nil {
				return errors.New(errors.ErrCodeNotImplemented, "record store cannot list treatments")
			}
			list, err := infra.Catalog.ListTreatments(ctx)
			if err != nil {
				return err
			}

			if cliCtx.OutputFormat == OutputJSON {
				return printJSON(cmd.OutOrStdout(), list)
			}
			rows := make([][]string, 0, len(list))
			for _, t := range list {
				rows = append(rows, []string{
					t.ID,
					truncate(t.Name.EN, 30),
					string(t.Category),
					string(t.Intensity),
					strings.Join(t.BestFor, ", "),
					strings.Join(t.Contraindications, ", "),
				})
			}
			renderTable(cmd.OutOrStdout(), []string{"ID", "Name", "Category", "Intensity", "Best For", "Contraindications"}, rows)
			fmt.Fprintf(cmd.OutOrStdout(), "\nTotal: %d\n", len(list))
			return nil
		},
	}
	cmd.Flags().StringVar(&catalogPath, "catalog", "", "treatment catalog YAML file (selects the memory store)")
	cmd.Flags().StringVar(&store, "store", "", "record store override (memory, postgres)")
	return cmd
}

func newCatalogImportCmd() *cobra.Command {
	var file string
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import a YAML catalog into Postgres",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			catalog, err := treatment.ReadCatalogFile(file)
			if err != nil {
				return err
			}
			if _, err := treatment.NewMemoryRepository(catalog); err != nil {
				return err
			}
			if dryRun {
				fmt.Fprintf(cmd.OutOrStdout(), "%s %d treatment(s), %d historical outcome(s)\n",
					color.GreenString("valid:"), len(catalog.Treatments), len(catalog.HistoricalOutcomes))
				return nil
			}

			cfg := *cliCtx.Config
			cfg.Catalog.Store = config.StorePostgres
			ctx, cancel := context.WithTimeout(cmd.Context(), cliCtx.Timeout)
			defer cancel()

			infra, err := bootstrap.Open(ctx, &cfg, nil, cliCtx.Logger)
			if err != nil {
				return err
			}
			defer infra.Close()

			if err := infra.Treatments.ImportCatalog(ctx, catalog); err != nil {
				return err
			}
			if infra.Cache != nil {
				if _, err := infra.Cache.Invalidate(ctx); err != nil {
					cliCtx.Logger.Warn("catalog imported but cache invalidation failed", logging.Err(err))
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d treatment(s), %d historical outcome(s)\n",
				len(catalog.Treatments), len(catalog.HistoricalOutcomes))
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "catalog YAML file [REQUIRED]")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "validate the file without writing")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

//Personal.AI order the ending
