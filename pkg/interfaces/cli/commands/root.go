package commands

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/6thd/wardah-process-costing-sub007/pkg/domain/entities"
)

const dateLayout = "2006-01-02"

// NewRootCommand builds the bomengine command tree
func NewRootCommand(version string) *cobra.Command {
	opts := &Options{Version: version}

	root := &cobra.Command{
		Use:   "bomengine",
		Short: "BOM explosion, costing and material reservation engine",
		Long: `bomengine explodes multi-level bills of materials, rolls up standard cost,
builds BOM trees and manages material reservations for manufacturing orders.

Read-only commands work on a CSV scenario directory (--scenario) or on the
configured database. Order, stage and BOM maintenance commands need a database.

SCENARIO DIRECTORY STRUCTURE:
    scenario_name/
    ├── items.csv          # Item master data and on-hand stock
    ├── boms.csv           # BOM header versions
    ├── bom_lines.csv      # BOM component lines
    ├── work_centers.csv   # Work centers (optional)
    └── routings.csv       # Routing operations (optional)`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.ConfigPath, "config", "", "Path to configuration file")
	flags.StringVar(&opts.Scenario, "scenario", "", "Path to scenario directory containing CSV files")
	flags.StringVar(&opts.Tenant, "tenant", "", "Tenant to operate on (default from configuration)")
	flags.StringVarP(&opts.Format, "format", "f", "text", "Output format: text, json, csv")
	flags.StringVar(&opts.LogLevel, "log-level", "", "Log level: debug, info, warn, error")

	root.AddCommand(
		newExplodeCommand(opts),
		newCostCommand(opts),
		newTreeCommand(opts),
		newAvailabilityCommand(opts),
		newMigrateCommand(opts),
		newImportCommand(opts),
		newBOMCommand(opts),
		newOrderCommand(opts),
		newStageCommand(opts),
		newReceiveCommand(opts),
	)
	return root
}

// run builds an App for the command, runs fn and closes the App
func (o *Options) run(cmd *cobra.Command, mode storageMode, fn func(ctx context.Context, app *App) error) error {
	ctx := cmd.Context()
	app, err := newApp(ctx, *o, mode, cmd.OutOrStdout(), cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer func() {
		if cerr := app.Close(); cerr != nil {
			app.Log.Warn().Err(cerr).Msg("Failed to close storage")
		}
	}()
	return fn(ctx, app)
}

// Helper functions for parsing arguments

func parseQuantity(name, s string) (decimal.Decimal, error) {
	q, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid %s %q: %w", name, s, err)
	}
	return q, nil
}

func parseDate(name, s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return nil, fmt.Errorf("invalid %s %q (expected YYYY-MM-DD)", name, s)
	}
	return &t, nil
}

// parseMaterials parses ITEM=QTY arguments
func parseMaterials(args []string) ([]entities.MaterialRequirement, error) {
	materials := make([]entities.MaterialRequirement, 0, len(args))
	for _, arg := range args {
		item, qty, ok := strings.Cut(arg, "=")
		if !ok || item == "" {
			return nil, fmt.Errorf("invalid material %q (expected ITEM=QTY)", arg)
		}
		q, err := parseQuantity("quantity for "+item, qty)
		if err != nil {
			return nil, err
		}
		materials = append(materials, entities.MaterialRequirement{ItemID: entities.ItemID(item), Quantity: q})
	}
	return materials, nil
}
