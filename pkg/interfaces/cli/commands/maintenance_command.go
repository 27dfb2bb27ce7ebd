package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/6thd/wardah-process-costing-sub007/pkg/domain/entities"
	"github.com/6thd/wardah-process-costing-sub007/pkg/infrastructure/repositories/csv"
)

func newMigrateCommand(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply every pending migration",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return opts.run(cmd, databaseOnly, func(ctx context.Context, app *App) error {
					db, err := app.SQLStore()
					if err != nil {
						return err
					}
					result, err := db.MigrateUp(ctx)
					if err != nil {
						return err
					}
					msg := fmt.Sprintf("Schema at version %d (%d migration(s) applied)", result.TargetVersion, len(result.Applied))
					return app.Renderer.Done(msg, map[string]int{
						"previous_version": result.CurrentVersion,
						"version":          result.TargetVersion,
						"applied":          len(result.Applied),
					})
				})
			},
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back the most recent migration",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return opts.run(cmd, databaseOnly, func(ctx context.Context, app *App) error {
					db, err := app.SQLStore()
					if err != nil {
						return err
					}
					result, err := db.MigrateDown(ctx)
					if err != nil {
						return err
					}
					msg := fmt.Sprintf("Rolled back version %d, schema at version %d", result.CurrentVersion, result.TargetVersion)
					return app.Renderer.Done(msg, map[string]int{
						"previous_version": result.CurrentVersion,
						"version":          result.TargetVersion,
					})
				})
			},
		},
		&cobra.Command{
			Use:   "status",
			Short: "Show the current schema version",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return opts.run(cmd, databaseOnly, func(ctx context.Context, app *App) error {
					db, err := app.SQLStore()
					if err != nil {
						return err
					}
					version, err := db.SchemaVersion(ctx)
					if err != nil {
						return err
					}
					return app.Renderer.Done(fmt.Sprintf("Schema at version %d", version), map[string]int{"version": version})
				})
			},
		},
	)
	return cmd
}

func newImportCommand(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:     "import SCENARIO_DIR",
		Short:   "Load a CSV scenario into the configured database",
		Example: `  bomengine import scenarios/bicycle --tenant acme`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			scenario, err := csv.NewLoader().LoadScenario(args[0])
			if err != nil {
				return err
			}
			return opts.run(cmd, databaseOnly, func(ctx context.Context, app *App) error {
				db, err := app.SQLStore()
				if err != nil {
					return err
				}
				if err := scenario.Seed(ctx, app.Tenant, db); err != nil {
					return err
				}
				msg := fmt.Sprintf("Imported %d items, %d BOMs and %d lines into tenant %s",
					len(scenario.Items), len(scenario.Headers), len(scenario.Lines), app.Tenant)
				return app.Renderer.Done(msg, map[string]interface{}{
					"tenant":        app.Tenant,
					"items":         len(scenario.Items),
					"boms":          len(scenario.Headers),
					"bom_lines":     len(scenario.Lines),
					"work_centers":  len(scenario.WorkCenters),
					"routing_steps": len(scenario.Routing),
				})
			})
		},
	}
}

func newBOMCommand(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bom",
		Short: "Maintain BOM versions",
	}

	var effective string
	newVersion := &cobra.Command{
		Use:   "new-version BOM_ID",
		Short: "Copy a BOM into a new DRAFT version",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			from, err := parseDate("effective date", effective)
			if err != nil {
				return err
			}
			return opts.run(cmd, databaseOnly, func(ctx context.Context, app *App) error {
				when := time.Now().UTC()
				if from != nil {
					when = *from
				}
				header, err := app.BOMs.NewVersion(ctx, app.Tenant, entities.BOMID(args[0]), when)
				if err != nil {
					return err
				}
				msg := fmt.Sprintf("Created BOM %s version %d of item %s (DRAFT)", header.ID, header.Version, header.ItemID)
				return app.Renderer.Done(msg, map[string]interface{}{
					"bom_id":  header.ID,
					"item_id": header.ItemID,
					"version": header.Version,
					"status":  header.Status,
				})
			})
		},
	}
	newVersion.Flags().StringVar(&effective, "effective-from", "", "First day the new version is effective (YYYY-MM-DD, default today)")

	cmd.AddCommand(
		bomStatusCommand(opts, "approve", "Approve a DRAFT BOM", entities.BOMApproved),
		bomStatusCommand(opts, "obsolete", "Retire a BOM", entities.BOMObsolete),
		newVersion,
	)
	return cmd
}

func bomStatusCommand(opts *Options, use, short string, status entities.BOMStatus) *cobra.Command {
	return &cobra.Command{
		Use:   use + " BOM_ID",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, databaseOnly, func(ctx context.Context, app *App) error {
				bomID := entities.BOMID(args[0])
				var err error
				if status == entities.BOMApproved {
					err = app.BOMs.Approve(ctx, app.Tenant, bomID)
				} else {
					err = app.BOMs.Obsolete(ctx, app.Tenant, bomID)
				}
				if err != nil {
					return err
				}
				return app.Renderer.Done(fmt.Sprintf("BOM %s is %s", bomID, status), map[string]interface{}{
					"bom_id": bomID,
					"status": status,
				})
			})
		},
	}
}

func newReceiveCommand(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:     "receive ITEM_ID QUANTITY",
		Short:   "Add a goods receipt to on-hand stock",
		Example: `  bomengine receive SEAT 25`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			qty, err := parseQuantity("quantity", args[1])
			if err != nil {
				return err
			}
			return opts.run(cmd, databaseOnly, func(ctx context.Context, app *App) error {
				itemID := entities.ItemID(args[0])
				if err := app.Reservations.ReceiveStock(ctx, app.Tenant, itemID, qty); err != nil {
					return err
				}
				return app.Renderer.Done(fmt.Sprintf("Received %s of %s", qty, itemID), map[string]interface{}{
					"item_id":  itemID,
					"quantity": qty,
				})
			})
		},
	}
}
