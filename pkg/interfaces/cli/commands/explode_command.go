package commands

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/6thd/wardah-process-costing-sub007/pkg/domain/entities"
)

func newExplodeCommand(opts *Options) *cobra.Command {
	var quantity, asOf string

	cmd := &cobra.Command{
		Use:   "explode BOM_ID",
		Short: "List the leaf materials needed to build a quantity of an assembly",
		Example: `  bomengine explode BOM-BIKE --qty 2 --scenario scenarios/bicycle
  bomengine explode BOM-BIKE --qty 10 --as-of 2025-01-01 -f csv`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			qty, err := parseQuantity("quantity", quantity)
			if err != nil {
				return err
			}
			at, err := parseDate("as-of date", asOf)
			if err != nil {
				return err
			}

			return opts.run(cmd, scenarioOrDatabase, func(ctx context.Context, app *App) error {
				when := time.Now().UTC()
				if at != nil {
					when = *at
				}
				result, err := app.Explosion.ExplodeAsOf(ctx, app.Tenant, entities.BOMID(args[0]), qty, when)
				if err != nil {
					return err
				}
				return app.Renderer.Explosion(result)
			})
		},
	}
	cmd.Flags().StringVarP(&quantity, "qty", "q", "1", "Quantity of the assembly to build")
	cmd.Flags().StringVar(&asOf, "as-of", "", "Resolve BOM versions effective on this date (YYYY-MM-DD)")
	return cmd
}

func newCostCommand(opts *Options) *cobra.Command {
	var (
		quantity string
		compare  bool
	)

	cmd := &cobra.Command{
		Use:   "cost BOM_ID",
		Short: "Roll up standard material, labor and overhead cost",
		Example: `  bomengine cost BOM-BIKE --qty 2 --scenario scenarios/bicycle
  bomengine cost BOM-BIKE --qty 100 --compare`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			qty, err := parseQuantity("quantity", quantity)
			if err != nil {
				return err
			}

			return opts.run(cmd, scenarioOrDatabase, func(ctx context.Context, app *App) error {
				bomID := entities.BOMID(args[0])
				if compare {
					variances, err := app.Costs.CompareCosts(ctx, app.Tenant, bomID, qty)
					if err != nil {
						return err
					}
					return app.Renderer.Variances(variances)
				}

				cost, err := app.Costs.StandardCost(ctx, app.Tenant, bomID, qty)
				if err != nil {
					return err
				}
				return app.Renderer.Cost(cost)
			})
		},
	}
	cmd.Flags().StringVarP(&quantity, "qty", "q", "1", "Quantity of the assembly to cost")
	cmd.Flags().BoolVar(&compare, "compare", false, "Compare with the actual cost of the latest completed order")
	return cmd
}

func newTreeCommand(opts *Options) *cobra.Command {
	var (
		quantity string
		search   string
		rebuild  bool
	)

	cmd := &cobra.Command{
		Use:   "tree BOM_ID",
		Short: "Show the full BOM tree including phantom assemblies",
		Example: `  bomengine tree BOM-BIKE --scenario scenarios/bicycle
  bomengine tree BOM-BIKE --search weld`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			qty, err := parseQuantity("quantity", quantity)
			if err != nil {
				return err
			}

			return opts.run(cmd, scenarioOrDatabase, func(ctx context.Context, app *App) error {
				tree, err := app.Trees.BuildTree(ctx, app.Tenant, entities.BOMID(args[0]), qty, rebuild)
				if err != nil {
					return err
				}
				if cmd.Flags().Changed("search") {
					return app.Renderer.Matches(search, app.Trees.SearchInTree(tree, search))
				}
				return app.Renderer.Tree(tree, app.Trees.CalculateTreeCost(tree))
			})
		},
	}
	cmd.Flags().StringVarP(&quantity, "qty", "q", "1", "Quantity of the assembly")
	cmd.Flags().StringVar(&search, "search", "", "Only list nodes whose code or name contains this text")
	cmd.Flags().BoolVar(&rebuild, "rebuild", false, "Ignore any cached tree")
	return cmd
}

func newAvailabilityCommand(opts *Options) *cobra.Command {
	var quantity string

	cmd := &cobra.Command{
		Use:     "availability BOM_ID",
		Aliases: []string{"avail"},
		Short:   "Check whether stock covers the materials of an assembly",
		Example: `  bomengine availability BOM-BIKE --qty 40 --scenario scenarios/bicycle`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			qty, err := parseQuantity("quantity", quantity)
			if err != nil {
				return err
			}

			return opts.run(cmd, scenarioOrDatabase, func(ctx context.Context, app *App) error {
				exploded, err := app.Explosion.Explode(ctx, app.Tenant, entities.BOMID(args[0]), qty)
				if err != nil {
					return err
				}
				rows, err := app.Reservations.CheckAvailability(ctx, app.Tenant, exploded.MaterialRequirements())
				if err != nil {
					return err
				}
				return app.Renderer.Availability(rows)
			})
		},
	}
	cmd.Flags().StringVarP(&quantity, "qty", "q", "1", "Quantity of the assembly to build")
	return cmd
}
