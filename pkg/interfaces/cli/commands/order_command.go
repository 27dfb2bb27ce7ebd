package commands

import (
	"context"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/6thd/wardah-process-costing-sub007/pkg/application/dto"
	"github.com/6thd/wardah-process-costing-sub007/pkg/domain/entities"
)

func newOrderCommand(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "order",
		Short: "Create and progress manufacturing orders",
	}
	cmd.AddCommand(
		newOrderCreateCommand(opts),
		newOrderShowCommand(opts),
		newOrderStatusCommand(opts),
		newOrderConsumeCommand(opts),
		newOrderCostCommand(opts),
	)
	return cmd
}

func newOrderCreateCommand(opts *Options) *cobra.Command {
	var (
		bomID     string
		quantity  string
		start     string
		lenient   bool
		materials []string
	)

	cmd := &cobra.Command{
		Use:   "create ITEM_ID",
		Short: "Create a DRAFT order and reserve its materials",
		Long: `Create a DRAFT manufacturing order and reserve its materials.

Materials come from exploding --bom unless listed explicitly with --material.
By default nothing is saved when any material cannot be reserved. With
--allow-under-reserved the order is saved first and flagged when the
reservation fails after the stock check passed. A shortage caused by a
concurrent order is still reported as an error after the order is shown.`,
		Example: `  bomengine order create BIKE --bom BOM-BIKE --qty 2
  bomengine order create FRAME --qty 1 --material TUBE=3.3 --material WELD=0.5`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			qty, err := parseQuantity("quantity", quantity)
			if err != nil {
				return err
			}
			startDate, err := parseDate("start date", start)
			if err != nil {
				return err
			}
			explicit, err := parseMaterials(materials)
			if err != nil {
				return err
			}
			if bomID == "" && len(explicit) == 0 {
				return fmt.Errorf("either --bom or at least one --material is required")
			}

			req := dto.CreateOrderRequest{
				ItemID:    entities.ItemID(args[0]),
				BOMID:     entities.BOMID(bomID),
				Quantity:  qty,
				Materials: explicit,
				StartDate: startDate,
				Mode:      dto.ReserveBeforeCreate,
			}
			if lenient {
				req.Mode = dto.ReserveAfterCreate
			}

			return opts.run(cmd, databaseOnly, func(ctx context.Context, app *App) error {
				detail, err := app.Orders.CreateOrder(ctx, app.Tenant, req)
				if detail == nil {
					return err
				}
				if renderErr := app.Renderer.Order(detail); renderErr != nil {
					return renderErr
				}
				return err
			})
		},
	}
	cmd.Flags().StringVar(&bomID, "bom", "", "BOM to explode for the order's materials")
	cmd.Flags().StringVarP(&quantity, "qty", "q", "1", "Planned quantity")
	cmd.Flags().StringVar(&start, "start", "", "Planned start date (YYYY-MM-DD)")
	cmd.Flags().BoolVar(&lenient, "allow-under-reserved", false, "Save the order even if reserving fails")
	cmd.Flags().StringArrayVar(&materials, "material", nil, "Explicit material requirement ITEM=QTY (repeatable)")
	return cmd
}

func newOrderShowCommand(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "show ORDER_ID",
		Short: "Show an order and its reservations",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, databaseOnly, func(ctx context.Context, app *App) error {
				detail, err := app.Orders.GetByID(ctx, app.Tenant, entities.OrderID(args[0]))
				if err != nil {
					return err
				}
				return app.Renderer.Order(detail)
			})
		},
	}
}

func newOrderStatusCommand(opts *Options) *cobra.Command {
	var start, end string

	cmd := &cobra.Command{
		Use:   "status ORDER_ID STATUS",
		Short: "Move an order to CONFIRMED, IN_PROGRESS, COMPLETED or CANCELLED",
		Example: `  bomengine order status 6f1c... IN_PROGRESS
  bomengine order status 6f1c... COMPLETED --end 2025-03-31`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := entities.ParseOrderStatus(args[1])
			if err != nil {
				return err
			}
			var statusOpts dto.StatusOptions
			if statusOpts.StartDate, err = parseDate("start date", start); err != nil {
				return err
			}
			if statusOpts.EndDate, err = parseDate("end date", end); err != nil {
				return err
			}

			return opts.run(cmd, databaseOnly, func(ctx context.Context, app *App) error {
				id := entities.OrderID(args[0])
				if _, err := app.Orders.UpdateStatus(ctx, app.Tenant, id, target, statusOpts); err != nil {
					return err
				}
				detail, err := app.Orders.GetByID(ctx, app.Tenant, id)
				if err != nil {
					return err
				}
				return app.Renderer.Order(detail)
			})
		},
	}
	cmd.Flags().StringVar(&start, "start", "", "Actual start date when moving to IN_PROGRESS (YYYY-MM-DD)")
	cmd.Flags().StringVar(&end, "end", "", "Actual end date when moving to COMPLETED (YYYY-MM-DD)")
	return cmd
}

func newOrderConsumeCommand(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:     "consume ORDER_ID ITEM=QTY...",
		Short:   "Record material consumed by an IN_PROGRESS order",
		Example: `  bomengine order consume 6f1c... TUBE=3.3 WELD=0.5`,
		Args:    cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			consumed, err := parseMaterials(args[1:])
			if err != nil {
				return err
			}
			return opts.run(cmd, databaseOnly, func(ctx context.Context, app *App) error {
				id := entities.OrderID(args[0])
				if err := app.Orders.RecordConsumption(ctx, app.Tenant, id, consumed); err != nil {
					return err
				}
				detail, err := app.Orders.GetByID(ctx, app.Tenant, id)
				if err != nil {
					return err
				}
				return app.Renderer.Order(detail)
			})
		},
	}
}

func newOrderCostCommand(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "cost ORDER_ID",
		Short: "Aggregate the actual stage costs of an order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, databaseOnly, func(ctx context.Context, app *App) error {
				summary, err := app.Stages.Aggregate(ctx, app.Tenant, entities.OrderID(args[0]))
				if err != nil {
					return err
				}
				return app.Renderer.OrderCost(summary)
			})
		},
	}
}

func newStageCommand(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stage",
		Short: "Record processing stage costs of an order",
	}

	var (
		workCenter                string
		good, defective           string
		material, labor, overhead string
	)
	record := &cobra.Command{
		Use:     "record ORDER_ID STAGE_NUMBER",
		Short:   "Record or overwrite the cost of one stage",
		Example: `  bomengine stage record 6f1c... 1 --work-center WC-WELD --good 2 --material 60 --labor 15 --overhead 3.75`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			number, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid stage number %q: %w", args[1], err)
			}
			amounts := []struct {
				name string
				raw  string
			}{
				{"good quantity", good},
				{"defective quantity", defective},
				{"material cost", material},
				{"labor cost", labor},
				{"overhead cost", overhead},
			}
			parsed := make([]decimal.Decimal, len(amounts))
			for i, a := range amounts {
				if parsed[i], err = parseQuantity(a.name, a.raw); err != nil {
					return err
				}
			}

			stage, err := entities.NewStageCost(
				entities.OrderID(args[0]),
				entities.WorkCenterID(workCenter),
				number,
				parsed[0], parsed[1],
				parsed[2], parsed[3], parsed[4],
			)
			if err != nil {
				return err
			}

			return opts.run(cmd, databaseOnly, func(ctx context.Context, app *App) error {
				if err := app.Stages.RecordStage(ctx, app.Tenant, stage); err != nil {
					return err
				}
				p := app.Config.Costing.Precision
				msg := fmt.Sprintf("Stage %d of order %s recorded as %s: total %s, unit %s",
					stage.StageNumber, stage.OrderID, stage.ID,
					stage.TotalCost.StringFixed(p), stage.UnitCost.StringFixed(p))
				return app.Renderer.Done(msg, stageView(stage, p))
			})
		},
	}
	flags := record.Flags()
	flags.StringVar(&workCenter, "work-center", "", "Work center that performed the stage")
	flags.StringVar(&good, "good", "0", "Good quantity produced")
	flags.StringVar(&defective, "defective", "0", "Defective quantity produced")
	flags.StringVar(&material, "material", "0", "Material cost")
	flags.StringVar(&labor, "labor", "0", "Labor cost")
	flags.StringVar(&overhead, "overhead", "0", "Overhead cost")
	_ = record.MarkFlagRequired("work-center")

	advance := &cobra.Command{
		Use:   "advance STAGE_ID STATUS",
		Short: "Move a stage forward to ACTUAL or COMPLETED",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			status, err := entities.ParseStageStatus(args[1])
			if err != nil {
				return err
			}
			return opts.run(cmd, databaseOnly, func(ctx context.Context, app *App) error {
				stage, err := app.Stages.AdvanceStatus(ctx, app.Tenant, args[0], status)
				if err != nil {
					return err
				}
				msg := fmt.Sprintf("Stage %d of order %s is %s", stage.StageNumber, stage.OrderID, stage.Status)
				return app.Renderer.Done(msg, stageView(stage, app.Config.Costing.Precision))
			})
		},
	}

	cmd.AddCommand(record, advance)
	return cmd
}

func stageView(s *entities.StageCost, places int32) map[string]interface{} {
	return map[string]interface{}{
		"stage_id":           s.ID,
		"order_id":           s.OrderID,
		"work_center_id":     s.WorkCenterID,
		"stage_number":       s.StageNumber,
		"good_quantity":      s.GoodQuantity,
		"defective_quantity": s.DefectiveQuantity,
		"total_cost":         s.TotalCost.Round(places),
		"unit_cost":          s.UnitCost.Round(places),
		"status":             s.Status,
	}
}
