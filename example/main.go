package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/6thd/wardah-process-costing-sub007/pkg/application/dto"
	"github.com/6thd/wardah-process-costing-sub007/pkg/application/services/bom"
	"github.com/6thd/wardah-process-costing-sub007/pkg/application/services/costing"
	"github.com/6thd/wardah-process-costing-sub007/pkg/application/services/inventory"
	"github.com/6thd/wardah-process-costing-sub007/pkg/application/services/manufacturing"
	"github.com/6thd/wardah-process-costing-sub007/pkg/application/services/stagecost"
	"github.com/6thd/wardah-process-costing-sub007/pkg/domain/entities"
	"github.com/6thd/wardah-process-costing-sub007/pkg/infrastructure/events"
	"github.com/6thd/wardah-process-costing-sub007/pkg/infrastructure/repositories/csv"
	"github.com/6thd/wardah-process-costing-sub007/pkg/infrastructure/repositories/memory"
)

const tenant = entities.TenantID("demo")

func main() {
	ctx := context.Background()
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(zerolog.WarnLevel).With().Timestamp().Logger()

	// Load the bicycle scenario into an in-memory store
	scenario, err := csv.NewLoader().LoadScenario("scenarios/bicycle")
	if err != nil {
		fmt.Printf("❌ Loading scenario failed: %v\n", err)
		os.Exit(1)
	}
	store := memory.NewStore()
	if err := scenario.Seed(ctx, tenant, store); err != nil {
		fmt.Printf("❌ Seeding failed: %v\n", err)
		os.Exit(1)
	}

	eventStore := events.NewInMemoryEventStore(log)
	explosion := bom.NewExplosionService(store, store, log)
	reservations := inventory.NewReservationService(store, store, eventStore, inventory.DefaultRetryPolicy(), log)
	orders := manufacturing.NewOrderService(store, store, explosion, reservations, eventStore, log)
	stages := stagecost.NewAggregator(store, store, log)
	costs := costing.NewCostRollupService(
		explosion,
		costing.NewRoutingCostCalculator(store),
		stagecost.NewActualCostAdapter(store, stages),
		log,
	)

	qty := decimal.NewFromInt(2)

	fmt.Println("🚲 Exploding 2 city bicycles...")
	exploded, err := explosion.Explode(ctx, tenant, "BOM-BIKE", qty)
	if err != nil {
		fmt.Printf("❌ Explosion failed: %v\n", err)
		os.Exit(1)
	}
	for _, req := range exploded.Requirements {
		fmt.Printf("  %-6s %10s %s\n", req.Code, req.RequiredQuantity, req.UnitOfMeasure)
	}
	fmt.Println()

	standard, err := costs.StandardCost(ctx, tenant, "BOM-BIKE", qty)
	if err != nil {
		fmt.Printf("❌ Costing failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("💰 Standard cost:")
	fmt.Printf("  Material %s | Labor %s | Overhead %s\n",
		standard.MaterialCost.StringFixed(2), standard.LaborCost.StringFixed(2), standard.OverheadCost.StringFixed(2))
	fmt.Printf("  Total %s | Unit %s\n", standard.TotalCost.StringFixed(2), standard.UnitCost.StringFixed(2))
	fmt.Println()

	fmt.Println("🏭 Creating a manufacturing order...")
	detail, err := orders.CreateOrder(ctx, tenant, dto.CreateOrderRequest{BOMID: "BOM-BIKE", Quantity: qty})
	if err != nil {
		fmt.Printf("❌ Order failed: %v\n", err)
		os.Exit(1)
	}
	orderID := detail.Order.ID
	fmt.Printf("  Order %s reserved %d materials\n", orderID, len(detail.Reservations))

	for _, status := range []entities.OrderStatus{entities.OrderConfirmed, entities.OrderInProgress} {
		if _, err := orders.UpdateStatus(ctx, tenant, orderID, status, dto.StatusOptions{}); err != nil {
			fmt.Printf("❌ Status change failed: %v\n", err)
			os.Exit(1)
		}
	}
	if err := orders.RecordConsumption(ctx, tenant, orderID, exploded.MaterialRequirements()); err != nil {
		fmt.Printf("❌ Consumption failed: %v\n", err)
		os.Exit(1)
	}

	// Frame welding ran over; final assembly came in on standard
	welding, _ := entities.NewStageCost(orderID, "WELDING", 1, decimal.NewFromInt(2), decimal.NewFromInt(1),
		decimal.RequireFromString("91"), decimal.RequireFromString("36"), decimal.RequireFromString("9"))
	assembly, _ := entities.NewStageCost(orderID, "ASSEMBLY", 2, decimal.NewFromInt(2), decimal.Zero,
		decimal.RequireFromString("145.9"), decimal.RequireFromString("40"), decimal.RequireFromString("20"))
	for _, stage := range []*entities.StageCost{welding, assembly} {
		if err := stages.RecordStage(ctx, tenant, stage); err != nil {
			fmt.Printf("❌ Recording stage failed: %v\n", err)
			os.Exit(1)
		}
	}
	if _, err := orders.UpdateStatus(ctx, tenant, orderID, entities.OrderCompleted, dto.StatusOptions{}); err != nil {
		fmt.Printf("❌ Completion failed: %v\n", err)
		os.Exit(1)
	}

	summary, err := stages.Aggregate(ctx, tenant, orderID)
	if err != nil {
		fmt.Printf("❌ Aggregation failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("  Actual total %s, unit %s\n", summary.TotalCost.StringFixed(2), summary.FinalUnitCost.StringFixed(2))
	fmt.Println()

	variances, err := costs.CompareCosts(ctx, tenant, "BOM-BIKE", qty)
	if err != nil {
		fmt.Printf("❌ Comparison failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("📊 Actual vs standard:")
	for _, v := range variances {
		fmt.Printf("  %-9s %10s %10s %10s %8s%%\n", v.CostType,
			v.StandardCost.StringFixed(2), v.ActualCost.StringFixed(2), v.Variance.StringFixed(2), v.VariancePercent.StringFixed(1))
	}
}
