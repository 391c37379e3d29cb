package resource

import (
	"strconv"

	"github.com/spf13/cobra"
	"github.com/tradedesk/tradedesk/cmd/tradectl/internal/output"
	"github.com/tradedesk/tradedesk/pkg/sdk"
)

// TradingCmd groups batches and their items.
var TradingCmd = &cobra.Command{
	Use:   "trading",
	Short: "Manage trading batches and batch items",
}

func init() {
	TradingCmd.AddCommand(newCommand(view[sdk.Batch]{
		use:     "batches",
		short:   "Manage batches",
		route:   "batches",
		columns: []string{"id", "number", "broker", "contract_date", "shipment_date", "prepayment"},
		row: func(b sdk.Batch) []string {
			return []string{id(b.ID), b.Number, id(b.Broker), b.ContractDate, output.String(b.ShipmentDate), strconv.FormatBool(b.Prepayment)}
		},
		resource: func(c *sdk.Client) sdk.Resource[sdk.Batch] { return c.Batches },
	}))

	TradingCmd.AddCommand(newCommand(view[sdk.BatchItem]{
		use:     "batch-items",
		short:   "Manage batch items",
		route:   "batch-items",
		columns: []string{"id", "batch", "product", "production_date", "quantity", "unit_price", "total_price", "expired"},
		row: func(i sdk.BatchItem) []string {
			return []string{
				id(i.ID), id(i.Batch), id(i.Product), i.ProductionDate,
				i.Quantity.String(), i.UnitPrice.String(), i.TotalPrice.String(), strconv.FormatBool(i.IsExpired),
			}
		},
		resource: func(c *sdk.Client) sdk.Resource[sdk.BatchItem] { return c.BatchItems },
	}))
}
