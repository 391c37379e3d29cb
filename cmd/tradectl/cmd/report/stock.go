package report

import (
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/tradedesk/tradedesk/cmd/tradectl/internal/output"
	"github.com/tradedesk/tradedesk/pkg/sdk"
)

var quantitiesDate string

var productQuantitiesCmd = &cobra.Command{
	Use:   "product-quantities",
	Short: "Stock per product as of a date (default today)",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := validation.Validate(quantitiesDate, validation.Date(dateLayout)); err != nil {
			return fmt.Errorf("invalid --date: %w", err)
		}
		client, ctx, cancel, err := fetch(cmd)
		if err != nil {
			return err
		}
		defer cancel()

		rows, err := client.ProductQuantities(ctx, quantitiesDate)
		if err != nil {
			return failed("product quantities", err)
		}
		return emit(cmd.OutOrStdout(), rows,
			[]string{"product_id", "code", "name", "total_quantity"},
			func(r sdk.ProductQuantityRow) []string {
				return []string{itoa(r.ProductID), r.ProductCode, r.ProductName, r.TotalQuantity.String()}
			})
	},
}

var expiredItemsCmd = &cobra.Command{
	Use:   "expired-items",
	Short: "Batch items shipped past their shelf life",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, ctx, cancel, err := fetch(cmd)
		if err != nil {
			return err
		}
		defer cancel()

		rows, err := client.ExpiredItems(ctx)
		if err != nil {
			return failed("expired items", err)
		}
		return emit(cmd.OutOrStdout(), rows,
			[]string{"batch", "product_code", "product", "broker_id", "broker_company"},
			func(r sdk.ExpiredItem) []string {
				return []string{r.BatchNumber, r.ProductCode, r.ProductName, itoa(r.BrokerID), r.BrokerCompany}
			})
	},
}

var latestTradesCmd = &cobra.Command{
	Use:   "latest-trades",
	Short: "Last batch offering each product",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, ctx, cancel, err := fetch(cmd)
		if err != nil {
			return err
		}
		defer cancel()

		report, err := client.LatestTrades(ctx)
		if err != nil {
			return failed("latest trades", err)
		}
		if outputFormat == output.FormatJSON && rowFilter == "" && len(whereArgs) == 0 {
			return output.JSON(cmd.OutOrStdout(), report)
		}

		if err := emit(cmd.OutOrStdout(), report.Items,
			[]string{"code", "product", "manufacturer", "last_batch", "date", "quantity", "company", "total_quantity"},
			func(r sdk.LatestTradeRow) []string {
				return []string{
					r.ProductCode, r.ProductName, r.Manufacturer, r.LastBatchNumber, r.LastBatchDate,
					r.LastBatchQuantity.String(), r.OfferedByCompany, r.TotalQuantity.String(),
				}
			}); err != nil {
			return err
		}
		if outputFormat == output.FormatTable {
			pterm.Info.Printf("%d products, total quantity %s\n", report.TotalProducts, report.TotalQuantity)
		}
		return nil
	},
}

func init() {
	productQuantitiesCmd.Flags().StringVar(&quantitiesDate, "date", "", "Stock date (YYYY-MM-DD)")
}
