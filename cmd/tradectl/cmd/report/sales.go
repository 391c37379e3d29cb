package report

import (
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/tradedesk/tradedesk/cmd/tradectl/internal/output"
	"github.com/tradedesk/tradedesk/pkg/sdk"
)

var (
	period  sdk.DateRange
	company sdk.CompanyFilter
)

var topManufacturerCmd = &cobra.Command{
	Use:   "top-manufacturer",
	Short: "Manufacturer with the highest revenue in a period",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := validateRange(period); err != nil {
			return err
		}
		client, ctx, cancel, err := fetch(cmd)
		if err != nil {
			return err
		}
		defer cancel()

		row, err := client.TopManufacturer(ctx, period)
		if err != nil {
			return failed("top manufacturer", err)
		}
		if outputFormat == output.FormatJSON {
			return output.JSON(cmd.OutOrStdout(), row)
		}
		if row == nil {
			pterm.Info.Println("No sales in the selected period")
			return nil
		}
		return output.Table(cmd.OutOrStdout(),
			[]string{"manufacturer_id", "manufacturer", "revenue"},
			[][]string{{itoa(row.ManufacturerID), row.ManufacturerName, row.Revenue.String()}})
	},
}

var unsoldProductsCmd = &cobra.Command{
	Use:   "unsold-products",
	Short: "Products a broker company never traded",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := validateCompany(company); err != nil {
			return err
		}
		client, ctx, cancel, err := fetch(cmd)
		if err != nil {
			return err
		}
		defer cancel()

		rows, err := client.UnsoldProducts(ctx, company)
		if err != nil {
			return failed("unsold products", err)
		}
		return emit(cmd.OutOrStdout(), rows,
			[]string{"id", "code", "name"},
			func(r sdk.UnsoldProduct) []string {
				return []string{itoa(r.ID), r.Code, r.Name}
			})
	},
}

var brokerSalariesCmd = &cobra.Command{
	Use:   "broker-salaries",
	Short: "Broker payouts for a company and period",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := validateCompany(company); err != nil {
			return err
		}
		if err := validateRange(period); err != nil {
			return err
		}
		client, ctx, cancel, err := fetch(cmd)
		if err != nil {
			return err
		}
		defer cancel()

		rows, err := client.BrokerSalaries(ctx, sdk.BrokerSalaryFilter{CompanyFilter: company, DateRange: period})
		if err != nil {
			return failed("broker salaries", err)
		}
		return emit(cmd.OutOrStdout(), rows,
			[]string{"broker_id", "company", "turnover", "commission", "monthly_fee", "salary"},
			func(r sdk.BrokerSalaryRow) []string {
				return []string{
					itoa(r.BrokerID), r.Company, r.Turnover.String(),
					r.Commission.String(), r.MonthlyFee.String(), r.Salary.String(),
				}
			})
	},
}

func init() {
	for _, c := range []*cobra.Command{topManufacturerCmd, brokerSalariesCmd} {
		c.Flags().StringVar(&period.Start, "start", "", "Period start (YYYY-MM-DD)")
		c.Flags().StringVar(&period.End, "end", "", "Period end (YYYY-MM-DD)")
	}
	for _, c := range []*cobra.Command{unsoldProductsCmd, brokerSalariesCmd} {
		c.Flags().StringVar(&company.CompanyID, "company-id", "", "Broker company id")
		c.Flags().StringVar(&company.CompanyName, "company-name", "", "Broker company name")
		c.MarkFlagsMutuallyExclusive("company-id", "company-name")
	}
}
