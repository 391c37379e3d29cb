package resource

import (
	"strconv"

	"github.com/spf13/cobra"
	"github.com/tradedesk/tradedesk/cmd/tradectl/internal/output"
	"github.com/tradedesk/tradedesk/pkg/sdk"
)

// CatalogCmd groups the staff-only reference data.
var CatalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Manage manufacturers, products, broker companies and brokers (admin)",
}

func init() {
	CatalogCmd.AddCommand(newCommand(view[sdk.Manufacturer]{
		use:     "manufacturers",
		short:   "Manage manufacturers",
		route:   "manufacturers",
		columns: []string{"id", "name", "tax_id", "country", "contact_info"},
		row: func(m sdk.Manufacturer) []string {
			return []string{id(m.ID), m.Name, output.String(m.TaxID), output.String(m.Country), m.ContactInfo}
		},
		resource: func(c *sdk.Client) sdk.Resource[sdk.Manufacturer] { return c.Manufacturers },
	}))

	CatalogCmd.AddCommand(newCommand(view[sdk.Product]{
		use:     "products",
		short:   "Manage products",
		route:   "products",
		columns: []string{"id", "code", "name", "manufacturer", "unit", "shelf_life_days"},
		row: func(p sdk.Product) []string {
			return []string{id(p.ID), p.Code, p.Name, id(p.Manufacturer), string(p.Unit), strconv.Itoa(p.ShelfLifeDays)}
		},
		resource: func(c *sdk.Client) sdk.Resource[sdk.Product] { return c.Products },
	}))

	CatalogCmd.AddCommand(newCommand(view[sdk.BrokerCompany]{
		use:     "broker-companies",
		short:   "Manage broker companies",
		route:   "broker-companies",
		columns: []string{"id", "name", "monthly_fee", "contact_info"},
		row: func(b sdk.BrokerCompany) []string {
			return []string{id(b.ID), b.Name, b.MonthlyFee.String(), b.ContactInfo}
		},
		resource: func(c *sdk.Client) sdk.Resource[sdk.BrokerCompany] { return c.BrokerCompanies },
	}))

	CatalogCmd.AddCommand(newCommand(view[sdk.Broker]{
		use:     "brokers",
		short:   "Manage brokers",
		route:   "brokers",
		columns: []string{"id", "company", "commission_rate", "active", "user"},
		row: func(b sdk.Broker) []string {
			return []string{id(b.ID), id(b.Company), b.CommissionRate.String(), strconv.FormatBool(b.Active), output.Int64(b.User)}
		},
		resource: func(c *sdk.Client) sdk.Resource[sdk.Broker] { return c.Brokers },
	}))
}
