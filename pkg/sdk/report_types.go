package sdk

// ProductQuantityRow is the stock of one product as of a date.
type ProductQuantityRow struct {
	ProductID     int64   `json:"product_id"`
	ProductCode   string  `json:"product__code"`
	ProductName   string  `json:"product__name"`
	TotalQuantity Decimal `json:"total_quantity"`
}

// TopManufacturerRow is the manufacturer with the highest revenue in a period.
type TopManufacturerRow struct {
	ManufacturerID   int64   `json:"product__manufacturer_id"`
	ManufacturerName string  `json:"product__manufacturer__name"`
	Revenue          Decimal `json:"revenue"`
}

// UnsoldProduct is a product a broker company never traded.
type UnsoldProduct struct {
	ID   int64  `json:"id"`
	Code string `json:"code"`
	Name string `json:"name"`
}

// ExpiredItem is a batch line shipped past its shelf life.
type ExpiredItem struct {
	BatchNumber   string `json:"batch_number"`
	ProductCode   string `json:"product_code"`
	ProductName   string `json:"product_name"`
	BrokerID      int64  `json:"broker_id"`
	BrokerCompany string `json:"broker_company"`
}

// BrokerSalaryRow is the payout computed for one broker.
type BrokerSalaryRow struct {
	BrokerID   int64   `json:"broker_id"`
	Company    string  `json:"company"`
	Turnover   Decimal `json:"turnover"`
	Commission Decimal `json:"commission"`
	MonthlyFee Decimal `json:"monthly_fee"`
	Salary     Decimal `json:"salary"`
}

// LatestTradeRow is the last batch that offered a product.
type LatestTradeRow struct {
	ProductID         int64   `json:"product_id"`
	ProductCode       string  `json:"product_code"`
	ProductName       string  `json:"product_name"`
	Manufacturer      string  `json:"manufacturer"`
	LastBatchNumber   string  `json:"last_batch_number"`
	LastBatchDate     string  `json:"last_batch_date"`
	LastBatchQuantity Decimal `json:"last_batch_quantity"`
	OfferedByCompany  string  `json:"offered_by_company"`
	TotalQuantity     Decimal `json:"total_quantity"`
}

// LatestTradesReport wraps the latest trade rows with totals.
type LatestTradesReport struct {
	TotalProducts int              `json:"total_products"`
	TotalQuantity Decimal          `json:"total_quantity"`
	Items         []LatestTradeRow `json:"items"`
}

// DateRange bounds a report period. Dates are ISO (YYYY-MM-DD); empty means open.
type DateRange struct {
	Start string
	End   string
}

// CompanyFilter selects a broker company by id or name.
type CompanyFilter struct {
	CompanyID   string
	CompanyName string
}

// BrokerSalaryFilter combines the company and period filters.
type BrokerSalaryFilter struct {
	CompanyFilter
	DateRange
}
