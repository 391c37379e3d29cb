package sdk

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Decimal holds a decimal amount as sent by the backend. The API emits
// decimals as strings but accepts numbers too.
type Decimal string

func (d *Decimal) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*d = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*d = Decimal(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("decimal must be a string or number: %w", err)
	}
	*d = Decimal(n.String())
	return nil
}

func (d Decimal) String() string {
	return string(d)
}

// Unit is the measure a product is traded in.
type Unit string

const (
	UnitPiece Unit = "piece"
	UnitKg    Unit = "kg"
	UnitTon   Unit = "ton"
)

type Manufacturer struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	TaxID       *string `json:"tax_id,omitempty"`
	Country     *string `json:"country,omitempty"`
	ContactInfo string  `json:"contact_info,omitempty"`
}

type Product struct {
	ID            int64  `json:"id"`
	Code          string `json:"code"`
	Name          string `json:"name"`
	Manufacturer  int64  `json:"manufacturer"`
	Unit          Unit   `json:"unit"`
	ShelfLifeDays int    `json:"shelf_life_days"`
}

type BrokerCompany struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	MonthlyFee  Decimal `json:"monthly_fee"`
	ContactInfo string  `json:"contact_info,omitempty"`
}

type Broker struct {
	ID             int64   `json:"id"`
	Company        int64   `json:"company"`
	CommissionRate Decimal `json:"commission_rate"`
	Active         bool    `json:"active"`
	User           *int64  `json:"user,omitempty"`
}

type Batch struct {
	ID           int64   `json:"id"`
	Number       string  `json:"number"`
	Broker       int64   `json:"broker"`
	ContractDate string  `json:"contract_date"`
	ShipmentDate *string `json:"shipment_date,omitempty"`
	Prepayment   bool    `json:"prepayment"`
	Notes        string  `json:"notes,omitempty"`
}

// BatchItem is a product line inside a batch. IsExpired and TotalPrice are
// computed by the server.
type BatchItem struct {
	ID             int64   `json:"id"`
	Batch          int64   `json:"batch"`
	Product        int64   `json:"product"`
	ProductionDate string  `json:"production_date"`
	Quantity       Decimal `json:"quantity"`
	UnitPrice      Decimal `json:"unit_price"`
	IsExpired      bool    `json:"is_expired,omitempty"`
	TotalPrice     Decimal `json:"total_price,omitempty"`
}
