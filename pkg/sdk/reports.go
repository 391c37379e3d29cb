package sdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

const reportsPath = "api/reports/"

func setIf(q url.Values, key, value string) {
	if value != "" {
		q.Set(key, value)
	}
}

func (c *Client) report(ctx context.Context, name string, q url.Values, out any) error {
	return c.transport.Do(ctx, http.MethodGet, reportsPath+name+"/", q, nil, out)
}

// ProductQuantities reports stock per product as of date (server default: today).
func (c *Client) ProductQuantities(ctx context.Context, date string) ([]ProductQuantityRow, error) {
	q := url.Values{}
	setIf(q, "date", date)
	var rows []ProductQuantityRow
	if err := c.report(ctx, "product-quantities", q, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// TopManufacturer returns the highest-revenue manufacturer in the period, or
// nil when the period has no sales.
func (c *Client) TopManufacturer(ctx context.Context, period DateRange) (*TopManufacturerRow, error) {
	q := url.Values{}
	setIf(q, "start", period.Start)
	setIf(q, "end", period.End)

	var raw json.RawMessage
	if err := c.report(ctx, "top-manufacturer", q, &raw); err != nil {
		return nil, err
	}
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("{}")) || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}
	var row TopManufacturerRow
	if err := json.Unmarshal(trimmed, &row); err != nil {
		return nil, fmt.Errorf("decode top manufacturer report: %w", err)
	}
	return &row, nil
}

// UnsoldProducts lists products the selected company never traded.
func (c *Client) UnsoldProducts(ctx context.Context, company CompanyFilter) ([]UnsoldProduct, error) {
	q := url.Values{}
	setIf(q, "company_id", company.CompanyID)
	setIf(q, "company_name", company.CompanyName)
	var rows []UnsoldProduct
	if err := c.report(ctx, "unsold-products", q, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func (c *Client) ExpiredItems(ctx context.Context) ([]ExpiredItem, error) {
	var rows []ExpiredItem
	if err := c.report(ctx, "expired-items", nil, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func (c *Client) BrokerSalaries(ctx context.Context, filter BrokerSalaryFilter) ([]BrokerSalaryRow, error) {
	q := url.Values{}
	setIf(q, "company_id", filter.CompanyID)
	setIf(q, "company_name", filter.CompanyName)
	setIf(q, "start", filter.Start)
	setIf(q, "end", filter.End)
	var rows []BrokerSalaryRow
	if err := c.report(ctx, "broker-salaries", q, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func (c *Client) LatestTrades(ctx context.Context) (*LatestTradesReport, error) {
	var report LatestTradesReport
	if err := c.report(ctx, "latest-trades", nil, &report); err != nil {
		return nil, err
	}
	return &report, nil
}
