package report

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/spf13/cobra"
	"github.com/tradedesk/tradedesk/cmd/tradectl/internal/config"
	"github.com/tradedesk/tradedesk/cmd/tradectl/internal/output"
	"github.com/tradedesk/tradedesk/cmd/tradectl/internal/routing"
	"github.com/tradedesk/tradedesk/pkg/sdk"
)

const (
	dateLayout     = "2006-01-02"
	requestTimeout = 30 * time.Second
)

// ReportCmd is the parent command for the analytical reports
var ReportCmd = &cobra.Command{
	Use:     "report",
	Aliases: []string{"reports"},
	Short:   "Run back-office reports",
}

var (
	outputFormat string
	rowFilter    string
	whereArgs    []string
)

func init() {
	ReportCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", output.FormatTable, "Output format (table|json)")

	for _, c := range []*cobra.Command{
		productQuantitiesCmd,
		topManufacturerCmd,
		unsoldProductsCmd,
		expiredItemsCmd,
		brokerSalariesCmd,
		latestTradesCmd,
	} {
		c.Annotations = routing.For("report-" + c.Name())
		c.Args = cobra.NoArgs
		ReportCmd.AddCommand(c)
	}
	for _, c := range []*cobra.Command{productQuantitiesCmd, unsoldProductsCmd, expiredItemsCmd, brokerSalariesCmd, latestTradesCmd} {
		c.Flags().StringVar(&rowFilter, "filter", "", "Filter expression over the row's JSON fields")
		c.Flags().StringArrayVarP(&whereArgs, "where", "w", nil, "Field equality constraint key=value (repeatable)")
	}
}

// fetch validates the shared flags and returns a client with a bounded context.
func fetch(cmd *cobra.Command) (*sdk.Client, context.Context, context.CancelFunc, error) {
	if err := output.ValidateFormat(outputFormat); err != nil {
		return nil, nil, nil, err
	}
	if _, err := rowExpression(); err != nil {
		return nil, nil, nil, err
	}
	cfg := config.MustFromContext(cmd.Context())
	client, err := cfg.ClientProvider.SDKClient(cmd.Context())
	if err != nil {
		return nil, nil, nil, err
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), requestTimeout)
	return client, ctx, cancel, nil
}

func validateRange(period sdk.DateRange) error {
	err := validation.Errors{
		"start": validation.Validate(period.Start, validation.Date(dateLayout)),
		"end":   validation.Validate(period.End, validation.Date(dateLayout)),
	}.Filter()
	if err != nil {
		return fmt.Errorf("invalid period: %w", err)
	}
	if period.Start != "" && period.End != "" && period.End < period.Start {
		return errors.New("invalid period: end is before start")
	}
	return nil
}

func validateCompany(company sdk.CompanyFilter) error {
	if err := validation.Validate(company.CompanyID, is.Digit); err != nil {
		return fmt.Errorf("invalid --company-id: %w", err)
	}
	return nil
}

func failed(name string, err error) error {
	return fmt.Errorf("failed to load %s report: %s: %w", name, sdk.ErrorMessage(err), err)
}

// rowExpression merges --filter with the --where constraints.
func rowExpression() (string, error) {
	match, _, err := sdk.ParseMatch(whereArgs)
	if err != nil {
		return "", err
	}
	return sdk.CombineFilters(rowFilter, match.Expression()), nil
}

// emit filters rows and writes them in the selected format.
func emit[T any](w io.Writer, rows []T, header []string, toRow func(T) []string) error {
	expr, err := rowExpression()
	if err != nil {
		return err
	}
	rows, err = sdk.FilterRows(rows, expr)
	if err != nil {
		return err
	}
	if outputFormat == output.FormatJSON {
		return output.JSON(w, rows)
	}
	cells := make([][]string, 0, len(rows))
	for _, row := range rows {
		cells = append(cells, toRow(row))
	}
	return output.Table(w, header, cells)
}

func itoa(v int64) string {
	return strconv.FormatInt(v, 10)
}
