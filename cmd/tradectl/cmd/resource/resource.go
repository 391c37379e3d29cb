package resource

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/tradedesk/tradedesk/cmd/tradectl/internal/config"
	"github.com/tradedesk/tradedesk/cmd/tradectl/internal/output"
	"github.com/tradedesk/tradedesk/cmd/tradectl/internal/routing"
	"github.com/tradedesk/tradedesk/pkg/sdk"
)

const requestTimeout = 30 * time.Second

// view describes how one REST collection is exposed on the command line.
type view[T any] struct {
	use      string
	short    string
	route    string
	columns  []string
	row      func(T) []string
	resource func(*sdk.Client) sdk.Resource[T]
}

func sdkClient(ctx context.Context) (*sdk.Client, error) {
	cfg := config.MustFromContext(ctx)
	return cfg.ClientProvider.SDKClient(ctx)
}

func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q: must be a positive integer", arg)
	}
	return id, nil
}

// readPayload returns the JSON document given inline, from a file (@path)
// or from stdin (-).
func readPayload(stdin io.Reader, data string) (json.RawMessage, error) {
	var raw []byte
	switch {
	case data == "":
		return nil, errors.New("--data is required")
	case data == "-":
		b, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("failed to read stdin: %w", err)
		}
		raw = b
	case strings.HasPrefix(data, "@"):
		b, err := os.ReadFile(strings.TrimPrefix(data, "@"))
		if err != nil {
			return nil, fmt.Errorf("failed to read payload file: %w", err)
		}
		raw = b
	default:
		raw = []byte(data)
	}

	raw = bytes.TrimSpace(raw)
	if !json.Valid(raw) || len(raw) == 0 || raw[0] != '{' {
		return nil, errors.New("payload must be a JSON object")
	}
	return json.RawMessage(raw), nil
}

func (v view[T]) render(w io.Writer, format string, items ...T) error {
	if format == output.FormatJSON {
		if len(items) == 1 {
			return output.JSON(w, items[0])
		}
		return output.JSON(w, items)
	}
	rows := make([][]string, 0, len(items))
	for _, item := range items {
		rows = append(rows, v.row(item))
	}
	return output.Table(w, v.columns, rows)
}

// failed wraps err with the backend's readable message.
func failed(action string, err error) error {
	return fmt.Errorf("failed to %s: %s: %w", action, sdk.ErrorMessage(err), err)
}

// newCommand builds the list/get/create/update/delete tree for a view.
func newCommand[T any](v view[T]) *cobra.Command {
	var (
		format string
		filter string
		where  []string
		data   string
		yes    bool
	)

	parent := &cobra.Command{
		Use:   v.use,
		Short: v.short,
	}
	annotations := routing.For(v.route)

	listCmd := &cobra.Command{
		Use:         "list",
		Short:       "List " + v.use,
		Args:        cobra.NoArgs,
		Annotations: annotations,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := output.ValidateFormat(format); err != nil {
				return err
			}
			match, warnings, err := sdk.ParseMatch(where)
			if err != nil {
				return err
			}
			for _, warning := range warnings {
				pterm.Warning.Println(warning)
			}

			client, err := sdkClient(cmd.Context())
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), requestTimeout)
			defer cancel()

			items, err := v.resource(client).List(ctx)
			if err != nil {
				return failed("list "+v.use, err)
			}
			items, err = sdk.FilterRows(items, sdk.CombineFilters(filter, match.Expression()))
			if err != nil {
				return err
			}
			if format == output.FormatJSON {
				return output.JSON(cmd.OutOrStdout(), items)
			}
			return v.render(cmd.OutOrStdout(), format, items...)
		},
	}
	listCmd.Flags().StringVar(&filter, "filter", "", "Filter expression over JSON field names (e.g. 'active == true')")
	listCmd.Flags().StringArrayVarP(&where, "where", "w", nil, "Field equality constraint key=value (repeatable)")

	getCmd := &cobra.Command{
		Use:         "get <id>",
		Short:       "Show one record",
		Args:        cobra.ExactArgs(1),
		Annotations: annotations,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := output.ValidateFormat(format); err != nil {
				return err
			}
			client, err := sdkClient(cmd.Context())
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), requestTimeout)
			defer cancel()

			item, err := v.resource(client).Get(ctx, id)
			if err != nil {
				return failed(fmt.Sprintf("get %s %d", v.use, id), err)
			}
			return v.render(cmd.OutOrStdout(), format, *item)
		},
	}

	createCmd := &cobra.Command{
		Use:         "create",
		Short:       "Create a record from a JSON document",
		Args:        cobra.NoArgs,
		Annotations: annotations,
		RunE: func(cmd *cobra.Command, args []string) error {
			payload, err := readPayload(cmd.InOrStdin(), data)
			if err != nil {
				return err
			}
			if err := output.ValidateFormat(format); err != nil {
				return err
			}
			client, err := sdkClient(cmd.Context())
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), requestTimeout)
			defer cancel()

			item, err := v.resource(client).Create(ctx, payload)
			if err != nil {
				return failed("create "+v.use, err)
			}
			return v.render(cmd.OutOrStdout(), format, *item)
		},
	}

	updateCmd := &cobra.Command{
		Use:         "update <id>",
		Short:       "Replace a record with a JSON document",
		Args:        cobra.ExactArgs(1),
		Annotations: annotations,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			payload, err := readPayload(cmd.InOrStdin(), data)
			if err != nil {
				return err
			}
			if err := output.ValidateFormat(format); err != nil {
				return err
			}
			client, err := sdkClient(cmd.Context())
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), requestTimeout)
			defer cancel()

			item, err := v.resource(client).Update(ctx, id, payload)
			if err != nil {
				return failed(fmt.Sprintf("update %s %d", v.use, id), err)
			}
			return v.render(cmd.OutOrStdout(), format, *item)
		},
	}

	deleteCmd := &cobra.Command{
		Use:         "delete <id>",
		Short:       "Delete a record",
		Args:        cobra.ExactArgs(1),
		Annotations: annotations,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			cfg := config.MustFromContext(cmd.Context())
			if !yes {
				if cfg.NonInteractive {
					return errors.New("refusing to delete without --yes in non-interactive mode")
				}
				ok, err := pterm.DefaultInteractiveConfirm.Show(fmt.Sprintf("Delete %s %d?", v.use, id))
				if err != nil {
					return err
				}
				if !ok {
					pterm.Info.Println("Aborted")
					return nil
				}
			}

			client, err := sdkClient(cmd.Context())
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), requestTimeout)
			defer cancel()

			if err := v.resource(client).Delete(ctx, id); err != nil {
				return failed(fmt.Sprintf("delete %s %d", v.use, id), err)
			}
			pterm.Success.Printf("Deleted %s %d\n", v.use, id)
			return nil
		},
	}
	deleteCmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")

	for _, c := range []*cobra.Command{listCmd, getCmd, createCmd, updateCmd} {
		c.Flags().StringVarP(&format, "output", "o", output.FormatTable, "Output format (table|json)")
	}
	for _, c := range []*cobra.Command{createCmd, updateCmd} {
		c.Flags().StringVarP(&data, "data", "d", "", "JSON object, @file or - for stdin")
	}

	parent.AddCommand(listCmd, getCmd, createCmd, updateCmd, deleteCmd)
	return parent
}

func id(v int64) string {
	return strconv.FormatInt(v, 10)
}
