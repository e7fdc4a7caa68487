package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/SaurabhSandav/TradingCompanion-sub000/internal/journal"
	"github.com/SaurabhSandav/TradingCompanion-sub000/internal/models"
	"github.com/SaurabhSandav/TradingCompanion-sub000/internal/store"
)

// executionFlags holds the raw flag values for recording or editing an
// execution.
type executionFlags struct {
	broker     string
	instrument string
	ticker     string
	quantity   string
	lots       int64
	side       string
	price      string
	timestamp  string
	locked     bool
}

func (f *executionFlags) register(cmd *cobra.Command, app *App) {
	cmd.Flags().StringVar(&f.broker, "broker", app.Config.Journal.DefaultBroker, "broker: ZERODHA, FINVASIA, PAPER")
	cmd.Flags().StringVar(&f.instrument, "instrument", app.Config.Journal.DefaultInstrument, "instrument: EQUITY, FUTURE, OPTION")
	cmd.Flags().StringVar(&f.ticker, "ticker", "", "ticker symbol")
	cmd.Flags().StringVar(&f.quantity, "qty", "", "filled quantity")
	cmd.Flags().Int64Var(&f.lots, "lots", 0, "lots (derivatives)")
	cmd.Flags().StringVar(&f.side, "side", "", "side: BUY or SELL")
	cmd.Flags().StringVar(&f.price, "price", "", "fill price")
	cmd.Flags().StringVar(&f.timestamp, "time", "", "fill time (2006-01-02 15:04:05, default now)")
	cmd.Flags().BoolVar(&f.locked, "locked", false, "record as locked")
}

func (f *executionFlags) params() (journal.ExecutionParams, error) {
	quantity, err := decimal.NewFromString(f.quantity)
	if err != nil {
		return journal.ExecutionParams{}, fmt.Errorf("invalid quantity %q: %w", f.quantity, err)
	}
	price, err := decimal.NewFromString(f.price)
	if err != nil {
		return journal.ExecutionParams{}, fmt.Errorf("invalid price %q: %w", f.price, err)
	}

	timestamp := time.Now()
	if f.timestamp != "" {
		timestamp, err = parseTimestamp(f.timestamp)
		if err != nil {
			return journal.ExecutionParams{}, err
		}
	}

	params := journal.ExecutionParams{
		Broker:     models.Broker(strings.ToUpper(f.broker)),
		Instrument: models.Instrument(strings.ToUpper(f.instrument)),
		Ticker:     strings.ToUpper(f.ticker),
		Quantity:   quantity,
		Side:       models.ExecutionSide(strings.ToUpper(f.side)),
		Price:      price,
		Timestamp:  timestamp,
		Locked:     f.locked,
	}
	if f.lots > 0 {
		lots := f.lots
		params.Lots = &lots
	}
	return params, nil
}

func parseTimestamp(value string) (time.Time, error) {
	layouts := []string{
		"2006-01-02 15:04:05",
		"2006-01-02 15:04",
		time.RFC3339,
	}
	for _, layout := range layouts {
		if t, err := time.ParseInLocation(layout, value, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid time %q", value)
}

func parseExecutionIDs(args []string) ([]models.ExecutionID, error) {
	ids := make([]models.ExecutionID, 0, len(args))
	for _, arg := range args {
		id, err := strconv.ParseInt(arg, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid execution id %q", arg)
		}
		ids = append(ids, models.ExecutionID(id))
	}
	return ids, nil
}

// addExecutionCommands adds execution ledger commands.
func addExecutionCommands(rootCmd *cobra.Command, app *App) {
	cmd := &cobra.Command{
		Use:     "execution",
		Aliases: []string{"exec"},
		Short:   "Execution ledger",
		Long:    "Record, edit, delete and lock raw executions. Trades are derived automatically.",
	}

	cmd.AddCommand(newExecutionAddCmd(app))
	cmd.AddCommand(newExecutionEditCmd(app))
	cmd.AddCommand(newExecutionDeleteCmd(app))
	cmd.AddCommand(newExecutionLockCmd(app))
	cmd.AddCommand(newExecutionListCmd(app))

	rootCmd.AddCommand(cmd)
}

func newExecutionAddCmd(app *App) *cobra.Command {
	var flags executionFlags
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record an execution",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			record, err := app.record(cmd)
			if err != nil {
				return err
			}
			params, err := flags.params()
			if err != nil {
				return err
			}

			id, err := record.Journal.NewExecution(cmd.Context(), params)
			if err != nil {
				output.Error("Failed to record execution: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(map[string]int64{"execution_id": int64(id)})
			}
			output.Success("Execution #%d recorded: %s %s %s @ %s",
				id, params.Side, params.Quantity, params.Ticker, params.Price)
			return nil
		},
	}
	flags.register(cmd, app)
	cmd.MarkFlagRequired("ticker")
	cmd.MarkFlagRequired("qty")
	cmd.MarkFlagRequired("side")
	cmd.MarkFlagRequired("price")
	return cmd
}

func newExecutionEditCmd(app *App) *cobra.Command {
	var flags executionFlags
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Edit an execution and re-derive its trades",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			record, err := app.record(cmd)
			if err != nil {
				return err
			}
			ids, err := parseExecutionIDs(args)
			if err != nil {
				return err
			}
			params, err := flags.params()
			if err != nil {
				return err
			}

			if err := record.Journal.EditExecution(cmd.Context(), ids[0], params); err != nil {
				output.Error("Failed to edit execution: %v", err)
				return err
			}
			output.Success("Execution #%d updated", ids[0])
			return nil
		},
	}
	flags.register(cmd, app)
	cmd.MarkFlagRequired("ticker")
	cmd.MarkFlagRequired("qty")
	cmd.MarkFlagRequired("side")
	cmd.MarkFlagRequired("price")
	cmd.MarkFlagRequired("time")
	return cmd
}

func newExecutionDeleteCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>...",
		Short: "Delete executions (atomic batch)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			record, err := app.record(cmd)
			if err != nil {
				return err
			}
			ids, err := parseExecutionIDs(args)
			if err != nil {
				return err
			}

			if err := record.Journal.DeleteExecutions(cmd.Context(), ids); err != nil {
				output.Error("Failed to delete executions: %v", err)
				return err
			}
			output.Success("%d execution(s) deleted", len(ids))
			return nil
		},
	}
}

func newExecutionLockCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "lock <id>...",
		Short: "Lock executions against edit and delete",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			record, err := app.record(cmd)
			if err != nil {
				return err
			}
			ids, err := parseExecutionIDs(args)
			if err != nil {
				return err
			}

			if err := record.Journal.LockExecutions(cmd.Context(), ids); err != nil {
				output.Error("Failed to lock executions: %v", err)
				return err
			}
			output.Success("%d execution(s) locked", len(ids))
			return nil
		},
	}
}

func newExecutionListCmd(app *App) *cobra.Command {
	var ticker string
	var limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List executions",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			record, err := app.record(cmd)
			if err != nil {
				return err
			}

			executions, err := record.Store().ListExecutions(cmd.Context(), store.ExecutionFilter{
				Ticker: strings.ToUpper(ticker),
				Limit:  limit,
			})
			if err != nil {
				output.Error("Failed to list executions: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(executions)
			}
			if len(executions) == 0 {
				output.Info("No executions recorded.")
				return nil
			}

			table := NewTable(output, "ID", "Time", "Ticker", "Side", "Qty", "Price", "Locked")
			for _, e := range executions {
				locked := ""
				if e.Locked {
					locked = "yes"
				}
				table.AddRow(
					strconv.FormatInt(int64(e.ID), 10),
					e.Timestamp.Format("02-Jan-2006 15:04:05"),
					e.Ticker,
					string(e.Side),
					e.Quantity.String(),
					e.Price.String(),
					locked,
				)
			}
			table.Render()
			return nil
		},
	}
	cmd.Flags().StringVar(&ticker, "ticker", "", "filter by ticker")
	cmd.Flags().IntVar(&limit, "limit", 50, "maximum rows")
	return cmd
}
