package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/SaurabhSandav/TradingCompanion-sub000/internal/models"
	"github.com/SaurabhSandav/TradingCompanion-sub000/internal/store"
)

func parseTradeID(arg string) (models.TradeID, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid trade id %q", arg)
	}
	return models.TradeID(id), nil
}

// addTradeCommands adds derived-trade commands.
func addTradeCommands(rootCmd *cobra.Command, app *App) {
	cmd := &cobra.Command{
		Use:   "trade",
		Short: "Derived trades",
		Long:  "List and inspect trades derived from the execution ledger.",
	}

	cmd.AddCommand(newTradeListCmd(app))
	cmd.AddCommand(newTradeShowCmd(app))
	cmd.AddCommand(newTradeCountCmd(app))

	rootCmd.AddCommand(cmd)
}

func newTradeListCmd(app *App) *cobra.Command {
	var (
		ticker string
		side   string
		status string
		tag    string
		sort   string
		limit  int
		offset int
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List trades",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			record, err := app.record(cmd)
			if err != nil {
				return err
			}

			filter := store.TradeFilter{
				Ticker: strings.ToUpper(ticker),
				Side:   models.TradeSide(strings.ToUpper(side)),
				Tag:    tag,
				Sort:   store.TradeSort(sort),
				Limit:  limit,
				Offset: offset,
			}
			switch status {
			case "open":
				open := false
				filter.Closed = &open
			case "closed":
				closed := true
				filter.Closed = &closed
			case "":
			default:
				return fmt.Errorf("invalid status %q (open or closed)", status)
			}

			trades, err := record.Store().ListTrades(cmd.Context(), filter)
			if err != nil {
				output.Error("Failed to list trades: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(trades)
			}
			if len(trades) == 0 {
				output.Info("No trades match.")
				return nil
			}

			table := NewTable(output, "ID", "Entry", "Ticker", "Side", "Qty", "Avg Entry", "Avg Exit", "Net P&L", "Status")
			for _, t := range trades {
				statusCell := output.Yellow("OPEN")
				if t.IsClosed {
					statusCell = output.DimText("CLOSED")
				}
				avgExit := "-"
				if t.ClosedQuantity.Sign() > 0 {
					avgExit = t.AverageExit.String()
				}
				table.AddRow(
					strconv.FormatInt(int64(t.ID), 10),
					t.EntryTimestamp.Format("02-Jan-2006 15:04"),
					t.Ticker,
					string(t.Side),
					t.Quantity.String(),
					t.AverageEntry.String(),
					avgExit,
					output.FormatPnL(t.NetPnL),
					statusCell,
				)
			}
			table.Render()
			return nil
		},
	}
	cmd.Flags().StringVar(&ticker, "ticker", "", "filter by ticker")
	cmd.Flags().StringVar(&side, "side", "", "filter by side: LONG or SHORT")
	cmd.Flags().StringVar(&status, "status", "", "filter by status: open or closed")
	cmd.Flags().StringVar(&tag, "tag", "", "filter by tag")
	cmd.Flags().StringVar(&sort, "sort", string(store.TradeSortEntryDesc), "sort: entry_desc, entry_asc, net_pnl")
	cmd.Flags().IntVar(&limit, "limit", 50, "maximum rows")
	cmd.Flags().IntVar(&offset, "offset", 0, "row offset")
	return cmd
}

func newTradeShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a trade with its executions and supplemental data",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx := cmd.Context()

			record, err := app.record(cmd)
			if err != nil {
				return err
			}
			tradeID, err := parseTradeID(args[0])
			if err != nil {
				return err
			}

			trade, err := record.Journal.Trade(ctx, tradeID)
			if err != nil {
				output.Error("Failed to fetch trade: %v", err)
				return err
			}
			executions, err := record.Journal.Executions(ctx, tradeID)
			if err != nil {
				return err
			}
			stops, err := record.Journal.Stops(ctx, tradeID)
			if err != nil {
				return err
			}
			targets, err := record.Journal.Targets(ctx, tradeID)
			if err != nil {
				return err
			}
			notes, err := record.Journal.Notes(ctx, tradeID)
			if err != nil {
				return err
			}
			tags, err := record.Journal.Tags(ctx, tradeID)
			if err != nil {
				return err
			}
			attachments, err := record.Journal.Attachments(ctx, tradeID)
			if err != nil {
				return err
			}

			if output.IsJSON() {
				return output.JSON(map[string]interface{}{
					"trade":       trade,
					"executions":  executions,
					"stops":       stops,
					"targets":     targets,
					"notes":       notes,
					"tags":        tags,
					"attachments": attachments,
				})
			}

			status := "OPEN"
			if trade.IsClosed {
				status = "CLOSED"
			}
			output.Bold("Trade #%d  %s %s %s  [%s]", trade.ID, trade.Side, trade.Quantity, trade.Ticker, status)
			output.Printf("  Broker:       %s (%s)\n", trade.Broker, trade.Instrument)
			output.Printf("  Avg Entry:    %s\n", trade.AverageEntry)
			if trade.ClosedQuantity.Sign() > 0 {
				output.Printf("  Avg Exit:     %s\n", trade.AverageExit)
				output.Printf("  Closed Qty:   %s\n", trade.ClosedQuantity)
				output.Printf("  Net P&L:      %s (fees %s)\n", output.FormatPnL(trade.NetPnL), trade.Fees)
			}
			output.Printf("  Entry Time:   %s\n", trade.EntryTimestamp.Format("02-Jan-2006 15:04:05"))
			if trade.ExitTimestamp != nil {
				output.Printf("  Exit Time:    %s\n", trade.ExitTimestamp.Format("02-Jan-2006 15:04:05"))
			}
			output.Println()

			output.Bold("Executions")
			table := NewTable(output, "ID", "Time", "Side", "Qty", "Price")
			for _, e := range executions {
				table.AddRow(
					strconv.FormatInt(int64(e.ID), 10),
					e.Timestamp.Format("15:04:05"),
					string(e.Side),
					e.Quantity.String(),
					e.Price.String(),
				)
			}
			table.Render()

			for _, s := range stops {
				marker := ""
				if s.IsPrimary {
					marker = " (primary)"
				}
				output.Printf("Stop:   %s%s\n", s.Price, marker)
			}
			for _, t := range targets {
				marker := ""
				if t.IsPrimary {
					marker = " (primary)"
				}
				output.Printf("Target: %s%s\n", t.Price, marker)
			}
			if len(tags) > 0 {
				names := make([]string, 0, len(tags))
				for _, t := range tags {
					names = append(names, t.Name)
				}
				output.Printf("Tags:   %s\n", strings.Join(names, ", "))
			}
			for _, n := range notes {
				output.Printf("Note #%d (%s): %s\n", n.ID, n.AddedAt.Format("02-Jan 15:04"), n.Text)
			}
			for _, a := range attachments {
				output.Printf("Attachment #%d: %s (%s)\n", a.ID, a.Title, a.Checksum[:12])
			}
			return nil
		},
	}
}

func newTradeCountCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "count",
		Short: "Show total and open trade counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			record, err := app.record(cmd)
			if err != nil {
				return err
			}

			counts, err := record.Store().CountTrades(cmd.Context())
			if err != nil {
				output.Error("Failed to count trades: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(counts)
			}
			output.Printf("Total: %d  Open: %d\n", counts.Total, counts.Open)
			return nil
		},
	}
}
