package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/SaurabhSandav/TradingCompanion-sub000/internal/models"
)

func parseTradeIDs(args []string) ([]models.TradeID, error) {
	ids := make([]models.TradeID, 0, len(args))
	for _, arg := range args {
		id, err := parseTradeID(arg)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// addReviewCommands adds trade review commands.
func addReviewCommands(rootCmd *cobra.Command, app *App) {
	cmd := &cobra.Command{
		Use:   "review",
		Short: "Trade reviews",
		Long:  "Write-ups referencing one or more trades.",
	}

	var text string
	addCmd := &cobra.Command{
		Use:   "add <title> [trade-id]...",
		Short: "Create a review referencing trades",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			record, err := app.record(cmd)
			if err != nil {
				return err
			}
			tradeIDs, err := parseTradeIDs(args[1:])
			if err != nil {
				return err
			}

			id, err := record.Journal.AddReview(cmd.Context(), args[0], text, tradeIDs)
			if err != nil {
				output.Error("Failed to create review: %v", err)
				return err
			}
			output.Success("Review #%d created", id)
			return nil
		},
	}
	addCmd.Flags().StringVar(&text, "text", "", "review body")
	cmd.AddCommand(addCmd)

	editText := ""
	editCmd := &cobra.Command{
		Use:   "edit <review-id> <title> [trade-id]...",
		Short: "Edit a review",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			record, err := app.record(cmd)
			if err != nil {
				return err
			}
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid review id %q", args[0])
			}
			tradeIDs, err := parseTradeIDs(args[2:])
			if err != nil {
				return err
			}

			if err := record.Journal.EditReview(cmd.Context(), id, args[1], editText, tradeIDs); err != nil {
				output.Error("Failed to edit review: %v", err)
				return err
			}
			output.Success("Review updated")
			return nil
		},
	}
	editCmd.Flags().StringVar(&editText, "text", "", "review body")
	cmd.AddCommand(editCmd)

	cmd.AddCommand(&cobra.Command{
		Use:   "show <review-id>",
		Short: "Show a review",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			record, err := app.record(cmd)
			if err != nil {
				return err
			}
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid review id %q", args[0])
			}

			review, err := record.Journal.Review(cmd.Context(), id)
			if err != nil {
				output.Error("Failed to fetch review: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(review)
			}
			output.Bold("%s", review.Title)
			output.Dim("created %s", review.CreatedAt.Format("02-Jan-2006 15:04"))
			if review.Text != "" {
				output.Println()
				output.Println(review.Text)
			}
			if len(review.TradeIDs) > 0 {
				output.Println()
				output.Printf("Trades:")
				for _, tradeID := range review.TradeIDs {
					output.Printf(" #%d", tradeID)
				}
				output.Println()
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "remove <review-id>",
		Short: "Remove a review",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			record, err := app.record(cmd)
			if err != nil {
				return err
			}
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid review id %q", args[0])
			}

			if err := record.Journal.RemoveReview(cmd.Context(), id); err != nil {
				output.Error("Failed to remove review: %v", err)
				return err
			}
			output.Success("Review removed")
			return nil
		},
	})

	rootCmd.AddCommand(cmd)
}
