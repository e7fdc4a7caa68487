package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

// addSupplementalCommands adds stop, target, note, tag and attachment
// commands.
func addSupplementalCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newStopCmd(app))
	rootCmd.AddCommand(newTargetCmd(app))
	rootCmd.AddCommand(newNoteCmd(app))
	rootCmd.AddCommand(newTagCmd(app))
	rootCmd.AddCommand(newAttachmentCmd(app))
}

func newStopCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stop",
		Short: "Trade stop levels",
	}

	var primary bool
	addCmd := &cobra.Command{
		Use:   "add <trade-id> <price>",
		Short: "Add a stop to a trade",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			record, err := app.record(cmd)
			if err != nil {
				return err
			}
			tradeID, err := parseTradeID(args[0])
			if err != nil {
				return err
			}
			price, err := decimal.NewFromString(args[1])
			if err != nil {
				return fmt.Errorf("invalid price %q: %w", args[1], err)
			}

			id, err := record.Journal.AddStop(cmd.Context(), tradeID, price, primary)
			if err != nil {
				output.Error("Failed to add stop: %v", err)
				return err
			}
			output.Success("Stop #%d added at %s", id, price)
			return nil
		},
	}
	addCmd.Flags().BoolVar(&primary, "primary", false, "mark as the primary stop")
	cmd.AddCommand(addCmd)

	cmd.AddCommand(&cobra.Command{
		Use:   "remove <stop-id>",
		Short: "Remove a stop",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			record, err := app.record(cmd)
			if err != nil {
				return err
			}
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid stop id %q", args[0])
			}

			if err := record.Journal.RemoveStop(cmd.Context(), id); err != nil {
				output.Error("Failed to remove stop: %v", err)
				return err
			}
			output.Success("Stop removed")
			return nil
		},
	})

	return cmd
}

func newTargetCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "target",
		Short: "Trade target levels",
	}

	var primary bool
	addCmd := &cobra.Command{
		Use:   "add <trade-id> <price>",
		Short: "Add a target to a trade",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			record, err := app.record(cmd)
			if err != nil {
				return err
			}
			tradeID, err := parseTradeID(args[0])
			if err != nil {
				return err
			}
			price, err := decimal.NewFromString(args[1])
			if err != nil {
				return fmt.Errorf("invalid price %q: %w", args[1], err)
			}

			id, err := record.Journal.AddTarget(cmd.Context(), tradeID, price, primary)
			if err != nil {
				output.Error("Failed to add target: %v", err)
				return err
			}
			output.Success("Target #%d added at %s", id, price)
			return nil
		},
	}
	addCmd.Flags().BoolVar(&primary, "primary", false, "mark as the primary target")
	cmd.AddCommand(addCmd)

	cmd.AddCommand(&cobra.Command{
		Use:   "remove <target-id>",
		Short: "Remove a target",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			record, err := app.record(cmd)
			if err != nil {
				return err
			}
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid target id %q", args[0])
			}

			if err := record.Journal.RemoveTarget(cmd.Context(), id); err != nil {
				output.Error("Failed to remove target: %v", err)
				return err
			}
			output.Success("Target removed")
			return nil
		},
	})

	return cmd
}

func newNoteCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "note",
		Short: "Trade notes",
	}

	var markdown bool
	addCmd := &cobra.Command{
		Use:   "add <trade-id> <text>",
		Short: "Add a note to a trade",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			record, err := app.record(cmd)
			if err != nil {
				return err
			}
			tradeID, err := parseTradeID(args[0])
			if err != nil {
				return err
			}

			id, err := record.Journal.AddNote(cmd.Context(), tradeID, args[1], markdown)
			if err != nil {
				output.Error("Failed to add note: %v", err)
				return err
			}
			output.Success("Note #%d added", id)
			return nil
		},
	}
	addCmd.Flags().BoolVar(&markdown, "markdown", false, "treat text as markdown")
	cmd.AddCommand(addCmd)

	editCmd := &cobra.Command{
		Use:   "edit <note-id> <text>",
		Short: "Edit a note",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			record, err := app.record(cmd)
			if err != nil {
				return err
			}
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid note id %q", args[0])
			}

			if err := record.Journal.EditNote(cmd.Context(), id, args[1], markdown); err != nil {
				output.Error("Failed to edit note: %v", err)
				return err
			}
			output.Success("Note updated")
			return nil
		},
	}
	editCmd.Flags().BoolVar(&markdown, "markdown", false, "treat text as markdown")
	cmd.AddCommand(editCmd)

	cmd.AddCommand(&cobra.Command{
		Use:   "remove <note-id>",
		Short: "Remove a note",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			record, err := app.record(cmd)
			if err != nil {
				return err
			}
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid note id %q", args[0])
			}

			if err := record.Journal.RemoveNote(cmd.Context(), id); err != nil {
				output.Error("Failed to remove note: %v", err)
				return err
			}
			output.Success("Note removed")
			return nil
		},
	})

	return cmd
}

func newTagCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tag",
		Short: "Trade tags",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "apply <trade-id> <name>",
		Short: "Tag a trade, creating the tag if needed",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			record, err := app.record(cmd)
			if err != nil {
				return err
			}
			tradeID, err := parseTradeID(args[0])
			if err != nil {
				return err
			}

			if err := record.Journal.TagTrade(cmd.Context(), tradeID, args[1]); err != nil {
				output.Error("Failed to tag trade: %v", err)
				return err
			}
			output.Success("Trade #%d tagged %q", tradeID, args[1])
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "remove <trade-id> <tag-id>",
		Short: "Remove a tag from a trade",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			record, err := app.record(cmd)
			if err != nil {
				return err
			}
			tradeID, err := parseTradeID(args[0])
			if err != nil {
				return err
			}
			tagID, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid tag id %q", args[1])
			}

			if err := record.Journal.UntagTrade(cmd.Context(), tradeID, tagID); err != nil {
				output.Error("Failed to untag trade: %v", err)
				return err
			}
			output.Success("Tag removed from trade #%d", tradeID)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "rename <tag-id> <name>",
		Short: "Rename a tag everywhere",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			record, err := app.record(cmd)
			if err != nil {
				return err
			}
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid tag id %q", args[0])
			}

			if err := record.Journal.RenameTag(cmd.Context(), id, args[1]); err != nil {
				output.Error("Failed to rename tag: %v", err)
				return err
			}
			output.Success("Tag renamed to %q", args[1])
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <tag-id>",
		Short: "Delete a tag everywhere",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			record, err := app.record(cmd)
			if err != nil {
				return err
			}
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid tag id %q", args[0])
			}

			if err := record.Journal.DeleteTag(cmd.Context(), id); err != nil {
				output.Error("Failed to delete tag: %v", err)
				return err
			}
			output.Success("Tag deleted")
			return nil
		},
	})

	return cmd
}

func newAttachmentCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "attachment",
		Short: "Trade attachments",
	}

	var title string
	addCmd := &cobra.Command{
		Use:   "add <trade-id> <file>",
		Short: "Attach a file to a trade",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			record, err := app.record(cmd)
			if err != nil {
				return err
			}
			tradeID, err := parseTradeID(args[0])
			if err != nil {
				return err
			}
			content, err := os.ReadFile(args[1])
			if err != nil {
				return fmt.Errorf("reading %s: %w", args[1], err)
			}

			name := filepath.Base(args[1])
			if title == "" {
				title = name
			}
			id, err := record.Journal.AddAttachment(cmd.Context(), tradeID, name, title, content)
			if err != nil {
				output.Error("Failed to add attachment: %v", err)
				return err
			}
			output.Success("Attachment #%d added", id)
			return nil
		},
	}
	addCmd.Flags().StringVar(&title, "title", "", "attachment title (default: file name)")
	cmd.AddCommand(addCmd)

	cmd.AddCommand(&cobra.Command{
		Use:   "remove <attachment-id>",
		Short: "Remove an attachment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			record, err := app.record(cmd)
			if err != nil {
				return err
			}
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid attachment id %q", args[0])
			}

			if err := record.Journal.RemoveAttachment(cmd.Context(), id); err != nil {
				output.Error("Failed to remove attachment: %v", err)
				return err
			}
			output.Success("Attachment removed")
			return nil
		},
	})

	return cmd
}
