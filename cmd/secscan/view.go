package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
)

var viewWidth int

var viewCmd = &cobra.Command{
	Use:   "view <report.md>",
	Short: "Render a saved markdown report in the terminal",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		content, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read report: %w", err)
		}

		renderer, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(viewWidth),
		)
		if err != nil {
			return fmt.Errorf("failed to create renderer: %w", err)
		}

		out, err := renderer.Render(string(content))
		if err != nil {
			// Fall back to the raw markdown.
			fmt.Fprint(cmd.OutOrStdout(), string(content))
			return nil
		}
		fmt.Fprint(cmd.OutOrStdout(), out)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(viewCmd)
	viewCmd.Flags().IntVar(&viewWidth, "width", 80, "Word wrap width")
}
