package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"secscan/internal/security"
)

var rulesLanguage string

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "List the active rule tables",
	Long: `List the suggestion rules in the order they are applied. Tables from the
configured rules file replace the built-in table for their language.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		rules, err := loadRules(viper.GetString("rules.file"))
		if err != nil {
			return err
		}

		languages := rules.Languages()
		if rulesLanguage != "" {
			lang := strings.ToLower(rulesLanguage)
			if _, ok := rules[lang]; !ok {
				return fmt.Errorf("no rule table for language %q (available: %s)", rulesLanguage, strings.Join(languages, ", "))
			}
			languages = []string{lang}
		}

		r := lipgloss.NewRenderer(cmd.OutOrStdout())
		titleStyle := r.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
		patternStyle := r.NewStyle().Foreground(lipgloss.Color("214"))
		dimStyle := r.NewStyle().Foreground(lipgloss.Color("241"))

		out := cmd.OutOrStdout()
		for i, lang := range languages {
			if i > 0 {
				fmt.Fprintln(out)
			}
			table := rules[lang]
			fmt.Fprintf(out, "%s %s\n", titleStyle.Render(lang), dimStyle.Render(fmt.Sprintf("(%d rules)", len(table))))
			printRuleTable(out, table, patternStyle)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(rulesCmd)
	rulesCmd.Flags().StringVarP(&rulesLanguage, "language", "l", "", "Only list the table for this language")
}

func printRuleTable(out io.Writer, table security.RuleTable, patternStyle lipgloss.Style) {
	for i, rule := range table {
		fmt.Fprintf(out, "  %d. %s -> %s\n", i+1, patternStyle.Render(rule.Pattern), rule.Suggestion)
	}
}
