package cmd

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"movienight-cli/tui"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Open the interactive movie browser",
	RunE: func(cmd *cobra.Command, args []string) error {
		term, _ := cmd.Flags().GetString("search")
		return runTUI(cmd, term)
	},
}

func runTUI(cmd *cobra.Command, searchTerm string) error {
	model := tui.New(tui.Deps{
		Client:   current.client,
		Session:  current.session,
		Listing:  current.listing,
		Search:   current.search,
		Poller:   current.poller,
		Widget:   current.widget,
		GenreTTL: current.cfg.GenreCacheTTL,
		DeepLink: searchTerm,
		Logger:   current.log,
	})
	_, err := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(cmd.Context())).Run()
	return err
}

func init() {
	tuiCmd.Flags().String("search", "", "open the search results for this term")
	rootCmd.AddCommand(tuiCmd)
}
