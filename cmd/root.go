package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"movienight-cli/movienight"
	"movienight-cli/service"
	"movienight-cli/session"
)

const appName = "movienight-cli"

var (
	version = "dev"
	commit  = "none"
)

var errNotLoggedIn = errors.New("not logged in")

// current is built before any command that talks to the API runs.
var current *app

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of movienight-cli",
	Run: func(cmd *cobra.Command, args []string) {
		printVersion()
	},
}

var rootCmd = &cobra.Command{
	Use:   appName,
	Short: "Plan movie nights from the terminal",
	Long: `Browse movies, schedule movie nights, invite friends and follow
notifications, interactively or from scripts.`,
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd == versionCmd {
			return nil
		}
		a, err := newApp()
		if err != nil {
			return err
		}
		current = a
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if current != nil {
			current.close()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTUI(cmd, "")
	},
}

func printVersion() {
	fmt.Printf("%s %s", appName, version)
	if commit != "none" && commit != "" {
		fmt.Printf(" (%s)", commit)
	}
	fmt.Println()
}

// Execute runs the command tree and exits non-zero on failure.
func Execute(buildVersion, buildCommit string) {
	if buildVersion != "" {
		version = buildVersion
	}
	if buildCommit != "" {
		commit = buildCommit
	}
	rootCmd.Version = version
	rootCmd.SetVersionTemplate(fmt.Sprintf("%s {{.Version}}\n", appName))

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errorText(err))
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

// errorText is the one-line message printed for a failed command.
func errorText(err error) string {
	var widgetErr *movienight.Error
	switch {
	case errors.Is(err, errNotLoggedIn):
		return fmt.Sprintf("You are not logged in. Run `%s login` first.", appName)
	case errors.Is(err, session.ErrSessionExpired):
		return fmt.Sprintf("Your session has expired. Run `%s login` again.", appName)
	case errors.As(err, &widgetErr):
		return widgetErr.Message
	case errors.Is(err, service.ErrNetwork):
		return service.UnreachableMessage
	}
	var apiErr *service.APIError
	if errors.As(err, &apiErr) {
		return service.Message(err, "Something went wrong. Please try again.")
	}
	return err.Error()
}
