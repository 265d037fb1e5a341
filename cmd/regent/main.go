package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/regent/internal/cli"
	"github.com/example/regent/internal/version"
)

func main() {
	rootCmd := &cobra.Command{
		Use:     "regent",
		Short:   "Regent - escalation and authorization workflow engine",
		Version: version.String(),
		Long: `Regent receives escalations from automated school-administration agents,
routes them to a human authority, and dispatches the authorized actions
the authority decides on.`,
	}

	rootCmd.AddCommand(cli.EscalationCmd())
	rootCmd.AddCommand(cli.FocusCmd())
	rootCmd.AddCommand(cli.ActionCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
