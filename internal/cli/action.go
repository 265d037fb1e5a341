package cli

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/example/regent/internal/core/authz"
	"github.com/example/regent/internal/wire"
)

var actionCmd = &cobra.Command{
	Use:   "action",
	Short: "Inspect the privileged action registry",
}

var actionListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered privileged actions",
	RunE: func(cmd *cobra.Command, args []string) error {
		registry := wire.ActionRegistry()

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ACTION\tOWNER\tROLES\tINTENT\tACK\tDESCRIPTION")
		for _, kind := range registry.Kinds() {
			spec, _ := registry.Get(kind)
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
				spec.Kind,
				spec.OwnerAgent,
				strings.Join(spec.Roles, ","),
				yesNo(spec.RequireIntentConfirmed),
				yesNo(spec.RequireAuthorityAck),
				spec.Description,
			)
		}
		w.Flush()
		return nil
	},
}

var actionCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Ask the authorization gate whether a request would pass",
	RunE: func(cmd *cobra.Command, args []string) error {
		action, _ := cmd.Flags().GetString("action")
		role, _ := cmd.Flags().GetString("role")
		intent, _ := cmd.Flags().GetBool("intent")
		ack, _ := cmd.Flags().GetBool("ack")

		if action == "" {
			return fmt.Errorf("--action is required")
		}

		decision := wire.ActionRegistry().Authorize(authz.Request{
			Action:                authz.ActionKind(action),
			Role:                  role,
			IntentConfirmed:       intent,
			AuthorityAcknowledged: ack,
		})
		if decision.Authorized {
			color.New(color.FgGreen).Println("✓ Authorized")
			return nil
		}

		color.New(color.FgRed).Printf("✗ Denied: %s\n", decision.Reason)
		return nil
	},
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func init() {
	actionCheckCmd.Flags().String("action", "", "Action kind, e.g. APPROVE_MARK_SUBMISSION (required)")
	actionCheckCmd.Flags().String("role", "", "Role of the requesting authority")
	actionCheckCmd.Flags().Bool("intent", false, "The authority explicitly confirmed intent")
	actionCheckCmd.Flags().Bool("ack", false, "The authority explicitly acknowledged the action")

	actionCmd.AddCommand(actionListCmd)
	actionCmd.AddCommand(actionCheckCmd)
}

// ActionCmd returns the action command
func ActionCmd() *cobra.Command {
	return actionCmd
}
