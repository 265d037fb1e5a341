package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/example/regent/internal/wire"
)

var focusCmd = &cobra.Command{
	Use:   "focus [escalation-id]",
	Short: "Manage an authority's current-attention lock",
	Long:  "Lock focus on an escalation, inspect the active lock, clear it, or peek at the next pending escalation",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := NewContext()
		authority := authorityArg(cmd)
		if authority == "" {
			return fmt.Errorf("no authority address; pass --authority or configure authority_addr")
		}

		show, _ := cmd.Flags().GetBool("show")
		clear, _ := cmd.Flags().GetBool("clear")
		next, _ := cmd.Flags().GetBool("next")

		switch {
		case clear:
			if err := wire.FocusService().Unlock(ctx, authority); err != nil {
				return fmt.Errorf("failed to clear focus: %w", err)
			}
			fmt.Println("✓ Focus cleared")
			return nil

		case next:
			active, err := wire.FocusService().GetActive(ctx, authority)
			if err != nil {
				return fmt.Errorf("failed to read focus: %w", err)
			}
			excludeID := ""
			if active != nil {
				excludeID = active.Escalation.ID
			}
			pending, err := wire.FocusService().GetNextPending(ctx, tenantArg(cmd), excludeID)
			if err != nil {
				return fmt.Errorf("failed to find next escalation: %w", err)
			}
			if pending == nil {
				fmt.Println("No other pending escalations.")
				return nil
			}
			fmt.Printf("Next: %s [%s] %s — %s\n", pending.ID, pending.Priority, pending.Type, pending.Reason)
			return nil

		case show || len(args) == 0:
			active, err := wire.FocusService().GetActive(ctx, authority)
			if err != nil {
				return fmt.Errorf("failed to read focus: %w", err)
			}
			if active == nil {
				fmt.Println("No active focus.")
				return nil
			}
			e := active.Escalation
			stateColor := color.New(color.FgYellow)
			if e.State.IsTerminal() {
				stateColor = color.New(color.FgGreen)
			}
			fmt.Printf("Focused on %s [%s] %s\n", e.ID, e.Priority, e.Type)
			fmt.Printf("State: %s\n", stateColor.Sprint(e.State))
			fmt.Printf("Reason: %s\n", e.Reason)
			fmt.Printf("Last interaction: %s\n", active.LastInteractionAt)
			return nil

		default:
			if err := wire.FocusService().Lock(ctx, authority, tenantArg(cmd), args[0]); err != nil {
				return fmt.Errorf("failed to lock focus: %w", err)
			}
			fmt.Printf("✓ Focus locked on %s\n", args[0])
			return nil
		}
	},
}

func init() {
	focusCmd.Flags().Bool("show", false, "Show the active focus")
	focusCmd.Flags().Bool("clear", false, "Clear the active focus")
	focusCmd.Flags().Bool("next", false, "Show the next pending escalation, excluding the focused one")
	focusCmd.Flags().String("authority", "", "Authority address; defaults to configured authority_addr")
	focusCmd.Flags().String("tenant", "", "Tenant (school) ID; defaults to configured tenant")
}

// FocusCmd returns the focus command
func FocusCmd() *cobra.Command {
	return focusCmd
}
