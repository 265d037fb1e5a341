package cli

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/example/regent/internal/core/authz"
	"github.com/example/regent/internal/models"
	"github.com/example/regent/internal/ports/primary"
	"github.com/example/regent/internal/wire"
)

var escalationCmd = &cobra.Command{
	Use:   "escalation",
	Short: "Manage escalations",
	Long:  "Create, list, answer and dispatch escalations awaiting human authority",
}

var escalationPauseCmd = &cobra.Command{
	Use:   "pause",
	Short: "Create an escalation, suspending the originating flow",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := NewContext()

		contextPairs, _ := cmd.Flags().GetStringArray("context")
		contextMap, err := parseKeyValues(contextPairs)
		if err != nil {
			return err
		}

		origin, _ := cmd.Flags().GetString("origin")
		escType, _ := cmd.Flags().GetString("type")
		priority, _ := cmd.Flags().GetString("priority")
		requester, _ := cmd.Flags().GetString("requester")
		requesterName, _ := cmd.Flags().GetString("requester-name")
		requesterRole, _ := cmd.Flags().GetString("requester-role")
		sessionRef, _ := cmd.Flags().GetString("session")
		messageRef, _ := cmd.Flags().GetString("message")
		reason, _ := cmd.Flags().GetString("reason")
		needed, _ := cmd.Flags().GetString("needed")
		summary, _ := cmd.Flags().GetString("summary")

		id, err := wire.EscalationService().Pause(ctx, primary.PauseRequest{
			TenantID:      tenantArg(cmd),
			OriginAgent:   origin,
			Type:          escType,
			Priority:      priority,
			RequesterAddr: requester,
			RequesterName: requesterName,
			RequesterRole: requesterRole,
			SessionRef:    sessionRef,
			MessageRef:    messageRef,
			Reason:        reason,
			Needed:        needed,
			Context:       contextMap,
			Summary:       summary,
		})
		if err != nil {
			return fmt.Errorf("failed to create escalation: %w", err)
		}

		fmt.Printf("✓ Escalation %s created\n", id)
		return nil
	},
}

var escalationListCmd = &cobra.Command{
	Use:   "list",
	Short: "List pending escalations, highest priority first",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := NewContext()

		escalations, err := wire.EscalationService().GetPendingEscalations(ctx, tenantArg(cmd))
		if err != nil {
			return fmt.Errorf("failed to list escalations: %w", err)
		}

		if len(escalations) == 0 {
			fmt.Println("No pending escalations.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tTYPE\tPRIORITY\tSTATE\tORIGIN\tROUNDS\tCREATED")
		fmt.Fprintln(w, "--\t----\t--------\t-----\t------\t------\t-------")
		for _, item := range escalations {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\t%s\n",
				item.ID,
				item.Type,
				item.Priority,
				item.State,
				item.OriginAgent,
				item.RoundCount,
				item.CreatedAt,
			)
		}
		w.Flush()
		return nil
	},
}

var escalationShowCmd = &cobra.Command{
	Use:   "show [escalation-id]",
	Short: "Show escalation details and round history",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := NewContext()
		escalationID := args[0]

		escalation, err := wire.EscalationService().GetEscalation(ctx, escalationID)
		if err != nil {
			return fmt.Errorf("escalation not found: %w", err)
		}

		fmt.Printf("Escalation: %s\n", escalation.ID)
		fmt.Printf("Tenant: %s\n", escalation.TenantID)
		fmt.Printf("Origin Agent: %s\n", escalation.OriginAgent)
		fmt.Printf("Type: %s\n", escalation.Type)
		fmt.Printf("Priority: %s\n", escalation.Priority)
		fmt.Printf("State: %s\n", escalation.State)
		if escalation.RequesterName != "" {
			fmt.Printf("Requester: %s (%s)\n", escalation.RequesterName, escalation.RequesterRole)
		}
		fmt.Printf("Reason: %s\n", escalation.Reason)
		fmt.Printf("Needed: %s\n", escalation.Needed)
		if len(escalation.Context) > 0 {
			fmt.Println("Context:")
			for k, v := range escalation.Context {
				fmt.Printf("  %s: %s\n", k, v)
			}
		}
		if escalation.Summary != "" {
			fmt.Printf("Summary: %s\n", escalation.Summary)
		}
		if escalation.Decision != "" {
			fmt.Printf("Decision: %s\n", escalation.Decision)
		}
		if escalation.Instruction != "" {
			fmt.Printf("Instruction: %s\n", escalation.Instruction)
		}
		if escalation.ResolvedBy != "" {
			fmt.Printf("Resolved By: %s\n", escalation.ResolvedBy)
		}
		if escalation.ResolvedAt != "" {
			fmt.Printf("Resolved: %s\n", escalation.ResolvedAt)
		}
		if escalation.FailureReason != "" {
			fmt.Printf("Failure Reason: %s\n", escalation.FailureReason)
		}
		if escalation.ResumedAt != "" {
			fmt.Printf("Resumed: %s (%s)\n", escalation.ResumedAt, escalation.ResumeMarker)
		}
		fmt.Printf("Created: %s\n", escalation.CreatedAt)

		rounds, err := wire.EscalationService().ListRounds(ctx, escalationID)
		if err != nil {
			return fmt.Errorf("failed to list rounds: %w", err)
		}
		if len(rounds) > 0 {
			fmt.Println("\nRounds:")
			for _, r := range rounds {
				fmt.Printf("  %d. [%s] %s\n", r.RoundNumber, r.Type, r.CreatedAt)
				if r.RequestText != "" {
					fmt.Printf("     request: %s\n", r.RequestText)
				}
				if r.ResponseText != "" {
					fmt.Printf("     response: %s\n", r.ResponseText)
				}
			}
		}
		return nil
	},
}

var escalationBriefCmd = &cobra.Command{
	Use:   "brief [escalation-id]",
	Short: "Print the authority's situational brief for an escalation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := NewContext()
		history, _ := cmd.Flags().GetStringArray("history")

		view, err := wire.EscalationService().FetchForAuthority(ctx, args[0], tenantArg(cmd), history)
		if err != nil {
			return fmt.Errorf("escalation not found: %w", err)
		}

		fmt.Print(view.Brief)
		return nil
	},
}

var escalationRespondCmd = &cobra.Command{
	Use:   "respond [escalation-id]",
	Short: "Record a non-decision authority round (clarification or review)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		roundType, _ := cmd.Flags().GetString("type")
		request, _ := cmd.Flags().GetString("request")
		response, _ := cmd.Flags().GetString("response")

		rt := models.RoundType(roundType)
		if rt == models.RoundDecisionMade {
			return fmt.Errorf("use 'escalation resolve' to record a decision")
		}

		ctx := NewContext()
		receipt, err := wire.EscalationService().RecordAuthorityResponse(ctx, primary.AuthorityResponse{
			EscalationID: args[0],
			Type:         rt,
			RequestText:  request,
			ResponseText: response,
		})
		if err != nil {
			return fmt.Errorf("failed to record response: %w", err)
		}
		if receipt.NoOp {
			fmt.Printf("Escalation %s is already %s; round not recorded\n", args[0], receipt.State)
			return nil
		}

		fmt.Printf("✓ Round %d recorded, escalation now %s\n", receipt.RoundNumber, receipt.State)
		return nil
	},
}

var escalationResolveCmd = &cobra.Command{
	Use:   "resolve [escalation-id]",
	Short: "Record the authority's final decision",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		decision, _ := cmd.Flags().GetString("decision")
		instruction, _ := cmd.Flags().GetString("instruction")
		resolvedBy, _ := cmd.Flags().GetString("resolved-by")
		response, _ := cmd.Flags().GetString("response")

		if decision == "" && response == "" {
			return fmt.Errorf("--decision or --response is required")
		}

		ctx := NewContext()
		receipt, err := wire.EscalationService().RecordAuthorityResponse(ctx, primary.AuthorityResponse{
			EscalationID: args[0],
			Type:         models.RoundDecisionMade,
			ResponseText: response,
			Decision:     decision,
			Instruction:  instruction,
			ResolvedBy:   resolvedBy,
		})
		if err != nil {
			return fmt.Errorf("failed to resolve escalation: %w", err)
		}
		if receipt.NoOp {
			fmt.Printf("Escalation %s is already %s; decision not recorded\n", args[0], receipt.State)
			return nil
		}

		fmt.Printf("✓ Escalation %s resolved (round %d)\n", args[0], receipt.RoundNumber)
		return nil
	},
}

var escalationFailCmd = &cobra.Command{
	Use:   "fail [escalation-id]",
	Short: "Close an escalation that cannot make progress",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reason, _ := cmd.Flags().GetString("reason")
		if reason == "" {
			return fmt.Errorf("--reason is required")
		}

		ctx := NewContext()
		if err := wire.EscalationService().MarkFailed(ctx, args[0], reason); err != nil {
			return fmt.Errorf("failed to fail escalation: %w", err)
		}

		fmt.Printf("✓ Escalation %s failed: %s\n", args[0], reason)
		return nil
	},
}

var escalationResumeCmd = &cobra.Command{
	Use:   "resume [escalation-id]",
	Short: "Mark a resolved escalation as handed back to the originating flow",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		marker, _ := cmd.Flags().GetString("marker")

		ctx := NewContext()
		if err := wire.EscalationService().MarkForResumption(ctx, args[0], marker); err != nil {
			return fmt.Errorf("failed to mark resumption: %w", err)
		}

		fmt.Printf("✓ Escalation %s marked for resumption\n", args[0])
		return nil
	},
}

var escalationDispatchCmd = &cobra.Command{
	Use:   "dispatch [escalation-id]",
	Short: "Execute the action implied by a resolved escalation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		role, _ := cmd.Flags().GetString("role")
		action, _ := cmd.Flags().GetString("action")
		paramPairs, _ := cmd.Flags().GetStringArray("param")
		intent, _ := cmd.Flags().GetBool("intent")
		ack, _ := cmd.Flags().GetBool("ack")

		params, err := parseKeyValues(paramPairs)
		if err != nil {
			return err
		}

		ctx := NewContext()
		result, err := wire.DispatchService().Dispatch(ctx, primary.DispatchRequest{
			EscalationID:          args[0],
			TenantID:              tenantArg(cmd),
			Role:                  role,
			AuthorityAddr:         authorityArg(cmd),
			Action:                authz.ActionKind(action),
			Params:                params,
			IntentConfirmed:       intent,
			AuthorityAcknowledged: ack,
		})
		if err != nil {
			return fmt.Errorf("dispatch failed: %w", err)
		}

		if result.Inferred {
			fmt.Printf("Action inferred from decision text: %s\n", result.Action)
		}
		for _, c := range result.Corrections {
			fmt.Printf("Corrected: %s\n", c)
		}
		if !result.Authorized {
			fmt.Printf("✗ Not authorized: %s\n", result.Reason)
			return nil
		}

		fmt.Printf("✓ %s\n", result.Summary)
		return nil
	},
}

var escalationAuditCmd = &cobra.Command{
	Use:   "audit [escalation-id]",
	Short: "Show the audit trail of an escalation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := NewContext()

		events, err := wire.AuditSink().ListByEscalation(ctx, args[0])
		if err != nil {
			return fmt.Errorf("failed to list audit events: %w", err)
		}
		if len(events) == 0 {
			fmt.Println("No audit events found.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "EVENT\tDETAIL")
		for _, e := range events {
			fmt.Fprintf(w, "%s\t%s\n", e.EventType, e.Detail)
		}
		w.Flush()
		return nil
	},
}

var escalationExpireCmd = &cobra.Command{
	Use:   "expire",
	Short: "Fail pending escalations older than the configured stale_after",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := NewContext()

		ids, err := wire.EscalationService().ExpireStale(ctx, tenantArg(cmd))
		if err != nil {
			return fmt.Errorf("failed to expire escalations: %w", err)
		}
		if len(ids) == 0 {
			fmt.Println("Nothing to expire (is stale_after configured?).")
			return nil
		}

		for _, id := range ids {
			fmt.Printf("✓ Escalation %s expired\n", id)
		}
		return nil
	},
}

// parseKeyValues turns k=v pairs into a map.
func parseKeyValues(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	m := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		k, v, ok := strings.Cut(pair, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid key=value pair: %q", pair)
		}
		m[k] = v
	}
	return m, nil
}

func init() {
	for _, c := range []*cobra.Command{
		escalationPauseCmd, escalationListCmd, escalationBriefCmd,
		escalationDispatchCmd, escalationExpireCmd,
	} {
		c.Flags().String("tenant", "", "Tenant (school) ID; defaults to configured tenant")
	}

	escalationPauseCmd.Flags().String("origin", "", "Originating agent identifier (required)")
	escalationPauseCmd.Flags().String("type", "", "Escalation type, e.g. MARK_SUBMISSION_APPROVAL (required)")
	escalationPauseCmd.Flags().String("priority", "", "Priority: CRITICAL, HIGH, MEDIUM or LOW (default MEDIUM)")
	escalationPauseCmd.Flags().String("requester", "", "Requester contact address")
	escalationPauseCmd.Flags().String("requester-name", "", "Requester display name")
	escalationPauseCmd.Flags().String("requester-role", "", "Requester role")
	escalationPauseCmd.Flags().String("session", "", "Paused conversation/session reference")
	escalationPauseCmd.Flags().String("message", "", "Message reference where the pause occurred")
	escalationPauseCmd.Flags().String("reason", "", "Human-readable reason (required)")
	escalationPauseCmd.Flags().String("needed", "", "What is needed from the authority (required)")
	escalationPauseCmd.Flags().StringArray("context", nil, "Context entry key=value (repeatable)")
	escalationPauseCmd.Flags().String("summary", "", "Conversation summary for the authority")

	escalationBriefCmd.Flags().StringArray("history", nil, "Conversation turn to include (repeatable)")

	escalationRespondCmd.Flags().String("type", string(models.RoundClarificationRequest),
		"Round type: clarification_request or needs_decision")
	escalationRespondCmd.Flags().String("request", "", "The authority's question back to the requester")
	escalationRespondCmd.Flags().String("response", "", "The authority's response text")

	escalationResolveCmd.Flags().String("decision", "", "Final decision, e.g. APPROVE or REJECT")
	escalationResolveCmd.Flags().String("instruction", "", "Instruction for the resuming agent")
	escalationResolveCmd.Flags().String("resolved-by", "", "Resolver identity")
	escalationResolveCmd.Flags().String("response", "", "The authority's raw reply text")

	escalationFailCmd.Flags().String("reason", "", "Why the escalation cannot make progress (required)")

	escalationResumeCmd.Flags().String("marker", "", "Resumption marker for traceability")

	escalationDispatchCmd.Flags().String("role", "", "Role of the resolving authority")
	escalationDispatchCmd.Flags().String("action", "", "Explicit action; omit to infer from the decision")
	escalationDispatchCmd.Flags().StringArray("param", nil, "Action parameter key=value (repeatable)")
	escalationDispatchCmd.Flags().Bool("intent", false, "The authority explicitly confirmed intent")
	escalationDispatchCmd.Flags().Bool("ack", false, "The authority explicitly acknowledged the action")
	escalationDispatchCmd.Flags().String("authority", "", "Authority address for failure reports")

	escalationCmd.AddCommand(escalationPauseCmd)
	escalationCmd.AddCommand(escalationListCmd)
	escalationCmd.AddCommand(escalationShowCmd)
	escalationCmd.AddCommand(escalationBriefCmd)
	escalationCmd.AddCommand(escalationRespondCmd)
	escalationCmd.AddCommand(escalationResolveCmd)
	escalationCmd.AddCommand(escalationFailCmd)
	escalationCmd.AddCommand(escalationResumeCmd)
	escalationCmd.AddCommand(escalationDispatchCmd)
	escalationCmd.AddCommand(escalationAuditCmd)
	escalationCmd.AddCommand(escalationExpireCmd)
}

// EscalationCmd returns the escalation command
func EscalationCmd() *cobra.Command {
	return escalationCmd
}
