// Package notify contains Notifier adapters. The core only ever hands a
// notifier (tenant, address, text); transport mechanics live behind this port.
package notify

import (
	"context"
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/example/regent/internal/ports/secondary"
)

// ConsoleNotifier writes notifications to a writer. It stands in for the real
// messaging transport during local operation and in tests.
type ConsoleNotifier struct {
	out io.Writer
}

// NewConsoleNotifier creates a notifier writing to the given output.
func NewConsoleNotifier(out io.Writer) *ConsoleNotifier {
	return &ConsoleNotifier{out: out}
}

// Notify writes one message. Delivery retries and read receipts are not this
// adapter's concern.
func (n *ConsoleNotifier) Notify(ctx context.Context, tenantID, address, text string) error {
	header := color.New(color.FgCyan).Sprintf("[notify %s → %s]", tenantID, address)
	_, err := fmt.Fprintf(n.out, "%s %s\n", header, text)
	if err != nil {
		return fmt.Errorf("failed to write notification: %w", err)
	}
	return nil
}

// Ensure ConsoleNotifier implements the interface
var _ secondary.Notifier = (*ConsoleNotifier)(nil)
