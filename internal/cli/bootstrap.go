// Package cli provides CLI commands for the regent application.
package cli

import (
	gocontext "context"

	"github.com/spf13/cobra"

	"github.com/example/regent/internal/ctxutil"
	"github.com/example/regent/internal/wire"
)

// NewContext creates a context.Background() with the configured authority
// address and tenant embedded. CLI commands should use this instead of
// context.Background() directly.
func NewContext() gocontext.Context {
	ctx := gocontext.Background()
	cfg := wire.Config()
	if cfg.AuthorityAddr != "" {
		ctx = ctxutil.WithActorID(ctx, cfg.AuthorityAddr)
	}
	if cfg.TenantID != "" {
		ctx = ctxutil.WithTenantID(ctx, cfg.TenantID)
	}
	return ctx
}

// tenantArg resolves the tenant for a command: the --tenant flag when given,
// otherwise the configured default.
func tenantArg(cmd *cobra.Command) string {
	tenant, _ := cmd.Flags().GetString("tenant")
	if tenant != "" {
		return tenant
	}
	return wire.Config().TenantID
}

// authorityArg resolves the authority address for a command: the --authority
// flag when given, otherwise the configured default.
func authorityArg(cmd *cobra.Command) string {
	addr, _ := cmd.Flags().GetString("authority")
	if addr != "" {
		return addr
	}
	return wire.Config().AuthorityAddr
}
