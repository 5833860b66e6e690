package service

import (
	"context"

	"github.com/payment-ledger/internal/domain/shared"
)

// CommandInfo identifies the command a unit of work is serving
type CommandInfo struct {
	Type          shared.CommandType
	CorrelationID string
}

type commandInfoKey struct{}

// WithCommandInfo attaches info to ctx for loggers and outbox events
func WithCommandInfo(ctx context.Context, info CommandInfo) context.Context {
	return context.WithValue(ctx, commandInfoKey{}, info)
}

// CommandInfoFrom returns the info attached to ctx, or the zero value
func CommandInfoFrom(ctx context.Context) CommandInfo {
	info, _ := ctx.Value(commandInfoKey{}).(CommandInfo)
	return info
}
