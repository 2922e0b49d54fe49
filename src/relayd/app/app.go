package app

import (
	"context"
	"time"

	tally "github.com/uber-go/tally/v4"
	"github.com/uberzzr/claude-relay/src/relayd/gateway"
	"github.com/uberzzr/claude-relay/src/relayd/handler"
	"github.com/uberzzr/claude-relay/src/relayd/internal/admission"
	"github.com/uberzzr/claude-relay/src/relayd/internal/clock"
	"github.com/uberzzr/claude-relay/src/relayd/internal/core"
	"github.com/uberzzr/claude-relay/src/relayd/internal/executor"
	"github.com/uberzzr/claude-relay/src/relayd/internal/fs"
	"github.com/uberzzr/claude-relay/src/relayd/internal/invoker"
	"github.com/uberzzr/claude-relay/src/relayd/internal/statusfile"
	"go.uber.org/fx"
)

// Module defines the relayd application module.
var Module = fx.Options(
	gateway.Module, // outbounds
	handler.Module, // inbounds
	fs.Module,
	clock.Module,
	executor.Module,
	invoker.Module,
	admission.Module,
	statusfile.Module,
	core.ConfigModule,
	core.LoggerModule,
	fx.Provide(func(lc fx.Lifecycle) tally.Scope {
		rs, closer := tally.NewRootScope(tally.ScopeOptions{
			Tags: map[string]string{
				"service": "relayd",
			},
		}, 1*time.Second)

		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				return closer.Close()
			},
		})

		return rs
	}),
	fx.Invoke(recordStartupStatus),
)
