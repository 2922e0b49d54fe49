package gateway

import (
	"github.com/uberzzr/claude-relay/src/relayd/gateway/telegram"
	"github.com/uberzzr/claude-relay/src/relayd/gateway/transcriber"
	"go.uber.org/fx"
)

// Module provides the outbound gateways into an Fx application.
var Module = fx.Options(
	fx.Provide(telegram.New),
	fx.Provide(transcriber.New),
)
