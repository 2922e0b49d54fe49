package controller

import (
	"github.com/uberzzr/claude-relay/src/relayd/controller/relay"
	"go.uber.org/fx"
)

// Module provides the relayd controllers into an Fx application.
var Module = fx.Options(
	fx.Provide(relay.New),
)
