package handler

import (
	"github.com/uberzzr/claude-relay/src/relayd/controller"
	telegramhandler "github.com/uberzzr/claude-relay/src/relayd/handler/telegram"
	"github.com/uberzzr/claude-relay/src/relayd/repository/session"
	"github.com/uberzzr/claude-relay/src/relayd/repository/workspace"
	"go.uber.org/fx"
)

// Module provides the relayd inbound surface into an Fx application.
var Module = fx.Options(
	controller.Module,
	fx.Provide(session.New),
	fx.Provide(workspace.New),
	fx.Provide(telegramhandler.New),
	fx.Invoke(func(h telegramhandler.Handler) {}),
)
