package app

import (
	"os"
	"strconv"
	"time"

	"github.com/uberzzr/claude-relay/src/relayd/gateway/telegram"
	"github.com/uberzzr/claude-relay/src/relayd/internal/clock"
	"github.com/uberzzr/claude-relay/src/relayd/internal/statusfile"
)

// recordStartupStatus writes the relay's runtime facts to the status file
// once the Telegram gateway has authenticated.
func recordStartupStatus(status statusfile.StatusFile, gw telegram.Gateway, clk clock.Clock) error {
	if err := status.UpdateField("pid", strconv.Itoa(os.Getpid())); err != nil {
		return err
	}
	if err := status.UpdateField("startedAt", clk.Now().Format(time.RFC3339)); err != nil {
		return err
	}
	return status.UpdateField("bot", gw.BotName())
}
