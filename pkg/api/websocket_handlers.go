package api

import (
	"github.com/gofiber/fiber/v2"
	customlog "github.com/open-teleop/robolink/pkg/log"
	"github.com/open-teleop/robolink/pkg/transport"
)

// RegisterControlRoute mounts the operator control link. Each upgraded
// connection becomes a session handed to the control loop through acceptor.
func RegisterControlRoute(app *fiber.App, path string, acceptor *transport.WebSocketAcceptor, logger customlog.Logger) {
	app.Use(path, transport.RequireUpgrade)
	app.Get(path, acceptor.Handler())
	logger.Infof("Control WebSocket endpoint registered at %s", path)
}
