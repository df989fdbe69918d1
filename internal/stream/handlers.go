package stream

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// spectatorConn is the slice of the websocket connection the feed loop
// touches; tests drive it with a stub.
type spectatorConn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
}

// RegisterRoutes exposes the spectator feed: a read-only websocket that
// receives every live update the tracking engine broadcasts for a plogging
// session. Spectators never send events; their read side only signals
// disconnect.
func RegisterRoutes(r fiber.Router, hub *Hub) {
	r.Get("/ws/:sessionID", websocket.New(func(c *websocket.Conn) {
		watch(c, hub, c.Params("sessionID"))
	}))
}

// watch pumps broadcasts for sessionID to the connection until the spectator
// goes away. Unregister closes the watcher channel, which is what releases
// the writer goroutine, so it has to run before waiting on the writer.
func watch(c spectatorConn, hub *Hub, sessionID string) {
	watcher := hub.Register(sessionID)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for msg := range watcher.Send {
			if err := c.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		}
	}()

	for {
		if _, _, err := c.ReadMessage(); err != nil {
			break
		}
	}

	hub.Unregister(watcher)
	<-done
}
