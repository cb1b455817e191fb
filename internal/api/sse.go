package api

import (
	"encoding/json"

	"github.com/gin-gonic/gin"
	"github.com/pokerjest/animatch/internal/event"
	"github.com/rs/zerolog/log"
)

// SSEHandler streams batch events as Server-Sent Events until the client leaves.
func (h *Handler) SSEHandler(c *gin.Context) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	clientChan := make(chan event.Event, 32)

	// 非阻塞发送，避免慢客户端阻塞总线
	bridgeHandler := func(e event.Event) {
		select {
		case clientChan <- e:
		default:
		}
	}

	topics := []event.EventType{
		event.EventBatchStarted,
		event.EventReleaseResolved,
		event.EventBatchFinished,
	}
	subIDs := make(map[event.EventType]string, len(topics))
	for _, t := range topics {
		subIDs[t] = h.bus.Subscribe(t, bridgeHandler)
	}
	defer func() {
		for t, id := range subIDs {
			h.bus.Unsubscribe(t, id)
		}
		log.Debug().Msg("SSE client disconnected")
	}()

	c.SSEvent("message", "connected")
	c.Writer.Flush()

	ctx := c.Request.Context()
	for {
		select {
		case evt := <-clientChan:
			data, err := json.Marshal(evt.Payload)
			if err != nil {
				log.Warn().Err(err).Msg("SSE marshal failed")
				continue
			}
			c.SSEvent(string(evt.Type), string(data))
			c.Writer.Flush()
		case <-ctx.Done():
			return
		}
	}
}
