package api

import (
	"encoding/json"

	"github.com/searchlightseo/searchlight/internal/importer"
	"github.com/searchlightseo/searchlight/internal/ws"
)

// hubSink forwards import progress events to websocket clients.
type hubSink struct {
	hub *ws.Hub
}

func (s hubSink) Emit(event importer.Event) {
	if s.hub == nil {
		return
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return
	}

	s.hub.Broadcast(payload)
}
