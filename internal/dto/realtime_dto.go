package dto

import (
	"encoding/json"
	"strconv"
)

// Realtime event names exchanged over the push channel.
const (
	EventJoinAdmin   = "join-admin"
	EventStatsUpdate = "stats-update"
	EventUserUpdate  = "user-update"
	EventFileUpdate  = "file-update"
	EventChartUpdate = "chart-update"
	EventLogUpdate   = "log-update"
)

// RealtimeFrame is the JSON envelope for every websocket message.
type RealtimeFrame struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// NewRealtimeFrame marshals payload into a frame.
func NewRealtimeFrame(event string, payload interface{}) (RealtimeFrame, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return RealtimeFrame{}, err
	}
	return RealtimeFrame{Event: event, Payload: raw}, nil
}

// JoinAdminRequest is the client handshake asking to join the admin room.
type JoinAdminRequest struct {
	ID   string `json:"id" validate:"required"`
	Role string `json:"role" validate:"required"`
}

// EntityUpdatePayload is the body of user/file/chart/log update events.
type EntityUpdatePayload struct {
	Action string      `json:"action,omitempty"`
	Data   interface{} `json:"data"`
}

// FormatID renders a numeric user id the way join-admin carries it.
func FormatID(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
