package contracts

import "encoding/json"

// Event names carried in the gateway envelope. All events share one
// broadcast channel; subscribers discriminate solely on this field.
const (
	EventMessageCreate = "message_create"
	EventMessageDelete = "message_delete"
	EventTypingStart   = "typing_start"
)

// GatewayEvent is the envelope published for every event kind.
type GatewayEvent struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}
