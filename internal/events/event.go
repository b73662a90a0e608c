package events

import "time"

// Type tags an event pushed by the game server. The surface is open-ended:
// new types may appear without engine changes, so Type is a plain string and
// unknown values are tolerated everywhere.
type Type string

const (
	// Session lifecycle events.
	TypeAssignName      Type = "assign-name"
	TypeAssignRole      Type = "assign-role"
	TypePhaseTransition Type = "phase-transition"

	// Market events, handled by the market ledger.
	TypeAddOrder          Type = "add-order"
	TypeUpdateOrder       Type = "update-order"
	TypeDeleteOrder       Type = "delete-order"
	TypeContractFulfilled Type = "contract-fulfilled"
	TypeAssetMovement     Type = "asset-movement"

	// Chat events, handled by the chat transcript.
	TypeMessageReceived Type = "message-received"
)

// Event is the envelope that flows from the server connection through the
// bus into the session manager. Data is the raw payload object; reducers and
// the field router pull the keys they need from it.
type Event struct {
	Type      Type
	GameID    int
	Timestamp time.Time
	Data      map[string]any
}
