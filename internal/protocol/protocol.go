package protocol

import "encoding/json"

const Version = "1.0"

// Message types.
const (
	TypeHello             = "HELLO"
	TypeWelcome           = "WELCOME"
	TypeMarkerEdited      = "MARKER_EDITED"
	TypeMarkerBroken      = "MARKER_BROKEN"
	TypeMarkerUnsupported = "MARKER_UNSUPPORTED"
	TypeMarkerClicked     = "MARKER_CLICKED"
	TypeChunkLoaded       = "CHUNK_LOADED"
	TypeWorldLoaded       = "WORLD_LOADED"
	TypeWorldUnloaded     = "WORLD_UNLOADED"
	TypeCommand           = "COMMAND"
	TypeNotify            = "NOTIFY"
	TypeRender            = "RENDER"
	TypeResult            = "RESULT"
)

// BaseMessage lets us route unknown JSON messages by type.
type BaseMessage struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version,omitempty"`
	ReqID           string `json:"req_id,omitempty"`
}

func DecodeBase(b []byte) (BaseMessage, error) {
	var m BaseMessage
	err := json.Unmarshal(b, &m)
	return m, err
}
