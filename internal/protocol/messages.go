package protocol

// HELLO (client -> server)
type HelloMsg struct {
	Type            string     `json:"type"`
	ProtocolVersion string     `json:"protocol_version"`
	Actor           string     `json:"actor"`
	ActorName       string     `json:"actor_name,omitempty"`
	Auth            *HelloAuth `json:"auth,omitempty"`
}

type HelloAuth struct {
	Token string `json:"token,omitempty"`
}

// WELCOME (server -> client)
type WelcomeMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	SessionID       string `json:"session_id"`
	Actor           string `json:"actor"`
	Ready           bool   `json:"ready"`
}

// MARKER_EDITED (client -> server): the four lines of a placed or edited sign.
type MarkerEditedMsg struct {
	Type            string   `json:"type"`
	ProtocolVersion string   `json:"protocol_version"`
	ReqID           string   `json:"req_id,omitempty"`
	World           string   `json:"world"`
	Pos             [3]int   `json:"pos"`
	Lines           []string `json:"lines"`
	Kind            string   `json:"kind,omitempty"`
	Facing          string   `json:"facing,omitempty"`
}

// MARKER_BROKEN (client -> server). WorldEdit marks breaks with no acting
// player, such as explosions.
type MarkerBrokenMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	ReqID           string `json:"req_id,omitempty"`
	World           string `json:"world"`
	Pos             [3]int `json:"pos"`
	WorldEdit       bool   `json:"world_edit,omitempty"`
}

type MarkerUnsupportedMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	ReqID           string `json:"req_id,omitempty"`
	World           string `json:"world"`
	Pos             [3]int `json:"pos"`
}

type MarkerClickedMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	ReqID           string `json:"req_id,omitempty"`
	World           string `json:"world"`
	Pos             [3]int `json:"pos"`
	Right           bool   `json:"right,omitempty"`
	Sneaking        bool   `json:"sneaking,omitempty"`
}

type ChunkLoadedMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	ReqID           string `json:"req_id,omitempty"`
	World           string `json:"world"`
	Chunk           [2]int `json:"chunk"`
}

// WORLD_LOADED and WORLD_UNLOADED share one shape.
type WorldMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	ReqID           string `json:"req_id,omitempty"`
	World           string `json:"world"`
}

type CommandMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	ReqID           string `json:"req_id,omitempty"`
	Line            string `json:"line"`
}

// NOTIFY (server -> client): a rendered message for the actor.
type NotifyMsg struct {
	Type            string   `json:"type"`
	ProtocolVersion string   `json:"protocol_version"`
	Key             string   `json:"key"`
	Text            string   `json:"text"`
	Args            []string `json:"args,omitempty"`
}

// RENDER (server -> client): draw or clear a marker block.
type RenderMsg struct {
	Type            string   `json:"type"`
	ProtocolVersion string   `json:"protocol_version"`
	World           string   `json:"world"`
	Pos             [3]int   `json:"pos"`
	Kind            string   `json:"kind,omitempty"`
	Facing          string   `json:"facing,omitempty"`
	Region          string   `json:"region,omitempty"`
	Lines           []string `json:"lines,omitempty"`
	Clear           bool     `json:"clear,omitempty"`
}

// RESULT (server -> client): the verdict for a request.
type ResultMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	ReqID           string `json:"req_id,omitempty"`
	Cancelled       bool   `json:"cancelled"`
	Stage           string `json:"stage,omitempty"`
	Code            string `json:"code,omitempty"`
	Message         string `json:"message,omitempty"`
}
