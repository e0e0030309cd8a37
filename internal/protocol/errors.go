package protocol

const (
	// Protocol/transport validation.
	ErrProtoBadRequest = "E_PROTO_BAD_REQUEST"
	ErrProtoHandshake  = "E_PROTO_HANDSHAKE"

	// Engine.
	ErrNotReady     = "E_NOT_READY"
	ErrBadRequest   = "E_BAD_REQUEST"
	ErrNoPermission = "E_NO_PERMISSION"
	ErrNotFound     = "E_NOT_FOUND"
	ErrAmbiguous    = "E_AMBIGUOUS"
	ErrConflict     = "E_CONFLICT"
	ErrBlacklisted  = "E_BLACKLISTED"
	ErrVetoed       = "E_VETOED"
	ErrUnconfirmed  = "E_UNCONFIRMED"
	ErrBusy         = "E_BUSY"
	ErrInternal     = "E_INTERNAL"
)

var knownCodes = map[string]struct{}{
	ErrProtoBadRequest: {},
	ErrProtoHandshake:  {},
	ErrNotReady:        {},
	ErrBadRequest:      {},
	ErrNoPermission:    {},
	ErrNotFound:        {},
	ErrAmbiguous:       {},
	ErrConflict:        {},
	ErrBlacklisted:     {},
	ErrVetoed:          {},
	ErrUnconfirmed:     {},
	ErrBusy:            {},
	ErrInternal:        {},
}

func IsKnownCode(code string) bool {
	if code == "" {
		return true
	}
	_, ok := knownCodes[code]
	return ok
}
