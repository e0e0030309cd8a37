package ws

import (
	"encoding/json"
	"errors"
	"fmt"

	"areasigns.ai/internal/protocol"
	"areasigns.ai/internal/sim/cascade"
	"areasigns.ai/internal/sim/engine"
	"areasigns.ai/internal/sim/geom"
)

type session struct {
	id        string
	actor     string
	actorName string
}

func loc(world string, pos [3]int) geom.Location {
	return geom.Location{World: world, Pos: geom.FromArray(pos)}
}

// toSignal decodes a validated inbound message into an engine signal.
func (s session) toSignal(typ string, raw []byte) (engine.Signal, error) {
	switch typ {
	case protocol.TypeMarkerEdited:
		var m protocol.MarkerEditedMsg
		if err := json.Unmarshal(raw, &m); err != nil {
			return nil, err
		}
		return engine.MarkerEdited{
			Actor:     s.actor,
			ActorName: s.actorName,
			Loc:       loc(m.World, m.Pos),
			Lines:     m.Lines,
			Kind:      m.Kind,
			Facing:    geom.ParseFacing(m.Facing),
		}, nil
	case protocol.TypeMarkerBroken:
		var m protocol.MarkerBrokenMsg
		if err := json.Unmarshal(raw, &m); err != nil {
			return nil, err
		}
		sig := engine.MarkerBroken{Actor: s.actor, Loc: loc(m.World, m.Pos)}
		if m.WorldEdit {
			sig.Actor = ""
		}
		return sig, nil
	case protocol.TypeMarkerUnsupported:
		var m protocol.MarkerUnsupportedMsg
		if err := json.Unmarshal(raw, &m); err != nil {
			return nil, err
		}
		return engine.MarkerUnsupported{Loc: loc(m.World, m.Pos)}, nil
	case protocol.TypeMarkerClicked:
		var m protocol.MarkerClickedMsg
		if err := json.Unmarshal(raw, &m); err != nil {
			return nil, err
		}
		return engine.MarkerClicked{Actor: s.actor, Loc: loc(m.World, m.Pos), Right: m.Right, Sneaking: m.Sneaking}, nil
	case protocol.TypeChunkLoaded:
		var m protocol.ChunkLoadedMsg
		if err := json.Unmarshal(raw, &m); err != nil {
			return nil, err
		}
		return engine.ChunkLoaded{World: m.World, CX: m.Chunk[0], CZ: m.Chunk[1]}, nil
	case protocol.TypeWorldLoaded, protocol.TypeWorldUnloaded:
		var m protocol.WorldMsg
		if err := json.Unmarshal(raw, &m); err != nil {
			return nil, err
		}
		if typ == protocol.TypeWorldLoaded {
			return engine.WorldLoaded{World: m.World}, nil
		}
		return engine.WorldUnloaded{World: m.World}, nil
	case protocol.TypeCommand:
		var m protocol.CommandMsg
		if err := json.Unmarshal(raw, &m); err != nil {
			return nil, err
		}
		return engine.Command{Actor: s.actor, Line: m.Line}, nil
	}
	return nil, fmt.Errorf("unexpected message type %q", typ)
}

// codeFor maps engine errors onto protocol error codes.
func codeFor(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, cascade.ErrNotReady):
		return protocol.ErrNotReady
	case errors.Is(err, cascade.ErrUnauthorized), errors.Is(err, engine.ErrNoPermission):
		return protocol.ErrNoPermission
	case errors.Is(err, cascade.ErrNoRegion), errors.Is(err, cascade.ErrRegionNotFound):
		return protocol.ErrNotFound
	case errors.Is(err, cascade.ErrAmbiguousRegion), errors.Is(err, cascade.ErrAmbiguousTarget):
		return protocol.ErrAmbiguous
	case errors.Is(err, cascade.ErrDuplicateBinding), errors.Is(err, cascade.ErrAlreadyRegistered):
		return protocol.ErrConflict
	case errors.Is(err, cascade.ErrBlacklisted):
		return protocol.ErrBlacklisted
	case errors.Is(err, cascade.ErrInvalidFormat), errors.Is(err, engine.ErrUsage), errors.Is(err, engine.ErrUnknownCommand):
		return protocol.ErrBadRequest
	case errors.Is(err, cascade.ErrVetoed):
		return protocol.ErrVetoed
	case errors.Is(err, engine.ErrUnconfirmed):
		return protocol.ErrUnconfirmed
	}
	return protocol.ErrInternal
}

func resultMsg(reqID string, res engine.Result) protocol.ResultMsg {
	m := protocol.ResultMsg{
		Type:            protocol.TypeResult,
		ProtocolVersion: protocol.Version,
		ReqID:           reqID,
		Cancelled:       res.Cancelled,
		Stage:           res.Stage,
	}
	if res.Err != nil {
		m.Code = codeFor(res.Err)
		m.Message = res.Err.Error()
	}
	return m
}

func errorMsg(reqID, code string, err error) protocol.ResultMsg {
	return protocol.ResultMsg{
		Type:            protocol.TypeResult,
		ProtocolVersion: protocol.Version,
		ReqID:           reqID,
		Code:            code,
		Message:         err.Error(),
	}
}
