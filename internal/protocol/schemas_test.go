package protocol_test

import (
	"strings"
	"testing"

	"areasigns.ai/internal/protocol"
)

func TestSchemas_ValidateSamples(t *testing.T) {
	v, err := protocol.NewValidator()
	if err != nil {
		t.Fatalf("NewValidator: %v", err)
	}

	valid := []string{
		`{"type":"HELLO","protocol_version":"1.0","actor":"alice","auth":{"token":"t"}}`,
		`{"type":"MARKER_EDITED","protocol_version":"1.0","req_id":"r1","world":"world","pos":[1,64,-3],"lines":["[asrent]","market","2d","10"],"kind":"OAK_SIGN","facing":"NORTH"}`,
		`{"type":"MARKER_BROKEN","protocol_version":"1.0","world":"world","pos":[1,64,-3],"world_edit":true}`,
		`{"type":"MARKER_UNSUPPORTED","protocol_version":"1.0","world":"world","pos":[1,64,-3]}`,
		`{"type":"MARKER_CLICKED","protocol_version":"1.0","world":"world","pos":[1,64,-3],"right":true}`,
		`{"type":"CHUNK_LOADED","protocol_version":"1.0","world":"world","chunk":[0,-1]}`,
		`{"type":"WORLD_LOADED","protocol_version":"1.0","world":"nether"}`,
		`{"type":"WORLD_UNLOADED","protocol_version":"1.0","world":"nether"}`,
		`{"type":"COMMAND","protocol_version":"1.0","line":"/info market"}`,
	}
	for _, raw := range valid {
		if _, err := v.Validate([]byte(raw)); err != nil {
			t.Fatalf("expected valid %s: %v", raw, err)
		}
	}

	invalid := map[string]string{
		"five lines":      `{"type":"MARKER_EDITED","protocol_version":"1.0","world":"w","pos":[0,0,0],"lines":["a","b","c","d","e"]}`,
		"short pos":       `{"type":"MARKER_BROKEN","protocol_version":"1.0","world":"w","pos":[0,0]}`,
		"missing actor":   `{"type":"HELLO","protocol_version":"1.0"}`,
		"unknown field":   `{"type":"COMMAND","protocol_version":"1.0","line":"info x","as":"admin"}`,
		"unknown type":    `{"type":"TELEPORT","protocol_version":"1.0"}`,
		"fractional pos":  `{"type":"MARKER_CLICKED","protocol_version":"1.0","world":"w","pos":[0.5,0,0]}`,
		"not json at all": `{"type":`,
	}
	for name, raw := range invalid {
		if _, err := v.Validate([]byte(raw)); err == nil {
			t.Fatalf("%s: expected validation error", name)
		}
	}
}

func TestSchemas_OutboundMessages(t *testing.T) {
	v, err := protocol.NewValidator()
	if err != nil {
		t.Fatalf("NewValidator: %v", err)
	}
	msgs := []any{
		protocol.WelcomeMsg{Type: protocol.TypeWelcome, ProtocolVersion: protocol.Version, SessionID: "s", Actor: "alice", Ready: true},
		protocol.NotifyMsg{Type: protocol.TypeNotify, ProtocolVersion: protocol.Version, Key: "addsign-success", Text: "Sign added to market.", Args: []string{"market"}},
		protocol.RenderMsg{Type: protocol.TypeRender, ProtocolVersion: protocol.Version, World: "world", Pos: [3]int{1, 2, 3}, Lines: []string{"[For Rent]", "market"}},
		protocol.RenderMsg{Type: protocol.TypeRender, ProtocolVersion: protocol.Version, World: "world", Pos: [3]int{1, 2, 3}, Clear: true},
		protocol.ResultMsg{Type: protocol.TypeResult, ProtocolVersion: protocol.Version, ReqID: "r1", Cancelled: true, Stage: "break"},
		protocol.ResultMsg{Type: protocol.TypeResult, ProtocolVersion: protocol.Version, Code: protocol.ErrVetoed, Message: "cancelled"},
	}
	for _, m := range msgs {
		if err := v.ValidateValue(m); err != nil {
			t.Fatalf("%T: %v", m, err)
		}
	}
	err = v.ValidateValue(protocol.ResultMsg{Type: protocol.TypeResult, ProtocolVersion: protocol.Version, Code: "bad"})
	if err == nil || !strings.Contains(err.Error(), "RESULT") {
		t.Fatalf("expected pattern violation, got %v", err)
	}
}
