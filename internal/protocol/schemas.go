package protocol

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"path"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schemas/*.schema.json
var schemaFS embed.FS

const schemaBase = "https://areasigns.ai/schemas/"

// Validator checks raw messages against the embedded schema of their type.
type Validator struct {
	byType map[string]*jsonschema.Schema
}

func NewValidator() (*Validator, error) {
	entries, err := schemaFS.ReadDir("schemas")
	if err != nil {
		return nil, err
	}
	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020
	var names []string
	for _, e := range entries {
		b, err := schemaFS.ReadFile(path.Join("schemas", e.Name()))
		if err != nil {
			return nil, err
		}
		if err := c.AddResource(schemaBase+e.Name(), bytes.NewReader(b)); err != nil {
			return nil, fmt.Errorf("schema %s: %w", e.Name(), err)
		}
		names = append(names, e.Name())
	}
	v := &Validator{byType: map[string]*jsonschema.Schema{}}
	for _, name := range names {
		s, err := c.Compile(schemaBase + name)
		if err != nil {
			return nil, fmt.Errorf("compile %s: %w", name, err)
		}
		typ := strings.ToUpper(strings.TrimSuffix(name, ".schema.json"))
		v.byType[typ] = s
	}
	return v, nil
}

// Has reports whether a schema exists for the message type.
func (v *Validator) Has(typ string) bool {
	_, ok := v.byType[typ]
	return ok
}

// Validate decodes the type of raw and checks raw against its schema.
func (v *Validator) Validate(raw []byte) (BaseMessage, error) {
	base, err := DecodeBase(raw)
	if err != nil {
		return base, fmt.Errorf("bad json: %w", err)
	}
	s, ok := v.byType[base.Type]
	if !ok {
		return base, fmt.Errorf("unknown message type %q", base.Type)
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return base, fmt.Errorf("bad json: %w", err)
	}
	if err := s.Validate(doc); err != nil {
		return base, fmt.Errorf("%s: %w", base.Type, err)
	}
	return base, nil
}

// ValidateValue marshals v and validates the result. Used for outbound
// messages in tests.
func (v *Validator) ValidateValue(msg any) error {
	b, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	_, err = v.Validate(b)
	return err
}
