package types

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/invopop/jsonschema"
)

// AngleRule is a named target range for the angle formed at landmark P2 by
// the rays towards P1 and P3.
type AngleRule struct {
	Name         string   `json:"name,omitempty" validate:"required"`
	P1           Landmark `json:"p1" validate:"gte=0,lt=33,nefield=P2"`
	P2           Landmark `json:"p2" validate:"gte=0,lt=33"`
	P3           Landmark `json:"p3" validate:"gte=0,lt=33,nefield=P2"`
	Target       float64  `json:"target" validate:"gte=0,lte=180" jsonschema:"minimum=0,maximum=180"`
	Tolerance    float64  `json:"tolerance" validate:"gte=0" jsonschema:"minimum=0"`
	FeedbackLow  string   `json:"feedback_low,omitempty"`
	FeedbackHigh string   `json:"feedback_high,omitempty"`
	FeedbackGood string   `json:"feedback_good,omitempty"`
}

// PoseConfig is the ordered set of angle rules defining correct form for one
// pose. Order only affects the order of feedback messages.
//
// The JSON form is an object keyed by rule name; decoding keeps document order.
type PoseConfig []AngleRule

// Names returns the rule names in evaluation order.
func (c PoseConfig) Names() []string {
	names := make([]string, 0, len(c))
	for _, r := range c {
		names = append(names, r.Name)
	}
	return names
}

// Validate checks every rule and rejects duplicate names. Landmark indices
// must address the BlazePose schema; out-of-range indices are a config error.
func (c PoseConfig) Validate() error {
	validate := validator.New()
	seen := make(map[string]bool, len(c))
	for i, rule := range c {
		if err := validate.Struct(rule); err != nil {
			name := rule.Name
			if name == "" {
				name = fmt.Sprintf("#%d", i)
			}
			return fmt.Errorf("rule %s: %w", name, err)
		}
		if seen[rule.Name] {
			return fmt.Errorf("duplicate rule name %q", rule.Name)
		}
		seen[rule.Name] = true
	}
	return nil
}

// MarshalJSON encodes the config as an object keyed by rule name, in order.
func (c PoseConfig) MarshalJSON() ([]byte, error) {
	if c == nil {
		return []byte("{}"), nil
	}

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, rule := range c {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(rule.Name)
		if err != nil {
			return nil, err
		}
		body := rule
		body.Name = ""
		value, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal rule %s: %w", rule.Name, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes either an object keyed by rule name (document order
// is kept) or an array of rules carrying their own "name".
func (c *PoseConfig) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("failed to read pose config: %w", err)
	}
	if tok == nil {
		*c = nil
		return nil
	}

	delim, ok := tok.(json.Delim)
	if !ok {
		return fmt.Errorf("pose config must be an object or array, got %v", tok)
	}

	rules := PoseConfig{}
	seen := make(map[string]bool)
	add := func(rule AngleRule) error {
		if seen[rule.Name] {
			return fmt.Errorf("duplicate rule name %q", rule.Name)
		}
		seen[rule.Name] = true
		rules = append(rules, rule)
		return nil
	}

	switch delim {
	case '{':
		for dec.More() {
			keyTok, err := dec.Token()
			if err != nil {
				return fmt.Errorf("failed to read rule name: %w", err)
			}
			name, _ := keyTok.(string)
			var rule AngleRule
			if err := dec.Decode(&rule); err != nil {
				return fmt.Errorf("failed to decode rule %s: %w", name, err)
			}
			rule.Name = name
			if err := add(rule); err != nil {
				return err
			}
		}
	case '[':
		for dec.More() {
			var rule AngleRule
			if err := dec.Decode(&rule); err != nil {
				return fmt.Errorf("failed to decode rule #%d: %w", len(rules), err)
			}
			if err := add(rule); err != nil {
				return err
			}
		}
	default:
		return fmt.Errorf("pose config must be an object or array, got %v", delim)
	}

	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("failed to read end of pose config: %w", err)
	}

	*c = rules
	return nil
}

// JSONSchema describes the object form of a pose config.
func (PoseConfig) JSONSchema() *jsonschema.Schema {
	r := &jsonschema.Reflector{DoNotReference: true, ExpandedStruct: true}
	rule := r.Reflect(&AngleRule{})
	rule.Version = ""
	rule.ID = ""
	return &jsonschema.Schema{
		Type:                 "object",
		Description:          "Angle rules keyed by rule name",
		AdditionalProperties: rule,
	}
}
