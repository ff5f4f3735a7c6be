package cce

import "encoding/json"

// Message is a single turn in a chat-style conversation. Unknown sibling
// fields arriving on a caller's record must survive a round trip through
// Compress/Uncompress untouched; they are carried in Extra.
type Message struct {
	ID        string         `json:"id"`
	Index     int            `json:"index"`
	Role      string         `json:"role,omitempty"`
	Content   string         `json:"content,omitempty"`
	ToolCalls []any          `json:"tool_calls,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`

	// Extra carries any JSON object fields not named above, so a
	// caller's custom sibling fields pass through unmodified.
	Extra map[string]any `json:"-"`
}

// messageFields mirrors Message's named fields for use as the embedded
// type in MarshalJSON/UnmarshalJSON, so encoding/json's struct tags still
// apply while Extra is merged in/out by hand.
type messageFields struct {
	ID        string         `json:"id"`
	Index     int            `json:"index"`
	Role      string         `json:"role,omitempty"`
	Content   string         `json:"content,omitempty"`
	ToolCalls []any          `json:"tool_calls,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

var messageNamedKeys = map[string]bool{
	"id": true, "index": true, "role": true, "content": true,
	"tool_calls": true, "metadata": true,
}

// MarshalJSON emits the named fields alongside any keys carried in Extra,
// so a caller's custom sibling fields survive a round trip unmodified.
func (m Message) MarshalJSON() ([]byte, error) {
	named, err := json.Marshal(messageFields{
		ID:        m.ID,
		Index:     m.Index,
		Role:      m.Role,
		Content:   m.Content,
		ToolCalls: m.ToolCalls,
		Metadata:  m.Metadata,
	})
	if err != nil {
		return nil, err
	}
	if len(m.Extra) == 0 {
		return named, nil
	}

	merged := make(map[string]json.RawMessage, len(m.Extra)+6)
	var namedMap map[string]json.RawMessage
	if err := json.Unmarshal(named, &namedMap); err != nil {
		return nil, err
	}
	for k, v := range namedMap {
		merged[k] = v
	}
	for k, v := range m.Extra {
		if messageNamedKeys[k] {
			continue
		}
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		merged[k] = raw
	}
	return json.Marshal(merged)
}

// UnmarshalJSON populates the named fields and stashes any remaining
// object keys in Extra.
func (m *Message) UnmarshalJSON(data []byte) error {
	var fields messageFields
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	m.ID = fields.ID
	m.Index = fields.Index
	m.Role = fields.Role
	m.Content = fields.Content
	m.ToolCalls = fields.ToolCalls
	m.Metadata = fields.Metadata
	m.Extra = nil

	for k, v := range raw {
		if messageNamedKeys[k] {
			continue
		}
		var val any
		if err := json.Unmarshal(v, &val); err != nil {
			return err
		}
		if m.Extra == nil {
			m.Extra = make(map[string]any)
		}
		m.Extra[k] = val
	}
	return nil
}

// Clone returns a deep-enough copy of m suitable for storing in a
// VerbatimMap: mutating the returned Message never affects m.
func (m Message) Clone() Message {
	out := m
	if m.ToolCalls != nil {
		out.ToolCalls = append([]any(nil), m.ToolCalls...)
	}
	if m.Metadata != nil {
		out.Metadata = make(map[string]any, len(m.Metadata))
		for k, v := range m.Metadata {
			out.Metadata[k] = v
		}
	}
	if m.Extra != nil {
		out.Extra = make(map[string]any, len(m.Extra))
		for k, v := range m.Extra {
			out.Extra[k] = v
		}
	}
	return out
}

// HasToolCalls reports whether m carries a non-empty tool_calls list.
func (m Message) HasToolCalls() bool {
	return len(m.ToolCalls) > 0
}

// Provenance is the `_cce_original` metadata attached to every message the
// compressor rewrites.
type Provenance struct {
	IDs        []string `json:"ids"`
	SummaryID  string   `json:"summary_id"`
	ParentIDs  []string `json:"parent_ids,omitempty"`
	Version    int      `json:"version"`
}

// provenanceKey is the single reserved metadata key provenance is stored
// under, so repeated compression rounds can observe prior rounds' output.
const provenanceKey = "_cce_original"

// getProvenance extracts Provenance from a message's metadata, if present.
func getProvenance(m Message) (Provenance, bool) {
	if m.Metadata == nil {
		return Provenance{}, false
	}
	raw, ok := m.Metadata[provenanceKey]
	if !ok {
		return Provenance{}, false
	}
	switch v := raw.(type) {
	case Provenance:
		return v, true
	case map[string]any:
		return provenanceFromMap(v), true
	default:
		return Provenance{}, false
	}
}

func provenanceFromMap(v map[string]any) Provenance {
	p := Provenance{}
	if ids, ok := v["ids"].([]string); ok {
		p.IDs = ids
	} else if ids, ok := v["ids"].([]any); ok {
		for _, id := range ids {
			if s, ok := id.(string); ok {
				p.IDs = append(p.IDs, s)
			}
		}
	}
	if s, ok := v["summary_id"].(string); ok {
		p.SummaryID = s
	}
	if ids, ok := v["parent_ids"].([]string); ok {
		p.ParentIDs = ids
	} else if ids, ok := v["parent_ids"].([]any); ok {
		for _, id := range ids {
			if s, ok := id.(string); ok {
				p.ParentIDs = append(p.ParentIDs, s)
			}
		}
	}
	switch ver := v["version"].(type) {
	case int:
		p.Version = ver
	case float64:
		p.Version = int(ver)
	}
	return p
}

func setProvenance(m *Message, p Provenance) {
	if m.Metadata == nil {
		m.Metadata = make(map[string]any, 1)
	}
	m.Metadata[provenanceKey] = p
}

// VerbatimMap is an ID-keyed side-store of originals that makes a
// compression reversible. The compressor populates it for every ID
// referenced by any emitted Provenance.IDs.
type VerbatimMap map[string]Message

// Lookup resolves an ID against the map; it makes VerbatimMap satisfy
// Store, so a map can be passed straight to Uncompress.
func (v VerbatimMap) Lookup(id string) (Message, bool) {
	m, ok := v[id]
	return m, ok
}
