// Package load decodes editor project snapshots into the form consumed
// by the code generator. A snapshot is an immutable JSON document that
// holds either a flat node/connection graph or a multi-sheet variant
// that is flattened before analysis.
package load

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/uuid"
)

// Project represents an editor project snapshot that was handed to the
// generator. Nodes and Connections hold the flat graph; Sheets holds
// the multi-sheet variant and is merged by Flatten.
type Project struct {
	ID          string        `json:"id,omitempty"`
	Name        string        `json:"name,omitempty"`
	Nodes       []*Node       `json:"nodes,omitempty"`
	Connections []*Connection `json:"connections,omitempty"`
	Sheets      []*Sheet      `json:"sheets,omitempty"`
}

// Sheet is one canvas page of a multi-sheet project.
type Sheet struct {
	Name        string        `json:"name,omitempty"`
	Nodes       []*Node       `json:"nodes,omitempty"`
	Connections []*Connection `json:"connections,omitempty"`
}

// Node is one unit of conversation logic as stored by the editor.
// The Data payload is a union of all per-type fields; the generator
// narrows it into a typed variant during graph construction.
type Node struct {
	ID       string   `json:"id"`
	Type     string   `json:"type"`
	Position Position `json:"position,omitempty"`
	Data     NodeData `json:"data"`
}

// Position holds canvas coordinates. Layout only, never affects
// generation.
type Position struct {
	X float64 `json:"x,omitempty"`
	Y float64 `json:"y,omitempty"`
}

// NodeData is the type-specific payload of a node.
type NodeData struct {
	MessageText string `json:"messageText,omitempty"`

	// Command nodes.
	Command     string   `json:"command,omitempty"`
	Description string   `json:"description,omitempty"`
	ShowInMenu  *bool    `json:"showInMenu,omitempty"`
	Synonyms    []string `json:"synonyms,omitempty"`

	// Keyboard layout.
	KeyboardType    string `json:"keyboardType,omitempty"` // none, reply, inline
	ResizeKeyboard  *bool  `json:"resizeKeyboard,omitempty"`
	OneTimeKeyboard bool   `json:"oneTimeKeyboard,omitempty"`

	Buttons             []*Button                 `json:"buttons,omitempty"`
	ConditionalMessages []*ConditionalMessageRule `json:"conditionalMessages,omitempty"`

	// Media nodes.
	MediaURL string `json:"mediaUrl,omitempty"`
	Caption  string `json:"caption,omitempty"`

	// Location nodes.
	Latitude  float64 `json:"latitude,omitempty"`
	Longitude float64 `json:"longitude,omitempty"`

	// Contact nodes.
	PhoneNumber string `json:"phoneNumber,omitempty"`
	FirstName   string `json:"firstName,omitempty"`

	// Input collection.
	CollectUserInput bool   `json:"collectUserInput,omitempty"`
	InputVariable    string `json:"inputVariable,omitempty"`
	InputValidation  string `json:"inputValidation,omitempty"` // text, number, email, phone
	MinLength        int    `json:"minLength,omitempty"`
	MaxLength        int    `json:"maxLength,omitempty"`
	InputTimeout     int    `json:"inputTimeout,omitempty"` // seconds
	InputRequired    bool   `json:"inputRequired,omitempty"`
	AllowSkip        bool   `json:"allowSkip,omitempty"`
	SaveToDatabase   bool   `json:"saveToDatabase,omitempty"`
	InputTargetNode  string `json:"inputTargetNodeId,omitempty"`
	RetryMessage     string `json:"retryMessage,omitempty"`

	// Multi-select prompts.
	MultiSelectVariable  string `json:"multiSelectVariable,omitempty"`
	ContinueButtonTarget string `json:"continueButtonTarget,omitempty"`
	DoneButtonText       string `json:"doneButtonText,omitempty"`

	// Auto transition.
	AutoTransitionTo    string `json:"autoTransitionTo,omitempty"`
	AutoTransitionDelay int    `json:"autoTransitionDelay,omitempty"` // seconds

	// Admin / user-management actions.
	AdminAction  string `json:"adminAction,omitempty"` // ban, unban, promote, demote
	ErrorMessage string `json:"errorMessage,omitempty"`

	// Broadcast nodes.
	BroadcastTarget string `json:"broadcastTarget,omitempty"` // all, admins
}

// Button belongs to a node or a conditional-message rule.
type Button struct {
	ID                 string `json:"id,omitempty"`
	Text               string `json:"text"`
	Action             string `json:"action,omitempty"` // goto, command, url, contact, location, selection, default
	Target             string `json:"target,omitempty"`
	URL                string `json:"url,omitempty"`
	SkipDataCollection bool   `json:"skipDataCollection,omitempty"`
	HideAfterClick     bool   `json:"hideAfterClick,omitempty"`
	RequestContact     bool   `json:"requestContact,omitempty"`
	RequestLocation    bool   `json:"requestLocation,omitempty"`
}

// ConditionalMessageRule selects an alternate message by runtime user
// data. Rules are evaluated in priority order and the first match wins.
type ConditionalMessageRule struct {
	ID            string    `json:"id,omitempty"`
	Condition     string    `json:"condition"` // user_data_exists, user_data_not_exists, user_data_equals
	VariableName  string    `json:"variableName,omitempty"`
	VariableNames []string  `json:"variableNames,omitempty"`
	LogicOperator string    `json:"logicOperator,omitempty"` // AND, OR
	ExpectedValue string    `json:"expectedValue,omitempty"`
	MessageText   string    `json:"messageText"`
	KeyboardType  string    `json:"keyboardType,omitempty"`
	Buttons       []*Button `json:"buttons,omitempty"`
	Priority      int       `json:"priority,omitempty"`
}

// Connection is a directed edge between two nodes. The generator uses
// connections only for reachability reporting; goto resolution relies
// on explicit button targets.
type Connection struct {
	ID           string `json:"id,omitempty"`
	Source       string `json:"source"`
	Target       string `json:"target"`
	SourceHandle string `json:"sourceHandle,omitempty"`
	TargetHandle string `json:"targetHandle,omitempty"`
}

// UnmarshalProject decodes a project snapshot from JSON, flattens any
// sheets and backfills missing button identifiers.
func UnmarshalProject(data []byte) (*Project, error) {
	p := &Project{}
	if err := json.Unmarshal(data, p); err != nil {
		return nil, fmt.Errorf("load: decode project: %w", err)
	}
	p.Flatten()
	p.EnsureIDs()
	return p, nil
}

// ReadFile reads and decodes a project snapshot from disk.
func ReadFile(path string) (*Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load: read project: %w", err)
	}
	return UnmarshalProject(data)
}

// Flatten merges all sheets into the top-level node and connection
// lists, preserving sheet order. It is a no-op for flat projects.
func (p *Project) Flatten() {
	if len(p.Sheets) == 0 {
		return
	}
	for _, s := range p.Sheets {
		p.Nodes = append(p.Nodes, s.Nodes...)
		p.Connections = append(p.Connections, s.Connections...)
	}
	p.Sheets = nil
}

// EnsureIDs backfills missing button and rule identifiers with UUIDs.
// Node ids are authored by the editor and are never synthesized here;
// a node without an id is a structural problem surfaced by the
// generator.
func (p *Project) EnsureIDs() {
	for _, n := range p.Nodes {
		ensureButtonIDs(n.Data.Buttons)
		for _, r := range n.Data.ConditionalMessages {
			if r.ID == "" {
				r.ID = uuid.NewString()
			}
			ensureButtonIDs(r.Buttons)
		}
	}
}

func ensureButtonIDs(buttons []*Button) {
	for _, b := range buttons {
		if b.ID == "" {
			b.ID = uuid.NewString()
		}
	}
}

// Node returns the node with the given id, or nil.
func (p *Project) Node(id string) *Node {
	for _, n := range p.Nodes {
		if n.ID == id {
			return n
		}
	}
	return nil
}
