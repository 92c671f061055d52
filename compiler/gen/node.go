package gen

import "fmt"

// Kind tags the closed set of node types. Every fragment-generation
// call site switches exhaustively over it; an unknown kind is a
// structural error, never a silent no-op.
type Kind uint8

// Node kinds.
const (
	KindInvalid Kind = iota
	KindStart
	KindMessage
	KindCommand
	KindPhoto
	KindAnimation
	KindVoice
	KindSticker
	KindLocation
	KindContact
	KindBroadcast
	KindMultiSelect
	KindAdmin
	KindCondition
)

var kindNames = map[Kind]string{
	KindStart:       "start",
	KindMessage:     "message",
	KindCommand:     "command",
	KindPhoto:       "photo",
	KindAnimation:   "animation",
	KindVoice:       "voice",
	KindSticker:     "sticker",
	KindLocation:    "location",
	KindContact:     "contact",
	KindBroadcast:   "broadcast",
	KindMultiSelect: "multi_select",
	KindAdmin:       "admin",
	KindCondition:   "condition",
}

// String returns the editor tag of the kind.
func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", k)
}

// ParseKind maps an editor type tag to a Kind. The boolean reports
// whether the tag is part of the closed set.
func ParseKind(tag string) (Kind, bool) {
	for k, s := range kindNames {
		if s == tag {
			return k, true
		}
	}
	return KindInvalid, false
}

// Media reports whether the kind carries a media payload.
func (k Kind) Media() bool {
	switch k {
	case KindPhoto, KindAnimation, KindVoice, KindSticker, KindLocation, KindContact:
		return true
	}
	return false
}

// KeyboardKind selects the keyboard attached to a node's response.
type KeyboardKind uint8

// Keyboard kinds.
const (
	KeyboardNone KeyboardKind = iota
	KeyboardReply
	KeyboardInline
)

// String returns the editor tag of the keyboard kind.
func (k KeyboardKind) String() string {
	switch k {
	case KeyboardReply:
		return "reply"
	case KeyboardInline:
		return "inline"
	default:
		return "none"
	}
}

func parseKeyboard(tag string) KeyboardKind {
	switch tag {
	case "reply":
		return KeyboardReply
	case "inline":
		return KeyboardInline
	default:
		return KeyboardNone
	}
}

// ButtonAction is the closed set of button behaviors.
type ButtonAction uint8

// Button actions.
const (
	ActionDefault ButtonAction = iota
	ActionGoto
	ActionCommand
	ActionURL
	ActionContact
	ActionLocation
	ActionSelection
)

// String returns the editor tag of the action.
func (a ButtonAction) String() string {
	switch a {
	case ActionGoto:
		return "goto"
	case ActionCommand:
		return "command"
	case ActionURL:
		return "url"
	case ActionContact:
		return "contact"
	case ActionLocation:
		return "location"
	case ActionSelection:
		return "selection"
	default:
		return "default"
	}
}

func parseAction(tag string) ButtonAction {
	switch tag {
	case "goto":
		return ActionGoto
	case "command":
		return ActionCommand
	case "url":
		return ActionURL
	case "contact":
		return ActionContact
	case "location":
		return ActionLocation
	case "selection":
		return ActionSelection
	default:
		return ActionDefault
	}
}

// Button is a compiled keyboard button.
type Button struct {
	ID                 string
	Text               string
	Action             ButtonAction
	Target             string // node id, set when Action == ActionGoto
	URL                string // set when Action == ActionURL
	SkipDataCollection bool
	HideAfterClick     bool
	RequestContact     bool
	RequestLocation    bool
}

// Rule is a compiled conditional-message rule. Rules attached to a
// node are evaluated in priority order; the first match wins.
type Rule struct {
	ID        string
	Condition Condition
	Variables []string
	AllOf     bool // AND when true, OR otherwise
	Expected  string
	Text      string
	Keyboard  KeyboardKind
	Buttons   []*Button
	Priority  int
}

// Condition is the closed set of conditional-message predicates.
type Condition uint8

// Conditions.
const (
	CondDataExists Condition = iota
	CondDataNotExists
	CondDataEquals
)

func parseCondition(tag string) (Condition, bool) {
	switch tag {
	case "user_data_exists", "":
		return CondDataExists, true
	case "user_data_not_exists":
		return CondDataNotExists, true
	case "user_data_equals":
		return CondDataEquals, true
	default:
		return CondDataExists, false
	}
}

// InputValidation is the closed set of input-collection validators.
type InputValidation uint8

// Input validations.
const (
	ValidateText InputValidation = iota
	ValidateNumber
	ValidateEmail
	ValidatePhone
)

// String returns the editor tag of the validation kind.
func (v InputValidation) String() string {
	switch v {
	case ValidateNumber:
		return "number"
	case ValidateEmail:
		return "email"
	case ValidatePhone:
		return "phone"
	default:
		return "text"
	}
}

func parseValidation(tag string) InputValidation {
	switch tag {
	case "number":
		return ValidateNumber
	case "email":
		return ValidateEmail
	case "phone":
		return ValidatePhone
	default:
		return ValidateText
	}
}

// InputConfig describes an input-collection flow declared on a node.
type InputConfig struct {
	Variable   string
	Validation InputValidation
	MinLength  int
	MaxLength  int
	Timeout    int // seconds, 0 means no timeout
	Required   bool
	AllowSkip  bool
	Save       bool // persist to the durable store
	NextNode   string
	RetryText  string
}

// AdminAction is the closed set of privileged user-management actions.
type AdminAction uint8

// Admin actions.
const (
	AdminBan AdminAction = iota
	AdminUnban
	AdminPromote
	AdminDemote
)

// String returns the editor tag of the action.
func (a AdminAction) String() string {
	switch a {
	case AdminUnban:
		return "unban"
	case AdminPromote:
		return "promote"
	case AdminDemote:
		return "demote"
	default:
		return "ban"
	}
}

func parseAdminAction(tag string) (AdminAction, bool) {
	switch tag {
	case "ban":
		return AdminBan, true
	case "unban":
		return AdminUnban, true
	case "promote":
		return AdminPromote, true
	case "demote":
		return AdminDemote, true
	default:
		return AdminBan, false
	}
}

// Common holds the response fields shared by every sending node.
type Common struct {
	Text            string
	Keyboard        KeyboardKind
	Buttons         []*Button
	Rules           []*Rule
	Input           *InputConfig // nil unless the node collects input
	AutoTransition  string       // target node id, empty when absent
	AutoDelay       int          // seconds before the auto transition
	ResizeKeyboard  bool
	OneTimeKeyboard bool
}

// Spec is the tagged variant interface. One implementation exists per
// node kind, each carrying only the fields valid for that kind.
type Spec interface {
	NodeKind() Kind
	Common() *Common
}

// StartSpec is the /start entry node.
type StartSpec struct {
	Response    Common
	Description string
	ShowInMenu  bool
}

// CommandSpec is a /command node with optional synonym triggers.
type CommandSpec struct {
	Response    Common
	Command     string // without the leading slash
	Description string
	ShowInMenu  bool
	Synonyms    []string
}

// MessageSpec is a plain message node, optionally triggered by
// synonym phrases.
type MessageSpec struct {
	Response Common
	Synonyms []string
}

// MediaSpec is a photo/animation/voice/sticker/location/contact node.
type MediaSpec struct {
	Response  Common
	Media     Kind // one of the media kinds
	FileURL   string
	Latitude  float64
	Longitude float64
	Phone     string
	FirstName string
}

// BroadcastSpec sends a message to every known user, or to the admin
// allowlist only. Admin only.
type BroadcastSpec struct {
	Response   Common
	ErrorText  string
	AdminsOnly bool
}

// MultiSelectSpec is a toggled multi-option prompt committed by a
// Done button.
type MultiSelectSpec struct {
	Response Common
	Variable string
	NextNode string // advanced to after completion
	DoneText string
	Save     bool
}

// AdminSpec performs a privileged user-management action.
type AdminSpec struct {
	Response  Common
	Action    AdminAction
	ErrorText string
}

// ConditionSpec is a node whose whole response is rule-driven.
type ConditionSpec struct {
	Response Common
}

// NodeKind implements Spec.
func (s *StartSpec) NodeKind() Kind { return KindStart }

// Common implements Spec.
func (s *StartSpec) Common() *Common { return &s.Response }

// NodeKind implements Spec.
func (s *CommandSpec) NodeKind() Kind { return KindCommand }

// Common implements Spec.
func (s *CommandSpec) Common() *Common { return &s.Response }

// NodeKind implements Spec.
func (s *MessageSpec) NodeKind() Kind { return KindMessage }

// Common implements Spec.
func (s *MessageSpec) Common() *Common { return &s.Response }

// NodeKind implements Spec.
func (s *MediaSpec) NodeKind() Kind { return s.Media }

// Common implements Spec.
func (s *MediaSpec) Common() *Common { return &s.Response }

// NodeKind implements Spec.
func (s *BroadcastSpec) NodeKind() Kind { return KindBroadcast }

// Common implements Spec.
func (s *BroadcastSpec) Common() *Common { return &s.Response }

// NodeKind implements Spec.
func (s *MultiSelectSpec) NodeKind() Kind { return KindMultiSelect }

// Common implements Spec.
func (s *MultiSelectSpec) Common() *Common { return &s.Response }

// NodeKind implements Spec.
func (s *AdminSpec) NodeKind() Kind { return KindAdmin }

// Common implements Spec.
func (s *AdminSpec) Common() *Common { return &s.Response }

// NodeKind implements Spec.
func (s *ConditionSpec) NodeKind() Kind { return KindCondition }

// Common implements Spec.
func (s *ConditionSpec) Common() *Common { return &s.Response }

// Node is one compiled unit of conversation logic.
type Node struct {
	ID      string
	Kind    Kind
	Spec    Spec
	handler string // generated handler identifier
	token   string // callback-data token
}

// Handler returns the generated handler function name for the node.
func (n *Node) Handler() string { return n.handler }

// Token returns the callback-data token derived from the node id.
// The token-to-handler mapping is injective within one program.
func (n *Node) Token() string { return n.token }

// Synonyms returns the node's alternate trigger phrases, if any.
func (n *Node) Synonyms() []string {
	switch s := n.Spec.(type) {
	case *CommandSpec:
		return s.Synonyms
	case *MessageSpec:
		return s.Synonyms
	default:
		return nil
	}
}
