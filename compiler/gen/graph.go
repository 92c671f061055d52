package gen

import (
	"errors"
	"fmt"
	"strings"

	"github.com/fedorabakumets/telegram-bot-builder/compiler/load"
)

// callbackTokenMax bounds the node-id tail kept in callback tokens.
// Telegram limits callback data to 64 bytes and the longest dispatcher
// prefix (multi_select_done_) plus a toggle index must still fit.
const callbackTokenMax = 24

// Connection is a directed edge between two compiled nodes.
type Connection struct {
	Source string
	Target string
}

// reservedIdents are function names the assembler emits verbatim. They
// are claimed before any node so a node id that sanitizes to one of
// them gets a counter suffix instead of a duplicate definition.
var reservedIdents = []string{
	"handle_callback",
	"handle_user_input",
	"handle_reply_button",
	fallbackHandler,
	"process_multi_select",
	"main",
}

// Graph holds the compiled project snapshot: typed nodes, connections
// and the naming tables shared by all fragment generators. The graph
// is read-only after construction; generation never mutates it.
type Graph struct {
	*Config

	// Nodes in editor array order. Section rendering follows this
	// order so output is deterministic.
	Nodes []*Node
	// Connections as recorded by the editor. Used only for
	// reachability reporting.
	Connections []*Connection

	nodes     map[string]*Node
	handlers  *identTable
	tokens    *identTable
	extTokens map[string]string // dangling target id -> claimed token
	warnings  []Warning

	// hideOnClick collects callback data of inline buttons whose markup
	// must be cleared after the click, in emission order.
	hideOnClick []string
	hideSeen    map[string]bool

	// needFallback records that some reference resolved to the shared
	// fallback handler, which must then be emitted.
	needFallback bool
}

// NewGraph compiles a loaded project snapshot into a Graph. Structural
// defects (duplicate node ids, command nodes without a command string,
// unknown node types, ambiguous synonym triggers) abort construction
// with a joined error list; recoverable findings become warnings on
// the graph.
func NewGraph(c *Config, p *load.Project) (*Graph, error) {
	if c == nil {
		c = &Config{}
	}
	c.defaults()
	g := &Graph{
		Config:   c,
		nodes:    make(map[string]*Node, len(p.Nodes)),
		handlers: newIdentTable(),
		tokens:   newIdentTable(),
	}
	for _, name := range reservedIdents {
		g.handlers.claim(name)
	}
	for _, def := range helperPool {
		g.handlers.claim(string(def.name))
	}
	var errs []error
	for _, ln := range p.Nodes {
		n, err := g.compileNode(ln)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if _, dup := g.nodes[n.ID]; dup {
			errs = append(errs, NewStructuralError(n.ID, n.Kind.String(), "id", "duplicate node id"))
			continue
		}
		g.nodes[n.ID] = n
		g.Nodes = append(g.Nodes, n)
	}
	for _, lc := range p.Connections {
		g.Connections = append(g.Connections, &Connection{Source: lc.Source, Target: lc.Target})
	}
	if err := g.checkTriggers(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return g, nil
}

// Node returns the compiled node with the given id, or nil.
func (g *Graph) Node(id string) *Node {
	return g.nodes[id]
}

// HasNode reports whether the id exists in the snapshot.
func (g *Graph) HasNode(id string) bool {
	_, ok := g.nodes[id]
	return ok
}

// Warnings returns the findings collected during graph construction.
func (g *Graph) Warnings() []Warning {
	return g.warnings
}

func (g *Graph) warn(w Warning) {
	g.warnings = append(g.warnings, w)
}

// compileNode narrows the editor payload into the typed variant for
// the node's kind.
func (g *Graph) compileNode(ln *load.Node) (*Node, error) {
	if ln.ID == "" {
		return nil, NewStructuralError("", ln.Type, "id", "node without id")
	}
	kind, ok := ParseKind(ln.Type)
	if !ok {
		return nil, NewStructuralError(ln.ID, ln.Type, "type", "unrecognized node type")
	}
	common, err := g.compileCommon(ln)
	if err != nil {
		return nil, err
	}
	var spec Spec
	switch kind {
	case KindStart:
		spec = &StartSpec{
			Response:    *common,
			Description: ln.Data.Description,
			ShowInMenu:  ln.Data.ShowInMenu == nil || *ln.Data.ShowInMenu,
		}
	case KindCommand:
		cmd := strings.TrimPrefix(ln.Data.Command, "/")
		if cmd == "" {
			return nil, NewStructuralError(ln.ID, ln.Type, "command", "command node without a command string")
		}
		spec = &CommandSpec{
			Response:    *common,
			Command:     cmd,
			Description: ln.Data.Description,
			ShowInMenu:  ln.Data.ShowInMenu == nil || *ln.Data.ShowInMenu,
			Synonyms:    ln.Data.Synonyms,
		}
	case KindMessage:
		spec = &MessageSpec{Response: *common, Synonyms: ln.Data.Synonyms}
	case KindPhoto, KindAnimation, KindVoice, KindSticker:
		if ln.Data.MediaURL == "" {
			return nil, NewStructuralError(ln.ID, ln.Type, "mediaUrl", "media node without a file reference")
		}
		if common.Text == "" {
			common.Text = ln.Data.Caption
		}
		spec = &MediaSpec{Response: *common, Media: kind, FileURL: ln.Data.MediaURL}
	case KindLocation:
		spec = &MediaSpec{
			Response:  *common,
			Media:     kind,
			Latitude:  ln.Data.Latitude,
			Longitude: ln.Data.Longitude,
		}
	case KindContact:
		spec = &MediaSpec{
			Response:  *common,
			Media:     kind,
			Phone:     ln.Data.PhoneNumber,
			FirstName: ln.Data.FirstName,
		}
	case KindBroadcast:
		spec = &BroadcastSpec{
			Response:   *common,
			ErrorText:  ln.Data.ErrorMessage,
			AdminsOnly: strings.EqualFold(ln.Data.BroadcastTarget, "admins"),
		}
	case KindMultiSelect:
		if ln.Data.MultiSelectVariable == "" {
			return nil, NewStructuralError(ln.ID, ln.Type, "multiSelectVariable", "multi-select node without a variable")
		}
		spec = &MultiSelectSpec{
			Response: *common,
			Variable: ln.Data.MultiSelectVariable,
			NextNode: ln.Data.ContinueButtonTarget,
			DoneText: ln.Data.DoneButtonText,
			Save:     ln.Data.SaveToDatabase,
		}
	case KindAdmin:
		action, ok := parseAdminAction(ln.Data.AdminAction)
		if !ok {
			return nil, NewStructuralError(ln.ID, ln.Type, "adminAction", fmt.Sprintf("unknown admin action %q", ln.Data.AdminAction))
		}
		spec = &AdminSpec{Response: *common, Action: action, ErrorText: ln.Data.ErrorMessage}
	case KindCondition:
		if len(common.Rules) == 0 {
			return nil, NewStructuralError(ln.ID, ln.Type, "conditionalMessages", "condition node without rules")
		}
		spec = &ConditionSpec{Response: *common}
	default:
		return nil, NewStructuralError(ln.ID, ln.Type, "type", "no fragment generator for node type")
	}
	n := &Node{
		ID:      ln.ID,
		Kind:    kind,
		Spec:    spec,
		handler: g.handlers.claim("handle_" + Identifier(ln.ID)),
		token:   g.tokens.claim(tokenTail(Identifier(ln.ID), callbackTokenMax)),
	}
	return n, nil
}

func (g *Graph) compileCommon(ln *load.Node) (*Common, error) {
	c := &Common{
		Text:            ln.Data.MessageText,
		Keyboard:        parseKeyboard(ln.Data.KeyboardType),
		AutoTransition:  ln.Data.AutoTransitionTo,
		AutoDelay:       ln.Data.AutoTransitionDelay,
		ResizeKeyboard:  ln.Data.ResizeKeyboard == nil || *ln.Data.ResizeKeyboard,
		OneTimeKeyboard: ln.Data.OneTimeKeyboard,
	}
	for _, lb := range ln.Data.Buttons {
		c.Buttons = append(c.Buttons, g.compileButton(ln.ID, lb))
	}
	for _, lr := range ln.Data.ConditionalMessages {
		r, err := g.compileRule(ln, lr)
		if err != nil {
			return nil, err
		}
		c.Rules = append(c.Rules, r)
	}
	if ln.Data.CollectUserInput {
		if ln.Data.InputVariable == "" {
			return nil, NewStructuralError(ln.ID, ln.Type, "inputVariable", "input collection without a variable")
		}
		c.Input = &InputConfig{
			Variable:   ln.Data.InputVariable,
			Validation: parseValidation(ln.Data.InputValidation),
			MinLength:  ln.Data.MinLength,
			MaxLength:  ln.Data.MaxLength,
			Timeout:    ln.Data.InputTimeout,
			Required:   ln.Data.InputRequired,
			AllowSkip:  ln.Data.AllowSkip,
			Save:       ln.Data.SaveToDatabase,
			NextNode:   ln.Data.InputTargetNode,
			RetryText:  ln.Data.RetryMessage,
		}
	}
	return c, nil
}

func (g *Graph) compileButton(nodeID string, lb *load.Button) *Button {
	b := &Button{
		ID:                 lb.ID,
		Text:               lb.Text,
		Action:             parseAction(lb.Action),
		Target:             lb.Target,
		URL:                lb.URL,
		SkipDataCollection: lb.SkipDataCollection,
		HideAfterClick:     lb.HideAfterClick,
		RequestContact:     lb.RequestContact,
		RequestLocation:    lb.RequestLocation,
	}
	if b.Action == ActionGoto && b.Target == "" {
		// Treated as a dangling reference rather than silently skipped:
		// the button still renders and resolves to the fallback handler.
		g.warn(Warning{
			Type:    WarningEmptyTarget,
			NodeID:  nodeID,
			Message: fmt.Sprintf("goto button %q has no target", lb.Text),
		})
	}
	return b
}

func (g *Graph) compileRule(ln *load.Node, lr *load.ConditionalMessageRule) (*Rule, error) {
	cond, ok := parseCondition(lr.Condition)
	if !ok {
		return nil, NewStructuralError(ln.ID, ln.Type, "condition", fmt.Sprintf("unknown condition %q", lr.Condition))
	}
	vars := lr.VariableNames
	if len(vars) == 0 && lr.VariableName != "" {
		vars = []string{lr.VariableName}
	}
	if len(vars) == 0 {
		return nil, NewStructuralError(ln.ID, ln.Type, "variableName", "conditional message without variables")
	}
	r := &Rule{
		ID:        lr.ID,
		Condition: cond,
		Variables: vars,
		AllOf:     !strings.EqualFold(lr.LogicOperator, "OR"),
		Expected:  lr.ExpectedValue,
		Text:      lr.MessageText,
		Keyboard:  parseKeyboard(lr.KeyboardType),
		Priority:  lr.Priority,
	}
	for _, lb := range lr.Buttons {
		r.Buttons = append(r.Buttons, g.compileButton(ln.ID, lb))
	}
	return r, nil
}

// checkTriggers rejects ambiguous trigger registrations: two nodes
// declaring the same command or the same synonym phrase would race for
// one dispatch slot, so the conflict is fatal rather than last-wins.
func (g *Graph) checkTriggers() error {
	var errs []error
	commands := make(map[string]string) // command -> node id
	phrases := make(map[string]string)  // synonym -> node id
	for _, n := range g.Nodes {
		var cmd string
		switch s := n.Spec.(type) {
		case *StartSpec:
			cmd = "start"
		case *CommandSpec:
			cmd = s.Command
		}
		if cmd != "" {
			if prev, taken := commands[cmd]; taken {
				errs = append(errs, NewStructuralError(n.ID, n.Kind.String(), "command",
					fmt.Sprintf("command /%s already registered by node %s", cmd, prev)))
			} else {
				commands[cmd] = n.ID
			}
		}
		for _, syn := range n.Synonyms() {
			key := strings.ToLower(strings.TrimSpace(syn))
			if key == "" {
				continue
			}
			if prev, taken := phrases[key]; taken {
				errs = append(errs, NewStructuralError(n.ID, n.Kind.String(), "synonyms",
					fmt.Sprintf("trigger %q already registered by node %s", syn, prev)))
			} else {
				phrases[key] = n.ID
			}
		}
	}
	return errors.Join(errs...)
}

// CommandNodes returns the nodes that register a slash command, in
// node-array order.
func (g *Graph) CommandNodes() []*Node {
	var out []*Node
	for _, n := range g.Nodes {
		switch n.Spec.(type) {
		case *StartSpec, *CommandSpec:
			out = append(out, n)
		}
	}
	return out
}
