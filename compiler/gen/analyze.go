package gen

import (
	"regexp"
	"sort"
)

// Analyzers are pure functions over the node array: no side effects,
// no ordering dependency between them. The assembler uses them to
// decide which optional helper blocks the program needs and which
// handlers must exist.

// RefVia tags how a node id is referenced.
type RefVia string

// Reference origins.
const (
	ViaButton            RefVia = "button"
	ViaConditionalButton RefVia = "conditional_button"
	ViaInputNext         RefVia = "input_next"
	ViaAutoTransition    RefVia = "auto_transition"
	ViaMultiSelectNext   RefVia = "multi_select_next"
)

// Reference records one node-to-node target.
type Reference struct {
	Source string
	Target string
	Via    RefVia
}

// CollectReferences returns every node-id reference reachable from
// buttons, conditional-message buttons, input-collection next-node
// ids, multi-select completion targets and auto transitions, in
// node-array order.
func CollectReferences(nodes []*Node) []Reference {
	var refs []Reference
	for _, n := range nodes {
		c := n.Spec.Common()
		for _, b := range c.Buttons {
			if b.Action == ActionGoto {
				refs = append(refs, Reference{Source: n.ID, Target: b.Target, Via: ViaButton})
			}
		}
		for _, r := range c.Rules {
			for _, b := range r.Buttons {
				if b.Action == ActionGoto {
					refs = append(refs, Reference{Source: n.ID, Target: b.Target, Via: ViaConditionalButton})
				}
			}
		}
		if c.Input != nil && c.Input.NextNode != "" {
			refs = append(refs, Reference{Source: n.ID, Target: c.Input.NextNode, Via: ViaInputNext})
		}
		if ms, ok := n.Spec.(*MultiSelectSpec); ok && ms.NextNode != "" {
			refs = append(refs, Reference{Source: n.ID, Target: ms.NextNode, Via: ViaMultiSelectNext})
		}
		if c.AutoTransition != "" {
			refs = append(refs, Reference{Source: n.ID, Target: c.AutoTransition, Via: ViaAutoTransition})
		}
	}
	return refs
}

// DanglingReferences returns the references whose target id does not
// exist in the node array, including empty goto targets. They are
// surfaced here rather than silently dropped; the assembler decides
// whether each is fatal.
func DanglingReferences(nodes []*Node) []Reference {
	ids := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		ids[n.ID] = true
	}
	var out []Reference
	for _, r := range CollectReferences(nodes) {
		if !ids[r.Target] {
			out = append(out, r)
		}
	}
	return out
}

// HasAutoTransitions reports whether any node declares an auto
// transition.
func HasAutoTransitions(nodes []*Node) bool {
	for _, n := range nodes {
		if n.Spec.Common().AutoTransition != "" {
			return true
		}
	}
	return false
}

// HasMediaNodes reports whether any node carries a media payload.
func HasMediaNodes(nodes []*Node) bool {
	for _, n := range nodes {
		if n.Kind.Media() {
			return true
		}
	}
	return false
}

// HasLocationFeatures reports whether any node sends a location or any
// button requests one.
func HasLocationFeatures(nodes []*Node) bool {
	for _, n := range nodes {
		if n.Kind == KindLocation {
			return true
		}
		for _, b := range allButtons(n) {
			if b.RequestLocation || b.Action == ActionLocation {
				return true
			}
		}
	}
	return false
}

// HasContactFeatures reports whether any node sends a contact or any
// button requests one.
func HasContactFeatures(nodes []*Node) bool {
	for _, n := range nodes {
		if n.Kind == KindContact {
			return true
		}
		for _, b := range allButtons(n) {
			if b.RequestContact || b.Action == ActionContact {
				return true
			}
		}
	}
	return false
}

// HasConditionalButtons reports whether any conditional-message rule
// carries buttons.
func HasConditionalButtons(nodes []*Node) bool {
	for _, n := range nodes {
		for _, r := range n.Spec.Common().Rules {
			if len(r.Buttons) > 0 {
				return true
			}
		}
	}
	return false
}

// HasInlineButtons reports whether any node renders an inline
// keyboard.
func HasInlineButtons(nodes []*Node) bool {
	for _, n := range nodes {
		c := n.Spec.Common()
		if c.Keyboard == KeyboardInline && len(c.Buttons) > 0 {
			return true
		}
		for _, r := range c.Rules {
			if r.Keyboard == KeyboardInline && len(r.Buttons) > 0 {
				return true
			}
		}
	}
	return false
}

// HasInputCollection reports whether any node collects user input.
func HasInputCollection(nodes []*Node) bool {
	for _, n := range nodes {
		if n.Spec.Common().Input != nil {
			return true
		}
	}
	return false
}

// HasBroadcasts reports whether any broadcast node exists.
func HasBroadcasts(nodes []*Node) bool {
	for _, n := range nodes {
		if n.Kind == KindBroadcast {
			return true
		}
	}
	return false
}

// HasAdminActions reports whether any admin or broadcast node exists;
// both require the permission check helper.
func HasAdminActions(nodes []*Node) bool {
	for _, n := range nodes {
		if n.Kind == KindAdmin || n.Kind == KindBroadcast {
			return true
		}
	}
	return false
}

// CollectInputTargetNodes returns the ids of nodes that are the
// destination of an input-collection flow, in node-array order. These
// nodes need a reachable handler even when no button points to them.
func CollectInputTargetNodes(nodes []*Node) []string {
	var out []string
	seen := make(map[string]bool)
	for _, n := range nodes {
		if in := n.Spec.Common().Input; in != nil && in.NextNode != "" && !seen[in.NextNode] {
			seen[in.NextNode] = true
			out = append(out, in.NextNode)
		}
	}
	return out
}

// CollectConditionalMessageButtons returns the target node ids that
// are referenced only from inside conditional-message rules. A naive
// top-level button scan misses them, yet they still need handlers and
// dispatch entries.
func CollectConditionalMessageButtons(nodes []*Node) []string {
	topLevel := make(map[string]bool)
	for _, n := range nodes {
		for _, b := range n.Spec.Common().Buttons {
			if b.Action == ActionGoto && b.Target != "" {
				topLevel[b.Target] = true
			}
		}
	}
	var out []string
	seen := make(map[string]bool)
	for _, n := range nodes {
		for _, r := range n.Spec.Common().Rules {
			for _, b := range r.Buttons {
				if b.Action == ActionGoto && b.Target != "" && !topLevel[b.Target] && !seen[b.Target] {
					seen[b.Target] = true
					out = append(out, b.Target)
				}
			}
		}
	}
	return out
}

// IdentifyNodesRequiringMultiSelectLogic returns the nodes with
// multi-select enabled, in node-array order. They drive generation of
// the shared multi-select dispatcher and the per-node completion
// blocks.
func IdentifyNodesRequiringMultiSelectLogic(nodes []*Node) []*Node {
	var out []*Node
	for _, n := range nodes {
		if n.Kind == KindMultiSelect {
			out = append(out, n)
		}
	}
	return out
}

var placeholderRe = regexp.MustCompile(`\{([a-zA-Z_][a-zA-Z0-9_]*)\}`)

// CollectVariables discovers every variable name used by the project:
// {name} placeholders in text fields, input variables and multi-select
// variables. Names are returned sorted for deterministic output.
func CollectVariables(nodes []*Node) []string {
	seen := make(map[string]bool)
	scan := func(text string) {
		for _, m := range placeholderRe.FindAllStringSubmatch(text, -1) {
			seen[m[1]] = true
		}
	}
	for _, n := range nodes {
		c := n.Spec.Common()
		scan(c.Text)
		for _, b := range allButtons(n) {
			scan(b.Text)
		}
		for _, r := range c.Rules {
			scan(r.Text)
		}
		if c.Input != nil {
			seen[c.Input.Variable] = true
		}
		if ms, ok := n.Spec.(*MultiSelectSpec); ok {
			seen[ms.Variable] = true
		}
	}
	out := make([]string, 0, len(seen))
	for v := range seen {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// UnreachableNodes returns the ids of nodes no button target, rule
// button target, input next-node, multi-select target, auto transition
// or recorded connection leads to. Start and command nodes are always
// reachable through their triggers. Dead nodes still get handlers;
// they are only flagged in the generation report.
func UnreachableNodes(nodes []*Node, conns []*Connection) []string {
	reached := make(map[string]bool)
	for _, r := range CollectReferences(nodes) {
		reached[r.Target] = true
	}
	for _, c := range conns {
		reached[c.Target] = true
	}
	var out []string
	for _, n := range nodes {
		switch n.Spec.(type) {
		case *StartSpec, *CommandSpec:
			continue
		}
		if len(n.Synonyms()) > 0 {
			continue
		}
		if !reached[n.ID] {
			out = append(out, n.ID)
		}
	}
	return out
}

func allButtons(n *Node) []*Button {
	c := n.Spec.Common()
	out := make([]*Button, 0, len(c.Buttons))
	out = append(out, c.Buttons...)
	for _, r := range c.Rules {
		out = append(out, r.Buttons...)
	}
	return out
}
