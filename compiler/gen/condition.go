package gen

import (
	"fmt"
	"sort"
	"strings"
)

// emitConditional emits the conditional-message checks for a node, one
// per rule in priority order. The first matching rule sends its own
// message and keyboard and returns, so evaluation short-circuits;
// falling through all rules reaches the node's default response.
func (g *Graph) emitConditional(f *Fragment, depth int, n *Node, c *Common) {
	rules := make([]*Rule, len(c.Rules))
	copy(rules, c.Rules)
	sort.SliceStable(rules, func(i, j int) bool {
		return rules[i].Priority < rules[j].Priority
	})
	for _, r := range rules {
		g.comment(f, depth, "rule %s (priority %d)", r.ID, r.Priority)
		f.Atf(depth, "if %s:", ruleExpr(f, r))
		markup := "None"
		if g.emitKeyboard(f, depth+1, "keyboard", n, r.Keyboard, c, r.Buttons) {
			markup = "keyboard"
		}
		f.Atf(depth+1, "await message.answer(%s, reply_markup=%s)", textExpr(f, r.Text), markup)
		f.At(depth+1, "return")
	}
}

// ruleExpr renders one rule's predicate over the per-user store.
func ruleExpr(f *Fragment, r *Rule) string {
	f.Require(HelperGetUserData)
	terms := make([]string, 0, len(r.Variables))
	for _, v := range r.Variables {
		var term string
		switch r.Condition {
		case CondDataExists:
			term = fmt.Sprintf("get_user_data(user_id, %s)", StringLiteral(v))
		case CondDataNotExists:
			term = fmt.Sprintf("not get_user_data(user_id, %s)", StringLiteral(v))
		case CondDataEquals:
			term = fmt.Sprintf("get_user_data(user_id, %s) == %s", StringLiteral(v), StringLiteral(r.Expected))
		}
		terms = append(terms, term)
	}
	op := " and "
	if !r.AllOf {
		op = " or "
	}
	return strings.Join(terms, op)
}
