package gen

import "fmt"

// Keyboard builders emit the markup-construction code for a node's
// response. Reply buttons dispatch through text triggers registered by
// the assembler; inline buttons carry callback tokens resolved through
// the callback dispatch table.

// optimalColumns picks the keyboard column count: one column for small
// button sets, two above the threshold. A configured override wins.
func (g *Graph) optimalColumns(buttons int) int {
	if g.KeyboardColumns > 0 {
		return g.KeyboardColumns
	}
	if buttons > g.ColumnThreshold {
		return 2
	}
	return 1
}

// targetToken resolves a goto target to its callback token. Targets
// that do not exist in the snapshot get a stable token of their own so
// the dispatcher can route them to the fallback handler.
func (g *Graph) targetToken(target string) string {
	if n := g.Node(target); n != nil {
		return n.Token()
	}
	if g.extTokens == nil {
		g.extTokens = make(map[string]string)
	}
	if tok, ok := g.extTokens[target]; ok {
		return tok
	}
	base := "lost"
	if target != "" {
		base = tokenTail(Identifier(target), callbackTokenMax)
	}
	tok := g.tokens.claim(base)
	g.extTokens[target] = tok
	return tok
}

// buttonText renders a button caption, routing through the variable
// substitution helper when the caption contains placeholders.
func buttonText(f *Fragment, text string) string {
	if placeholderRe.MatchString(text) {
		f.Require(HelperReplaceVariables)
		return fmt.Sprintf("replace_variables_in_text(%s, user_id)", StringLiteral(text))
	}
	return StringLiteral(text)
}

// emitReplyKeyboard emits a ReplyKeyboardMarkup assignment for the
// given buttons into varName at the given depth.
func (g *Graph) emitReplyKeyboard(f *Fragment, depth int, varName string, c *Common, buttons []*Button) {
	cols := g.optimalColumns(len(buttons))
	f.Atf(depth, "%s = ReplyKeyboardMarkup(", varName)
	f.At(depth+1, "keyboard=[")
	for row := 0; row < len(buttons); row += cols {
		end := row + cols
		if end > len(buttons) {
			end = len(buttons)
		}
		f.At(depth+2, "[")
		for _, b := range buttons[row:end] {
			args := fmt.Sprintf("text=%s", buttonText(f, b.Text))
			if b.RequestContact || b.Action == ActionContact {
				args += ", request_contact=True"
			}
			if b.RequestLocation || b.Action == ActionLocation {
				args += ", request_location=True"
			}
			f.Atf(depth+3, "KeyboardButton(%s),", args)
		}
		f.At(depth+2, "],")
	}
	f.At(depth+1, "],")
	f.Atf(depth+1, "resize_keyboard=%s,", BoolLiteral(c.ResizeKeyboard))
	f.Atf(depth+1, "one_time_keyboard=%s,", BoolLiteral(c.OneTimeKeyboard))
	f.At(depth, ")")
}

// emitInlineKeyboard emits an InlineKeyboardMarkup assignment. Goto
// buttons encode the target node token in their callback data; the
// token-to-handler mapping stays injective within one program.
func (g *Graph) emitInlineKeyboard(f *Fragment, depth int, varName string, owner *Node, buttons []*Button) {
	cols := g.optimalColumns(len(buttons))
	f.Atf(depth, "%s = InlineKeyboardMarkup(", varName)
	f.At(depth+1, "inline_keyboard=[")
	for row := 0; row < len(buttons); row += cols {
		end := row + cols
		if end > len(buttons) {
			end = len(buttons)
		}
		f.At(depth+2, "[")
		for _, b := range buttons[row:end] {
			f.Atf(depth+3, "InlineKeyboardButton(%s),", g.inlineButtonArgs(f, owner, b))
		}
		f.At(depth+2, "],")
	}
	f.At(depth+1, "],")
	f.At(depth, ")")
}

func (g *Graph) inlineButtonArgs(f *Fragment, owner *Node, b *Button) string {
	args := fmt.Sprintf("text=%s", buttonText(f, b.Text))
	switch b.Action {
	case ActionURL:
		args += fmt.Sprintf(", url=%s", StringLiteral(b.URL))
	case ActionCommand:
		// Command buttons behave as a jump to the node registering the
		// command; an unknown command routes to the fallback handler.
		target := ""
		if n := g.nodeByCommand(b.Target); n != nil {
			target = n.ID
		}
		args += fmt.Sprintf(", callback_data=%s", StringLiteral("go_"+g.targetToken(target)))
	default:
		token := g.targetToken(b.Target)
		data := "go_" + token
		if b.SkipDataCollection {
			data = "skip_" + token
		}
		if b.HideAfterClick {
			g.recordHideOnClick(data)
		}
		args += fmt.Sprintf(", callback_data=%s", StringLiteral(data))
	}
	return args
}

func (g *Graph) recordHideOnClick(data string) {
	if g.hideSeen == nil {
		g.hideSeen = make(map[string]bool)
	}
	if !g.hideSeen[data] {
		g.hideSeen[data] = true
		g.hideOnClick = append(g.hideOnClick, data)
	}
}

// nodeByCommand returns the node registering the given slash command.
func (g *Graph) nodeByCommand(command string) *Node {
	for _, n := range g.Nodes {
		switch s := n.Spec.(type) {
		case *StartSpec:
			if command == "start" || command == "/start" {
				return n
			}
		case *CommandSpec:
			if command == s.Command || command == "/"+s.Command {
				return n
			}
		}
	}
	return nil
}

// emitKeyboard emits the keyboard assignment for a node response and
// reports whether a keyboard variable was produced.
func (g *Graph) emitKeyboard(f *Fragment, depth int, varName string, owner *Node, kb KeyboardKind, c *Common, buttons []*Button) bool {
	if len(buttons) == 0 {
		return false
	}
	switch kb {
	case KeyboardReply:
		g.emitReplyKeyboard(f, depth, varName, c, buttons)
		return true
	case KeyboardInline:
		g.emitInlineKeyboard(f, depth, varName, owner, buttons)
		return true
	default:
		return false
	}
}
