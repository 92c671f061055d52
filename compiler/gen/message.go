package gen

import "fmt"

// fallbackHandler is the shared stub that dangling references resolve
// to. It is emitted once by the assembler when any reference needs it.
const fallbackHandler = "handle_unknown_target"

// handlerRef resolves a target node id to a handler identifier.
// Missing targets resolve to the fallback stub so the program never
// references an undefined symbol.
func (g *Graph) handlerRef(target string) string {
	if n := g.Node(target); n != nil {
		return n.Handler()
	}
	g.needFallback = true
	return fallbackHandler
}

// comment emits an explanatory comment when verbose comments are
// enabled. Commentary only; removing it never changes semantics.
func (g *Graph) comment(f *Fragment, depth int, format string, args ...any) {
	if g.VerboseComments {
		f.Atf(depth, "# "+format, args...)
	}
}

// nodeHandler builds the handler function fragment for one node. The
// switch over the variant types is total: a kind without a generator
// is a structural error, never a silent no-op.
func (g *Graph) nodeHandler(n *Node) (*Fragment, error) {
	f := NewFragment(0)
	g.comment(f, 0, "%s node %s", n.Kind, n.ID)
	f.Atf(0, "async def %s(message: types.Message, user_id: int):", n.Handler())
	f.At(1, "USER_DATA.setdefault(user_id, {})")
	c := n.Spec.Common()
	switch s := n.Spec.(type) {
	case *StartSpec, *CommandSpec, *MessageSpec:
		if len(c.Rules) > 0 {
			g.emitConditional(f, 1, n, c)
		}
		g.emitResponse(f, 1, n, c)
	case *ConditionSpec:
		g.emitConditional(f, 1, n, c)
		// A rule-only node without a default text stays silent when no
		// rule matches.
		if c.Text != "" {
			g.emitResponse(f, 1, n, c)
		}
	case *MediaSpec:
		if len(c.Rules) > 0 {
			g.emitConditional(f, 1, n, c)
		}
		g.emitResponse(f, 1, n, c)
	case *MultiSelectSpec:
		g.emitMultiSelectPrompt(f, 1, n, s)
	case *AdminSpec:
		g.emitAdminAction(f, 1, n, s)
	case *BroadcastSpec:
		g.emitBroadcast(f, 1, n, s)
	default:
		return nil, NewStructuralError(n.ID, n.Kind.String(), "type", "no fragment generator for node type")
	}
	if c.Input != nil {
		g.emitInputSetup(f, 1, n, c.Input)
	}
	g.emitAutoTransition(f, 1, n, c)
	return f, nil
}

// textExpr renders the node text as a runtime expression. Placeholder
// substitution happens at send time; values are only known then.
func textExpr(f *Fragment, text string) string {
	lit := StringLiteral(text)
	if placeholderRe.MatchString(text) {
		f.Require(HelperReplaceVariables)
		return fmt.Sprintf("replace_variables_in_text(%s, user_id)", lit)
	}
	return lit
}

// emitResponse emits the node's default response: text rendering,
// keyboard construction and exactly one outbound send call.
func (g *Graph) emitResponse(f *Fragment, depth int, n *Node, c *Common) {
	markup := "None"
	if g.emitKeyboard(f, depth, "keyboard", n, c.Keyboard, c, c.Buttons) {
		markup = "keyboard"
	} else if c.Keyboard == KeyboardReply && c.OneTimeKeyboard {
		markup = "ReplyKeyboardRemove()"
	}
	g.emitSend(f, depth, n, c.Text, markup)
}

// emitSend emits the single send call for the node's kind.
func (g *Graph) emitSend(f *Fragment, depth int, n *Node, text, markup string) {
	media, ok := n.Spec.(*MediaSpec)
	if !ok {
		f.Atf(depth, "await message.answer(%s, reply_markup=%s)", textExpr(f, text), markup)
		return
	}
	switch media.Media {
	case KindPhoto:
		f.Atf(depth, "await message.answer_photo(photo=%s, caption=%s, reply_markup=%s)",
			StringLiteral(media.FileURL), textExpr(f, text), markup)
	case KindAnimation:
		f.Atf(depth, "await message.answer_animation(animation=%s, caption=%s, reply_markup=%s)",
			StringLiteral(media.FileURL), textExpr(f, text), markup)
	case KindVoice:
		f.Atf(depth, "await message.answer_voice(voice=%s, caption=%s, reply_markup=%s)",
			StringLiteral(media.FileURL), textExpr(f, text), markup)
	case KindSticker:
		f.Atf(depth, "await message.answer_sticker(sticker=%s, reply_markup=%s)",
			StringLiteral(media.FileURL), markup)
	case KindLocation:
		f.Atf(depth, "await message.answer_location(latitude=%s, longitude=%s, reply_markup=%s)",
			floatLiteral(media.Latitude), floatLiteral(media.Longitude), markup)
	case KindContact:
		f.Atf(depth, "await message.answer_contact(phone_number=%s, first_name=%s, reply_markup=%s)",
			StringLiteral(media.Phone), StringLiteral(media.FirstName), markup)
	}
}

func floatLiteral(v float64) string {
	return fmt.Sprintf("%g", v)
}

// emitAutoTransition chains into the target handler after the
// response, optionally delayed.
func (g *Graph) emitAutoTransition(f *Fragment, depth int, n *Node, c *Common) {
	if c.AutoTransition == "" {
		return
	}
	g.comment(f, depth, "auto transition to %s", c.AutoTransition)
	if c.AutoDelay > 0 {
		f.Atf(depth, "await asyncio.sleep(%d)", c.AutoDelay)
	}
	f.Atf(depth, "await %s(message, user_id)", g.handlerRef(c.AutoTransition))
}
