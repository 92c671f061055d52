package gen

// Multi-select state machine: Idle until the prompt renders, Selecting
// while toggle callbacks flip options, Completed when the Done callback
// persists the joined selection, clears transient state and advances.
// Toggles are idempotent: re-selecting an option removes it.

const defaultDoneText = "Готово"

// multiSelectOptions returns the option captions of a multi-select
// node: the selection-action buttons, or every button when the editor
// left actions untagged.
func multiSelectOptions(s *MultiSelectSpec) []string {
	var out []string
	for _, b := range s.Response.Buttons {
		if b.Action == ActionSelection {
			out = append(out, b.Text)
		}
	}
	if len(out) == 0 {
		for _, b := range s.Response.Buttons {
			out = append(out, b.Text)
		}
	}
	return out
}

func multiSelectDone(s *MultiSelectSpec) string {
	if s.DoneText != "" {
		return s.DoneText
	}
	return defaultDoneText
}

// emitMultiSelectPrompt emits the prompt response: one send carrying
// the toggle keyboard built from the node's registered options.
func (g *Graph) emitMultiSelectPrompt(f *Fragment, depth int, n *Node, s *MultiSelectSpec) {
	f.Require(HelperMsKeyboard)
	g.comment(f, depth, "multi-select prompt for variable %s", s.Variable)
	f.Atf(depth, "options = MULTI_SELECT_META[%s][\"options\"]", StringLiteral(n.Token()))
	f.Atf(depth, "selected = MULTI_SELECT.setdefault(user_id, {}).setdefault(%s, [])", StringLiteral(n.Token()))
	f.Atf(depth, "await message.answer(%s, reply_markup=build_multi_select_keyboard(%s, options, selected, %s))",
		textExpr(f, s.Response.Text), StringLiteral(n.Token()), StringLiteral(multiSelectDone(s)))
}

// multiSelectMeta emits the per-node metadata table consumed by the
// shared dispatcher: options, target variable, persistence flag, done
// caption and the completion target token.
func (g *Graph) multiSelectMeta(nodes []*Node) *Fragment {
	f := NewFragment(0)
	f.At(0, "MULTI_SELECT_META = {")
	for _, n := range nodes {
		s := n.Spec.(*MultiSelectSpec)
		f.Atf(1, "%s: {", StringLiteral(n.Token()))
		f.At(2, `"options": [`)
		for _, opt := range multiSelectOptions(s) {
			f.Atf(3, "%s,", StringLiteral(opt))
		}
		f.At(2, "],")
		f.Atf(2, `"variable": %s,`, StringLiteral(s.Variable))
		f.Atf(2, `"save": %s,`, BoolLiteral(s.Save))
		f.Atf(2, `"done_text": %s,`, StringLiteral(multiSelectDone(s)))
		if s.NextNode != "" {
			f.Atf(2, `"next_token": %s,`, StringLiteral(g.targetToken(s.NextNode)))
		} else {
			f.At(2, `"next_token": None,`)
		}
		f.At(1, "},")
	}
	f.At(0, "}")
	return f
}

// multiSelectProcessor emits the shared completion/toggle routine.
// Both legacy and current callback formats arrive here already
// normalized into (token, index, done).
func (g *Graph) multiSelectProcessor() *Fragment {
	f := NewFragment(0)
	f.Require(HelperMsKeyboard, HelperSaveUserData)
	f.At(0, "async def process_multi_select(callback: types.CallbackQuery, token, index, done):")
	f.At(1, "user_id = callback.from_user.id")
	f.At(1, "meta = MULTI_SELECT_META.get(token)")
	f.At(1, "if meta is None:")
	f.At(2, `logging.warning("unknown multi-select token: %s", token)`)
	f.At(2, "return")
	f.At(1, `options = meta["options"]`)
	f.At(1, "selections = MULTI_SELECT.setdefault(user_id, {}).setdefault(token, [])")
	f.At(1, "if done:")
	g.comment(f, 2, "persist first, clear transient state after, transition last")
	f.At(2, `value = ", ".join(selections)`)
	f.At(2, `if meta["save"]:`)
	f.At(3, `await save_user_data(user_id, meta["variable"], value)`)
	f.At(2, "else:")
	f.At(3, `USER_DATA.setdefault(user_id, {})[meta["variable"]] = value`)
	f.At(2, "MULTI_SELECT.get(user_id, {}).pop(token, None)")
	f.At(2, `handler = CALLBACK_HANDLERS.get(meta["next_token"])`)
	f.At(2, "if handler:")
	f.At(3, "await handler(callback.message, user_id)")
	f.At(2, "return")
	f.At(1, "if index is None or index >= len(options):")
	f.At(2, `logging.warning("ignoring malformed multi-select callback: %s", callback.data)`)
	f.At(2, "return")
	f.At(1, "option = options[index]")
	f.At(1, "if option in selections:")
	f.At(2, "selections.remove(option)")
	f.At(1, "else:")
	f.At(2, "selections.append(option)")
	f.At(1, "await callback.message.edit_reply_markup(")
	f.At(2, `reply_markup=build_multi_select_keyboard(token, options, selections, meta["done_text"]),`)
	f.At(1, ")")
	return f
}
