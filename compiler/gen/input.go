package gen

// Input collection spans two fragments: the setup block attached to
// the prompting node's handler, and the shared consumer registered by
// the assembler as the last message handler. The consumer validates,
// persists when requested, clears the waiting record and only then
// transitions, so a failed durable write leaves the user re-promptable.

// emitInputSetup records the waiting-for-input state for the user.
func (g *Graph) emitInputSetup(f *Fragment, depth int, n *Node, in *InputConfig) {
	f.Require(HelperSetWaitingInput)
	g.comment(f, depth, "collect %s from the next message", in.Variable)
	f.At(depth, "set_waiting_input(user_id, {")
	f.Atf(depth+1, `"variable": %s,`, StringLiteral(in.Variable))
	f.Atf(depth+1, `"validation": %s,`, StringLiteral(in.Validation.String()))
	f.Atf(depth+1, `"min_length": %s,`, IntLiteral(in.MinLength))
	f.Atf(depth+1, `"max_length": %s,`, IntLiteral(in.MaxLength))
	f.Atf(depth+1, `"timeout": %s,`, IntLiteral(in.Timeout))
	f.Atf(depth+1, `"required": %s,`, BoolLiteral(in.Required))
	f.Atf(depth+1, `"allow_skip": %s,`, BoolLiteral(in.AllowSkip))
	f.Atf(depth+1, `"save": %s,`, BoolLiteral(in.Save))
	f.Atf(depth+1, `"node_id": %s,`, StringLiteral(n.ID))
	if in.NextNode != "" {
		f.Atf(depth+1, `"next_token": %s,`, StringLiteral(g.targetToken(in.NextNode)))
	} else {
		f.At(depth+1, `"next_token": None,`)
	}
	if in.RetryText != "" {
		f.Atf(depth+1, `"retry_text": %s,`, StringLiteral(in.RetryText))
	}
	f.At(depth, "})")
}

// inputConsumer builds the shared catch-all message handler that
// consumes waiting-for-input records. Registered after every other
// message trigger so explicit commands and synonyms win.
func (g *Graph) inputConsumer() *Fragment {
	f := NewFragment(0)
	f.Require(HelperValidateInput, HelperSaveUserData)
	f.At(0, "@dp.message()")
	f.At(0, "async def handle_user_input(message: types.Message):")
	f.At(1, "user_id = message.from_user.id")
	f.At(1, "record = WAITING_INPUT.get(user_id)")
	f.At(1, "if record is None:")
	f.At(2, "return")
	g.comment(f, 1, "expired records re-prompt instead of consuming stale input")
	f.At(1, `expires_at = record.get("expires_at")`)
	f.At(1, "if expires_at and asyncio.get_event_loop().time() > expires_at:")
	f.At(2, "WAITING_INPUT.pop(user_id, None)")
	f.At(2, `await message.answer("Время ожидания истекло, попробуйте ещё раз.")`)
	f.At(2, "return")
	f.At(1, "value = (message.text or \"\").strip()")
	g.comment(f, 1, "an empty message skips an optional question")
	f.At(1, `if not value and record.get("allow_skip"):`)
	f.At(2, "WAITING_INPUT.pop(user_id, None)")
	f.At(2, `handler = CALLBACK_HANDLERS.get(record.get("next_token"))`)
	f.At(2, "if handler:")
	f.At(3, "await handler(message, user_id)")
	f.At(2, "return")
	f.At(1, "error = validate_input(value, record)")
	f.At(1, "if error:")
	f.At(2, `await message.answer(record.get("retry_text") or error)`)
	f.At(2, "return")
	g.comment(f, 1, "persist first, clear the waiting record after, transition last")
	f.At(1, `if record.get("save"):`)
	f.At(2, `await save_user_data(user_id, record["variable"], value)`)
	f.At(1, "else:")
	f.At(2, `USER_DATA.setdefault(user_id, {})[record["variable"]] = value`)
	f.At(1, "WAITING_INPUT.pop(user_id, None)")
	f.At(1, `handler = CALLBACK_HANDLERS.get(record.get("next_token"))`)
	f.At(1, "if handler:")
	f.At(2, "await handler(message, user_id)")
	return f
}
