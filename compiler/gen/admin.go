package gen

// emitAdminAction guards the node behind the admin allowlist and
// applies the moderation action to the target recorded in user data.
// Every path sends exactly one message.
func (g *Graph) emitAdminAction(f *Fragment, depth int, n *Node, s *AdminSpec) {
	f.Require(HelperIsAdmin, HelperGetUserData, HelperUpdateUserField)
	errText := s.ErrorText
	if errText == "" {
		errText = "У вас нет прав для выполнения этой команды."
	}
	f.At(depth, "if not is_admin(user_id):")
	f.Atf(depth+1, "await message.answer(%s)", StringLiteral(errText))
	f.At(depth+1, "return")
	f.At(depth, `target = get_user_data(user_id, "target_user_id")`)
	f.At(depth, "if not target:")
	f.At(depth+1, `await message.answer("Сначала укажите пользователя.")`)
	f.At(depth+1, "return")
	g.comment(f, depth, "admin action: %s", s.Action)
	switch s.Action {
	case AdminBan:
		f.At(depth, `await update_user_field(target, "banned", 1)`)
	case AdminUnban:
		f.At(depth, `await update_user_field(target, "banned", 0)`)
	case AdminPromote:
		f.At(depth, `await update_user_field(target, "role", "admin")`)
	case AdminDemote:
		f.At(depth, `await update_user_field(target, "role", "user")`)
	}
	g.emitResponse(f, depth, n, n.Spec.Common())
}

// emitBroadcast fans the node text out to every known user. Per-user
// failures (blocked bot, deactivated account) are logged and skipped so
// one bad recipient cannot abort the run; the sender gets a summary.
func (g *Graph) emitBroadcast(f *Fragment, depth int, n *Node, s *BroadcastSpec) {
	f.Require(HelperIsAdmin)
	errText := s.ErrorText
	if errText == "" {
		errText = "У вас нет прав для выполнения этой команды."
	}
	f.At(depth, "if not is_admin(user_id):")
	f.Atf(depth+1, "await message.answer(%s)", StringLiteral(errText))
	f.At(depth+1, "return")
	f.At(depth, "sent = 0")
	f.At(depth, "failed = 0")
	if s.AdminsOnly {
		f.At(depth, "for recipient in sorted(ADMIN_IDS):")
	} else {
		f.Require(HelperAllUserIDs)
		f.At(depth, "for recipient in await get_all_user_ids():")
	}
	f.At(depth+1, "try:")
	f.Atf(depth+2, "await bot.send_message(recipient, %s)", textExpr(f, s.Response.Text))
	f.At(depth+2, "sent += 1")
	f.At(depth+1, "except Exception as exc:")
	f.At(depth+2, `logging.warning("broadcast to %s failed: %s", recipient, exc)`)
	f.At(depth+2, "failed += 1")
	f.At(depth, `await message.answer(f"Рассылка завершена: отправлено {sent}, ошибок {failed}.")`)
}
