package gen

import (
	"errors"
	"sort"
	"strings"
)

// The assembler stitches fragments into the final program. Section
// order is fixed: header, imports, setup, helper pool, node handlers,
// fallback stub, multi-select tables, callback dispatch, trigger
// registrations, input consumer, run loop. Two runs over the same graph
// and config produce identical bytes apart from the timestamp comment.

// assemble renders the complete program.
func (g *Graph) assemble() (string, error) {
	var errs []error
	handlers := make([]*Fragment, 0, len(g.Nodes))
	for _, n := range g.Nodes {
		hf, err := g.nodeHandler(n)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		handlers = append(handlers, hf)
	}
	if len(errs) > 0 {
		return "", errors.Join(errs...)
	}

	msNodes := IdentifyNodesRequiringMultiSelectLogic(g.Nodes)
	var msMeta, msProc *Fragment
	if len(msNodes) > 0 {
		msMeta = g.multiSelectMeta(msNodes)
		msProc = g.multiSelectProcessor()
	}

	triggers := g.triggerSection()
	routes := g.replyRoutes()
	var consumer *Fragment
	if HasInputCollection(g.Nodes) {
		consumer = g.inputConsumer()
	}

	// Dangling targets own a token in the dispatch table; all of them
	// resolve to the shared fallback stub.
	if len(g.extTokens) > 0 {
		g.needFallback = true
	}
	var fallback *Fragment
	if g.needFallback {
		fallback = g.fallbackSection()
	}
	// The dispatch table appears only alongside a consumer: the callback
	// dispatcher, the input consumer or the multi-select processor. A
	// plain graph with no buttons carries no table at all.
	var table, dispatcher *Fragment
	if HasInlineButtons(g.Nodes) || len(msNodes) > 0 {
		dispatcher = g.callbackDispatcher(len(msNodes) > 0)
	}
	if dispatcher != nil || consumer != nil || len(g.extTokens) > 0 {
		table = g.callbackTable()
	}
	run := g.runSection()

	// Helper closure over every fragment, rendered once in pool order.
	var requested []Helper
	gather := func(frags ...*Fragment) {
		for _, f := range frags {
			if f != nil {
				requested = append(requested, f.Helpers()...)
			}
		}
	}
	gather(handlers...)
	gather(msMeta, msProc, table, dispatcher, triggers, routes, consumer, run)
	helpers := requiredHelpers(requested)
	helperFrag := renderHelpers(g.Config, helpers)

	sections := []*Fragment{
		g.headerSection(),
		g.importSection(helpers),
		g.setupSection(),
		helperFrag,
	}
	sections = append(sections, handlers...)
	sections = append(sections, fallback, msMeta, table, msProc, dispatcher, triggers, routes, consumer, run)

	parts := make([]string, 0, len(sections))
	for _, s := range sections {
		if s != nil && !s.Empty() {
			parts = append(parts, s.String())
		}
	}
	return strings.Join(parts, "\n\n\n") + "\n", nil
}

func (g *Graph) headerSection() *Fragment {
	f := NewFragment(0)
	f.At(0, "#!/usr/bin/env python3")
	f.At(0, "# -*- coding: utf-8 -*-")
	f.Atf(0, `"""%s`, g.BotName)
	f.Blank()
	if g.ProjectID != "" {
		f.Atf(0, "Generated from project %s. Edit the project, not this file.", g.ProjectID)
	} else {
		f.At(0, "Generated bot program. Edit the project, not this file.")
	}
	f.At(0, `"""`)
	if g.FeatureEnabled(FeatureTimestamp.Name) {
		f.Atf(0, "# Generated at: %s", g.Clock().UTC().Format("2006-01-02T15:04:05Z"))
	}
	return f
}

func (g *Graph) importSection(helpers []Helper) *Fragment {
	has := make(map[Helper]bool, len(helpers))
	for _, h := range helpers {
		has[h] = true
	}
	f := NewFragment(0)
	f.At(0, "import asyncio")
	f.At(0, "import logging")
	f.At(0, "import os")
	if has[HelperValidateInput] {
		f.At(0, "import re")
	}
	if has[HelperMoscowTime] {
		f.At(0, "from datetime import datetime, timedelta, timezone")
	}
	f.Blank()
	if g.Persistence {
		f.At(0, "import aiosqlite")
	}
	f.At(0, "from aiogram import Bot, Dispatcher, F, types")
	f.At(0, "from aiogram.filters import Command, CommandStart")
	f.At(0, "from aiogram.types import (")
	f.At(1, "BotCommand,")
	f.At(1, "InlineKeyboardButton,")
	f.At(1, "InlineKeyboardMarkup,")
	f.At(1, "KeyboardButton,")
	f.At(1, "ReplyKeyboardMarkup,")
	f.At(1, "ReplyKeyboardRemove,")
	f.At(0, ")")
	if g.FeatureEnabled(FeatureDotenv.Name) {
		f.At(0, "from dotenv import load_dotenv")
	}
	return f
}

func (g *Graph) setupSection() *Fragment {
	f := NewFragment(0)
	if g.FeatureEnabled(FeatureLoggingSetup.Name) {
		f.At(0, "logging.basicConfig(")
		f.At(1, "level=logging.INFO,")
		f.At(1, `format="%(asctime)s - %(name)s - %(levelname)s - %(message)s",`)
		f.At(0, ")")
		f.Blank()
	}
	if g.FeatureEnabled(FeatureDotenv.Name) {
		f.At(0, "load_dotenv()")
		f.Blank()
	}
	f.At(0, `BOT_TOKEN = os.getenv("BOT_TOKEN", "")`)
	f.At(0, `ADMIN_IDS = {int(x) for x in os.getenv("ADMIN_IDS", "").split(",") if x.strip().isdigit()}`)
	if g.Persistence {
		f.At(0, `DB_PATH = os.getenv("DB_PATH", "bot.db")`)
	}
	f.Blank()
	g.comment(f, 0, "transient per-user state")
	f.At(0, "USER_DATA = {}")
	f.At(0, "WAITING_INPUT = {}")
	f.At(0, "MULTI_SELECT = {}")
	f.Blank()
	f.At(0, "bot = Bot(token=BOT_TOKEN)")
	f.At(0, "dp = Dispatcher()")
	return f
}

// fallbackSection emits the stub every dangling reference resolves to,
// so the program never calls an undefined handler.
func (g *Graph) fallbackSection() *Fragment {
	f := NewFragment(0)
	f.Atf(0, "async def %s(message: types.Message, user_id: int):", fallbackHandler)
	f.At(1, `logging.warning("transition to an unknown node requested")`)
	f.At(1, `await message.answer("Раздел недоступен.")`)
	return f
}

// callbackTable emits the token-to-handler dispatch table. Dangling
// target tokens map to the fallback stub, sorted for stable output.
func (g *Graph) callbackTable() *Fragment {
	f := NewFragment(0)
	f.At(0, "CALLBACK_HANDLERS = {")
	for _, n := range g.Nodes {
		f.Atf(1, "%s: %s,", StringLiteral(n.Token()), n.Handler())
	}
	ext := make([]string, 0, len(g.extTokens))
	for _, tok := range g.extTokens {
		ext = append(ext, tok)
	}
	sort.Strings(ext)
	for _, tok := range ext {
		f.Atf(1, "%s: %s,", StringLiteral(tok), fallbackHandler)
	}
	f.At(0, "}")
	if len(g.hideOnClick) > 0 {
		f.Blank()
		f.At(0, "HIDE_AFTER_CLICK = {")
		for _, data := range g.hideOnClick {
			f.Atf(1, "%s,", StringLiteral(data))
		}
		f.At(0, "}")
	}
	return f
}

// callbackDispatcher emits the single callback-query entry point. The
// multi-select branch runs first; go_/skip_ prefixes resolve through
// the dispatch table; anything else is logged and ignored.
func (g *Graph) callbackDispatcher(multiSelect bool) *Fragment {
	f := NewFragment(0)
	f.At(0, "@dp.callback_query()")
	f.At(0, "async def handle_callback(callback: types.CallbackQuery):")
	f.At(1, `data = callback.data or ""`)
	f.At(1, "user_id = callback.from_user.id")
	f.At(1, "await callback.answer()")
	if multiSelect {
		f.Require(HelperNormalizeMsToken)
		f.At(1, "token, index, done = normalize_multi_select_token(data)")
		f.At(1, "if token is not None:")
		f.At(2, "await process_multi_select(callback, token, index, done)")
		f.At(2, "return")
	}
	hide := func() {
		if len(g.hideOnClick) == 0 {
			return
		}
		f.At(2, "if data in HIDE_AFTER_CLICK:")
		f.At(3, "try:")
		f.At(4, "await callback.message.edit_reply_markup(reply_markup=None)")
		f.At(3, "except Exception:")
		f.At(4, "pass")
	}
	f.At(1, `if data.startswith("skip_"):`)
	g.comment(f, 2, "skip discards the pending input without persisting")
	f.At(2, "WAITING_INPUT.pop(user_id, None)")
	hide()
	f.At(2, `handler = CALLBACK_HANDLERS.get(data[len("skip_"):])`)
	f.At(2, "if handler:")
	f.At(3, "await handler(callback.message, user_id)")
	f.At(2, "return")
	f.At(1, `if data.startswith("go_"):`)
	hide()
	f.At(2, `handler = CALLBACK_HANDLERS.get(data[len("go_"):])`)
	f.At(2, "if handler:")
	f.At(3, "await handler(callback.message, user_id)")
	f.At(2, "return")
	f.At(1, `logging.warning("unrecognized callback data: %s", data)`)
	return f
}

// triggerSection registers the command and synonym entry points. The
// wrappers record the user before delegating to the node handler.
func (g *Graph) triggerSection() *Fragment {
	f := NewFragment(0)
	first := true
	sep := func() {
		if !first {
			f.Blank()
			f.Blank()
		}
		first = false
	}
	for _, n := range g.CommandNodes() {
		sep()
		f.Require(HelperSaveUserToDB)
		switch s := n.Spec.(type) {
		case *StartSpec:
			f.At(0, "@dp.message(CommandStart())")
			f.Atf(0, "async def %s(message: types.Message):", g.handlers.claim("cmd_start"))
		case *CommandSpec:
			f.Atf(0, "@dp.message(Command(%s))", StringLiteral(s.Command))
			f.Atf(0, "async def %s(message: types.Message):", g.handlers.claim("cmd_"+Identifier(s.Command)))
		}
		f.At(1, "await save_user_to_db(message.from_user)")
		f.Atf(1, "await %s(message, message.from_user.id)", n.Handler())
	}
	for _, n := range g.Nodes {
		syns := n.Synonyms()
		if len(syns) == 0 {
			continue
		}
		quoted := make([]string, 0, len(syns))
		for _, s := range syns {
			t := strings.ToLower(strings.TrimSpace(s))
			if t != "" {
				quoted = append(quoted, StringLiteral(t))
			}
		}
		if len(quoted) == 0 {
			continue
		}
		sep()
		f.Require(HelperSaveUserToDB)
		f.Atf(0, "@dp.message(F.text.lower().in_({%s}))", strings.Join(quoted, ", "))
		f.Atf(0, "async def %s(message: types.Message):", g.handlers.claim("text_"+Identifier(n.ID)))
		f.At(1, "await save_user_to_db(message.from_user)")
		f.Atf(1, "await %s(message, message.from_user.id)", n.Handler())
	}
	return f
}

// replyRoutes maps reply-button captions to their target handlers.
// Captions with runtime placeholders cannot be matched statically and
// are skipped; first registration of a caption wins.
func (g *Graph) replyRoutes() *Fragment {
	type route struct {
		caption string
		handler string
	}
	var routes []route
	seen := make(map[string]bool)
	collect := func(kb KeyboardKind, buttons []*Button) {
		if kb != KeyboardReply {
			return
		}
		for _, b := range buttons {
			if b.Text == "" || placeholderRe.MatchString(b.Text) || seen[b.Text] {
				continue
			}
			var target string
			switch b.Action {
			case ActionGoto, ActionDefault:
				if b.Action == ActionDefault && b.Target == "" {
					continue
				}
				target = b.Target
			case ActionCommand:
				if cn := g.nodeByCommand(b.Target); cn != nil {
					target = cn.ID
				}
			default:
				continue
			}
			seen[b.Text] = true
			routes = append(routes, route{caption: b.Text, handler: g.handlerRef(target)})
		}
	}
	for _, n := range g.Nodes {
		c := n.Spec.Common()
		collect(c.Keyboard, c.Buttons)
		for _, r := range c.Rules {
			collect(r.Keyboard, r.Buttons)
		}
	}
	if len(routes) == 0 {
		return nil
	}
	f := NewFragment(0)
	f.Require(HelperSaveUserToDB)
	f.At(0, "REPLY_BUTTON_ROUTES = {")
	for _, r := range routes {
		f.Atf(1, "%s: %s,", StringLiteral(r.caption), r.handler)
	}
	f.At(0, "}")
	f.Blank()
	f.Blank()
	f.At(0, "@dp.message(F.text.in_(REPLY_BUTTON_ROUTES))")
	f.At(0, "async def handle_reply_button(message: types.Message):")
	f.At(1, "await save_user_to_db(message.from_user)")
	f.At(1, "handler = REPLY_BUTTON_ROUTES.get(message.text)")
	f.At(1, "if handler:")
	f.At(2, "await handler(message, message.from_user.id)")
	return f
}

// runSection emits the entry point: database bootstrap, command menu
// registration and the polling loop with session cleanup on shutdown.
func (g *Graph) runSection() *Fragment {
	f := NewFragment(0)
	f.At(0, "async def main():")
	if g.Persistence {
		f.Require(HelperInitDatabase)
		f.At(1, "await init_database()")
	}
	var menu []*Node
	for _, n := range g.CommandNodes() {
		switch s := n.Spec.(type) {
		case *StartSpec:
			if s.ShowInMenu {
				menu = append(menu, n)
			}
		case *CommandSpec:
			if s.ShowInMenu {
				menu = append(menu, n)
			}
		}
	}
	if len(menu) > 0 {
		f.At(1, "await bot.set_my_commands([")
		for _, n := range menu {
			cmd, desc := menuEntry(n)
			f.Atf(2, "BotCommand(command=%s, description=%s),", StringLiteral(cmd), StringLiteral(desc))
		}
		f.At(1, "])")
	}
	f.At(1, `logging.info("bot started")`)
	f.At(1, "try:")
	f.At(2, "await dp.start_polling(bot)")
	f.At(1, "finally:")
	f.At(2, "await bot.session.close()")
	f.Blank()
	f.Blank()
	f.At(0, `if __name__ == "__main__":`)
	f.At(1, "try:")
	f.At(2, "asyncio.run(main())")
	f.At(1, "except (KeyboardInterrupt, SystemExit):")
	f.At(2, `logging.info("bot stopped")`)
	return f
}

// menuEntry returns the command and description shown in the Telegram
// command menu.
func menuEntry(n *Node) (string, string) {
	switch s := n.Spec.(type) {
	case *StartSpec:
		desc := s.Description
		if desc == "" {
			desc = "Запустить бота"
		}
		return "start", desc
	case *CommandSpec:
		desc := s.Description
		if desc == "" {
			desc = "/" + s.Command
		}
		return s.Command, desc
	}
	return "", ""
}
