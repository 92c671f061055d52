package gen

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fedorabakumets/telegram-bot-builder/compiler/load"
)

func TestOptimalColumns(t *testing.T) {
	g := newTestGraph(t, messageNode("m", "x"))
	assert.Equal(t, 1, g.optimalColumns(1))
	assert.Equal(t, 1, g.optimalColumns(2))
	assert.Equal(t, 2, g.optimalColumns(3))

	g.KeyboardColumns = 4
	assert.Equal(t, 4, g.optimalColumns(2))
}

func TestReplyKeyboard(t *testing.T) {
	n := messageNode("m", "menu")
	n.Data.KeyboardType = "reply"
	n.Data.Buttons = []*load.Button{
		{Text: "Каталог", Action: "goto", Target: "cat"},
		{Text: "Телефон", Action: "contact"},
		{Text: "Где я", Action: "location"},
	}
	p := &load.Project{Nodes: []*load.Node{startNode("s", "hi"), n, messageNode("cat", "товары")}}
	p.Connections = []*load.Connection{{Source: "s", Target: "m"}}
	_, prog := generateProgram(t, p)

	assert.Contains(t, prog, "keyboard = ReplyKeyboardMarkup(")
	assert.Contains(t, prog, "request_contact=True")
	assert.Contains(t, prog, "request_location=True")
	assert.Contains(t, prog, "resize_keyboard=True,")
	// The goto caption routes by text through the reply-button table.
	assert.Contains(t, prog, `"Каталог": handle_cat,`)
	assert.Contains(t, prog, "@dp.message(F.text.in_(REPLY_BUTTON_ROUTES))")
	// Contact and location buttons are native, never routed.
	assert.NotContains(t, prog, `"Телефон":`)
}

func TestInlineKeyboardActions(t *testing.T) {
	n := messageNode("m", "menu")
	n.Data.KeyboardType = "inline"
	n.Data.Buttons = []*load.Button{
		{Text: "Сайт", Action: "url", URL: "https://example.com"},
		{Text: "Помощь", Action: "command", Target: "/help"},
		{Text: "Пропустить", Action: "goto", Target: "next", SkipDataCollection: true},
		{Text: "Скрыть", Action: "goto", Target: "next", HideAfterClick: true},
	}
	help := &load.Node{ID: "h", Type: "command", Data: load.NodeData{Command: "help", MessageText: "Справка"}}
	p := &load.Project{Nodes: []*load.Node{startNode("s", "hi"), n, help, messageNode("next", "дальше")}}
	p.Connections = []*load.Connection{{Source: "s", Target: "m"}}
	_, prog := generateProgram(t, p)

	assert.Contains(t, prog, `url="https://example.com"`)
	assert.Contains(t, prog, `callback_data="go_h"`)
	assert.Contains(t, prog, `callback_data="skip_next"`)
	assert.Contains(t, prog, "HIDE_AFTER_CLICK = {")
	assert.Contains(t, prog, `"go_next",`)
	assert.Contains(t, prog, "if data in HIDE_AFTER_CLICK:")
	assert.Contains(t, prog, "await callback.message.edit_reply_markup(reply_markup=None)")
}

func TestHideAfterClickOnSkipButton(t *testing.T) {
	n := messageNode("m", "menu")
	n.Data.KeyboardType = "inline"
	n.Data.Buttons = []*load.Button{
		{Text: "Пропустить", Action: "goto", Target: "next", SkipDataCollection: true, HideAfterClick: true},
	}
	p := &load.Project{Nodes: []*load.Node{startNode("s", "hi"), n, messageNode("next", "дальше")}}
	p.Connections = []*load.Connection{{Source: "s", Target: "m"}}
	_, prog := generateProgram(t, p)

	assert.Contains(t, prog, `"skip_next",`)
	// Both dispatcher branches clear the markup for marked buttons.
	assert.Equal(t, 2, strings.Count(prog, "if data in HIDE_AFTER_CLICK:"))
	skipAt := indexOf(t, prog, `if data.startswith("skip_"):`)
	goAt := indexOf(t, prog, `if data.startswith("go_"):`)
	firstHide := indexOf(t, prog, "if data in HIDE_AFTER_CLICK:")
	assert.Greater(t, firstHide, skipAt)
	assert.Less(t, firstHide, goAt)
}

func TestAutoTransitionDelay(t *testing.T) {
	n := messageNode("m", "wait for it")
	n.Data.AutoTransitionTo = "next"
	n.Data.AutoTransitionDelay = 3
	p := &load.Project{Nodes: []*load.Node{startNode("s", "hi"), n, messageNode("next", "there")}}
	p.Connections = []*load.Connection{{Source: "s", Target: "m"}}
	_, prog := generateProgram(t, p)

	assert.Contains(t, prog, "await asyncio.sleep(3)")
	assert.Contains(t, prog, "await handle_next(message, user_id)")
}
