package gen

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fedorabakumets/telegram-bot-builder/compiler/load"
)

func fixedClock() time.Time {
	return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
}

func generateProgram(t *testing.T, p *load.Project, opts ...Option) (*Result, string) {
	t.Helper()
	opts = append([]Option{WithClock(fixedClock)}, opts...)
	res, err := Generate(p, opts...)
	require.NoError(t, err)
	prog := res.Artifact(ArtifactProgram)
	require.NotNil(t, prog)
	return res, string(prog.Content)
}

func TestGenerateSingleStart(t *testing.T) {
	p := &load.Project{Nodes: []*load.Node{startNode("start-1", "Добро пожаловать!")}}
	res, prog := generateProgram(t, p)

	assert.Contains(t, prog, "async def handle_start_1(message: types.Message, user_id: int):")
	assert.Contains(t, prog, "@dp.message(CommandStart())")
	assert.Contains(t, prog, `await message.answer("Добро пожаловать!", reply_markup=None)`)
	assert.Contains(t, prog, "await dp.start_polling(bot)")
	assert.Contains(t, prog, `BotCommand(command="start"`)
	assert.Empty(t, res.Warnings)
	// No stray sections for features the project never uses.
	assert.NotContains(t, prog, "handle_user_input")
	assert.NotContains(t, prog, "MULTI_SELECT_META")
	assert.NotContains(t, prog, "handle_unknown_target")
	assert.NotContains(t, prog, "CALLBACK_HANDLERS")
}

func TestGenerateReservedHandlerNames(t *testing.T) {
	m := messageNode("menu", "pick")
	m.Data.KeyboardType = "inline"
	m.Data.Buttons = []*load.Button{
		{Text: "A", Action: "goto", Target: "callback"},
		{Text: "B", Action: "goto", Target: "unknown_target"},
		{Text: "C", Action: "goto", Target: "ghost"},
	}
	p := &load.Project{Nodes: []*load.Node{
		startNode("s", "hi"), m, messageNode("callback", "a"), messageNode("unknown_target", "b"),
	}}
	p.Connections = []*load.Connection{{Source: "s", Target: "menu"}}
	_, prog := generateProgram(t, p)

	// Fixed entry points keep their names exactly once; node ids that
	// sanitize to the same identifier get a counter suffix.
	assert.Equal(t, 1, strings.Count(prog, "async def handle_callback("))
	assert.Equal(t, 1, strings.Count(prog, "async def handle_unknown_target("))
	assert.Contains(t, prog, "async def handle_callback_2(message: types.Message, user_id: int):")
	assert.Contains(t, prog, "async def handle_unknown_target_2(message: types.Message, user_id: int):")
	assert.Contains(t, prog, `"callback": handle_callback_2,`)
	assert.Contains(t, prog, `"unknown_target": handle_unknown_target_2,`)
}

func TestGenerateDeterministic(t *testing.T) {
	n := messageNode("menu", "Choose")
	n.Data.KeyboardType = "inline"
	n.Data.Buttons = []*load.Button{
		{Text: "One", Action: "goto", Target: "a"},
		{Text: "Two", Action: "goto", Target: "b"},
	}
	p := &load.Project{Nodes: []*load.Node{startNode("s", "hi"), n, messageNode("a", "1"), messageNode("b", "2")}}

	_, first := generateProgram(t, p, WithPersistence(true))
	_, second := generateProgram(t, p, WithPersistence(true))
	assert.Equal(t, first, second)
}

func TestGenerateInlineGoto(t *testing.T) {
	a := messageNode("node-a", "Pick one")
	a.Data.KeyboardType = "inline"
	a.Data.Buttons = []*load.Button{{Text: "To B", Action: "goto", Target: "node-b"}}
	p := &load.Project{Nodes: []*load.Node{startNode("s", "hi"), a, messageNode("node-b", "You made it")}}
	p.Connections = []*load.Connection{{Source: "s", Target: "node-a"}}
	res, prog := generateProgram(t, p)

	assert.Contains(t, prog, `callback_data="go_node_b"`)
	assert.Contains(t, prog, `"node_b": handle_node_b,`)
	assert.Contains(t, prog, "@dp.callback_query()")
	assert.Contains(t, prog, `handler = CALLBACK_HANDLERS.get(data[len("go_"):])`)
	assert.Empty(t, res.Warnings)
}

func TestGenerateMultiSelect(t *testing.T) {
	ms := &load.Node{ID: "ms-1", Type: "multi_select", Data: load.NodeData{
		MessageText:          "Choose your interests",
		MultiSelectVariable:  "interests",
		ContinueButtonTarget: "done-node",
		DoneButtonText:       "Готово",
		SaveToDatabase:       true,
		KeyboardType:         "inline",
		Buttons: []*load.Button{
			{Text: "Спорт", Action: "selection"},
			{Text: "Музыка", Action: "selection"},
		},
	}}
	p := &load.Project{Nodes: []*load.Node{startNode("s", "hi"), ms, messageNode("done-node", "Спасибо")}}
	_, prog := generateProgram(t, p, WithPersistence(true))

	assert.Contains(t, prog, "MULTI_SELECT_META = {")
	assert.Contains(t, prog, `"Спорт",`)
	assert.Contains(t, prog, `"variable": "interests",`)
	assert.Contains(t, prog, `"next_token": "done_node",`)
	assert.Contains(t, prog, "def build_multi_select_keyboard(")
	assert.Contains(t, prog, "def normalize_multi_select_token(")
	assert.Contains(t, prog, "async def process_multi_select(")
	assert.Contains(t, prog, `value = ", ".join(selections)`)
	// Persist, clear, transition order inside the done branch.
	saveAt := indexOf(t, prog, "await save_user_data(user_id, meta[\"variable\"], value)")
	clearAt := indexOf(t, prog, "MULTI_SELECT.get(user_id, {}).pop(token, None)")
	advanceAt := indexOf(t, prog, "handler = CALLBACK_HANDLERS.get(meta[\"next_token\"])")
	assert.Less(t, saveAt, clearAt)
	assert.Less(t, clearAt, advanceAt)
}

func indexOf(t *testing.T, haystack, needle string) int {
	t.Helper()
	i := strings.Index(haystack, needle)
	require.GreaterOrEqual(t, i, 0, "missing %q", needle)
	return i
}

func TestGenerateQuotedPlaceholder(t *testing.T) {
	n := messageNode("m", `Привет, "{name}"!`)
	p := &load.Project{Nodes: []*load.Node{startNode("s", "hi"), n}}
	p.Connections = []*load.Connection{{Source: "s", Target: "m"}}
	_, prog := generateProgram(t, p)

	assert.Contains(t, prog, `replace_variables_in_text("Привет, \"{name}\"!", user_id)`)
	assert.Contains(t, prog, "def replace_variables_in_text(text, user_id):")
}

func TestGenerateDanglingReference(t *testing.T) {
	n := messageNode("m", "pick")
	n.Data.KeyboardType = "inline"
	n.Data.Buttons = []*load.Button{{Text: "go", Action: "goto", Target: "ghost"}}
	p := &load.Project{Nodes: []*load.Node{startNode("s", "hi"), n}}
	p.Connections = []*load.Connection{{Source: "s", Target: "m"}}
	res, prog := generateProgram(t, p)

	var found bool
	for _, w := range res.Warnings {
		if w.Type == WarningDanglingReference && w.Target == "ghost" {
			found = true
		}
	}
	assert.True(t, found, "expected a dangling reference warning, got %v", res.Warnings)
	assert.Contains(t, prog, "async def handle_unknown_target(")
	assert.Contains(t, prog, `"ghost": handle_unknown_target,`)
}

func TestGenerateDuplicateSynonym(t *testing.T) {
	n1 := messageNode("m1", "a")
	n1.Data.Synonyms = []string{"цены"}
	n2 := messageNode("m2", "b")
	n2.Data.Synonyms = []string{"Цены"}
	p := &load.Project{Nodes: []*load.Node{startNode("s", "hi"), n1, n2}}
	_, err := Generate(p, WithClock(fixedClock))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStructural)
}

func TestGenerateInputCollection(t *testing.T) {
	ask := messageNode("ask", "Как вас зовут?")
	ask.Data.CollectUserInput = true
	ask.Data.InputVariable = "name"
	ask.Data.InputValidation = "text"
	ask.Data.MinLength = 2
	ask.Data.InputRequired = true
	ask.Data.SaveToDatabase = true
	ask.Data.InputTargetNode = "thanks"
	p := &load.Project{Nodes: []*load.Node{startNode("s", "hi"), ask, messageNode("thanks", "Спасибо, {name}!")}}
	p.Connections = []*load.Connection{{Source: "s", Target: "ask"}, {Source: "ask", Target: "thanks"}}
	_, prog := generateProgram(t, p, WithPersistence(true))

	assert.Contains(t, prog, "set_waiting_input(user_id, {")
	assert.Contains(t, prog, `"variable": "name",`)
	assert.Contains(t, prog, `"required": True,`)
	assert.Contains(t, prog, `"next_token": "thanks",`)
	assert.Contains(t, prog, "async def handle_user_input(message: types.Message):")
	assert.Contains(t, prog, `if record.get("required") and not text:`)
	// Persist before clearing the waiting record, transition last.
	saveAt := indexOf(t, prog, `await save_user_data(user_id, record["variable"], value)`)
	clearAt := indexOf(t, prog, "WAITING_INPUT.pop(user_id, None)\n    handler")
	assert.Less(t, saveAt, clearAt)
}

func TestGenerateAdminAndBroadcast(t *testing.T) {
	admin := &load.Node{ID: "adm", Type: "admin", Data: load.NodeData{
		MessageText: "Забанен.",
		AdminAction: "ban",
	}}
	bc := &load.Node{ID: "bc", Type: "broadcast", Data: load.NodeData{
		MessageText: "Новости для всех",
	}}
	p := &load.Project{Nodes: []*load.Node{startNode("s", "hi"), admin, bc}}
	p.Connections = []*load.Connection{{Source: "s", Target: "adm"}, {Source: "s", Target: "bc"}}
	_, prog := generateProgram(t, p, WithPersistence(true))

	assert.Contains(t, prog, "if not is_admin(user_id):")
	assert.Contains(t, prog, `await update_user_field(target, "banned", 1)`)
	assert.Contains(t, prog, "for recipient in await get_all_user_ids():")
	assert.Contains(t, prog, "except Exception as exc:")
}

func TestGenerateBroadcastToAdmins(t *testing.T) {
	bc := &load.Node{ID: "bc", Type: "broadcast", Data: load.NodeData{
		MessageText:     "Собрание в пять",
		BroadcastTarget: "admins",
	}}
	p := &load.Project{Nodes: []*load.Node{startNode("s", "hi"), bc}}
	p.Connections = []*load.Connection{{Source: "s", Target: "bc"}}
	_, prog := generateProgram(t, p, WithPersistence(true))

	assert.Contains(t, prog, "for recipient in sorted(ADMIN_IDS):")
	assert.NotContains(t, prog, "get_all_user_ids")
}

func TestGenerateMediaCaption(t *testing.T) {
	photo := &load.Node{ID: "ph", Type: "photo", Data: load.NodeData{
		MediaURL: "https://example.com/a.jpg",
		Caption:  "Наш офис",
	}}
	p := &load.Project{Nodes: []*load.Node{startNode("s", "hi"), photo}}
	p.Connections = []*load.Connection{{Source: "s", Target: "ph"}}
	_, prog := generateProgram(t, p)

	assert.Contains(t, prog, `caption="Наш офис"`)
}

func TestGenerateOptionalInputSkips(t *testing.T) {
	ask := messageNode("ask", "Ваш возраст?")
	ask.Data.CollectUserInput = true
	ask.Data.InputVariable = "age"
	ask.Data.InputValidation = "number"
	ask.Data.AllowSkip = true
	ask.Data.InputTargetNode = "done"
	p := &load.Project{Nodes: []*load.Node{startNode("s", "hi"), ask, messageNode("done", "Спасибо")}}
	p.Connections = []*load.Connection{{Source: "s", Target: "ask"}, {Source: "ask", Target: "done"}}
	_, prog := generateProgram(t, p)

	assert.Contains(t, prog, `"allow_skip": True,`)
	// An empty message on a skippable question transitions without a
	// validation error.
	skipAt := indexOf(t, prog, `if not value and record.get("allow_skip"):`)
	validateAt := indexOf(t, prog, "error = validate_input(value, record)")
	assert.Less(t, skipAt, validateAt)
}

func TestGenerateConditionalMessages(t *testing.T) {
	n := messageNode("m", "Обычное меню")
	n.Data.ConditionalMessages = []*load.ConditionalMessageRule{
		{Condition: "user_data_equals", VariableName: "role", ExpectedValue: "vip", MessageText: "VIP меню", Priority: 1},
		{Condition: "user_data_exists", VariableName: "name", MessageText: "Привет снова", Priority: 2},
	}
	p := &load.Project{Nodes: []*load.Node{startNode("s", "hi"), n}}
	p.Connections = []*load.Connection{{Source: "s", Target: "m"}}
	_, prog := generateProgram(t, p)

	assert.Contains(t, prog, `if get_user_data(user_id, "role") == "vip":`)
	assert.Contains(t, prog, `if get_user_data(user_id, "name"):`)
	// Higher priority rule is evaluated first; default response last.
	vipAt := indexOf(t, prog, "VIP меню")
	againAt := indexOf(t, prog, "Привет снова")
	defaultAt := indexOf(t, prog, "Обычное меню")
	assert.Less(t, vipAt, againAt)
	assert.Less(t, againAt, defaultAt)
}

func TestGenerateFeatures(t *testing.T) {
	p := &load.Project{Nodes: []*load.Node{startNode("s", "hi")}}
	t.Run("timestamp on by default", func(t *testing.T) {
		_, prog := generateProgram(t, p)
		assert.Contains(t, prog, "# Generated at: 2025-06-01T12:00:00Z")
	})
	t.Run("dotenv opt-in", func(t *testing.T) {
		_, prog := generateProgram(t, p, WithFeatures(FeatureDotenv))
		assert.Contains(t, prog, "from dotenv import load_dotenv")
		assert.Contains(t, prog, "load_dotenv()")
	})
	t.Run("report", func(t *testing.T) {
		res, _ := generateProgram(t, p)
		require.NotNil(t, res.Report)
		assert.Equal(t, 1, res.Report.Nodes)
		assert.Equal(t, 1, res.Report.Commands)
	})
}
