package gen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fedorabakumets/telegram-bot-builder/compiler/load"
)

func startNode(id, text string) *load.Node {
	return &load.Node{ID: id, Type: "start", Data: load.NodeData{MessageText: text}}
}

func messageNode(id, text string) *load.Node {
	return &load.Node{ID: id, Type: "message", Data: load.NodeData{MessageText: text}}
}

func newTestGraph(t *testing.T, nodes ...*load.Node) *Graph {
	t.Helper()
	g, err := NewGraph(MustNewConfig(), &load.Project{Nodes: nodes})
	require.NoError(t, err)
	return g
}

func TestNewGraph(t *testing.T) {
	t.Run("basic", func(t *testing.T) {
		g := newTestGraph(t, startNode("start-1", "hi"), messageNode("msg-1", "text"))
		require.Len(t, g.Nodes, 2)
		assert.Equal(t, "handle_start_1", g.Node("start-1").Handler())
		assert.Equal(t, "start_1", g.Node("start-1").Token())
		assert.True(t, g.HasNode("msg-1"))
		assert.Nil(t, g.Node("absent"))
	})

	t.Run("unknown node type", func(t *testing.T) {
		_, err := NewGraph(MustNewConfig(), &load.Project{Nodes: []*load.Node{
			{ID: "n1", Type: "hologram"},
		}})
		require.Error(t, err)
		assert.True(t, IsStructuralError(err))
		assert.ErrorIs(t, err, ErrStructural)
	})

	t.Run("command without command string", func(t *testing.T) {
		_, err := NewGraph(MustNewConfig(), &load.Project{Nodes: []*load.Node{
			{ID: "c1", Type: "command", Data: load.NodeData{MessageText: "x"}},
		}})
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrStructural)
	})

	t.Run("duplicate node id", func(t *testing.T) {
		_, err := NewGraph(MustNewConfig(), &load.Project{Nodes: []*load.Node{
			messageNode("dup", "a"), messageNode("dup", "b"),
		}})
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrStructural)
	})

	t.Run("media without file", func(t *testing.T) {
		_, err := NewGraph(MustNewConfig(), &load.Project{Nodes: []*load.Node{
			{ID: "p1", Type: "photo"},
		}})
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrStructural)
	})

	t.Run("multi select without variable", func(t *testing.T) {
		_, err := NewGraph(MustNewConfig(), &load.Project{Nodes: []*load.Node{
			{ID: "ms1", Type: "multi_select", Data: load.NodeData{MessageText: "pick"}},
		}})
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrStructural)
	})
}

func TestHandlerCollisions(t *testing.T) {
	// Two ids that sanitize to the same identifier must still get
	// distinct handlers and tokens.
	g := newTestGraph(t, messageNode("node-a", "1"), messageNode("node_a", "2"))
	h1 := g.Node("node-a").Handler()
	h2 := g.Node("node_a").Handler()
	assert.NotEqual(t, h1, h2)
	assert.NotEqual(t, g.Node("node-a").Token(), g.Node("node_a").Token())
}

func TestTriggerConflicts(t *testing.T) {
	t.Run("duplicate command", func(t *testing.T) {
		_, err := NewGraph(MustNewConfig(), &load.Project{Nodes: []*load.Node{
			{ID: "c1", Type: "command", Data: load.NodeData{Command: "/help"}},
			{ID: "c2", Type: "command", Data: load.NodeData{Command: "help"}},
		}})
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrStructural)
		assert.Contains(t, err.Error(), "already registered by node c1")
	})

	t.Run("duplicate synonym across nodes", func(t *testing.T) {
		n1 := messageNode("m1", "a")
		n1.Data.Synonyms = []string{"Прайс"}
		n2 := messageNode("m2", "b")
		n2.Data.Synonyms = []string{"прайс"}
		_, err := NewGraph(MustNewConfig(), &load.Project{Nodes: []*load.Node{n1, n2}})
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrStructural)
	})

	t.Run("distinct synonyms pass", func(t *testing.T) {
		n1 := messageNode("m1", "a")
		n1.Data.Synonyms = []string{"прайс"}
		n2 := messageNode("m2", "b")
		n2.Data.Synonyms = []string{"каталог"}
		newTestGraph(t, n1, n2)
	})
}

func TestEmptyGotoTarget(t *testing.T) {
	n := messageNode("m1", "pick")
	n.Data.KeyboardType = "inline"
	n.Data.Buttons = []*load.Button{{Text: "nowhere", Action: "goto"}}
	g := newTestGraph(t, n)
	require.Len(t, g.Warnings(), 1)
	assert.Equal(t, WarningEmptyTarget, g.Warnings()[0].Type)
	assert.Equal(t, "m1", g.Warnings()[0].NodeID)
}

func TestTargetToken(t *testing.T) {
	g := newTestGraph(t, messageNode("m1", "a"))
	t.Run("existing node", func(t *testing.T) {
		assert.Equal(t, g.Node("m1").Token(), g.targetToken("m1"))
	})
	t.Run("dangling target is stable", func(t *testing.T) {
		tok1 := g.targetToken("ghost")
		tok2 := g.targetToken("ghost")
		assert.Equal(t, tok1, tok2)
		assert.NotEqual(t, g.Node("m1").Token(), tok1)
	})
	t.Run("empty target", func(t *testing.T) {
		assert.NotEmpty(t, g.targetToken(""))
	})
}
