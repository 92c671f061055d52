package load

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnmarshalProject(t *testing.T) {
	data := []byte(`{
		"id": "p1",
		"name": "Shop",
		"nodes": [
			{"id": "start-1", "type": "start", "data": {"messageText": "hi"}},
			{"id": "m-1", "type": "message", "data": {
				"messageText": "menu",
				"keyboardType": "inline",
				"buttons": [{"text": "Go", "action": "goto", "target": "start-1"}]
			}}
		],
		"connections": [{"source": "start-1", "target": "m-1"}]
	}`)
	p, err := UnmarshalProject(data)
	require.NoError(t, err)
	assert.Equal(t, "p1", p.ID)
	require.Len(t, p.Nodes, 2)
	require.Len(t, p.Connections, 1)
	assert.Equal(t, "hi", p.Nodes[0].Data.MessageText)
	// Missing button ids are backfilled.
	assert.NotEmpty(t, p.Nodes[1].Data.Buttons[0].ID)
	assert.NotNil(t, p.Node("m-1"))
	assert.Nil(t, p.Node("ghost"))
}

func TestFlattenSheets(t *testing.T) {
	data := []byte(`{
		"id": "p2",
		"sheets": [
			{"name": "main", "nodes": [{"id": "a", "type": "start", "data": {}}],
			 "connections": [{"source": "a", "target": "b"}]},
			{"name": "extra", "nodes": [{"id": "b", "type": "message", "data": {}}]}
		]
	}`)
	p, err := UnmarshalProject(data)
	require.NoError(t, err)
	assert.Nil(t, p.Sheets)
	require.Len(t, p.Nodes, 2)
	assert.Equal(t, "a", p.Nodes[0].ID)
	assert.Equal(t, "b", p.Nodes[1].ID)
	require.Len(t, p.Connections, 1)
}

func TestEnsureIDs(t *testing.T) {
	p := &Project{Nodes: []*Node{{
		ID:   "n",
		Type: "message",
		Data: NodeData{
			Buttons: []*Button{{Text: "a"}, {ID: "fixed", Text: "b"}},
			ConditionalMessages: []*ConditionalMessageRule{{
				Condition:   "user_data_exists",
				MessageText: "x",
				Buttons:     []*Button{{Text: "c"}},
			}},
		},
	}}}
	p.EnsureIDs()
	assert.NotEmpty(t, p.Nodes[0].Data.Buttons[0].ID)
	assert.Equal(t, "fixed", p.Nodes[0].Data.Buttons[1].ID)
	assert.NotEmpty(t, p.Nodes[0].Data.ConditionalMessages[0].ID)
	assert.NotEmpty(t, p.Nodes[0].Data.ConditionalMessages[0].Buttons[0].ID)
}

func TestReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "project.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"id":"p3","nodes":[]}`), 0o644))
	p, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "p3", p.ID)

	_, err = ReadFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{not json`), 0o644))
	_, err = ReadFile(bad)
	assert.Error(t, err)
}
