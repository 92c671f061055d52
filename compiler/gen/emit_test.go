package gen

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/fedorabakumets/telegram-bot-builder/compiler/load"
)

func TestArtifactSet(t *testing.T) {
	cmd := &load.Node{ID: "c1", Type: "command", Data: load.NodeData{
		Command:     "help",
		Description: "Справка",
		MessageText: "Помощь",
	}}
	p := &load.Project{ID: "proj-7", Nodes: []*load.Node{startNode("s", "hi"), cmd}}
	res, _ := generateProgram(t, p, WithPersistence(true), WithProjectID("proj-7"))

	names := make([]string, len(res.Artifacts))
	for i, a := range res.Artifacts {
		names[i] = a.Name
	}
	assert.Equal(t, []string{
		ArtifactProgram, ArtifactRequirements, ArtifactDockerfile, ArtifactRunConfig, ArtifactCommands,
	}, names)

	t.Run("requirements", func(t *testing.T) {
		req := string(res.Artifact(ArtifactRequirements).Content)
		assert.Contains(t, req, "aiogram>=3.4.0")
		assert.Contains(t, req, "aiosqlite>=")
		assert.NotContains(t, req, "python-dotenv")
	})
	t.Run("requirements without persistence", func(t *testing.T) {
		res2, _ := generateProgram(t, p, WithFeatures(FeatureDotenv))
		req := string(res2.Artifact(ArtifactRequirements).Content)
		assert.NotContains(t, req, "aiosqlite")
		assert.Contains(t, req, "python-dotenv>=")
	})
	t.Run("dockerfile", func(t *testing.T) {
		df := string(res.Artifact(ArtifactDockerfile).Content)
		assert.Contains(t, df, "FROM python:3.11-slim")
		assert.Contains(t, df, `CMD ["python", "bot.py"]`)
	})
	t.Run("run config", func(t *testing.T) {
		var doc struct {
			Name       string   `yaml:"name"`
			Project    string   `yaml:"project"`
			Entrypoint string   `yaml:"entrypoint"`
			Env        []string `yaml:"env"`
		}
		require.NoError(t, yaml.Unmarshal(res.Artifact(ArtifactRunConfig).Content, &doc))
		assert.Equal(t, "proj-7", doc.Project)
		assert.Equal(t, "bot.py", doc.Entrypoint)
		assert.Contains(t, doc.Env, "BOT_TOKEN")
		assert.Contains(t, doc.Env, "DB_PATH")
	})
	t.Run("command list", func(t *testing.T) {
		cmds := string(res.Artifact(ArtifactCommands).Content)
		assert.Contains(t, cmds, "start - ")
		assert.Contains(t, cmds, "help - Справка\n")
	})
}

func TestCommandListHidesMenuOptOuts(t *testing.T) {
	hide := false
	cmd := &load.Node{ID: "c1", Type: "command", Data: load.NodeData{
		Command:     "secret",
		MessageText: "x",
		ShowInMenu:  &hide,
	}}
	p := &load.Project{Nodes: []*load.Node{startNode("s", "hi"), cmd}}
	res, _ := generateProgram(t, p)
	assert.NotContains(t, string(res.Artifact(ArtifactCommands).Content), "secret")
}

func TestWriteResult(t *testing.T) {
	dir := t.TempDir()
	p := &load.Project{Nodes: []*load.Node{startNode("s", "hi")}}
	res, _ := generateProgram(t, p)

	stats, err := WriteResult(context.Background(), filepath.Join(dir, "dist"), res)
	require.NoError(t, err)
	assert.Equal(t, len(res.Artifacts), stats.Files)
	assert.Positive(t, stats.Bytes)

	for _, a := range res.Artifacts {
		data, err := os.ReadFile(filepath.Join(dir, "dist", a.Name))
		require.NoError(t, err)
		assert.Equal(t, a.Content, data)
	}

	t.Run("empty dir rejected", func(t *testing.T) {
		_, err := WriteResult(context.Background(), "", res)
		assert.ErrorIs(t, err, ErrMissingConfig)
	})
}

func TestGenerateHooks(t *testing.T) {
	var order []string
	hook := func(name string) Hook {
		return func(next Generator) Generator {
			return GenerateFunc(func(p *load.Project) (*Result, error) {
				order = append(order, name)
				return next.Generate(p)
			})
		}
	}
	p := &load.Project{Nodes: []*load.Node{startNode("s", "hi")}}
	_, err := Generate(p, WithClock(fixedClock), WithHooks(hook("outer"), hook("inner")))
	require.NoError(t, err)
	assert.Equal(t, []string{"outer", "inner"}, order)
}
