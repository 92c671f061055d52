package gen

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Artifact names.
const (
	ArtifactProgram      = "bot.py"
	ArtifactRequirements = "requirements.txt"
	ArtifactDockerfile   = "Dockerfile"
	ArtifactRunConfig    = "bot.yaml"
	ArtifactCommands     = "commands.txt"
)

// Artifact is one generated output file.
type Artifact struct {
	Name    string
	Content []byte
}

// Report summarizes the generated program for the editor.
type Report struct {
	Nodes            int      `json:"nodes"`
	Commands         int      `json:"commands"`
	Variables        []string `json:"variables,omitempty"`
	UnreachableNodes []string `json:"unreachableNodes,omitempty"`
}

// Result carries every generated artifact plus the recoverable
// findings discovered along the way. Artifacts appear in a fixed
// order with the program first.
type Result struct {
	Artifacts []Artifact
	Warnings  []Warning
	Report    *Report
}

// Artifact returns the artifact with the given name, or nil.
func (r *Result) Artifact(name string) *Artifact {
	for i := range r.Artifacts {
		if r.Artifacts[i].Name == name {
			return &r.Artifacts[i]
		}
	}
	return nil
}

// emit renders the full artifact set for the graph.
func (g *Graph) emit() (*Result, error) {
	program, err := g.assemble()
	if err != nil {
		return nil, NewGenerationError("assemble", ArtifactProgram, "program assembly failed", err)
	}
	res := &Result{
		Artifacts: []Artifact{
			{Name: ArtifactProgram, Content: []byte(program)},
			{Name: ArtifactRequirements, Content: g.requirements()},
			{Name: ArtifactDockerfile, Content: g.dockerfile()},
		},
		Warnings: g.collectWarnings(),
	}
	rc, err := g.runConfig()
	if err != nil {
		return nil, NewGenerationError("emit", ArtifactRunConfig, "run config encoding failed", err)
	}
	res.Artifacts = append(res.Artifacts,
		Artifact{Name: ArtifactRunConfig, Content: rc},
		Artifact{Name: ArtifactCommands, Content: g.commandList()},
	)
	if g.FeatureEnabled(FeatureReport.Name) {
		res.Report = &Report{
			Nodes:            len(g.Nodes),
			Commands:         len(g.CommandNodes()),
			Variables:        CollectVariables(g.Nodes),
			UnreachableNodes: UnreachableNodes(g.Nodes, g.Connections),
		}
	}
	return res, nil
}

// collectWarnings merges compile-time findings with the reference and
// reachability analyses. Empty goto targets were already reported at
// compile time and are not double-counted as dangling references.
func (g *Graph) collectWarnings() []Warning {
	out := append([]Warning(nil), g.Warnings()...)
	for _, ref := range DanglingReferences(g.Nodes) {
		if ref.Target == "" {
			continue
		}
		out = append(out, Warning{
			Type:    WarningDanglingReference,
			NodeID:  ref.Source,
			Target:  ref.Target,
			Message: fmt.Sprintf("reference via %s points to a missing node", ref.Via),
		})
	}
	if g.FeatureEnabled(FeatureReport.Name) {
		for _, id := range UnreachableNodes(g.Nodes, g.Connections) {
			out = append(out, Warning{
				Type:    WarningUnreachableNode,
				NodeID:  id,
				Message: "no button, rule, input flow or connection leads here",
			})
		}
	}
	return out
}

func (g *Graph) requirements() []byte {
	var b strings.Builder
	b.WriteString("aiogram>=3.4.0\n")
	if g.Persistence {
		b.WriteString("aiosqlite>=0.19.0\n")
	}
	if g.FeatureEnabled(FeatureDotenv.Name) {
		b.WriteString("python-dotenv>=1.0.0\n")
	}
	return []byte(b.String())
}

func (g *Graph) dockerfile() []byte {
	var b strings.Builder
	b.WriteString("FROM python:3.11-slim\n\n")
	b.WriteString("WORKDIR /app\n\n")
	b.WriteString("COPY requirements.txt .\n")
	b.WriteString("RUN pip install --no-cache-dir -r requirements.txt\n\n")
	b.WriteString("COPY bot.py .\n\n")
	b.WriteString("ENV PYTHONUNBUFFERED=1\n\n")
	b.WriteString("CMD [\"python\", \"bot.py\"]\n")
	return []byte(b.String())
}

// runConfigDoc is the deployment descriptor consumed by the hosting
// side of the editor.
type runConfigDoc struct {
	Name       string   `yaml:"name"`
	Project    string   `yaml:"project,omitempty"`
	Entrypoint string   `yaml:"entrypoint"`
	Python     string   `yaml:"python"`
	Env        []string `yaml:"env"`
	Restart    string   `yaml:"restart"`
}

func (g *Graph) runConfig() ([]byte, error) {
	doc := runConfigDoc{
		Name:       g.BotName,
		Project:    g.ProjectID,
		Entrypoint: ArtifactProgram,
		Python:     "3.11",
		Env:        []string{"BOT_TOKEN", "ADMIN_IDS"},
		Restart:    "always",
	}
	if g.Persistence {
		doc.Env = append(doc.Env, "DB_PATH")
	}
	return yaml.Marshal(doc)
}

// commandList renders the menu commands in BotFather's setcommands
// format, one "command - description" pair per line.
func (g *Graph) commandList() []byte {
	var b strings.Builder
	for _, n := range g.CommandNodes() {
		var show bool
		switch s := n.Spec.(type) {
		case *StartSpec:
			show = s.ShowInMenu
		case *CommandSpec:
			show = s.ShowInMenu
		}
		if !show {
			continue
		}
		cmd, desc := menuEntry(n)
		fmt.Fprintf(&b, "%s - %s\n", cmd, desc)
	}
	return []byte(b.String())
}
