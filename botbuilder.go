// Package botbuilder compiles visual bot-editor projects into runnable
// Telegram bot programs and their deployment artifacts.
//
// The typical flow loads a project export, generates the artifact set
// and writes it to a target directory:
//
//	p, err := load.ReadFile("project.json")
//	if err != nil { ... }
//	res, err := botbuilder.Generate(p, gen.WithPersistence(true))
//	if err != nil { ... }
//	_, err = botbuilder.Write(ctx, "dist", res)
package botbuilder

import (
	"context"

	"github.com/fedorabakumets/telegram-bot-builder/compiler/gen"
	"github.com/fedorabakumets/telegram-bot-builder/compiler/load"
)

// Aliases for the types callers touch most, so simple uses need only
// this package and the load package.
type (
	// Result is the generated artifact set.
	Result = gen.Result
	// Artifact is one generated output file.
	Artifact = gen.Artifact
	// Warning is a recoverable generation finding.
	Warning = gen.Warning
	// Option configures code generation.
	Option = gen.Option
)

// Generate compiles a loaded project into its artifact set.
func Generate(p *load.Project, opts ...Option) (*Result, error) {
	return gen.Generate(p, opts...)
}

// GenerateFile compiles the project export at path.
func GenerateFile(path string, opts ...Option) (*Result, error) {
	p, err := load.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return gen.Generate(p, opts...)
}

// Write writes the result's artifacts into dir.
func Write(ctx context.Context, dir string, res *Result) (*gen.WriteStats, error) {
	return gen.WriteResult(ctx, dir, res)
}

// Build compiles the project export at path and writes the artifacts
// into dir in one step.
func Build(ctx context.Context, path, dir string, opts ...Option) (*Result, error) {
	res, err := GenerateFile(path, opts...)
	if err != nil {
		return nil, err
	}
	if _, err := gen.WriteResult(ctx, dir, res); err != nil {
		return nil, err
	}
	return res, nil
}
