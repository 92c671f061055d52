package gen

import (
	"github.com/fedorabakumets/telegram-bot-builder/compiler/load"
)

// Generator produces a Result from a loaded project snapshot.
type Generator interface {
	Generate(*load.Project) (*Result, error)
}

// GenerateFunc adapts a function to the Generator interface.
type GenerateFunc func(*load.Project) (*Result, error)

// Generate implements Generator.
func (f GenerateFunc) Generate(p *load.Project) (*Result, error) {
	return f(p)
}

// Hook wraps a Generator with cross-cutting behavior: caching, timing,
// validation. Hooks run in declaration order, the first hook outermost.
type Hook func(Generator) Generator

// Generate compiles the project into its artifact set. Structural
// defects in the project abort with an error satisfying ErrStructural;
// recoverable findings are returned as warnings on the result.
func Generate(p *load.Project, opts ...Option) (*Result, error) {
	c, err := NewConfig(opts...)
	if err != nil {
		return nil, err
	}
	var gen Generator = GenerateFunc(func(p *load.Project) (*Result, error) {
		g, err := NewGraph(c, p)
		if err != nil {
			return nil, err
		}
		return g.emit()
	})
	for i := len(c.Hooks) - 1; i >= 0; i-- {
		gen = c.Hooks[i](gen)
	}
	return gen.Generate(p)
}
