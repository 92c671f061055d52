package main

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/fedorabakumets/telegram-bot-builder/compiler/gen"
	"github.com/fedorabakumets/telegram-bot-builder/compiler/load"
	"github.com/fedorabakumets/telegram-bot-builder/store"
)

var storeFlags struct {
	fromStore bool
	dialect   string
	dsn       string
}

// loadProject resolves the argument either as a project file path or,
// with --from-store, as a project id in the configured database.
func loadProject(ctx context.Context, arg string) (*load.Project, error) {
	if !storeFlags.fromStore {
		return load.ReadFile(arg)
	}
	s, err := store.Open(store.Dialect(storeFlags.dialect), storeFlags.dsn)
	if err != nil {
		return nil, err
	}
	defer s.Close()
	return s.Load(ctx, arg)
}

// optionsFile mirrors the generation flags for projects that keep their
// settings next to the export.
type optionsFile struct {
	Name        string `yaml:"name"`
	Persistence bool   `yaml:"persistence"`
	Comments    bool   `yaml:"comments"`
	Columns     int    `yaml:"columns"`
	Dotenv      bool   `yaml:"dotenv"`
}

// readOptionsFile loads generation settings from a YAML file and
// converts them to options. Flags set on the command line are applied
// after these and win.
func readOptionsFile(path string) ([]gen.Option, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading options file: %w", err)
	}
	var of optionsFile
	if err := yaml.Unmarshal(data, &of); err != nil {
		return nil, fmt.Errorf("decoding options file: %w", err)
	}
	opts := []gen.Option{
		gen.WithPersistence(of.Persistence),
		gen.WithVerboseComments(of.Comments),
	}
	if of.Name != "" {
		opts = append(opts, gen.WithBotName(of.Name))
	}
	if of.Columns > 0 {
		opts = append(opts, gen.WithKeyboardColumns(of.Columns))
	}
	if of.Dotenv {
		opts = append(opts, gen.WithFeatures(gen.FeatureDotenv))
	}
	return opts, nil
}
