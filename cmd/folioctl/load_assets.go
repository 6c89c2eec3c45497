package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/google/subcommands"
	"gopkg.in/yaml.v3"

	"github.com/folioview/folio-backend/internal/model"
	"github.com/folioview/folio-backend/internal/validation"
)

type loadAssetsCmd struct {
	file string
}

// assetEntry is one asset in the registry seed file.
type assetEntry struct {
	Code     string `yaml:"code"`
	Name     string `yaml:"name"`
	Category string `yaml:"category"`
}

func (*loadAssetsCmd) Name() string     { return "load-assets" }
func (*loadAssetsCmd) Synopsis() string { return "register assets from a YAML file" }
func (*loadAssetsCmd) Usage() string {
	return `load-assets -f <assets.yaml>

  Registers every asset listed in a YAML seed file. Entries look like:

    - code: 110011.OF
      name: 易方达中小盘
      category: fund

  Existing assets are left untouched.
`
}

func (c *loadAssetsCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.file, "f", "", "Asset seed YAML file (required)")
}

func (c *loadAssetsCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.file == "" {
		fmt.Fprintln(os.Stderr, "Error: -f flag is required.")
		return subcommands.ExitUsageError
	}

	raw, err := os.ReadFile(c.file)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading seed file: %v\n", err)
		return subcommands.ExitFailure
	}

	var entries []assetEntry
	if err := yaml.Unmarshal(raw, &entries); err != nil {
		fmt.Fprintf(os.Stderr, "Error decoding seed file: %v\n", err)
		return subcommands.ExitFailure
	}

	a, err := openApp()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer a.close()

	created := 0
	for _, entry := range entries {
		short, _, found := strings.Cut(entry.Code, ".")
		if !found {
			short = entry.Code
		}
		asset := model.Asset{
			Code:      entry.Code,
			ShortCode: short,
			Name:      entry.Name,
			Category:  entry.Category,
		}
		if err := validation.ValidateAsset(asset); err != nil {
			fmt.Fprintf(os.Stderr, "Error in entry %s: %v\n", entry.Code, err)
			return subcommands.ExitFailure
		}
		isNew, err := a.assets.GetOrCreate(asset)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating asset %s: %v\n", entry.Code, err)
			return subcommands.ExitFailure
		}
		if isNew {
			created++
		}
	}

	fmt.Printf("loaded %d assets (%d created)\n", len(entries), created)
	return subcommands.ExitSuccess
}
