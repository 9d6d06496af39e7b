// SPDX-FileCopyrightText: 2020 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

// Package app is the cmd/mdkg composition root: it wires the filesystem
// crawl, the Markdown/Git collaborators, and pkg/pipeline together the way
// cmd/app.NewCommand wires docforge's reactor. Per spec.md §1, crawling,
// CLI argument handling, and NER are external collaborators - this package
// is that outer layer, not part of the core's tested contract.
package app

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"k8s.io/klog/v2"
)

// DefaultConfigFileName is the mdkg configuration file base name, searched
// for alongside flags the way docforge's DefaultConfigFileName is.
const DefaultConfigFileName = "config"

// MdkgHomeDir is the mdkg home location under the user's home directory.
const MdkgHomeDir = ".mdkg"

// Options holds every mdkg run option, bound from flags and an optional
// config file via viper the way cmd/app.Options is.
type Options struct {
	RootPath             string   `mapstructure:"root"`
	OutputPath           string   `mapstructure:"output"`
	BaseURI              string   `mapstructure:"base-uri"`
	LinkExtensions       []string `mapstructure:"link-extensions"`
	AnalyzeEntities      bool     `mapstructure:"analyze-entities"`
	NERPlugin            string   `mapstructure:"ner-plugin"`
	WarnOnAliasCollision bool     `mapstructure:"warn-on-alias-collision"`
	UseGitTimestamps     bool     `mapstructure:"use-git-timestamps"`
	Concurrency          int      `mapstructure:"concurrency"`
}

var vip *viper.Viper

// NewCommand creates the mdkg root command.
func NewCommand(ctx context.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mdkg",
		Short: "Extract a deterministic RDF knowledge graph from a Markdown directory tree",
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			options, err := NewOptions()
			if err != nil {
				return err
			}
			return Run(ctx, options)
		},
	}

	Configure(cmd)
	return cmd
}

// Configure binds flags and config-file discovery to vip, mirroring
// cmd/app.Configure.
func Configure(command *cobra.Command) {
	vip = viper.NewWithOptions(viper.KeyDelimiter("::"))
	configureFlags(command)
	configureConfigFile()
}

func configureFlags(command *cobra.Command) {
	command.Flags().StringP("root", "r", ".",
		"Root of the Markdown directory tree to process.")
	_ = vip.BindPFlag("root", command.Flags().Lookup("root"))

	command.Flags().StringP("output", "o", "",
		"Turtle output path. Empty writes to stdout.")
	_ = vip.BindPFlag("output", command.Flags().Lookup("output"))

	command.Flags().String("base-uri", "http://example.org/kb/",
		"Base URI prefixed to every emitted IRI.")
	_ = vip.BindPFlag("base-uri", command.Flags().Lookup("base-uri"))

	command.Flags().StringSlice("link-extensions", []string{".md", ".markdown", ".txt"},
		"Extensions tried, in order, when resolving a bare wiki link to a document.")
	_ = vip.BindPFlag("link-extensions", command.Flags().Lookup("link-extensions"))

	command.Flags().Bool("analyze-entities", false,
		"Run NER over document content in addition to wiki-link/frontmatter entity references.")
	_ = vip.BindPFlag("analyze-entities", command.Flags().Lookup("analyze-entities"))

	command.Flags().String("ner-plugin", "",
		"Name of an external NER provider plugin. Unimplemented: a documented no-op stub for future wiring (spec.md §1 treats NER as an external collaborator).")
	_ = vip.BindPFlag("ner-plugin", command.Flags().Lookup("ner-plugin"))

	command.Flags().Bool("warn-on-alias-collision", true,
		"Log a warning when two observations of the same entity disagree on a scalar property.")
	_ = vip.BindPFlag("warn-on-alias-collision", command.Flags().Lookup("warn-on-alias-collision"))

	command.Flags().Bool("use-git-timestamps", false,
		"Fill missing Document created/modified timestamps from Git commit history for --root.")
	_ = vip.BindPFlag("use-git-timestamps", command.Flags().Lookup("use-git-timestamps"))

	command.Flags().Int("concurrency", 1,
		"Number of documents processed concurrently in Phase B (spec.md §5). 1 keeps the run single-threaded.")
	_ = vip.BindPFlag("concurrency", command.Flags().Lookup("concurrency"))
}

func configureConfigFile() {
	home, err := os.UserHomeDir()
	if err == nil {
		vip.AddConfigPath(home + string(os.PathSeparator) + MdkgHomeDir)
	}
	vip.AddConfigPath(".")
	vip.SetConfigName(DefaultConfigFileName)
	vip.SetEnvPrefix("MDKG")
	vip.AutomaticEnv()
	vip.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	_ = vip.ReadInConfig()
}

// NewOptions decodes the bound flags/config file into an Options value.
func NewOptions() (*Options, error) {
	options := &Options{}
	if err := vip.Unmarshal(options); err != nil {
		return nil, fmt.Errorf("failed decoding mdkg options: %w", err)
	}
	if options.RootPath == "" {
		return nil, fmt.Errorf("--root must not be empty")
	}
	return options, nil
}

func init() {
	klog.InitFlags(nil)
}
