/*
Copyright © 2025 pd <pd@pdwerry.net>
*/

package main

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"reflect"
	"strings"

	"github.com/fatih/structs"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v2"
)

var (
	// Store the result of binding cobra flags
	Config string
	Debug  bool

	// Command to run to retrieve API Personal Access Token
	AuthTokenCmd []string

	BaseURL     string
	SpaceKey    string
	ParentTitle string

	ParsedConfig YamlConfig
)

// Build the cobra command that handles our command line tool.
var rootCmd = &cobra.Command{
	Use:   "confluence-publish",
	Short: "Push a Markdown document to a Confluence page",
	Long: `
Write your docs in Markdown, keep them in git, and push them to Confluence when they're ready.
This tool converts one Markdown file to Confluence storage format and creates or updates the
matching page in place, uploading any local images as attachments.
`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// You can bind cobra and the config file in a few locations, but
		// PersistentPreRunE on the root command works well
		if err := initializeConfig(cmd); err != nil {
			return fmt.Errorf("confluence-publish: failed to initialise config: %w", err)
		}
		return nil
	},
}

func init() {
	// Define cobra flags, the default value has the lowest (least significant) precedence
	rootCmd.PersistentFlags().StringVar(&Config, "config", "", "config file location (default: ~/.config/confluence-publish.yaml, respects CONFLUENCE_PUBLISH_CONFIG)")
	rootCmd.PersistentFlags().BoolVar(&Debug, "debug", false, "display debug output")
	rootCmd.PersistentFlags().StringSliceVar(&AuthTokenCmd, "auth-token-cmd", []string{}, "shell command to retrieve the API auth token")
	rootCmd.PersistentFlags().StringVar(&BaseURL, "base-url", "", "base URL of your Confluence instance, e.g. https://wiki.example.com")
	rootCmd.PersistentFlags().StringVar(&SpaceKey, "space", "", "key of the Confluence space to publish into")
	rootCmd.PersistentFlags().StringVar(&ParentTitle, "parent-title", "", "title of the existing page to file the published page under")
}

func initializeConfig(cmd *cobra.Command) error {
	if Config == "" {
		// Did the user provide an ENV?
		envConfig := os.Getenv("CONFLUENCE_PUBLISH_CONFIG")
		if envConfig != "" {
			Config = envConfig
		} else {
			// As fallback, search for config in home XDG-ish directory
			Config = "~/.config/confluence-publish.yaml"
		}
	}
	config, err := homedir.Expand(Config)
	if err != nil {
		return fmt.Errorf("confluence-publish: unable to expand homedir: %w", err)
	}
	Config = config

	// A missing config file is fine as long as the flags cover everything;
	// only complain if the user pointed us somewhere explicitly.
	if _, err := os.Stat(Config); errors.Is(err, os.ErrNotExist) {
		if cmd.Flags().Changed("config") {
			return fmt.Errorf("confluence-publish: specified config file does not exist: %w", err)
		}
		return nil
	}

	yamlFile, err := os.ReadFile(Config)
	if err != nil {
		return fmt.Errorf("confluence-publish: error reading config file: %w", err)
	}

	// I'd like to bark if a user sets a flag we don't recognise:
	if err := yaml.UnmarshalStrict(yamlFile, &ParsedConfig); err != nil {
		return fmt.Errorf("confluence-publish: issue parsing config file: %w", err)
	}

	// Bind the current command's flags to the parsed YAML
	if err := bindFlags(cmd, ParsedConfig); err != nil {
		return fmt.Errorf("confluence-publish: failed to bind flags: %w", err)
	}

	return nil
}

type YamlConfig struct {
	WithVCR  *bool `yaml:"with-vcr"`
	Receipt  *bool `yaml:"receipt"`
	Progress *bool `yaml:"progress"`

	BaseURL      string   `yaml:"base-url"`
	SpaceKey     string   `yaml:"space"`
	ParentTitle  string   `yaml:"parent-title"`
	AuthTokenCmd []string `yaml:"auth-token-cmd"`
}

// Bind each cobra flag to its associated config file entry
func bindFlags(cmd *cobra.Command, v YamlConfig) error {
	for _, field := range structs.Fields(v) {
		key := field.Tag("yaml")
		if key == "" {
			return fmt.Errorf("confluence-publish: could not retrieve struct tag 'yaml'")
		}
		if flag := cmd.Flag(key); flag == nil {
			// hmm... the flag is unknown.  but that can legitimately happen
			// if you're running e.g. `convert` which has no `with-vcr` flag
			// but your YAML file does define that key...
			continue
		}
		if !cmd.Flags().Changed(key) {
			switch field.Kind() {
			case reflect.Ptr:
				// err, this is crappy, but i know YamlConfig only uses pointers for bools.....
				b, ok := field.Value().(*bool)
				if !ok {
					return fmt.Errorf("confluence-publish: found unrecognised field: %+v", field)
				}
				if b != nil {
					cmd.Flags().Set(key, fmt.Sprintf("%v", *b))
				}

			case reflect.String:
				s, ok := field.Value().(string)
				if !ok {
					return fmt.Errorf("confluence-publish: found unrecognised field: %+v", field)
				}
				if s != "" {
					cmd.Flags().Set(key, s)
				}

			case reflect.Slice:
				ss, ok := field.Value().([]string)
				if !ok {
					return fmt.Errorf("confluence-publish: found unrecognised field: %+v", field)
				}
				for _, s := range ss {
					// yes, repeatedly calling Set() appends to the slice...
					cmd.Flags().Set(key, s)
				}

			default:
				return fmt.Errorf("confluence-publish: found unrecognised field: %+v", field)
			}
		}
	}

	return nil
}

// resolveToken finds the API bearer token: the auth-token-cmd output wins,
// the CONFLUENCE_API_TOKEN environment variable is the fallback.
func resolveToken() (string, error) {
	if len(AuthTokenCmd) > 0 {
		out, err := exec.Command(AuthTokenCmd[0], AuthTokenCmd[1:]...).Output()
		if err != nil {
			return "", fmt.Errorf("confluence-publish: couldn't execute auth-token-cmd '%v': %w", AuthTokenCmd, err)
		}
		return strings.Split(string(out), "\n")[0], nil
	}

	if token := os.Getenv("CONFLUENCE_API_TOKEN"); token != "" {
		return token, nil
	}

	return "", fmt.Errorf("confluence-publish: no auth token: provide --auth-token-cmd or set CONFLUENCE_API_TOKEN")
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	// Flags are only available after (or inside, presumably) the .Execute() thing.
	if err := rootCmd.Execute(); err != nil {
		return fmt.Errorf("confluence-publish: execution error: %w", err)
	}

	return nil
}
