/*
Copyright © 2025 pd <pd@pdwerry.net>
*/
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

var convertUsage = strings.TrimSpace(`
Convert a Markdown file to Confluence storage format without talking to Confluence at all.

Useful for eyeballing the XHTML before publishing, or for feeding it to something else.  The
output lands next to the input as <file>.storage.xhtml unless you say otherwise with --out.
`)

// convertCmd represents the convert command
var convertCmd = &cobra.Command{
	Use:   "convert FILE.md",
	Short: "Convert a Markdown file to storage format",
	Long:  convertUsage,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runConvert(args[0])
	},
}

var OutputPath string

func init() {
	rootCmd.AddCommand(convertCmd)

	convertCmd.Flags().StringVarP(&OutputPath, "out", "o", "", "where to write the storage-format body")
}

func runConvert(file string) error {
	path, err := homedir.Expand(file)
	if err != nil {
		return fmt.Errorf("cmd: couldn't expand homedir: %w", err)
	}

	title, _, rendered, err := convertDocument(path)
	if err != nil {
		return err
	}

	out := OutputPath
	if out == "" {
		out = strings.TrimSuffix(path, filepath.Ext(path)) + ".storage.xhtml"
	}

	if err := os.WriteFile(out, []byte(rendered.Body), 0644); err != nil {
		return fmt.Errorf("cmd: couldn't write %s: %w", out, err)
	}

	fmt.Printf("Converted %s (title '%s') to %s\n", path, title, out)
	if len(rendered.Assets) > 0 {
		fmt.Printf("The page references %d local images, which `publish` would upload:\n", len(rendered.Assets))
		filenames := maps.Keys(rendered.Assets)
		slices.Sort(filenames)
		for _, name := range filenames {
			fmt.Printf("  - %s (%s)\n", name, rendered.Assets[name])
		}
	}

	return nil
}
