/*
Copyright © 2025 pd <pd@pdwerry.net>
*/
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"gopkg.in/dnaeon/go-vcr.v3/cassette"
	"gopkg.in/dnaeon/go-vcr.v3/recorder"

	"github.com/pdwerry/confluence-publish/confluence"
	"github.com/pdwerry/confluence-publish/internal/termfmt"
	"github.com/pdwerry/confluence-publish/publish"
	"github.com/pdwerry/confluence-publish/storagefmt"
)

var publishUsage = strings.TrimSpace(`
Convert a Markdown file to Confluence storage format and publish it as a page.

The page goes into the configured space, under the configured parent page.  If a page with the
same title already exists it is updated in place; otherwise a new page is created.  Local images
referenced by the document are uploaded as attachments.
`)

// publishCmd represents the publish command
var publishCmd = &cobra.Command{
	Use:   "publish FILE.md",
	Short: "Publish a Markdown file to Confluence",
	Long:  publishUsage,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		debugLog("  Title override: %v\n", TitleOverride)
		return runPublish(cmd.Context(), args[0])
	},
}

var (
	TitleOverride string
	WithVCR       bool
	WriteReceipt  bool
	DryRun        bool
	Progress      bool
)

func init() {
	rootCmd.AddCommand(publishCmd)

	publishCmd.Flags().StringVar(&TitleOverride, "title", "", "page title (default: front matter, else leading heading, else filename)")
	publishCmd.Flags().BoolVar(&WithVCR, "with-vcr", false, "use go-vcr to record/replay API responses")
	publishCmd.Flags().BoolVar(&WriteReceipt, "receipt", false, "write a <file>.published.yaml receipt on success")
	publishCmd.Flags().BoolVarP(&DryRun, "dry-run", "n", false, "convert and resolve, but don't create or update anything")
	publishCmd.Flags().BoolVar(&Progress, "progress", false, "show a progress bar for attachment uploads")
}

func runPublish(ctx context.Context, file string) error {
	if BaseURL == "" {
		return fmt.Errorf("cmd: no Confluence base URL set.  Use --base-url or set it in your config file.")
	}
	if SpaceKey == "" {
		return fmt.Errorf("cmd: no space key set.  Use --space or set it in your config file.")
	}
	if ParentTitle == "" {
		return fmt.Errorf("cmd: no parent page title set.  Use --parent-title or set it in your config file.")
	}

	path, err := homedir.Expand(file)
	if err != nil {
		return fmt.Errorf("cmd: couldn't expand homedir: %w", err)
	}

	title, labels, rendered, err := convertDocument(path)
	if err != nil {
		return err
	}
	if TitleOverride != "" {
		title = TitleOverride
	}
	debugLog("Converted %s: title '%s', %d assets, %d labels\n", path, title, len(rendered.Assets), len(labels))

	token, err := resolveToken()
	if err != nil {
		return err
	}

	api, err := confluence.NewAPI(BaseURL, token)
	if err != nil {
		return fmt.Errorf("cmd: Confluence API creation failed: %w", err)
	}
	defer api.Close()

	if WithVCR {
		// set up VCR recordings.
		opts := &recorder.Options{
			CassetteName:       "fixtures/confluence-publish",
			Mode:               recorder.ModeReplayWithNewEpisodes,
			SkipRequestLatency: true,
			RealTransport:      http.DefaultTransport,
		}
		r, err := recorder.NewWithOptions(opts)
		if err != nil {
			return fmt.Errorf("cmd: couldn't set up go-vcr recording: %w", err)
		}

		defer r.Stop() // Make sure recorder is stopped once done with it

		// Add a hook which removes Authorization headers from all requests
		hook := func(i *cassette.Interaction) error {
			delete(i.Request.Headers, "Authorization")
			return nil
		}
		r.AddHook(hook, recorder.AfterCaptureHook)
		r.SetReplayableInteractions(true)

		api.Client = r.GetDefaultClient()
	}

	// get current user information; doubles as an auth check before we
	// touch anything.
	currentUser, err := api.CurrentUser(ctx)
	if err != nil {
		return fmt.Errorf("cmd: couldn't query current user: %w", err)
	}
	fmt.Printf("Logged in to %s as '%s'...\n", BaseURL, currentUser.DisplayName)

	if DryRun {
		return dryRunPublish(ctx, api, title)
	}

	publisher := &publish.Publisher{
		API:         api,
		SpaceKey:    SpaceKey,
		ParentTitle: ParentTitle,
		Labels:      labels,
		Progress:    Progress,
		Logger:      log.New(os.Stderr, "", log.LstdFlags),
	}

	result, err := publisher.Publish(ctx, title, rendered)
	if err != nil {
		return err
	}

	fmt.Printf("%v page '%s' (version %d, %d attachments uploaded)\n",
		termfmt.Bold().Fg16(termfmt.Green).V(string(result.Outcome)),
		title,
		result.Version,
		result.AttachmentsUploaded)
	fmt.Printf("  %v\n", termfmt.Linked(result.PageURL).V(result.PageURL))

	if WriteReceipt {
		receiptPath := strings.TrimSuffix(path, filepath.Ext(path)) + ".published.yaml"
		if err := publish.WriteReceipt(receiptPath, title, SpaceKey, result); err != nil {
			return fmt.Errorf("cmd: publish succeeded but receipt failed: %w", err)
		}
		fmt.Printf("  receipt: %s\n", receiptPath)
	}

	return nil
}

// convertDocument reads and converts one Markdown file, deciding the page
// title along the way: front matter wins, then a leading level-1 heading,
// then the filename.  Front matter labels are returned for the publisher to
// apply.
func convertDocument(path string) (string, []string, *storagefmt.RenderedPage, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", nil, nil, fmt.Errorf("cmd: couldn't read %s: %w", path, err)
	}

	fm, body, err := storagefmt.ParseFrontMatter(raw)
	if err != nil {
		return "", nil, nil, fmt.Errorf("cmd: convert stage failed for %s: %w", path, err)
	}

	rendered, err := storagefmt.Convert(body, filepath.Dir(path))
	if err != nil {
		return "", nil, nil, fmt.Errorf("cmd: convert stage failed for %s: %w", path, err)
	}

	title := fm.Title
	if title == "" {
		title = rendered.Title
	}
	if title == "" {
		title = titleFromFilename(path)
	}

	return title, fm.Labels, rendered, nil
}

// titleFromFilename turns release-notes-2025.md into "Release Notes 2025".
func titleFromFilename(path string) string {
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	words := strings.FieldsFunc(stem, func(r rune) bool {
		return r == '-' || r == '_'
	})
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

func dryRunPublish(ctx context.Context, api *confluence.API, title string) error {
	publisher := &publish.Publisher{
		API:         api,
		SpaceKey:    SpaceKey,
		ParentTitle: ParentTitle,
	}

	outcome, err := publisher.Plan(ctx, title)
	if err != nil {
		return err
	}

	fmt.Printf("dry-run: would have %v page '%s'\n", termfmt.Bold().V(string(outcome)), title)
	return nil
}
