// Package main provides the wordspira command line client. It runs the same
// parse, assemble and push pipeline as the HTTP service against a local file.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dgallion1/wordspira/internal/artifact"
	"github.com/dgallion1/wordspira/internal/config"
	"github.com/dgallion1/wordspira/internal/document"
	"github.com/dgallion1/wordspira/internal/pipeline"
	"github.com/dgallion1/wordspira/internal/settings"
	"github.com/dgallion1/wordspira/internal/spira"
	"github.com/dgallion1/wordspira/internal/stylemap"
)

const appName = "wordspira"

// options holds the persistent flags. Defaults come from the environment.
type options struct {
	cfg     config.Config
	kind    string
	from    int
	to      int
	docID   string
	verbose bool
}

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	opts := &options{cfg: config.Load()}

	cmd := &cobra.Command{
		Use:           appName,
		Short:         "Push requirements and test cases from Word or Markdown documents to Spira",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	f := cmd.PersistentFlags()
	f.StringVar(&opts.cfg.SpiraURL, "url", opts.cfg.SpiraURL, "Spira base URL (SPIRA_URL)")
	f.StringVar(&opts.cfg.SpiraUsername, "username", opts.cfg.SpiraUsername, "Spira username (SPIRA_USERNAME)")
	f.StringVar(&opts.cfg.SpiraAPIKey, "api-key", opts.cfg.SpiraAPIKey, "Spira API key (SPIRA_API_KEY)")
	f.StringVar(&opts.cfg.SettingsDir, "settings-dir", opts.cfg.SettingsDir, "directory of per-document style mappings (SETTINGS_DIR)")
	f.StringVar(&opts.kind, "kind", "requirements", "artifact kind: requirements or test-cases")
	f.IntVar(&opts.from, "from", 0, "first block of the selection")
	f.IntVar(&opts.to, "to", 0, "block after the selection; 0 selects to the end")
	f.StringVar(&opts.docID, "doc-id", "", "settings key of the document; defaults to the file name")
	f.BoolVarP(&opts.verbose, "verbose", "v", false, "log tracker calls to stderr")

	cmd.AddCommand(
		loginCmd(opts),
		stylesCmd(opts),
		mapCmd(opts),
		previewCmd(opts),
		pushCmd(opts),
	)
	return cmd
}

func (o *options) logger() *slog.Logger {
	level := slog.LevelWarn
	if o.verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func (o *options) artifactKind() (stylemap.Kind, error) {
	return stylemap.ParseKind(o.kind)
}

func (o *options) selection() document.Range {
	return document.Range{From: o.from, To: o.to}
}

func (o *options) store(path string) (*settings.File, error) {
	id := o.docID
	if id == "" {
		id = filepath.Base(path)
	}
	return settings.OpenFile(o.cfg.SettingsDir, id)
}

func (o *options) client() (*spira.Client, error) {
	if err := o.cfg.ValidateSpira(true); err != nil {
		return nil, err
	}
	return spira.NewClient(o.cfg.SpiraURL, o.cfg.SpiraUsername, o.cfg.SpiraAPIKey, o.cfg.SpiraTimeout), nil
}

func (o *options) testCaseOptions() artifact.TestCaseOptions {
	return artifact.TestCaseOptions{HeaderRows: o.cfg.TestHeaderRows, MultiTable: o.cfg.TestMultiTable}
}

// plan reads path and assembles the artifacts of the selected kind.
func (o *options) plan(path string) (*pipeline.Plan, error) {
	kind, err := o.artifactKind()
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	store, err := o.store(path)
	if err != nil {
		return nil, err
	}
	return pipeline.Prepare(data, filepath.Base(path), o.selection(), kind, store, o.testCaseOptions())
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
