// Package cli implements the specchunk command line.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dgallion1/specchunk/internal/config"
	"github.com/dgallion1/specchunk/internal/pathstore"
	"github.com/dgallion1/specchunk/internal/store"
)

// app holds state shared by every subcommand.
type app struct {
	dbPath  string
	verbose bool

	cfg config.Config
	log *slog.Logger
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "specchunk",
		Short: "Chunk long technical specifications along their table of contents",
		Long: `specchunk locates a document's table of contents, rebuilds the section
hierarchy, recovers untitled sub-sections, and splits each section into
retrieval-sized chunks that carry their full section path.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}
	root.PersistentFlags().StringVar(&a.dbPath, "db", "", "SQLite database path (default from config)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Log pipeline progress")

	root.AddCommand(
		newIngestCmd(a),
		newListCmd(a),
		newChunksCmd(a),
		newDeleteCmd(a),
		newTOCCmd(a),
	)
	return root
}

// Execute runs the root command.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("error: "+err.Error()))
		stop()
		os.Exit(1)
	}
}

func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if a.dbPath != "" {
		cfg.DBPath = a.dbPath
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg

	level := slog.LevelWarn
	if a.verbose {
		level = slog.LevelDebug
	}
	a.log = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
	return nil
}

func (a *app) openStore() (*store.Store, error) {
	return store.Open(a.cfg.DBPath, store.WithLogger(a.log))
}

// exportClient returns the pathstore client, or nil when export is off.
func (a *app) exportClient() *pathstore.Client {
	if a.cfg.PathstoreURL == "" {
		return nil
	}
	return pathstore.NewClient(a.cfg.PathstoreURL, a.cfg.PathstoreAPIKey)
}
