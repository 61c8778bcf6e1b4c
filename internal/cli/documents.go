package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/dgallion1/specchunk/internal/store"
)

func newListCmd(a *app) *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored documents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			docs, err := st.ListDocuments(cmd.Context(), !all)
			if err != nil {
				return err
			}
			formatDocuments(cmd.OutOrStdout(), docs)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&all, "all", "a", false, "Include deleted documents")
	return cmd
}

// chunkExport is the json and yaml layout of the chunks command.
type chunkExport struct {
	DocID  string              `json:"doc_id" yaml:"doc_id"`
	Chunks []store.StoredChunk `json:"chunks" yaml:"chunks"`
}

func newChunksCmd(a *app) *cobra.Command {
	var docID, format string
	cmd := &cobra.Command{
		Use:   "chunks",
		Short: "Print a document's chunks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			switch format {
			case "text", "json", "yaml":
			default:
				return fmt.Errorf("--format must be text, json or yaml, got %q", format)
			}
			st, err := a.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			chunks, err := st.Chunks(cmd.Context(), docID)
			if err != nil {
				return fmt.Errorf("document %s: %w", docID, err)
			}

			w := cmd.OutOrStdout()
			out := chunkExport{DocID: docID, Chunks: chunks}
			if out.Chunks == nil {
				out.Chunks = []store.StoredChunk{}
			}
			switch format {
			case "json":
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				return enc.Encode(out)
			case "yaml":
				enc := yaml.NewEncoder(w)
				enc.SetIndent(2)
				if err := enc.Encode(out); err != nil {
					return err
				}
				return enc.Close()
			}
			formatChunks(w, chunks)
			return nil
		},
	}
	cmd.Flags().StringVarP(&docID, "doc-id", "d", "", "Document ID")
	cmd.Flags().StringVar(&format, "format", "text", "Output format: text, json or yaml")
	_ = cmd.MarkFlagRequired("doc-id")
	return cmd
}

func newDeleteCmd(a *app) *cobra.Command {
	var (
		docID string
		purge bool
	)
	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete a document",
		Long: `Mark a document inactive so it no longer lists. With --purge the document
and its chunks are removed from the database.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			ctx := cmd.Context()
			if purge {
				err = st.Purge(ctx, docID)
			} else {
				err = st.DeleteDocument(ctx, docID)
			}
			if err != nil {
				return fmt.Errorf("document %s: %w", docID, err)
			}

			if c := a.exportClient(); c != nil {
				defer c.Close()
				if err := c.DeleteDocument(ctx, docID); err != nil {
					a.log.Warn("export delete failed", "doc_id", docID, "error", err)
				}
			}

			verb := "deleted"
			if purge {
				verb = "purged"
			}
			fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render(verb+" "+docID))
			return nil
		},
	}
	cmd.Flags().StringVarP(&docID, "doc-id", "d", "", "Document ID")
	cmd.Flags().BoolVar(&purge, "purge", false, "Remove the document and its chunks permanently")
	_ = cmd.MarkFlagRequired("doc-id")
	return cmd
}
