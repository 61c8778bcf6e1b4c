package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/dgallion1/specchunk/internal/pipeline"
)

func newIngestCmd(a *app) *cobra.Command {
	var (
		file     string
		req      pipeline.IngestRequest
		override pipeline.Options
	)
	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Chunk a document and store the result",
		Long: `Chunk a PDF, text, Markdown or HTML specification and store its chunks.
Re-ingesting the same file replaces its previous chunks.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if override.PageOffset < 0 {
				return fmt.Errorf("--page-offset must be >= 0")
			}
			opts := a.cfg.PipelineOptions()
			if cmd.Flags().Changed("page-offset") {
				opts.PageOffset = override.PageOffset
			}
			if override.ChunkSize > 0 {
				opts.ChunkSize = override.ChunkSize
			}
			if override.MaxChunkSize > 0 {
				opts.MaxChunkSize = override.MaxChunkSize
			}
			if override.MinChunkSize > 0 {
				opts.MinChunkSize = override.MinChunkSize
			}
			if override.LongThreshold > 0 {
				opts.LongThreshold = override.LongThreshold
			}
			if opts.ChunkSize > opts.MaxChunkSize {
				return fmt.Errorf("chunk size %d exceeds max chunk size %d", opts.ChunkSize, opts.MaxChunkSize)
			}

			data, err := os.ReadFile(file)
			if err != nil {
				return err
			}
			st, err := a.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			var exporter pipeline.Exporter
			if c := a.exportClient(); c != nil {
				defer c.Close()
				exporter = c
			}

			in := pipeline.NewIngester(st, exporter, a.cfg.ParserOptions(), opts, a.log)
			req.Filename = filepath.Base(file)
			req.Data = data
			req.FilePath, _ = filepath.Abs(file)

			res, err := in.Ingest(cmd.Context(), req, func(s pipeline.JobStatus) {
				a.log.Debug("ingest stage", "status", s)
			})
			if err != nil {
				return err
			}
			formatIngest(cmd.OutOrStdout(), res)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVarP(&file, "file", "f", "", "Document to ingest (.pdf, .txt, .md, .html)")
	f.StringVar(&req.Protocol, "protocol", "", "Protocol name, e.g. eMMC")
	f.StringVar(&req.Version, "version", "", "Protocol version, e.g. 5.1")
	f.StringVar(&req.Title, "title", "", "Document title (default from the file)")
	f.IntVar(&override.PageOffset, "page-offset", 0, "Physical page minus logical page")
	f.IntVar(&override.ChunkSize, "chunk-size", 0, "Target tokens per chunk")
	f.IntVar(&override.MaxChunkSize, "max-chunk-size", 0, "Token ceiling per chunk")
	f.IntVar(&override.MinChunkSize, "min-chunk-size", 0, "Drop chunks shorter than this many characters")
	f.IntVar(&override.LongThreshold, "long-threshold", 0, "Page span above which a section is flagged long")
	for _, name := range []string{"file", "protocol", "version"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}
