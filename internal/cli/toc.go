package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/dgallion1/specchunk/internal/pipeline"
)

func newTOCCmd(a *app) *cobra.Command {
	var (
		file          string
		pageOffset    int
		longThreshold int
	)
	cmd := &cobra.Command{
		Use:   "toc",
		Short: "Show the section outline a document would be chunked by",
		Long: `Run table of contents extraction, hierarchy inference and sub-section
discovery without extracting content or storing anything.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if pageOffset < 0 {
				return fmt.Errorf("--page-offset must be >= 0")
			}
			data, err := os.ReadFile(file)
			if err != nil {
				return err
			}

			in := pipeline.NewIngester(nil, nil, a.cfg.ParserOptions(), a.cfg.PipelineOptions(), a.log)
			doc, err := in.Parse(pipeline.IngestRequest{Filename: filepath.Base(file), Data: data})
			if err != nil {
				return err
			}

			opts := a.cfg.PipelineOptions()
			if cmd.Flags().Changed("page-offset") {
				opts.PageOffset = pageOffset
			}
			if longThreshold > 0 {
				opts.LongThreshold = longThreshold
			}
			res, err := pipeline.Outline(cmd.Context(), doc, opts, a.log)
			if err != nil {
				return err
			}
			formatOutline(cmd.OutOrStdout(), doc.Title, res)
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "Document to inspect")
	cmd.Flags().IntVar(&pageOffset, "page-offset", 0, "Physical page minus logical page")
	cmd.Flags().IntVar(&longThreshold, "long-threshold", 0, "Page span above which a section is flagged long")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}
