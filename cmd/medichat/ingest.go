package main

import (
	"fmt"

	"github.com/sandevgo/medichat/internal/service/assistant"
	"github.com/spf13/cobra"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [files...]",
	Short: "Extract, chunk and embed documents and report what would be indexed",
	Long: `Runs the indexing pipeline over the given files and prints a report.
The index lives in memory, so use --file on chat, ask, serve or mcp to
answer from documents.`,
	Args:         cobra.MinimumNArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, flushLog := setupLogger(cmd.Context())
		defer flushLog()

		app := NewApp(ctx, appOptions{})
		defer shutdownNow(ctx, app.Services())

		out := cmd.OutOrStdout()
		var failed int
		for _, path := range args {
			doc, err := app.Library.IngestFile(ctx, path)
			if err != nil {
				failed++
				fmt.Fprintf(out, "✗ %s: %v\n", path, err)
				continue
			}
			fmt.Fprintf(out, "✓ %s: %s, %d pages, %d chunks, %s\n",
				doc.Name, doc.Type, doc.Pages, doc.Chunks, assistant.FormatTokenCount(doc.Tokens))
		}

		fmt.Fprintf(out, "\n%d chunks indexed from %d documents\n", app.Library.ChunkCount(), len(app.Library.Documents()))
		if failed > 0 {
			return fmt.Errorf("%d of %d documents failed", failed, len(args))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}
