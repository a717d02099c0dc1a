package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"studyrag/internal/domain"
	"studyrag/internal/usecase"
)

var (
	queryText   string
	queryTopK   int
	queryMinSim float64
	queryJSON   bool
	contextMax  int
	statusJSON  bool
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Retrieve passages relevant to a question",
	Long: `Retrieve the indexed passages most similar to a question using TF-IDF
cosine similarity. Passages below the similarity threshold are dropped.

Examples:
  studyrag query -q "what are mitochondria"
  studyrag query -q "photosynthesis" --top-k 5 --min-similarity 0.05 --json`,
	RunE: runQuery,
}

var contextCmd = &cobra.Command{
	Use:   "context",
	Short: "Print a sample of chunks spread across all documents",
	Args:  cobra.NoArgs,
	RunE:  runContext,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show index statistics",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(queryCmd, contextCmd, statusCmd)
	queryCmd.Flags().StringVarP(&queryText, "query", "q", "", "search query (required)")
	queryCmd.Flags().IntVarP(&queryTopK, "top-k", "k", 0, "number of results (default from config)")
	queryCmd.Flags().Float64Var(&queryMinSim, "min-similarity", -1, "minimum cosine similarity (default from config)")
	queryCmd.Flags().BoolVar(&queryJSON, "json", false, "output as JSON")
	queryCmd.MarkFlagRequired("query")

	contextCmd.Flags().IntVar(&contextMax, "max", 0, "maximum number of chunks (default from config)")
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "output as JSON")
}

func runQuery(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	topK := cfg.Retrieve.TopK
	if queryTopK > 0 {
		topK = queryTopK
	}
	minSim := cfg.Retrieve.MinSimilarity
	if queryMinSim >= 0 {
		minSim = queryMinSim
	}

	engine, _, err := openEngine(cmd.Context())
	if err != nil {
		return err
	}

	result, err := engine.RetrieveContext(cmd.Context(), queryText, topK, minSim)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	out := cmd.OutOrStdout()
	if queryJSON {
		return writeJSON(out, result)
	}

	switch result.Outcome {
	case domain.OutcomeNotIndexed:
		fmt.Fprintln(out, "No documents indexed. Run 'studyrag add' or 'studyrag index' first.")
		return nil
	case domain.OutcomeNoMatch:
		fmt.Fprintln(out, "No results found.")
		return nil
	}

	fmt.Fprintf(out, "Found %d results for: %s (avg similarity %.3f)\n\n", len(result.Sources), queryText, result.AvgSimilarity)
	for i, src := range result.Sources {
		fmt.Fprintf(out, "--- [%d] %s #%d (similarity: %.3f) ---\n", i+1, src.Filename, src.ChunkIndex, src.Similarity)
		fmt.Fprintln(out, truncate(chunkText(engine, src), 500))
		fmt.Fprintln(out)
	}
	return nil
}

func chunkText(engine *usecase.Engine, src domain.Source) string {
	doc, ok := engine.Document(src.DocID)
	if !ok || src.ChunkIndex >= len(doc.Chunks) {
		return ""
	}
	return doc.Chunks[src.ChunkIndex]
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

func runContext(cmd *cobra.Command, args []string) error {
	max := GetConfig().Retrieve.FullContextMax
	if contextMax > 0 {
		max = contextMax
	}

	engine, _, err := openEngine(cmd.Context())
	if err != nil {
		return err
	}
	text := engine.FullContext(max)
	if text == "" {
		fmt.Fprintln(cmd.OutOrStdout(), "No documents indexed.")
		return nil
	}
	fmt.Fprintln(cmd.OutOrStdout(), text)
	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	engine, path, err := openEngine(cmd.Context())
	if err != nil {
		return err
	}
	stats := engine.Stats()
	out := cmd.OutOrStdout()

	if statusJSON {
		return writeJSON(out, stats)
	}

	fmt.Fprintf(out, "Index:      %s\n", path)
	fmt.Fprintf(out, "Indexed:    %v\n", stats.Indexed)
	fmt.Fprintf(out, "Documents:  %d\n", stats.Documents)
	fmt.Fprintf(out, "Chunks:     %d\n", stats.Chunks)
	fmt.Fprintf(out, "Vocabulary: %d terms\n", stats.Vocabulary)
	return nil
}

func writeJSON(w io.Writer, v any) error {
	output, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(output))
	return err
}
