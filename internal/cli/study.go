package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"studyrag/internal/adapter/prompt"
	"studyrag/internal/domain"
	"studyrag/internal/usecase"
)

var (
	askQuestion   string
	askJSON       bool
	generateTopic string
	generateJSON  bool
)

var askCmd = &cobra.Command{
	Use:   "ask",
	Short: "Build a grounded answer prompt for a question",
	Long: `Retrieve the passages relevant to a question and render a prompt that
asks a model to answer only from them. When nothing relevant is indexed the
fixed not-found answer is printed instead.

Examples:
  studyrag ask -q "What do mitochondria produce?"
  studyrag ask -q "Explain osmosis" --json`,
	RunE: runAsk,
}

var generateCmd = &cobra.Command{
	Use:       "generate <summary|flashcards|quiz>",
	Short:     "Build a study material prompt",
	ValidArgs: materialTypeNames(),
	Args:      cobra.ExactArgs(1),
	Long: `Render a prompt for a summary, flashcards or a quiz. With --topic the
material is built from the passages relevant to that topic, otherwise from a
sample of chunks across all documents.

Examples:
  studyrag generate summary
  studyrag generate quiz --topic photosynthesis`,
	RunE: runGenerate,
}

func init() {
	rootCmd.AddCommand(askCmd, generateCmd)
	askCmd.Flags().StringVarP(&askQuestion, "query", "q", "", "question to answer (required)")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output as JSON")
	askCmd.MarkFlagRequired("query")

	generateCmd.Flags().StringVarP(&generateTopic, "topic", "t", "", "focus topic")
	generateCmd.Flags().BoolVar(&generateJSON, "json", false, "output as JSON")
}

func materialTypeNames() []string {
	names := make([]string, len(domain.MaterialTypes))
	for i, t := range domain.MaterialTypes {
		names[i] = string(t)
	}
	return names
}

func newStudyUseCase(cmd *cobra.Command) (*usecase.StudyUseCase, error) {
	engine, _, err := openEngine(cmd.Context())
	if err != nil {
		return nil, err
	}
	renderer, err := prompt.NewRenderer()
	if err != nil {
		return nil, fmt.Errorf("failed to load prompt templates: %w", err)
	}

	cfg := GetConfig()
	uc := usecase.NewStudyUseCase(engine, renderer, GetLogger())
	uc.TopK = cfg.Retrieve.TopK
	uc.MinSimilarity = cfg.Retrieve.MinSimilarity
	if cfg.Retrieve.TopicTopK > 0 {
		uc.TopicTopK = cfg.Retrieve.TopicTopK
	}
	if cfg.Retrieve.FullContextMax > 0 {
		uc.FullContextMax = cfg.Retrieve.FullContextMax
	}
	return uc, nil
}

func runAsk(cmd *cobra.Command, args []string) error {
	uc, err := newStudyUseCase(cmd)
	if err != nil {
		return err
	}

	ans, err := uc.Ask(cmd.Context(), askQuestion)
	if err != nil {
		return fmt.Errorf("ask failed: %w", err)
	}

	out := cmd.OutOrStdout()
	if askJSON {
		return writeJSON(out, ans)
	}

	fmt.Fprintln(out, ans.Answer)
	if len(ans.Sources) > 0 {
		fmt.Fprintf(out, "\nSources (confidence %.3f):\n", ans.Confidence)
		for _, src := range ans.Sources {
			fmt.Fprintf(out, "  - %s #%d (%.3f)\n", src.Filename, src.ChunkIndex, src.Similarity)
		}
	}
	return nil
}

func runGenerate(cmd *cobra.Command, args []string) error {
	uc, err := newStudyUseCase(cmd)
	if err != nil {
		return err
	}

	m, err := uc.Generate(cmd.Context(), strings.ToLower(args[0]), generateTopic)
	if err != nil {
		return fmt.Errorf("generate failed: %w", err)
	}

	if generateJSON {
		return writeJSON(cmd.OutOrStdout(), m)
	}
	fmt.Fprintln(cmd.OutOrStdout(), m.Content)
	return nil
}
