package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"studyrag/internal/adapter/fs"
	"studyrag/internal/domain"
)

var (
	addID    string
	addName  string
	listJSON bool
)

var addCmd = &cobra.Command{
	Use:   "add <file|->",
	Short: "Add a document to the index",
	Long: `Add a text document to the index. Use "-" to read the text from stdin.
Adding a document with an existing id replaces it.

Examples:
  studyrag add notes/biology.txt
  studyrag add --id bio-101 notes/biology.txt
  pbpaste | studyrag add - --name lecture-3.txt`,
	Args: cobra.ExactArgs(1),
	RunE: runAdd,
}

var removeCmd = &cobra.Command{
	Use:     "remove <doc-id>...",
	Aliases: []string{"rm"},
	Short:   "Remove documents from the index",
	Args:    cobra.MinimumNArgs(1),
	RunE:    runRemove,
}

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List indexed documents",
	Args:    cobra.NoArgs,
	RunE:    runList,
}

func init() {
	rootCmd.AddCommand(addCmd, removeCmd, listCmd)
	addCmd.Flags().StringVar(&addID, "id", "", "document id (default is a random UUID)")
	addCmd.Flags().StringVar(&addName, "name", "", "display filename (default is the file's base name)")
	listCmd.Flags().BoolVar(&listJSON, "json", false, "output as JSON")
}

func runAdd(cmd *cobra.Command, args []string) error {
	text, name, err := readInput(args[0])
	if err != nil {
		return err
	}
	if addName != "" {
		name = addName
	}
	id := addID
	if id == "" {
		id = uuid.NewString()
	}

	engine, _, err := openEngine(cmd.Context())
	if err != nil {
		return err
	}
	if err := engine.AddDocument(cmd.Context(), id, text, name); err != nil {
		return fmt.Errorf("failed to add %s: %w", name, err)
	}

	doc, _ := engine.Document(id)
	fmt.Fprintf(cmd.OutOrStdout(), "Added %s as %s (%d chunks)\n", name, id, doc.ChunkCount())
	return nil
}

func readInput(arg string) (text, name string, err error) {
	if arg == "-" {
		data, err := io.ReadAll(io.LimitReader(os.Stdin, fs.DefaultMaxBytes+1))
		if err != nil {
			return "", "", fmt.Errorf("failed to read stdin: %w", err)
		}
		if len(data) > fs.DefaultMaxBytes {
			return "", "", fmt.Errorf("stdin exceeds %d bytes", fs.DefaultMaxBytes)
		}
		return strings.ToValidUTF8(string(data), "\uFFFD"), "stdin", nil
	}

	text, err = fs.NewTextReader().ReadFile(arg)
	if err != nil {
		return "", "", fmt.Errorf("failed to read %s: %w", arg, err)
	}
	return text, filepath.Base(arg), nil
}

func runRemove(cmd *cobra.Command, args []string) error {
	engine, _, err := openEngine(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, id := range args {
		if _, ok := engine.Document(id); !ok {
			fmt.Fprintf(out, "Not found: %s\n", id)
			continue
		}
		if err := engine.RemoveDocument(cmd.Context(), id); err != nil {
			return fmt.Errorf("failed to remove %s: %w", id, err)
		}
		fmt.Fprintf(out, "Removed %s\n", id)
	}
	return nil
}

type documentJSON struct {
	ID         string `json:"doc_id"`
	Filename   string `json:"filename"`
	Chunks     int    `json:"chunk_count"`
	TextLength int    `json:"text_length"`
	AddedAt    string `json:"added_at"`
}

func runList(cmd *cobra.Command, args []string) error {
	engine, _, err := openEngine(cmd.Context())
	if err != nil {
		return err
	}
	docs := engine.Documents()
	out := cmd.OutOrStdout()

	if listJSON {
		items := make([]documentJSON, len(docs))
		for i, d := range docs {
			items[i] = toDocumentJSON(d)
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(items)
	}

	if len(docs) == 0 {
		fmt.Fprintln(out, "No documents indexed.")
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tFILENAME\tCHUNKS\tCHARS\tADDED")
	for _, d := range docs {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%s\n", d.ID, d.Filename, d.ChunkCount(), d.TextLength, d.AddedAt.Format(time.DateTime))
	}
	return tw.Flush()
}

func toDocumentJSON(d domain.Document) documentJSON {
	return documentJSON{
		ID:         d.ID,
		Filename:   d.Filename,
		Chunks:     d.ChunkCount(),
		TextLength: d.TextLength,
		AddedAt:    d.AddedAt.Format(time.RFC3339),
	}
}
