package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	queryText string
	queryTopK int
	queryJSON bool
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Search the tenant's documents",
	Long: `Search the tenant's documents directly with hybrid semantic+lexical
retrieval, bypassing the agent router.

Examples:
  agentrag query -t acme -q "refund policy"
  agentrag query -t acme -q "shipping times" --top-k 10 --json`,
	RunE: runQuery,
}

func init() {
	rootCmd.AddCommand(queryCmd)
	queryCmd.Flags().StringVarP(&queryText, "query", "q", "", "search query (required)")
	queryCmd.Flags().IntVarP(&queryTopK, "top-k", "k", 0, "number of results (default from config)")
	queryCmd.Flags().BoolVar(&queryJSON, "json", false, "output as JSON")
	queryCmd.MarkFlagRequired("query")
}

type queryResult struct {
	DocName  string  `json:"doc_name"`
	Start    int     `json:"start"`
	End      int     `json:"end"`
	Score    float64 `json:"score"`
	Semantic float64 `json:"semantic"`
	Lexical  float64 `json:"lexical"`
	Text     string  `json:"text"`
}

func runQuery(cmd *cobra.Command, args []string) error {
	d, err := openDeps(GetConfig())
	if err != nil {
		return err
	}
	defer d.Close()

	topK := cfg.Retrieve.TopK
	if queryTopK > 0 {
		topK = queryTopK
	}

	scored, err := d.retr.Retrieve(context.Background(), tenant, queryText, topK)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	results := make([]queryResult, 0, len(scored))
	for _, s := range scored {
		results = append(results, queryResult{
			DocName:  s.Doc.Name,
			Start:    s.Chunk.Start,
			End:      s.Chunk.End,
			Score:    s.Score,
			Semantic: s.Semantic,
			Lexical:  s.Lexical,
			Text:     s.Chunk.Text,
		})
	}

	if queryJSON {
		output, _ := json.MarshalIndent(results, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	if len(results) == 0 {
		fmt.Println("No results found.")
		return nil
	}

	fmt.Printf("Found %d results for: %s\n\n", len(results), queryText)
	for i, r := range results {
		fmt.Printf("--- [%d] %s chars %d-%d (score: %.3f, semantic: %.3f, lexical: %.3f) ---\n",
			i+1, r.DocName, r.Start, r.End, r.Score, r.Semantic, r.Lexical)
		text := r.Text
		if len(text) > 500 {
			text = text[:500] + "..."
		}
		fmt.Println(text)
		fmt.Println()
	}

	return nil
}
