// Command lanternctl is a thin external collaborator over the lantern
// engine: it can bulk-ingest a JSON-lines document file against a TOML
// schema and run a single query, the shape
// original_source/meilidb/examples/create-database.rs demonstrates
// (open a store, build a schema, push a batch, commit, then query) —
// translated to Go idiom rather than transliterated, and built on
// spf13/cobra for subcommand dispatch rather than the Rust example's
// argument parsing.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/wizenheimer/lantern"
	"github.com/wizenheimer/lantern/query"
	"github.com/wizenheimer/lantern/schema"
	"github.com/wizenheimer/lantern/tokenizer"
)

var (
	dataDir   string
	indexName string
)

func main() {
	root := &cobra.Command{
		Use:   "lanternctl",
		Short: "Bulk-ingest and query a lantern full-text index",
	}
	root.PersistentFlags().StringVar(&dataDir, "data", "./lantern-data", "engine base directory")
	root.PersistentFlags().StringVar(&indexName, "index", "default", "index name")

	ingestCmd := &cobra.Command{
		Use:   "ingest <schema.toml> <documents.jsonl>",
		Short: "Create (or reuse) an index and ingest a JSON-lines document file",
		Args:  cobra.ExactArgs(2),
		RunE:  runIngest,
	}

	searchCmd := &cobra.Command{
		Use:   "search <query text>",
		Short: "Run a single query against an existing index",
		Args:  cobra.ExactArgs(1),
		RunE:  runSearch,
	}
	searchCmd.Flags().Int("offset", 0, "pagination offset")
	searchCmd.Flags().Int("length", query.DefaultLength, "pagination length")

	root.AddCommand(ingestCmd, searchCmd)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runIngest(cmd *cobra.Command, args []string) error {
	schemaFile, docsFile := args[0], args[1]

	rawSchema, err := os.ReadFile(schemaFile)
	if err != nil {
		return fmt.Errorf("read schema file: %w", err)
	}
	sch, err := schema.LoadTOML(rawSchema)
	if err != nil {
		return fmt.Errorf("parse schema file: %w", err)
	}

	logger := slog.Default()
	eng := lantern.NewEngine(dataDir, logger)
	defer eng.Close()

	stop := tokenizer.NewStopWords(defaultStopWords)
	if err := eng.CreateIndex(indexName, sch, stop); err != nil {
		if err := eng.OpenIndex(indexName, stop); err != nil {
			return fmt.Errorf("open index %q: %w", indexName, err)
		}
	}

	f, err := os.Open(docsFile)
	if err != nil {
		return fmt.Errorf("open documents file: %w", err)
	}
	defer f.Close()

	const batchSize = 500
	var batch []map[string]any
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 8*1024*1024)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := eng.Commit(context.Background(), indexName, batch, nil); err != nil {
			return err
		}
		logger.Info("ingested batch", "count", len(batch))
		batch = batch[:0]
		return nil
	}

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var doc map[string]any
		if err := json.Unmarshal(line, &doc); err != nil {
			return fmt.Errorf("parse document: %w", err)
		}
		batch = append(batch, doc)
		if len(batch) >= batchSize {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scan documents file: %w", err)
	}
	return flush()
}

func runSearch(cmd *cobra.Command, args []string) error {
	logger := slog.Default()
	eng := lantern.NewEngine(dataDir, logger)
	defer eng.Close()

	stop := tokenizer.NewStopWords(defaultStopWords)
	if err := eng.OpenIndex(indexName, stop); err != nil {
		return fmt.Errorf("open index %q: %w", indexName, err)
	}

	offset, _ := cmd.Flags().GetInt("offset")
	length, _ := cmd.Flags().GetInt("length")

	hits, err := eng.Search(cmd.Context(), indexName, query.Query{
		Text:   args[0],
		Offset: offset,
		Length: length,
	})
	if err != nil {
		return err
	}

	sch, err := eng.Schema(indexName)
	if err != nil {
		return err
	}
	for _, hit := range hits {
		encoded, err := json.Marshal(hitAttributesByName(sch, hit))
		if err != nil {
			return err
		}
		fmt.Printf("%d\t%s\n", hit.ID, encoded)
	}
	return nil
}

func hitAttributesByName(sch *schema.Schema, hit query.Hit) map[string]string {
	out := make(map[string]string, len(hit.Attributes))
	for attr, value := range hit.Attributes {
		out[sch.AttributeName(attr)] = value
	}
	return out
}

var defaultStopWords = []string{
	"a", "an", "and", "are", "as", "at", "be", "by", "for", "from",
	"has", "he", "in", "is", "it", "its", "of", "on", "that", "the",
	"to", "was", "were", "will", "with",
}
