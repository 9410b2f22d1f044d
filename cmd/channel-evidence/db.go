// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/channel-evidence/internal/artifact"
	"github.com/pdiddy/channel-evidence/internal/stmtdb"
)

var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Manage the local statement database (store, retrieve, export)",
	Long: `Db manages a local SQLite database built from collect artifacts. Use
subcommands to load an artifact, query statements, or export them.`,
}

// --- store subcommand ---

var dbStoreCmd = &cobra.Command{
	Use:   "store [artifact]",
	Short: "Load an artifact into the statement database",
	Long: `Store reads an artifact and indexes every gene's statements, evidence,
and source counts, with full-text search over evidence sentences. Genes
already stored from the same run are skipped; genes from an older run are
replaced.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runDBStore,
}

func runDBStore(cmd *cobra.Command, args []string) error {
	f, err := artifact.Read(artifactPath(args))
	if err != nil {
		return err
	}

	store, err := stmtdb.NewStore(storeConfig())
	if err != nil {
		return err
	}
	defer store.Close()

	summary, err := store.Ingest(context.Background(), f, os.Stdout)
	if err != nil {
		return err
	}
	if summary.Failed > 0 {
		return fmt.Errorf("%d gene(s) failed indexing", summary.Failed)
	}
	return nil
}

// --- retrieve subcommand ---

var dbRetrieveCmd = &cobra.Command{
	Use:   "retrieve [query]",
	Short: "Query stored statements with full-text search and filters",
	Long: `Retrieve searches evidence sentences with full-text search, filters by
gene, statement type, source, or agent, or combines both.`,
	RunE: runDBRetrieve,
}

func runDBRetrieve(cmd *cobra.Command, args []string) error {
	opts := queryOptsFromFlags(cmd, args)
	if opts.IsEmpty() {
		return fmt.Errorf("query or filter required: provide a search query, --gene, --type, --source, or --agent")
	}

	store, err := stmtdb.NewStore(storeConfig())
	if err != nil {
		return err
	}
	defer store.Close()

	results, err := store.Retrieve(context.Background(), opts)
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	return formatRetrieveOutput(results, jsonOutput)
}

func formatRetrieveOutput(results []stmtdb.QueryResult, jsonOutput bool) error {
	if jsonOutput {
		if results == nil {
			results = []stmtdb.QueryResult{}
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	if len(results) == 0 {
		fmt.Println("No results found.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-4s  %-10s  %-16s  %-36s  %-6s  %s\n",
		"Rank", "Gene", "Type", "Agents", "Belief", "Evidence")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 90))

	for i, r := range results {
		agents := strings.Join(r.AgentNames(), ", ")
		if len(agents) > 36 {
			agents = agents[:33] + "..."
		}
		fmt.Fprintf(os.Stdout, "%-4d  %-10s  %-16s  %-36s  %-6.2f  %d\n",
			i+1, r.Gene, r.Type, agents, r.Belief, len(r.Evidence))
	}

	fmt.Fprintf(os.Stdout, "\n%d results\n", len(results))
	return nil
}

// --- genes subcommand ---

var dbGenesCmd = &cobra.Command{
	Use:   "genes",
	Short: "List stored genes with their statement counts",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := stmtdb.NewStore(storeConfig())
		if err != nil {
			return err
		}
		defer store.Close()

		genes, err := store.Genes(context.Background())
		if err != nil {
			return err
		}
		for _, g := range genes {
			fmt.Printf("%-12s  %5d statements  %5d dropped  run %s\n",
				g.Gene, g.StatementCount, g.Dropped, g.RunID)
		}
		return nil
	},
}

// --- export subcommand ---

var dbExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export stored statements to YAML or JSON",
	Long: `Export writes all stored statements (or a filtered subset) to
export.yaml or export.json in the database directory. Supports the same
filter flags as retrieve for partial exports.`,
	RunE: runDBExport,
}

func runDBExport(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")

	store, err := stmtdb.NewStore(storeConfig())
	if err != nil {
		return err
	}
	defer store.Close()

	opts := queryOptsFromFlags(cmd, args)

	var path string
	switch format {
	case "yaml", "":
		path, err = store.ExportYAML(context.Background(), opts)
	case "json":
		path, err = store.ExportJSON(context.Background(), opts)
	default:
		return fmt.Errorf("unsupported format %q: use yaml or json", format)
	}
	if err != nil {
		return err
	}
	fmt.Println("Exported to", path)
	return nil
}

// --- shared helpers ---

func queryOptsFromFlags(cmd *cobra.Command, args []string) stmtdb.QueryOptions {
	queryText, _ := cmd.Flags().GetString("query")
	if queryText == "" && len(args) > 0 {
		queryText = strings.Join(args, " ")
	}

	gene, _ := cmd.Flags().GetString("gene")
	stmtType, _ := cmd.Flags().GetString("type")
	source, _ := cmd.Flags().GetString("source")
	agent, _ := cmd.Flags().GetString("agent")
	limit, _ := cmd.Flags().GetInt("limit")

	return stmtdb.QueryOptions{
		Query:      queryText,
		Gene:       gene,
		Type:       stmtType,
		Source:     source,
		Agent:      agent,
		MaxResults: limit,
	}
}

func addFilterFlags(cmd *cobra.Command, suffix string) {
	cmd.Flags().String("query", "", "full-text search over evidence sentences"+suffix)
	cmd.Flags().String("gene", "", "filter by collected gene"+suffix)
	cmd.Flags().String("type", "", "filter by statement type (e.g. Complex)"+suffix)
	cmd.Flags().String("source", "", "filter by evidence source with a positive count"+suffix)
	cmd.Flags().String("agent", "", "filter by agent name"+suffix)
}

func init() {
	// Shared flags on the parent command, inherited by subcommands.
	dbCmd.PersistentFlags().String("db-dir", defaultDBDir, "directory holding statements.db and exports")
	dbCmd.PersistentFlags().Int("max-results", 50, "default maximum number of query results")
	viper.BindPFlag("store.db_dir", dbCmd.PersistentFlags().Lookup("db-dir"))
	viper.BindPFlag("store.max_results", dbCmd.PersistentFlags().Lookup("max-results"))

	// Retrieve flags.
	addFilterFlags(dbRetrieveCmd, "")
	dbRetrieveCmd.Flags().Int("limit", 0, "maximum results (0 = use default)")
	dbRetrieveCmd.Flags().Bool("json", false, "output results as JSON")

	// Export flags.
	addFilterFlags(dbExportCmd, " for partial export")
	dbExportCmd.Flags().String("format", "yaml", "export format: yaml or json")
	dbExportCmd.Flags().Int("limit", 0, "maximum statements to export (0 = all)")

	// Wire subcommands.
	dbCmd.AddCommand(dbStoreCmd)
	dbCmd.AddCommand(dbRetrieveCmd)
	dbCmd.AddCommand(dbGenesCmd)
	dbCmd.AddCommand(dbExportCmd)

	rootCmd.AddCommand(dbCmd)
}
