// Package main provides the codegraph CLI entry point: open, import,
// export, query, and algo subcommands wrapping package codegraph.
package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/codegraph/codegraph/pkg/algorithms"
	"github.com/codegraph/codegraph/pkg/cgconfig"
	"github.com/codegraph/codegraph/pkg/codegraph"
	"github.com/codegraph/codegraph/pkg/graphexport"
	"github.com/codegraph/codegraph/pkg/graphstore"
	"github.com/codegraph/codegraph/pkg/query"
)

var version = "0.1.0"

func main() {
	rootCmd := &cobra.Command{
		Use:   "codegraph",
		Short: "codegraph - a persistent, queryable graph database for code entities",
		Long: `codegraph stores the nodes and edges a language front-end extracts from
source code (files, functions, classes, calls, imports, inheritance) and
exposes graph algorithms, a fluent query builder, and multi-format export
over that store.`,
	}

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("codegraph v%s\n", version)
		},
	})

	openCmd := &cobra.Command{
		Use:   "open",
		Short: "Initialize a codegraph database directory",
		RunE:  runOpen,
	}
	openCmd.Flags().String("data-dir", "./data", "data directory")
	rootCmd.AddCommand(openCmd)

	importCmd := &cobra.Command{
		Use:   "import [file]",
		Short: "Import a portable JSON export into the store",
		Args:  cobra.ExactArgs(1),
		RunE:  runImport,
	}
	importCmd.Flags().String("data-dir", "./data", "data directory")
	rootCmd.AddCommand(importCmd)

	exportCmd := &cobra.Command{
		Use:   "export [file]",
		Short: "Export the store to a file",
		Args:  cobra.ExactArgs(1),
		RunE:  runExport,
	}
	exportCmd.Flags().String("data-dir", "./data", "data directory")
	exportCmd.Flags().String("format", "portable", "one of: portable, dot, json, csv, ntriples")
	rootCmd.AddCommand(exportCmd)

	queryCmd := &cobra.Command{
		Use:   "query",
		Short: "Run a filtered node query against the store",
		RunE:  runQuery,
	}
	queryCmd.Flags().String("data-dir", "./data", "data directory")
	queryCmd.Flags().String("kind", "", "node kind to filter on (File, Function, Class, ...)")
	queryCmd.Flags().String("name-contains", "", "substring to match against a node's name property")
	queryCmd.Flags().String("in-file", "", "restrict results to entities contained in this file path")
	rootCmd.AddCommand(queryCmd)

	algoCmd := &cobra.Command{
		Use:   "algo",
		Short: "Run a graph algorithm against the store",
	}
	algoCmd.PersistentFlags().String("data-dir", "./data", "data directory")

	bfsCmd := &cobra.Command{
		Use:   "bfs [source-node-id]",
		Short: "Breadth-first traversal from a node",
		Args:  cobra.ExactArgs(1),
		RunE:  runBFS,
	}
	bfsCmd.Flags().Int("max-depth", 0, "maximum depth, 0 for the configured ceiling")
	bfsCmd.Flags().String("edge-kind", "", "restrict traversal to this edge kind")
	algoCmd.AddCommand(bfsCmd)

	circularCmd := &cobra.Command{
		Use:   "circular-deps",
		Short: "List import cycles in the store",
		RunE:  runCircularDeps,
	}
	algoCmd.AddCommand(circularCmd)

	rootCmd.AddCommand(algoCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runOpen(cmd *cobra.Command, args []string) error {
	dataDir, _ := cmd.Flags().GetString("data-dir")

	g, err := codegraph.Open(dataDir)
	if err != nil {
		return fmt.Errorf("opening %s: %w", dataDir, err)
	}
	defer g.Close()

	fmt.Printf("codegraph database ready at %s\n", dataDir)
	return nil
}

func runImport(cmd *cobra.Command, args []string) error {
	dataDir, _ := cmd.Flags().GetString("data-dir")
	path := args[0]

	g, err := codegraph.Open(dataDir)
	if err != nil {
		return fmt.Errorf("opening %s: %w", dataDir, err)
	}
	defer g.Close()

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	ids, err := graphexport.ReadPortableJSON(g.Store(), f)
	if err != nil {
		return fmt.Errorf("importing %s: %w", path, err)
	}
	fmt.Printf("imported %d nodes from %s\n", len(ids), path)
	return nil
}

func runExport(cmd *cobra.Command, args []string) error {
	dataDir, _ := cmd.Flags().GetString("data-dir")
	format, _ := cmd.Flags().GetString("format")
	path := args[0]

	g, err := codegraph.Open(dataDir)
	if err != nil {
		return fmt.Errorf("opening %s: %w", dataDir, err)
	}
	defer g.Close()

	cfg := cgconfig.LoadFromEnv()
	opts := graphexport.DefaultOptions()
	opts.WarnAt = cfg.ExportSizeWarn
	opts.FailAt = cfg.ExportSizeFail

	if strings.ToLower(format) == "csv" {
		return exportCSV(g, path, opts)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	switch strings.ToLower(format) {
	case "portable":
		err = graphexport.WritePortableJSON(g.Store(), f)
	case "dot":
		err = graphexport.WriteDOT(g.Store(), f, opts)
	case "json":
		err = graphexport.WriteJSON(g.Store(), f, opts)
	case "ntriples":
		err = graphexport.WriteNTriples(g.Store(), f, opts)
	default:
		return fmt.Errorf("unknown export format %q", format)
	}
	if err != nil {
		return fmt.Errorf("exporting to %s: %w", path, err)
	}
	fmt.Printf("exported %s (%s) to %s\n", dataDir, format, path)
	return nil
}

// exportCSV writes the two CSV outputs, deriving a nodes and an edges
// file name from the path given (out.csv -> out.nodes.csv, out.edges.csv).
func exportCSV(g *codegraph.Graph, path string, opts graphexport.Options) error {
	base := strings.TrimSuffix(path, ".csv")
	nodesPath := base + ".nodes.csv"
	edgesPath := base + ".edges.csv"

	nf, err := os.Create(nodesPath)
	if err != nil {
		return fmt.Errorf("creating %s: %w", nodesPath, err)
	}
	defer nf.Close()
	if err := graphexport.WriteNodesCSV(g.Store(), nf, opts); err != nil {
		return fmt.Errorf("exporting to %s: %w", nodesPath, err)
	}

	ef, err := os.Create(edgesPath)
	if err != nil {
		return fmt.Errorf("creating %s: %w", edgesPath, err)
	}
	defer ef.Close()
	if err := graphexport.WriteEdgesCSV(g.Store(), ef, opts); err != nil {
		return fmt.Errorf("exporting to %s: %w", edgesPath, err)
	}

	fmt.Printf("exported csv to %s and %s\n", nodesPath, edgesPath)
	return nil
}

func runQuery(cmd *cobra.Command, args []string) error {
	dataDir, _ := cmd.Flags().GetString("data-dir")
	kind, _ := cmd.Flags().GetString("kind")
	nameContains, _ := cmd.Flags().GetString("name-contains")
	inFile, _ := cmd.Flags().GetString("in-file")

	g, err := codegraph.Open(dataDir)
	if err != nil {
		return fmt.Errorf("opening %s: %w", dataDir, err)
	}
	defer g.Close()

	q := query.New(g.Store())
	if kind != "" {
		q = q.ByKind(graphstore.NodeKind(kind))
	}
	if nameContains != "" {
		q = q.NameContains(nameContains)
	}
	if inFile != "" {
		q = q.InFile(inFile)
	}

	nodes, err := q.Execute()
	if err != nil {
		return fmt.Errorf("running query: %w", err)
	}
	for _, n := range nodes {
		fmt.Printf("%d\t%s\n", n.ID, n.Kind)
	}
	fmt.Printf("%d matches\n", len(nodes))
	return nil
}

func runBFS(cmd *cobra.Command, args []string) error {
	dataDir, _ := cmd.Flags().GetString("data-dir")
	maxDepth, _ := cmd.Flags().GetInt("max-depth")
	edgeKindFlag, _ := cmd.Flags().GetString("edge-kind")

	sourceID, err := strconv.ParseUint(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid node id %q: %w", args[0], err)
	}

	g, err := codegraph.Open(dataDir)
	if err != nil {
		return fmt.Errorf("opening %s: %w", dataDir, err)
	}
	defer g.Close()

	if maxDepth == 0 {
		maxDepth = cgconfig.LoadFromEnv().MaxTraversalDepth
	}

	var edgeKind *graphstore.EdgeKind
	if edgeKindFlag != "" {
		k := graphstore.EdgeKind(edgeKindFlag)
		edgeKind = &k
	}

	results, err := algorithms.BFS(g.Store(), graphstore.NodeID(sourceID), maxDepth, edgeKind)
	if err != nil {
		return fmt.Errorf("running bfs: %w", err)
	}
	for _, r := range results {
		fmt.Printf("%d\t%d\n", r.Node, r.Depth)
	}
	return nil
}

func runCircularDeps(cmd *cobra.Command, args []string) error {
	dataDir, _ := cmd.Flags().GetString("data-dir")

	g, err := codegraph.Open(dataDir)
	if err != nil {
		return fmt.Errorf("opening %s: %w", dataDir, err)
	}
	defer g.Close()

	cycles, err := g.CircularDeps()
	if err != nil {
		return fmt.Errorf("finding circular deps: %w", err)
	}
	if len(cycles) == 0 {
		fmt.Println("no import cycles found")
		return nil
	}
	for i, cycle := range cycles {
		ids := make([]string, len(cycle))
		for j, id := range cycle {
			ids[j] = strconv.FormatUint(uint64(id), 10)
		}
		fmt.Printf("cycle %d: %s\n", i+1, strings.Join(ids, " -> "))
	}
	return nil
}
