// resgraph is the command-line front end for the resource-model graph
// pipeline: import and export serialized graphs, carve delegation
// models out of a resource model, merge them into a combined broker
// model, and reduce that to a per-site query model.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/openbroker/resgraph/pkg/adm"
	"github.com/openbroker/resgraph/pkg/agegraph"
	"github.com/openbroker/resgraph/pkg/bqm"
	"github.com/openbroker/resgraph/pkg/cbm"
	"github.com/openbroker/resgraph/pkg/config"
	"github.com/openbroker/resgraph/pkg/logging"
	"github.com/openbroker/resgraph/pkg/memgraph"
	"github.com/openbroker/resgraph/pkg/propgraph"
	"github.com/openbroker/resgraph/pkg/snapshot"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "import":
		err = runImport(os.Args[2:])
	case "export":
		err = runExport(os.Args[2:])
	case "adms":
		err = runADMs(os.Args[2:])
	case "merge":
		err = runMerge(os.Args[2:])
	case "bqm":
		err = runBQM(os.Args[2:])
	case "help", "-h", "--help":
		usage()
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", os.Args[1])
		usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprint(os.Stderr, `Usage: resgraph <command> [flags]

Commands:
  import   load a serialized graph into the configured backend
  export   serialize a stored graph to a file
  adms     partition a resource model into per-delegation models
  merge    merge delegation models into a combined broker model
  bqm      reduce a combined model to its per-site view

Run 'resgraph <command> -h' for command flags.
`)
}

// env assembles the pieces every command needs.
type env struct {
	cfg   *config.Config
	log   logging.Logger
	store propgraph.Store
	close func()
}

func setup(configPath string) (*env, error) {
	cfg := config.Default()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	log := logging.NewJSONLogger(os.Stderr, logging.ParseLevel(cfg.LogLevel))

	e := &env{cfg: cfg, log: log, close: func() {}}
	switch cfg.Backend {
	case "memory":
		e.store = memgraph.NewSharedStoreWithConfig(memgraph.StoreConfig{Logger: log})
	case "disjoint":
		e.store = memgraph.NewDisjointStoreWithConfig(memgraph.StoreConfig{Logger: log})
	case "age":
		store, err := agegraph.NewStore(context.Background(), agegraph.Config{
			DatabaseURL:     cfg.DatabaseURL,
			GraphName:       cfg.GraphName,
			ImportRetries:   cfg.Import.Retries,
			ImportBackoff:   cfg.Import.Backoff.Std(),
			ImportBatchSize: cfg.Import.BatchSize,
			Logger:          log,
		})
		if err != nil {
			return nil, err
		}
		e.store = store
		e.close = func() { store.Close() }
	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
	return e, nil
}

func importFile(store propgraph.Store, path, graphID string) (propgraph.Graph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return store.ImportGraph(string(data), propgraph.FormatGraphML, graphID)
}

func exportFile(g propgraph.Graph, f propgraph.Format, path string) error {
	serialized, err := g.Serialize(f)
	if err != nil {
		return err
	}
	return os.WriteFile(path, []byte(serialized), 0o644)
}

func parseFormat(s string) (propgraph.Format, error) {
	switch s {
	case "graphml":
		return propgraph.FormatGraphML, nil
	case "node-link":
		return propgraph.FormatJSONNodeLink, nil
	case "edge-list":
		return propgraph.FormatJSONEdgeList, nil
	default:
		return 0, fmt.Errorf("unknown format %q", s)
	}
}

func runImport(args []string) error {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	configPath := fs.String("config", "", "configuration file")
	file := fs.String("file", "", "serialized graph file")
	graphID := fs.String("graph", "", "target graph id")
	fs.Parse(args)
	if *file == "" || *graphID == "" {
		return fmt.Errorf("import requires -file and -graph")
	}

	e, err := setup(*configPath)
	if err != nil {
		return err
	}
	defer e.close()

	g, err := importFile(e.store, *file, *graphID)
	if err != nil {
		return err
	}
	if err := g.Validate(); err != nil {
		return err
	}
	nodes, err := g.ListNodes()
	if err != nil {
		return err
	}
	fmt.Printf("imported %s: %d nodes\n", *graphID, len(nodes))
	return nil
}

func runExport(args []string) error {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	configPath := fs.String("config", "", "configuration file")
	graphID := fs.String("graph", "", "graph id to export")
	format := fs.String("format", "graphml", "graphml, node-link or edge-list")
	out := fs.String("out", "", "output file")
	fs.Parse(args)
	if *graphID == "" || *out == "" {
		return fmt.Errorf("export requires -graph and -out")
	}
	f, err := parseFormat(*format)
	if err != nil {
		return err
	}

	e, err := setup(*configPath)
	if err != nil {
		return err
	}
	defer e.close()

	if err := exportFile(e.store.Graph(*graphID), f, *out); err != nil {
		return err
	}
	fmt.Printf("exported %s to %s\n", *graphID, *out)
	return nil
}

func runADMs(args []string) error {
	fs := flag.NewFlagSet("adms", flag.ExitOnError)
	configPath := fs.String("config", "", "configuration file")
	in := fs.String("in", "", "resource model file")
	outDir := fs.String("out-dir", ".", "directory for generated model files")
	fs.Parse(args)
	if *in == "" {
		return fmt.Errorf("adms requires -in")
	}

	e, err := setup(*configPath)
	if err != nil {
		return err
	}
	defer e.close()

	arm, err := importFile(e.store, *in, "arm")
	if err != nil {
		return err
	}
	adms, err := adm.NewGenerator(e.store, e.log, nil).GenerateADMs(arm)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		return err
	}
	ids := make([]string, 0, len(adms))
	for id := range adms {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		path := filepath.Join(*outDir, id+".graphml")
		if err := exportFile(adms[id], propgraph.FormatGraphML, path); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", path)
	}
	return nil
}

func runMerge(args []string) error {
	fs := flag.NewFlagSet("merge", flag.ExitOnError)
	configPath := fs.String("config", "", "configuration file")
	out := fs.String("out", "cbm.graphml", "combined model output file")
	snapshotName := fs.String("snapshot", "", "save a snapshot of the combined model under this name")
	fs.Parse(args)
	if fs.NArg() == 0 {
		return fmt.Errorf("merge requires delegation model files as arguments")
	}

	e, err := setup(*configPath)
	if err != nil {
		return err
	}
	defer e.close()

	broker, err := cbm.NewBroker(e.store, "cbm", e.log, nil)
	if err != nil {
		return err
	}
	for _, path := range fs.Args() {
		admID := filepath.Base(path)
		if ext := filepath.Ext(admID); ext != "" {
			admID = admID[:len(admID)-len(ext)]
		}
		g, err := importFile(e.store, path, admID)
		if err != nil {
			return err
		}
		if err := broker.MergeADM(g); err != nil {
			return err
		}
		fmt.Printf("merged %s\n", admID)
	}

	if *snapshotName != "" {
		repo, err := snapshot.NewRepository(e.cfg.SnapshotDir)
		if err != nil {
			return err
		}
		if err := repo.Save(*snapshotName, broker.Graph()); err != nil {
			return err
		}
		fmt.Printf("snapshot saved to %s\n", repo.Path(*snapshotName))
	}
	return exportFile(broker.Graph(), propgraph.FormatGraphML, *out)
}

func runBQM(args []string) error {
	fs := flag.NewFlagSet("bqm", flag.ExitOnError)
	configPath := fs.String("config", "", "configuration file")
	in := fs.String("in", "", "combined model file")
	out := fs.String("out", "bqm.graphml", "site view output file")
	fs.Parse(args)
	if *in == "" {
		return fmt.Errorf("bqm requires -in")
	}

	e, err := setup(*configPath)
	if err != nil {
		return err
	}
	defer e.close()

	src, err := importFile(e.store, *in, "cbm")
	if err != nil {
		return err
	}
	view, err := bqm.NewAggregator(e.store, e.log, nil).Aggregate(src, "bqm")
	if err != nil {
		return err
	}
	return exportFile(view, propgraph.FormatGraphML, *out)
}
