package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/claude/liftplan/internal/config"
	"github.com/claude/liftplan/internal/importer"
	"github.com/claude/liftplan/internal/logging"
	"github.com/claude/liftplan/internal/storage"
	"github.com/claude/liftplan/internal/upload"
)

func main() {
	configPath := flag.String("config", "", "path to config file (defaults apply when empty)")
	file := flag.String("file", "", "profiles document to import (- for stdin); gzip is detected")
	export := flag.String("export", "", "write the stored document to this path (- for stdout) instead of importing")
	compress := flag.Bool("gzip", false, "gzip the exported document")
	mode := flag.String("mode", "replace", "import mode: replace or merge")
	dryRun := flag.Bool("dry-run", false, "validate and report counts without saving")
	serverURL := flag.String("server", "", "send to / read from a running liftplan server instead of local storage")
	flag.Parse()

	if (*file == "") == (*export == "") {
		fmt.Fprintf(os.Stderr, "Usage: liftplan-import [-config config.yaml] [-server URL] (-file profiles.json [-mode replace|merge] [-dry-run] | -export out.json [-gzip])\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	// Load config
	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Exported documents may go to stdout; keep logs off it.
	log, logCloser := logging.NewWithWriter(cfg.Log, os.Stderr)
	defer logCloser.Close()

	ctx := context.Background()
	if *serverURL != "" {
		if err := runRemote(ctx, log, upload.NewClient(*serverURL), *file, *export, *mode, *dryRun); err != nil {
			log.Error("remote transfer failed", "server", *serverURL, "error", err)
			os.Exit(1)
		}
		return
	}

	store, err := storage.Open(ctx, storage.OptionsFromConfig(cfg))
	if err != nil {
		log.Error("failed to open storage", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	if *export != "" {
		if err := runExport(ctx, store, *export, *compress); err != nil {
			log.Error("export failed", "error", err)
			os.Exit(1)
		}
		log.Info("export complete", "path", *export, "gzip", *compress)
		return
	}

	importMode, err := importer.ParseMode(*mode)
	if err != nil {
		log.Error("invalid mode", "error", err)
		os.Exit(1)
	}
	if *dryRun {
		log.Info("DRY RUN mode: nothing will be saved")
	}

	in, source, err := openInput(*file)
	if err != nil {
		log.Error("failed to open file", "error", err)
		os.Exit(1)
	}
	defer in.Close()

	// Run import
	imp := importer.New(store, log, importMode, *dryRun)
	stats, err := imp.Import(ctx, in, source)
	if err != nil {
		log.Error("import failed", "error", err)
		printStats(log, stats)
		os.Exit(1)
	}

	printStats(log, stats)
	log.Info("import complete")
}

func openInput(path string) (io.ReadCloser, string, error) {
	if path == "-" {
		return io.NopCloser(os.Stdin), "stdin", nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, "", err
	}
	return f, filepath.Base(path), nil
}

func createOutput(path string) (io.WriteCloser, error) {
	if path == "-" {
		return nopWriteCloser{os.Stdout}, nil
	}
	return os.Create(path)
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

// runRemote pushes or pulls the document through a liftplan server.
func runRemote(ctx context.Context, log *slog.Logger, c *upload.Client, file, export, mode string, dryRun bool) error {
	if export != "" {
		out, err := createOutput(export)
		if err != nil {
			return err
		}
		if err := c.Pull(ctx, out); err != nil {
			out.Close()
			return err
		}
		log.Info("export complete", "path", export)
		return out.Close()
	}

	importMode, err := importer.ParseMode(mode)
	if err != nil {
		return err
	}
	in, _, err := openInput(file)
	if err != nil {
		return err
	}
	defer in.Close()

	res, err := c.Push(ctx, in, importMode, dryRun)
	if err != nil {
		return err
	}
	log.Info("import complete",
		"profiles", res.Profiles,
		"exercises", res.Exercises,
		"calibrations", res.Calibrations,
		"history_entries", res.HistoryEntries,
		"active", res.Active,
		"dry_run", res.DryRun,
	)
	return nil
}

func runExport(ctx context.Context, store storage.DocumentStore, path string, compress bool) error {
	out, err := createOutput(path)
	if err != nil {
		return err
	}
	if err := importer.Export(ctx, store, out, compress); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func printStats(log *slog.Logger, stats *importer.Stats) {
	if stats == nil {
		return
	}
	log.Info("import stats",
		"profiles", stats.Profiles,
		"exercises", stats.Exercises,
		"calibrations", stats.Calibrations,
		"history_entries", stats.HistoryEntries,
		"active", stats.Active,
	)
}
