// Command sweep is the one-shot trigger: it connects to the browser, runs a
// single sweep (or restore, or pattern dry run), prints a summary, and exits.
// Bind it to an OS hotkey for keyboard-driven cleanup.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/dgnsrekt/tab_janitor/internal/batch"
	"github.com/dgnsrekt/tab_janitor/internal/cdptab"
	"github.com/dgnsrekt/tab_janitor/internal/config"
	"github.com/dgnsrekt/tab_janitor/internal/dedup"
	"github.com/dgnsrekt/tab_janitor/internal/history"
	"github.com/dgnsrekt/tab_janitor/internal/janitor"
	"github.com/dgnsrekt/tab_janitor/internal/rules"
)

func main() {
	pattern := flag.String("pattern", "", "sweep tabs matching this regular expression instead of the default base-URL rule")
	name := flag.String("name", "", "label for a -pattern sweep, or a saved rule name to run")
	test := flag.Bool("test", false, "dry-run: report what -pattern would match, close nothing")
	preview := flag.Bool("preview", false, "dry-run: report what a default sweep would close")
	restore := flag.Bool("restore", false, "reopen the last closed batch instead of sweeping")
	flag.Parse()

	// The CLI logs warnings and errors only; results go to stdout.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})))

	cfg, err := config.Load()
	if err != nil {
		fatalf("load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	registry := cdptab.NewRegistry()
	host := cdptab.NewClient(cfg.CDPURL(), registry)
	if err := host.Connect(ctx); err != nil {
		fatalf("connect to browser at %s: %v", cfg.CDPURL(), err)
	}
	defer func() { _ = host.Close() }()

	ruleStore, err := rules.NewStore(cfg.RulesPath())
	if err != nil {
		fatalf("open rule store: %v", err)
	}
	batchStore, err := batch.NewStore(cfg.BatchPath())
	if err != nil {
		fatalf("open batch store: %v", err)
	}
	journal := history.NewJournal(cfg.JournalPath(), cfg.JournalMaxSizeMB)
	defer func() { _ = journal.Close() }()

	svc := janitor.NewService(host, ruleStore, batchStore, journal, dedup.NewClassifier(cfg.InternalPrefixes))

	switch {
	case *restore:
		res, err := svc.RestoreLast(ctx)
		if err != nil {
			fatalf("restore: %v", err)
		}
		if res.RestoredCount == 0 {
			fmt.Println("nothing to restore")
			return
		}
		fmt.Printf("restored %d tab(s)\n", res.RestoredCount)
		for _, url := range res.Restored {
			fmt.Println("  " + url)
		}

	case *test:
		if *pattern == "" {
			fatalf("-test requires -pattern")
		}
		res, err := svc.TestPattern(ctx, *pattern)
		if err != nil {
			fatalf("test pattern: %v", err)
		}
		fmt.Printf("pattern %q matches %d tab(s): %v\n", res.Pattern, res.MatchCount, res.MatchIDs)

	case *preview:
		p, err := svc.PreviewSweep(ctx)
		if err != nil {
			fatalf("preview: %v", err)
		}
		if p.CloseCount == 0 {
			fmt.Println("no duplicates")
			return
		}
		fmt.Printf("%d tab(s) would close across %d group(s)\n", p.CloseCount, len(p.Groups))
		for _, g := range p.Groups {
			fmt.Printf("  %s: close %v, keep %d\n", g.Key, g.CloseIDs, g.KeepID)
		}

	case *pattern != "":
		res, err := svc.SweepPattern(ctx, *name, *pattern)
		if err != nil {
			fatalf("sweep pattern: %v", err)
		}
		printSweep(res)

	case *name != "":
		res, err := svc.SweepSaved(ctx, *name)
		if err != nil {
			fatalf("sweep rule %q: %v", *name, err)
		}
		printSweep(res)

	default:
		res, err := svc.SweepDefault(ctx)
		if err != nil {
			fatalf("sweep: %v", err)
		}
		printSweep(res)
	}
}

func printSweep(res janitor.SweepResult) {
	if res.ClosedCount == 0 {
		fmt.Println("no duplicates")
		return
	}
	fmt.Printf("closed %d tab(s) (rule %s, batch %s)\n", res.ClosedCount, res.Rule, res.BatchID)
	for _, t := range res.Closed {
		fmt.Println("  " + t.URL)
	}
	if res.Skipped > 0 {
		fmt.Printf("skipped %d stale tab(s)\n", res.Skipped)
	}
	if res.Failed > 0 {
		fmt.Printf("failed to close %d tab(s), see logs\n", res.Failed)
	}
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "sweep: "+format+"\n", args...)
	os.Exit(1)
}
