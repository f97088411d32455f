// Command seedcheck validates seed files offline and optionally applies them
// to an in-memory store to report what a boot would write.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/noah-isme/sipal-api/internal/repository/memstore"
	"github.com/noah-isme/sipal-api/internal/seed"
)

type result struct {
	Path     string
	Problems []seed.Problem
	Summary  *seed.Summary
	Error    error
}

func main() {
	var (
		dryRun bool
		quiet  bool
	)
	flag.BoolVar(&dryRun, "dry-run", true, "apply each valid seed to an in-memory store and report counts")
	flag.BoolVar(&quiet, "quiet", false, "only print failing files")
	flag.Parse()

	paths := flag.Args()
	if len(paths) == 0 {
		matches, err := filepath.Glob(filepath.Join("seeds", "*.yaml"))
		if err != nil {
			log.Fatalf("failed to list seeds: %v", err)
		}
		paths = matches
	}
	if len(paths) == 0 {
		log.Fatal("no seed files given and none found under seeds/")
	}

	failed := 0
	for _, path := range paths {
		res := check(path, dryRun)
		if res.Error != nil || len(res.Problems) > 0 {
			failed++
		}
		printResult(res, quiet)
	}

	fmt.Printf("Checked %d file(s), %d failing\n", len(paths), failed)
	if failed > 0 {
		os.Exit(1)
	}
}

func check(path string, dryRun bool) result {
	res := result{Path: path}
	ds, err := seed.Load(path)
	if err != nil {
		var verr *seed.ValidationError
		if errors.As(err, &verr) {
			res.Problems = verr.Problems
			return res
		}
		res.Error = err
		return res
	}
	if !dryRun {
		return res
	}

	store := memstore.New()
	sum, err := seed.Apply(context.Background(), ds, seed.Stores{
		Masters:      store.Masters(),
		Careers:      store.Careers(),
		Achievements: store.Achievements(),
		Evaluations:  store.Evaluations(),
	}, nil)
	if err != nil {
		res.Error = err
		return res
	}
	res.Summary = &sum
	return res
}

func printResult(res result, quiet bool) {
	switch {
	case res.Error != nil:
		fmt.Printf("FAIL %s: %v\n", res.Path, res.Error)
	case len(res.Problems) > 0:
		fmt.Printf("FAIL %s (%d problems)\n", res.Path, len(res.Problems))
		for _, p := range res.Problems {
			fmt.Printf("  - %s\n", p)
		}
	case quiet:
	case res.Summary != nil:
		fmt.Printf("OK   %s masters=%d careers=%d achievements=%d evaluations=%d\n",
			res.Path, res.Summary.Masters, res.Summary.Careers, res.Summary.Achievements, res.Summary.Evaluations)
	default:
		fmt.Printf("OK   %s\n", res.Path)
	}
}
