// Copyright 2025 The WordServe Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Command idxpack builds an index set from "key value [value2]" text records.
//
//	idxpack -name meanings.text -out data/ < pairs.txt
//
// Records may come in any order; they are sorted by key with duplicate keys
// kept in input order.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/bastiangx/wordindex/internal/logger"
	"github.com/bastiangx/wordindex/internal/utils"
	"github.com/bastiangx/wordindex/pkg/dictionary"
	"github.com/charmbracelet/log"
)

func main() {
	input := flag.String("in", "", "Records file (default: stdin)")
	outDir := flag.String("out", "data/", "Directory the index set is written to")
	name := flag.String("name", "", "Index set name, e.g. meanings.text")
	configFile := flag.String("config", "", "Path to config.toml (default: the one wordindex uses)")
	debugMode := flag.Bool("d", false, "Toggle debug mode")
	flag.Parse()

	logger.Setup(*debugMode)

	if *name == "" {
		fmt.Fprintln(os.Stderr, "idxpack: -name is required")
		flag.Usage()
		os.Exit(2)
	}

	layout, err := resolveLayout(*configFile)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	var r io.Reader = os.Stdin
	if *input != "" {
		f, err := os.Open(*input)
		if err != nil {
			log.Fatalf("Failed to open records: %v", err)
		}
		defer f.Close()
		r = f
	}

	b, err := readRecords(r)
	if err != nil {
		log.Fatalf("Failed to read records: %v", err)
	}
	store, err := b.Build()
	if err != nil {
		log.Fatalf("Failed to build index: %v", err)
	}

	if err := utils.EnsureDir(*outDir); err != nil {
		log.Fatalf("Failed to create %s: %v", *outDir, err)
	}
	if err := dictionary.WriteSet(*outDir, *name, layout, store); err != nil {
		log.Fatalf("%v", err)
	}

	suffix := ""
	if store.HasValues2() {
		suffix = " +values2"
	}
	fmt.Fprintf(os.Stderr, "wrote %s (%s records%s) to %s\n",
		*name, utils.FormatWithCommas(store.Len()), suffix, utils.GetAbsolutePath(*outDir))
}
