//go:build mage

// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// sourceRoots are the directories holding the tool's Go packages.
var sourceRoots = []string{"cmd", "internal", "pkg"}

// Stats prints one JSON record with Go line counts per source root and the
// word count of the top-level Markdown documents.
func Stats() error {
	record := map[string]int{}
	for _, root := range sourceRoots {
		prod, test, err := goLines(root)
		if err != nil {
			return fmt.Errorf("counting %s: %w", root, err)
		}
		record["go_loc_prod_"+root] = prod
		record["go_loc_test_"+root] = test
		record["go_loc_prod"] += prod
		record["go_loc_test"] += test
	}
	record["go_loc"] = record["go_loc_prod"] + record["go_loc_test"]

	docs, err := filepath.Glob("*.md")
	if err != nil {
		return err
	}
	for _, doc := range docs {
		n, err := scanCount(doc, bufio.ScanWords)
		if err != nil {
			return err
		}
		record["doc_wc"] += n
	}

	line, err := json.Marshal(record)
	if err != nil {
		return err
	}
	fmt.Println(string(line))
	return nil
}

// goLines counts production and test lines of the .go files under root.
// A missing root counts as empty.
func goLines(root string) (prod, test int, err error) {
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return fs.SkipAll
			}
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".go") {
			return nil
		}
		n, err := scanCount(path, bufio.ScanLines)
		if err != nil {
			return err
		}
		if strings.HasSuffix(path, "_test.go") {
			test += n
		} else {
			prod += n
		}
		return nil
	})
	return prod, test, err
}

// scanCount returns the number of tokens split produces for the file.
func scanCount(path string, split bufio.SplitFunc) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	n := 0
	scanner := bufio.NewScanner(f)
	scanner.Split(split)
	for scanner.Scan() {
		n++
	}
	return n, scanner.Err()
}
