// Package main provides the entry point for latentscope, a command line tool for
// judging the quality of a collection of text embeddings. It reads vectors from
// files, Qdrant or SQLite, projects them with PCA, clusters them with k-means and
// reports on their pairwise cosine similarity, in a terminal UI or as a report.
package main

import (
	"os"

	"github.com/alDuncanson/latentscope/cli"
)

// Build variables set by ldflags
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	cmd := cli.NewRootCommand(version, commit, date)
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
