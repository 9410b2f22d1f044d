//go:build mage

package main

import (
	"fmt"
	"os"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// artifactPath is the default artifact written by Collect.
const artifactPath = "out/dark_ion_channel_stmts_v1.gob"

// Pipeline groups the data targets.
type Pipeline mg.Namespace

// Collect fetches and filters statements for the dark ion channels in
// data/IDG_target_final.csv and writes out/dark_ion_channel_stmts_v1.gob.
func (Pipeline) Collect() error {
	ensureBuilt()
	if _, err := os.Stat("data/IDG_target_final.csv"); err != nil {
		return fmt.Errorf("target table missing (run mage init and add data/IDG_target_final.csv): %w", err)
	}
	return sh.RunV(binPath, "collect", "--output", artifactPath)
}

// Store loads the collected artifact into the local statement database.
func (Pipeline) Store() error {
	mg.Deps(Pipeline.Collect)
	return sh.RunV(binPath, "db", "store", artifactPath)
}

// Export writes the collected artifact as TSV next to it.
func (Pipeline) Export() error {
	ensureBuilt()
	return sh.RunV(binPath, "export", artifactPath, "--format", "tsv", "--out", "out/dark_ion_channel_stmts_v1.tsv")
}
