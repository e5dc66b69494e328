package main

import (
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"syftbench/internal/suite"
)

// listCmd prints the collected benchmark suite.
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the collected benchmark cases",
	Long: `Collects the benchmark suite from the configured test directory and
prints the case count per directory. Useful for sanity-checking a
benchmark tree before submitting a run against it.`,
	RunE: runList,
}

func runList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	cases, err := suite.Collect(cfg.Suite.TestDir)
	if err != nil {
		return err
	}

	perDir := make(map[string]int)
	var dirs []string
	for _, c := range cases {
		dir := filepath.Dir(c.Formula)
		if perDir[dir] == 0 {
			dirs = append(dirs, dir)
		}
		perDir[dir]++
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	for _, dir := range dirs {
		fmt.Fprintf(w, "%s\t%d\n", dir, perDir[dir])
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Printf("%d cases, %d directories\n", len(cases), len(dirs))
	return nil
}
