// Package main provides the depgraph CLI entry point.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mineclover/depgraph/pkg/config"
	"github.com/mineclover/depgraph/pkg/depgraph"
)

var version = "0.1.0"

func main() {
	var cfgPath string

	rootCmd := &cobra.Command{
		Use:   "depgraph",
		Short: "depgraph - a code dependency graph engine",
		Long: `depgraph stores a codebase's files, symbols, and their
relationships as a property graph, and answers hierarchical, transitive,
and containment-projected queries over an extensible edge-type taxonomy.`,
	}
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "path to a depgraph YAML config file")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("depgraph v%s\n", version)
		},
	})

	rootCmd.AddCommand(&cobra.Command{
		Use:   "stats",
		Short: "Print node and edge counts for the configured store",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openFromFlag(cfgPath)
			if err != nil {
				return err
			}
			defer db.Close()

			stats, err := db.Store.Statistics()
			if err != nil {
				return err
			}
			fmt.Printf("nodes: %d\n", stats.TotalNodes)
			for kind, n := range stats.NodesByKind {
				fmt.Printf("  %s: %d\n", kind, n)
			}
			fmt.Printf("edges: %d\n", stats.TotalEdges)
			for t, n := range stats.EdgesByType {
				fmt.Printf("  %s: %d\n", t, n)
			}
			return nil
		},
	})

	rootCmd.AddCommand(newQueryCmd(&cfgPath))
	rootCmd.AddCommand(newNodeCmd(&cfgPath))

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func openFromFlag(cfgPath string) (*depgraph.DB, error) {
	cfg := config.LoadFromEnv()
	if cfgPath != "" {
		fileCfg, err := config.LoadFromYAML(cfgPath)
		if err != nil {
			return nil, err
		}
		cfg = fileCfg
	}
	return depgraph.Open(cfg)
}
