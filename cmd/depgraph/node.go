package main

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mineclover/depgraph/pkg/convert"
	"github.com/mineclover/depgraph/pkg/graph"
)

func newNodeCmd(cfgPath *string) *cobra.Command {
	nodeCmd := &cobra.Command{
		Use:   "node",
		Short: "Inspect individual nodes",
	}

	nodeCmd.AddCommand(&cobra.Command{
		Use:   "show <node-id>",
		Short: "Print a node and its metadata",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openFromFlag(*cfgPath)
			if err != nil {
				return err
			}
			defer db.Close()

			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid node id %q: %w", args[0], err)
			}
			n, err := db.Store.GetNode(graph.NodeID(id))
			if err != nil {
				return err
			}
			printNode(n)
			return nil
		},
	})

	return nodeCmd
}

// printNode renders a node's metadata bag uniformly regardless of which
// Engine produced it: BadgerEngine round-trips every value through JSON,
// so an int stored in a metadata bag comes back as a float64, while
// MemoryEngine never leaves Go's native types. convert normalizes both
// representations to one printed form.
func printNode(n *graph.Node) {
	fmt.Printf("%d\t%s\t%s\t%s\n", n.ID, n.Kind, n.Name, n.Identifier)
	keys := make([]string, 0, len(n.Metadata))
	for k := range n.Metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		v := n.Metadata[k]
		switch k {
		case "start_line", "end_line":
			if i, ok := convert.ToInt64(v); ok {
				fmt.Printf("  %s: %d\n", k, i)
				continue
			}
		case "tags":
			fmt.Printf("  %s: %v\n", k, convert.ToStringSlice(v))
			continue
		}
		fmt.Printf("  %s: %v\n", k, v)
	}
}
