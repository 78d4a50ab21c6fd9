package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mineclover/depgraph/pkg/graph"
)

func newQueryCmd(cfgPath *string) *cobra.Command {
	queryCmd := &cobra.Command{
		Use:   "query",
		Short: "Run a query against the graph",
	}

	var includeDescendants, includeAncestors bool
	hierarchicalCmd := &cobra.Command{
		Use:   "hierarchical <node-id> <edge-type>",
		Short: "List nodes reachable via edge-type, widened by its hierarchy",
		Args:  cobra.ExactArgs(2),
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

			edges, err := db.Inference.QueryHierarchical(graph.NodeID(id), args[1], includeDescendants, includeAncestors)
			if err != nil {
				return err
			}
			for _, e := range edges {
				target, err := db.Store.GetNode(e.To)
				if err != nil {
					return err
				}
				fmt.Printf("%d\t%s\t%s\t%s\n", e.To, e.Type, target.Kind, target.Identifier)
			}
			return nil
		},
	}
	hierarchicalCmd.Flags().BoolVar(&includeDescendants, "descendants", true, "include edge-type's descendants")
	hierarchicalCmd.Flags().BoolVar(&includeAncestors, "ancestors", false, "include edge-type's ancestors")

	queryCmd.AddCommand(hierarchicalCmd)
	return queryCmd
}
