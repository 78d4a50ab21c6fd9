package analyzer

import "github.com/mineclover/depgraph/pkg/graph"

// TreeNode is one node of a dependency tree rooted at some file or
// library. IsCircular is set when this node reappears on its own
// ancestor path — its Children are left empty rather than walked again.
type TreeNode struct {
	Node       *graph.Node
	Children   []*TreeNode
	IsCircular bool
}

// DependencyTree walks the imports_file/imports_library edges reachable
// from root, stopping at maxDepth (0 means unlimited) and tagging any
// node that repeats on the current path as circular instead of
// recursing into it again.
func (a *Analyzer) DependencyTree(root graph.NodeID, maxDepth int) (*TreeNode, error) {
	return a.buildTree(root, 0, maxDepth, map[graph.NodeID]bool{})
}

func (a *Analyzer) buildTree(id graph.NodeID, depth, maxDepth int, ancestors map[graph.NodeID]bool) (*TreeNode, error) {
	n, err := a.store.GetNode(id)
	if err != nil {
		return nil, &AnalyzerError{File: "", Op: "dependency_tree", Err: err}
	}
	node := &TreeNode{Node: n}

	if maxDepth > 0 && depth >= maxDepth {
		return node, nil
	}

	deps, err := a.store.DependenciesOf(id, OwnedEdgeTypes)
	if err != nil {
		return nil, &AnalyzerError{File: n.SourceFile, Op: "dependency_tree", Err: err}
	}

	nextAncestors := make(map[graph.NodeID]bool, len(ancestors)+1)
	for k := range ancestors {
		nextAncestors[k] = true
	}
	nextAncestors[id] = true

	for _, dep := range deps {
		if nextAncestors[dep.ID] {
			node.Children = append(node.Children, &TreeNode{Node: dep, IsCircular: true})
			continue
		}
		child, err := a.buildTree(dep.ID, depth+1, maxDepth, nextAncestors)
		if err != nil {
			return nil, err
		}
		node.Children = append(node.Children, child)
	}
	return node, nil
}
