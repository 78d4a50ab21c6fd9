package edgetype_test

import (
	"testing"

	"github.com/mineclover/depgraph/pkg/edgetype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPredefinedTypesPresent(t *testing.T) {
	r := edgetype.New()
	for _, want := range []string{
		"contains", "declares", "belongs_to", "depends_on", "imports",
		"imports_file", "imports_library", "calls", "references",
	} {
		_, ok := r.Get(want)
		assert.Truef(t, ok, "expected predefined type %q", want)
	}
}

func TestHierarchySoundness(t *testing.T) {
	r := edgetype.New()

	descendants := r.DescendantsOf("imports")
	names := map[string]bool{}
	for _, d := range descendants {
		names[d.Type] = true
	}
	assert.True(t, names["imports_file"])
	assert.True(t, names["imports_library"])
	assert.False(t, names["imports"])

	ancestors := r.AncestorsOf("imports_file")
	chain := []string{}
	for _, a := range ancestors {
		chain = append(chain, a.Type)
	}
	assert.Equal(t, []string{"imports_file", "imports", "depends_on"}, chain)

	children := r.ChildrenOf("imports")
	assert.Len(t, children, 2)
}

func TestValidateHierarchyNoCyclesByDefault(t *testing.T) {
	r := edgetype.New()
	v := r.ValidateHierarchy()
	assert.True(t, v.Valid)
	assert.Empty(t, v.Errors)
}

func TestRegisterRejectsUnknownParent(t *testing.T) {
	r := edgetype.New()
	err := r.Register(&edgetype.EdgeType{Type: "orphan", ParentType: "does_not_exist"})
	require.Error(t, err)
}

func TestRegisterIsIdempotentForIdenticalDefinition(t *testing.T) {
	r := edgetype.New()
	def := &edgetype.EdgeType{Type: "similar_to", IsDirected: true, IsTransitive: false}
	require.NoError(t, r.Register(def))
	require.NoError(t, r.Register(def))

	_, ok := r.Get("similar_to")
	assert.True(t, ok)
}

func TestRegisterRejectsConflictingRedefinition(t *testing.T) {
	r := edgetype.New()
	require.NoError(t, r.Register(&edgetype.EdgeType{Type: "similar_to", IsTransitive: false}))
	err := r.Register(&edgetype.EdgeType{Type: "similar_to", IsTransitive: true})
	require.Error(t, err)
}

func TestDescendantsOfIsExactlyTheParentChain(t *testing.T) {
	r := edgetype.New()
	require.NoError(t, r.Register(&edgetype.EdgeType{Type: "imports_dynamic", ParentType: "imports_file"}))

	descendants := r.DescendantsOf("imports")
	names := map[string]bool{}
	for _, d := range descendants {
		names[d.Type] = true
	}
	assert.True(t, names["imports_dynamic"], "transitive descendant through imports_file should be included")
}

func TestTypesRequiringPersistenceIncludesAll(t *testing.T) {
	r := edgetype.New()
	all := r.All()
	persisted := r.TypesRequiringPersistence()
	assert.Equal(t, len(all), len(persisted))
}
