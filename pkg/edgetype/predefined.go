package edgetype

// predefinedTypes returns the required taxonomy entries from spec §3,
// fresh each call so New() never hands out shared mutable state.
func predefinedTypes() []*EdgeType {
	def := func(t, parent string, transitive bool) *EdgeType {
		return &EdgeType{Type: t, ParentType: parent, IsDirected: true, IsTransitive: transitive}
	}
	return []*EdgeType{
		def("contains", "", false),
		def("declares", "contains", false),
		def("belongs_to", "", false),
		def("depends_on", "", true),
		def("imports", "depends_on", false),
		def("imports_file", "imports", false),
		def("imports_library", "imports", false),
		def("calls", "", false),
		def("references", "", false),
		def("extends", "", false),
		def("implements", "", false),
		def("uses", "", false),
		def("instantiates", "", false),
		def("has_type", "", false),
		def("returns", "", false),
		def("throws", "", false),
		def("assigns_to", "", false),
		def("accesses", "", false),
		def("overrides", "", false),
		def("shadows", "", false),
		def("annotated_with", "", false),
	}
}
