package analyzer_test

import (
	"errors"

	"github.com/mineclover/depgraph/pkg/analyzer"
)

// fakeResolver is an in-memory Resolver for tests: a fixed set of paths
// "exist", and each can carry canned file contents.
type fakeResolver struct {
	files map[string][]byte
}

func newFakeResolver(paths ...string) *fakeResolver {
	f := &fakeResolver{files: map[string][]byte{}}
	for _, p := range paths {
		f.files[p] = []byte("// " + p)
	}
	return f
}

var _ analyzer.Resolver = (*fakeResolver)(nil)

func (f *fakeResolver) Exists(path string) bool {
	_, ok := f.files[path]
	return ok
}

func (f *fakeResolver) ReadFile(path string) ([]byte, error) {
	data, ok := f.files[path]
	if !ok {
		return nil, errors.New("not found")
	}
	return data, nil
}
