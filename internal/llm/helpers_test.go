package llm

import (
	"context"
	"sync"

	"github.com/Veraticus/mtr-normalizer/internal/model"
	"github.com/Veraticus/mtr-normalizer/internal/websearch"
)

// fakeClient returns scripted responses in order; errs[i] overrides responses[i].
type fakeClient struct {
	responses []string
	errs      []error
	requests  []Request
	mu        sync.Mutex
}

func (f *fakeClient) Complete(_ context.Context, req Request) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := len(f.requests)
	f.requests = append(f.requests, req)
	if i < len(f.errs) && f.errs[i] != nil {
		return "", f.errs[i]
	}
	if i < len(f.responses) {
		return f.responses[i], nil
	}
	return "", nil
}

type fakeSearcher struct {
	digest *websearch.Digest
	calls  int
}

func (f *fakeSearcher) SearchProduct(context.Context, string, model.Category) *websearch.Digest {
	f.calls++
	return f.digest
}
