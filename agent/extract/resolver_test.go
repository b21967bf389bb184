package extract

import (
	"context"
	"errors"
	"testing"

	contractx "github.com/avelarsol/concierge/agent/contract"
)

type fakeStrategy struct {
	method contractx.ExtractionMethod
	record contractx.ContactRecord
	err    error
	calls  int
}

func (f *fakeStrategy) Method() contractx.ExtractionMethod {
	return f.method
}

func (f *fakeStrategy) Extract(ctx context.Context, text string) (contractx.ContactRecord, error) {
	f.calls++
	if f.err != nil {
		return contractx.ContactRecord{}, f.err
	}
	return f.record, nil
}

func TestNewChainResolverValidation(t *testing.T) {
	t.Parallel()

	if _, err := NewChainResolver(); err == nil {
		t.Fatal("NewChainResolver() with no strategies should fail")
	}
	if _, err := NewChainResolver(&fakeStrategy{}, nil); err == nil {
		t.Fatal("NewChainResolver() with a nil strategy should fail")
	}
}

func TestResolveFirstTierWins(t *testing.T) {
	t.Parallel()

	cheap := &fakeStrategy{
		method: contractx.MethodRegex,
		record: contractx.ContactRecord{Email: "jane@example.com"},
	}
	expensive := &fakeStrategy{method: contractx.MethodLLM}

	r, err := NewChainResolver(cheap, expensive)
	if err != nil {
		t.Fatalf("NewChainResolver() error = %v", err)
	}

	result := r.Resolve(context.Background(), "jane@example.com")
	if result.Email != "jane@example.com" {
		t.Fatalf("unexpected email: %q", result.Email)
	}
	if result.Method != contractx.MethodRegex {
		t.Fatalf("Method = %q, want regex", result.Method)
	}
	if expensive.calls != 0 {
		t.Fatalf("fallback invoked %d times despite first-tier hit", expensive.calls)
	}
}

func TestResolvePartialHitStopsChain(t *testing.T) {
	t.Parallel()

	cheap := &fakeStrategy{
		method: contractx.MethodRegex,
		record: contractx.ContactRecord{Phone: "+1-305-555-1234"},
	}
	expensive := &fakeStrategy{
		method: contractx.MethodLLM,
		record: contractx.ContactRecord{Email: "jane@example.com", Phone: "+1-305-555-9999"},
	}

	r, err := NewChainResolver(cheap, expensive)
	if err != nil {
		t.Fatalf("NewChainResolver() error = %v", err)
	}

	result := r.Resolve(context.Background(), "305-555-1234")
	if result.Phone != "+1-305-555-1234" || result.Email != "" {
		t.Fatalf("partial hit not returned as-is: %#v", result)
	}
	if expensive.calls != 0 {
		t.Fatalf("fallback invoked %d times despite partial first-tier hit", expensive.calls)
	}
}

func TestResolveFallsBackWhenFirstTierEmpty(t *testing.T) {
	t.Parallel()

	cheap := &fakeStrategy{method: contractx.MethodRegex}
	expensive := &fakeStrategy{
		method: contractx.MethodLLM,
		record: contractx.ContactRecord{Email: "jane@example.com"},
	}

	r, err := NewChainResolver(cheap, expensive)
	if err != nil {
		t.Fatalf("NewChainResolver() error = %v", err)
	}

	result := r.Resolve(context.Background(), "contact is in the signature")
	if result.Email != "jane@example.com" {
		t.Fatalf("fallback record not returned: %#v", result)
	}
	if result.Method != contractx.MethodLLM {
		t.Fatalf("Method = %q, want llm", result.Method)
	}
	if cheap.calls != 1 || expensive.calls != 1 {
		t.Fatalf("call counts = %d/%d, want 1/1", cheap.calls, expensive.calls)
	}
}

func TestResolveStrategyErrorTreatedAsEmpty(t *testing.T) {
	t.Parallel()

	broken := &fakeStrategy{
		method: contractx.MethodRegex,
		err:    errors.New("boom"),
	}
	expensive := &fakeStrategy{
		method: contractx.MethodLLM,
		record: contractx.ContactRecord{Phone: "+1-305-555-1234"},
	}

	r, err := NewChainResolver(broken, expensive)
	if err != nil {
		t.Fatalf("NewChainResolver() error = %v", err)
	}

	result := r.Resolve(context.Background(), "anything")
	if result.Phone != "+1-305-555-1234" {
		t.Fatalf("chain did not survive strategy error: %#v", result)
	}
}

func TestResolveAllTiersEmpty(t *testing.T) {
	t.Parallel()

	cheap := &fakeStrategy{method: contractx.MethodRegex}
	expensive := &fakeStrategy{method: contractx.MethodLLM}

	r, err := NewChainResolver(cheap, expensive)
	if err != nil {
		t.Fatalf("NewChainResolver() error = %v", err)
	}

	result := r.Resolve(context.Background(), "no contact here")
	if !result.IsEmpty() {
		t.Fatalf("result not empty: %#v", result)
	}
	if result.Method != contractx.MethodLLM {
		t.Fatalf("empty result should carry last tier method, got %q", result.Method)
	}
}
