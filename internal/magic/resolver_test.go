package magic

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/opted-eu/metafill/internal/identifier"
	"github.com/opted-eu/metafill/internal/inventory"
	"github.com/opted-eu/metafill/internal/record"
	"github.com/opted-eu/metafill/internal/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	platform identifier.Platform
	rec      record.Record
	err      error
	calls    atomic.Int32
	gotID    atomic.Value
}

func (f *fakeSource) Platform() identifier.Platform { return f.platform }

func (f *fakeSource) Fetch(ctx context.Context, id string) (record.Record, error) {
	f.calls.Add(1)
	f.gotID.Store(id)
	return f.rec, f.err
}

type fakeChecker struct {
	mu      sync.Mutex
	entries map[string]inventory.Entry // field:id -> entry
	err     error
	lookups []string
}

func (f *fakeChecker) Lookup(ctx context.Context, field, id string) (inventory.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lookups = append(f.lookups, field+":"+id)
	if f.err != nil {
		return inventory.Result{}, f.err
	}
	if e, ok := f.entries[field+":"+id]; ok {
		return inventory.Result{Status: true, Data: []inventory.Entry{e}}, nil
	}
	return inventory.Result{}, nil
}

func newResolver(t *testing.T, checker inventory.Checker, sources ...Source) *Resolver {
	t.Helper()
	reg := NewRegistry()
	for _, s := range sources {
		require.NoError(t, reg.Register(s))
	}
	opts := []Option{WithCache(8)}
	if checker != nil {
		opts = append(opts, WithChecker(checker))
	}
	r, err := NewResolver(reg, opts...)
	require.NoError(t, err)
	return r
}

func TestResolver_Fetch(t *testing.T) {
	src := &fakeSource{platform: identifier.DOI, rec: record.Record{Name: "Paper", DOI: "10.1234/abc"}}
	checker := &fakeChecker{}
	r := newResolver(t, checker, src)

	res, err := r.Fetch(context.Background(), "doi", " https://doi.org/10.1234/abc ")
	require.NoError(t, err)
	assert.Equal(t, identifier.DOI, res.Platform)
	assert.Equal(t, "10.1234/abc", res.Identifier)
	assert.Equal(t, "10.1234/abc", src.gotID.Load())
	assert.Equal(t, "Paper", res.Fields[record.FieldName])
	assert.False(t, res.Inventory.Status)
	assert.Empty(t, res.Warning)
	assert.Equal(t, []string{"doi:10.1234/abc"}, checker.lookups)
}

func TestResolver_Fetch_InventoryWarning(t *testing.T) {
	src := &fakeSource{platform: identifier.Python, rec: record.Record{Name: "spacy", PyPI: "spacy"}}
	checker := &fakeChecker{entries: map[string]inventory.Entry{
		"pypi:spacy": {UID: "0x1", PyPI: "spacy"},
	}}
	r := newResolver(t, checker, src)

	res, err := r.Fetch(context.Background(), "python", "https://pypi.org/project/spacy/")
	require.NoError(t, err)
	assert.True(t, res.Inventory.Status)
	assert.Contains(t, res.Warning, `"spacy"`)
}

func TestResolver_Fetch_ArXivRecheck(t *testing.T) {
	src := &fakeSource{platform: identifier.ArXiv, rec: record.Record{Name: "P", ArXiv: "2101.00001v2"}}
	checker := &fakeChecker{entries: map[string]inventory.Entry{
		"arxiv:2101.00001v2": {UID: "0x2", ArXiv: "2101.00001v2"},
	}}
	r := newResolver(t, checker, src)

	res, err := r.Fetch(context.Background(), "arxiv", "arxiv.org/abs/2101.00001")
	require.NoError(t, err)
	assert.True(t, res.Inventory.Status)
	assert.Equal(t, []string{"arxiv:2101.00001", "arxiv:2101.00001v2"}, checker.lookups)
}

func TestResolver_Fetch_InventoryFailureIsNotFatal(t *testing.T) {
	src := &fakeSource{platform: identifier.CRAN, rec: record.Record{Name: "quanteda"}}
	r := newResolver(t, &fakeChecker{err: errors.New("connection refused")}, src)

	res, err := r.Fetch(context.Background(), "cran", "quanteda")
	require.NoError(t, err)
	assert.False(t, res.Inventory.Status)
	assert.Equal(t, "quanteda", res.Record.Name)
}

func TestResolver_Fetch_SourceError(t *testing.T) {
	src := &fakeSource{platform: identifier.GitHub, err: transport.ErrNotFound}
	r := newResolver(t, nil, src)

	_, err := r.Fetch(context.Background(), "github", "owner/missing")
	require.Error(t, err)
	assert.True(t, transport.IsNotFound(err))
}

func TestResolver_Fetch_InputErrors(t *testing.T) {
	r := newResolver(t, nil, &fakeSource{platform: identifier.DOI})

	tests := []struct {
		name     string
		platform string
		raw      string
		want     error
	}{
		{"placeholder platform", "choose...", "10.1/x", identifier.ErrNoPlatform},
		{"empty platform", "", "10.1/x", identifier.ErrNoPlatform},
		{"empty identifier", "doi", "   ", identifier.ErrEmptyIdentifier},
		{"invalid doi", "doi", "not-a-doi", identifier.ErrInvalidDOI},
		{"unregistered source", "cran", "quanteda", ErrNoSource},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.Fetch(context.Background(), tt.platform, tt.raw)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestResolver_Fetch_Cache(t *testing.T) {
	src := &fakeSource{platform: identifier.CRAN, rec: record.Record{Name: "quanteda"}}
	checker := &fakeChecker{}
	r := newResolver(t, checker, src)
	ctx := context.Background()

	first, err := r.Fetch(ctx, "cran", "quanteda")
	require.NoError(t, err)
	assert.False(t, first.Cached)

	second, err := r.Fetch(ctx, "cran", "https://cran.r-project.org/package=quanteda")
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, int32(1), src.calls.Load())
	assert.Len(t, checker.lookups, 2, "inventory is checked on every fetch")

	r.Purge()
	_, err = r.Fetch(ctx, "cran", "quanteda")
	require.NoError(t, err)
	assert.Equal(t, int32(2), src.calls.Load())
}

func TestRegistry(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(&fakeSource{platform: identifier.DOI}))
	require.NoError(t, reg.Register(&fakeSource{platform: identifier.GitHub}))

	assert.Error(t, reg.Register(nil))
	assert.Error(t, reg.Register(&fakeSource{platform: identifier.DOI}))
	assert.Error(t, reg.Register(&fakeSource{platform: "gitlab"}))

	assert.Equal(t, []identifier.Platform{identifier.DOI, identifier.GitHub}, reg.Platforms())
	_, ok := reg.Get(identifier.CRAN)
	assert.False(t, ok)
}
