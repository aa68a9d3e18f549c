package testutil

import (
	"context"
	"testing"

	"github.com/hongsenwang01/knowledge-base/internal/content"
	"github.com/hongsenwang01/knowledge-base/internal/kb"
)

// TestEnv bundles a KBService with the fakes behind it so tests can inspect them.
type TestEnv struct {
	Service  *kb.KBService
	Database kb.Database
	Store    *content.MemoryStore
	Clock    *StubClock
	IDs      *StubIDGenerator
	Root     *kb.Directory
}

// NewTestEnv creates a service over an in-memory database and content store
// with a fixed clock, sequential ids and a bootstrapped root directory.
func NewTestEnv(t *testing.T, opts kb.Options) *TestEnv {
	t.Helper()

	env := &TestEnv{
		Database: NewTestDatabase(t),
		Store:    NewTestContentStore(),
		Clock:    FixedClock(),
		IDs:      NewStubIDGenerator(),
	}
	if opts.SpoolDir == "" {
		opts.SpoolDir = t.TempDir()
	}
	env.Service = kb.NewKBService(env.Database, env.Store, opts, nil, kb.NewNopLogger(), env.Clock, env.IDs)

	root, err := env.Service.EnsureRoot(context.Background())
	if err != nil {
		t.Fatalf("EnsureRoot() error = %v", err)
	}
	env.Root = root
	return env
}

// NewTestContentStore returns an empty in-memory content store.
func NewTestContentStore() *content.MemoryStore {
	return content.NewMemoryStore()
}

// NewTestService is NewTestEnv with default options, returning only the service.
func NewTestService(t *testing.T) *kb.KBService {
	t.Helper()
	return NewTestEnv(t, kb.Options{}).Service
}
