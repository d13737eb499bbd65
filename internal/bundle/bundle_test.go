package bundle

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crewbuilder/internal/artifact"
	"crewbuilder/internal/config"
	"crewbuilder/internal/tester"
)

func sampleBundle() artifact.Bundle {
	return artifact.Bundle{
		RunID: "run-42",
		Files: map[string]string{
			"crew/main.py":   "print('hi')\n",
			"docs/README.md": "# crew\n",
			"plan.json":      "{}\n",
		},
	}
}

func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()
	b := sampleBundle()
	require.NoError(t, Save(ctx, s, b))

	paths, err := s.List(ctx, b.RunID)
	require.NoError(t, err)
	assert.Equal(t, []string{"crew/main.py", "docs/README.md", "plan.json"}, paths)

	files, err := Load(ctx, s, b.RunID)
	require.NoError(t, err)
	assert.Equal(t, b.Files, files)

	require.NoError(t, s.Put(ctx, b.RunID, "plan.json", []byte(`{"v":2}`)))
	got, err := s.Get(ctx, b.RunID, "plan.json")
	require.NoError(t, err)
	assert.Equal(t, `{"v":2}`, string(got))

	_, err = s.Get(ctx, b.RunID, "missing.txt")
	tester.ErrIs(t, err, ErrNotFound)

	other, err := s.List(ctx, "run-other")
	require.NoError(t, err)
	assert.Empty(t, other)

	assert.Error(t, s.Put(ctx, b.RunID, "../escape.txt", []byte("x")))
	assert.Error(t, s.Put(ctx, "", "a.txt", []byte("x")))
	assert.Error(t, s.Put(ctx, "../run", "a.txt", []byte("x")))
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

func TestFileStore(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStore(dir)
	require.NoError(t, err)
	exerciseStore(t, s)

	u, err := s.GetURL(context.Background(), "run-42", "crew/main.py")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(u, "file://"))
	assert.True(t, strings.HasSuffix(u, "run-42/crew/main.py"))
}

func TestSQLiteStore(t *testing.T) {
	s, err := OpenSQL(SQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	exerciseStore(t, s)
}

func TestRebind(t *testing.T) {
	s := &SQLStore{dialect: SQLite}
	tester.Eq(t, s.rebind("a=$1 AND b=$12 AND c='$'"), "a=?1 AND b=?12 AND c='$'")
	s.dialect = Postgres
	tester.Eq(t, s.rebind("a=$1"), "a=$1")
}

func TestNewSQLStoreRejectsDialect(t *testing.T) {
	_, err := NewSQLStore(nil, SQLite)
	assert.Error(t, err)
}

type countingStore struct {
	*MemoryStore
	gets, lists int
}

func (c *countingStore) Get(ctx context.Context, runID, path string) ([]byte, error) {
	c.gets++
	return c.MemoryStore.Get(ctx, runID, path)
}

func (c *countingStore) List(ctx context.Context, runID string) ([]string, error) {
	c.lists++
	return c.MemoryStore.List(ctx, runID)
}

func TestCachedStore(t *testing.T) {
	ctx := context.Background()
	origin := &countingStore{MemoryStore: NewMemoryStore()}
	s := NewCachedStore(origin, 8, time.Minute)
	exerciseStore(t, s)

	origin.gets, origin.lists = 0, 0
	for i := 0; i < 3; i++ {
		_, err := s.Get(ctx, "run-42", "crew/main.py")
		require.NoError(t, err)
		_, err = s.List(ctx, "run-42")
		require.NoError(t, err)
	}
	tester.Eq(t, origin.gets, 0)
	tester.Eq(t, origin.lists, 1)

	hits, misses := s.Stats()
	tester.True(t, hits >= 5, "expected cache hits")
	tester.True(t, misses > 0, "expected cache misses")
}

type failingStore struct{ *MemoryStore }

func (failingStore) Put(context.Context, string, string, []byte) error { return errors.New("disk full") }

func TestSaveStopsOnError(t *testing.T) {
	err := Save(context.Background(), failingStore{NewMemoryStore()}, sampleBundle())
	require.Error(t, err)
	tester.Contains(t, err.Error(), "disk full")
	tester.Contains(t, err.Error(), "run-42/crew/main.py")
}

func TestLoadUnknownRun(t *testing.T) {
	_, err := Load(context.Background(), NewMemoryStore(), "nope")
	tester.ErrIs(t, err, ErrNotFound)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()
	quiet := log.New(io.Discard, "", 0)
	s, err := Open(ctx, config.BundleConfig{Store: "memory"}, quiet)
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, s)

	s, err = Open(ctx, config.BundleConfig{Store: "file", Dir: t.TempDir()}, quiet)
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, s)

	_, err = Open(ctx, config.BundleConfig{Store: "postgres"}, quiet)
	assert.Error(t, err)
	_, err = Open(ctx, config.BundleConfig{Store: "s3"}, quiet)
	assert.Error(t, err)
	_, err = Open(ctx, config.BundleConfig{Store: "tape"}, quiet)
	assert.Error(t, err)

	var buf bytes.Buffer
	s, err = Open(ctx, config.BundleConfig{
		Store:     "s3",
		S3:        config.S3Config{Endpoint: "localhost:9000", AccessKey: "a", SecretKey: "b", Bucket: "bundles"},
		CacheSize: 4,
	}, log.New(&buf, "", 0))
	require.NoError(t, err)
	assert.IsType(t, &CachedStore{}, s)
	assert.Equal(t, "bundle store: s3 bucket=bundles endpoint=localhost:9000\n", buf.String())
}

func TestNewS3Store_Validates(t *testing.T) {
	full := config.S3Config{Endpoint: "localhost:9000", AccessKey: "ak", SecretKey: "sk", Bucket: "bundles"}
	cases := []struct {
		name   string
		mutate func(*config.S3Config)
		msg    string
	}{
		{"endpoint", func(c *config.S3Config) { c.Endpoint = " " }, "endpoint"},
		{"credentials", func(c *config.S3Config) { c.SecretKey = "" }, "secret key"},
		{"bucket", func(c *config.S3Config) { c.Bucket = "" }, "bucket"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := full
			tc.mutate(&cfg)
			_, err := NewS3Store(cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.msg)
		})
	}

	s, err := NewS3Store(full)
	require.NoError(t, err)
	tester.Eq(t, s.region, "us-east-1")
}
