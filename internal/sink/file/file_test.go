package file

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ravndata/ingestgate/internal/pipeline"
)

func TestSink_WriteBatch_AppendsNDJSONLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.ndjson")

	s, err := New(path)
	require.NoError(t, err)

	err = s.WriteBatch(context.Background(), []pipeline.Record{
		pipeline.NewRecord([]byte(`{"a":1}`)),
		pipeline.NewRecord([]byte(`{"a":2}`)),
	})
	require.NoError(t, err)

	contents, err := os.ReadFile(path)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(string(contents), "\n"), "\n")
	assert.Equal(t, []string{`{"a":1}`, `{"a":2}`}, lines)
}

func TestSink_WriteBatch_AcrossMultipleCalls(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.ndjson")

	s, err := New(path)
	require.NoError(t, err)

	require.NoError(t, s.WriteBatch(context.Background(), []pipeline.Record{
		pipeline.NewRecord([]byte(`{"a":1}`)),
	}))
	require.NoError(t, s.WriteBatch(context.Background(), []pipeline.Record{
		pipeline.NewRecord([]byte(`{"a":2}`)),
	}))

	contents, err := os.ReadFile(path)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(string(contents), "\n"), "\n")
	assert.Equal(t, []string{`{"a":1}`, `{"a":2}`}, lines)
}

func TestSink_WriteBatch_Empty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.ndjson")

	s, err := New(path)
	require.NoError(t, err)

	require.NoError(t, s.WriteBatch(context.Background(), nil))

	contents, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Empty(t, contents)
}

func TestSink_ReopensExistingFileInAppendMode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.ndjson")

	s1, err := New(path)
	require.NoError(t, err)
	require.NoError(t, s1.WriteBatch(context.Background(), []pipeline.Record{
		pipeline.NewRecord([]byte(`{"a":1}`)),
	}))
	require.NoError(t, s1.Close())

	s2, err := New(path)
	require.NoError(t, err)
	require.NoError(t, s2.WriteBatch(context.Background(), []pipeline.Record{
		pipeline.NewRecord([]byte(`{"a":2}`)),
	}))
	require.NoError(t, s2.Close())

	contents, err := os.ReadFile(path)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(string(contents), "\n"), "\n")
	assert.Equal(t, []string{`{"a":1}`, `{"a":2}`}, lines)
}

func TestNew_FailsOnUnwritablePath(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "missing-dir", "out.ndjson"))
	assert.Error(t, err)
}
