package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gofhir/arbor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func write(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestParse_Defaults(t *testing.T) {
	f, err := Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), f)

	o := arbor.Apply(f.Options()...)
	def := arbor.DefaultOptions()
	assert.Equal(t, def.CacheMaxWeight, o.CacheMaxWeight)
	assert.Equal(t, def.CacheTTL, o.CacheTTL)
	assert.Equal(t, def.Backend, o.Backend)
	assert.Equal(t, def.TagKey, o.TagKey)
	assert.Empty(t, o.Markers)
}

func TestParse(t *testing.T) {
	f, err := Parse([]byte(`
cache:
  maxWeight: 500
  ttl: 10m
classification:
  tagKey: visit
  markers: [sum, copy]
access:
  backend: fast
traversal:
  policy:
    instantiateMissingNodes: true
    visitNodes: true
  parallel: true
  workers: 3
log:
  verbose: true
  json: true
`))
	require.NoError(t, err)

	o := arbor.Apply(f.Options()...)
	assert.Equal(t, int64(500), o.CacheMaxWeight)
	assert.Equal(t, 10*time.Minute, o.CacheTTL)
	assert.Equal(t, "visit", o.TagKey)
	assert.Equal(t, []arbor.Marker{"sum", "copy"}, o.Markers)
	assert.Equal(t, arbor.BackendFast, o.Backend)
	assert.Equal(t, arbor.Policy{InstantiateMissingNodes: true, VisitNodes: true}, o.Policy)
	assert.True(t, o.Parallel)
	assert.Equal(t, 3, o.Workers)
	assert.Equal(t, arbor.DefaultOptions().NodeMemoSize, o.NodeMemoSize)

	lo := f.LogOptions()
	assert.True(t, lo.Verbose)
	assert.True(t, lo.JSON)
}

func TestParse_Invalid(t *testing.T) {
	_, err := Parse([]byte("access:\n  backend: turbo\n"))
	assert.ErrorContains(t, err, `unknown backend "turbo"`)

	_, err = Parse([]byte("cache: [1, 2]"))
	assert.ErrorContains(t, err, "decode yaml")

	_, err = Parse([]byte("cache:\n  ttl: -1s\n"))
	assert.ErrorContains(t, err, "cache.ttl")
}

func TestLoad_Layered(t *testing.T) {
	base := write(t, "base.yaml", `
cache:
  maxWeight: 100
access:
  backend: reflect
traversal:
  workers: 2
`)
	local := write(t, "local.yaml", `
access:
  backend: fast
traversal:
  parallel: true
`)

	f, err := Load(base, local)
	require.NoError(t, err)
	assert.Equal(t, int64(100), f.Cache.MaxWeight)
	assert.Equal(t, arbor.BackendFast, f.Access.Backend)
	assert.Equal(t, 2, f.Traversal.Workers)
	assert.True(t, f.Traversal.Parallel)
	assert.Equal(t, arbor.DefaultTagKey, f.Classification.TagKey)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorContains(t, err, "read config")
}

func TestLoad_LaterLayerTurnsOff(t *testing.T) {
	base := write(t, "base.yaml", `
traversal:
  parallel: true
  policy:
    includeNullBranches: true
    visitNodes: true
log:
  verbose: true
`)
	local := write(t, "local.yaml", `
traversal:
  parallel: false
  policy:
    includeNullBranches: false
`)

	f, err := Load(base, local)
	require.NoError(t, err)
	assert.False(t, f.Traversal.Parallel)
	assert.False(t, f.Traversal.Policy.IncludeNullBranches)
	assert.True(t, f.Traversal.Policy.VisitNodes)
	assert.True(t, f.Log.Verbose)
	assert.Equal(t, arbor.DefaultOptions().CacheMaxWeight, f.Cache.MaxWeight)
}

func TestLoad_InvalidLayer(t *testing.T) {
	bad := write(t, "bad.yaml", "cache: [1, 2]")
	_, err := Load(bad)
	assert.ErrorContains(t, err, "decode yaml")
}
