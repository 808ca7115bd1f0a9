package catalog

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/teranos/epicdash/errors"
	"github.com/teranos/epicdash/internal/httpclient"
)

const sampleJSON = `[
	{"name": "RPMValue", "hash": 1699696209, "source": "output"},
	{"name": "AFRValue", "hash": -1093429509, "source": "output"},
	{"name": "Unrelated", "hash": 3, "source": "config"},
	{"name": "", "hash": 4, "source": "output"},
	{"name": "RPMCopy", "hash": 1699696209, "source": "output"}
]`

func TestParse(t *testing.T) {
	c, err := Parse([]byte(sampleJSON))
	require.NoError(t, err)

	assert.Equal(t, 3, c.Len(), "empty name skipped, duplicate hash dropped")
	assert.False(t, c.IsFallback())

	rpm, ok := c.Lookup(RPMValue)
	require.True(t, ok)
	assert.Equal(t, "RPMValue", rpm.Name, "first duplicate wins")

	afr, ok := c.Lookup(AFRValue)
	require.True(t, ok)
	assert.Equal(t, Readable, afr.Provenance)

	cfg, ok := c.Lookup(3)
	require.True(t, ok)
	assert.Equal(t, Writable, cfg.Provenance)
	assert.False(t, c.Contains(3), "writable variables are not selectable")
	assert.True(t, c.Contains(AFRValue))
	assert.False(t, c.Contains(4))

	readable := c.Readable()
	require.Len(t, readable, 2)
	assert.Equal(t, "RPMValue", readable[0].Name)
	assert.Equal(t, []int64{AFRValue, RPMValue}, c.IDs())
}

func TestParse_Unavailable(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", "<html>"},
		{"object not array", `{"name":"RPMValue"}`},
		{"empty array", `[]`},
		{"only writable", `[{"name":"Speed limit","hash":9,"source":"config"}]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.body))
			require.Error(t, err)
			assert.True(t, errors.Is(err, errors.ErrCatalogUnavailable))
		})
	}
}

func TestProvenanceFromSource(t *testing.T) {
	assert.Equal(t, Readable, ProvenanceFromSource("output"))
	assert.Equal(t, Writable, ProvenanceFromSource("config"))
	assert.Equal(t, Writable, ProvenanceFromSource("calibration"))
}

func TestVariableJSON(t *testing.T) {
	data, err := json.Marshal(Variable{ID: -5, Name: "Knock", Provenance: Readable})
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":-5,"name":"Knock","provenance":"readable"}`, string(data))
}

func TestFallback(t *testing.T) {
	c := Fallback()
	assert.True(t, c.IsFallback())
	assert.Equal(t, 3, c.Len())
	for _, id := range []int64{TPSValue, RPMValue, AFRValue} {
		assert.True(t, c.Contains(id))
	}
}

func TestAllReturnsCopy(t *testing.T) {
	c := Fallback()
	all := c.All()
	all[0].Name = "mutated"
	v, _ := c.Lookup(all[0].ID)
	assert.NotEqual(t, "mutated", v.Name)
}

func TestHTTPSource(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/variables.json" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(sampleJSON))
	}))
	defer srv.Close()

	client, err := httpclient.New(srv.URL, time.Second)
	require.NoError(t, err)

	src := NewHTTPSource(client, "/variables.json")
	assert.Equal(t, srv.URL+"/variables.json", src.String())

	c, err := src.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, c.Len())

	_, err = NewHTTPSource(client, "/missing.json").Load(context.Background())
	assert.True(t, errors.Is(err, errors.ErrCatalogUnavailable))
}

func TestFileSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "variables.json")
	require.NoError(t, os.WriteFile(path, []byte(sampleJSON), 0644))

	c, err := FileSource{Path: path}.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, c.Len())

	_, err = FileSource{Path: path + ".nope"}.Load(context.Background())
	assert.True(t, errors.Is(err, errors.ErrCatalogUnavailable))
}

func TestLoadOrFallback(t *testing.T) {
	log := zap.NewNop().Sugar()

	c, err := LoadOrFallback(context.Background(), FileSource{Path: "/nonexistent/variables.json"}, log)
	require.Error(t, err)
	require.NotNil(t, c)
	assert.True(t, c.IsFallback())

	path := filepath.Join(t.TempDir(), "variables.json")
	require.NoError(t, os.WriteFile(path, []byte(sampleJSON), 0644))
	c, err = LoadOrFallback(context.Background(), FileSource{Path: path}, log)
	require.NoError(t, err)
	assert.False(t, c.IsFallback())
}
