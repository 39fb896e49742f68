package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AmonBrollo/FlashLingo/internal/domain"
)

const (
	hashA = "24bc71911b75b5f8135c949e27a2984e"
	hashB = "96e752610906ba2a93c65f8abe1645f1"
)

func TestParseManifest(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{name: "valid", input: `{"main.dart.js":"` + hashA + `","/":"` + hashB + `"}`},
		{name: "empty object", input: `{}`},
		{name: "not json", input: `main.dart.js`, wantErr: true},
		{name: "null", input: `null`, wantErr: true},
		{name: "short hash", input: `{"a.js":"abc"}`, wantErr: true},
		{name: "uppercase hash", input: `{"a.js":"24BC71911B75B5F8135C949E27A2984E"}`, wantErr: true},
		{name: "non hex hash", input: `{"a.js":"zzbc71911b75b5f8135c949e27a2984e"}`, wantErr: true},
		{name: "empty key", input: `{"":"` + hashA + `"}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := domain.ParseManifest([]byte(tt.input))
			if tt.wantErr {
				require.ErrorIs(t, err, domain.ErrInvalidManifest)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, m)
		})
	}
}

func TestManifestHashAndPaths(t *testing.T) {
	m := domain.Manifest{"b.js": hashB, "a.js": hashA, "/": hashA}

	h, ok := m.Hash("a.js")
	assert.True(t, ok)
	assert.Equal(t, hashA, h)

	_, ok = m.Hash("missing.js")
	assert.False(t, ok)

	assert.Equal(t, []string{"/", "a.js", "b.js"}, m.Paths())
}

func TestManifestMarshalRoundTrip(t *testing.T) {
	m := domain.Manifest{"index.html": hashA, "/": hashA}

	data, err := m.Marshal()
	require.NoError(t, err)

	got, err := domain.ParseManifest(data)
	require.NoError(t, err)
	assert.Equal(t, m, got)
}

func TestManifestCheckCore(t *testing.T) {
	m := domain.Manifest{"index.html": hashA, "main.dart.js": hashB}

	assert.NoError(t, m.CheckCore([]string{"index.html", "main.dart.js"}))
	assert.ErrorIs(t, m.CheckCore([]string{"index.html", "flutter_bootstrap.js"}), domain.ErrCoreNotInManifest)
}

func TestParseWorkerScript(t *testing.T) {
	script := `'use strict';
const MANIFEST = 'flutter-app-manifest';
const RESOURCES = {"flutter.js": "` + hashA + `",
"index.html": "` + hashB + `",
"/": "` + hashB + `"};
// The application shell files.
const CORE = ["index.html",
"flutter.js"];
self.addEventListener("install", (event) => {});
`

	m, core, err := domain.ParseWorkerScript([]byte(script))
	require.NoError(t, err)
	assert.Len(t, m, 3)
	assert.Equal(t, hashB, m["/"])
	assert.Equal(t, []string{"index.html", "flutter.js"}, core)
}

func TestParseWorkerScript_NoResources(t *testing.T) {
	_, _, err := domain.ParseWorkerScript([]byte(`const CORE = [];`))
	assert.ErrorIs(t, err, domain.ErrInvalidManifest)
}

func TestResponseCloneIsDeep(t *testing.T) {
	r := &domain.Response{Status: 200, Header: map[string][]string{"Etag": {"x"}}, Body: []byte("abc")}
	c := r.Clone()
	c.Body[0] = 'z'
	c.Header.Set("Etag", "y")

	assert.Equal(t, "abc", string(r.Body))
	assert.Equal(t, "x", r.Header.Get("Etag"))
	assert.True(t, c.OK())
	assert.False(t, (&domain.Response{Status: 404}).OK())
}
