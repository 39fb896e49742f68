package network_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AmonBrollo/FlashLingo/internal/network"
)

func TestHTTPFetcher_RewritesOriginToUpstream(t *testing.T) {
	var gotPath, gotCacheControl string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.RequestURI()
		gotCacheControl = r.Header.Get("Cache-Control")
		w.Header().Set("Content-Type", "text/javascript")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("console.log(1)"))
	}))
	defer upstream.Close()

	origin, _ := url.Parse("https://flashlingo.example")
	up, _ := url.Parse(upstream.URL)
	f := network.NewHTTPFetcher(nil, origin, up)

	ctx := context.Background()
	req, err := network.NewRequest(ctx, "https://flashlingo.example/main.dart.js?v=3")
	require.NoError(t, err)

	resp, err := f.Fetch(ctx, req, network.ModeReload)
	require.NoError(t, err)

	assert.Equal(t, "/main.dart.js?v=3", gotPath)
	assert.Equal(t, "no-cache", gotCacheControl)
	assert.Equal(t, http.StatusOK, resp.Status)
	assert.Equal(t, "console.log(1)", string(resp.Body))
	assert.Equal(t, "https://flashlingo.example/main.dart.js?v=3", resp.URL)
	assert.Equal(t, "text/javascript", resp.Header.Get("Content-Type"))
}

func TestHTTPFetcher_DefaultModeDoesNotBypassCache(t *testing.T) {
	var gotCacheControl string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotCacheControl = r.Header.Get("Cache-Control")
	}))
	defer upstream.Close()

	up, _ := url.Parse(upstream.URL)
	f := network.NewHTTPFetcher(nil, up, up)

	req, err := network.NewRequest(context.Background(), upstream.URL+"/index.html")
	require.NoError(t, err)

	_, err = f.Fetch(context.Background(), req, network.ModeDefault)
	require.NoError(t, err)
	assert.Empty(t, gotCacheControl)
}

func TestHTTPFetcher_NonOKIsAResponse(t *testing.T) {
	upstream := httptest.NewServer(http.NotFoundHandler())
	defer upstream.Close()

	up, _ := url.Parse(upstream.URL)
	f := network.NewHTTPFetcher(nil, up, up)

	req, err := network.NewRequest(context.Background(), upstream.URL+"/missing.js")
	require.NoError(t, err)

	resp, err := f.Fetch(context.Background(), req, network.ModeDefault)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.Status)
	assert.False(t, resp.OK())
}

func TestHTTPFetcher_TransportFailure(t *testing.T) {
	upstream := httptest.NewServer(http.NotFoundHandler())
	up, _ := url.Parse(upstream.URL)
	upstream.Close()

	f := network.NewHTTPFetcher(nil, up, up)
	req, err := network.NewRequest(context.Background(), up.String()+"/index.html")
	require.NoError(t, err)

	_, err = f.Fetch(context.Background(), req, network.ModeDefault)
	assert.Error(t, err)
}

func TestHTTPFetcher_KeepsUpstreamPathPrefix(t *testing.T) {
	var gotPaths []string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPaths = append(gotPaths, r.URL.RequestURI())
	}))
	defer upstream.Close()

	origin, _ := url.Parse("https://flashlingo.example")
	up, _ := url.Parse(upstream.URL + "/build/web")
	f := network.NewHTTPFetcher(nil, origin, up)

	ctx := context.Background()
	for _, target := range []string{
		"https://flashlingo.example/main.dart.js?v=3",
		"https://flashlingo.example/assets/FontManifest.json",
		"https://flashlingo.example/",
	} {
		req, err := network.NewRequest(ctx, target)
		require.NoError(t, err)
		_, err = f.Fetch(ctx, req, network.ModeDefault)
		require.NoError(t, err)
	}

	assert.Equal(t, []string{
		"/build/web/main.dart.js?v=3",
		"/build/web/assets/FontManifest.json",
		"/build/web/",
	}, gotPaths)
}
