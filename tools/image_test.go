package tools

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newImageHost(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/foto.png":
			w.Header().Set("Content-Type", "image/png")
			_, _ = w.Write([]byte("\x89PNG fake"))
		case "/pagina.html":
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			_, _ = w.Write([]byte("<html></html>"))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestImageFetcherFetch(t *testing.T) {
	host := newImageHost(t)
	f := NewImageFetcher(5*time.Second, nil, 1<<20)

	img, err := f.Fetch(context.Background(), host.URL+"/foto.png")
	require.NoError(t, err)
	assert.Equal(t, "image/png", img.ContentType)
	assert.Equal(t, []byte("\x89PNG fake"), img.Body)
}

func TestImageFetcherErrors(t *testing.T) {
	host := newImageHost(t)
	f := NewImageFetcher(5*time.Second, nil, 1<<20)
	ctx := context.Background()

	_, err := f.Fetch(ctx, host.URL+"/pagina.html")
	assert.ErrorIs(t, err, ErrNotAnImage)
	assert.Equal(t, http.StatusBadRequest, StatusFor(err))

	_, err = f.Fetch(ctx, host.URL+"/nada.png")
	var upstream UpstreamError
	assert.ErrorAs(t, err, &upstream)
	assert.Equal(t, http.StatusNotFound, upstream.StatusCode)
	assert.Equal(t, http.StatusBadGateway, StatusFor(err))

	_, err = f.Fetch(ctx, "ftp://exemplo.com/foto.png")
	assert.ErrorIs(t, err, ErrInvalidImageURL)

	small := NewImageFetcher(5*time.Second, nil, 4)
	_, err = small.Fetch(ctx, host.URL+"/foto.png")
	assert.ErrorIs(t, err, ErrImageTooLarge)
}

func TestImageFetcherStopsReadingAtLimit(t *testing.T) {
	const total = 64 << 20
	var sent atomic.Int64
	done := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer close(done)
		w.Header().Set("Content-Type", "image/png")
		chunk := make([]byte, 32<<10)
		for sent.Load() < total {
			n, err := w.Write(chunk)
			sent.Add(int64(n))
			if err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	f := NewImageFetcher(10*time.Second, nil, 1024)
	_, err := f.Fetch(context.Background(), srv.URL+"/grande.png")
	assert.ErrorIs(t, err, ErrImageTooLarge)
	assert.Equal(t, http.StatusRequestEntityTooLarge, StatusFor(err))

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("upstream continuou enviando")
	}
	assert.Less(t, sent.Load(), int64(16<<20))
}

func TestImageFetcherAllowedHosts(t *testing.T) {
	f := NewImageFetcher(time.Second, []string{"googleusercontent.com"}, 0)

	_, err := f.ParseImageURL("https://lh3.googleusercontent.com/a/foto")
	assert.NoError(t, err)

	_, err = f.ParseImageURL("https://evil.example.com/foto.png")
	assert.ErrorIs(t, err, ErrHostNotAllowed)
	assert.Equal(t, http.StatusForbidden, StatusFor(err))
}
