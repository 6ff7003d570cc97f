package files

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastRetries(t *testing.T) {
	t.Helper()
	prevInitial, prevMax := retryInitialInterval, retryMaxInterval
	retryInitialInterval = time.Millisecond
	retryMaxInterval = 5 * time.Millisecond
	t.Cleanup(func() {
		retryInitialInterval = prevInitial
		retryMaxInterval = prevMax
	})
}

func TestDownload(t *testing.T) {
	t.Run("writes the body and sends headers", func(t *testing.T) {
		mockFS := useMockFS(t)
		var gotAuth, gotAgent string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotAuth = r.Header.Get("Authorization")
			gotAgent = r.Header.Get("User-Agent")
			_, _ = w.Write([]byte("release-bytes"))
		}))
		defer srv.Close()

		err := DownloadWith(context.Background(), srv.Client(), srv.URL+"/v1.zip", "/dl/v1.zip", DownloadOptions{
			Headers: map[string]string{"Authorization": "Bearer abc123"},
		})
		require.NoError(t, err)

		data, err := afero.ReadFile(mockFS.Base, "/dl/v1.zip")
		require.NoError(t, err)
		assert.Equal(t, "release-bytes", string(data))
		assert.Equal(t, "Bearer abc123", gotAuth)
		assert.Equal(t, UserAgent(), gotAgent)
	})

	t.Run("retries server errors and truncates partial output", func(t *testing.T) {
		mockFS := useMockFS(t)
		require.NoError(t, mockFS.Base.MkdirAll("/dl", 0755))
		fastRetries(t)

		var hits int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if atomic.AddInt32(&hits, 1) < 3 {
				w.WriteHeader(http.StatusBadGateway)
				return
			}
			_, _ = w.Write([]byte("ok"))
		}))
		defer srv.Close()

		err := DownloadWith(context.Background(), srv.Client(), srv.URL, "/dl/file.zip", DownloadOptions{})
		require.NoError(t, err)
		assert.Equal(t, int32(3), atomic.LoadInt32(&hits))

		data, err := afero.ReadFile(mockFS.Base, "/dl/file.zip")
		require.NoError(t, err)
		assert.Equal(t, "ok", string(data))
	})

	t.Run("client errors are not retried", func(t *testing.T) {
		useMockFS(t)
		fastRetries(t)

		var hits int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&hits, 1)
			w.WriteHeader(http.StatusNotFound)
		}))
		defer srv.Close()

		err := DownloadWith(context.Background(), srv.Client(), srv.URL, "/dl/file.zip", DownloadOptions{})
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrUnexpectedStatus))
		assert.Contains(t, err.Error(), "404")
		assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
	})

	t.Run("gives up after the configured retries", func(t *testing.T) {
		useMockFS(t)
		fastRetries(t)

		client := &MockHTTPClient{
			DoFunc: func(req *http.Request) (*http.Response, error) {
				return nil, errors.New("connection reset")
			},
		}
		SetHTTPClient(client)

		err := Download(context.Background(), "http://example.com/a.zip", "/dl/a.zip", DownloadOptions{Retries: 2})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "connection reset")
		assert.Equal(t, 3, client.Calls)
	})

	t.Run("negative retries disable retrying", func(t *testing.T) {
		useMockFS(t)
		client := &MockHTTPClient{
			DoFunc: func(req *http.Request) (*http.Response, error) {
				return nil, errors.New("boom")
			},
		}
		SetHTTPClient(client)

		err := Download(context.Background(), "http://example.com/a.zip", "/dl/a.zip", DownloadOptions{Retries: -1})
		require.Error(t, err)
		assert.Equal(t, 1, client.Calls)
	})

	t.Run("cancelled context stops immediately", func(t *testing.T) {
		useMockFS(t)
		ctx, cancel := context.WithCancel(context.Background())
		client := &MockHTTPClient{
			DoFunc: func(req *http.Request) (*http.Response, error) {
				cancel()
				return nil, req.Context().Err()
			},
		}
		SetHTTPClient(client)

		err := Download(ctx, "http://example.com/a.zip", "/dl/a.zip", DownloadOptions{})
		require.Error(t, err)
		assert.True(t, errors.Is(err, context.Canceled))
		assert.Equal(t, 1, client.Calls)
	})

	t.Run("create error", func(t *testing.T) {
		mockFS := useMockFS(t)
		mockFS.OpenFileFunc = func(name string, flag int, perm os.FileMode) (afero.File, error) {
			return nil, errors.New("read-only filesystem")
		}

		err := Download(context.Background(), "http://example.com/a.zip", "/dl/a.zip", DownloadOptions{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "read-only filesystem")
	})

	t.Run("progress bar wraps the body", func(t *testing.T) {
		mockFS := useMockFS(t)
		SetShowProgress(true)

		client := &MockHTTPClient{
			DoFunc: func(req *http.Request) (*http.Response, error) {
				return &http.Response{
					StatusCode:    http.StatusOK,
					Status:        "200 OK",
					ContentLength: 5,
					Body:          io.NopCloser(strings.NewReader("hello")),
				}, nil
			},
		}
		SetHTTPClient(client)

		require.NoError(t, Download(context.Background(), "http://example.com/a.zip", "/dl/a.zip", DownloadOptions{}))
		data, err := afero.ReadFile(mockFS.Base, "/dl/a.zip")
		require.NoError(t, err)
		assert.Equal(t, "hello", string(data))
	})
}

func TestUserAgent(t *testing.T) {
	assert.True(t, strings.HasPrefix(UserAgent(), "selfupdate/"))
}
