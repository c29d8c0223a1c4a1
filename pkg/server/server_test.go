package server

import (
	"EH-Filter/pkg/sensitive"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHolder(t *testing.T, words string) (*sensitive.Holder, afero.Fs) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/sensitive-words.txt", []byte(words), 0644))
	return sensitive.NewHolder(fs, "/sensitive-words.txt", sensitive.Options{}), fs
}

func post(t *testing.T, h http.Handler, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHandleFilter(t *testing.T) {
	holder, _ := newTestHolder(t, "赌博\nbadword\n")
	h := NewServer(holder, 0).Handler()

	rec := post(t, h, "/filter", "这里可以赌博吗, b-a-d-w-o-r-d")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "这里可以***吗, ***", rec.Body.String())
	assert.Equal(t, "text/plain; charset=utf-8", rec.Header().Get("Content-Type"))

	rec = post(t, h, "/filter", " \n\t")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/filter", nil)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, http.MethodPost, rec.Header().Get("Allow"))
}

func TestHandleFilterBodyTooLarge(t *testing.T) {
	holder, _ := newTestHolder(t, "bad\n")
	s := NewServer(holder, 0)
	s.maxBodySize = 8

	rec := post(t, s.Handler(), "/filter", "this body is longer than eight bytes")
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestHandleCheck(t *testing.T) {
	holder, _ := newTestHolder(t, "赌博\n")
	h := NewServer(holder, 0).Handler()

	assert.Equal(t, "true", post(t, h, "/check", "赌-博").Body.String())
	assert.Equal(t, "false", post(t, h, "/check", "赌。博").Body.String())
	assert.Equal(t, "false", post(t, h, "/check", "").Body.String())
}

func TestFilterCacheFollowsReload(t *testing.T) {
	holder, fs := newTestHolder(t, "cat\n")
	s := NewServer(holder, time.Minute)
	h := s.Handler()

	assert.Equal(t, "*** dog", post(t, h, "/filter", "cat dog").Body.String())
	assert.Equal(t, 1, s.cache.ItemCount())
	assert.Equal(t, "*** dog", post(t, h, "/filter", "cat dog").Body.String())
	assert.Equal(t, 1, s.cache.ItemCount())

	require.NoError(t, afero.WriteFile(fs, "/sensitive-words.txt", []byte("dog\n"), 0644))
	require.NoError(t, holder.Reload())
	assert.Equal(t, "cat ***", post(t, h, "/filter", "cat dog").Body.String())
	assert.Equal(t, 2, s.cache.ItemCount())
}

func counterValue(t *testing.T, name string) float64 {
	t.Helper()
	mfs, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf.GetMetric()[0].GetCounter().GetValue()
		}
	}
	t.Fatalf("metric %s not found", name)
	return 0
}

func TestFilterCacheHitCounted(t *testing.T) {
	holder, _ := newTestHolder(t, "cat\n")
	s := NewServer(holder, time.Minute)
	h := s.Handler()

	texts := counterValue(t, "eh_filter_texts_filtered_total")
	masked := counterValue(t, "eh_filter_words_masked_total")
	assert.Equal(t, "*** and ***", post(t, h, "/filter", "cat and cat").Body.String())
	assert.Equal(t, "*** and ***", post(t, h, "/filter", "cat and cat").Body.String())
	assert.Equal(t, 1, s.cache.ItemCount())
	assert.Equal(t, texts+2, counterValue(t, "eh_filter_texts_filtered_total"))
	assert.Equal(t, masked+4, counterValue(t, "eh_filter_words_masked_total"))
}

func TestFilterCacheSkipsLargeText(t *testing.T) {
	holder, _ := newTestHolder(t, "cat\n")
	s := NewServer(holder, time.Minute)
	h := s.Handler()

	long := strings.Repeat("a", MaxCachedTextSize)
	assert.Equal(t, long+"***", post(t, h, "/filter", long+"cat").Body.String())
	assert.Equal(t, 0, s.cache.ItemCount())
	assert.Equal(t, "***", post(t, h, "/filter", "cat").Body.String())
	assert.Equal(t, 1, s.cache.ItemCount())
}

func TestMetricsEndpoint(t *testing.T) {
	holder, _ := newTestHolder(t, "cat\n")
	h := NewServer(holder, 0).Handler()
	post(t, h, "/filter", "cat")

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "eh_filter_texts_filtered_total")
	assert.Contains(t, rec.Body.String(), "eh_filter_words_masked_total")
}

func TestServeAndShutdown(t *testing.T) {
	holder, _ := newTestHolder(t, "cat\n")
	s := NewServer(holder, time.Minute)
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- s.ServeListener(listener) }()

	resp, err := http.Post("http://"+listener.Addr().String()+"/filter", "text/plain", strings.NewReader("a cat"))
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, "a ***", string(body))

	s.Shutdown()
	select {
	case err = <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
