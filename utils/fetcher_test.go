package utils

import (
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProbeSize(t *testing.T) {
	body := []byte("attachment-bytes")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(body)
	}))
	defer srv.Close()

	size, err := NewFetcher(0).ProbeSize(srv.URL)
	require.NoError(t, err)
	assert.EqualValues(t, len(body), size)
}

func TestProbeSizeErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	size, err := NewFetcher(0).ProbeSize(srv.URL)
	require.Error(t, err)
	assert.EqualValues(t, -1, size)
}

func TestFetchBuffer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("hello"))
	}))
	defer srv.Close()

	buf, err := NewFetcher(0).FetchBuffer(srv.URL)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), buf)
}

func TestFetchBufferRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte("eventually"))
	}))
	defer srv.Close()

	buf, err := NewFetcher(2).FetchBuffer(srv.URL)
	require.NoError(t, err)
	assert.Equal(t, []byte("eventually"), buf)
	assert.EqualValues(t, 2, calls.Load())
}

func TestFetchBufferClientErrorIsPermanent(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewFetcher(3).FetchBuffer(srv.URL)
	require.Error(t, err)
	// 404 must not burn the retry budget.
	assert.EqualValues(t, 1, calls.Load())
}

func TestFetchStream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("streamed-content"))
	}))
	defer srv.Close()

	stream, err := NewFetcher(0).FetchStream(srv.URL)
	require.NoError(t, err)
	defer stream.Close()

	got, err := io.ReadAll(stream)
	require.NoError(t, err)
	assert.Equal(t, []byte("streamed-content"), got)
}
