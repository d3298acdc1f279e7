package utils

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Fetcher downloads announcement attachments with bounded retry and
// exponential backoff. Client errors (4xx) are permanent and not retried.
type Fetcher struct {
	client  *http.Client
	probe   *http.Client
	stream  *http.Client
	retries uint64
}

// NewFetcher builds a fetcher that gives each download up to retries
// additional attempts.
func NewFetcher(retries uint64) *Fetcher {
	return &Fetcher{
		client: &http.Client{Timeout: 30 * time.Second},
		probe:  &http.Client{Timeout: 5 * time.Second},
		// No overall timeout: large attachments stream for as long as the
		// copy takes.
		stream:  &http.Client{},
		retries: retries,
	}
}

func (f *Fetcher) newBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = time.Second
	return backoff.WithMaxRetries(b, f.retries)
}

func checkStatus(resp *http.Response, url string) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	err := fmt.Errorf("%s %s: status %d", resp.Request.Method, url, resp.StatusCode)
	if resp.StatusCode >= 400 && resp.StatusCode < 500 {
		return backoff.Permanent(err)
	}
	return err
}

// ProbeSize asks the server for the attachment size via HEAD. It returns -1
// when the server does not advertise a length.
func (f *Fetcher) ProbeSize(url string) (int64, error) {
	resp, err := f.probe.Head(url)
	if err != nil {
		return -1, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return -1, fmt.Errorf("HEAD %s: status %d", url, resp.StatusCode)
	}
	return resp.ContentLength, nil
}

// FetchBuffer downloads the attachment fully into memory.
func (f *Fetcher) FetchBuffer(url string) ([]byte, error) {
	var buf []byte
	op := func() error {
		resp, err := f.client.Get(url)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if err := checkStatus(resp, url); err != nil {
			return err
		}
		buf, err = io.ReadAll(resp.Body)
		return err
	}
	if err := backoff.Retry(op, f.newBackOff()); err != nil {
		return nil, err
	}
	return buf, nil
}

// FetchStream opens the attachment body for streaming. The caller owns the
// returned reader. Retries cover connecting and the response status; a
// failure mid-stream is the caller's to handle.
func (f *Fetcher) FetchStream(url string) (io.ReadCloser, error) {
	var body io.ReadCloser
	op := func() error {
		resp, err := f.stream.Get(url)
		if err != nil {
			return err
		}
		if err := checkStatus(resp, url); err != nil {
			resp.Body.Close()
			return err
		}
		body = resp.Body
		return nil
	}
	if err := backoff.Retry(op, f.newBackOff()); err != nil {
		return nil, err
	}
	return body, nil
}
