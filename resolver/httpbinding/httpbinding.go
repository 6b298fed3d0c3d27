/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package httpbinding resolves DIDs from an HTTP endpoint that serves packed DID document state.
package httpbinding

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/hyperledger/aries-framework-go/component/log"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/trustbloc/identity-go/did"
)

var logger = log.New("identity-go/resolver/httpbinding")

const (
	contentTypeState     = "application/octet-stream"
	defaultMaxRetries    = 3
	defaultRetryInterval = 200 * time.Millisecond
	maxBodySize          = 1 << 20
)

var (
	// ErrNotFound is returned when the endpoint has no document for the DID.
	ErrNotFound = errors.New("DID document not found")
	// ErrUnexpectedResponse is returned for responses other than 200 and 404.
	ErrUnexpectedResponse = errors.New("unexpected response from DID endpoint")
)

// Handler resolves DIDs via HTTP(s) endpoint.
type Handler struct {
	endpointURL   *url.URL
	client        *http.Client
	timeout       time.Duration
	maxRetries    uint64
	retryInterval time.Duration
}

// Option configures the Handler.
type Option func(h *Handler)

// WithHTTPClient option is for custom http client. The client is copied and its transport is instrumented.
func WithHTTPClient(client *http.Client) Option {
	return func(h *Handler) {
		h.client = client
	}
}

// WithTimeout sets the timeout of a single HTTP request.
func WithTimeout(timeout time.Duration) Option {
	return func(h *Handler) {
		h.timeout = timeout
	}
}

// WithMaxRetries bounds the number of retries of transient failures. Zero disables retries.
func WithMaxRetries(n uint64) Option {
	return func(h *Handler) {
		h.maxRetries = n
	}
}

// WithRetryInterval sets the initial interval between retries.
func WithRetryInterval(d time.Duration) Option {
	return func(h *Handler) {
		h.retryInterval = d
	}
}

// New creates a Handler that resolves <endpointURL>/<did>.
func New(endpointURL string, opts ...Option) (*Handler, error) {
	u, err := url.ParseRequestURI(endpointURL)
	if err != nil {
		return nil, fmt.Errorf("base URL invalid: %w", err)
	}

	h := &Handler{
		endpointURL:   u,
		client:        &http.Client{},
		maxRetries:    defaultMaxRetries,
		retryInterval: defaultRetryInterval,
	}

	for _, opt := range opts {
		opt(h)
	}

	client := *h.client

	transport := client.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}

	client.Transport = otelhttp.NewTransport(transport)

	if h.timeout > 0 {
		client.Timeout = h.timeout
	}

	h.client = &client

	return h, nil
}

// Resolve fetches and unpacks the document of id. Transport errors and 5xx responses are retried.
func (h *Handler) Resolve(ctx context.Context, id did.DID) (*did.Document, error) {
	reqURL := *h.endpointURL
	reqURL.Path = path.Join("/", reqURL.Path, id.String())

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = h.retryInterval

	var doc *did.Document

	err := backoff.RetryNotify(func() error {
		var err error

		doc, err = h.fetch(ctx, reqURL.String())

		return err
	}, backoff.WithContext(backoff.WithMaxRetries(b, h.maxRetries), ctx),
		func(err error, next time.Duration) {
			logger.Warnf("resolve %s failed, retrying in %s: %s", id, next, err)
		})
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", id, err)
	}

	return doc, nil
}

func (h *Handler) fetch(ctx context.Context, uri string) (*did.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, http.NoBody)
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("HTTP create get request failed: %w", err))
	}

	req.Header.Set("Accept", contentTypeState)

	resp, err := h.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, backoff.Permanent(ctx.Err())
		}

		return nil, fmt.Errorf("HTTP Get request failed: %w", err)
	}

	defer closeResponseBody(resp.Body)

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("reading response body failed: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		doc, err := did.Unpack(body)
		if err != nil {
			return nil, backoff.Permanent(err)
		}

		return doc, nil
	case resp.StatusCode == http.StatusNotFound:
		return nil, backoff.Permanent(ErrNotFound)
	case resp.StatusCode >= http.StatusInternalServerError:
		return nil, fmt.Errorf("%w: status %d", ErrUnexpectedResponse, resp.StatusCode)
	default:
		return nil, backoff.Permanent(fmt.Errorf("%w: status %d body [%s]", ErrUnexpectedResponse,
			resp.StatusCode, body))
	}
}

func closeResponseBody(respBody io.Closer) {
	if err := respBody.Close(); err != nil {
		logger.Errorf("Failed to close response body: %v", err)
	}
}
