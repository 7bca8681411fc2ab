package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// TokenSupplier returns the current access token; "" means send the request
// unauthenticated. An error aborts the call.
type TokenSupplier func(ctx context.Context) (string, error)

// Fetcher is the single gateway to the backend API. Every call asks the token
// supplier first and attaches the bearer token when there is one.
type Fetcher struct {
	baseURL *url.URL
	client  *http.Client
	token   TokenSupplier
}

func NewFetcher(baseURL string, client *http.Client, token TokenSupplier) (*Fetcher, error) {
	u, err := url.Parse(strings.TrimSuffix(baseURL, "/"))
	if err != nil {
		return nil, errors.Wrap(err, "NewFetcher parse base url")
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, errors.Errorf("NewFetcher base url %q must be absolute", baseURL)
	}
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	if token == nil {
		token = func(context.Context) (string, error) { return "", nil }
	}
	return &Fetcher{baseURL: u, client: client, token: token}, nil
}

// Blob is an opaque binary response such as a report download.
type Blob struct {
	Data        []byte
	ContentType string
	Filename    string
}

// Call sends a request and decodes a JSON response into out. out may be nil.
func (f *Fetcher) Call(ctx context.Context, method, path string, body, out any, opts ...CallOption) error {
	resp, err := f.send(ctx, method, path, body, opts)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrapf(err, "Fetcher.Call %s %s read body", method, path)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return errors.Wrapf(err, "Fetcher.Call %s %s decode", method, path)
	}
	return nil
}

// Do is Call with the response type as a type parameter.
func Do[T any](ctx context.Context, f *Fetcher, method, path string, body any, opts ...CallOption) (T, error) {
	var out T
	err := f.Call(ctx, method, path, body, &out, opts...)
	return out, err
}

// CallBlob sends a request and returns the raw response payload.
func (f *Fetcher) CallBlob(ctx context.Context, method, path string, body any, opts ...CallOption) (*Blob, error) {
	resp, err := f.send(ctx, method, path, body, opts)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrapf(err, "Fetcher.CallBlob %s %s read body", method, path)
	}
	blob := &Blob{Data: data, ContentType: resp.Header.Get("Content-Type")}
	if _, params, err := mime.ParseMediaType(resp.Header.Get("Content-Disposition")); err == nil {
		blob.Filename = params["filename"]
	}
	return blob, nil
}

// resolve joins relative paths to the base URL; absolute URLs are used as-is.
func (f *Fetcher) resolve(path string, query url.Values) (*url.URL, error) {
	var u *url.URL
	if parsed, err := url.Parse(path); err == nil && parsed.IsAbs() {
		u = parsed
	} else {
		rel, err := url.Parse(strings.TrimPrefix(path, "/"))
		if err != nil {
			return nil, errors.Wrapf(err, "Fetcher invalid path %q", path)
		}
		base := *f.baseURL
		base.Path = strings.TrimSuffix(base.Path, "/") + "/"
		u = base.ResolveReference(rel)
	}
	if len(query) > 0 {
		q := u.Query()
		for k, vs := range query {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		u.RawQuery = q.Encode()
	}
	return u, nil
}

func (f *Fetcher) send(ctx context.Context, method, path string, body any, opts []CallOption) (*http.Response, error) {
	o := newCallOptions(opts)

	target, err := f.resolve(path, o.query)
	if err != nil {
		return nil, err
	}

	var reader io.Reader
	contentType := ""
	switch {
	case o.multipart != nil:
		if reader, contentType, err = o.multipart.encode(); err != nil {
			return nil, errors.Wrapf(err, "Fetcher %s %s", method, path)
		}
	case body != nil:
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, errors.Wrapf(err, "Fetcher %s %s encode body", method, path)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, strings.ToUpper(method), target.String(), reader)
	if err != nil {
		return nil, errors.Wrapf(err, "Fetcher %s %s new request", method, path)
	}
	for k, vs := range o.headers {
		req.Header[k] = vs
	}
	switch {
	case contentType != "":
		req.Header.Set("Content-Type", contentType)
	case !o.noContentType:
		req.Header.Set("Content-Type", "application/json")
	}

	// The supplied token is only sent to the API host, never to foreign links.
	token := o.bearer
	if token == "" && strings.EqualFold(target.Host, f.baseURL.Host) {
		if token, err = f.token(ctx); err != nil {
			return nil, errors.Wrapf(err, "Fetcher %s %s token", method, path)
		}
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "Fetcher %s %s", method, path)
	}
	log.Debug().
		Str("method", req.Method).
		Str("url", req.URL.Redacted()).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Bool("authenticated", token != "").
		Msg("api call")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		return nil, newHTTPError(resp.StatusCode, resp.Status, raw)
	}
	return resp, nil
}
