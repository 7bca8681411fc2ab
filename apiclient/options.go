package apiclient

import (
	"bytes"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"

	"github.com/pkg/errors"
)

// CallOption customises a single request.
type CallOption func(*callOptions)

type callOptions struct {
	query         url.Values
	headers       http.Header
	noContentType bool
	bearer        string
	multipart     *multipartBody
}

func newCallOptions(opts []CallOption) *callOptions {
	o := &callOptions{
		query:   url.Values{},
		headers: http.Header{},
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithQuery adds a query parameter. Empty values are skipped.
func WithQuery(key, value string) CallOption {
	return func(o *callOptions) {
		if value != "" {
			o.query.Add(key, value)
		}
	}
}

// WithQueryValues merges a set of query parameters.
func WithQueryValues(values url.Values) CallOption {
	return func(o *callOptions) {
		for k, vs := range values {
			for _, v := range vs {
				o.query.Add(k, v)
			}
		}
	}
}

func WithHeader(key, value string) CallOption {
	return func(o *callOptions) {
		o.headers.Set(key, value)
	}
}

// WithBearer authenticates the call with token instead of asking the token supplier.
func WithBearer(token string) CallOption {
	return func(o *callOptions) {
		o.bearer = token
	}
}

// WithoutContentType suppresses the default JSON content type.
func WithoutContentType() CallOption {
	return func(o *callOptions) {
		o.noContentType = true
	}
}

// FormFile is one file part of a multipart upload.
type FormFile struct {
	Field    string
	Filename string
	Content  io.Reader
}

type multipartBody struct {
	fields map[string]string
	files  []FormFile
}

// WithMultipart sends the request as multipart/form-data built from fields and files.
// The body argument of the call is ignored.
func WithMultipart(fields map[string]string, files ...FormFile) CallOption {
	return func(o *callOptions) {
		o.noContentType = true
		o.multipart = &multipartBody{fields: fields, files: files}
	}
}

func (m *multipartBody) encode() (io.Reader, string, error) {
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)
	for k, v := range m.fields {
		if err := w.WriteField(k, v); err != nil {
			return nil, "", errors.Wrap(err, "multipart WriteField")
		}
	}
	for _, f := range m.files {
		part, err := w.CreateFormFile(f.Field, f.Filename)
		if err != nil {
			return nil, "", errors.Wrap(err, "multipart CreateFormFile")
		}
		if _, err := io.Copy(part, f.Content); err != nil {
			return nil, "", errors.Wrap(err, "multipart copy "+f.Filename)
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", errors.Wrap(err, "multipart Close")
	}
	return buf, w.FormDataContentType(), nil
}
