package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

// ErrAborted is returned when the request context is cancelled mid-flight.
var ErrAborted = errors.New("Operation aborted")

// Error is a non-2xx response from the platform. Code carries the short
// symbolic value reported by the server (for example "not_found").
type Error struct {
	Status      int
	Code        string
	Description string
}

func (e *Error) Error() string {
	if e.Code != "" {
		return e.Code
	}
	if e.Description != "" {
		return e.Description
	}
	return fmt.Sprintf("request failed (%d)", e.Status)
}

// TransportError wraps a failure to talk to the server at all.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return e.Err.Error()
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

type apiErrorPayload struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
	Message          string `json:"message"`
}

// File is a multipart attachment.
type File struct {
	Path string
	Name string
	Size int64
}

// FileFromPath describes the file at path, uploaded under name.
func FileFromPath(path, name string, size int64) *File {
	return &File{Path: path, Name: name, Size: size}
}

// Options is the per-request option bag.
type Options struct {
	Query       url.Values
	AccessToken string
	Data        map[string]string
	File        *File
	Headers     http.Header
}

// Client performs requests against absolute URLs.
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout sets the overall timeout of a single request.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithLogger sets the logger used for request traces.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient constructs a REST client.
func NewClient(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NormalizeBaseURL trims raw and its trailing slashes. Only absolute http and
// https URLs are accepted.
func NormalizeBaseURL(raw string) (string, error) {
	value := strings.TrimRight(strings.TrimSpace(raw), "/")
	parsed, err := url.Parse(value)
	if err != nil {
		return "", fmt.Errorf("invalid server url %q: %w", raw, err)
	}
	if (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return "", fmt.Errorf("server url %q must be an absolute http(s) url", raw)
	}
	return value, nil
}

// Get issues a GET request and decodes the response into out.
func (c *Client) Get(ctx context.Context, endpoint string, opts Options, out any) error {
	return c.do(ctx, http.MethodGet, endpoint, opts, nil, out)
}

// Head issues a HEAD request.
func (c *Client) Head(ctx context.Context, endpoint string, opts Options) error {
	return c.do(ctx, http.MethodHead, endpoint, opts, nil, nil)
}

// Del issues a DELETE request.
func (c *Client) Del(ctx context.Context, endpoint string, opts Options, out any) error {
	return c.do(ctx, http.MethodDelete, endpoint, opts, nil, out)
}

// Post sends opts.Data form encoded, or as multipart when opts.File is set.
func (c *Client) Post(ctx context.Context, endpoint string, opts Options, out any) error {
	return c.send(ctx, http.MethodPost, endpoint, opts, out)
}

// Put is Post with the PUT method.
func (c *Client) Put(ctx context.Context, endpoint string, opts Options, out any) error {
	return c.send(ctx, http.MethodPut, endpoint, opts, out)
}

// JSON sends body encoded as JSON with the given method.
func (c *Client) JSON(ctx context.Context, method, endpoint string, body any, opts Options, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	if opts.Headers == nil {
		opts.Headers = http.Header{}
	}
	opts.Headers.Set("Content-Type", "application/json")
	return c.do(ctx, method, endpoint, opts, &requestBody{reader: bytes.NewReader(data), length: int64(len(data))}, out)
}

// PostJSON is JSON with the POST method.
func (c *Client) PostJSON(ctx context.Context, endpoint string, body any, opts Options, out any) error {
	return c.JSON(ctx, http.MethodPost, endpoint, body, opts, out)
}

// requestBody is a streamed body of known length.
type requestBody struct {
	reader io.Reader
	length int64
}

func (c *Client) send(ctx context.Context, method, endpoint string, opts Options, out any) error {
	if opts.File != nil {
		return c.sendMultipart(ctx, method, endpoint, opts, out)
	}
	form := url.Values{}
	for key, value := range opts.Data {
		form.Set(key, value)
	}
	if opts.Headers == nil {
		opts.Headers = http.Header{}
	}
	opts.Headers.Set("Content-Type", "application/x-www-form-urlencoded")
	encoded := form.Encode()
	return c.do(ctx, method, endpoint, opts, &requestBody{reader: strings.NewReader(encoded), length: int64(len(encoded))}, out)
}

// sendMultipart streams the fields and the file without buffering the file.
// The form fields and the part header are rendered up front so the request
// carries an exact Content-Length.
func (c *Client) sendMultipart(ctx context.Context, method, endpoint string, opts Options, out any) error {
	file, err := os.Open(opts.File.Path)
	if err != nil {
		return err
	}
	defer file.Close()

	size := opts.File.Size
	if size <= 0 {
		info, err := file.Stat()
		if err != nil {
			return err
		}
		size = info.Size()
	}

	head := &bytes.Buffer{}
	writer := multipart.NewWriter(head)
	for key, value := range opts.Data {
		if err := writer.WriteField(key, value); err != nil {
			return err
		}
	}
	if _, err := writer.CreateFormFile("file", opts.File.Name); err != nil {
		return err
	}
	tail := "\r\n--" + writer.Boundary() + "--\r\n"

	if opts.Headers == nil {
		opts.Headers = http.Header{}
	}
	opts.Headers.Set("Content-Type", writer.FormDataContentType())
	body := &requestBody{
		reader: io.MultiReader(head, io.LimitReader(file, size), strings.NewReader(tail)),
		length: int64(head.Len()) + size + int64(len(tail)),
	}
	return c.do(ctx, method, endpoint, opts, body, out)
}

func (c *Client) do(ctx context.Context, method, endpoint string, opts Options, body *requestBody, out any) error {
	target, err := buildURL(endpoint, opts.Query)
	if err != nil {
		return err
	}

	var reader io.Reader
	if body != nil {
		reader = body.reader
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.ContentLength = body.length
	}
	for key, values := range opts.Headers {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}
	req.Header.Set("Accept", "application/json")
	if opts.AccessToken != "" {
		req.Header.Set("Authorization", "Bearer "+opts.AccessToken)
	}

	c.logger.Debug("rest request", "method", method, "url", target)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ErrAborted
		}
		return &TransportError{Err: err}
	}
	defer resp.Body.Close()

	respData, err := io.ReadAll(resp.Body)
	if err != nil {
		if ctx.Err() != nil {
			return ErrAborted
		}
		return &TransportError{Err: err}
	}
	c.logger.Debug("rest response", "method", method, "url", target, "status", resp.StatusCode)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeError(resp.StatusCode, respData)
	}

	if out == nil || len(bytes.TrimSpace(respData)) == 0 {
		return nil
	}
	if err := json.Unmarshal(respData, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func decodeError(status int, data []byte) *Error {
	apiErr := &Error{Status: status}
	var payload apiErrorPayload
	if err := json.Unmarshal(data, &payload); err == nil {
		switch {
		case payload.ErrorDescription != "":
			apiErr.Code = payload.ErrorDescription
		case payload.Error != "":
			apiErr.Code = payload.Error
		}
		apiErr.Description = payload.Message
	} else {
		apiErr.Description = strings.TrimSpace(string(data))
	}
	if apiErr.Code == "" && apiErr.Description == "" {
		apiErr.Description = http.StatusText(status)
	}
	return apiErr
}

func buildURL(endpoint string, query url.Values) (string, error) {
	parsed, err := url.Parse(endpoint)
	if err != nil {
		return "", err
	}
	if len(query) > 0 {
		existing := parsed.Query()
		for key, values := range query {
			for _, value := range values {
				existing.Add(key, value)
			}
		}
		parsed.RawQuery = existing.Encode()
	}
	return parsed.String(), nil
}

// CodeOf returns the symbolic server code carried by err, if any.
func CodeOf(err error) string {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	return ""
}
