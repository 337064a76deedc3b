package utils

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httputil"
	"net/url"
	"os"
	"strings"
	"time"
)

type reqOpts struct {
	addr   string
	method string
	query  string
	body   io.Reader
}

type ReqOpt func(opts *reqOpts)

func WithReqAddr(addr string) ReqOpt {
	return func(opts *reqOpts) {
		if !strings.HasPrefix(addr, "http") {
			opts.addr = "http://" + addr
		} else {
			opts.addr = addr
		}
	}
}

func WithReqMethod(method string) ReqOpt {
	return func(opts *reqOpts) { opts.method = method }
}

func WithReqQueryKV(k string, v any) ReqOpt {
	return func(opts *reqOpts) {
		s := fmt.Sprintf("%s=%v", k, v)
		if opts.query != "" {
			opts.query = fmt.Sprintf("%s&%s", opts.query, s)
		} else {
			opts.query = s
		}
	}
}

func WithReqBody(body io.Reader) ReqOpt {
	return func(opts *reqOpts) { opts.body = body }
}

type BodyToValue[T any] func(body []byte) (*T, error)

// NewHTTPRequestMessage performs the request and converts the response body.
func NewHTTPRequestMessage[T any](uri string, b2v BodyToValue[T], opts ...ReqOpt) (*T, error) {
	resp, err := NewHTTPRequest(uri, opts...)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	dump, err := httputil.DumpResponse(resp, true)
	if err != nil {
		return nil, err
	}
	VerbosePrintln(addPrefixToHTTPLine(string(dump), "< "))

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	return b2v(data)
}

func NewHTTPRequest(uri string, opts ...ReqOpt) (*http.Response, error) {
	var o reqOpts
	for _, opt := range opts {
		opt(&o)
	}
	if o.method == "" {
		o.method = http.MethodGet
	}

	// Env override wins over the flag-provided address
	addr := os.Getenv("MINISTACK_API_ADDR")
	if addr != "" {
		o.addr = addr
	}
	if o.addr == "" {
		return nil, fmt.Errorf("empty api address")
	}

	reqURI, err := url.JoinPath(o.addr, uri)
	if err != nil {
		return nil, err
	}
	if o.query != "" {
		reqURI = fmt.Sprintf("%s?%s", reqURI, o.query)
	}
	req, err := http.NewRequest(o.method, reqURI, o.body)
	if err != nil {
		return nil, err
	}

	dump, err := httputil.DumpRequest(req, true)
	if err != nil {
		return nil, err
	}
	VerbosePrintln(addPrefixToHTTPLine(string(dump), "> "))

	client := http.Client{
		Transport: &http.Transport{DisableKeepAlives: true},
		Timeout:   time.Second * 10,
	}
	return client.Do(req)
}

func addPrefixToHTTPLine(s, prefix string) string {
	lines := strings.Split(s, "\r\n")
	for k, line := range lines {
		lines[k] = prefix + line
	}
	return strings.Join(lines, "\r\n")
}
