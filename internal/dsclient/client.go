package dsclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dswatch/dswatch/internal/logutils"
	"github.com/go-resty/resty/v2"
)

const (
	sessionName = "DownloadStation"
	authTimeout = 10 * time.Second
)

// ConnectionSettings identifies the Download Station server. An empty Host
// means the client is unconfigured: every call returns a missing-config
// failure without touching the network.
type ConnectionSettings struct {
	Host     string // Web API root, e.g. "https://nas:5001"
	Username string
	Password string
}

// Client talks to the Download Station Web API. Sessions are established
// lazily and cached until Logout clears them.
type Client struct {
	settings ConnectionSettings
	http     *resty.Client

	mu  sync.Mutex
	sid string
}

func New(settings ConnectionSettings) *Client {
	client := resty.New()
	if settings.Host != "" {
		client.SetBaseURL(strings.TrimSuffix(settings.Host, "/") + "/webapi")
	}
	return &Client{
		settings: settings,
		http:     client,
	}
}

func (c *Client) Configured() bool {
	return c.settings.Host != ""
}

type loginData struct {
	Sid string `json:"sid"`
}

// Login authenticates and caches the session id.
func (c *Client) Login(ctx context.Context) Result[Void] {
	res := doGet[loginData](ctx, c, "auth.cgi", map[string]string{
		"api":     "SYNO.API.Auth",
		"version": "2",
		"method":  "login",
		"account": c.settings.Username,
		"passwd":  c.settings.Password,
		"session": sessionName,
		"format":  "sid",
	}, authTimeout)
	if res.Failure != nil {
		return Result[Void]{Failure: res.Failure}
	}
	if res.Response.Success {
		c.mu.Lock()
		c.sid = res.Response.Data.Sid
		c.mu.Unlock()
	}
	return Result[Void]{Response: &Response[Void]{
		Success: res.Response.Success,
		Error:   res.Response.Error,
	}}
}

// Logout drops the cached session and tells the server to end it. Failures
// are only logged: a dead session needs no remote teardown.
func (c *Client) Logout(ctx context.Context) {
	c.mu.Lock()
	sid := c.sid
	c.sid = ""
	c.mu.Unlock()
	if sid == "" || !c.Configured() {
		return
	}
	res := doGet[Void](ctx, c, "auth.cgi", map[string]string{
		"api":     "SYNO.API.Auth",
		"version": "2",
		"method":  "logout",
		"session": sessionName,
		"_sid":    sid,
	}, authTimeout)
	if res.Failure != nil {
		logutils.Log.WithError(res.Failure.Err).Debug("Logout request failed")
	}
}

type ListOptions struct {
	Offset     int
	Limit      int // -1 requests all tasks
	Additional string
	Timeout    time.Duration
}

func (c *Client) ListTasks(ctx context.Context, opts ListOptions) Result[TaskList] {
	params := map[string]string{
		"api":     "SYNO.DownloadStation.Task",
		"version": "1",
		"method":  "list",
		"offset":  strconv.Itoa(opts.Offset),
		"limit":   strconv.Itoa(opts.Limit),
	}
	if opts.Additional != "" {
		params["additional"] = opts.Additional
	}
	return taskCall[TaskList](ctx, c, params, opts.Timeout)
}

// FileUpload is a metadata file (torrent, NZB) submitted by content.
type FileUpload struct {
	Filename string
	Content  []byte
}

type CreateRequest struct {
	URIs        []string
	Files       []FileUpload
	Destination string
}

const createTimeout = 30 * time.Second

// CreateTasks submits one batched create request: all bare URIs in one form
// field, all metadata files as multipart parts.
func (c *Client) CreateTasks(ctx context.Context, req CreateRequest) Result[Void] {
	if !c.Configured() {
		return failed[Void](FailureMissingConfig, nil)
	}
	sid, connFail, apiErr := c.sessionID(ctx)
	if connFail != nil {
		return Result[Void]{Failure: connFail}
	}
	if apiErr != nil {
		return Result[Void]{Response: &Response[Void]{Success: false, Error: *apiErr}}
	}

	callCtx, cancel := context.WithTimeout(ctx, createTimeout)
	defer cancel()

	fields := map[string]string{
		"api":     "SYNO.DownloadStation.Task",
		"version": "1",
		"method":  "create",
		"_sid":    sid,
	}
	if len(req.URIs) > 0 {
		fields["uri"] = strings.Join(req.URIs, ",")
	}
	if req.Destination != "" {
		fields["destination"] = req.Destination
	}

	r := c.http.R().SetContext(callCtx).SetFormData(fields)
	for _, f := range req.Files {
		r.SetFileReader("file", f.Filename, bytes.NewReader(f.Content))
	}
	resp, err := r.Post("DownloadStation/task.cgi")
	if err != nil {
		return failed[Void](classifyTransportError(err), err)
	}
	return parseEnvelope[Void](resp.Body(), resp.IsError())
}

func (c *Client) PauseTasks(ctx context.Context, ids []string) Result[Void] {
	return c.taskAction(ctx, "pause", ids)
}

func (c *Client) ResumeTasks(ctx context.Context, ids []string) Result[Void] {
	return c.taskAction(ctx, "resume", ids)
}

func (c *Client) DeleteTasks(ctx context.Context, ids []string) Result[Void] {
	return c.taskAction(ctx, "delete", ids)
}

func (c *Client) taskAction(ctx context.Context, method string, ids []string) Result[Void] {
	return taskCall[Void](ctx, c, map[string]string{
		"api":     "SYNO.DownloadStation.Task",
		"version": "1",
		"method":  method,
		"id":      strings.Join(ids, ","),
	}, authTimeout)
}

// sessionID returns the cached session id, logging in when there is none.
func (c *Client) sessionID(ctx context.Context) (string, *ConnectionFailure, *APIError) {
	c.mu.Lock()
	sid := c.sid
	c.mu.Unlock()
	if sid != "" {
		return sid, nil, nil
	}
	res := c.Login(ctx)
	if res.Failure != nil {
		return "", res.Failure, nil
	}
	if !res.Response.Success {
		apiErr := res.Response.Error
		return "", nil, &apiErr
	}
	c.mu.Lock()
	sid = c.sid
	c.mu.Unlock()
	return sid, nil, nil
}

func taskCall[T any](ctx context.Context, c *Client, params map[string]string, timeout time.Duration) Result[T] {
	if !c.Configured() {
		return failed[T](FailureMissingConfig, nil)
	}
	sid, connFail, apiErr := c.sessionID(ctx)
	if connFail != nil {
		return Result[T]{Failure: connFail}
	}
	if apiErr != nil {
		return Result[T]{Response: &Response[T]{Success: false, Error: *apiErr}}
	}
	params["_sid"] = sid
	return doGet[T](ctx, c, "DownloadStation/task.cgi", params, timeout)
}

func doGet[T any](ctx context.Context, c *Client, path string, params map[string]string, timeout time.Duration) Result[T] {
	if !c.Configured() {
		return failed[T](FailureMissingConfig, nil)
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	resp, err := c.http.R().SetContext(ctx).SetQueryParams(params).Get(path)
	if err != nil {
		return failed[T](classifyTransportError(err), err)
	}
	return parseEnvelope[T](resp.Body(), resp.IsError())
}

func parseEnvelope[T any](body []byte, httpError bool) Result[T] {
	if httpError {
		return failed[T](FailureBadResponse, errors.New("non-2xx response status"))
	}
	var parsed Response[T]
	if err := json.Unmarshal(body, &parsed); err != nil {
		return failed[T](FailureBadResponse, err)
	}
	return Result[T]{Response: &parsed}
}

func classifyTransportError(err error) FailureKind {
	if errors.Is(err, context.DeadlineExceeded) {
		return FailureTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return FailureTimeout
	}
	return FailureNetwork
}
