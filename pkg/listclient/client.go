// Package listclient talks to the remote list service backing the console
// screens.
package listclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/noah-isme/admin-console/internal/listsync"
	appErrors "github.com/noah-isme/admin-console/pkg/errors"
	"github.com/noah-isme/admin-console/pkg/middleware/requestid"
)

const (
	defaultTimeout = 10 * time.Second
	maxErrorBody   = 64 << 10
)

// Config configures a Client.
type Config struct {
	BaseURL    string
	Token      string
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// Client issues list requests against the remote service.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	logger  *zap.Logger
	tracer  trace.Tracer
}

// New builds a client. A zero timeout falls back to ten seconds.
func New(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		token:   cfg.Token,
		http:    cfg.HTTPClient,
		logger:  cfg.Logger,
		tracer:  otel.Tracer("admin-console/listclient"),
	}
}

type envelope[T any] struct {
	Data struct {
		Data  []T  `json:"data"`
		Total *int `json:"total"`
	} `json:"data"`
	Meta *struct {
		Total int `json:"total"`
	} `json:"meta"`
}

type errorBody struct {
	Message string `json:"message"`
	Error   *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Resource is a typed view of one remote collection.
type Resource[T any] struct {
	client *Client
	path   string
}

// NewResource binds path (for example "/orders") to client.
func NewResource[T any](client *Client, path string) *Resource[T] {
	return &Resource[T]{client: client, path: "/" + strings.TrimLeft(path, "/")}
}

var _ listsync.Fetcher[struct{}] = (*Resource[struct{}])(nil)

// Fetch requests one page and unwraps the {data:{data}, meta:{total}} body.
func (r *Resource[T]) Fetch(ctx context.Context, query listsync.Query) (listsync.Page[T], error) {
	c := r.client
	ctx, span := c.tracer.Start(ctx, "listclient.Fetch", trace.WithAttributes(
		attribute.String("list.resource", r.path),
		attribute.Int("list.page", query.Page),
		attribute.Int("list.per_page", query.PerPage),
		attribute.Bool("list.filtered", query.Search != "" || query.Status != "" || query.Role != "" || query.StartDate != nil),
	))
	defer span.End()

	page, err := r.fetch(ctx, query)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		c.logger.Warn("remote list fetch failed",
			zap.String("resource", r.path),
			zap.Int("page", query.Page),
			zap.String("request_id", requestid.FromContext(ctx)),
			zap.Error(err),
		)
		return listsync.Page[T]{}, err
	}
	span.SetAttributes(
		attribute.Int("list.batch", len(page.Data)),
		attribute.Int("list.total", page.Meta.Total),
	)
	return page, nil
}

func (r *Resource[T]) fetch(ctx context.Context, query listsync.Query) (listsync.Page[T], error) {
	c := r.client
	endpoint := c.baseURL + r.path + "?" + query.Values().Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return listsync.Page[T]{}, appErrors.From(appErrors.ErrInternal, err, "build remote request")
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if id := requestid.FromContext(ctx); id != "" {
		req.Header.Set(requestid.Header, id)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return listsync.Page[T]{}, appErrors.From(appErrors.ErrUpstream, err, "")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return listsync.Page[T]{}, decodeError(resp)
	}

	var body envelope[T]
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return listsync.Page[T]{}, appErrors.From(appErrors.ErrUpstream, err, "decode remote list response")
	}

	page := listsync.Page[T]{Data: body.Data.Data}
	if page.Data == nil {
		page.Data = []T{}
	}
	switch {
	case body.Meta != nil:
		page.Meta.Total = body.Meta.Total
	case body.Data.Total != nil:
		page.Meta.Total = *body.Data.Total
	default:
		page.Meta.Total = len(page.Data)
	}
	return page, nil
}

func decodeError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	cause := fmt.Errorf("remote status %d", resp.StatusCode)

	var body errorBody
	if err := json.Unmarshal(raw, &body); err == nil {
		message := body.Message
		if message == "" && body.Error != nil {
			message = body.Error.Message
		}
		if message != "" {
			return appErrors.From(appErrors.ErrRemote, cause, message)
		}
	}
	return appErrors.From(appErrors.ErrUpstream, cause, "")
}
