package listclient

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/admin-console/internal/listsync"
	appErrors "github.com/noah-isme/admin-console/pkg/errors"
	"github.com/noah-isme/admin-console/pkg/middleware/requestid"
)

type row struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

func TestFetchSendsQueryAndUnwrapsEnvelope(t *testing.T) {
	var captured *http.Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = r
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":{"data":[{"id":1,"name":"a"},{"id":2,"name":"b"}]},"meta":{"total":42}}`))
	}))
	defer srv.Close()

	client := New(Config{BaseURL: srv.URL + "/", Token: "secret"})
	orders := NewResource[row](client, "orders")

	start := time.Date(2024, time.May, 12, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, time.May, 18, 23, 59, 59, int(999*time.Millisecond), time.UTC)
	ctx := requestid.WithContext(context.Background(), "req-1")
	page, err := orders.Fetch(ctx, listsync.Query{Page: 2, PerPage: 15, StartDate: &start, EndDate: &end})
	require.NoError(t, err)

	require.NotNil(t, captured)
	assert.Equal(t, "/orders", captured.URL.Path)
	q := captured.URL.Query()
	assert.Equal(t, "2", q.Get("page"))
	assert.Equal(t, "15", q.Get("per_page"))
	assert.Equal(t, "2024-05-12T00:00:00.000Z", q.Get("start_date"))
	assert.Equal(t, "2024-05-18T23:59:59.999Z", q.Get("end_date"))
	assert.False(t, q.Has("search"))
	assert.False(t, q.Has("status"))
	assert.Equal(t, "Bearer secret", captured.Header.Get("Authorization"))
	assert.Equal(t, "req-1", captured.Header.Get(requestid.Header))

	assert.Equal(t, 42, page.Meta.Total)
	assert.Equal(t, []row{{ID: 1, Name: "a"}, {ID: 2, Name: "b"}}, page.Data)
}

func TestFetchEmptyBodyYieldsEmptyPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":{"data":null},"meta":{"total":0}}`))
	}))
	defer srv.Close()

	page, err := NewResource[row](New(Config{BaseURL: srv.URL}), "/users").Fetch(context.Background(), listsync.Query{Page: 1, PerPage: 15})
	require.NoError(t, err)
	assert.NotNil(t, page.Data)
	assert.Empty(t, page.Data)
}

func TestFetchMapsErrorBodies(t *testing.T) {
	cases := []struct {
		name     string
		status   int
		body     string
		wantCode string
		wantMsg  string
	}{
		{"flat message", http.StatusUnprocessableEntity, `{"message":"Invalid status"}`, appErrors.ErrRemote.Code, "Invalid status"},
		{"nested message", http.StatusBadRequest, `{"error":{"message":"Bad range"}}`, appErrors.ErrRemote.Code, "Bad range"},
		{"no message", http.StatusInternalServerError, `oops`, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Message},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			_, err := NewResource[row](New(Config{BaseURL: srv.URL}), "/orders").Fetch(context.Background(), listsync.Query{Page: 1, PerPage: 15})
			require.Error(t, err)

			var appErr *appErrors.Error
			require.True(t, errors.As(err, &appErr))
			assert.Equal(t, tc.wantCode, appErr.Code)
			assert.Equal(t, tc.wantMsg, appErr.Message)
		})
	}
}

func TestFetchUnreachableIsUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := NewResource[row](New(Config{BaseURL: url, Timeout: time.Second}), "/orders").Fetch(context.Background(), listsync.Query{Page: 1, PerPage: 15})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUpstream.Code, appErrors.FromError(err).Code)
}

func TestRemoteMessageReachesNotification(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"message":"Unknown status 'lost'"}`))
	}))
	defer srv.Close()

	controller := listsync.NewController[listItem](NewResource[listItem](New(Config{BaseURL: srv.URL}), "/orders"), listsync.Options{Resource: "orders"})
	err := controller.ApplyStatusFilter(context.Background(), "lost")

	var opErr *listsync.OperationError
	require.True(t, errors.As(err, &opErr))
	assert.Equal(t, "Unknown status 'lost'", opErr.Notification.Message)
}

type listItem struct {
	ID int `json:"id"`
}

func (i listItem) ItemID() string { return "item" }
