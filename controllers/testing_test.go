package controllers

import (
	"capsulifyapi/test"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type enqueuerMock struct {
	mu    sync.Mutex
	tasks []*asynq.Task
	err   error
}

func (m *enqueuerMock) EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	m.tasks = append(m.tasks, task)
	return &asynq.TaskInfo{Type: task.Type()}, nil
}

func newTestServer(t *testing.T, db *gorm.DB, aws *test.AWSProviderMock, enqueuer TaskEnqueuer) *echo.Echo {
	t.Helper()
	t.Setenv("ENV", "test")
	t.Setenv("JWT_SECRET", "test-secret")
	if aws == nil {
		aws = &test.AWSProviderMock{}
	}
	return SetupServer(db, test.GoogleServiceMock{}, aws, enqueuer, test.URLCacheMock{})
}

func serve(e *echo.Echo, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func uid(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
