package job_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"docnest/features/job"
)

type MockRepo struct{ mock.Mock }

func (m *MockRepo) Save(ctx context.Context, j *job.Job) error {
	return m.Called(ctx, j).Error(0)
}

func (m *MockRepo) List(ctx context.Context) ([]job.Job, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]job.Job), args.Error(1)
}

func (m *MockRepo) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockRepo) Count(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func TestListFailedJobs(t *testing.T) {
	repo := new(MockRepo)
	repo.On("List", mock.Anything).Return([]job.Job{
		{ID: "j1", ContentID: "c1", Stage: "embedding", Error: "quota exceeded"},
	}, nil)

	handler := job.NewHandler(repo)
	req := httptest.NewRequest("GET", "/jobs/failed", nil)
	w := httptest.NewRecorder()
	handler.List(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data []job.Job      `json:"data"`
		Meta map[string]int `json:"meta"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Data, 1)
	assert.Equal(t, 1, resp.Meta["count"])
	assert.Equal(t, "embedding", resp.Data[0].Stage)
}

func TestListFailedJobs_EmptyIsArray(t *testing.T) {
	repo := new(MockRepo)
	repo.On("List", mock.Anything).Return([]job.Job(nil), nil)

	handler := job.NewHandler(repo)
	w := httptest.NewRecorder()
	handler.List(w, httptest.NewRequest("GET", "/jobs/failed", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"data":[]`)
}

func TestListFailedJobs_RepoError(t *testing.T) {
	repo := new(MockRepo)
	repo.On("List", mock.Anything).Return(nil, errors.New("db down"))

	handler := job.NewHandler(repo)
	w := httptest.NewRecorder()
	handler.List(w, httptest.NewRequest("GET", "/jobs/failed", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestDismissFailedJob(t *testing.T) {
	repo := new(MockRepo)
	repo.On("Delete", mock.Anything, "j1").Return(nil)

	handler := job.NewHandler(repo)
	req := httptest.NewRequest("DELETE", "/jobs/failed/j1", nil)
	req.SetPathValue("id", "j1")
	w := httptest.NewRecorder()
	handler.Dismiss(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	repo.AssertExpectations(t)
}
