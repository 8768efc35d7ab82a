package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Himanshu718-creater/blog-platform/models"
	"github.com/Himanshu718-creater/blog-platform/store"
)

// fakeStore returns canned results so handlers can be tested without a database.
type fakeStore struct {
	post  *models.Post
	posts []models.Post
	err   error
	last  store.PostInput
}

func (f *fakeStore) List(context.Context) ([]models.Post, error) { return f.posts, f.err }
func (f *fakeStore) Create(_ context.Context, in store.PostInput) (*models.Post, error) {
	f.last = in
	return f.post, f.err
}
func (f *fakeStore) GetByID(context.Context, string) (*models.Post, error) { return f.post, f.err }
func (f *fakeStore) GetBySlug(context.Context, string) (*models.Post, error) { return f.post, f.err }
func (f *fakeStore) Update(_ context.Context, _ string, in store.PostInput) (*models.Post, error) {
	f.last = in
	return f.post, f.err
}
func (f *fakeStore) Delete(context.Context, string) error { return f.err }
func (f *fakeStore) ReferencesURL(context.Context, string) (bool, error) { return false, f.err }
func (f *fakeStore) Close(context.Context) error { return nil }

func newPostRouter(s store.PostStore) *gin.Engine {
	gin.SetMode(gin.TestMode)
	c := NewPostController(s)
	r := gin.New()
	r.GET("/api/posts", c.ListPosts)
	r.POST("/api/posts", c.CreatePost)
	r.GET("/api/posts/by-slug/:slug", c.GetPostBySlug)
	r.GET("/api/posts/:id", c.GetPost)
	r.PUT("/api/posts/:id", c.UpdatePost)
	r.DELETE("/api/posts/:id", c.DeletePost)
	return r
}

func do(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) (int, string) {
	t.Helper()
	var body struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.Code, body.Message
}

func samplePost() *models.Post {
	slug := "hello-world"
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	return &models.Post{
		ID:        "p1",
		Title:     "Hello World",
		Content:   "<p>hi</p>",
		Author:    "Ada",
		Slug:      &slug,
		Tags:      []string{"go"},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestCreatePostReturns201WithBareEntity(t *testing.T) {
	fs := &fakeStore{post: samplePost()}
	w := do(newPostRouter(fs), http.MethodPost, "/api/posts",
		`{"title":"Hello World","content":"<p>hi</p>","author":"Ada","tags":["go"]}`)

	require.Equal(t, http.StatusCreated, w.Code)
	var got map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "p1", got["id"])
	assert.Equal(t, "hello-world", got["slug"])
	assert.Contains(t, got, "createdAt")
	assert.Equal(t, "Hello World", fs.last.Title)
	assert.Equal(t, []string{"go"}, fs.last.Tags)
}

func TestCreatePostMalformedJSON(t *testing.T) {
	w := do(newPostRouter(&fakeStore{}), http.MethodPost, "/api/posts", `{"title":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	_, msg := decodeError(t, w)
	assert.Equal(t, "invalid request payload", msg)
}

func TestStoreErrorsMapToStatus(t *testing.T) {
	cases := map[string]struct {
		err     error
		status  int
		message string
	}{
		"validation": {
			err:     &store.ValidationError{Message: "Missing required fields"},
			status:  http.StatusBadRequest,
			message: "Missing required fields",
		},
		"not found": {
			err:     store.ErrNotFound,
			status:  http.StatusNotFound,
			message: "Post not found",
		},
		"persistence": {
			err:     &store.PersistenceError{Op: "update", Err: errors.New("connection refused")},
			status:  http.StatusInternalServerError,
			message: "connection refused",
		},
		"unknown": {
			err:     errors.New(""),
			status:  http.StatusInternalServerError,
			message: "Failed to update post",
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			w := do(newPostRouter(&fakeStore{err: tc.err}), http.MethodPut, "/api/posts/p1",
				`{"title":"t","content":"c","author":"a"}`)
			assert.Equal(t, tc.status, w.Code)
			_, msg := decodeError(t, w)
			assert.Equal(t, tc.message, msg)
		})
	}
}

func TestListPostsEmptyIsArray(t *testing.T) {
	w := do(newPostRouter(&fakeStore{}), http.MethodGet, "/api/posts", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, "[]", w.Body.String())
}

func TestListPostsFailure(t *testing.T) {
	w := do(newPostRouter(&fakeStore{err: &store.PersistenceError{Op: "list", Err: errors.New("db down")}}), http.MethodGet, "/api/posts", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	code, msg := decodeError(t, w)
	assert.Equal(t, 50020, code)
	assert.Equal(t, "db down", msg)
}

func TestGetPostBySlug(t *testing.T) {
	w := do(newPostRouter(&fakeStore{post: samplePost()}), http.MethodGet, "/api/posts/by-slug/hello-world", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"slug":"hello-world"`)

	w = do(newPostRouter(&fakeStore{err: store.ErrNotFound}), http.MethodGet, "/api/posts/by-slug/nope", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeletePost(t *testing.T) {
	w := do(newPostRouter(&fakeStore{}), http.MethodDelete, "/api/posts/p1", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"Post deleted successfully"}`, w.Body.String())

	w = do(newPostRouter(&fakeStore{err: store.ErrNotFound}), http.MethodDelete, "/api/posts/p1", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
