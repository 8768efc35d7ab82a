package controllers

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func multipartBody(t *testing.T, field, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func newUploadRouter(t *testing.T, maxMB int) (*gin.Engine, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	dir := t.TempDir()
	c := NewUploadController(dir, "/static/uploads", maxMB)
	c.now = func() time.Time { return time.Date(2024, 3, 7, 10, 0, 0, 0, time.UTC) }
	r := gin.New()
	r.POST("/api/upload", c.Upload)
	return r, dir
}

func upload(r http.Handler, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestUploadStoresImage(t *testing.T) {
	r, dir := newUploadRouter(t, 1)
	data := pngBytes(t)
	body, ct := multipartBody(t, "file", "cover.txt", data)

	w := upload(r, body, ct)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var got struct {
		URL      string `json:"url"`
		MimeType string `json:"mimeType"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "image/png", got.MimeType)
	require.True(t, strings.HasPrefix(got.URL, "/static/uploads/2024/03/07/"), got.URL)
	// Extension follows the sniffed type, not the client filename.
	assert.True(t, strings.HasSuffix(got.URL, ".png"), got.URL)

	saved, err := os.ReadFile(filepath.Join(dir, strings.TrimPrefix(got.URL, "/static/uploads/")))
	require.NoError(t, err)
	assert.Equal(t, data, saved)
}

func TestUploadAcceptsFallbackField(t *testing.T) {
	r, _ := newUploadRouter(t, 1)
	body, ct := multipartBody(t, "f", "cover.png", pngBytes(t))
	assert.Equal(t, http.StatusOK, upload(r, body, ct).Code)
}

func TestUploadRejectsNonImages(t *testing.T) {
	r, dir := newUploadRouter(t, 1)
	for name, content := range map[string][]byte{
		"text": []byte("just some text, not an image"),
		"svg":  []byte(`<svg xmlns="http://www.w3.org/2000/svg"><script>alert(1)</script></svg>`),
	} {
		t.Run(name, func(t *testing.T) {
			body, ct := multipartBody(t, "file", name+".png", content)
			w := upload(r, body, ct)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
	entries, _ := os.ReadDir(dir)
	assert.Empty(t, entries)
}

func TestUploadRejectsOversize(t *testing.T) {
	r, dir := newUploadRouter(t, 1)
	big := append(pngBytes(t), bytes.Repeat([]byte{0}, 1024*1024+1)...)
	body, ct := multipartBody(t, "file", "big.png", big)

	w := upload(r, body, ct)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var files []string
	_ = filepath.WalkDir(dir, func(p string, d os.DirEntry, err error) error {
		if err == nil && !d.IsDir() {
			files = append(files, p)
		}
		return nil
	})
	assert.Empty(t, files)
}

func TestUploadMissingFile(t *testing.T) {
	r, _ := newUploadRouter(t, 1)
	body, ct := multipartBody(t, "other", "x.png", pngBytes(t))
	assert.Equal(t, http.StatusBadRequest, upload(r, body, ct).Code)
}
