package controllers

import (
	"bytes"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Himanshu718-creater/blog-platform/utils"
)

// sniffLen is how much of an upload is read to detect its content type.
const sniffLen = 3072

// UploadController stores images referenced by posts (featured images, inline pictures).
type UploadController struct {
	dir       string
	urlPrefix string
	maxSize   int64
	now       func() time.Time
}

// NewUploadController saves files under dir and serves them back under urlPrefix.
func NewUploadController(dir, urlPrefix string, maxSizeMB int) *UploadController {
	if maxSizeMB <= 0 {
		maxSizeMB = 10
	}
	return &UploadController{
		dir:       dir,
		urlPrefix: strings.TrimRight(urlPrefix, "/"),
		maxSize:   int64(maxSizeMB) * 1024 * 1024,
		now:       time.Now,
	}
}

// Upload handles a multipart image upload and returns its public URL.
func (u *UploadController) Upload(ctx *gin.Context) {
	// Accept common field name 'file' or fallback to 'f'
	file, header, err := ctx.Request.FormFile("file")
	if err != nil {
		file, header, err = ctx.Request.FormFile("f")
		if err != nil {
			utils.Error(ctx, http.StatusBadRequest, 40030, "no file uploaded")
			return
		}
	}
	defer file.Close()

	if header.Size > u.maxSize {
		utils.Error(ctx, http.StatusBadRequest, 40032, "file too large")
		return
	}

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(file, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		utils.Error(ctx, http.StatusBadRequest, 40033, "failed to read file")
		return
	}
	head = head[:n]
	mtype := mimetype.Detect(head)
	if !isAllowedImage(mtype) {
		utils.Error(ctx, http.StatusBadRequest, 40031, "only image uploads are allowed")
		return
	}

	now := u.now()
	year, month, day := now.Format("2006"), now.Format("01"), now.Format("02")
	baseDir := filepath.Join(u.dir, year, month, day)
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		utils.Sugar.Errorw("create upload directory failed", "dir", baseDir, "err", err)
		utils.Error(ctx, http.StatusInternalServerError, 50030, "failed to create upload directory")
		return
	}

	name := uuid.NewString() + mtype.Extension()
	dstPath := filepath.Join(baseDir, name)
	out, err := os.Create(dstPath)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50031, "failed to save file")
		return
	}

	lr := &io.LimitedReader{R: io.MultiReader(bytes.NewReader(head), file), N: u.maxSize + 1}
	written, err := io.Copy(out, lr)
	closeErr := out.Close()
	if err != nil || closeErr != nil {
		_ = os.Remove(dstPath)
		utils.Sugar.Errorw("write upload failed", "path", dstPath, "err", err, "closeErr", closeErr)
		utils.Error(ctx, http.StatusInternalServerError, 50032, "failed to write file")
		return
	}
	if written > u.maxSize {
		_ = os.Remove(dstPath)
		utils.Error(ctx, http.StatusBadRequest, 40032, "file too large")
		return
	}

	url := path.Join(u.urlPrefix, year, month, day, name)
	if !strings.HasPrefix(url, "/") {
		url = "/" + url
	}
	utils.Sugar.Infow("image uploaded", "url", url, "size", written, "mime", mtype.String())
	utils.Success(ctx, gin.H{
		"url":      url,
		"size":     written,
		"mimeType": mtype.String(),
	})
}

// isAllowedImage accepts raster images only; SVG can carry scripts.
func isAllowedImage(m *mimetype.MIME) bool {
	if m.Is("image/svg+xml") {
		return false
	}
	for mt := m; mt != nil; mt = mt.Parent() {
		if strings.HasPrefix(mt.String(), "image/") {
			return true
		}
	}
	return false
}
