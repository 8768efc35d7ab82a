package controllers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Himanshu718-creater/blog-platform/models"
	"github.com/Himanshu718-creater/blog-platform/store"
	"github.com/Himanshu718-creater/blog-platform/utils"
)

// PostController exposes CRUD operations for posts over HTTP.
type PostController struct {
	posts store.PostStore
}

// NewPostController creates a new PostController instance.
func NewPostController(posts store.PostStore) *PostController {
	return &PostController{posts: posts}
}

// ListPosts returns every post, newest first.
func (p *PostController) ListPosts(ctx *gin.Context) {
	posts, err := p.posts.List(ctx.Request.Context())
	if err != nil {
		writeStoreError(ctx, err, 50020, "Failed to fetch posts")
		return
	}
	if posts == nil {
		posts = []models.Post{}
	}
	utils.Success(ctx, posts)
}

// CreatePost stores a new post; the slug is derived from the title when absent.
func (p *PostController) CreatePost(ctx *gin.Context) {
	var req store.PostInput
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40020, "invalid request payload")
		return
	}

	post, err := p.posts.Create(ctx.Request.Context(), req)
	if err != nil {
		writeStoreError(ctx, err, 50021, "Failed to create post")
		return
	}

	utils.Sugar.Infow("post created", "id", post.ID, "slug", post.SlugValue())
	utils.Created(ctx, post)
}

// GetPost returns a single post by id.
func (p *PostController) GetPost(ctx *gin.Context) {
	post, err := p.posts.GetByID(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		writeStoreError(ctx, err, 50022, "Failed to fetch post")
		return
	}
	utils.Success(ctx, post)
}

// GetPostBySlug returns a single post by its slug
func (p *PostController) GetPostBySlug(ctx *gin.Context) {
	slug := strings.TrimSpace(ctx.Param("slug"))
	if slug == "" {
		utils.Error(ctx, http.StatusBadRequest, 40022, "missing slug")
		return
	}
	post, err := p.posts.GetBySlug(ctx.Request.Context(), slug)
	if err != nil {
		writeStoreError(ctx, err, 50023, "Failed to fetch post")
		return
	}
	utils.Success(ctx, post)
}

// UpdatePost replaces every mutable field of a post.
func (p *PostController) UpdatePost(ctx *gin.Context) {
	var req store.PostInput
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40024, "invalid request payload")
		return
	}

	post, err := p.posts.Update(ctx.Request.Context(), ctx.Param("id"), req)
	if err != nil {
		writeStoreError(ctx, err, 50024, "Failed to update post")
		return
	}

	utils.Sugar.Infow("post updated", "id", post.ID, "slug", post.SlugValue())
	utils.Success(ctx, post)
}

// DeletePost removes a post permanently.
func (p *PostController) DeletePost(ctx *gin.Context) {
	id := ctx.Param("id")
	if err := p.posts.Delete(ctx.Request.Context(), id); err != nil {
		writeStoreError(ctx, err, 50025, "Failed to delete post")
		return
	}

	utils.Sugar.Infow("post deleted", "id", id)
	utils.Success(ctx, gin.H{"message": "Post deleted successfully"})
}

// writeStoreError is the only place store errors become HTTP statuses.
func writeStoreError(ctx *gin.Context, err error, code int, fallback string) {
	var verr *store.ValidationError
	if errors.As(err, &verr) {
		utils.Error(ctx, http.StatusBadRequest, 40021, verr.Error())
		return
	}
	if errors.Is(err, store.ErrNotFound) {
		utils.Error(ctx, http.StatusNotFound, 40401, "Post not found")
		return
	}

	msg := fallback
	var perr *store.PersistenceError
	if errors.As(err, &perr) && perr.Err != nil && perr.Err.Error() != "" {
		msg = perr.Err.Error()
	}
	utils.Sugar.Errorw("post store failure", "path", ctx.Request.URL.Path, "method", ctx.Request.Method, "err", err)
	utils.Error(ctx, http.StatusInternalServerError, code, msg)
}
