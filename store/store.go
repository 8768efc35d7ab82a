// Package store persists blog posts and owns the slug assignment rules.
package store

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/Himanshu718-creater/blog-platform/models"
	"github.com/Himanshu718-creater/blog-platform/utils"
)

const (
	// Lengths of the derived metadata columns.
	MaxExcerptLen  = 160
	MaxSeoTitleLen = 60

	// MaxSlugLen leaves room for "-" + suffix inside the 255 character slug column.
	MaxSlugLen = 255 - 1 - utils.SlugSuffixLen

	// maxSlugAttempts bounds the retries after a duplicate-key error on the slug index.
	maxSlugAttempts = 3
)

// PostStore is the persistence contract for posts.
type PostStore interface {
	List(ctx context.Context) ([]models.Post, error)
	Create(ctx context.Context, in PostInput) (*models.Post, error)
	GetByID(ctx context.Context, id string) (*models.Post, error)
	GetBySlug(ctx context.Context, slug string) (*models.Post, error)
	Update(ctx context.Context, id string, in PostInput) (*models.Post, error)
	Delete(ctx context.Context, id string) error
	// ReferencesURL reports whether any post uses url as featured image or inside its content.
	ReferencesURL(ctx context.Context, url string) (bool, error)
	Close(ctx context.Context) error
}

// PostInput carries the client-writable fields of a post for create and update.
type PostInput struct {
	Title          string   `json:"title" validate:"required,max=100"`
	Content        string   `json:"content" validate:"required"`
	Author         string   `json:"author" validate:"required,max=50"`
	Slug           string   `json:"slug" validate:"max=249"` // MaxSlugLen
	Excerpt        string   `json:"excerpt" validate:"max=160"`
	Tags           []string `json:"tags"`
	FeaturedImage  string   `json:"featuredImage" validate:"max=1024"`
	SeoTitle       string   `json:"seoTitle" validate:"max=60"`
	SeoDescription string   `json:"seoDescription" validate:"max=160"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// preparePost normalizes, sanitizes and validates in, then fills metadata defaults.
func preparePost(in PostInput) (PostInput, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Author = strings.TrimSpace(in.Author)
	in.Content = strings.TrimSpace(utils.Sanitize(in.Content))
	in.Slug = strings.TrimSpace(in.Slug)
	in.Excerpt = strings.TrimSpace(in.Excerpt)
	in.FeaturedImage = strings.TrimSpace(in.FeaturedImage)
	in.SeoTitle = strings.TrimSpace(in.SeoTitle)
	in.SeoDescription = strings.TrimSpace(in.SeoDescription)
	in.Tags = normalizeTags(in.Tags)

	if err := validate.Struct(in); err != nil {
		return in, toValidationError(err)
	}

	if in.Excerpt == "" {
		in.Excerpt = utils.Truncate(utils.PlainText(in.Content), MaxExcerptLen, "...")
	}
	if in.SeoTitle == "" {
		in.SeoTitle = utils.Truncate(in.Title, MaxSeoTitleLen, "")
	}
	if in.SeoDescription == "" {
		in.SeoDescription = in.Excerpt
	}
	return in, nil
}

func toValidationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return &ValidationError{Message: err.Error()}
	}

	missing := map[string]string{}
	invalid := map[string]string{}
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			missing[fe.Field()] = fe.Field() + " is required"
		case "max":
			invalid[fe.Field()] = fmt.Sprintf("%s cannot be more than %s characters", fe.Field(), fe.Param())
		default:
			invalid[fe.Field()] = fe.Field() + " is invalid"
		}
	}
	if len(missing) > 0 {
		return &ValidationError{Message: "Missing required fields", Fields: missing}
	}
	return &ValidationError{Fields: invalid}
}

// normalizeTags trims tags and drops empty ones. Order and repeats are kept as sent.
func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// baseSlug is the caller-supplied slug, or the one derived from the title.
func baseSlug(in PostInput) string {
	if in.Slug != "" {
		return in.Slug
	}
	return utils.Slugify(in.Title)
}

// slugTakenFunc reports whether slug is used by a post other than excludeID.
type slugTakenFunc func(ctx context.Context, slug, excludeID string) (bool, error)

// assignSlug picks the slug to persist for attempt (1-based).
// A collision appends a random suffix instead of rejecting the write. Later attempts
// follow a duplicate-key error, so they always suffix without asking the database again.
func assignSlug(ctx context.Context, base, excludeID string, attempt int, taken slugTakenFunc) (string, error) {
	if base == "" {
		return "", nil
	}
	if attempt > 1 {
		return base + "-" + utils.RandomSuffix(), nil
	}
	used, err := taken(ctx, base, excludeID)
	if err != nil {
		return "", err
	}
	if used {
		return base + "-" + utils.RandomSuffix(), nil
	}
	return base, nil
}

func slugPtr(slug string) *string {
	if slug == "" {
		return nil
	}
	return &slug
}

// applyInput copies every mutable field; update is a full replace, never a merge.
func applyInput(p *models.Post, in PostInput) {
	p.Title = in.Title
	p.Content = in.Content
	p.Author = in.Author
	p.Excerpt = in.Excerpt
	p.Tags = in.Tags
	p.FeaturedImage = in.FeaturedImage
	p.SeoTitle = in.SeoTitle
	p.SeoDescription = in.SeoDescription
}
