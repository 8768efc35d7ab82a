package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Himanshu718-creater/blog-platform/config"
	"github.com/Himanshu718-creater/blog-platform/models"
	"github.com/Himanshu718-creater/blog-platform/utils"
)

// GormStore keeps posts in a SQL database (MySQL, PostgreSQL or SQLite) through GORM.
type GormStore struct {
	db        *gorm.DB
	now       func() time.Time
	slugTaken slugTakenFunc
}

// NewGormStore wraps an opened and migrated database handle.
func NewGormStore(db *gorm.DB) *GormStore {
	s := &GormStore{db: db, now: time.Now}
	s.slugTaken = s.slugUsed
	return s
}

// List returns all posts, newest first.
func (s *GormStore) List(ctx context.Context) ([]models.Post, error) {
	posts := []models.Post{}
	if err := s.db.WithContext(ctx).Order("created_at DESC").Find(&posts).Error; err != nil {
		return nil, persistenceErr("list", err)
	}
	return posts, nil
}

// Create validates in, assigns a unique slug and inserts the post.
func (s *GormStore) Create(ctx context.Context, in PostInput) (*models.Post, error) {
	in, err := preparePost(in)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	post := &models.Post{ID: uuid.NewString(), CreatedAt: now, UpdatedAt: now}
	applyInput(post, in)

	base := baseSlug(in)
	for attempt := 1; ; attempt++ {
		slug, err := assignSlug(ctx, base, "", attempt, s.slugTaken)
		if err != nil {
			return nil, persistenceErr("create", err)
		}
		post.Slug = slugPtr(slug)

		err = s.db.WithContext(ctx).Create(post).Error
		if err == nil {
			return post, nil
		}
		if slug != "" && attempt < maxSlugAttempts && isDuplicateKey(err) {
			utils.Sugar.Warnw("slug collided on insert, retrying", "slug", slug, "attempt", attempt)
			continue
		}
		return nil, persistenceErr("create", err)
	}
}

// GetByID returns the post with id or ErrNotFound.
func (s *GormStore) GetByID(ctx context.Context, id string) (*models.Post, error) {
	return s.first(ctx, "get", "id = ?", id)
}

// GetBySlug returns the post with slug or ErrNotFound.
func (s *GormStore) GetBySlug(ctx context.Context, slug string) (*models.Post, error) {
	if slug == "" {
		return nil, ErrNotFound
	}
	return s.first(ctx, "get", "slug = ?", slug)
}

// Update fully replaces the mutable fields of post id. The post's own slug never counts as a collision.
func (s *GormStore) Update(ctx context.Context, id string, in PostInput) (*models.Post, error) {
	in, err := preparePost(in)
	if err != nil {
		return nil, err
	}

	post, err := s.first(ctx, "update", "id = ?", id)
	if err != nil {
		return nil, err
	}
	applyInput(post, in)
	post.UpdatedAt = s.now().UTC()

	base := baseSlug(in)
	for attempt := 1; ; attempt++ {
		slug, err := assignSlug(ctx, base, id, attempt, s.slugTaken)
		if err != nil {
			return nil, persistenceErr("update", err)
		}
		post.Slug = slugPtr(slug)

		// Select("*") writes zero values too, so cleared fields are really cleared.
		err = s.db.WithContext(ctx).Model(post).Select("*").Omit("id", "created_at").Updates(post).Error
		if err == nil {
			return post, nil
		}
		if slug != "" && attempt < maxSlugAttempts && isDuplicateKey(err) {
			utils.Sugar.Warnw("slug collided on update, retrying", "slug", slug, "attempt", attempt)
			continue
		}
		return nil, persistenceErr("update", err)
	}
}

// Delete removes post id permanently.
func (s *GormStore) Delete(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Delete(&models.Post{}, "id = ?", id)
	if res.Error != nil {
		return persistenceErr("delete", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ReferencesURL reports whether a post uses url as featured image or embeds it in content.
func (s *GormStore) ReferencesURL(ctx context.Context, url string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Post{}).
		Where("featured_image = ? OR content LIKE ?", url, "%"+url+"%").
		Count(&count).Error
	if err != nil {
		return false, persistenceErr("scan", err)
	}
	return count > 0, nil
}

// Close releases the connection pool.
func (s *GormStore) Close(context.Context) error {
	return config.CloseDatabase(s.db)
}

func (s *GormStore) first(ctx context.Context, op, query string, arg string) (*models.Post, error) {
	var post models.Post
	if err := s.db.WithContext(ctx).Where(query, arg).First(&post).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, persistenceErr(op, err)
	}
	return &post, nil
}

func (s *GormStore) slugUsed(ctx context.Context, slug, excludeID string) (bool, error) {
	q := s.db.WithContext(ctx).Model(&models.Post{}).Where("slug = ?", slug)
	if excludeID != "" {
		q = q.Where("id <> ?", excludeID)
	}
	var count int64
	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// isDuplicateKey recognizes unique index violations whether or not the dialect translates them.
func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "Duplicate entry") ||
		strings.Contains(msg, "duplicate key value")
}
