package models

import (
	"time"

	"gorm.io/datatypes"
)

// Post is a blog article. Timestamps are assigned by the store, never by clients or GORM hooks.
type Post struct {
	ID             string                      `gorm:"primaryKey;size:36" json:"id"`
	Title          string                      `gorm:"size:100;not null" json:"title"`
	Content        string                      `gorm:"not null" json:"content"`
	Author         string                      `gorm:"size:50;not null" json:"author"`
	Slug           *string                     `gorm:"size:255;uniqueIndex" json:"slug,omitempty"` // NULL when the title yields no slug
	Excerpt        string                      `gorm:"size:160" json:"excerpt,omitempty"`
	Tags           datatypes.JSONSlice[string] `json:"tags"`
	FeaturedImage  string                      `gorm:"size:1024" json:"featuredImage,omitempty"`
	SeoTitle       string                      `gorm:"size:60" json:"seoTitle,omitempty"`
	SeoDescription string                      `gorm:"size:160" json:"seoDescription,omitempty"`
	CreatedAt      time.Time                   `gorm:"index;autoCreateTime:false" json:"createdAt"`
	UpdatedAt      time.Time                   `gorm:"autoUpdateTime:false" json:"updatedAt"`
}

// SlugValue returns the slug or "" when the post has none.
func (p Post) SlugValue() string {
	if p.Slug == nil {
		return ""
	}
	return *p.Slug
}
