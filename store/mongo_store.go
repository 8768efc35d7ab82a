package store

import (
	"context"
	"errors"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Himanshu718-creater/blog-platform/models"
	"github.com/Himanshu718-creater/blog-platform/utils"
)

const postsCollection = "posts"

type postDocument struct {
	ID             primitive.ObjectID `bson:"_id,omitempty"`
	Title          string             `bson:"title"`
	Content        string             `bson:"content"`
	Author         string             `bson:"author"`
	Slug           string             `bson:"slug,omitempty"`
	Excerpt        string             `bson:"excerpt,omitempty"`
	Tags           []string           `bson:"tags"`
	FeaturedImage  string             `bson:"featuredImage,omitempty"`
	SeoTitle       string             `bson:"seoTitle,omitempty"`
	SeoDescription string             `bson:"seoDescription,omitempty"`
	CreatedAt      time.Time          `bson:"createdAt"`
	UpdatedAt      time.Time          `bson:"updatedAt"`
}

func (d postDocument) toModel() models.Post {
	tags := d.Tags
	if tags == nil {
		tags = []string{}
	}
	return models.Post{
		ID:             d.ID.Hex(),
		Title:          d.Title,
		Content:        d.Content,
		Author:         d.Author,
		Slug:           slugPtr(d.Slug),
		Excerpt:        d.Excerpt,
		Tags:           tags,
		FeaturedImage:  d.FeaturedImage,
		SeoTitle:       d.SeoTitle,
		SeoDescription: d.SeoDescription,
		CreatedAt:      d.CreatedAt,
		UpdatedAt:      d.UpdatedAt,
	}
}

func documentFrom(in PostInput) postDocument {
	return postDocument{
		Title:          in.Title,
		Content:        in.Content,
		Author:         in.Author,
		Excerpt:        in.Excerpt,
		Tags:           in.Tags,
		FeaturedImage:  in.FeaturedImage,
		SeoTitle:       in.SeoTitle,
		SeoDescription: in.SeoDescription,
	}
}

// MongoStore keeps posts as documents in a MongoDB collection.
type MongoStore struct {
	client    *mongo.Client
	posts     *mongo.Collection
	now       func() time.Time
	slugTaken slugTakenFunc
}

// NewMongoStore binds the posts collection of database dbName and ensures its indexes.
func NewMongoStore(ctx context.Context, client *mongo.Client, dbName string) (*MongoStore, error) {
	s := &MongoStore{
		client: client,
		posts:  client.Database(dbName).Collection(postsCollection),
		now:    time.Now,
	}
	s.slugTaken = s.slugUsed

	// Sparse: posts without a slug do not take part in the uniqueness constraint.
	_, err := s.posts.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "slug", Value: 1}},
			Options: options.Index().SetUnique(true).SetSparse(true),
		},
		{
			Keys: bson.D{{Key: "createdAt", Value: -1}},
		},
	})
	if err != nil {
		return nil, persistenceErr("index", err)
	}
	return s, nil
}

// List returns all posts, newest first.
func (s *MongoStore) List(ctx context.Context) ([]models.Post, error) {
	cur, err := s.posts.Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, persistenceErr("list", err)
	}
	var docs []postDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, persistenceErr("list", err)
	}
	posts := make([]models.Post, 0, len(docs))
	for _, d := range docs {
		posts = append(posts, d.toModel())
	}
	return posts, nil
}

// Create validates in, assigns a unique slug and inserts the document.
func (s *MongoStore) Create(ctx context.Context, in PostInput) (*models.Post, error) {
	in, err := preparePost(in)
	if err != nil {
		return nil, err
	}

	doc := documentFrom(in)
	doc.CreatedAt = s.now().UTC().Truncate(time.Millisecond)
	doc.UpdatedAt = doc.CreatedAt

	base := baseSlug(in)
	for attempt := 1; ; attempt++ {
		doc.Slug, err = assignSlug(ctx, base, "", attempt, s.slugTaken)
		if err != nil {
			return nil, persistenceErr("create", err)
		}
		doc.ID = primitive.NewObjectID()

		_, err = s.posts.InsertOne(ctx, doc)
		if err == nil {
			post := doc.toModel()
			return &post, nil
		}
		if doc.Slug != "" && attempt < maxSlugAttempts && mongo.IsDuplicateKeyError(err) {
			utils.Sugar.Warnw("slug collided on insert, retrying", "slug", doc.Slug, "attempt", attempt)
			continue
		}
		return nil, persistenceErr("create", err)
	}
}

// GetByID returns the post with id or ErrNotFound. Ids that are not ObjectIDs cannot exist.
func (s *MongoStore) GetByID(ctx context.Context, id string) (*models.Post, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}
	return s.findOne(ctx, bson.M{"_id": oid})
}

// GetBySlug returns the post with slug or ErrNotFound.
func (s *MongoStore) GetBySlug(ctx context.Context, slug string) (*models.Post, error) {
	if slug == "" {
		return nil, ErrNotFound
	}
	return s.findOne(ctx, bson.M{"slug": slug})
}

// Update replaces the document of post id, keeping its id and createdAt.
func (s *MongoStore) Update(ctx context.Context, id string, in PostInput) (*models.Post, error) {
	in, err := preparePost(in)
	if err != nil {
		return nil, err
	}
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}
	existing, err := s.findOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return nil, err
	}

	doc := documentFrom(in)
	doc.ID = oid
	doc.CreatedAt = existing.CreatedAt
	doc.UpdatedAt = s.now().UTC().Truncate(time.Millisecond)

	base := baseSlug(in)
	for attempt := 1; ; attempt++ {
		doc.Slug, err = assignSlug(ctx, base, id, attempt, s.slugTaken)
		if err != nil {
			return nil, persistenceErr("update", err)
		}

		var res *mongo.UpdateResult
		res, err = s.posts.ReplaceOne(ctx, bson.M{"_id": oid}, doc)
		if err == nil {
			if res.MatchedCount == 0 {
				return nil, ErrNotFound
			}
			post := doc.toModel()
			return &post, nil
		}
		if doc.Slug != "" && attempt < maxSlugAttempts && mongo.IsDuplicateKeyError(err) {
			utils.Sugar.Warnw("slug collided on update, retrying", "slug", doc.Slug, "attempt", attempt)
			continue
		}
		return nil, persistenceErr("update", err)
	}
}

// Delete removes post id permanently.
func (s *MongoStore) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrNotFound
	}
	res, err := s.posts.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return persistenceErr("delete", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// ReferencesURL reports whether a post uses url as featured image or embeds it in content.
func (s *MongoStore) ReferencesURL(ctx context.Context, url string) (bool, error) {
	filter := bson.M{"$or": bson.A{
		bson.M{"featuredImage": url},
		bson.M{"content": primitive.Regex{Pattern: regexp.QuoteMeta(url)}},
	}}
	n, err := s.posts.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, persistenceErr("scan", err)
	}
	return n > 0, nil
}

// Close disconnects the client.
func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *MongoStore) findOne(ctx context.Context, filter bson.M) (*models.Post, error) {
	var doc postDocument
	if err := s.posts.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, persistenceErr("get", err)
	}
	post := doc.toModel()
	return &post, nil
}

func (s *MongoStore) slugUsed(ctx context.Context, slug, excludeID string) (bool, error) {
	filter := bson.M{"slug": slug}
	if excludeID != "" {
		if oid, err := primitive.ObjectIDFromHex(excludeID); err == nil {
			filter["_id"] = bson.M{"$ne": oid}
		}
	}
	n, err := s.posts.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
