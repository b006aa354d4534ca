package mongo

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/inkframe/cms-api/internal/core/domain"
	"github.com/inkframe/cms-api/internal/core/ports"
)

const collectionContents = "contents"

// ContentRepository is the MongoDB implementation of ports.ContentRepository.
// Reads go through an aggregation that joins the users collection so that
// createdBy and updatedBy come back as name/username references.
type ContentRepository struct {
	col *mongo.Collection
}

func NewContentRepository(db *mongo.Database) *ContentRepository {
	return &ContentRepository{col: db.Collection(collectionContents)}
}

type mongoContent struct {
	ID          primitive.ObjectID  `bson:"_id,omitempty"`
	Title       string              `bson:"title"`
	Description string              `bson:"description,omitempty"`
	Slug        string              `bson:"slug,omitempty"`
	Blocks      []domain.Block      `bson:"blocks"`
	CreatedBy   *primitive.ObjectID `bson:"createdBy,omitempty"`
	UpdatedBy   *primitive.ObjectID `bson:"updatedBy,omitempty"`
	CreatedAt   time.Time           `bson:"createdAt"`
	UpdatedAt   time.Time           `bson:"updatedAt"`
}

type userRefDoc struct {
	ID       primitive.ObjectID `bson:"_id"`
	Name     string             `bson:"name"`
	Username string             `bson:"username"`
}

// contentView is the shape produced by the read pipeline.
type contentView struct {
	ID          primitive.ObjectID  `bson:"_id"`
	Title       string              `bson:"title"`
	Description string              `bson:"description"`
	Slug        string              `bson:"slug"`
	Blocks      []domain.Block      `bson:"blocks"`
	CreatedBy   *primitive.ObjectID `bson:"createdBy"`
	UpdatedBy   *primitive.ObjectID `bson:"updatedBy"`
	Creator     *userRefDoc         `bson:"creator"`
	Updater     *userRefDoc         `bson:"updater"`
	CreatedAt   time.Time           `bson:"createdAt"`
	UpdatedAt   time.Time           `bson:"updatedAt"`
}

func (v *contentView) toDomain() *domain.Content {
	c := &domain.Content{
		ID:          v.ID.Hex(),
		Title:       v.Title,
		Description: v.Description,
		Slug:        v.Slug,
		Blocks:      v.Blocks,
		CreatedBy:   refOf(v.Creator, v.CreatedBy),
		UpdatedBy:   refOf(v.Updater, v.UpdatedBy),
		CreatedAt:   v.CreatedAt.UTC(),
		UpdatedAt:   v.UpdatedAt.UTC(),
	}
	if c.Blocks == nil {
		c.Blocks = []domain.Block{}
	}
	return c
}

// refOf prefers the joined user and falls back to the bare id when the user
// has since been deleted.
func refOf(joined *userRefDoc, id *primitive.ObjectID) *domain.UserRef {
	if joined != nil {
		return &domain.UserRef{ID: joined.ID.Hex(), Name: joined.Name, Username: joined.Username}
	}
	if id != nil {
		return &domain.UserRef{ID: id.Hex()}
	}
	return nil
}

func lookupUser(localField, as string) []bson.D {
	return []bson.D{
		{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: collectionUsers},
			{Key: "localField", Value: localField},
			{Key: "foreignField", Value: "_id"},
			{Key: "as", Value: as},
		}}},
		{{Key: "$unwind", Value: bson.D{
			{Key: "path", Value: "$" + as},
			{Key: "preserveNullAndEmptyArrays", Value: true},
		}}},
	}
}

// readPipeline builds match → sort → [skip, limit] → populate.
func readPipeline(match bson.M, skip, limit int64) mongo.Pipeline {
	p := mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$sort", Value: bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}}},
	}
	if skip > 0 {
		p = append(p, bson.D{{Key: "$skip", Value: skip}})
	}
	if limit > 0 {
		p = append(p, bson.D{{Key: "$limit", Value: limit}})
	}
	p = append(p, lookupUser("createdBy", "creator")...)
	p = append(p, lookupUser("updatedBy", "updater")...)
	p = append(p, bson.D{{Key: "$project", Value: bson.D{
		{Key: "creator.password", Value: 0},
		{Key: "creator.email", Value: 0},
		{Key: "updater.password", Value: 0},
		{Key: "updater.email", Value: 0},
	}}})
	return p
}

func (r *ContentRepository) aggregate(ctx context.Context, p mongo.Pipeline) ([]*domain.Content, error) {
	cur, err := r.col.Aggregate(ctx, p)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := make([]*domain.Content, 0)
	for cur.Next(ctx) {
		var v contentView
		if err := cur.Decode(&v); err != nil {
			return nil, fmt.Errorf("decode content: %w", err)
		}
		out = append(out, v.toDomain())
	}
	return out, cur.Err()
}

func (r *ContentRepository) Create(ctx context.Context, c ports.NewContent) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	now := time.Now().UTC()
	res, err := r.col.InsertOne(ctx, mongoContent{
		Title:       c.Title,
		Description: c.Description,
		Slug:        c.Slug,
		Blocks:      c.Blocks,
		CreatedBy:   optionalID(c.CreatedBy),
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		return "", fmt.Errorf("insert content: %w", err)
	}

	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return "", fmt.Errorf("insert content: unexpected id type %T", res.InsertedID)
	}
	return oid.Hex(), nil
}

func (r *ContentRepository) FindByID(ctx context.Context, id string) (*domain.Content, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	items, err := r.aggregate(ctx, readPipeline(bson.M{"_id": oid}, 0, 1))
	if err != nil {
		return nil, fmt.Errorf("find content: %w", err)
	}
	if len(items) == 0 {
		return nil, domain.ErrContentNotFound
	}
	return items[0], nil
}

// listQuery builds the count filter and the page pipeline of a list request.
// Page is 1-based.
func listQuery(f ports.ContentListFilter) (bson.M, mongo.Pipeline) {
	match := bson.M{}
	if f.Search != "" {
		rx := primitive.Regex{Pattern: regexp.QuoteMeta(f.Search), Options: "i"}
		match["$or"] = bson.A{
			bson.M{"title": rx},
			bson.M{"description": rx},
		}
	}
	skip := int64(0)
	if f.Page > 1 {
		skip = int64((f.Page - 1) * f.Limit)
	}
	return match, readPipeline(match, skip, int64(f.Limit))
}

// List returns one page of contents, newest first, and the number of contents
// matching the search.
func (r *ContentRepository) List(ctx context.Context, f ports.ContentListFilter) ([]*domain.Content, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	match, pipeline := listQuery(f)

	items, err := r.aggregate(ctx, pipeline)
	if err != nil {
		return nil, 0, fmt.Errorf("list contents: %w", err)
	}

	total, err := r.col.CountDocuments(ctx, match)
	if err != nil {
		return nil, 0, fmt.Errorf("count contents: %w", err)
	}
	return items, total, nil
}

func (r *ContentRepository) ListByCreator(ctx context.Context, userID string) ([]*domain.Content, error) {
	oid, err := parseID(userID)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	items, err := r.aggregate(ctx, readPipeline(bson.M{"createdBy": oid}, 0, 0))
	if err != nil {
		return nil, fmt.Errorf("list contents by creator: %w", err)
	}
	return items, nil
}

func (r *ContentRepository) Update(ctx context.Context, id string, up ports.ContentUpdate) (*domain.Content, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}

	set := bson.M{"updatedAt": time.Now().UTC()}
	if up.Title != nil {
		set["title"] = *up.Title
	}
	if up.Description != nil {
		set["description"] = *up.Description
	}
	if up.Slug != nil {
		set["slug"] = *up.Slug
	}
	if up.Blocks != nil {
		set["blocks"] = *up.Blocks
	}
	if by := optionalID(up.UpdatedBy); by != nil {
		set["updatedBy"] = *by
	}

	updateCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.UpdateOne(updateCtx, bson.M{"_id": oid}, bson.M{"$set": set})
	if err != nil {
		return nil, fmt.Errorf("update content: %w", err)
	}
	if res.MatchedCount == 0 {
		return nil, domain.ErrContentNotFound
	}

	return r.FindByID(ctx, id)
}

func (r *ContentRepository) Delete(ctx context.Context, id string) error {
	oid, err := parseID(id)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("delete content: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrContentNotFound
	}
	return nil
}

// EnsureIndexes creates the indexes used by listing and the creator lookup.
func (r *ContentRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, indexTimeout)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "createdBy", Value: 1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "slug", Value: 1}}},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}
