package mongo

import (
	"context"
	"errors"
	"time"

	"moviecatalog/internal/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var _ domain.MovieRepository = (*MovieRepo)(nil)

type movieDoc struct {
	ID             primitive.ObjectID `bson:"_id,omitempty"`
	Title          string             `bson:"title"`
	PublishingYear int                `bson:"publishing_year"`
	Poster         string             `bson:"poster"`
	CreatedAt      time.Time          `bson:"created_at"`
	UpdatedAt      time.Time          `bson:"updated_at"`
}

func (d movieDoc) toDomain() domain.Movie {
	return domain.Movie{
		ID:             d.ID.Hex(),
		Title:          d.Title,
		PublishingYear: d.PublishingYear,
		Poster:         d.Poster,
		CreatedAt:      d.CreatedAt,
		UpdatedAt:      d.UpdatedAt,
	}
}

// MovieRepo stores the catalog in the "movies" collection. ObjectIDs grow
// monotonically, so sorting on _id yields insertion order.
type MovieRepo struct {
	collection *mongo.Collection
}

// Create inserts a movie.
func (r *MovieRepo) Create(ctx context.Context, f domain.MovieFields) (*domain.Movie, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	now := time.Now().UTC().Truncate(time.Millisecond)
	doc := movieDoc{
		ID:             primitive.NewObjectID(),
		Title:          f.Title,
		PublishingYear: f.PublishingYear,
		Poster:         f.Poster,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		return nil, err
	}
	m := doc.toDomain()
	return &m, nil
}

// Get retrieves a movie. Malformed ids are reported as ErrNotFound.
func (r *MovieRepo) Get(ctx context.Context, id string) (*domain.Movie, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var doc movieDoc
	err = r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	m := doc.toDomain()
	return &m, nil
}

// List returns up to limit movies after skip, in insertion order.
func (r *MovieRepo) List(ctx context.Context, skip, limit int) ([]domain.Movie, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "_id", Value: 1}}).
		SetSkip(int64(skip)).
		SetLimit(int64(limit))
	cur, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx) //nolint:errcheck

	var out []domain.Movie
	for cur.Next(ctx) {
		var doc movieDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, doc.toDomain())
	}
	return out, cur.Err()
}

// Count returns the number of movies.
func (r *MovieRepo) Count(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	return r.collection.CountDocuments(ctx, bson.M{})
}

// Update sets the non-nil fields of c and returns the updated movie.
func (r *MovieRepo) Update(ctx context.Context, id string, c domain.MovieChanges) (*domain.Movie, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrNotFound
	}

	set := bson.M{"updated_at": time.Now().UTC().Truncate(time.Millisecond)}
	if c.Title != nil {
		set["title"] = *c.Title
	}
	if c.PublishingYear != nil {
		set["publishing_year"] = *c.PublishingYear
	}
	if c.Poster != nil {
		set["poster"] = *c.Poster
	}

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var doc movieDoc
	err = r.collection.FindOneAndUpdate(ctx,
		bson.M{"_id": oid},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	m := doc.toDomain()
	return &m, nil
}

// Delete removes a movie.
func (r *MovieRepo) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.ErrNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}
