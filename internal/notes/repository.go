package notes

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Repository defines persistence operations for notes. Lookups return
// (nil, nil) when no document matches.
type Repository interface {
	Create(ctx context.Context, n *Note) (*Note, error)
	GetByID(ctx context.Context, id string) (*Note, error)
	ListByUser(ctx context.Context, userID string, page, limit int) (*Page, error)
	Update(ctx context.Context, id string, fields map[string]interface{}) (*Note, error)
	Delete(ctx context.Context, id string) (*Note, error)
	DeleteByUser(ctx context.Context, userID string) (int64, error)
}

// MongoRepository implements Repository over the "notes" collection.
type MongoRepository struct {
	col *mongo.Collection
}

func NewMongoRepository(db *mongo.Database) *MongoRepository {
	return &MongoRepository{col: db.Collection("notes")}
}

func (r *MongoRepository) Create(ctx context.Context, n *Note) (*Note, error) {
	now := time.Now().UTC()
	cp := *n
	if cp.ID == "" {
		cp.ID = primitive.NewObjectID().Hex()
	}
	cp.CreatedAt = now
	cp.UpdatedAt = now
	if _, err := r.col.InsertOne(ctx, &cp); err != nil {
		return nil, err
	}
	return &cp, nil
}

func (r *MongoRepository) GetByID(ctx context.Context, id string) (*Note, error) {
	var n Note
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&n); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &n, nil
}

func (r *MongoRepository) ListByUser(ctx context.Context, userID string, page, limit int) (*Page, error) {
	filter := bson.M{"userId": userID}
	total, err := r.col.CountDocuments(ctx, filter)
	if err != nil {
		return nil, err
	}
	opts := options.Find().
		SetSkip(int64((page - 1) * limit)).
		SetLimit(int64(limit)).
		SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []*Note{}
	for cur.Next(ctx) {
		var n Note
		if err := cur.Decode(&n); err != nil {
			return nil, err
		}
		out = append(out, &n)
	}
	if err := cur.Err(); err != nil {
		return nil, err
	}
	return &Page{Data: out, Total: total, TotalPages: totalPages(total, limit), CurrentPage: page}, nil
}

func (r *MongoRepository) Update(ctx context.Context, id string, fields map[string]interface{}) (*Note, error) {
	set := bson.M{"updatedAt": time.Now().UTC()}
	for k, v := range fields {
		set[k] = v
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var n Note
	if err := r.col.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&n); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &n, nil
}

func (r *MongoRepository) Delete(ctx context.Context, id string) (*Note, error) {
	var n Note
	if err := r.col.FindOneAndDelete(ctx, bson.M{"_id": id}).Decode(&n); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &n, nil
}

func (r *MongoRepository) DeleteByUser(ctx context.Context, userID string) (int64, error) {
	res, err := r.col.DeleteMany(ctx, bson.M{"userId": userID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func totalPages(total int64, limit int) int {
	if limit <= 0 {
		return 0
	}
	pages := int(total) / limit
	if int(total)%limit != 0 {
		pages++
	}
	return pages
}
