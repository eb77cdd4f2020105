package sessions

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store provides persistence for sessions and their audit log. Read and
// matched-write operations return (nil, nil) when no row matches; callers
// decide whether absence is fatal. WithTransaction runs fn atomically: the
// transaction is committed when fn returns nil and aborted otherwise, and
// the underlying handle is released on every exit path.
type Store interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
	Create(ctx context.Context, s *Session) (*Session, error)
	GetByID(ctx context.Context, id string) (*Session, error)
	GetByUserAndID(ctx context.Context, userID, id string) (*Session, error)
	ListByUser(ctx context.Context, userID string, page, limit int) (*SessionPage, error)
	SetTokenHashes(ctx context.Context, id, accessHash, refreshHash string) (*Session, error)
	SetAccessTokenHash(ctx context.Context, id, accessHash string) (*Session, error)
	Delete(ctx context.Context, userID, id string) (*Session, error)
	AppendLog(ctx context.Context, e *AuditLogEntry) error
	ListLogsByUser(ctx context.Context, userID string, page, limit int) (*AuditLogPage, error)
}

// MongoStore implements Store on two MongoDB collections. Transactions use
// driver sessions, so createSession's multi-record commit is atomic as long
// as the deployment is a replica set.
type MongoStore struct {
	client   *mongo.Client
	sessions *mongo.Collection
	logs     *mongo.Collection
}

func NewMongoStore(client *mongo.Client, database string) *MongoStore {
	db := client.Database(database)
	return &MongoStore{
		client:   client,
		sessions: db.Collection("sessions"),
		logs:     db.Collection("session_logs"),
	}
}

func (s *MongoStore) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	sess, err := s.client.StartSession()
	if err != nil {
		return err
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}

func (s *MongoStore) Create(ctx context.Context, sess *Session) (*Session, error) {
	now := time.Now().UTC()
	sess.CreatedAt = now
	sess.UpdatedAt = now
	if sess.ID == "" {
		sess.ID = primitive.NewObjectID().Hex()
	}
	if _, err := s.sessions.InsertOne(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

func (s *MongoStore) GetByID(ctx context.Context, id string) (*Session, error) {
	return s.findOne(ctx, bson.M{"_id": id})
}

func (s *MongoStore) GetByUserAndID(ctx context.Context, userID, id string) (*Session, error) {
	return s.findOne(ctx, bson.M{"_id": id, "userId": userID})
}

func (s *MongoStore) findOne(ctx context.Context, filter bson.M) (*Session, error) {
	var sess Session
	if err := s.sessions.FindOne(ctx, filter).Decode(&sess); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &sess, nil
}

func (s *MongoStore) ListByUser(ctx context.Context, userID string, page, limit int) (*SessionPage, error) {
	page, limit = normalizePage(page, limit)
	filter := bson.M{"userId": userID}

	total, err := s.sessions.CountDocuments(ctx, filter)
	if err != nil {
		return nil, err
	}
	opts := options.Find().
		SetSkip(int64((page - 1) * limit)).
		SetLimit(int64(limit)).
		SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cur, err := s.sessions.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []*Session{}
	for cur.Next(ctx) {
		var sess Session
		if err := cur.Decode(&sess); err != nil {
			return nil, err
		}
		out = append(out, &sess)
	}
	if err := cur.Err(); err != nil {
		return nil, err
	}
	return &SessionPage{Data: out, Total: total, TotalPages: totalPages(total, limit), CurrentPage: page}, nil
}

func (s *MongoStore) SetTokenHashes(ctx context.Context, id, accessHash, refreshHash string) (*Session, error) {
	return s.update(ctx, id, bson.M{"accessTokenHash": accessHash, "refreshTokenHash": refreshHash})
}

func (s *MongoStore) SetAccessTokenHash(ctx context.Context, id, accessHash string) (*Session, error) {
	return s.update(ctx, id, bson.M{"accessTokenHash": accessHash})
}

// update succeeds only when the row still exists; (nil, nil) means the
// session was deleted concurrently and the caller lost the race.
func (s *MongoStore) update(ctx context.Context, id string, set bson.M) (*Session, error) {
	set["updatedAt"] = time.Now().UTC()
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var sess Session
	err := s.sessions.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&sess)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &sess, nil
}

func (s *MongoStore) Delete(ctx context.Context, userID, id string) (*Session, error) {
	var sess Session
	err := s.sessions.FindOneAndDelete(ctx, bson.M{"_id": id, "userId": userID}).Decode(&sess)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &sess, nil
}

func (s *MongoStore) AppendLog(ctx context.Context, e *AuditLogEntry) error {
	if e.ID == "" {
		e.ID = primitive.NewObjectID().Hex()
	}
	e.CreatedAt = time.Now().UTC()
	_, err := s.logs.InsertOne(ctx, e)
	return err
}

func (s *MongoStore) ListLogsByUser(ctx context.Context, userID string, page, limit int) (*AuditLogPage, error) {
	page, limit = normalizePage(page, limit)
	filter := bson.M{"userId": userID}

	total, err := s.logs.CountDocuments(ctx, filter)
	if err != nil {
		return nil, err
	}
	opts := options.Find().
		SetSkip(int64((page - 1) * limit)).
		SetLimit(int64(limit)).
		SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cur, err := s.logs.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []*AuditLogEntry{}
	for cur.Next(ctx) {
		var e AuditLogEntry
		if err := cur.Decode(&e); err != nil {
			return nil, err
		}
		out = append(out, &e)
	}
	if err := cur.Err(); err != nil {
		return nil, err
	}
	return &AuditLogPage{Data: out, Total: total, TotalPages: totalPages(total, limit), CurrentPage: page}, nil
}

func normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	return page, limit
}
