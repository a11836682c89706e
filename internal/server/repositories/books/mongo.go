package books

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/dmitrijs2005/gophlibrary/internal/common"
	"github.com/dmitrijs2005/gophlibrary/internal/server/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	BooksCollection    = "books"
	BorrowedCollection = "borrowed_books"
)

type bookDocument struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	ExternalID   string             `bson:"bookId,omitempty"`
	Title        string             `bson:"title"`
	Author       string             `bson:"author"`
	Availability bool               `bson:"availability"`
}

func (d *bookDocument) toModel() models.Book {
	return models.Book{
		ID:           d.ID.Hex(),
		ExternalID:   d.ExternalID,
		Title:        d.Title,
		Author:       d.Author,
		Availability: d.Availability,
	}
}

type borrowDocument struct {
	ID         primitive.ObjectID `bson:"_id,omitempty"`
	User       primitive.ObjectID `bson:"user"`
	Book       primitive.ObjectID `bson:"book"`
	BorrowDate time.Time          `bson:"borrowDate"`
}

// borrowedView is a borrow record after $lookup of its book.
type borrowedView struct {
	ID         primitive.ObjectID `bson:"_id"`
	User       primitive.ObjectID `bson:"user"`
	Book       *bookDocument      `bson:"book,omitempty"`
	BorrowDate time.Time          `bson:"borrowDate"`
}

type MongoRepository struct {
	books    *mongo.Collection
	borrowed *mongo.Collection
}

func NewMongoRepository(db *mongo.Database) *MongoRepository {
	return &MongoRepository{
		books:    db.Collection(BooksCollection),
		borrowed: db.Collection(BorrowedCollection),
	}
}

// EnsureIndexes creates the sparse unique bookId index and the borrow
// record lookup index.
func (r *MongoRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.books.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "bookId", Value: 1}},
		Options: options.Index().SetUnique(true).SetSparse(true),
	})
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	_, err = r.borrowed.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "user", Value: 1}, {Key: "book", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}

func (r *MongoRepository) ListAvailable(ctx context.Context) ([]models.Book, error) {
	return r.find(ctx, bson.M{"availability": true})
}

func (r *MongoRepository) Search(ctx context.Context, title, author string) ([]models.Book, error) {
	filter := bson.M{}
	if title != "" {
		filter["title"] = primitive.Regex{Pattern: regexp.QuoteMeta(title), Options: "i"}
	}
	if author != "" {
		filter["author"] = primitive.Regex{Pattern: regexp.QuoteMeta(author), Options: "i"}
	}
	return r.find(ctx, filter)
}

func (r *MongoRepository) find(ctx context.Context, filter bson.M) ([]models.Book, error) {
	cur, err := r.books.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	var docs []bookDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	result := make([]models.Book, 0, len(docs))
	for i := range docs {
		result = append(result, docs[i].toModel())
	}
	return result, nil
}

func (r *MongoRepository) setAvailability(ctx context.Context, filter bson.M, available bool) (*mongo.UpdateResult, error) {
	return r.books.UpdateOne(ctx, filter, bson.M{"$set": bson.M{"availability": available}})
}

func (r *MongoRepository) Borrow(ctx context.Context, userID, bookID string, at time.Time) (*models.BorrowRecord, error) {
	bookOID, err := primitive.ObjectIDFromHex(bookID)
	if err != nil {
		return nil, common.ErrBookUnavailable
	}
	userOID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, fmt.Errorf("malformed user id %q", userID)
	}

	res, err := r.setAvailability(ctx, bson.M{"_id": bookOID, "availability": true}, false)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	if res.MatchedCount == 0 {
		return nil, common.ErrBookUnavailable
	}

	doc := borrowDocument{User: userOID, Book: bookOID, BorrowDate: at}
	ins, err := r.borrowed.InsertOne(ctx, doc)
	if err != nil {
		if _, rerr := r.setAvailability(ctx, bson.M{"_id": bookOID}, true); rerr != nil {
			return nil, fmt.Errorf("db error: %w", errors.Join(err, rerr))
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	rec := &models.BorrowRecord{UserID: userID, BookID: bookID, BorrowDate: at}
	if oid, ok := ins.InsertedID.(primitive.ObjectID); ok {
		rec.ID = oid.Hex()
	}
	return rec, nil
}

func (r *MongoRepository) Return(ctx context.Context, userID, bookID string) error {
	bookOID, err := primitive.ObjectIDFromHex(bookID)
	if err != nil {
		return common.ErrBorrowNotFound
	}
	userOID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return common.ErrBorrowNotFound
	}

	err = r.borrowed.FindOneAndDelete(ctx, bson.M{"user": userOID, "book": bookOID}).Err()
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return common.ErrBorrowNotFound
		}
		return fmt.Errorf("db error: %w", err)
	}

	res, err := r.setAvailability(ctx, bson.M{"_id": bookOID}, true)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if res.MatchedCount == 0 {
		return common.ErrorNotFound
	}

	return nil
}

func (r *MongoRepository) ListBorrowed(ctx context.Context, userID string) ([]models.BorrowedBook, error) {
	userOID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return []models.BorrowedBook{}, nil
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: "user", Value: userOID}}}},
		{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: BooksCollection},
			{Key: "localField", Value: "book"},
			{Key: "foreignField", Value: "_id"},
			{Key: "as", Value: "book"},
		}}},
		{{Key: "$unwind", Value: bson.D{
			{Key: "path", Value: "$book"},
			{Key: "preserveNullAndEmptyArrays", Value: true},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "borrowDate", Value: 1}}}},
	}

	cur, err := r.borrowed.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	var views []borrowedView
	if err := cur.All(ctx, &views); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	result := make([]models.BorrowedBook, 0, len(views))
	for _, v := range views {
		bb := models.BorrowedBook{
			ID:         v.ID.Hex(),
			UserID:     v.User.Hex(),
			BorrowDate: v.BorrowDate,
		}
		if v.Book != nil {
			b := v.Book.toModel()
			bb.Book = &b
		}
		result = append(result, bb)
	}
	return result, nil
}

func (r *MongoRepository) Import(ctx context.Context, books []models.Book) (int, error) {
	if len(books) == 0 {
		return 0, nil
	}

	writes := make([]mongo.WriteModel, 0, len(books))
	for _, b := range books {
		doc := bookDocument{ExternalID: b.ExternalID, Title: b.Title, Author: b.Author, Availability: b.Availability}
		if b.ExternalID == "" {
			writes = append(writes, mongo.NewInsertOneModel().SetDocument(doc))
			continue
		}
		writes = append(writes, mongo.NewUpdateOneModel().
			SetFilter(bson.M{"bookId": b.ExternalID}).
			SetUpdate(bson.M{"$setOnInsert": doc}).
			SetUpsert(true))
	}

	res, err := r.books.BulkWrite(ctx, writes, options.BulkWrite().SetOrdered(false))
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}

	return int(res.InsertedCount + res.UpsertedCount), nil
}
