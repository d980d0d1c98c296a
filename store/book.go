package store

import (
	"context"

	"github.com/kevinaaaquil/skillspark/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// BookFilter narrows FindBooks. The zero value matches every book.
type BookFilter struct {
	Category   *string
	PublicOnly bool
}

func (f BookFilter) query() bson.M {
	q := bson.M{}
	if f.Category != nil {
		q["category"] = *f.Category
	}
	if f.PublicOnly {
		q["isPublic"] = true
	}
	return q
}

func (db *DB) InsertBook(ctx context.Context, book *models.Book) (primitive.ObjectID, error) {
	res, err := db.Books().InsertOne(ctx, book, options.InsertOne())
	if err != nil {
		return primitive.NilObjectID, err
	}
	return res.InsertedID.(primitive.ObjectID), nil
}

// FindBooks returns matching books, newest first. It never returns a nil slice.
func (db *DB) FindBooks(ctx context.Context, filter BookFilter) ([]models.Book, error) {
	cur, err := db.Books().Find(ctx, filter.query(), options.Find().SetSort(bson.M{"createdAt": -1}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	books := []models.Book{}
	if err := cur.All(ctx, &books); err != nil {
		return nil, err
	}
	return books, nil
}

func (db *DB) BookByID(ctx context.Context, id primitive.ObjectID) (*models.Book, error) {
	var book models.Book
	err := db.Books().FindOne(ctx, bson.M{"_id": id}).Decode(&book)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &book, nil
}

// UpdateBook overwrites every mutable field of the stored book and returns the
// post-update document. _id and createdAt are left untouched.
func (db *DB) UpdateBook(ctx context.Context, id primitive.ObjectID, book *models.Book) (*models.Book, error) {
	update := bson.M{
		"title":       book.Title,
		"description": book.Description,
		"category":    book.Category,
		"subcategory": book.Subcategory,
		"isPublic":    book.IsPublic,
		"contentType": book.ContentType,
		"price":       book.Price,
		"pages":       book.Pages,
		"author":      book.Author,
		"difficulty":  book.Difficulty,
		"fileUrl":     book.FileURL,
		"fileFormat":  book.FileFormat,
		"imageUrl":    book.ImageURL,
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var updated models.Book
	err := db.Books().FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": update}, opts).Decode(&updated)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// UpdateBookImage sets only the cover URL.
func (db *DB) UpdateBookImage(ctx context.Context, id primitive.ObjectID, imageURL string) (*models.Book, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var updated models.Book
	err := db.Books().FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"imageUrl": imageURL}}, opts).Decode(&updated)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteBook removes a book by ID. Stored files are not touched.
func (db *DB) DeleteBook(ctx context.Context, id primitive.ObjectID) error {
	res, err := db.Books().DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
