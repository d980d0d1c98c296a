package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	ContentTypeBook   = "Book"
	ContentTypeCourse = "Course"

	DifficultyBeginner     = "Beginner"
	DifficultyIntermediate = "Intermediate"
	DifficultyAdvanced     = "Advanced"

	FileFormatPDF  = "PDF"
	FileFormatEPUB = "EPUB"
	FileFormatMOBI = "MOBI"
)

// Book is a catalog entry backed by a stored PDF. Price and Pages are pointers so an
// absent value can be told apart from zero.
type Book struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Title       string             `bson:"title" json:"title" validate:"required"`
	Description string             `bson:"description" json:"description" validate:"required"`
	Category    string             `bson:"category" json:"category" validate:"required"`
	Subcategory string             `bson:"subcategory,omitempty" json:"subcategory,omitempty"`
	IsPublic    bool               `bson:"isPublic" json:"isPublic"`
	ContentType string             `bson:"contentType" json:"contentType" validate:"required,oneof=Book Course"`
	Price       *float64           `bson:"price" json:"price" validate:"required,finite,gte=0"`
	Pages       *int               `bson:"pages" json:"pages" validate:"required,min=1"`
	Author      string             `bson:"author" json:"author" validate:"required"`
	Difficulty  string             `bson:"difficulty" json:"difficulty" validate:"required,oneof=Beginner Intermediate Advanced"`
	FileURL     string             `bson:"fileUrl" json:"fileUrl" validate:"required"`
	FileFormat  string             `bson:"fileFormat" json:"fileFormat" validate:"required,oneof=PDF EPUB MOBI"`
	ImageURL    *string            `bson:"imageUrl" json:"imageUrl"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
}

// NewBook returns a book carrying the schema defaults.
func NewBook() *Book {
	return &Book{
		IsPublic:    true,
		ContentType: ContentTypeBook,
		Difficulty:  DifficultyBeginner,
	}
}
