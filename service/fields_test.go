package service_test

import (
	"testing"

	"github.com/kevinaaaquil/skillspark/models"
	"github.com/kevinaaaquil/skillspark/service"
	"github.com/stretchr/testify/require"
)

func TestApplyFieldsNumbers(t *testing.T) {
	assert := require.New(t)
	book := models.NewBook()
	problems := service.ApplyFields(book, map[string]string{"price": " 19.99 ", "pages": "120.0"})
	assert.Empty(problems)
	assert.Equal(19.99, *book.Price)
	assert.Equal(120, *book.Pages)

	problems = service.ApplyFields(book, map[string]string{"price": "NaN", "pages": "lots"})
	assert.Equal([]service.FieldProblem{
		{Field: "pages", Message: "pages must be a number"},
		{Field: "price", Message: "price must be a number"},
	}, problems)
	assert.Nil(book.Price, "a bad number is never stored as zero")
	assert.Nil(book.Pages)

	problems = service.ApplyFields(book, map[string]string{"pages": "2.5"})
	assert.Equal([]service.FieldProblem{{Field: "pages", Message: "pages must be an integer"}}, problems)
	problems = service.ApplyFields(book, map[string]string{"pages": "3000000000"})
	assert.Equal([]service.FieldProblem{{Field: "pages", Message: "pages is out of range"}}, problems)
	assert.Nil(book.Pages)

	problems = service.ApplyFields(book, map[string]string{"price": "0", "pages": ""})
	assert.Empty(problems)
	assert.Equal(0.0, *book.Price)
	assert.Nil(book.Pages, "blank means absent")
}

func TestApplyFieldsStrings(t *testing.T) {
	assert := require.New(t)
	book := models.NewBook()
	problems := service.ApplyFields(book, map[string]string{
		"title":       "  Clean Code ",
		"description": "  keeps spacing ",
		"subcategory": " Go ",
		"imageUrl":    "https://cdn.example.com/c.png",
		"unknown":     "ignored",
	})
	assert.Empty(problems)
	assert.Equal("Clean Code", book.Title)
	assert.Equal("  keeps spacing ", book.Description)
	assert.Equal("Go", book.Subcategory)
	assert.Equal("https://cdn.example.com/c.png", *book.ImageURL)
	assert.Equal(models.DifficultyBeginner, book.Difficulty, "defaults survive when not sent")

	service.ApplyFields(book, map[string]string{"imageUrl": ""})
	assert.Nil(book.ImageURL)
}
