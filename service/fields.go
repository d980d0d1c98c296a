package service

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/kevinaaaquil/skillspark/models"
)

// FieldProblem is a value that could not be coerced into its schema type.
type FieldProblem struct {
	Field   string
	Message string
}

// ApplyFields copies the text values in fields onto book, converting them to the
// schema types. Only keys present in fields are touched, so the same call serves
// creation (on top of models.NewBook defaults) and partial updates. Unknown keys
// are ignored. Values that cannot be converted are reported, never zeroed.
func ApplyFields(book *models.Book, fields map[string]string) []FieldProblem {
	var problems []FieldProblem
	for key, raw := range fields {
		switch key {
		case "title":
			book.Title = strings.TrimSpace(raw)
		case "description":
			book.Description = raw
		case "category":
			book.Category = strings.TrimSpace(raw)
		case "subcategory":
			book.Subcategory = strings.TrimSpace(raw)
		case "author":
			book.Author = strings.TrimSpace(raw)
		case "isPublic":
			book.IsPublic = raw == "true"
		case "contentType":
			book.ContentType = raw
		case "difficulty":
			book.Difficulty = raw
		case "fileUrl":
			book.FileURL = strings.TrimSpace(raw)
		case "fileFormat":
			book.FileFormat = raw
		case "imageUrl":
			if u := strings.TrimSpace(raw); u != "" {
				book.ImageURL = &u
			} else {
				book.ImageURL = nil
			}
		case "price":
			book.Price = nil
			if strings.TrimSpace(raw) == "" {
				continue
			}
			v, ok := parseNumber(raw)
			if !ok {
				problems = append(problems, FieldProblem{"price", "price must be a number"})
				continue
			}
			book.Price = &v
		case "pages":
			book.Pages = nil
			if strings.TrimSpace(raw) == "" {
				continue
			}
			v, ok := parseNumber(raw)
			switch {
			case !ok:
				problems = append(problems, FieldProblem{"pages", "pages must be a number"})
			case v != math.Trunc(v):
				problems = append(problems, FieldProblem{"pages", "pages must be an integer"})
			case math.Abs(v) > math.MaxInt32:
				problems = append(problems, FieldProblem{"pages", "pages is out of range"})
			default:
				n := int(v)
				book.Pages = &n
			}
		}
	}
	sort.Slice(problems, func(i, j int) bool { return problems[i].Field < problems[j].Field })
	return problems
}

func parseNumber(raw string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
