package store

import (
	"context"

	"github.com/kevinaaaquil/skillspark/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (db *DB) InsertCourse(ctx context.Context, course models.Course) (primitive.ObjectID, error) {
	res, err := db.Courses().InsertOne(ctx, course)
	if err != nil {
		return primitive.NilObjectID, err
	}
	return res.InsertedID.(primitive.ObjectID), nil
}

func (db *DB) AllCourses(ctx context.Context) ([]models.Course, error) {
	cur, err := db.Courses().Find(ctx, bson.M{}, options.Find().SetSort(bson.M{"createdAt": -1}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	courses := []models.Course{}
	if err := cur.All(ctx, &courses); err != nil {
		return nil, err
	}
	return courses, nil
}
