package repo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"chess_study/internal/domain/study"
	apperrors "chess_study/internal/errors"
)

const coursesCollection = "courses"

// CourseRepository keeps courses in MongoDB, one document per course keyed
// by the course id.
type CourseRepository struct {
	log   *zap.SugaredLogger
	mongo *mongo.Database
}

func NewCourseRepository(log *zap.SugaredLogger, mongo *mongo.Database) *CourseRepository {
	return &CourseRepository{
		log:   log,
		mongo: mongo,
	}
}

func (c *CourseRepository) GetCourse(ctx context.Context, id string) (study.Course, error) {
	var course study.Course
	err := c.mongo.Collection(coursesCollection).FindOne(ctx, bson.M{"_id": id}).Decode(&course)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return study.Course{}, fmt.Errorf("%w: %s", apperrors.ErrCourseNotFound, id)
	}
	if err != nil {
		c.log.Errorw("failed to load course", "course_id", id, "error", err)
		return study.Course{}, err
	}
	return course, nil
}

func (c *CourseRepository) ListCourses(ctx context.Context) ([]study.Course, error) {
	opts := options.Find().SetSort(bson.D{{Key: "title", Value: 1}})
	cursor, err := c.mongo.Collection(coursesCollection).Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	courses := make([]study.Course, 0)
	if err := cursor.All(ctx, &courses); err != nil {
		return nil, err
	}
	return courses, nil
}

func (c *CourseRepository) UpsertCourse(ctx context.Context, course study.Course) error {
	opts := options.Replace().SetUpsert(true)
	_, err := c.mongo.Collection(coursesCollection).ReplaceOne(ctx, bson.M{"_id": course.ID}, course, opts)
	if err != nil {
		return fmt.Errorf("save course %s: %w", course.ID, err)
	}
	return nil
}
