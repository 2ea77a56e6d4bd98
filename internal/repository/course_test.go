package repo

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
	"go.uber.org/zap"

	"chess_study/internal/domain/study"
	apperrors "chess_study/internal/errors"
)

func TestCourseRepository(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	log := zap.NewNop().Sugar()

	mt.Run("get course", func(mt *mtest.T) {
		ns := mt.DB.Name() + "." + coursesCollection
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, bson.D{
			{Key: "_id", Value: "sicilian"},
			{Key: "title", Value: "The Sicilian Defence"},
			{Key: "key_positions", Value: bson.A{
				bson.D{
					{Key: "id", Value: "open"},
					{Key: "fen", Value: "rnbqkbnr/pp1ppppp/8/2p5/4P3/8/PPPP1PPP/RNBQKBNR w KQkq - 0 2"},
					{Key: "description", Value: "1.e4 c5"},
				},
			}},
		}))

		course, err := NewCourseRepository(log, mt.DB).GetCourse(context.Background(), "sicilian")
		require.NoError(mt, err)
		assert.Equal(mt, "The Sicilian Defence", course.Title)
		require.Len(mt, course.KeyPositions, 1)
		assert.Equal(mt, "1.e4 c5", course.KeyPositions[0].Description)
	})

	mt.Run("missing course", func(mt *mtest.T) {
		ns := mt.DB.Name() + "." + coursesCollection
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))

		_, err := NewCourseRepository(log, mt.DB).GetCourse(context.Background(), "nope")
		assert.ErrorIs(mt, err, apperrors.ErrCourseNotFound)
	})

	mt.Run("list courses", func(mt *mtest.T) {
		ns := mt.DB.Name() + "." + coursesCollection
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch,
			bson.D{{Key: "_id", Value: "a"}, {Key: "title", Value: "A"}},
			bson.D{{Key: "_id", Value: "b"}, {Key: "title", Value: "B"}},
		))

		courses, err := NewCourseRepository(log, mt.DB).ListCourses(context.Background())
		require.NoError(mt, err)
		assert.Len(mt, courses, 2)
	})

	mt.Run("upsert course", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}))

		err := NewCourseRepository(log, mt.DB).UpsertCourse(context.Background(), study.Course{ID: "sicilian", Title: "The Sicilian Defence"})
		assert.NoError(mt, err)
	})
}

const coursesYAML = `
courses:
  - id: sicilian
    title: The Sicilian Defence
    video_url: https://example.org/sicilian
    tags: [openings]
    key_positions:
      - id: open
        fen: rnbqkbnr/pp1ppppp/8/2p5/4P3/8/PPPP1PPP/RNBQKBNR w KQkq - 0 2
        description: 1.e4 c5
  - id: endgames
    title: Basic endgames
`

func TestParseCourses(t *testing.T) {
	repo, err := ParseCourses(strings.NewReader(coursesYAML))
	require.NoError(t, err)

	courses, err := repo.ListCourses(context.Background())
	require.NoError(t, err)
	require.Len(t, courses, 2)
	assert.Equal(t, "sicilian", courses[0].ID)
	assert.Equal(t, "endgames", courses[1].ID)

	course, err := repo.GetCourse(context.Background(), "sicilian")
	require.NoError(t, err)
	assert.Equal(t, []string{"openings"}, course.Tags)
	require.Len(t, course.KeyPositions, 1)
	assert.Equal(t, "rnbqkbnr/pp1ppppp/8/2p5/4P3/8/PPPP1PPP/RNBQKBNR w KQkq - 0 2", course.KeyPositions[0].FEN)

	_, err = repo.GetCourse(context.Background(), "missing")
	assert.ErrorIs(t, err, apperrors.ErrCourseNotFound)
}

func TestParseCoursesRejects(t *testing.T) {
	cases := map[string]string{
		"duplicate id":  "courses:\n  - id: a\n  - id: a\n",
		"missing id":    "courses:\n  - title: untitled\n",
		"unknown field": "courses:\n  - id: a\n    colour: red\n",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseCourses(strings.NewReader(doc))
			assert.Error(t, err)
		})
	}
}

func TestParseCoursesEmpty(t *testing.T) {
	repo, err := ParseCourses(strings.NewReader(""))
	require.NoError(t, err)
	courses, err := repo.ListCourses(context.Background())
	require.NoError(t, err)
	assert.Empty(t, courses)
}
