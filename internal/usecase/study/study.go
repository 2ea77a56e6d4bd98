package study

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"chess_study/internal/domain/study"
	apperrors "chess_study/internal/errors"
	"chess_study/internal/usecase/analysis"
	"chess_study/internal/usecase/navigation"
	"chess_study/internal/usecase/position"
)

type CourseStore interface {
	GetCourse(ctx context.Context, id string) (study.Course, error)
	ListCourses(ctx context.Context) ([]study.Course, error)
}

type CourseWriter interface {
	UpsertCourse(ctx context.Context, course study.Course) error
}

type StateStore interface {
	SaveStudy(ctx context.Context, saved study.SavedStudy) error
	LoadStudy(ctx context.Context, studyID string) (study.SavedStudy, error)
}

type StudyUseCase struct {
	courses  CourseStore
	states   StateStore
	engines  analysis.WorkerFactory
	defaults study.AnalysisOptions
	log      *zap.SugaredLogger
}

// NewStudyUseCase wires the study board. states may be nil, in which case
// studies are not resumable.
func NewStudyUseCase(courses CourseStore, states StateStore, engines analysis.WorkerFactory, defaults study.AnalysisOptions, log *zap.SugaredLogger) *StudyUseCase {
	return &StudyUseCase{
		courses:  courses,
		states:   states,
		engines:  engines,
		defaults: defaults,
		log:      log,
	}
}

func (u *StudyUseCase) GetCourse(ctx context.Context, id string) (study.Course, error) {
	return u.courses.GetCourse(ctx, id)
}

func (u *StudyUseCase) ListCourses(ctx context.Context) ([]study.Course, error) {
	return u.courses.ListCourses(ctx)
}

// OpenStudy builds the board for studyID (a new id when empty) on top of
// courseID's key positions. A previously saved board of the same study and
// course is restored.
func (u *StudyUseCase) OpenStudy(ctx context.Context, studyID, courseID string) (*navigation.Controller, error) {
	if studyID == "" {
		studyID = uuid.NewString()
	}

	var keys []study.KeyPosition
	if courseID != "" {
		course, err := u.courses.GetCourse(ctx, courseID)
		if err != nil {
			return nil, err
		}
		keys = u.usableKeyPositions(course)
	}

	state := navigation.NewState(studyID, courseID, keys)
	if u.states != nil {
		saved, err := u.states.LoadStudy(ctx, studyID)
		switch {
		case err == nil && saved.CourseID == courseID:
			state = navigation.Restore(state, saved)
			u.log.Infow("study restored", "study_id", studyID, "course_id", courseID)
		case err == nil:
			u.log.Infow("saved study belongs to another course", "study_id", studyID, "saved_course_id", saved.CourseID)
		case !errors.Is(err, apperrors.ErrStudyNotFound):
			u.log.Warnw("failed to load saved study", "study_id", studyID, "error", err)
		}
	}

	engine := analysis.NewEngine(u.engines, u.log.With("study_id", studyID))
	return navigation.NewController(state, engine, u.defaults, u.log.With("study_id", studyID)), nil
}

// CloseStudy releases the study's engine and saves its board.
func (u *StudyUseCase) CloseStudy(ctx context.Context, c *navigation.Controller) error {
	c.Close()
	if u.states == nil {
		return nil
	}
	saved := c.Saved()
	if err := u.states.SaveStudy(ctx, saved); err != nil {
		u.log.Errorw("failed to save study", "study_id", saved.StudyID, "error", err)
		return err
	}
	return nil
}

func (u *StudyUseCase) usableKeyPositions(course study.Course) []study.KeyPosition {
	keys := make([]study.KeyPosition, 0, len(course.KeyPositions))
	for _, kp := range course.KeyPositions {
		fen, err := position.Load(kp.FEN)
		if err != nil {
			u.log.Warnw("skipping key position", "course_id", course.ID, "key_position", kp.ID, "error", err)
			continue
		}
		kp.FEN = fen
		keys = append(keys, kp)
	}
	return keys
}

// ValidateCourse checks everything a course needs before it is stored.
func ValidateCourse(c study.Course) error {
	if c.ID == "" {
		return errors.New("course id is empty")
	}
	seen := make(map[string]bool, len(c.KeyPositions))
	for i, kp := range c.KeyPositions {
		if kp.ID == "" {
			return fmt.Errorf("course %s: key position %d has no id", c.ID, i+1)
		}
		if seen[kp.ID] {
			return fmt.Errorf("course %s: duplicate key position %s", c.ID, kp.ID)
		}
		seen[kp.ID] = true
		if _, err := position.Load(kp.FEN); err != nil {
			return fmt.Errorf("course %s: key position %s: %w", c.ID, kp.ID, err)
		}
	}
	return nil
}

// SeedCourses validates every course of src and writes it to dst. Nothing is
// written when any course is invalid.
func SeedCourses(ctx context.Context, src CourseStore, dst CourseWriter) (int, error) {
	courses, err := src.ListCourses(ctx)
	if err != nil {
		return 0, err
	}
	for _, c := range courses {
		if err := ValidateCourse(c); err != nil {
			return 0, err
		}
	}
	for i, c := range courses {
		if err := dst.UpsertCourse(ctx, c); err != nil {
			return i, err
		}
	}
	return len(courses), nil
}
