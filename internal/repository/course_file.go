package repo

import (
	"context"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"chess_study/internal/domain/study"
	apperrors "chess_study/internal/errors"
)

type courseFile struct {
	Courses []study.Course `yaml:"courses"`
}

// FileCourseRepository serves courses from a YAML file loaded at startup.
// It is the course source when no MongoDB is configured and the input of
// the seed command.
type FileCourseRepository struct {
	order   []string
	courses map[string]study.Course
}

func LoadCourseFile(path string) (*FileCourseRepository, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	repo, err := ParseCourses(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return repo, nil
}

func ParseCourses(r io.Reader) (*FileCourseRepository, error) {
	var file courseFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil && err != io.EOF {
		return nil, err
	}

	repo := &FileCourseRepository{courses: make(map[string]study.Course, len(file.Courses))}
	for _, c := range file.Courses {
		if c.ID == "" {
			return nil, fmt.Errorf("course %q has no id", c.Title)
		}
		if _, dup := repo.courses[c.ID]; dup {
			return nil, fmt.Errorf("duplicate course id %q", c.ID)
		}
		repo.order = append(repo.order, c.ID)
		repo.courses[c.ID] = c
	}
	return repo, nil
}

func (f *FileCourseRepository) GetCourse(_ context.Context, id string) (study.Course, error) {
	c, ok := f.courses[id]
	if !ok {
		return study.Course{}, fmt.Errorf("%w: %s", apperrors.ErrCourseNotFound, id)
	}
	return c, nil
}

// ListCourses returns the courses in file order.
func (f *FileCourseRepository) ListCourses(_ context.Context) ([]study.Course, error) {
	out := make([]study.Course, 0, len(f.order))
	for _, id := range f.order {
		out = append(out, f.courses[id])
	}
	return out, nil
}
