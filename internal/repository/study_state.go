package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"chess_study/internal/domain/study"
	apperrors "chess_study/internal/errors"
)

// StudyStateRepository keeps the resumable part of a study in Redis.
type StudyStateRepository struct {
	log   *zap.SugaredLogger
	redis *redis.Client
	ttl   time.Duration
}

func NewStudyStateRepository(log *zap.SugaredLogger, redis *redis.Client, ttl time.Duration) *StudyStateRepository {
	return &StudyStateRepository{
		log:   log,
		redis: redis,
		ttl:   ttl,
	}
}

func studyKey(studyID string) string {
	return "study:" + studyID
}

func (s *StudyStateRepository) SaveStudy(ctx context.Context, saved study.SavedStudy) error {
	saved.UpdatedAt = time.Now().Unix()
	data, err := json.Marshal(saved)
	if err != nil {
		return err
	}
	if err := s.redis.Set(ctx, studyKey(saved.StudyID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("save study %s: %w", saved.StudyID, err)
	}
	return nil
}

func (s *StudyStateRepository) LoadStudy(ctx context.Context, studyID string) (study.SavedStudy, error) {
	val, err := s.redis.Get(ctx, studyKey(studyID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return study.SavedStudy{}, fmt.Errorf("%w: %s", apperrors.ErrStudyNotFound, studyID)
	}
	if err != nil {
		return study.SavedStudy{}, err
	}

	var saved study.SavedStudy
	if err := json.Unmarshal(val, &saved); err != nil {
		s.log.Warnw("dropping unreadable study state", "study_id", studyID, "error", err)
		return study.SavedStudy{}, fmt.Errorf("%w: %s", apperrors.ErrStudyNotFound, studyID)
	}
	return saved, nil
}

func (s *StudyStateRepository) DeleteStudy(ctx context.Context, studyID string) error {
	return s.redis.Del(ctx, studyKey(studyID)).Err()
}
