package service

import (
	"errors"
	"fmt"
	"time"

	"medprep_backend/internal/config"
	"medprep_backend/internal/engine"
	"medprep_backend/internal/model"
	"medprep_backend/internal/repository"
	"medprep_backend/internal/util"
	"medprep_backend/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type TestService struct {
	TestRepo     *repository.TestRepository
	QuestionRepo *repository.QuestionRepository
	Cfg          *config.Config
}

func NewTestService(testRepo *repository.TestRepository, questionRepo *repository.QuestionRepository, cfg *config.Config) *TestService {
	return &TestService{
		TestRepo:     testRepo,
		QuestionRepo: questionRepo,
		Cfg:          cfg,
	}
}

type TestInput struct {
	Title           string     `json:"title" binding:"required"`
	Description     string     `json:"description"`
	Mode            string     `json:"mode"`
	SectionCount    int        `json:"sectionCount"`
	SectionDuration int        `json:"sectionDurationSeconds"`
	QuestionIDs     []string   `json:"questionIds" binding:"required"`
	ScheduledAt     *time.Time `json:"scheduledAt"`
}

// Create builds an educator-authored test from an explicit question list.
func (s *TestService) Create(creatorID uint, in TestInput) (*model.Test, error) {
	mode := model.TestMode(in.Mode)
	if mode != model.ModeRegular {
		mode = model.ModeExam
	}
	if in.SectionCount < 1 {
		in.SectionCount = 1
	}
	if len(in.QuestionIDs) < in.SectionCount {
		return nil, fmt.Errorf("need at least %d questions for %d sections", in.SectionCount, in.SectionCount)
	}
	if in.SectionDuration <= 0 {
		in.SectionDuration = s.Cfg.Exam.SectionDurationSeconds
	}

	questions, err := s.QuestionRepo.FindByIDs(in.QuestionIDs)
	if err != nil {
		return nil, err
	}
	if len(questions) != len(in.QuestionIDs) {
		return nil, util.ErrQuestionNotFound
	}
	totalMarks := 0
	for _, q := range questions {
		totalMarks += q.Marks
	}

	test := &model.Test{
		Title:           in.Title,
		Description:     in.Description,
		Mode:            mode,
		SectionCount:    in.SectionCount,
		SectionDuration: in.SectionDuration,
		TotalQuestions:  len(in.QuestionIDs),
		TotalMarks:      totalMarks,
		ScheduledAt:     in.ScheduledAt,
		CreatorID:       creatorID,
	}
	if err := s.TestRepo.Create(test, in.QuestionIDs); err != nil {
		return nil, err
	}
	return test, nil
}

type CustomTestInput struct {
	Title         string   `json:"title"`
	Subjects      []string `json:"subjects"`
	QuestionCount int      `json:"questionCount" binding:"required"`
	Mode          string   `json:"mode"`
	SectionCount  int      `json:"sectionCount"`
}

// CreateCustom assembles a personal practice test from random questions
// matching the requested subjects. Custom tests are visible only to their
// creator and start immediately usable (no publishing step).
func (s *TestService) CreateCustom(userID uint, in CustomTestInput) (*model.Test, error) {
	if in.QuestionCount < 1 {
		return nil, util.ErrNotEnoughQuestions
	}
	if in.SectionCount < 1 {
		in.SectionCount = 1
	}
	mode := model.TestMode(in.Mode)
	if mode != model.ModeExam {
		mode = model.ModeRegular
	}

	available, err := s.QuestionRepo.CountBySubjects(in.Subjects)
	if err != nil {
		return nil, err
	}
	if available < int64(in.QuestionCount) {
		return nil, util.ErrNotEnoughQuestions
	}
	questionIDs, err := s.QuestionRepo.Random(in.Subjects, in.QuestionCount)
	if err != nil {
		return nil, err
	}

	title := in.Title
	if title == "" {
		title = fmt.Sprintf("Custom practice · %s", time.Now().Format("2 Jan 15:04"))
	}
	now := time.Now()
	test := &model.Test{
		Title:           title,
		Mode:            mode,
		SectionCount:    in.SectionCount,
		SectionDuration: s.Cfg.Exam.SectionDurationSeconds,
		TotalQuestions:  len(questionIDs),
		TotalMarks:      len(questionIDs) * 4,
		IsPublished:     true,
		PublishedAt:     &now,
		CreatorID:       userID,
		IsCustom:        true,
	}
	if err := s.TestRepo.Create(test, questionIDs); err != nil {
		return nil, err
	}
	return test, nil
}

func (s *TestService) Get(id string) (*model.Test, error) {
	test, err := s.TestRepo.FindByID(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrTestNotFound
	}
	return test, err
}

// TestDetail is a test plus its sanitized question list partitioned into the
// sections an attempt would see.
type TestDetail struct {
	Test     *model.Test      `json:"test"`
	Sections [][]QuestionView `json:"sections"`
}

func (s *TestService) GetDetail(userID uint, id string) (*TestDetail, error) {
	test, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if !test.IsPublished && test.CreatorID != userID {
		return nil, util.ErrTestNotPublished
	}
	questionIDs, err := s.TestRepo.QuestionIDs(id)
	if err != nil {
		return nil, err
	}
	questions, err := s.QuestionRepo.FindByIDs(questionIDs)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]model.Question, len(questions))
	for _, q := range questions {
		byID[q.ID] = q
	}

	parts := engine.PartitionSections(questionIDs, test.SectionCount)
	sections := make([][]QuestionView, len(parts))
	for i, part := range parts {
		views := make([]QuestionView, 0, len(part))
		for _, qid := range part {
			if q, ok := byID[qid]; ok {
				views = append(views, questionView(q))
			}
		}
		sections[i] = views
	}
	return &TestDetail{Test: test, Sections: sections}, nil
}

func (s *TestService) List(mode string, page, limit int) ([]model.Test, int64, error) {
	return s.TestRepo.List(model.TestMode(mode), true, limit, (page-1)*limit)
}

func (s *TestService) ListByCreator(creatorID uint, page, limit int) ([]model.Test, int64, error) {
	return s.TestRepo.ListByCreator(creatorID, limit, (page-1)*limit)
}

func (s *TestService) Publish(userID uint, role model.UserRole, testID string) error {
	test, err := s.Get(testID)
	if err != nil {
		return err
	}
	if role != model.Admin && test.CreatorID != userID {
		return util.ErrPermissionDenied
	}
	return s.TestRepo.Publish(testID)
}

func (s *TestService) Delete(userID uint, role model.UserRole, testID string) error {
	test, err := s.Get(testID)
	if err != nil {
		return err
	}
	if role != model.Admin && test.CreatorID != userID {
		return util.ErrPermissionDenied
	}
	return s.TestRepo.Delete(testID)
}

// PublishDue publishes every test whose scheduled time has passed. The app
// calls this from a background ticker.
func (s *TestService) PublishDue() {
	tests, err := s.TestRepo.DueForPublish(time.Now())
	if err != nil {
		logger.Log.Error("scheduled publish query failed", zap.Error(err))
		return
	}
	for _, test := range tests {
		if err := s.TestRepo.Publish(test.ID); err != nil {
			logger.Log.Error("scheduled publish failed",
				zap.String("testId", test.ID), zap.Error(err))
			continue
		}
		logger.Log.Info("test published on schedule",
			zap.String("testId", test.ID), zap.String("title", test.Title))
	}
}
