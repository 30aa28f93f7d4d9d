package service

import (
	"encoding/json"
	"errors"
	"fmt"

	"medprep_backend/internal/model"
	"medprep_backend/internal/repository"
	"medprep_backend/internal/util"

	"gorm.io/gorm"
)

type QuestionService struct {
	QuestionRepo *repository.QuestionRepository
}

func NewQuestionService(questionRepo *repository.QuestionRepository) *QuestionService {
	return &QuestionService{QuestionRepo: questionRepo}
}

// QuestionView is the student-facing shape: the key never leaves the server
// through this type.
type QuestionView struct {
	ID            string          `json:"id"`
	Subject       string          `json:"subject"`
	Topic         string          `json:"topic"`
	Content       string          `json:"content"`
	Options       json.RawMessage `json:"options"`
	ImageURL      string          `json:"imageUrl,omitempty"`
	Marks         int             `json:"marks"`
	NegativeMarks int             `json:"negativeMarks"`
}

func questionView(q model.Question) QuestionView {
	return QuestionView{
		ID:            q.ID,
		Subject:       q.Subject,
		Topic:         q.Topic,
		Content:       q.Content,
		Options:       q.Options,
		ImageURL:      q.ImageURL,
		Marks:         q.Marks,
		NegativeMarks: q.NegativeMarks,
	}
}

type QuestionInput struct {
	Subject       string   `json:"subject" binding:"required"`
	Topic         string   `json:"topic"`
	Content       string   `json:"content" binding:"required"`
	Options       []string `json:"options" binding:"required"`
	CorrectOption int      `json:"correctOption" binding:"required"`
	Explanation   string   `json:"explanation"`
	ImageURL      string   `json:"imageUrl"`
}

func (in *QuestionInput) validate() error {
	if len(in.Options) != 4 {
		return fmt.Errorf("a question needs exactly 4 options, got %d", len(in.Options))
	}
	if in.CorrectOption < 1 || in.CorrectOption > 4 {
		return fmt.Errorf("correctOption must be 1-4, got %d", in.CorrectOption)
	}
	return nil
}

func (s *QuestionService) Create(creatorID uint, in QuestionInput) (*model.Question, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	options, err := json.Marshal(in.Options)
	if err != nil {
		return nil, err
	}
	q := &model.Question{
		Subject:       in.Subject,
		Topic:         in.Topic,
		Content:       in.Content,
		Options:       options,
		CorrectOption: in.CorrectOption,
		Explanation:   in.Explanation,
		ImageURL:      in.ImageURL,
		CreatorID:     creatorID,
	}
	return q, s.QuestionRepo.Create(q)
}

func (s *QuestionService) Update(id string, in QuestionInput) (*model.Question, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	q, err := s.QuestionRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrQuestionNotFound
		}
		return nil, err
	}
	options, err := json.Marshal(in.Options)
	if err != nil {
		return nil, err
	}
	q.Subject = in.Subject
	q.Topic = in.Topic
	q.Content = in.Content
	q.Options = options
	q.CorrectOption = in.CorrectOption
	q.Explanation = in.Explanation
	q.ImageURL = in.ImageURL
	return q, s.QuestionRepo.Update(q)
}

func (s *QuestionService) Delete(id string) error {
	return s.QuestionRepo.Delete(id)
}

func (s *QuestionService) Get(id string) (*model.Question, error) {
	q, err := s.QuestionRepo.FindByID(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrQuestionNotFound
	}
	return q, err
}

func (s *QuestionService) List(subject, topic, query string, page, limit int) ([]model.Question, int64, error) {
	return s.QuestionRepo.List(subject, topic, query, limit, (page-1)*limit)
}

func (s *QuestionService) Subjects() ([]model.Subject, error) {
	return s.QuestionRepo.Subjects()
}
