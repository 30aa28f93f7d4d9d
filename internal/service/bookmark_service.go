package service

import (
	"errors"

	"medprep_backend/internal/model"
	"medprep_backend/internal/repository"
	"medprep_backend/internal/util"

	"gorm.io/gorm"
)

type BookmarkService struct {
	BookmarkRepo *repository.BookmarkRepository
	QuestionRepo *repository.QuestionRepository
}

func NewBookmarkService(bookmarkRepo *repository.BookmarkRepository, questionRepo *repository.QuestionRepository) *BookmarkService {
	return &BookmarkService{
		BookmarkRepo: bookmarkRepo,
		QuestionRepo: questionRepo,
	}
}

func (s *BookmarkService) Add(userID uint, questionID, note string) (*model.Bookmark, error) {
	if _, err := s.QuestionRepo.FindByID(questionID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrQuestionNotFound
		}
		return nil, err
	}
	exists, err := s.BookmarkRepo.Exists(userID, questionID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, util.ErrBookmarkExists
	}
	b := &model.Bookmark{UserID: userID, QuestionID: questionID, Note: note}
	return b, s.BookmarkRepo.Create(b)
}

func (s *BookmarkService) Remove(userID uint, questionID string) error {
	return s.BookmarkRepo.Delete(userID, questionID)
}

func (s *BookmarkService) UpdateNote(userID uint, questionID, note string) error {
	return s.BookmarkRepo.UpdateNote(userID, questionID, note)
}

// BookmarkView joins the bookmark with its question, key included so
// bookmarked questions can be revised with answers visible.
type BookmarkView struct {
	Bookmark      model.Bookmark `json:"bookmark"`
	Question      QuestionView   `json:"question"`
	CorrectOption int            `json:"correctOption"`
	Explanation   string         `json:"explanation,omitempty"`
}

func (s *BookmarkService) List(userID uint, subject string, page, limit int) ([]BookmarkView, int64, error) {
	bookmarks, total, err := s.BookmarkRepo.ListByUser(userID, subject, limit, (page-1)*limit)
	if err != nil {
		return nil, 0, err
	}
	ids := make([]string, len(bookmarks))
	for i, b := range bookmarks {
		ids[i] = b.QuestionID
	}
	questions, err := s.QuestionRepo.FindByIDs(ids)
	if err != nil {
		return nil, 0, err
	}
	byID := make(map[string]model.Question, len(questions))
	for _, q := range questions {
		byID[q.ID] = q
	}

	views := make([]BookmarkView, 0, len(bookmarks))
	for _, b := range bookmarks {
		q, ok := byID[b.QuestionID]
		if !ok {
			continue
		}
		views = append(views, BookmarkView{
			Bookmark:      b,
			Question:      questionView(q),
			CorrectOption: q.CorrectOption,
			Explanation:   q.Explanation,
		})
	}
	return views, total, nil
}
