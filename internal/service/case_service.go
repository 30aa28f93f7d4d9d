package service

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"medprep_backend/internal/model"
	"medprep_backend/internal/util"
	"medprep_backend/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// caseSections are the parts every patient case document carries. Documents
// saved before a section existed get it filled with an empty value on read,
// so the editor never sees a missing key.
var caseSections = []string{
	"history",
	"examination",
	"investigations",
	"differentials",
	"diagnosis",
	"discussion",
}

// CaseStore is the slice of the case repository the service needs.
// Satisfied by *repository.CaseRepository.
type CaseStore interface {
	Create(c *model.PatientCase) error
	FindByID(id string) (*model.PatientCase, error)
	Update(c *model.PatientCase) error
	SaveDocument(id string, doc json.RawMessage) error
	SetStatus(id string, status model.CaseStatus) error
	ListByAuthor(authorID uint, limit, offset int) ([]model.PatientCase, int64, error)
	ListPublished(subject string, limit, offset int) ([]model.PatientCase, int64, error)
	Delete(id string) error
}

// CaseService manages authored patient cases. Editor keystrokes arrive as
// autosave calls; writes inside the debounce window are coalesced so a busy
// author produces one UPDATE per window instead of one per keystroke.
type CaseService struct {
	CaseRepo CaseStore
	window   time.Duration

	mu      sync.Mutex
	pending map[string]*pendingSave
}

type pendingSave struct {
	timer *time.Timer
	doc   json.RawMessage
}

func NewCaseService(caseRepo CaseStore, window time.Duration) *CaseService {
	if window <= 0 {
		window = 2 * time.Second
	}
	return &CaseService{
		CaseRepo: caseRepo,
		window:   window,
		pending:  make(map[string]*pendingSave),
	}
}

type CaseInput struct {
	Title   string `json:"title" binding:"required"`
	Subject string `json:"subject"`
}

func (s *CaseService) Create(authorID uint, in CaseInput) (*model.PatientCase, error) {
	doc, err := json.Marshal(defaultCaseDocument())
	if err != nil {
		return nil, err
	}
	c := &model.PatientCase{
		AuthorID: authorID,
		Title:    in.Title,
		Subject:  in.Subject,
		Status:   model.CaseDraft,
		Document: doc,
	}
	return c, s.CaseRepo.Create(c)
}

func defaultCaseDocument() map[string]interface{} {
	doc := make(map[string]interface{}, len(caseSections))
	for _, section := range caseSections {
		doc[section] = ""
	}
	return doc
}

// fillDefaults layers the stored document over the default skeleton: keys the
// document already has win, missing sections appear empty.
func fillDefaults(doc json.RawMessage) json.RawMessage {
	merged := defaultCaseDocument()
	var stored map[string]interface{}
	if len(doc) > 0 {
		if err := json.Unmarshal(doc, &stored); err == nil {
			for k, v := range stored {
				merged[k] = v
			}
		}
	}
	out, err := json.Marshal(merged)
	if err != nil {
		return doc
	}
	return out
}

func (s *CaseService) find(id string) (*model.PatientCase, error) {
	c, err := s.CaseRepo.FindByID(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrCaseNotFound
	}
	return c, err
}

func (s *CaseService) Get(userID uint, id string) (*model.PatientCase, error) {
	c, err := s.find(id)
	if err != nil {
		return nil, err
	}
	if c.Status != model.CasePublished && c.AuthorID != userID {
		return nil, util.ErrPermissionDenied
	}
	// serve the freshest document if an autosave is still pending
	s.mu.Lock()
	if p, ok := s.pending[id]; ok {
		c.Document = p.doc
	}
	s.mu.Unlock()
	c.Document = fillDefaults(c.Document)
	return c, nil
}

// Autosave buffers the document and (re)arms the flush timer. Each call
// within the window replaces the buffered document and pushes the flush out.
func (s *CaseService) Autosave(userID uint, id string, doc json.RawMessage) error {
	c, err := s.find(id)
	if err != nil {
		return err
	}
	if c.AuthorID != userID {
		return util.ErrPermissionDenied
	}
	if !json.Valid(doc) {
		return errors.New("document is not valid JSON")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.pending[id]; ok {
		p.doc = doc
		p.timer.Reset(s.window)
		return nil
	}
	p := &pendingSave{doc: doc}
	p.timer = time.AfterFunc(s.window, func() { s.flush(id) })
	s.pending[id] = p
	return nil
}

func (s *CaseService) flush(id string) {
	s.mu.Lock()
	p, ok := s.pending[id]
	if ok {
		delete(s.pending, id)
	}
	s.mu.Unlock()
	if !ok {
		return
	}
	if err := s.CaseRepo.SaveDocument(id, p.doc); err != nil {
		logger.Log.Error("case autosave flush failed",
			zap.String("caseId", id), zap.Error(err))
		return
	}
	logger.Log.Debug("case autosaved", zap.String("caseId", id))
}

// Save writes the document immediately, cancelling any pending autosave.
func (s *CaseService) Save(userID uint, id string, doc json.RawMessage) error {
	c, err := s.find(id)
	if err != nil {
		return err
	}
	if c.AuthorID != userID {
		return util.ErrPermissionDenied
	}
	if !json.Valid(doc) {
		return errors.New("document is not valid JSON")
	}

	s.mu.Lock()
	if p, ok := s.pending[id]; ok {
		p.timer.Stop()
		delete(s.pending, id)
	}
	s.mu.Unlock()
	return s.CaseRepo.SaveDocument(id, doc)
}

func (s *CaseService) UpdateMeta(userID uint, id string, in CaseInput) (*model.PatientCase, error) {
	c, err := s.find(id)
	if err != nil {
		return nil, err
	}
	if c.AuthorID != userID {
		return nil, util.ErrPermissionDenied
	}
	c.Title = in.Title
	if in.Subject != "" {
		c.Subject = in.Subject
	}
	return c, s.CaseRepo.Update(c)
}

func (s *CaseService) Publish(userID uint, id string) error {
	c, err := s.find(id)
	if err != nil {
		return err
	}
	if c.AuthorID != userID {
		return util.ErrPermissionDenied
	}
	return s.CaseRepo.SetStatus(id, model.CasePublished)
}

func (s *CaseService) Delete(userID uint, role model.UserRole, id string) error {
	c, err := s.find(id)
	if err != nil {
		return err
	}
	if role != model.Admin && c.AuthorID != userID {
		return util.ErrPermissionDenied
	}
	s.mu.Lock()
	if p, ok := s.pending[id]; ok {
		p.timer.Stop()
		delete(s.pending, id)
	}
	s.mu.Unlock()
	return s.CaseRepo.Delete(id)
}

func (s *CaseService) ListMine(userID uint, page, limit int) ([]model.PatientCase, int64, error) {
	return s.CaseRepo.ListByAuthor(userID, limit, (page-1)*limit)
}

func (s *CaseService) ListPublished(subject string, page, limit int) ([]model.PatientCase, int64, error) {
	return s.CaseRepo.ListPublished(subject, limit, (page-1)*limit)
}

// Stop flushes every pending autosave, called on shutdown so buffered edits
// are not lost.
func (s *CaseService) Stop() {
	s.mu.Lock()
	ids := make([]string, 0, len(s.pending))
	for id, p := range s.pending {
		p.timer.Stop()
		ids = append(ids, id)
	}
	s.mu.Unlock()
	for _, id := range ids {
		s.flush(id)
	}
	if len(ids) > 0 {
		logger.Log.Info("flushed pending case autosaves", zap.Int("count", len(ids)))
	}
}
