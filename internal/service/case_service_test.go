package service

import (
	"bytes"
	"encoding/json"
	"os"
	"sync"
	"testing"
	"time"

	"medprep_backend/internal/model"
	"medprep_backend/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

func TestMain(m *testing.M) {
	logger.Log = zap.NewNop()
	os.Exit(m.Run())
}

func TestFillDefaultsAddsMissingSections(t *testing.T) {
	doc := json.RawMessage(`{"history":"45M with chest pain","diagnosis":"ACS"}`)
	var merged map[string]interface{}
	if err := json.Unmarshal(fillDefaults(doc), &merged); err != nil {
		t.Fatalf("merged document is not valid JSON: %v", err)
	}

	for _, section := range caseSections {
		if _, ok := merged[section]; !ok {
			t.Errorf("section %q missing after merge", section)
		}
	}
	if merged["history"] != "45M with chest pain" {
		t.Errorf("existing value overwritten: %v", merged["history"])
	}
	if merged["examination"] != "" {
		t.Errorf("missing section should default to empty string, got %v", merged["examination"])
	}
}

func TestFillDefaultsKeepsExtraKeys(t *testing.T) {
	doc := json.RawMessage(`{"history":"x","teachingPoints":["a","b"]}`)
	var merged map[string]interface{}
	json.Unmarshal(fillDefaults(doc), &merged)

	if _, ok := merged["teachingPoints"]; !ok {
		t.Error("author-added key dropped by merge")
	}
}

func TestFillDefaultsEmptyDocument(t *testing.T) {
	var merged map[string]interface{}
	json.Unmarshal(fillDefaults(nil), &merged)

	if len(merged) != len(caseSections) {
		t.Fatalf("got %d sections, want %d", len(merged), len(caseSections))
	}
}

type fakeCaseStore struct {
	mu       sync.Mutex
	c        *model.PatientCase
	docSaves []json.RawMessage
}

func (f *fakeCaseStore) Create(c *model.PatientCase) error { f.c = c; return nil }

func (f *fakeCaseStore) FindByID(id string) (*model.PatientCase, error) {
	if f.c == nil || f.c.ID != id {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *f.c
	return &copied, nil
}

func (f *fakeCaseStore) Update(c *model.PatientCase) error { f.c = c; return nil }

func (f *fakeCaseStore) SaveDocument(id string, doc json.RawMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.docSaves = append(f.docSaves, doc)
	return nil
}

func (f *fakeCaseStore) SetStatus(id string, status model.CaseStatus) error {
	f.c.Status = status
	return nil
}

func (f *fakeCaseStore) ListByAuthor(authorID uint, limit, offset int) ([]model.PatientCase, int64, error) {
	return nil, 0, nil
}

func (f *fakeCaseStore) ListPublished(subject string, limit, offset int) ([]model.PatientCase, int64, error) {
	return nil, 0, nil
}

func (f *fakeCaseStore) Delete(id string) error { f.c = nil; return nil }

func (f *fakeCaseStore) saves() []json.RawMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]json.RawMessage, len(f.docSaves))
	copy(out, f.docSaves)
	return out
}

func draftCase(author uint) *model.PatientCase {
	return &model.PatientCase{
		UUIDBase: model.UUIDBase{ID: "c1"},
		AuthorID: author,
		Title:    "Acute abdomen",
		Subject:  "Surgery",
		Status:   model.CaseDraft,
		Document: json.RawMessage(`{"history":"initial"}`),
	}
}

func TestAutosaveCoalescesBurstIntoOneWrite(t *testing.T) {
	store := &fakeCaseStore{c: draftCase(7)}
	svc := NewCaseService(store, 30*time.Millisecond)

	docs := []json.RawMessage{
		json.RawMessage(`{"history":"v1"}`),
		json.RawMessage(`{"history":"v2"}`),
		json.RawMessage(`{"history":"v3"}`),
		json.RawMessage(`{"history":"v4"}`),
		json.RawMessage(`{"history":"v5"}`),
	}
	for _, doc := range docs {
		if err := svc.Autosave(7, "c1", doc); err != nil {
			t.Fatalf("autosave: %v", err)
		}
	}

	deadline := time.After(2 * time.Second)
	for len(store.saves()) == 0 {
		select {
		case <-deadline:
			t.Fatal("autosave never flushed")
		case <-time.After(5 * time.Millisecond):
		}
	}
	// give a stray second flush time to show up before counting
	time.Sleep(100 * time.Millisecond)

	saves := store.saves()
	if len(saves) != 1 {
		t.Fatalf("got %d document writes, want 1", len(saves))
	}
	if !bytes.Equal(saves[0], docs[len(docs)-1]) {
		t.Errorf("flushed document = %s, want last buffered %s", saves[0], docs[len(docs)-1])
	}
}

func TestSaveCancelsPendingAutosave(t *testing.T) {
	store := &fakeCaseStore{c: draftCase(7)}
	svc := NewCaseService(store, time.Hour)

	if err := svc.Autosave(7, "c1", json.RawMessage(`{"history":"buffered"}`)); err != nil {
		t.Fatalf("autosave: %v", err)
	}
	explicit := json.RawMessage(`{"history":"explicit"}`)
	if err := svc.Save(7, "c1", explicit); err != nil {
		t.Fatalf("save: %v", err)
	}

	saves := store.saves()
	if len(saves) != 1 {
		t.Fatalf("got %d document writes, want 1", len(saves))
	}
	if !bytes.Equal(saves[0], explicit) {
		t.Errorf("written document = %s, want %s", saves[0], explicit)
	}
	svc.Stop()
	if got := len(store.saves()); got != 1 {
		t.Errorf("cancelled autosave still flushed, %d writes", got)
	}
}

func TestStopFlushesPendingAutosave(t *testing.T) {
	store := &fakeCaseStore{c: draftCase(7)}
	svc := NewCaseService(store, time.Hour)

	buffered := json.RawMessage(`{"history":"buffered"}`)
	if err := svc.Autosave(7, "c1", buffered); err != nil {
		t.Fatalf("autosave: %v", err)
	}
	svc.Stop()

	saves := store.saves()
	if len(saves) != 1 {
		t.Fatalf("got %d document writes after stop, want 1", len(saves))
	}
	if !bytes.Equal(saves[0], buffered) {
		t.Errorf("flushed document = %s, want %s", saves[0], buffered)
	}
}

func TestAutosaveRejectsForeignAuthor(t *testing.T) {
	store := &fakeCaseStore{c: draftCase(7)}
	svc := NewCaseService(store, time.Hour)

	if err := svc.Autosave(9, "c1", json.RawMessage(`{}`)); err == nil {
		t.Fatal("expected permission error for non-author autosave")
	}
	svc.Stop()
	if got := len(store.saves()); got != 0 {
		t.Errorf("rejected autosave produced %d writes", got)
	}
}
