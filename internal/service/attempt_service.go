package service

import (
	"encoding/json"
	"errors"
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

// AttemptStore is the slice of the attempt repository the service needs.
// Satisfied by *repository.AttemptRepository.
type AttemptStore interface {
	Create(attempt *model.Attempt, answers []model.AttemptAnswer) error
	FindByID(id string) (*model.Attempt, error)
	FindActive(userID uint, testID string) (*model.Attempt, error)
	HasCompleted(userID uint, testID string) (bool, error)
	Answers(attemptID string) ([]model.AttemptAnswer, error)
	ListByUser(userID uint, completedOnly bool, limit, offset int) ([]model.Attempt, int64, error)
	CountCompletedForTest(testID string) (int64, error)
	CountScoredBelow(testID string, score int) (int64, error)
}

// TestStore is satisfied by *repository.TestRepository.
type TestStore interface {
	FindByID(id string) (*model.Test, error)
	QuestionIDs(testID string) ([]string, error)
}

// QuestionStore is satisfied by *repository.QuestionRepository.
type QuestionStore interface {
	FindByID(id string) (*model.Question, error)
	FindByIDs(ids []string) ([]model.Question, error)
}

// AttemptService drives the sectioned attempt lifecycle. All live state sits
// in the hub's runners; MySQL is written through the persist queue and Redis
// holds resumable snapshots.
type AttemptService struct {
	AttemptRepo   AttemptStore
	TestRepo      TestStore
	QuestionRepo  QuestionStore
	AnalyticsRepo *repository.AnalyticsRepository
	Leaderboard   *repository.LeaderboardRepository
	Snapshots     *repository.SnapshotRepository
	Hub           *AttemptHub
	Worker        *PersistWorker
	Cfg           *config.Config
}

func NewAttemptService(
	attemptRepo AttemptStore,
	testRepo TestStore,
	questionRepo QuestionStore,
	analyticsRepo *repository.AnalyticsRepository,
	lbRepo *repository.LeaderboardRepository,
	snapshotRepo *repository.SnapshotRepository,
	hub *AttemptHub,
	worker *PersistWorker,
	cfg *config.Config,
) *AttemptService {
	return &AttemptService{
		AttemptRepo:   attemptRepo,
		TestRepo:      testRepo,
		QuestionRepo:  questionRepo,
		AnalyticsRepo: analyticsRepo,
		Leaderboard:   lbRepo,
		Snapshots:     snapshotRepo,
		Hub:           hub,
		Worker:        worker,
		Cfg:           cfg,
	}
}

// AttemptState is the client view of a live or finished attempt. Correctness
// is only filled in where the mode allows it.
type AttemptState struct {
	AttemptID      string          `json:"attemptId"`
	TestID         string          `json:"testId"`
	Mode           model.TestMode  `json:"mode"`
	State          engine.State    `json:"state"`
	CurrentSection int             `json:"currentSection"`
	SectionCount   int             `json:"sectionCount"`
	Remaining      []int           `json:"remainingSeconds"`
	Sections       [][]string      `json:"sections"`
	Answers        []AnswerView    `json:"answers"`
	Review         bool            `json:"review"`
}

type AnswerView struct {
	QuestionID      string `json:"questionId"`
	Section         int    `json:"section"`
	SelectedOption  int    `json:"selectedOption"`
	MarkedForReview bool   `json:"markedForReview"`
	// IsCorrect is omitted in exam mode while the attempt is running.
	IsCorrect *bool `json:"isCorrect,omitempty"`
}

// AnswerFeedback is returned from a selection in regular mode.
type AnswerFeedback struct {
	QuestionID    string `json:"questionId"`
	IsCorrect     bool   `json:"isCorrect"`
	CorrectOption int    `json:"correctOption"`
	Explanation   string `json:"explanation,omitempty"`
}

// Start begins a new attempt on a published test, or resumes the user's
// unfinished one.
func (s *AttemptService) Start(userID uint, testID string) (*AttemptState, error) {
	test, err := s.TestRepo.FindByID(testID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrTestNotFound
		}
		return nil, err
	}
	if !test.IsPublished && test.CreatorID != userID {
		return nil, util.ErrTestNotPublished
	}

	if existing, err := s.AttemptRepo.FindActive(userID, testID); err == nil {
		return s.resume(existing, test)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	// one sitting per test: a finished attempt blocks a fresh start
	done, err := s.AttemptRepo.HasCompleted(userID, testID)
	if err != nil {
		return nil, err
	}
	if done {
		return nil, util.ErrAttemptExists
	}

	questionIDs, err := s.TestRepo.QuestionIDs(testID)
	if err != nil {
		return nil, err
	}
	if len(questionIDs) == 0 {
		return nil, util.ErrNotEnoughQuestions
	}

	attempt := &model.Attempt{
		TestID:         testID,
		UserID:         userID,
		Mode:           test.Mode,
		CurrentSection: 1,
		SectionCount:   test.SectionCount,
		StartedAt:      time.Now(),
		TotalQuestions: len(questionIDs),
	}
	sections := engine.PartitionSections(questionIDs, test.SectionCount)
	seeded := make([]model.AttemptAnswer, 0, len(questionIDs))
	for si, sec := range sections {
		for _, qid := range sec {
			seeded = append(seeded, model.AttemptAnswer{QuestionID: qid, Section: si + 1})
		}
	}
	if err := s.AttemptRepo.Create(attempt, seeded); err != nil {
		return nil, err
	}

	runner, err := s.buildRunner(attempt, test, questionIDs, nil)
	if err != nil {
		return nil, err
	}
	if err := runner.Start(); err != nil {
		return nil, err
	}
	s.Hub.SaveSnapshot(attempt.ID)
	logger.Log.Info("attempt started",
		zap.String("attemptId", attempt.ID),
		zap.String("testId", testID),
		zap.Uint("userId", userID),
		zap.Int("sections", test.SectionCount))
	return s.stateView(runner, attempt.TestID), nil
}

// resume rebuilds or reuses a runner for an unfinished attempt: live hub
// first, then the Redis snapshot, then reconstruction from MySQL rows.
func (s *AttemptService) resume(attempt *model.Attempt, test *model.Test) (*AttemptState, error) {
	if runner, ok := s.Hub.Get(attempt.ID); ok {
		return s.stateView(runner, attempt.TestID), nil
	}

	questionIDs, err := s.TestRepo.QuestionIDs(attempt.TestID)
	if err != nil {
		return nil, err
	}

	snap, found, err := s.Snapshots.Get(attempt.ID)
	if err != nil {
		logger.Log.Warn("snapshot load failed, falling back to row rebuild",
			zap.String("attemptId", attempt.ID), zap.Error(err))
		found = false
	}
	if !found {
		snap, err = s.snapshotFromRows(attempt, test)
		if err != nil {
			return nil, err
		}
	}

	runner, err := s.buildRunner(attempt, test, questionIDs, &snap)
	if err != nil {
		return nil, err
	}
	logger.Log.Info("attempt resumed",
		zap.String("attemptId", attempt.ID),
		zap.Bool("fromSnapshot", found),
		zap.Int("section", runner.CurrentSection()))
	return s.stateView(runner, attempt.TestID), nil
}

func (s *AttemptService) buildRunner(attempt *model.Attempt, test *model.Test, questionIDs []string, snap *engine.Snapshot) (*engine.Runner, error) {
	questions, err := s.QuestionRepo.FindByIDs(questionIDs)
	if err != nil {
		return nil, err
	}
	answerKey := make(map[string]int, len(questions))
	for _, q := range questions {
		answerKey[q.ID] = q.CorrectOption
	}

	duration := test.SectionDuration
	if duration <= 0 {
		duration = s.Cfg.Exam.SectionDurationSeconds
	}
	cfg := engine.Config{
		AttemptID:       attempt.ID,
		Mode:            engine.Mode(attempt.Mode),
		QuestionIDs:     questionIDs,
		AnswerKey:       answerKey,
		Sections:        test.SectionCount,
		SectionDuration: duration,
		Sink:            s.Worker,
		OnEvent:         s.Hub.OnEvent(attempt.UserID, attempt.TestID),
		OnWarn: func(attemptID string, err error) {
			logger.Log.Warn("attempt persistence degraded",
				zap.String("attemptId", attemptID), zap.Error(err))
		},
	}

	var runner *engine.Runner
	if snap != nil {
		runner = engine.NewRunnerFromSnapshot(cfg, *snap)
	} else {
		runner = engine.NewRunner(cfg)
	}
	s.Worker.Track(attempt.ID, attempt.UserID, attempt.TestID)
	s.Hub.Add(runner)
	return runner, nil
}

// snapshotFromRows reconstructs resumable state from the persisted rows when
// the Redis snapshot has expired or was lost.
func (s *AttemptService) snapshotFromRows(attempt *model.Attempt, test *model.Test) (engine.Snapshot, error) {
	rows, err := s.AttemptRepo.Answers(attempt.ID)
	if err != nil {
		return engine.Snapshot{}, err
	}

	answers := make([]engine.Answer, 0, len(rows))
	for _, row := range rows {
		answers = append(answers, engine.Answer{
			QuestionID:      row.QuestionID,
			Section:         row.Section,
			SelectedOption:  row.SelectedOption,
			IsCorrect:       row.IsCorrect,
			MarkedForReview: row.MarkedForReview,
		})
	}

	duration := test.SectionDuration
	if duration <= 0 {
		duration = s.Cfg.Exam.SectionDurationSeconds
	}
	remaining := make([]int, test.SectionCount)
	for i := range remaining {
		remaining[i] = duration
	}
	if attempt.SectionRemaining != "" {
		var times []model.SectionTime
		if err := json.Unmarshal([]byte(attempt.SectionRemaining), &times); err == nil {
			for _, t := range times {
				if t.Section >= 1 && t.Section <= len(remaining) {
					remaining[t.Section-1] = t.RemainingSeconds
				}
			}
		}
	}

	current := attempt.CurrentSection
	if current < 1 {
		current = 1
	}
	// a section pointer past the end means the last section was submitted
	// and the attempt was waiting on the explicit final submit
	finalPending := current > test.SectionCount
	if finalPending {
		current = test.SectionCount
	}
	submitted := make([]bool, test.SectionCount)
	for i := 0; i < current-1; i++ {
		submitted[i] = true
	}

	state := engine.StateInProgress
	if finalPending {
		submitted[current-1] = true
		state = engine.StateFinalPending
	}
	if attempt.Completed {
		state = engine.StateCompleted
	}
	return engine.Snapshot{
		AttemptID:        attempt.ID,
		Mode:             engine.Mode(attempt.Mode),
		State:            state,
		CurrentSection:   current,
		Remaining:        remaining,
		SectionSubmitted: submitted,
		Answers:          answers,
	}, nil
}

func (s *AttemptService) runnerFor(userID uint, attemptID string) (*engine.Runner, *model.Attempt, error) {
	attempt, err := s.AttemptRepo.FindByID(attemptID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, util.ErrAttemptNotFound
		}
		return nil, nil, err
	}
	if attempt.UserID != userID {
		return nil, nil, util.ErrPermissionDenied
	}
	if runner, ok := s.Hub.Get(attemptID); ok {
		return runner, attempt, nil
	}
	if attempt.Completed {
		return nil, attempt, util.ErrAttemptCompleted
	}

	test, err := s.TestRepo.FindByID(attempt.TestID)
	if err != nil {
		return nil, attempt, err
	}
	if _, err := s.resume(attempt, test); err != nil {
		return nil, attempt, err
	}
	runner, _ := s.Hub.Get(attemptID)
	return runner, attempt, nil
}

// State returns the current view of the attempt, resuming it if needed.
func (s *AttemptService) State(userID uint, attemptID string) (*AttemptState, error) {
	runner, attempt, err := s.runnerFor(userID, attemptID)
	if err != nil {
		if errors.Is(err, util.ErrAttemptCompleted) {
			return s.completedStateView(attempt)
		}
		return nil, err
	}
	return s.stateView(runner, attempt.TestID), nil
}

// SelectAnswer records a selection. In regular mode it also returns immediate
// feedback; in exam mode feedback stays nil until the attempt completes.
func (s *AttemptService) SelectAnswer(userID uint, attemptID, questionID string, option int) (*AnswerFeedback, error) {
	runner, attempt, err := s.runnerFor(userID, attemptID)
	if err != nil {
		return nil, err
	}
	ans, applied, warnErr := runner.SelectAnswer(questionID, option)
	if warnErr != nil {
		// the selection is applied in memory; the queue write failed
		logger.Log.Warn("answer enqueue failed",
			zap.String("attemptId", attemptID),
			zap.String("questionId", questionID),
			zap.Error(warnErr))
	}
	if !applied {
		return nil, util.ErrSectionNotActive
	}
	go s.Hub.SaveSnapshot(attemptID)

	if attempt.Mode != model.ModeRegular || option == 0 {
		return nil, nil
	}
	question, err := s.QuestionRepo.FindByID(questionID)
	if err != nil {
		return nil, nil
	}
	return &AnswerFeedback{
		QuestionID:    questionID,
		IsCorrect:     ans.IsCorrect,
		CorrectOption: question.CorrectOption,
		Explanation:   question.Explanation,
	}, nil
}

func (s *AttemptService) MarkForReview(userID uint, attemptID, questionID string, marked bool) error {
	runner, _, err := s.runnerFor(userID, attemptID)
	if err != nil {
		return err
	}
	_, applied, warnErr := runner.MarkForReview(questionID, marked)
	if warnErr != nil {
		logger.Log.Warn("review mark enqueue failed",
			zap.String("attemptId", attemptID), zap.Error(warnErr))
	}
	if !applied {
		return util.ErrSectionNotActive
	}
	go s.Hub.SaveSnapshot(attemptID)
	return nil
}

// SubmitSection closes the active section. Returns the updated state; when
// the last section was closed the state is final_pending.
func (s *AttemptService) SubmitSection(userID uint, attemptID string) (*AttemptState, error) {
	runner, attempt, err := s.runnerFor(userID, attemptID)
	if err != nil {
		return nil, err
	}
	if _, err := runner.SubmitSection(); err != nil {
		if errors.Is(err, engine.ErrNotInProgress) && runner.State() == engine.StateFinalPending {
			return nil, util.ErrFinalSubmitPending
		}
		return nil, err
	}
	return s.stateView(runner, attempt.TestID), nil
}

// AttemptResult is the final report card for an attempt.
type AttemptResult struct {
	AttemptID    string  `json:"attemptId"`
	TestID       string  `json:"testId"`
	Score        int     `json:"score"`
	TotalMarks   int     `json:"totalMarks"`
	Total        int     `json:"totalQuestions"`
	Correct      int     `json:"correct"`
	Incorrect    int     `json:"incorrect"`
	Unanswered   int     `json:"unanswered"`
	Percentage   int     `json:"percentage"`
	AverageScore float64 `json:"averageScore"`
	Rank         int     `json:"rank"`
	Percentile   float64 `json:"percentile"`
}

// SubmitTest finalizes the attempt and returns the result.
func (s *AttemptService) SubmitTest(userID uint, attemptID string) (*AttemptResult, error) {
	runner, attempt, err := s.runnerFor(userID, attemptID)
	if err != nil {
		if errors.Is(err, util.ErrAttemptCompleted) {
			return s.Result(userID, attemptID)
		}
		return nil, err
	}
	result, err := runner.SubmitTest()
	if err != nil {
		if errors.Is(err, engine.ErrAlreadyCompleted) {
			return s.Result(userID, attemptID)
		}
		return nil, err
	}
	score := finalScore(runner.Answers())
	logger.Log.Info("attempt completed",
		zap.String("attemptId", attemptID),
		zap.Int("score", score),
		zap.Int("percentage", result.Percentage))
	return s.buildResult(attempt, score, result)
}

// Result reports a completed attempt from its persisted rows.
func (s *AttemptService) Result(userID uint, attemptID string) (*AttemptResult, error) {
	attempt, err := s.AttemptRepo.FindByID(attemptID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrAttemptNotFound
		}
		return nil, err
	}
	if attempt.UserID != userID {
		return nil, util.ErrPermissionDenied
	}
	if !attempt.Completed {
		return nil, util.ErrReviewNotAvailable
	}
	result := engine.Result{
		Total:      attempt.TotalQuestions,
		Correct:    attempt.Correct,
		Incorrect:  attempt.Incorrect,
		Unanswered: attempt.Unanswered,
		Percentage: attempt.Percentage,
	}
	return s.buildResult(attempt, attempt.Score, result)
}

func (s *AttemptService) buildResult(attempt *model.Attempt, score int, result engine.Result) (*AttemptResult, error) {
	out := &AttemptResult{
		AttemptID:  attempt.ID,
		TestID:     attempt.TestID,
		Score:      score,
		TotalMarks: result.Total * 4,
		Total:      result.Total,
		Correct:    result.Correct,
		Incorrect:  result.Incorrect,
		Unanswered: result.Unanswered,
		Percentage: result.Percentage,
	}

	if avg, err := s.AnalyticsRepo.AverageScoreForTest(attempt.TestID); err == nil {
		out.AverageScore = avg
	}
	if rank, err := s.Leaderboard.Rank(attempt.TestID, attempt.UserID); err == nil {
		out.Rank = rank
	}
	completed, err := s.AttemptRepo.CountCompletedForTest(attempt.TestID)
	if err == nil && completed > 0 {
		below, err := s.AttemptRepo.CountScoredBelow(attempt.TestID, score)
		if err == nil {
			out.Percentile = float64(below) / float64(completed) * 100
		}
	}
	return out, nil
}

// ReviewEntry pairs a question with the user's response and the key, for the
// post-submission review screen.
type ReviewEntry struct {
	Question        QuestionView `json:"question"`
	Section         int          `json:"section"`
	SelectedOption  int          `json:"selectedOption"`
	CorrectOption   int          `json:"correctOption"`
	IsCorrect       bool         `json:"isCorrect"`
	MarkedForReview bool         `json:"markedForReview"`
	Explanation     string       `json:"explanation,omitempty"`
}

// Review returns the full answer key view. Exam mode requires a completed
// attempt; regular mode requires at least one answered question.
func (s *AttemptService) Review(userID uint, attemptID string) ([]ReviewEntry, error) {
	attempt, err := s.AttemptRepo.FindByID(attemptID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrAttemptNotFound
		}
		return nil, err
	}
	if attempt.UserID != userID {
		return nil, util.ErrPermissionDenied
	}

	var answers []engine.Answer
	if runner, ok := s.Hub.Get(attemptID); ok {
		answers = runner.Answers()
	} else {
		rows, err := s.AttemptRepo.Answers(attemptID)
		if err != nil {
			return nil, err
		}
		for _, row := range rows {
			answers = append(answers, engine.Answer{
				QuestionID:      row.QuestionID,
				Section:         row.Section,
				SelectedOption:  row.SelectedOption,
				IsCorrect:       row.IsCorrect,
				MarkedForReview: row.MarkedForReview,
			})
		}
	}

	if attempt.Mode == model.ModeRegular {
		answered := false
		for _, a := range answers {
			if a.SelectedOption != 0 {
				answered = true
				break
			}
		}
		if !answered {
			return nil, util.ErrReviewNotAvailable
		}
	} else if !attempt.Completed {
		return nil, util.ErrReviewNotAvailable
	}

	ids := make([]string, len(answers))
	for i, a := range answers {
		ids[i] = a.QuestionID
	}
	questions, err := s.QuestionRepo.FindByIDs(ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]model.Question, len(questions))
	for _, q := range questions {
		byID[q.ID] = q
	}

	entries := make([]ReviewEntry, 0, len(answers))
	for _, a := range answers {
		q, ok := byID[a.QuestionID]
		if !ok {
			continue
		}
		entries = append(entries, ReviewEntry{
			Question:        questionView(q),
			Section:         a.Section,
			SelectedOption:  a.SelectedOption,
			CorrectOption:   q.CorrectOption,
			IsCorrect:       a.IsCorrect,
			MarkedForReview: a.MarkedForReview,
			Explanation:     q.Explanation,
		})
	}
	return entries, nil
}

func (s *AttemptService) ListMine(userID uint, completedOnly bool, page, limit int) ([]model.Attempt, int64, error) {
	return s.AttemptRepo.ListByUser(userID, completedOnly, limit, (page-1)*limit)
}

func (s *AttemptService) TopScores(testID string, limit int) ([]repository.LeaderboardEntry, error) {
	return s.Leaderboard.Top(testID, limit)
}

func (s *AttemptService) stateView(runner *engine.Runner, testID string) *AttemptState {
	snap := runner.Snapshot()
	showCorrect := snap.Mode == engine.ModeRegular || snap.State == engine.StateCompleted

	answers := make([]AnswerView, 0, len(snap.Answers))
	for _, a := range snap.Answers {
		view := AnswerView{
			QuestionID:      a.QuestionID,
			Section:         a.Section,
			SelectedOption:  a.SelectedOption,
			MarkedForReview: a.MarkedForReview,
		}
		if showCorrect && a.SelectedOption != 0 {
			correct := a.IsCorrect
			view.IsCorrect = &correct
		}
		answers = append(answers, view)
	}

	return &AttemptState{
		AttemptID:      snap.AttemptID,
		TestID:         testID,
		Mode:           model.TestMode(snap.Mode),
		State:          snap.State,
		CurrentSection: snap.CurrentSection,
		SectionCount:   len(snap.Remaining),
		Remaining:      snap.Remaining,
		Sections:       runner.Sections(),
		Answers:        answers,
		Review:         snap.Review,
	}
}

// completedStateView renders an attempt that no longer has a live runner.
func (s *AttemptService) completedStateView(attempt *model.Attempt) (*AttemptState, error) {
	rows, err := s.AttemptRepo.Answers(attempt.ID)
	if err != nil {
		return nil, err
	}
	answers := make([]AnswerView, 0, len(rows))
	sections := make([][]string, attempt.SectionCount)
	for _, row := range rows {
		view := AnswerView{
			QuestionID:      row.QuestionID,
			Section:         row.Section,
			SelectedOption:  row.SelectedOption,
			MarkedForReview: row.MarkedForReview,
		}
		if row.SelectedOption != 0 {
			correct := row.IsCorrect
			view.IsCorrect = &correct
		}
		answers = append(answers, view)
		if row.Section >= 1 && row.Section <= attempt.SectionCount {
			sections[row.Section-1] = append(sections[row.Section-1], row.QuestionID)
		}
	}

	remaining := make([]int, attempt.SectionCount)
	if attempt.SectionRemaining != "" {
		var times []model.SectionTime
		if err := json.Unmarshal([]byte(attempt.SectionRemaining), &times); err == nil {
			for _, t := range times {
				if t.Section >= 1 && t.Section <= len(remaining) {
					remaining[t.Section-1] = t.RemainingSeconds
				}
			}
		}
	}

	return &AttemptState{
		AttemptID:      attempt.ID,
		TestID:         attempt.TestID,
		Mode:           attempt.Mode,
		State:          engine.StateCompleted,
		CurrentSection: attempt.CurrentSection,
		SectionCount:   attempt.SectionCount,
		Remaining:      remaining,
		Sections:       sections,
		Answers:        answers,
	}, nil
}
