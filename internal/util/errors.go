package util

import "errors"

var (
	ErrUserNotFound         = errors.New("user not found")
	ErrEmailRegistered      = errors.New("email already registered")
	ErrPermissionDenied     = errors.New("permission denied")
	ErrTestNotFound         = errors.New("test not found")
	ErrTestNotPublished     = errors.New("test not published or not accessible")
	ErrQuestionNotFound     = errors.New("question not found")
	ErrAttemptNotFound      = errors.New("attempt not found")
	ErrAttemptCompleted     = errors.New("attempt already completed")
	ErrAttemptExists        = errors.New("a completed attempt already exists for this test")
	ErrSectionNotActive     = errors.New("section is not active")
	ErrFinalSubmitPending   = errors.New("final submit pending, use submit")
	ErrCaseNotFound         = errors.New("case not found")
	ErrBookmarkExists       = errors.New("question already bookmarked")
	ErrNotEnoughQuestions   = errors.New("not enough questions match the requested filters")
	ErrReviewNotAvailable   = errors.New("review is available only after submission")
)
