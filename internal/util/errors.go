package util

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUserNotFound             = errors.New("user not found")
	ErrEmailRegistered          = errors.New("email already registered")
	ErrFormNotFound             = errors.New("form not found")
	ErrFormInactive             = errors.New("form is not accepting submissions")
	ErrSubmissionNotFound       = errors.New("submission not found")
	ErrAuthorizationDenied      = errors.New("you are not a validator of these answers")
	ErrMissingValidator         = errors.New("a validator must be selected")
	ErrSubmissionNotWaiting     = errors.New("submission is not waiting for validation")
	ErrSubmissionNotEditable    = errors.New("only refused submissions can be edited")
	ErrCommentRequired          = errors.New("a comment is required to refuse")
	ErrGenerationFailure        = errors.New("cannot generate targets")
	ErrReferentialInconsistency = errors.New("linked object not found")
)

// InvalidInputError 聚合一次提交中所有字段的解析/校验失败
type InvalidInputError struct {
	Fields map[uint]string
}

func (e *InvalidInputError) Add(questionID uint, message string) {
	if e.Fields == nil {
		e.Fields = make(map[uint]string)
	}
	e.Fields[questionID] = message
}

func (e *InvalidInputError) HasErrors() bool {
	return len(e.Fields) > 0
}

func (e *InvalidInputError) Error() string {
	if len(e.Fields) == 0 {
		return "invalid input"
	}
	messages := make([]string, 0, len(e.Fields))
	for _, msg := range e.Fields {
		messages = append(messages, msg)
	}
	return fmt.Sprintf("invalid input: %s", strings.Join(messages, "; "))
}

func AsInvalidInput(err error) (*InvalidInputError, bool) {
	var invalid *InvalidInputError
	if errors.As(err, &invalid) {
		return invalid, true
	}
	return nil, false
}
