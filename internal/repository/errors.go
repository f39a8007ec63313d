package repository

import "errors"

var (
	// ErrDuplicateAnswer is returned when a session question already has an answer.
	ErrDuplicateAnswer = errors.New("answer already recorded for this question")
	// ErrNotFound is returned when a looked-up row does not exist.
	ErrNotFound = errors.New("not found")
)
