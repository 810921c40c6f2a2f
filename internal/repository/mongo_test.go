package repository

import (
	"errors"
	"testing"

	"coursehub-backend/internal/domain"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestWrapWriteErrorMapsDuplicateKeyToConflict(t *testing.T) {
	dup := mongo.WriteException{WriteErrors: mongo.WriteErrors{
		{Code: 11000, Message: "E11000 duplicate key error collection: coursehub.enrollments"},
	}}

	err := wrapWriteError(dup, "enrollment for student %d in course %d already exists", 1, 10)
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.Contains(t, err.Error(), "student 1 in course 10")
}

func TestWrapWriteErrorPassesOtherErrorsThrough(t *testing.T) {
	plain := errors.New("connection reset by peer")
	assert.Equal(t, plain, wrapWriteError(plain, "enrollment for student %d", 1))

	other := mongo.WriteException{WriteErrors: mongo.WriteErrors{{Code: 121, Message: "Document failed validation"}}}
	assert.NotErrorIs(t, wrapWriteError(other, "enrollment for student %d", 1), domain.ErrConflict)
}
