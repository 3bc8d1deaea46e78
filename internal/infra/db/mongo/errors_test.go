package mongo

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/mongo"

	"lodging/internal/domain/shared/errs"
)

func TestMapWriteErrorTurnsConflictsIntoConflictErrors(t *testing.T) {
	conflict := mongo.CommandError{Code: writeConflictCode, Name: "WriteConflict"}
	transient := mongo.CommandError{Code: 251, Labels: []string{"TransientTransactionError"}}
	other := errors.New("network down")

	assert.Equal(t, errs.CodeConcurrentWrite, errs.CodeOf(mapWriteError(conflict)))
	assert.True(t, errs.IsConflict(mapWriteError(transient)))
	assert.ErrorIs(t, mapWriteError(other), other)
	assert.Equal(t, errs.KindInternal, errs.KindOf(mapWriteError(other)))
	assert.NoError(t, mapWriteError(nil))
}
