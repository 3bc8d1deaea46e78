package mongo

import (
	"errors"

	"go.mongodb.org/mongo-driver/mongo"

	"lodging/internal/domain/shared/errs"
)

const writeConflictCode = 112

// mapWriteError turns transaction write conflicts into the engine's conflict
// error. Two writers of the same room collide on its room_locks document.
func mapWriteError(err error) error {
	if err == nil {
		return nil
	}
	var se mongo.ServerError
	if errors.As(err, &se) && (se.HasErrorCode(writeConflictCode) || se.HasErrorLabel("TransientTransactionError")) {
		return errs.Conflict(errs.CodeConcurrentWrite, "room is being modified concurrently", nil, err)
	}
	return err
}
