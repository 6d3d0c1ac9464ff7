package store

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/skillsenselab/skillloop/internal/apperr"
)

// translateError maps database errors to the application error taxonomy.
// resource names the entity being operated on, for error messages.
func translateError(err error, resource, id string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFound(resource, id)
	}
	if isDuplicateKey(err) {
		return apperr.AlreadyExists(resource).WithCause(err)
	}
	return apperr.Internal(err)
}

// isDuplicateKey reports whether err is a unique constraint violation.
// GORM surfaces gorm.ErrDuplicatedKey for drivers that translate errors;
// the string check covers postgres error 23505 passed through raw.
func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "23505") || strings.Contains(msg, "duplicate key")
}
