package repositories

import (
	"errors"

	"gorm.io/gorm"
)

var (
	// ErrNotFound is returned when the requested row does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is a unique constraint violation.
	ErrDuplicate = gorm.ErrDuplicatedKey
	// ErrReferenced is a foreign key violation.
	ErrReferenced = gorm.ErrForeignKeyViolated
)
