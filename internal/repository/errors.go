// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow the service layer to
// distinguish between different failure scenarios without looking at
// driver-specific error text.
package repository

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when an insert violates a unique index.  It is
// the authoritative signal for username/email and (post,user) pair
// uniqueness; any pre-check performed by callers is only a fast path.
var ErrDuplicate = errors.New("duplicate entry")

// ErrUsernameTaken and ErrEmailTaken refine ErrDuplicate for the users
// table so callers can report the offending field.  Both match
// errors.Is(err, ErrDuplicate).
var (
	ErrUsernameTaken = &duplicateKeyError{field: "username"}
	ErrEmailTaken    = &duplicateKeyError{field: "email"}
)

type duplicateKeyError struct{ field string }

func (e *duplicateKeyError) Error() string        { return e.field + " already exists" }
func (e *duplicateKeyError) Is(target error) bool { return target == ErrDuplicate }

// mysqlDuplicateEntry is ER_DUP_ENTRY.
const mysqlDuplicateEntry = 1062

// isDuplicate reports whether err is a MySQL duplicate-key failure.
func isDuplicate(err error) bool {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number == mysqlDuplicateEntry
	}
	return err != nil && strings.Contains(err.Error(), "1062")
}

// mysqlNoReferencedRow is ER_NO_REFERENCED_ROW_2: the parent row of a
// foreign key is gone.
const mysqlNoReferencedRow = 1452

// isMissingParent reports whether an insert failed because the referenced
// post or user does not exist.
func isMissingParent(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == mysqlNoReferencedRow
}

// duplicateKeyName extracts the index name from a duplicate-key message
// such as "Duplicate entry 'x' for key 'users.uq_users_email'".
func duplicateKeyName(err error) string {
	msg := err.Error()
	i := strings.LastIndex(msg, "for key '")
	if i < 0 {
		return ""
	}
	return strings.TrimSuffix(msg[i+len("for key '"):], "'")
}
