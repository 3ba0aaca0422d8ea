package mysql

import (
	"strings"

	"planp/internal/errors"

	mysqldriver "github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
)

// MySQL server error numbers.
const (
	errDuplicateEntry    = 1062
	errNoReferencedRow   = 1452
	errRowIsReferenced   = 1451
	primaryKeyName       = "PRIMARY"
	usersEmailUniqueKey  = "uk_users_email"
	duplicateKeyTemplate = "for key '"
)

// duplicateKey reports whether err is a unique-key violation and, when the
// server says so, the name of the violated key.
func duplicateKey(err error) (key string, ok bool) {
	var myErr *mysqldriver.MySQLError
	if errors.As(err, &myErr) && myErr.Number == errDuplicateEntry {
		return keyName(myErr.Message), true
	}

	return "", errors.Is(err, gorm.ErrDuplicatedKey)
}

// keyName extracts the index name from "Duplicate entry 'x' for key 'users.uk_users_email'".
// MySQL 5.7 omits the table prefix.
func keyName(message string) string {
	idx := strings.LastIndex(message, duplicateKeyTemplate)
	if idx < 0 {
		return ""
	}

	key := strings.TrimSuffix(message[idx+len(duplicateKeyTemplate):], "'")
	if dot := strings.LastIndex(key, "."); dot >= 0 {
		key = key[dot+1:]
	}

	return key
}

func isForeignKeyConstraintViolation(err error) bool {
	var myErr *mysqldriver.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == errNoReferencedRow || myErr.Number == errRowIsReferenced
	}

	return errors.Is(err, gorm.ErrForeignKeyViolated)
}
