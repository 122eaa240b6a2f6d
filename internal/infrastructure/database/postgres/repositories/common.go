// Package repositories holds the SQL implementations of the domain record
// stores.
package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/turtacn/TreatIQ-Intelligence/pkg/errors"
)

// queryExecutor is satisfied by both *sql.DB and *sql.Tx.
type queryExecutor interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

// placeholders renders n positional parameters starting at $first,
// e.g. placeholders(2, 3) is "$2, $3, $4".
func placeholders(first, n int) string {
	var sb strings.Builder
	for i := 0; i < n; i++ {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteByte('$')
		sb.WriteString(strconv.Itoa(first + i))
	}
	return sb.String()
}

// Text lists (contraindications, best_for) are stored as JSONB arrays.

func encodeList(list []string) (string, error) {
	if list == nil {
		list = []string{}
	}
	b, err := json.Marshal(list)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode list")
	}
	return string(b), nil
}

// decodeList leaves dst untouched for NULL or empty arrays.
func decodeList(raw []byte, dst *[]string) error {
	if len(raw) == 0 {
		return nil
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err != nil {
		return err
	}
	if len(list) > 0 {
		*dst = list
	}
	return nil
}

//Personal.AI order the ending
