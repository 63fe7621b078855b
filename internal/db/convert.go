package db

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

// ParseUUID converts a textual identifier into its pgtype representation.
func ParseUUID(value string) (pgtype.UUID, error) {
	parsed, err := uuid.Parse(strings.TrimSpace(value))
	if err != nil {
		return pgtype.UUID{}, err
	}
	return pgtype.UUID{Bytes: parsed, Valid: true}, nil
}

// ParseUUIDs converts every identifier, failing on the first invalid one.
func ParseUUIDs(values []string) ([]pgtype.UUID, error) {
	out := make([]pgtype.UUID, 0, len(values))
	for _, v := range values {
		id, err := ParseUUID(v)
		if err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, nil
}

// UUIDString renders a pgtype.UUID, returning "" for NULL.
func UUIDString(id pgtype.UUID) string {
	if !id.Valid {
		return ""
	}
	return uuid.UUID(id.Bytes).String()
}

// Text wraps a trimmed string, mapping blank to NULL.
func Text(value string) pgtype.Text {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return pgtype.Text{}
	}
	return pgtype.Text{String: trimmed, Valid: true}
}

// TextString unwraps a pgtype.Text, returning "" for NULL.
func TextString(value pgtype.Text) string {
	if !value.Valid {
		return ""
	}
	return value.String
}

// Timestamptz wraps t, mapping the zero time to NULL.
func Timestamptz(t time.Time) pgtype.Timestamptz {
	if t.IsZero() {
		return pgtype.Timestamptz{}
	}
	return pgtype.Timestamptz{Time: t, Valid: true}
}

// TimeFromPG unwraps a pgtype.Timestamptz, returning the zero time for NULL.
func TimeFromPG(ts pgtype.Timestamptz) time.Time {
	if !ts.Valid {
		return time.Time{}
	}
	return ts.Time
}
