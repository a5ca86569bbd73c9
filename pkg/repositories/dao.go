package repositories

import (
	"database/sql"

	"github.com/google/uuid"
)

// nullString converts an optional field to its database representation
func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

// stringPtr converts a database value back to an optional field
func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func nullInt(i *int) sql.NullInt64 {
	if i == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*i), Valid: true}
}

func intPtr(ni sql.NullInt64) *int {
	if !ni.Valid {
		return nil
	}
	i := int(ni.Int64)
	return &i
}

// nullUUID maps an optional uuid reference onto uuid.NullUUID
func nullUUID(u *uuid.UUID) uuid.NullUUID {
	if u == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: *u, Valid: true}
}

func uuidPtr(nu uuid.NullUUID) *uuid.UUID {
	if !nu.Valid {
		return nil
	}
	u := nu.UUID
	return &u
}

// uidArgs converts a uid set into sqlbuilder variadic arguments
func uidArgs(uids []uuid.UUID) []any {
	args := make([]any, len(uids))
	for i, uid := range uids {
		args[i] = uid
	}
	return args
}
