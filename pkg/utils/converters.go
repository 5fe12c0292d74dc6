package utils

import (
	"database/sql"

	"github.com/aarondl/null/v8"
)

func Uint64PtrToNullInt64(id *uint64) sql.NullInt64 {
	if id == nil {
		return sql.NullInt64{Valid: false}
	}
	return sql.NullInt64{Int64: int64(*id), Valid: true}
}

func NullInt64ToUint64Ptr(n sql.NullInt64) *uint64 {
	if !n.Valid {
		return nil
	}
	v := uint64(n.Int64)
	return &v
}

func NullIntToUint64Ptr(n null.Int) *uint64 {
	if !n.Valid {
		return nil
	}
	v := uint64(n.Int)
	return &v
}

func NullStringToStrPtr(ns null.String) *string {
	if !ns.Valid {
		return nil
	}
	return &ns.String
}

func NullTimeToString(nt sql.NullTime) *string {
	if !nt.Valid {
		return nil
	}
	formatted := nt.Time.Local().Format("2006-01-02 15:04:05")
	return &formatted
}

func AreUint64PointersEqual(a, b *uint64) bool {
	if a == nil && b == nil {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	return *a == *b
}
