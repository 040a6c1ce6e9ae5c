package app

import (
	"time"

	"github.com/framez/framez/domain"
)

// Row decoding. Backends differ in what they hand us: the REST backend
// produces JSON maps with RFC 3339 strings, the in-memory one stores
// time.Time directly. The helpers below accept both.

func rowString(r Row, key string) string {
	if v, ok := r[key].(string); ok {
		return v
	}
	return ""
}

func rowTime(r Row, key string) time.Time {
	switch v := r[key].(type) {
	case time.Time:
		return v
	case string:
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			return t
		}
		// Postgres timestamps without a zone
		if t, err := time.Parse("2006-01-02T15:04:05.999999", v); err == nil {
			return t
		}
	}
	return time.Time{}
}

func rowNested(r Row, key string) (Row, bool) {
	switch v := r[key].(type) {
	case Row:
		return v, true
	case map[string]any:
		return Row(v), true
	}
	return nil, false
}

func profileFromRow(r Row) domain.Profile {
	return domain.Profile{
		ID:        rowString(r, "id"),
		Username:  rowString(r, "username"),
		Email:     rowString(r, "email"),
		Bio:       rowString(r, "bio"),
		Location:  rowString(r, "location"),
		AvatarURL: rowString(r, "avatar_url"),
		CreatedAt: rowTime(r, "created_at"),
	}
}

func postFromRow(r Row) domain.Post {
	return domain.Post{
		ID:        rowString(r, "id"),
		UserID:    rowString(r, "user_id"),
		Content:   rowString(r, "content"),
		ImageURL:  rowString(r, "image_url"),
		CreatedAt: rowTime(r, "created_at"),
	}
}

func commentFromRow(r Row) domain.Comment {
	return domain.Comment{
		ID:        rowString(r, "id"),
		UserID:    rowString(r, "user_id"),
		PostID:    rowString(r, "post_id"),
		Content:   rowString(r, "content"),
		CreatedAt: rowTime(r, "created_at"),
	}
}
