package models

import (
	"encoding/json"
	"time"

	"github.com/lib/pq"
)

// Profile is the singleton "about me" record shown on the public site.
type Profile struct {
	ID              string         `db:"id" json:"id"`
	ProfileImageURL *string        `db:"profile_image_url" json:"profileImageUrl"`
	Bio1            string         `db:"bio_1" json:"bio1"`
	Bio2            string         `db:"bio_2" json:"bio2"`
	Bio3            string         `db:"bio_3" json:"bio3"`
	Skills          pq.StringArray `db:"skills" json:"skills"`
	ContactEmail    string         `db:"contact_email" json:"contactEmail"`
	UpdatedAt       time.Time      `db:"updated_at" json:"updatedAt"`
}

// Optional distinguishes a JSON field that was omitted from one sent as null.
type Optional[T any] struct {
	Set   bool
	Value *T
}

// Some returns a set Optional holding v.
func Some[T any](v T) Optional[T] {
	return Optional[T]{Set: true, Value: &v}
}

// Null returns a set Optional with no value.
func Null[T any]() Optional[T] {
	return Optional[T]{Set: true}
}

// UnmarshalJSON is only invoked for keys present in the document, null included.
func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.Set = true
	if string(data) == "null" {
		o.Value = nil
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	o.Value = &v
	return nil
}

// ProfilePatch is a partial update; nil fields are left unchanged. The image
// URL is the only nullable column, so an explicit null clears it.
type ProfilePatch struct {
	ProfileImageURL Optional[string] `json:"profileImageUrl"`
	Bio1            *string          `json:"bio1"`
	Bio2            *string          `json:"bio2"`
	Bio3            *string          `json:"bio3"`
	Skills          *[]string        `json:"skills"`
	ContactEmail    *string          `json:"contactEmail"`
}
