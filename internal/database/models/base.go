package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UUIDArray is a custom type for PostgreSQL UUID arrays. It keeps insertion
// order, which matters for a user's unread notification list.
type UUIDArray []uuid.UUID

// Scan implements the sql.Scanner interface for reading from database
func (a *UUIDArray) Scan(value interface{}) error {
	if value == nil {
		*a = nil
		return nil
	}

	// PostgreSQL returns arrays as strings like {uuid1,uuid2,uuid3}
	str, ok := value.(string)
	if !ok {
		return fmt.Errorf("UUIDArray: expected string, got %T", value)
	}

	str = strings.Trim(str, "{}")
	if str == "" {
		*a = nil
		return nil
	}

	parts := strings.Split(str, ",")
	result := make([]uuid.UUID, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		id, err := uuid.Parse(p)
		if err != nil {
			return fmt.Errorf("UUIDArray: failed to parse UUID %q: %w", p, err)
		}
		result = append(result, id)
	}
	*a = result
	return nil
}

// Value implements the driver.Valuer interface for writing to database
func (a UUIDArray) Value() (driver.Value, error) {
	if len(a) == 0 {
		return nil, nil
	}

	strs := make([]string, len(a))
	for i, id := range a {
		strs[i] = id.String()
	}
	return "{" + strings.Join(strs, ",") + "}", nil
}

// Contains reports whether id is present in the array.
func (a UUIDArray) Contains(id uuid.UUID) bool {
	for _, v := range a {
		if v == id {
			return true
		}
	}
	return false
}

// Without returns a copy of the array with id removed.
func (a UUIDArray) Without(id uuid.UUID) UUIDArray {
	out := make(UUIDArray, 0, len(a))
	for _, v := range a {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

// JSONMap is a string-to-string map stored as a JSON column. Notifications
// use it to carry typed context (e.g. the org id behind an invite).
type JSONMap map[string]string

// Scan implements the sql.Scanner interface for reading from database
func (m *JSONMap) Scan(value interface{}) error {
	if value == nil {
		*m = nil
		return nil
	}

	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("JSONMap: expected []byte or string, got %T", value)
	}

	if len(data) == 0 {
		*m = nil
		return nil
	}
	return json.Unmarshal(data, m)
}

// Value implements the driver.Valuer interface for writing to database
func (m JSONMap) Value() (driver.Value, error) {
	if len(m) == 0 {
		return nil, nil
	}
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("JSONMap: %w", err)
	}
	return string(data), nil
}

// Base model with UUID primary key and timestamps
type Base struct {
	ID        uuid.UUID      `gorm:"type:uuid;primary_key" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (b *Base) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}
