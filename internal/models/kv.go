package models

import "time"

// KVEntry backs the postgres state backend: one row per storage key.
type KVEntry struct {
	Key       string    `gorm:"type:text;primary_key" json:"key"`
	Value     string    `gorm:"type:text;not null" json:"value"`
	CreatedAt time.Time `gorm:"type:timestamp;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"type:timestamp;default:now()" json:"updated_at"`
}

func (KVEntry) TableName() string {
	return "kv_entries"
}
