package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

type DeviceType string

const (
	DeviceMonitor DeviceType = "monitor"
	DeviceTablet  DeviceType = "tablet"
	DevicePhone   DeviceType = "phone"
)

// Valid reports whether d is one of the supported device frames.
func (d DeviceType) Valid() bool {
	switch d {
	case DeviceMonitor, DeviceTablet, DevicePhone:
		return true
	}
	return false
}

// Project is a portfolio entry. Lists are ordered ascending by OrderIndex.
type Project struct {
	ID          uuid.UUID      `db:"id" json:"id"`
	Title       string         `db:"title" json:"title"`
	Description string         `db:"description" json:"description"`
	ImageURL    string         `db:"image_url" json:"imageUrl"`
	ImageURLs   pq.StringArray `db:"image_urls" json:"imageUrls"`
	DeviceType  DeviceType     `db:"device_type" json:"deviceType"`
	Tags        pq.StringArray `db:"tags" json:"tags"`
	OrderIndex  string         `db:"order_index" json:"orderIndex"`
	CreatedAt   time.Time      `db:"created_at" json:"createdAt"`
}

// ProjectInput is the create payload.
type ProjectInput struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	ImageURL    string     `json:"imageUrl"`
	ImageURLs   []string   `json:"imageUrls"`
	DeviceType  DeviceType `json:"deviceType"`
	Tags        []string   `json:"tags"`
	OrderIndex  string     `json:"orderIndex"`
}

// ProjectPatch is a partial update; nil fields are left unchanged.
type ProjectPatch struct {
	Title       *string     `json:"title"`
	Description *string     `json:"description"`
	ImageURL    *string     `json:"imageUrl"`
	ImageURLs   *[]string   `json:"imageUrls"`
	DeviceType  *DeviceType `json:"deviceType"`
	Tags        *[]string   `json:"tags"`
	OrderIndex  *string     `json:"orderIndex"`
}
