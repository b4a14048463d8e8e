package domain

import (
	"encoding/json"
	"time"
)

type Legislator struct {
	ID              int64           `db:"id" json:"id"`
	ExternalID      string          `db:"external_id" json:"external_id"`
	Name            string          `db:"name" json:"name"`
	GivenName       *string         `db:"given_name" json:"given_name,omitempty"`
	FamilyName      *string         `db:"family_name" json:"family_name,omitempty"`
	Party           string          `db:"party" json:"party"`
	Chamber         string          `db:"chamber" json:"chamber"`
	District        string          `db:"district" json:"district"`
	Title           string          `db:"title" json:"title"`
	Jurisdiction    string          `db:"jurisdiction" json:"jurisdiction"`
	Email           *string         `db:"email" json:"email,omitempty"`
	ImageURL        *string         `db:"image_url" json:"image_url,omitempty"`
	URL             *string         `db:"url" json:"url,omitempty"`
	RoleData        json.RawMessage `db:"role_data" json:"role_data,omitempty"`
	Raw             json.RawMessage `db:"raw" json:"raw,omitempty"`
	UpstreamUpdated *time.Time      `db:"upstream_updated_at" json:"upstream_updated_at,omitempty"`
	SyncedAt        time.Time       `db:"synced_at" json:"synced_at"`
	CreatedAt       time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time       `db:"updated_at" json:"updated_at"`
}

func (l *Legislator) Key() string { return l.ExternalID }
