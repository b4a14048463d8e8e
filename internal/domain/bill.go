package domain

import (
	"encoding/json"
	"time"
)

// Fallback values stored when the upstream record omits a field.
const (
	Unknown          = "Unknown"
	UntitledBill     = "Untitled"
	NoActionRecorded = "No action recorded"
)

type Bill struct {
	ID               int64           `db:"id" json:"id"`
	ExternalID       string          `db:"external_id" json:"external_id"`
	Identifier       string          `db:"identifier" json:"identifier"`
	Title            string          `db:"title" json:"title"`
	Session          string          `db:"session" json:"session"`
	Jurisdiction     string          `db:"jurisdiction" json:"jurisdiction"`
	Chamber          string          `db:"chamber" json:"chamber"`
	Classification   []string        `db:"-" json:"classification"`
	Subjects         []string        `db:"-" json:"subjects"`
	Status           string          `db:"status" json:"status"`
	Abstract         *string         `db:"abstract" json:"abstract,omitempty"`
	URL              *string         `db:"url" json:"url,omitempty"`
	FirstActionDate  *string         `db:"first_action_date" json:"first_action_date,omitempty"`
	LatestActionDate *string         `db:"latest_action_date" json:"latest_action_date,omitempty"`
	SponsorsData     json.RawMessage `db:"sponsors_data" json:"sponsors_data,omitempty"`
	ActionsData      json.RawMessage `db:"actions_data" json:"actions_data,omitempty"`
	Raw              json.RawMessage `db:"raw" json:"raw,omitempty"`
	UpstreamUpdated  *time.Time      `db:"upstream_updated_at" json:"upstream_updated_at,omitempty"`
	SyncedAt         time.Time       `db:"synced_at" json:"synced_at"`
	CreatedAt        time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time       `db:"updated_at" json:"updated_at"`

	Sponsors []Sponsorship `db:"-" json:"sponsors,omitempty"`
}

func (b *Bill) Key() string { return b.ExternalID }

// Sponsorship links a bill to a sponsoring person. PersonExternalID is nil
// when upstream could not match the sponsor name to a person.
type Sponsorship struct {
	ID               int64     `db:"id" json:"id"`
	ExternalID       string    `db:"external_id" json:"external_id"`
	BillExternalID   string    `db:"bill_external_id" json:"bill_external_id"`
	PersonExternalID *string   `db:"person_external_id" json:"person_external_id,omitempty"`
	Name             string    `db:"name" json:"name"`
	Classification   string    `db:"classification" json:"classification"`
	Primary          bool      `db:"is_primary" json:"primary"`
	SyncedAt         time.Time `db:"synced_at" json:"synced_at"`
}

func (s *Sponsorship) Key() string { return s.ExternalID }

// SponsorshipKey derives a stable identifier for a sponsorship, which upstream
// does not assign one.
func SponsorshipKey(billExternalID string, personExternalID *string, name string) string {
	if personExternalID != nil && *personExternalID != "" {
		return billExternalID + "|" + *personExternalID
	}
	return billExternalID + "|name:" + name
}
