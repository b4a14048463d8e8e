package domain

import "time"

// Resource names a synced table. The values double as sync_state keys and
// as action discriminators on the sync endpoint.
type Resource string

const (
	ResourceBills       Resource = "bills"
	ResourceLegislators Resource = "legislators"
	ResourceSponsors    Resource = "sponsors"
)

// SyncAction is the discriminator accepted by the sync endpoint.
type SyncAction string

const (
	ActionBills       SyncAction = "bills"
	ActionLegislators SyncAction = "legislators"
	ActionSponsors    SyncAction = "sponsors"
	ActionFull        SyncAction = "full"
)

func ParseSyncAction(s string) (SyncAction, error) {
	switch a := SyncAction(s); a {
	case ActionBills, ActionLegislators, ActionSponsors, ActionFull:
		return a, nil
	}
	return "", ErrInvalidInput
}

// SyncQuery narrows an upstream listing. Zero values fall back to configured
// defaults.
type SyncQuery struct {
	Jurisdiction string `json:"jurisdiction,omitempty"`
	Session      string `json:"session,omitempty"`
	Query        string `json:"query,omitempty"`
	MaxPages     int    `json:"-"`
}

// SyncResult counts the outcome of one reconcile pass. Records that failed
// are counted in Total only.
type SyncResult struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
	Total   int `json:"total"`
}

func (r SyncResult) Failed() int {
	return r.Total - r.Created - r.Updated
}

type FullSyncResult struct {
	Bills       *SyncResult `json:"bills"`
	Legislators *SyncResult `json:"legislators"`
}

type SyncState struct {
	ID           int64     `db:"id" json:"-"`
	Resource     string    `db:"resource" json:"resource"`
	LastSyncedAt time.Time `db:"last_synced_at" json:"last_synced_at"`
	LastCreated  int       `db:"last_created" json:"last_created"`
	LastUpdated  int       `db:"last_updated" json:"last_updated"`
	LastTotal    int       `db:"last_total" json:"last_total"`
	TotalSynced  int64     `db:"total_synced" json:"total_synced"`
}

// ChangeKind is carried on published change events.
type ChangeKind string

const (
	ChangeCreated ChangeKind = "created"
	ChangeUpdated ChangeKind = "updated"
)

// ChangeEvent is published after the reconciler writes a row.
type ChangeEvent struct {
	Resource   Resource   `json:"resource"`
	Kind       ChangeKind `json:"action"`
	ExternalID string     `json:"external_id"`
	LocalID    int64      `json:"id"`
	OccurredAt time.Time  `json:"timestamp"`
}
