package openstates

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"littlebird/internal/domain"
)

var emptyArray = json.RawMessage(`[]`)

// TransformBill maps an upstream bill onto the local row. Optional fields get
// the documented fallbacks; nested structures are kept as opaque JSON.
func TransformBill(r BillRecord) domain.Bill {
	bill := domain.Bill{
		ExternalID:       strings.TrimSpace(r.ID),
		Identifier:       orDefault(r.Identifier, domain.Unknown),
		Title:            orDefault(r.Title, domain.UntitledBill),
		Session:          orDefault(r.Session, domain.Unknown),
		Jurisdiction:     domain.Unknown,
		Chamber:          domain.Unknown,
		Classification:   nonNil(r.Classification),
		Subjects:         nonNil(r.Subject),
		Status:           orDefault(r.LatestActionDescription, domain.NoActionRecorded),
		URL:              optional(r.OpenStatesURL),
		FirstActionDate:  optional(r.FirstActionDate),
		LatestActionDate: optional(r.LatestActionDate),
		SponsorsData:     marshalOrEmpty(r.Sponsorships),
		ActionsData:      emptyArray,
		Raw:              rawOrEmpty(r.raw),
		UpstreamUpdated:  parseTime(r.UpdatedAt),
		SyncedAt:         time.Now().UTC(),
	}

	if r.Jurisdiction != nil && r.Jurisdiction.Name != "" {
		bill.Jurisdiction = r.Jurisdiction.Name
	}
	if r.FromOrganization != nil && r.FromOrganization.Classification != "" {
		bill.Chamber = r.FromOrganization.Classification
	}
	if len(r.Actions) > 0 && string(r.Actions) != "null" {
		bill.ActionsData = r.Actions
	}
	for _, a := range r.Abstracts {
		if a.Abstract != "" {
			bill.Abstract = optional(a.Abstract)
			break
		}
	}

	return bill
}

// TransformSponsorships flattens a bill's sponsor list. Sponsors with no
// name are dropped since they cannot be keyed.
func TransformSponsorships(r BillRecord) []domain.Sponsorship {
	billID := strings.TrimSpace(r.ID)
	now := time.Now().UTC()

	out := make([]domain.Sponsorship, 0, len(r.Sponsorships))
	for _, s := range r.Sponsorships {
		name := strings.TrimSpace(s.Name)
		var personID *string
		if s.Person != nil {
			personID = optional(s.Person.ID)
			if name == "" {
				name = strings.TrimSpace(s.Person.Name)
			}
		}
		if name == "" {
			continue
		}

		sp := domain.Sponsorship{
			BillExternalID:   billID,
			PersonExternalID: personID,
			Name:             name,
			Classification:   orDefault(s.Classification, domain.Unknown),
			Primary:          s.Primary,
			SyncedAt:         now,
		}
		if billID != "" {
			sp.ExternalID = domain.SponsorshipKey(billID, personID, name)
		}
		out = append(out, sp)
	}
	return out
}

func TransformLegislator(r PersonRecord) domain.Legislator {
	leg := domain.Legislator{
		ExternalID:      strings.TrimSpace(r.ID),
		Name:            orDefault(r.Name, domain.Unknown),
		GivenName:       optional(r.GivenName),
		FamilyName:      optional(r.FamilyName),
		Party:           orDefault(r.Party, domain.Unknown),
		Chamber:         domain.Unknown,
		District:        domain.Unknown,
		Title:           domain.Unknown,
		Jurisdiction:    domain.Unknown,
		Email:           optional(r.Email),
		ImageURL:        optional(r.Image),
		URL:             optional(r.OpenStatesURL),
		RoleData:        json.RawMessage(`{}`),
		Raw:             rawOrEmpty(r.raw),
		UpstreamUpdated: parseTime(r.UpdatedAt),
		SyncedAt:        time.Now().UTC(),
	}

	if r.Jurisdiction != nil && r.Jurisdiction.Name != "" {
		leg.Jurisdiction = r.Jurisdiction.Name
	}
	if role := r.CurrentRole; role != nil {
		leg.Chamber = orDefault(role.OrgClassification, domain.Unknown)
		leg.Title = orDefault(role.Title, domain.Unknown)
		if role.District != nil {
			leg.District = orDefault(fmt.Sprint(role.District), domain.Unknown)
		}
		if b, err := json.Marshal(role); err == nil {
			leg.RoleData = b
		}
	}

	return leg
}

func orDefault(s, fallback string) string {
	if s = strings.TrimSpace(s); s == "" {
		return fallback
	}
	return s
}

func optional(s string) *string {
	if s = strings.TrimSpace(s); s == "" {
		return nil
	}
	return &s
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func marshalOrEmpty(v any) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil || string(b) == "null" {
		return emptyArray
	}
	return b
}

func rawOrEmpty(raw json.RawMessage) json.RawMessage {
	if len(raw) == 0 || !json.Valid(raw) {
		return json.RawMessage(`{}`)
	}
	return raw
}

func parseTime(s string) *time.Time {
	if s == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t
		}
	}
	return nil
}
