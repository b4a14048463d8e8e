package openstates

import "encoding/json"

// ListResponse is the envelope of the Open States v3 listing endpoints.
type ListResponse struct {
	Results    []json.RawMessage `json:"results"`
	Pagination *Pagination       `json:"pagination"`
}

type Pagination struct {
	PerPage    int `json:"per_page"`
	Page       int `json:"page"`
	MaxPage    int `json:"max_page"`
	TotalItems int `json:"total_items"`
}

type BillRecord struct {
	ID                      string          `json:"id"`
	Identifier              string          `json:"identifier"`
	Title                   string          `json:"title"`
	Session                 string          `json:"session"`
	Jurisdiction            *Jurisdiction   `json:"jurisdiction"`
	FromOrganization        *Organization   `json:"from_organization"`
	Classification          []string        `json:"classification"`
	Subject                 []string        `json:"subject"`
	OpenStatesURL           string          `json:"openstates_url"`
	FirstActionDate         string          `json:"first_action_date"`
	LatestActionDate        string          `json:"latest_action_date"`
	LatestActionDescription string          `json:"latest_action_description"`
	UpdatedAt               string          `json:"updated_at"`
	Sponsorships            []Sponsorship   `json:"sponsorships"`
	Abstracts               []Abstract      `json:"abstracts"`
	Actions                 json.RawMessage `json:"actions"`

	raw json.RawMessage
}

// Raw returns the record exactly as upstream sent it.
func (b BillRecord) Raw() json.RawMessage { return b.raw }

type Jurisdiction struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Classification string `json:"classification"`
}

type Organization struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Classification string `json:"classification"`
}

type Sponsorship struct {
	ID             string         `json:"id"`
	Name           string         `json:"name"`
	EntityType     string         `json:"entity_type"`
	Primary        bool           `json:"primary"`
	Classification string         `json:"classification"`
	Person         *PersonSummary `json:"person"`
}

type PersonSummary struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Party string `json:"party"`
}

type Abstract struct {
	Abstract string `json:"abstract"`
	Note     string `json:"note"`
}

type PersonRecord struct {
	ID            string        `json:"id"`
	Name          string        `json:"name"`
	GivenName     string        `json:"given_name"`
	FamilyName    string        `json:"family_name"`
	Party         string        `json:"party"`
	Image         string        `json:"image"`
	Email         string        `json:"email"`
	OpenStatesURL string        `json:"openstates_url"`
	UpdatedAt     string        `json:"updated_at"`
	Jurisdiction  *Jurisdiction `json:"jurisdiction"`
	CurrentRole   *CurrentRole  `json:"current_role"`

	raw json.RawMessage
}

func (p PersonRecord) Raw() json.RawMessage { return p.raw }

type CurrentRole struct {
	Title             string `json:"title"`
	OrgClassification string `json:"org_classification"`
	District          any    `json:"district"`
	DivisionID        string `json:"division_id"`
}
