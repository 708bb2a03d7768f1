package provider

// Profile is a resolved member profile.
type Profile struct {
	ProviderID       string `json:"provider_id"`
	PublicIdentifier string `json:"public_identifier"`
	FirstName        string `json:"first_name"`
	LastName         string `json:"last_name"`
	Headline         string `json:"headline"`
	NetworkDistance  string `json:"network_distance"`
}

// IsFirstDegree reports whether the profile is already a relation of the
// querying account.
func (p Profile) IsFirstDegree() bool {
	return p.NetworkDistance == "FIRST_DEGREE"
}

// Relation is one entry in the account's relations list.
type Relation struct {
	ProviderID       string `json:"member_id"`
	PublicIdentifier string `json:"public_identifier"`
	FirstName        string `json:"first_name"`
	LastName         string `json:"last_name"`
	Headline         string `json:"headline"`
}

// RelationsPage is one page of the cursor-paginated relations listing.
type RelationsPage struct {
	Items  []Relation `json:"items"`
	Cursor string     `json:"cursor"`
}

// Invitation is a sent connection request as reported by the provider.
type Invitation struct {
	ID               string `json:"id"`
	ProviderID       string `json:"invited_user_id"`
	PublicIdentifier string `json:"invited_user_public_id"`
	Status           string `json:"status"`
}

// Chat is a conversation thread.
type Chat struct {
	ID          string   `json:"id"`
	AttendeeIDs []string `json:"attendee_provider_ids"`
}

// Webhook is a registered callback.
type Webhook struct {
	ID         string `json:"id"`
	RequestURL string `json:"request_url"`
	Source     string `json:"source"`
}

type profileResponse struct {
	ProviderID       string `json:"provider_id"`
	PublicIdentifier string `json:"public_identifier"`
	FirstName        string `json:"first_name"`
	LastName         string `json:"last_name"`
	Headline         string `json:"headline"`
	NetworkDistance  string `json:"network_distance"`
}

type relationsResponse struct {
	Items  []Relation `json:"items"`
	Cursor string     `json:"cursor"`
}

type invitationsResponse struct {
	Items []Invitation `json:"items"`
}

type chatsResponse struct {
	Items []Chat `json:"items"`
}

type chatStartedResponse struct {
	ChatID string `json:"chat_id"`
}

type webhooksResponse struct {
	Items []Webhook `json:"items"`
}

type createdResponse struct {
	ID string `json:"id"`
}
