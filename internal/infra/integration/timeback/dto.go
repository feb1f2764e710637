package timeback

// Organization every student is rostered under.
const (
	OrgHref      = "https://timeback.com/orgs/84105a1c-29e5-44fc-a497-36a7c61860c5"
	OrgSourcedID = "84105a1c-29e5-44fc-a497-36a7c61860c5"
)

// AccountPayload is the body of the idempotent student PUT. Field names and
// enumerated values are fixed platform contracts, not ours to rename.
type AccountPayload struct {
	Student Student `json:"student"`
}

type Student struct {
	SourcedID          string        `json:"sourcedId"`
	Email              string        `json:"email"`
	Username           string        `json:"username"`
	Status             string        `json:"status"`      // "active"
	EnabledUser        string        `json:"enabledUser"` // the platform wants the string "true"
	GivenName          string        `json:"givenName"`
	FamilyName         string        `json:"familyName"`
	PreferredFirstName string        `json:"preferredFirstName"`
	Grades             []string      `json:"grades"`
	PrimaryOrg         OrgRef        `json:"primaryOrg"`
	Demographics       *Demographics `json:"demographics,omitempty"`
}

type OrgRef struct {
	Href      string `json:"href"`
	SourcedID string `json:"sourcedId"`
	Type      string `json:"type"` // "org"
}

type Demographics struct {
	BirthDate string `json:"birthDate"` // YYYY-MM-DD
}

// ProfilePayload assigns a learning app or assessment profile to a user.
type ProfilePayload struct {
	ProfileID     string `json:"profileId"`
	ApplicationID string `json:"applicationId"`
	ProfileType   string `json:"profileType"` // "learning_app_profile"
	VendorID      string `json:"vendorId"`    // "alpha"
	Description   string `json:"description"`
}

type Application struct {
	SourcedID string `json:"sourcedId"`
	Name      string `json:"name"`
}

type applicationsResponse struct {
	Applications []Application `json:"applications"`
	Pagination   struct {
		HasMore bool `json:"hasMore"`
	} `json:"pagination"`
}

type studentResponse struct {
	Student struct {
		SourcedID string `json:"sourcedId"`
	} `json:"student"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}
