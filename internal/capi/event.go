package capi

import (
	"time"

	"github.com/tbourn/go-lead-capture/internal/domain"
)

// EventNameLead is the standard event name reported for form submissions.
const EventNameLead = "Lead"

// UserData is the hashed identity tuple. A nil field is serialized as JSON
// null, which the platform treats as "not provided".
type UserData struct {
	FirstName *string `json:"fn"`
	LastName  *string `json:"ln"`
	Email     *string `json:"em"`
	Phone     *string `json:"ph"`
}

// CustomData carries plaintext context that is not used for matching.
type CustomData struct {
	PropertyAddress *string `json:"direccion_propiedad,omitempty"`
	Source          string  `json:"source"`
}

// Event is one server-side conversion event.
type Event struct {
	EventName  string     `json:"event_name"`
	EventTime  int64      `json:"event_time"` // Unix seconds
	UserData   UserData   `json:"user_data"`
	CustomData CustomData `json:"custom_data"`
}

// Batch is the request body accepted by the events edge.
type Batch struct {
	Data []Event `json:"data"`
}

// HashIdentity derives the hashed identity tuple from a submission.
func HashIdentity(s domain.LeadSubmission) UserData {
	return UserData{
		FirstName: Hash(s.FirstName),
		LastName:  Hash(s.LastName),
		Email:     Hash(s.Email),
		Phone:     Hash(s.Phone),
	}
}

// NewLeadEvent builds the "Lead" event for a submission. The event time is
// taken from now at one-second resolution; the address travels unhashed in
// custom_data together with the source tag.
func NewLeadEvent(s domain.LeadSubmission, source string, now time.Time) Event {
	return Event{
		EventName: EventNameLead,
		EventTime: now.Unix(),
		UserData:  HashIdentity(s),
		CustomData: CustomData{
			PropertyAddress: s.Address,
			Source:          source,
		},
	}
}
