package contract

// ExtractionMethod names the tier that produced a contact record. Recorded on
// every extraction event for cost auditing.
type ExtractionMethod string

const (
	MethodRegex ExtractionMethod = "regex"
	MethodLLM   ExtractionMethod = "llm"
)

// SourceMessageBody marks contact info that was pulled out of free text on a
// fresh turn rather than handed over in the structured payload or a resume.
const SourceMessageBody = "message_body"

// ContactRecord holds extracted contact fields. An empty string means the field
// is absent; both fields absent at once is a valid outcome, not an error.
// A present Phone is always canonical (+1-NNN-NNN-NNNN); a present Email always
// carries exactly one "@" and a dotted domain.
type ContactRecord struct {
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

func (r ContactRecord) IsEmpty() bool {
	return r.Email == "" && r.Phone == ""
}

// ExtractionResult is a ContactRecord tagged with the tier that produced it.
// It only exists as a return value; persistence folds it into an event.
type ExtractionResult struct {
	ContactRecord
	Method ExtractionMethod `json:"method"`
}

// InboundPayload is one inbound message as handed over by the transport layer.
// Email/Phone are structured fields the caller already trusts; Body is free text.
type InboundPayload struct {
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
	Body  string `json:"body,omitempty"`
}

func (p InboundPayload) HasContact() bool {
	return p.Email != "" || p.Phone != ""
}

// RouterOutcome is returned to the broader conversation pipeline after an
// inbound message has been routed. Resumed reports that the turn consumed a
// waiting-for-contact checkpoint; NeedsContactInfo that the session is now
// paused until the user supplies contact details.
type RouterOutcome struct {
	SessionID        string           `json:"session_id"`
	Email            string           `json:"email,omitempty"`
	Phone            string           `json:"phone,omitempty"`
	ExtractionMethod ExtractionMethod `json:"extraction_method,omitempty"`
	Resumed          bool             `json:"resumed"`
	NeedsContactInfo bool             `json:"needs_contact_info"`
	EventLogged      bool             `json:"event_logged"`
}
