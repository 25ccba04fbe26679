package request

import (
	"strings"
	"time"
)

const (
	// DefaultProcessedBy is recorded when the decision does not name an operator.
	DefaultProcessedBy = "admin"
	// DefaultRejectionNotes is recorded when a rejection carries no notes.
	DefaultRejectionNotes = "Request rejected by admin"
)

// Decision is an operator's approval or rejection; it is both the resume
// payload of an awaiting workflow and the source of the direct record write.
type Decision struct {
	Approved          bool     `json:"approved"`
	ProfessionalID    string   `json:"professionalId,omitempty"`
	ProfessionalName  string   `json:"professionalName,omitempty"`
	ConfirmedDate     string   `json:"confirmedDate,omitempty"`
	ConfirmedTimeSlot TimeSlot `json:"confirmedTimeSlot,omitempty"`
	AdminNotes        string   `json:"adminNotes,omitempty"`
	ProcessedBy       string   `json:"processedBy,omitempty"`
}

// Init applies defaults.
func (d *Decision) Init() {
	if strings.TrimSpace(d.ProcessedBy) == "" {
		d.ProcessedBy = DefaultProcessedBy
	}
	if !d.Approved && strings.TrimSpace(d.AdminNotes) == "" {
		d.AdminNotes = DefaultRejectionNotes
	}
}

// Validate checks an approval names a professional, a date and a slot.
func (d *Decision) Validate() error {
	if d == nil {
		return invalid("decision", "is required")
	}
	if !d.Approved {
		return nil
	}
	if strings.TrimSpace(d.ProfessionalID) == "" {
		return invalid("professionalId", "is required for approval")
	}
	if d.ConfirmedDate == "" {
		return invalid("confirmedDate", "is required for approval")
	}
	if _, err := time.Parse(DateLayout, d.ConfirmedDate); err != nil {
		return invalid("confirmedDate", "must be YYYY-MM-DD")
	}
	if !d.ConfirmedTimeSlot.Valid() {
		return invalid("confirmedTimeSlot", "must be one of morning, afternoon, evening")
	}
	return nil
}

// Status returns the status the decision transitions a request to.
func (d *Decision) Status() Status {
	if d.Approved {
		return StatusApproved
	}
	return StatusRejected
}

// Update returns the conditional write applying the decision to a pending request.
func (d *Decision) Update() *Update {
	status := d.Status()
	pending := StatusPending
	ret := &Update{
		Status:      &status,
		ProcessedBy: StringPtr(d.ProcessedBy),
		WhenStatus:  &pending,
	}
	if d.AdminNotes != "" {
		ret.AdminNotes = StringPtr(d.AdminNotes)
	}
	if d.Approved {
		slot := d.ConfirmedTimeSlot
		ret.AssignedProfessionalID = StringPtr(d.ProfessionalID)
		ret.AssignedProfessionalName = StringPtr(d.ProfessionalName)
		ret.ConfirmedDate = StringPtr(d.ConfirmedDate)
		ret.ConfirmedTimeSlot = &slot
	}
	return ret
}

// AppliedTo returns true when r already carries this decision by the same operator.
func (d *Decision) AppliedTo(r *ServiceRequest) bool {
	if r == nil || r.Status != d.Status() {
		return false
	}
	if !equals(r.ProcessedBy, d.ProcessedBy) {
		return false
	}
	if d.AdminNotes != "" && !equals(r.AdminNotes, d.AdminNotes) {
		return false
	}
	if !d.Approved {
		return true
	}
	return equals(r.AssignedProfessionalID, d.ProfessionalID) &&
		equals(r.ConfirmedDate, d.ConfirmedDate) &&
		r.ConfirmedTimeSlot != nil && *r.ConfirmedTimeSlot == d.ConfirmedTimeSlot
}

// ResumeData returns the decision as a workflow resume payload.
func (d *Decision) ResumeData() map[string]interface{} {
	ret := map[string]interface{}{
		"approved":    d.Approved,
		"processedBy": d.ProcessedBy,
	}
	if d.AdminNotes != "" {
		ret["adminNotes"] = d.AdminNotes
	}
	if d.Approved {
		ret["professionalId"] = d.ProfessionalID
		ret["professionalName"] = d.ProfessionalName
		ret["confirmedDate"] = d.ConfirmedDate
		ret["confirmedTimeSlot"] = string(d.ConfirmedTimeSlot)
	}
	return ret
}

func equals(actual *string, expected string) bool {
	return actual != nil && *actual == expected
}
