package request

import (
	"time"
)

// Status represents service request lifecycle state.
type Status string

const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// Statuses lists every status in display order.
var Statuses = []Status{StatusPending, StatusApproved, StatusRejected, StatusCompleted, StatusCancelled}

// Valid returns true for known statuses.
func (s Status) Valid() bool {
	for _, candidate := range Statuses {
		if s == candidate {
			return true
		}
	}
	return false
}

// ServiceType represents requested trade.
type ServiceType string

const (
	ServiceTypePlumbing   ServiceType = "plumbing"
	ServiceTypeElectrical ServiceType = "electrical"
	ServiceTypeHVAC       ServiceType = "hvac"
	ServiceTypeGeneral    ServiceType = "general"
)

// Valid returns true for known service types.
func (t ServiceType) Valid() bool {
	switch t {
	case ServiceTypePlumbing, ServiceTypeElectrical, ServiceTypeHVAC, ServiceTypeGeneral:
		return true
	}
	return false
}

// Urgency represents how soon the requester needs help.
type Urgency string

const (
	UrgencyLow       Urgency = "low"
	UrgencyMedium    Urgency = "medium"
	UrgencyHigh      Urgency = "high"
	UrgencyEmergency Urgency = "emergency"
)

// Valid returns true for known urgencies.
func (u Urgency) Valid() bool {
	switch u {
	case UrgencyLow, UrgencyMedium, UrgencyHigh, UrgencyEmergency:
		return true
	}
	return false
}

// TimeSlot represents part of the day a visit is scheduled for.
type TimeSlot string

const (
	TimeSlotMorning   TimeSlot = "morning"
	TimeSlotAfternoon TimeSlot = "afternoon"
	TimeSlotEvening   TimeSlot = "evening"
)

// Valid returns true for known time slots.
func (s TimeSlot) Valid() bool {
	switch s {
	case TimeSlotMorning, TimeSlotAfternoon, TimeSlotEvening:
		return true
	}
	return false
}

// Label returns the human readable slot window.
func (s TimeSlot) Label() string {
	switch s {
	case TimeSlotMorning:
		return "Morning (9AM - 12PM)"
	case TimeSlotAfternoon:
		return "Afternoon (12PM - 5PM)"
	case TimeSlotEvening:
		return "Evening (5PM - 8PM)"
	}
	return string(s)
}

// DateLayout is the calendar date format used by preferred and confirmed dates.
const DateLayout = "2006-01-02"

// ServiceRequest is the persisted record of one homeowner request.
type ServiceRequest struct {
	ID             string `json:"id"`
	UserID         string `json:"userId"`
	UserName       string `json:"userName"`
	UserEmail      string `json:"userEmail"`
	UserPhone      string `json:"userPhone,omitempty"`
	ConversationID string `json:"conversationId,omitempty"`

	PropertyID      string `json:"propertyId"`
	PropertyAddress string `json:"propertyAddress"`

	ServiceType       ServiceType `json:"serviceType"`
	Issue             string      `json:"issue"`
	Urgency           Urgency     `json:"urgency"`
	PreferredDate     string      `json:"preferredDate,omitempty"`
	PreferredTimeSlot TimeSlot    `json:"preferredTimeSlot,omitempty"`

	Status        Status  `json:"status"`
	WorkflowRunID *string `json:"workflowRunId"`

	AssignedProfessionalID   *string    `json:"assignedProfessionalId"`
	AssignedProfessionalName *string    `json:"assignedProfessionalName"`
	ConfirmedDate            *string    `json:"confirmedDate"`
	ConfirmedTimeSlot        *TimeSlot  `json:"confirmedTimeSlot"`
	AdminNotes               *string    `json:"adminNotes"`
	ProcessedBy              *string    `json:"processedBy"`
	ProcessedAt              *time.Time `json:"processedAt"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// RunID returns the linked workflow execution id or empty.
func (r *ServiceRequest) RunID() string {
	if r.WorkflowRunID == nil {
		return ""
	}
	return *r.WorkflowRunID
}

// Clone returns a deep copy.
func (r *ServiceRequest) Clone() *ServiceRequest {
	if r == nil {
		return nil
	}
	clone := *r
	clone.WorkflowRunID = cloneString(r.WorkflowRunID)
	clone.AssignedProfessionalID = cloneString(r.AssignedProfessionalID)
	clone.AssignedProfessionalName = cloneString(r.AssignedProfessionalName)
	clone.ConfirmedDate = cloneString(r.ConfirmedDate)
	clone.AdminNotes = cloneString(r.AdminNotes)
	clone.ProcessedBy = cloneString(r.ProcessedBy)
	if r.ConfirmedTimeSlot != nil {
		slot := *r.ConfirmedTimeSlot
		clone.ConfirmedTimeSlot = &slot
	}
	if r.ProcessedAt != nil {
		at := *r.ProcessedAt
		clone.ProcessedAt = &at
	}
	return &clone
}

// IsPending returns true while the request awaits a decision.
func (r *ServiceRequest) IsPending() bool {
	return r.Status == StatusPending
}

// View returns the narrowed projection polled by the requester.
func (r *ServiceRequest) View() *StatusView {
	if r == nil {
		return nil
	}
	return &StatusView{
		ID:                       r.ID,
		Status:                   r.Status,
		ServiceType:              r.ServiceType,
		Issue:                    r.Issue,
		AssignedProfessionalName: cloneString(r.AssignedProfessionalName),
		ConfirmedDate:            cloneString(r.ConfirmedDate),
		ConfirmedTimeSlot:        r.ConfirmedTimeSlot,
		AdminNotes:               cloneString(r.AdminNotes),
	}
}

// StatusView is the requester facing projection of a ServiceRequest.
type StatusView struct {
	ID                       string      `json:"id"`
	Status                   Status      `json:"status"`
	ServiceType              ServiceType `json:"serviceType"`
	Issue                    string      `json:"issue"`
	AssignedProfessionalName *string     `json:"assignedProfessionalName"`
	ConfirmedDate            *string     `json:"confirmedDate"`
	ConfirmedTimeSlot        *TimeSlot   `json:"confirmedTimeSlot"`
	AdminNotes               *string     `json:"adminNotes"`
}

// Counts holds number of requests per status.
type Counts map[Status]int

// NewCounts returns counts with every status zero filled.
func NewCounts() Counts {
	ret := Counts{}
	for _, status := range Statuses {
		ret[status] = 0
	}
	return ret
}

// Total returns sum of all counts.
func (c Counts) Total() int {
	total := 0
	for _, v := range c {
		total += v
	}
	return total
}

// Filter narrows List results; zero Limit means no limit.
type Filter struct {
	Status Status
	UserID string
	Limit  int
	Offset int
}

// Matches returns true when r satisfies status and user criteria.
func (f *Filter) Matches(r *ServiceRequest) bool {
	if f == nil {
		return true
	}
	if f.Status != "" && r.Status != f.Status {
		return false
	}
	if f.UserID != "" && r.UserID != f.UserID {
		return false
	}
	return true
}

// StringPtr returns pointer to s.
func StringPtr(s string) *string { return &s }

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
