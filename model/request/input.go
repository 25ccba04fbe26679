package request

import (
	"strings"
	"time"
)

// CreateInput holds caller supplied fields of a new request; status is always pending.
type CreateInput struct {
	UserID            string      `json:"userId"`
	UserName          string      `json:"userName"`
	UserEmail         string      `json:"userEmail"`
	UserPhone         string      `json:"userPhone,omitempty"`
	ConversationID    string      `json:"conversationId,omitempty"`
	PropertyID        string      `json:"propertyId"`
	PropertyAddress   string      `json:"propertyAddress"`
	ServiceType       ServiceType `json:"serviceType"`
	Issue             string      `json:"issue"`
	Urgency           Urgency     `json:"urgency"`
	PreferredDate     string      `json:"preferredDate,omitempty"`
	PreferredTimeSlot TimeSlot    `json:"preferredTimeSlot,omitempty"`
	WorkflowRunID     string      `json:"workflowRunId,omitempty"`
}

// Validate checks the requester id and enumerations; descriptive fields are free text.
func (in *CreateInput) Validate() error {
	if in == nil {
		return invalid("input", "is required")
	}
	if strings.TrimSpace(in.UserID) == "" {
		return invalid("userId", "is required")
	}
	if !in.ServiceType.Valid() {
		return invalid("serviceType", "must be one of plumbing, electrical, hvac, general")
	}
	if !in.Urgency.Valid() {
		return invalid("urgency", "must be one of low, medium, high, emergency")
	}
	if in.PreferredDate != "" {
		if _, err := time.Parse(DateLayout, in.PreferredDate); err != nil {
			return invalid("preferredDate", "must be YYYY-MM-DD")
		}
	}
	if in.PreferredTimeSlot != "" && !in.PreferredTimeSlot.Valid() {
		return invalid("preferredTimeSlot", "must be one of morning, afternoon, evening")
	}
	return nil
}

// NewRequest builds a pending record from the input.
func (in *CreateInput) NewRequest(id string, now time.Time) *ServiceRequest {
	ret := &ServiceRequest{
		ID:                id,
		UserID:            in.UserID,
		UserName:          in.UserName,
		UserEmail:         in.UserEmail,
		UserPhone:         in.UserPhone,
		ConversationID:    in.ConversationID,
		PropertyID:        in.PropertyID,
		PropertyAddress:   in.PropertyAddress,
		ServiceType:       in.ServiceType,
		Issue:             in.Issue,
		Urgency:           in.Urgency,
		PreferredDate:     in.PreferredDate,
		PreferredTimeSlot: in.PreferredTimeSlot,
		Status:            StatusPending,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if in.WorkflowRunID != "" {
		ret.WorkflowRunID = StringPtr(in.WorkflowRunID)
	}
	return ret
}

// Update is a sparse set of changes; nil fields are left untouched.
type Update struct {
	Status                   *Status
	WorkflowRunID            *string
	AssignedProfessionalID   *string
	AssignedProfessionalName *string
	ConfirmedDate            *string
	ConfirmedTimeSlot        *TimeSlot
	AdminNotes               *string
	ProcessedBy              *string

	// WhenStatus, when set, makes the update conditional on the current status.
	WhenStatus *Status
}

// Allowed returns false when the precondition does not hold for r.
func (u *Update) Allowed(r *ServiceRequest) bool {
	return u.WhenStatus == nil || r.Status == *u.WhenStatus
}

// Apply merges supplied fields into r; supplying ProcessedBy stamps ProcessedAt.
func (u *Update) Apply(r *ServiceRequest, now time.Time) {
	if u.Status != nil {
		r.Status = *u.Status
	}
	if u.WorkflowRunID != nil {
		r.WorkflowRunID = cloneString(u.WorkflowRunID)
	}
	if u.AssignedProfessionalID != nil {
		r.AssignedProfessionalID = cloneString(u.AssignedProfessionalID)
	}
	if u.AssignedProfessionalName != nil {
		r.AssignedProfessionalName = cloneString(u.AssignedProfessionalName)
	}
	if u.ConfirmedDate != nil {
		r.ConfirmedDate = cloneString(u.ConfirmedDate)
	}
	if u.ConfirmedTimeSlot != nil {
		slot := *u.ConfirmedTimeSlot
		r.ConfirmedTimeSlot = &slot
	}
	if u.AdminNotes != nil {
		r.AdminNotes = cloneString(u.AdminNotes)
	}
	if u.ProcessedBy != nil {
		r.ProcessedBy = cloneString(u.ProcessedBy)
		at := now
		r.ProcessedAt = &at
	}
	r.UpdatedAt = now
}
