package servicerequest

import (
	"strings"

	"github.com/viant/homeservice/model/request"
)

// Result is the terminal output of the workflow.
type Result struct {
	RequestID         string         `json:"requestId"`
	Status            request.Status `json:"status"`
	Message           string         `json:"message"`
	ProfessionalName  string         `json:"professionalName,omitempty"`
	ConfirmedDate     string         `json:"confirmedDate,omitempty"`
	ConfirmedTimeSlot string         `json:"confirmedTimeSlot,omitempty"`
	RejectionReason   string         `json:"rejectionReason,omitempty"`
}

// NewResult templates the requester facing outcome of decision.
func NewResult(requestID string, decision *request.Decision, input *request.CreateInput) *Result {
	ret := &Result{RequestID: requestID, Status: decision.Status()}
	if !decision.Approved {
		ret.RejectionReason = decision.AdminNotes
		ret.Message = rejectedMessage(decision.AdminNotes)
		return ret
	}
	ret.ProfessionalName = decision.ProfessionalName
	ret.ConfirmedDate = decision.ConfirmedDate
	ret.ConfirmedTimeSlot = string(decision.ConfirmedTimeSlot)
	ret.Message = approvedMessage(decision, input)
	return ret
}

func approvedMessage(decision *request.Decision, input *request.CreateInput) string {
	slot := decision.ConfirmedTimeSlot
	if slot == "" {
		slot = request.TimeSlotMorning
	}
	builder := &strings.Builder{}
	builder.WriteString("Great news! Your service request has been approved.\n\n")
	builder.WriteString("**Appointment Details:**\n")
	builder.WriteString("- **Professional**: " + decision.ProfessionalName + "\n")
	builder.WriteString("- **Date**: " + decision.ConfirmedDate + "\n")
	builder.WriteString("- **Time**: " + slot.Label() + "\n")
	builder.WriteString("- **Service**: " + string(input.ServiceType) + "\n")
	builder.WriteString("- **Location**: " + input.PropertyAddress + "\n\n")
	if decision.AdminNotes != "" {
		builder.WriteString("**Note from admin**: " + decision.AdminNotes + "\n\n")
	}
	builder.WriteString("The professional will contact you to confirm the appointment. If you need to reschedule, please let me know!")
	return builder.String()
}

func rejectedMessage(notes string) string {
	builder := &strings.Builder{}
	builder.WriteString("I'm sorry, but your service request could not be approved at this time.\n\n")
	if notes != "" {
		builder.WriteString("**Reason**: " + notes + "\n\n")
	}
	builder.WriteString("Would you like me to help you submit a new request or find alternative solutions?")
	return builder.String()
}

// Map returns the result as workflow output.
func (r *Result) Map() map[string]interface{} {
	ret := map[string]interface{}{
		"requestId": r.RequestID,
		"status":    string(r.Status),
		"message":   r.Message,
	}
	if r.Status == request.StatusApproved {
		ret["professionalName"] = r.ProfessionalName
		ret["confirmedDate"] = r.ConfirmedDate
		ret["confirmedTimeSlot"] = r.ConfirmedTimeSlot
		return ret
	}
	if r.RejectionReason != "" {
		ret["rejectionReason"] = r.RejectionReason
	}
	return ret
}
