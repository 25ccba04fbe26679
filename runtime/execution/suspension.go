package execution

import "errors"

// Suspension is returned by an executor that must wait for external input.
type Suspension struct {
	StepID  string
	Reason  string
	Payload map[string]interface{}
}

func (s *Suspension) Error() string {
	return "step " + s.StepID + " suspended: " + s.Reason
}

// AsSuspension returns the suspension carried by err, if any.
func AsSuspension(err error) (*Suspension, bool) {
	var ret *Suspension
	if errors.As(err, &ret) {
		return ret, true
	}
	return nil, false
}
