package idgen

import (
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/viant/homeservice/internal/clock"
)

// NewFunc returns a new globally unique identifier. Tests may replace it.
var NewFunc = func() string { return uuid.New().String() }

// New returns a new globally unique identifier as string.
func New() string { return NewFunc() }

// RequestIDFunc produces service request identifiers. Tests may replace it.
var RequestIDFunc = newRequestID

// NewRequestID returns a human readable request id, e.g. REQ-LZ3K9Q2A-X7F2.
func NewRequestID() string { return RequestIDFunc() }

func newRequestID() string {
	millis := clock.Now().UnixMilli()
	id := uuid.New()
	var suffix uint32
	for _, b := range id[:4] {
		suffix = suffix<<8 | uint32(b)
	}
	random := strconv.FormatUint(uint64(suffix%(36*36*36*36)), 36)
	for len(random) < 4 {
		random = "0" + random
	}
	return "REQ-" + strings.ToUpper(strconv.FormatInt(millis, 36)) + "-" + strings.ToUpper(random)
}
