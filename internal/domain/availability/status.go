package availability

import (
	"errors"
	"fmt"

	"lodging/internal/domain/calendar"
)

var ErrUnknownStatus = errors.New("availability: unknown status")

// Status is the resolved state of one room-night.
type Status uint8

const (
	StatusAvailable Status = iota + 1
	StatusMaintenance
	StatusBlocked
	StatusReserved
)

var statusNames = map[Status]string{
	StatusAvailable:   "available",
	StatusMaintenance: "maintenance",
	StatusBlocked:     "blocked",
	StatusReserved:    "reserved",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Status(%d)", uint8(s))
}

func (s Status) MarshalText() ([]byte, error) {
	name, ok := statusNames[s]
	if !ok {
		return nil, ErrUnknownStatus
	}
	return []byte(name), nil
}

func (s *Status) UnmarshalText(text []byte) error {
	for k, v := range statusNames {
		if v == string(text) {
			*s = k
			return nil
		}
	}
	return ErrUnknownStatus
}

// FromManual maps a stored calendar status onto the resolved status.
func FromManual(m calendar.ManualStatus) Status {
	switch m {
	case calendar.StatusMaintenance:
		return StatusMaintenance
	case calendar.StatusBlocked:
		return StatusBlocked
	default:
		return StatusAvailable
	}
}
