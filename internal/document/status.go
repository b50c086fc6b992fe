package document

import "fmt"

// Status is the derived validity of a document. Higher values are worse.
type Status int

const (
	Valid Status = iota
	Stale
	Orphaned
)

var statusNames = [...]string{"valid", "stale", "orphaned"}

func (s Status) String() string {
	if s < Valid || s > Orphaned {
		return fmt.Sprintf("status(%d)", int(s))
	}
	return statusNames[s]
}

// MarshalText implements encoding.TextMarshaler.
func (s Status) MarshalText() ([]byte, error) {
	if s < Valid || s > Orphaned {
		return nil, fmt.Errorf("document: invalid status %d", int(s))
	}
	return []byte(statusNames[s]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Status) UnmarshalText(b []byte) error {
	for i, name := range statusNames {
		if name == string(b) {
			*s = Status(i)
			return nil
		}
	}
	return fmt.Errorf("document: unknown status %q", b)
}

// Worse returns the more severe of a and b. Orphaned outranks stale.
func Worse(a, b Status) Status {
	if b > a {
		return b
	}
	return a
}
