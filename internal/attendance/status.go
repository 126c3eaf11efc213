package attendance

import "fmt"

// MarkCode is the client-side attendance status for one cell. The values
// match the dashboard's select options; the empty string is an unset cell.
type MarkCode string

const (
	MarkUnset   MarkCode = ""
	MarkPresent MarkCode = "1"
	MarkHalfDay MarkCode = "0.5"
	MarkAbsent  MarkCode = "0"
)

// Backend wire statuses
const (
	WirePresent = "present"
	WireHalfDay = "half_day"
	WireAbsent  = "absent"
)

// Wire maps a mark code to the backend status enum. MarkUnset has no wire
// form; unset cells are never sent.
func (m MarkCode) Wire() (string, error) {
	switch m {
	case MarkPresent:
		return WirePresent, nil
	case MarkHalfDay:
		return WireHalfDay, nil
	case MarkAbsent:
		return WireAbsent, nil
	default:
		return "", fmt.Errorf("mark code %q has no backend status", string(m))
	}
}

// ParseWire maps a backend status back to its mark code. The mapping must
// round-trip losslessly with Wire.
func ParseWire(status string) (MarkCode, error) {
	switch status {
	case WirePresent:
		return MarkPresent, nil
	case WireHalfDay:
		return MarkHalfDay, nil
	case WireAbsent:
		return MarkAbsent, nil
	case "":
		return MarkUnset, nil
	default:
		return MarkUnset, fmt.Errorf("unknown backend status %q", status)
	}
}

// Valid reports whether m is one of the three settable statuses
func (m MarkCode) Valid() bool {
	return m == MarkPresent || m == MarkHalfDay || m == MarkAbsent
}
