package timing

import "strings"

// ResolveDriver finds the id of driverName in evt. It returns the first run of
// digits in the key of the first string entry whose value contains the name.
// Matching is case-sensitive. Entries whose key has no digits are skipped.
func ResolveDriver(evt *RawEvent, driverName string) (DriverID, bool) {
	if driverName == "" {
		return "", false
	}
	for _, entry := range evt.Entries() {
		text, ok := entry.Text()
		if !ok || !strings.Contains(text, driverName) {
			continue
		}
		if id := firstDigits(entry.Key); id != "" {
			return DriverID(id), true
		}
	}
	return "", false
}

func firstDigits(s string) string {
	start := -1
	for i := 0; i < len(s); i++ {
		isDigit := s[i] >= '0' && s[i] <= '9'
		switch {
		case isDigit && start < 0:
			start = i
		case !isDigit && start >= 0:
			return s[start:i]
		}
	}
	if start >= 0 {
		return s[start:]
	}
	return ""
}
