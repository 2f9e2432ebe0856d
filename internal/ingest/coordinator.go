package ingest

import "strings"

// Coordinator is the parsed form of a project's free-text coordinator
// field, formatted in the source data as "Organization Name, Country".
type Coordinator struct {
	Raw     string
	Org     string
	Country string
}

// ParseCoordinator splits the coordinator string on its LAST comma, so
// organization names containing commas stay intact. The organization is
// uppercased to line up with participants.legal_name. A value without a
// comma keeps the raw text and leaves Org and Country unset.
func ParseCoordinator(raw string) Coordinator {
	c := Coordinator{Raw: raw}
	if raw == "" || !strings.Contains(raw, ",") {
		return c
	}

	idx := strings.LastIndex(raw, ",")
	c.Org = strings.ToUpper(strings.TrimSpace(raw[:idx]))
	c.Country = strings.TrimSpace(raw[idx+1:])
	return c
}
