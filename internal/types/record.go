package types

import "time"

// TimestampLayout is the ISO-8601 layout used for every persisted timestamp. Millisecond precision,
// always UTC, so string and time ordering agree.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// Record is one dapp directory entry. It is persisted as a whole under its slug.
// Slug is immutable once created. Description is markdown and is stored as-is.
// Tags and Chains are non-empty for any record that passed validation.
type Record struct {
	Slug        string   `json:"slug" yaml:"slug"`
	Name        string   `json:"name" yaml:"name"`
	Description string   `json:"description" yaml:"description"`
	Logo        string   `json:"logo" yaml:"logo"`
	Tags        []string `json:"tags" yaml:"tags"`
	Chains      []string `json:"chains" yaml:"chains"`
	Website     string   `json:"website" yaml:"website"`
	Twitter     string   `json:"twitter,omitempty" yaml:"twitter,omitempty"`
	GitHub      string   `json:"github,omitempty" yaml:"github,omitempty"`
	IsFeatured  bool     `json:"isFeatured" yaml:"isFeatured"`
	CreatedAt   string   `json:"createdAt" yaml:"createdAt"`
	UpdatedAt   string   `json:"updatedAt" yaml:"updatedAt"`
}

// RecordInput is the candidate payload submitted by a caller before validation. Slug and CreatedAt are
// optional: a missing slug is derived from Name, a missing CreatedAt is stamped on first write.
type RecordInput struct {
	Slug        string   `json:"slug,omitempty" yaml:"slug,omitempty"`
	Name        string   `json:"name" yaml:"name"`
	Description string   `json:"description" yaml:"description"`
	Logo        string   `json:"logo" yaml:"logo"`
	Tags        []string `json:"tags" yaml:"tags"`
	Chains      []string `json:"chains" yaml:"chains"`
	Website     string   `json:"website" yaml:"website"`
	Twitter     string   `json:"twitter,omitempty" yaml:"twitter,omitempty"`
	GitHub      string   `json:"github,omitempty" yaml:"github,omitempty"`
	IsFeatured  bool     `json:"isFeatured" yaml:"isFeatured"`
	CreatedAt   string   `json:"createdAt,omitempty" yaml:"createdAt,omitempty"`
}

// Stats is derived from a full scan, never stored.
type Stats struct {
	TotalApps       int    `json:"totalApps"`
	TotalChains     int    `json:"totalChains"`
	TotalCategories int    `json:"totalCategories"`
	LastUpdated     string `json:"lastUpdated"`
}

// Timestamp formats t in TimestampLayout.
func Timestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// ParseTimestamp parses a persisted timestamp. Anything unparsable yields the zero time so it sorts last.
func ParseTimestamp(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// ParseInputTimestamp accepts a caller-supplied timestamp: RFC 3339 with any precision or offset, or a bare
// date, which is taken as midnight UTC.
func ParseInputTimestamp(s string) (time.Time, bool) {
	for _, layout := range []string{time.RFC3339Nano, time.DateOnly} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}
