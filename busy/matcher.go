/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package busy

// Payload is the part of a notification that is used for matching.
type Payload struct {
	URL       string
	Name      string
	Remaining int
}

// PayloadOf extracts the matching payload from BeginEvent or EndOneEvent.
// Tracker broadcasts events as values, so pointers to events are not recognized.
// It returns false for EndAllEvent (and any other event) since it carries nothing to match against.
func PayloadOf(e Event) (Payload, bool) {
	switch ev := e.(type) {
	case BeginEvent:
		return Payload{URL: ev.URL, Name: ev.Name}, true
	case EndOneEvent:
		return Payload{URL: ev.URL, Name: ev.Name, Remaining: ev.Remaining}, true
	}
	return Payload{}, false
}

// MatchCriteria is a filter a busy consumer is configured with. Empty string means the filter is not set.
type MatchCriteria struct {
	WhenURL  string `mapstructure:"whenUrl" json:"whenUrl,omitempty" yaml:"whenUrl,omitempty"`
	WhenName string `mapstructure:"whenName" json:"whenName,omitempty" yaml:"whenName,omitempty"`
}

// IsZero reports whether no filter is set.
func (c MatchCriteria) IsZero() bool {
	return c.WhenURL == "" && c.WhenName == ""
}

// IsBusyFor decides whether a notification applies to a consumer with the given criteria.
// The first applicable rule wins:
//  1. begin is true: any started request counts as busy for everyone;
//  2. URL filter is set: the payload URL must be equal to it;
//  3. name filter is set: the payload name must be equal to it;
//  4. otherwise, there must be no more outstanding requests.
func IsBusyFor(p Payload, begin bool, c MatchCriteria) bool {
	if begin {
		return true
	}
	if c.WhenURL != "" {
		return p.URL == c.WhenURL
	}
	if c.WhenName != "" {
		return p.Name == c.WhenName
	}
	return p.Remaining == 0
}
