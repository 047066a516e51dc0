// Package attendee holds the normalized record handed to the enrichment engine.
package attendee

import (
	"strings"
)

const (
	// UnknownName is used when a record has no usable name or id.
	UnknownName = "Unknown"
	// UnknownDomain is the sentinel domain for emails without an "@host." segment.
	UnknownDomain = "unknown.com"
)

// Item is one attendee. Items are immutable values once built with New.
type Item struct {
	ID           string `json:"id"`
	FirstName    string `json:"first_name,omitempty"`
	LastName     string `json:"last_name,omitempty"`
	DisplayName  string `json:"display_name"`
	Organization string `json:"organization"`
	Email        string `json:"email"`
	Domain       string `json:"domain"`
}

// Row is a raw attendee row as produced by an ingestion adapter.
type Row struct {
	FirstName    string
	LastName     string
	Email        string
	Organization string
}

// New builds an Item from a raw row, trimming fields and deriving the fallbacks:
// display name and id default to "Unknown", organization defaults to the company
// segment of the email, and domain is derived from the email.
func New(r Row) Item {
	first := strings.TrimSpace(r.FirstName)
	last := strings.TrimSpace(r.LastName)
	email := strings.TrimSpace(r.Email)
	org := strings.TrimSpace(r.Organization)

	name := strings.TrimSpace(first + " " + last)
	if name == "" {
		name = UnknownName
	}

	domain := DomainFromEmail(email)
	if org == "" && domain != UnknownDomain {
		org = domain
	}

	id := strings.ToLower(email)
	if id == "" {
		id = UnknownName
	}

	return Item{
		ID:           id,
		FirstName:    first,
		LastName:     last,
		DisplayName:  name,
		Organization: org,
		Email:        email,
		Domain:       domain,
	}
}

// DomainFromEmail returns the text between "@" and the first "." after it
// ("x@acme.io" -> "acme"). It returns UnknownDomain when there is no such segment.
func DomainFromEmail(email string) string {
	at := strings.Index(email, "@")
	if at < 0 {
		return UnknownDomain
	}
	host := email[at+1:]
	dot := strings.Index(host, ".")
	if dot <= 0 {
		return UnknownDomain
	}
	return host[:dot]
}

// Dedupe collapses items that share an email (case-insensitive), keeping the most
// complete record. Items without an email are dropped. First-seen order is preserved.
func Dedupe(items []Item) []Item {
	order := make([]string, 0, len(items))
	byEmail := make(map[string]Item, len(items))

	for _, it := range items {
		key := strings.ToLower(strings.TrimSpace(it.Email))
		if key == "" {
			continue
		}
		prev, seen := byEmail[key]
		if !seen {
			order = append(order, key)
			byEmail[key] = it
			continue
		}
		if moreComplete(prev, it) {
			if it.Organization == "" {
				it.Organization = prev.Organization
			}
			byEmail[key] = it
		}
	}

	out := make([]Item, 0, len(order))
	for _, key := range order {
		out = append(out, byEmail[key])
	}
	return out
}

func moreComplete(prev, next Item) bool {
	if len(next.Organization) > len(prev.Organization) {
		return true
	}
	if prev.FirstName == "" && next.FirstName != "" {
		return true
	}
	return prev.LastName == "" && next.LastName != ""
}
