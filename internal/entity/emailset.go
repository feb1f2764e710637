package entity

import "strings"

// EmailSet is a case-insensitive email membership set, used for the
// existing-account and blacklist checks.
type EmailSet map[string]struct{}

func NewEmailSet(emails ...string) EmailSet {
	s := make(EmailSet, len(emails))
	for _, e := range emails {
		s.Add(e)
	}
	return s
}

func (s EmailSet) Add(email string) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return
	}
	s[email] = struct{}{}
}

func (s EmailSet) Has(email string) bool {
	_, ok := s[strings.ToLower(strings.TrimSpace(email))]
	return ok
}
