package command

import "strings"

// AppFilter gates the whole engine by focused application id.
// The two variants are Allow and Deny.
type AppFilter interface {
	Permits(appID string) bool
}

// Allow permits only the listed applications. An empty list permits all.
type Allow []string

func (a Allow) Permits(appID string) bool {
	if len(a) == 0 {
		return true
	}
	return contains(a, appID)
}

// Deny permits everything except the listed applications.
type Deny []string

func (d Deny) Permits(appID string) bool { return !contains(d, appID) }

// NewAppFilter builds the variant named by listType ("allow" or "block"/"deny").
func NewAppFilter(listType string, apps []string) AppFilter {
	switch strings.ToLower(strings.TrimSpace(listType)) {
	case "allow", "allowlist", "white":
		return Allow(apps)
	default:
		return Deny(apps)
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
