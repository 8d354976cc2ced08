// Package platform holds the registry of known applicant-tracking systems and
// the narrower, higher-confidence selectors tried before the generic locator.
package platform

import "strings"

// Platform is one known ATS and its resume-upload selector list, tried in order.
type Platform struct {
	Name string
	// Hosts are hostname substrings that identify the platform.
	Hosts []string
	// InputSelectors target the platform's resume file input directly.
	InputSelectors []string
}

// Registry dispatches platform adapters by hostname substring match. It
// exists as an extension point: adding platform-specific logic must never
// require touching the generic locator, and an unmatched host falls through
// to the generic flow with no penalty.
type Registry struct {
	platforms []Platform
}

// NewRegistry creates a registry over the given platforms.
func NewRegistry(platforms []Platform) *Registry {
	return &Registry{platforms: platforms}
}

// DefaultRegistry returns the built-in ATS registry.
func DefaultRegistry() *Registry {
	return NewRegistry([]Platform{
		{
			Name:  "greenhouse",
			Hosts: []string{"greenhouse.io", "boards.greenhouse"},
			InputSelectors: []string{
				`input[type="file"][name*="resume"]`,
				`#resume_fieldset input[type="file"]`,
				`input[data-source="attach"]`,
			},
		},
		{
			Name:  "lever",
			Hosts: []string{"lever.co", "jobs.lever"},
			InputSelectors: []string{
				`input[name="resume"]`,
				`.application-question input[type="file"]`,
			},
		},
		{
			Name:  "workday",
			Hosts: []string{"myworkdayjobs.com", "workday.com"},
			InputSelectors: []string{
				`input[data-automation-id*="file-upload"]`,
				`input[data-automation-id*="resume"]`,
			},
		},
		{
			Name:  "ashby",
			Hosts: []string{"ashbyhq.com"},
			InputSelectors: []string{
				`input[id*="resume"]`,
				`input[type="file"]`,
			},
		},
		{
			Name:  "icims",
			Hosts: []string{"icims.com"},
			InputSelectors: []string{
				`input[type="file"][id*="Resume"]`,
				`input[type="file"]`,
			},
		},
	})
}

// Match returns the platform whose host substring matches, or nil.
func (r *Registry) Match(host string) *Platform {
	host = strings.ToLower(host)
	for i := range r.platforms {
		for _, h := range r.platforms[i].Hosts {
			if strings.Contains(host, h) {
				return &r.platforms[i]
			}
		}
	}
	return nil
}
