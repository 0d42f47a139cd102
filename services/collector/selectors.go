package collector

import (
	"strings"
	"time"

	"nepwatch-backend/lib/textutil"
)

// Selectors holds every DOM address the collector touches. The lists
// are ranked; probing stops at the first visible match. Markup drift on
// the remote site is fixed here, not in control flow.
type Selectors struct {
	// substrings of the current URL that indicate a login redirect
	LoginURLMarkers []string
	// any of these visible means an unauthenticated login form
	LoginMarkers []string

	EmailInputs    []string
	PasswordInputs []string
	SubmitButtons  []string
	// button captions tried when no explicit submit control matches
	SubmitTexts []string

	// visible only on the authenticated dashboard
	DashboardMarker string

	// precise structural path to the instantaneous power value
	PowerValueXPath string
	// label/value pair classes used by the fallback scan
	Label string
	Value string

	// normalized label substrings that identify the power metric
	PowerLabels []string
	// normalized label substrings that must never match (energy totals)
	EnergyLabels []string
}

func DefaultSelectors() Selectors {
	return Selectors{
		LoginURLMarkers: []string{"redirect=", "login"},
		LoginMarkers: []string{
			"#form_item_account",
			"#form_item_username",
			"#form_item_email",
			"input[type='email']",
			"input[name*='email' i]",
			"input[id*='email' i]",
			"input[name*='account' i]",
			"input[id*='account' i]",
			"input[placeholder*='email' i]",
			"input[placeholder*='e-mail' i]",
			"input[type='password']",
		},
		EmailInputs: []string{
			"#form_item_account",
			"#form_item_username",
			"#form_item_email",
			"input[type='email']",
			"input[name*='email' i]",
			"input[id*='email' i]",
			"input[placeholder*='email' i]",
			"input[placeholder*='e-mail' i]",
			"input[name*='account' i]",
			"input[id*='account' i]",
		},
		PasswordInputs: []string{
			"#form_item_password",
			"input[type='password']",
			"input[name*='password' i]",
			"input[id*='password' i]",
		},
		SubmitButtons: []string{
			"button[type='submit']",
		},
		SubmitTexts:     []string{"Login", "Entrar", "Sign in"},
		DashboardMarker: ".head-bar",
		PowerValueXPath: "(//div[contains(concat(' ',normalize-space(@class),' '),' main-box ')]" +
			"//div[contains(concat(' ',normalize-space(@class),' '),' statistics-box ')]" +
			"//div[contains(concat(' ',normalize-space(@class),' '),' static-item ')])[1]" +
			"//div[contains(concat(' ',normalize-space(@class),' '),' item-2 ')" +
			" and .//div[contains(concat(' ',normalize-space(@class),' '),' value ')]][1]" +
			"//div[contains(concat(' ',normalize-space(@class),' '),' value ')]",
		Label:        ".label",
		Value:        ".value",
		PowerLabels:  []string{"potência", "power(w)"},
		EnergyLabels: []string{"kwh"},
	}
}

// MatchesPowerLabel decides whether a scanned label denotes the
// instantaneous power metric. Energy totals (kWh) must never match,
// even when they also mention power.
func (s Selectors) MatchesPowerLabel(label string) bool {
	if textutil.MatchLabel(label, s.EnergyLabels) {
		return false
	}
	if textutil.MatchLabel(label, s.PowerLabels) {
		return true
	}
	normalized := textutil.NormalizeLabel(label)
	return strings.Contains(normalized, "power") && strings.Contains(normalized, "(w)")
}

type Timeouts struct {
	// page navigation
	Navigate time.Duration
	// wait for either a login or dashboard marker after navigating
	Marker time.Duration
	// structural power-value lookup
	PowerValue time.Duration
	// post-login navigation onto the dashboard route
	PostLoginNav time.Duration
	// dashboard marker visibility after login
	PostLoginMarker time.Duration
}

func DefaultTimeouts() Timeouts {
	return Timeouts{
		Navigate:        30 * time.Second,
		Marker:          20 * time.Second,
		PowerValue:      20 * time.Second,
		PostLoginNav:    60 * time.Second,
		PostLoginMarker: 30 * time.Second,
	}
}
