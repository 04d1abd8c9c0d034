// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package dispatch

import (
	"strings"

	"github.com/pdiddy/answer-engine/internal/capability"
)

// defaultWhitelist is the built-in list of capabilities allowed to answer
// when no operator override is configured.
var defaultWhitelist = []string{
	capability.NameWeather,
	capability.NameCalendar,
	capability.NameHoliday,
	capability.NameBills,
	capability.NameMusic,
	capability.NameNews,
	capability.NameKnowledge,
	capability.NameWeb,
}

// ParseWhitelist splits a comma-separated operator override into an
// allow-list. An empty override selects the built-in default.
func ParseWhitelist(override string) []string {
	if strings.TrimSpace(override) == "" {
		return defaultWhitelist
	}
	var allow []string
	for _, part := range strings.Split(override, ",") {
		name := strings.TrimSpace(part)
		if name != "" {
			allow = append(allow, name)
		}
	}
	return allow
}

// EnforceWhitelist applies the allow-list policy gate after selection.
// Ambiguous outcomes and allowed winners pass through unchanged. A
// disallowed winner is downgraded to the first allowed positive-score
// candidate, else to the universal fallback when that is itself allowed;
// when nothing qualifies the original choice stands as a last resort. The
// returned diagnostics record any substitution.
func EnforceWhitelist(sel Selection, allow []string, fallbackName string) (Selection, map[string]any) {
	if sel.Special != "" || sel.Chosen == nil {
		return sel, nil
	}

	allowed := make(map[string]bool, len(allow))
	for _, name := range allow {
		allowed[name] = true
	}

	if allowed[sel.Chosen.Name] {
		return sel, nil
	}

	blocked := sel.Chosen.Name
	for i := range sel.Candidates {
		c := &sel.Candidates[i]
		if allowed[c.Name] && c.Score > 0 {
			return Selection{Candidates: sel.Candidates, Chosen: c}, map[string]any{
				"blocked":             blocked,
				"chosen_by_whitelist": c.Name,
			}
		}
	}

	if allowed[fallbackName] {
		for i := range sel.Candidates {
			c := &sel.Candidates[i]
			if c.Name == fallbackName {
				return Selection{Candidates: sel.Candidates, Chosen: c}, map[string]any{
					"blocked":             blocked,
					"chosen_by_whitelist": fallbackName,
				}
			}
		}
	}

	// Nothing in the list qualifies; surface the original choice.
	return sel, nil
}
