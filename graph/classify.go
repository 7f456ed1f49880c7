package graph

import (
	"strings"

	"github.com/hazyhaar/uimap/fingerprint"
)

// Classify derives a state type and a human-readable id slug from a
// fingerprint. The slug feeds id allocation (V_<SLUG>); the type is a
// coarse heuristic and callers may override it with a hint.
func Classify(fp fingerprint.Fingerprint) (StateType, string) {
	pattern := fp.URLPattern
	slug := Slugify(pattern)
	lowTitle := strings.ToLower(fp.Title)

	landmarks := map[string]bool{}
	for _, l := range fp.Semantic.Landmarks {
		landmarks[l] = true
	}

	switch {
	case fp.Empty():
		return StateUnknown, slug

	case strings.Contains(pattern, "error") || strings.Contains(lowTitle, "error"):
		return StateError, "ERROR_" + slug

	case landmarks["form"] && len(fp.Functional.Inputs) > 0:
		return StateForm, slug

	case strings.Contains(pattern, "dashboard") || strings.Contains(pattern, "overview") ||
		strings.Contains(lowTitle, "dashboard") || strings.Contains(lowTitle, "overview"):
		return StateDashboard, slug

	case strings.Contains(pattern, "{id}"):
		return StateDetail, slug

	case looksLikeList(fp):
		return StateList, slug

	case len(fp.Semantic.Landmarks) == 0 && fp.Functional.Total() > 0:
		// Actionable surface without page landmarks: an in-page widget
		// (menu, dialog, accordion) rather than a navigable screen.
		return StateInteractive, slug

	default:
		return StateUnknown, slug
	}
}

// looksLikeList detects collection screens: an explicit "list" path
// segment, or a plural terminal segment with a link-dominated surface.
func looksLikeList(fp fingerprint.Fingerprint) bool {
	pattern := fp.URLPattern
	if strings.Contains(pattern, "list") {
		return true
	}
	segs := strings.Split(pattern, "/")
	last := segs[len(segs)-1]
	return strings.HasSuffix(last, "s") && last != "s" &&
		len(fp.Functional.Links) > len(fp.Functional.Inputs)
}

// Slugify turns a URL pattern into an uppercase id fragment:
// "device/{id}/config" -> "DEVICE_ID_CONFIG". Empty input -> "UNKNOWN".
func Slugify(pattern string) string {
	var b strings.Builder
	lastUnderscore := true // suppress leading underscore
	for _, r := range pattern {
		switch {
		case r >= 'a' && r <= 'z':
			b.WriteRune(r - 'a' + 'A')
			lastUnderscore = false
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastUnderscore = false
		default:
			if !lastUnderscore {
				b.WriteByte('_')
				lastUnderscore = true
			}
		}
	}
	slug := strings.TrimRight(b.String(), "_")
	if slug == "" {
		return "UNKNOWN"
	}
	return slug
}
