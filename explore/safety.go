package explore

import "strings"

// destructiveVerbs are substrings that mark an action target as unsafe
// to trigger during unattended exploration.
var destructiveVerbs = []string{
	"delete",
	"remove",
	"destroy",
	"erase",
	"wipe",
	"format",
	"reset",
	"purge",
	"drop",
	"uninstall",
	"deactivate",
	"logout",
	"log out",
	"sign out",
	"shutdown",
	"shut down",
	"reboot",
	"terminate",
	"cancel subscription",
	"unsubscribe",
}

// SafePredicate decides whether the engine may execute an action.
type SafePredicate func(Action) bool

// DefaultSafe rejects actions whose target name carries a destructive
// verb. It errs toward caution: a skipped rename button costs coverage,
// a clicked delete button costs data.
func DefaultSafe(act Action) bool {
	name := strings.ToLower(act.Target)
	for _, verb := range destructiveVerbs {
		if strings.Contains(name, verb) {
			return false
		}
	}
	return true
}
