package axdriver

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"

	"github.com/hazyhaar/uimap/explore"
	"github.com/hazyhaar/uimap/fingerprint"
	"github.com/hazyhaar/uimap/graph"
)

// clickRoles interact with a single activation.
var clickRoles = map[string]bool{
	"button":   true,
	"link":     true,
	"menuitem": true,
	"tab":      true,
	"checkbox": true,
	"radio":    true,
	"switch":   true,
}

// fillRoles accept typed text.
var fillRoles = map[string]bool{
	"textbox":    true,
	"searchbox":  true,
	"combobox":   true,
	"spinbutton": true,
}

// ListCandidateActions enumerates interactions from the snapshot tree in
// document order: stable across captures of the same page, which keeps
// exploration runs reproducible.
func (d *Driver) ListCandidateActions(snap *fingerprint.Snapshot) []explore.Action {
	return enumerate(snap, d.cfg.FillValue)
}

func enumerate(snap *fingerprint.Snapshot, fillValue string) []explore.Action {
	if snap == nil || snap.Root == nil {
		return nil
	}
	var acts []explore.Action
	seen := map[string]bool{}

	var walk func(*fingerprint.Node)
	walk = func(n *fingerprint.Node) {
		if n.Disabled == nil || !*n.Disabled {
			switch {
			case clickRoles[n.Role] && n.Name != "":
				key := "click\x1f" + n.Name
				if !seen[key] {
					seen[key] = true
					acts = append(acts, explore.Action{
						Type:   graph.ActionClick,
						Target: n.Name,
					})
				}
			case fillRoles[n.Role] && n.Name != "":
				key := "fill\x1f" + n.Name
				if !seen[key] {
					seen[key] = true
					v := fillValue
					acts = append(acts, explore.Action{
						Type:   graph.ActionFill,
						Target: n.Name,
						Value:  &v,
					})
				}
			}
		}
		for _, c := range n.Children {
			walk(c)
		}
	}
	walk(snap.Root)
	return acts
}

// Execute performs one action against the live page and captures the
// outcome. Missing elements and interaction failures are recoverable.
func (d *Driver) Execute(ctx context.Context, act explore.Action) (*fingerprint.Snapshot, error) {
	actCtx, cancel := context.WithTimeout(ctx, d.cfg.ActionTimeout)
	defer cancel()
	page := d.page.Context(actCtx)

	switch act.Type {
	case graph.ActionClick, graph.ActionSubmit:
		if err := d.click(page, act.Target); err != nil {
			return nil, &explore.DriverError{Op: "execute", Err: err}
		}
	case graph.ActionFill:
		value := d.cfg.FillValue
		if act.Value != nil {
			value = *act.Value
		}
		if err := d.fill(page, act.Target, value); err != nil {
			return nil, &explore.DriverError{Op: "execute", Err: err}
		}
	case graph.ActionNavigate:
		return d.Navigate(ctx, act.Target)
	default:
		return nil, &explore.DriverError{Op: "execute", Err: fmt.Errorf("unsupported action type %q", act.Type)}
	}

	// Client-side transitions fire no load event; a settle pause is the
	// only reliable barrier.
	d.settle()
	return d.CaptureSnapshot(ctx)
}

func (d *Driver) click(page *rod.Page, name string) error {
	el, err := d.findClickable(page, name)
	if err != nil {
		return fmt.Errorf("locate %q: %w", name, err)
	}
	if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return fmt.Errorf("click %q: %w", name, err)
	}
	return nil
}

func (d *Driver) fill(page *rod.Page, name, value string) error {
	sel := strings.Join([]string{
		attrSelector("input", "placeholder", name),
		attrSelector("input", "name", name),
		attrSelector("input", "aria-label", name),
		attrSelector("textarea", "placeholder", name),
		attrSelector("textarea", "name", name),
		attrSelector("select", "name", name),
	}, ", ")
	el, err := page.Element(sel)
	if err != nil {
		return fmt.Errorf("locate input %q: %w", name, err)
	}
	if err := el.Input(value); err != nil {
		return fmt.Errorf("fill %q: %w", name, err)
	}
	return nil
}

// findClickable tries text match first (buttons and links name
// themselves by content), then aria-label for icon-only controls.
func (d *Driver) findClickable(page *rod.Page, name string) (*rod.Element, error) {
	textSel := "button, a, [role=button], [role=link], [role=menuitem], [role=tab], [role=checkbox], [role=radio], [role=switch]"
	el, err := page.ElementR(textSel, "/^"+regexp.QuoteMeta(name)+"$/")
	if err == nil {
		return el, nil
	}
	el, aerr := page.Element(attrSelector("", "aria-label", name))
	if aerr == nil {
		return el, nil
	}
	return nil, err
}

func attrSelector(tag, attr, value string) string {
	return fmt.Sprintf(`%s[%s="%s"]`, tag, attr, strings.ReplaceAll(value, `"`, `\"`))
}
