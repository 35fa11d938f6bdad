// This file may be distributed under the terms of the GNU GPLv3 license.

package exclude

import (
	"fmt"
	"regexp"

	"excluderegion-go/pkg/settings"
)

// atRule is one compiled @-command rule. A nil pattern matches any
// parameter text.
type atRule struct {
	pattern *regexp.Regexp
	action  settings.AtAction
}

// AtDispatcher matches parsed @-command lines against the configured rule
// table. Command names are case sensitive.
type AtDispatcher struct {
	rules map[string][]atRule
}

// NewAtDispatcher compiles the rule table.
func NewAtDispatcher(actions []settings.AtCommandAction) (*AtDispatcher, error) {
	d := &AtDispatcher{rules: make(map[string][]atRule)}
	for _, a := range actions {
		rule := atRule{action: a.Action}
		if a.ParameterPattern != "" {
			p, err := regexp.Compile(a.ParameterPattern)
			if err != nil {
				return nil, fmt.Errorf("at-command %s: %w", a.Command, err)
			}
			rule.pattern = p
		}
		d.rules[a.Command] = append(d.rules[a.Command], rule)
	}
	return d, nil
}

// Match returns the action for the first rule matching the command name
// and parameter text.
func (d *AtDispatcher) Match(command, parameters string) (settings.AtAction, bool) {
	for _, rule := range d.rules[command] {
		if rule.pattern == nil || rule.pattern.MatchString(parameters) {
			return rule.action, true
		}
	}
	return "", false
}
