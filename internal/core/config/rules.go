package config

import (
	"koinlint/internal/engine/koin"
	"koinlint/internal/engine/rules"
)

// AnalyzerOptions converts the [analysis] and [rules.*] tables into analyzer options.
func (c *Config) AnalyzerOptions() koin.Options {
	opts := koin.Options{
		Values:   make(map[string]any, len(c.Analysis.Options)),
		Rules:    make(map[string]map[string]any),
		Disabled: make(map[string]bool),
	}
	for k, v := range c.Analysis.Options {
		opts.Values[k] = v
	}
	for id, rule := range c.Rules {
		if !rule.IsActive() {
			opts.Disabled[id] = true
		}
		if len(rule.Options) > 0 {
			opts.Rules[id] = rule.Options
		}
	}
	return opts
}

// RuleSettings returns the effective activity and severity of every registered rule.
func (c *Config) RuleSettings() map[string]rules.Setting {
	settings := rules.Defaults()
	for id, rule := range c.Rules {
		s, ok := settings[id]
		if !ok {
			continue
		}
		s.Active = rule.IsActive()
		if rule.Severity != "" {
			if sev, err := rules.ParseSeverity(rule.Severity); err == nil {
				s.Severity = sev
			}
		}
		settings[id] = s
	}
	return settings
}
