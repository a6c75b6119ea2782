package formats

import (
	"encoding/json"

	"koinlint/internal/engine/rules"

	"github.com/google/uuid"
)

// SARIF v2.1.0 schema – see https://schemastore.azurewebsites.net/schemas/json/sarif-2.1.0-rtm.5.json

const (
	sarifSchema  = "https://schemastore.azurewebsites.net/schemas/json/sarif-2.1.0-rtm.5.json"
	sarifVersion = "2.1.0"
	srcRoot      = "%SRCROOT%"
)

// sarifReport is the top-level SARIF document.
type sarifReport struct {
	Schema  string     `json:"$schema"`
	Version string     `json:"version"`
	Runs    []sarifRun `json:"runs"`
}

type sarifRun struct {
	Tool              sarifTool              `json:"tool"`
	AutomationDetails sarifAutomationDetails `json:"automationDetails"`
	Invocations       []sarifInvocation      `json:"invocations"`
	Results           []sarifResult          `json:"results"`
}

type sarifTool struct {
	Driver sarifDriver `json:"driver"`
}

type sarifDriver struct {
	Name    string      `json:"name"`
	Version string      `json:"version"`
	Rules   []sarifRule `json:"rules"`
}

type sarifRule struct {
	ID               string                 `json:"id"`
	Name             string                 `json:"name"`
	ShortDescription sarifMessage           `json:"shortDescription"`
	FullDescription  *sarifMessage          `json:"fullDescription,omitempty"`
	Help             *sarifMessage          `json:"help,omitempty"`
	DefaultConfig    sarifRuleDefaultConfig `json:"defaultConfiguration"`
	Properties       sarifRuleProperties    `json:"properties"`
}

type sarifRuleDefaultConfig struct {
	Enabled bool   `json:"enabled"`
	Level   string `json:"level"`
}

type sarifRuleProperties struct {
	Group string `json:"group"`
	Debt  string `json:"debt"`
}

type sarifAutomationDetails struct {
	ID   string `json:"id"`
	GUID string `json:"guid"`
}

type sarifInvocation struct {
	ExecutionSuccessful bool                `json:"executionSuccessful"`
	Notifications       []sarifNotification `json:"toolExecutionNotifications,omitempty"`
}

type sarifNotification struct {
	Level     string          `json:"level"`
	Message   sarifMessage    `json:"message"`
	Locations []sarifLocation `json:"locations,omitempty"`
}

type sarifResult struct {
	RuleID    string          `json:"ruleId"`
	RuleIndex int             `json:"ruleIndex"`
	Level     string          `json:"level"`
	Message   sarifMessage    `json:"message"`
	Locations []sarifLocation `json:"locations,omitempty"`
}

type sarifMessage struct {
	Text string `json:"text"`
}

type sarifLocation struct {
	PhysicalLocation sarifPhysicalLocation `json:"physicalLocation"`
}

type sarifPhysicalLocation struct {
	ArtifactLocation sarifArtifactLocation `json:"artifactLocation"`
	Region           *sarifRegion          `json:"region,omitempty"`
}

type sarifArtifactLocation struct {
	URI       string `json:"uri"`
	URIBaseID string `json:"uriBaseId"`
}

type sarifRegion struct {
	StartLine   int `json:"startLine,omitempty"`
	StartColumn int `json:"startColumn,omitempty"`
	EndLine     int `json:"endLine,omitempty"`
	EndColumn   int `json:"endColumn,omitempty"`
}

// SARIF builds a SARIF v2.1.0 document. Every registered rule is listed in the
// driver; file URIs are relative to the project root so reports are safe to share.
func SARIF(r Report) ([]byte, error) {
	registered := rules.All()
	ruleIndex := make(map[string]int, len(registered))
	driverRules := make([]sarifRule, 0, len(registered))
	for i, info := range registered {
		ruleIndex[info.ID] = i
		setting, ok := r.Settings[info.ID]
		if !ok {
			setting = rules.Setting{Active: true, Severity: info.Severity}
		}
		rule := sarifRule{
			ID:               info.ID,
			Name:             info.ID,
			ShortDescription: sarifMessage{Text: info.Description},
			DefaultConfig:    sarifRuleDefaultConfig{Enabled: setting.Active, Level: setting.Severity.SARIFLevel()},
			Properties:       sarifRuleProperties{Group: info.Group, Debt: info.Debt.String()},
		}
		if info.Rationale != "" {
			rule.FullDescription = &sarifMessage{Text: info.Rationale}
		}
		if info.BadExample != "" || info.GoodExample != "" {
			rule.Help = &sarifMessage{Text: "Bad:\n" + info.BadExample + "\n\nGood:\n" + info.GoodExample}
		}
		driverRules = append(driverRules, rule)
	}

	results := make([]sarifResult, 0)
	for _, e := range r.Entries() {
		span := e.Finding.Span
		results = append(results, sarifResult{
			RuleID:    e.Finding.RuleID,
			RuleIndex: ruleIndex[e.Finding.RuleID],
			Level:     e.Severity.SARIFLevel(),
			Message:   sarifMessage{Text: e.Finding.Message},
			Locations: []sarifLocation{{
				PhysicalLocation: sarifPhysicalLocation{
					ArtifactLocation: sarifArtifactLocation{URI: relPath(r.ProjectRoot, e.Path), URIBaseID: srcRoot},
					Region: &sarifRegion{
						StartLine:   span.Start.Line,
						StartColumn: span.Start.Column,
						EndLine:     span.End.Line,
						EndColumn:   span.End.Column,
					},
				},
			}},
		})
	}

	invocation := sarifInvocation{ExecutionSuccessful: true}
	for _, f := range r.Failed() {
		invocation.Notifications = append(invocation.Notifications, sarifNotification{
			Level:   "warning",
			Message: sarifMessage{Text: f.Error},
			Locations: []sarifLocation{{
				PhysicalLocation: sarifPhysicalLocation{
					ArtifactLocation: sarifArtifactLocation{URI: relPath(r.ProjectRoot, f.Path), URIBaseID: srcRoot},
				},
			}},
		})
	}

	run := sarifRun{
		Tool: sarifTool{Driver: sarifDriver{
			Name:    nonEmpty(r.Tool, "koinlint"),
			Version: r.Version,
			Rules:   driverRules,
		}},
		AutomationDetails: sarifAutomationDetails{
			ID:   nonEmpty(r.Tool, "koinlint") + "/",
			GUID: runGUID(r.RunID),
		},
		Invocations: []sarifInvocation{invocation},
		Results:     results,
	}

	return json.MarshalIndent(sarifReport{
		Schema:  sarifSchema,
		Version: sarifVersion,
		Runs:    []sarifRun{run},
	}, "", "  ")
}

// runGUID reuses the run id when it is a UUID and mints one otherwise.
func runGUID(runID string) string {
	if id, err := uuid.Parse(runID); err == nil {
		return id.String()
	}
	return uuid.NewString()
}
