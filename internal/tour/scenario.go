package tour

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/tOgg1/trainwatch/internal/models"
)

//go:embed default_scenarios.yaml
var defaultScenariosYAML []byte

// Step is one page of a guided tour.
type Step struct {
	Title   string `yaml:"title"`
	Content string `yaml:"content"`
	// Action labels the advance control, e.g. "Show me". Empty means the
	// caller's default label.
	Action string `yaml:"action,omitempty"`
}

// Scenario is an ordered, immutable list of steps.
type Scenario struct {
	ID    string `yaml:"id"`
	Title string `yaml:"title"`
	Steps []Step `yaml:"steps"`
}

type scenarioFile struct {
	Scenarios []Scenario `yaml:"scenarios"`
}

// Validate checks that the scenario can be played.
func (s Scenario) Validate() error {
	errs := &models.ValidationErrors{}
	if strings.TrimSpace(s.ID) == "" {
		errs.Add("id", models.ErrMissingID)
	}
	if len(s.Steps) == 0 {
		errs.Add("steps", models.ErrEmptyScenario)
	}
	for i, step := range s.Steps {
		if strings.TrimSpace(step.Title) == "" {
			errs.Add(fmt.Sprintf("steps[%d].title", i), models.ErrMissingTitle)
		}
	}
	return errs.Err()
}

func (s Scenario) clone() Scenario {
	s.Steps = slices.Clone(s.Steps)
	return s
}

// LoadScenarios parses a YAML document with a top-level "scenarios" list.
func LoadScenarios(r io.Reader) ([]Scenario, error) {
	var file scenarioFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("decode scenarios: %w", err)
	}

	errs := &models.ValidationErrors{}
	seen := make(map[string]bool, len(file.Scenarios))
	for i, s := range file.Scenarios {
		field := fmt.Sprintf("scenarios[%d]", i)
		errs.Add(field, s.Validate())
		if s.ID != "" && seen[s.ID] {
			errs.AddMessage(field+".id", fmt.Sprintf("duplicate scenario id %q", s.ID))
		}
		seen[s.ID] = true
	}
	if err := errs.Err(); err != nil {
		return nil, err
	}
	return file.Scenarios, nil
}

// LoadScenarioFile reads scenarios from path.
func LoadScenarioFile(path string) ([]Scenario, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open scenario file: %w", err)
	}
	defer f.Close()
	return LoadScenarios(f)
}

// DefaultScenarios returns the built-in product tours.
func DefaultScenarios() []Scenario {
	scenarios, err := LoadScenarios(bytes.NewReader(defaultScenariosYAML))
	if err != nil {
		panic(fmt.Sprintf("built-in scenarios: %v", err))
	}
	return scenarios
}

// FindScenario returns the scenario with the given ID.
func FindScenario(scenarios []Scenario, id string) (Scenario, bool) {
	for _, s := range scenarios {
		if s.ID == id {
			return s, true
		}
	}
	return Scenario{}, false
}

// ScenarioIDs lists IDs in declaration order.
func ScenarioIDs(scenarios []Scenario) []string {
	ids := make([]string, 0, len(scenarios))
	for _, s := range scenarios {
		ids = append(ids, s.ID)
	}
	return ids
}
