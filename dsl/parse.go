package dsl

import (
	"os"

	"github.com/meshflow/mediator/model"
	"gopkg.in/yaml.v3"
)

// Parse reads a YAML workflow definition file and unmarshals it.
func Parse(path string) (*model.Workflow, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseFromString(string(data))
}

// ParseFromString unmarshals a YAML document into a Workflow struct. It
// performs no validation; callers should run Validate afterward.
func ParseFromString(yamlStr string) (*model.Workflow, error) {
	var w model.Workflow
	if err := yaml.Unmarshal([]byte(yamlStr), &w); err != nil {
		return nil, err
	}
	return &w, nil
}
