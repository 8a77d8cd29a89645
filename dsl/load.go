package dsl

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/meshflow/mediator/model"
)

// Load reads, parses, and validates a workflow definition file in one step.
// A DefinitionError wraps the underlying parse or validation failure so
// callers (the mediator's loader) can skip the offending file without
// aborting the load of the rest of the directory.
func Load(path string) (*model.Workflow, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, &DefinitionError{Path: path, Err: err}
	}
	w, err := ParseFromString(string(raw))
	if err != nil {
		return nil, &DefinitionError{Path: path, Err: err}
	}
	if err := Validate(w); err != nil {
		return nil, &DefinitionError{Path: path, Err: err}
	}
	return w, nil
}

// LoadDir loads every *.yaml/*.yml file directly under dir (§4.6 Load). A
// DefinitionError on one file is reported and that file is skipped;
// the rest of the directory still loads (§7's DefinitionError policy).
// The returned slice is ordered by file name for deterministic startup.
func LoadDir(dir string) ([]*model.Workflow, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("dsl: read definitions dir %s: %w", dir, err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if ext == ".yaml" || ext == ".yml" {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	var workflows []*model.Workflow
	var errs []string
	for _, name := range names {
		wf, err := Load(filepath.Join(dir, name))
		if err != nil {
			errs = append(errs, err.Error())
			continue
		}
		workflows = append(workflows, wf)
	}
	if len(errs) > 0 {
		return workflows, fmt.Errorf("dsl: %d file(s) rejected: %s", len(errs), strings.Join(errs, "; "))
	}
	return workflows, nil
}

// DefinitionError marks a schema/validation failure encountered while
// loading a single definition file (§7).
type DefinitionError struct {
	Path string
	Err  error
}

func (e *DefinitionError) Error() string {
	return "definition error in " + e.Path + ": " + e.Err.Error()
}

func (e *DefinitionError) Unwrap() error { return e.Err }
