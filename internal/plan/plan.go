// Package plan loads declarative scaffolding plans: a list of tree edits and the tasks to run
// once they are committed.
package plan

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/AlekSi/pointer"
	"github.com/hashicorp/go-multierror"
	"github.com/hashicorp/go-version"
	"github.com/pkg/errors"
	"github.com/speakeasy-api/scaffold/internal/tree"
	"github.com/speakeasy-api/scaffold/internal/utils"
	"gopkg.in/yaml.v3"
)

type Plan struct {
	// Version is a semver constraint the running CLI must satisfy, e.g. ">= 0.2".
	Version  string `yaml:"version,omitempty"`
	Strategy string `yaml:"strategy,omitempty"`
	Optimize *bool  `yaml:"optimize,omitempty"`
	Steps    []Step `yaml:"steps"`
	Tasks    []Task `yaml:"tasks,omitempty"`
}

// Step is a single edit. Exactly one of Create, Overwrite, Rename, Delete, Update or Branch is
// set.
type Step struct {
	Create    *string `yaml:"create,omitempty"`
	Overwrite *string `yaml:"overwrite,omitempty"`
	Rename    *string `yaml:"rename,omitempty"`
	Delete    *string `yaml:"delete,omitempty"`
	Update    *string `yaml:"update,omitempty"`
	Branch    *Branch `yaml:"branch,omitempty"`

	Content string `yaml:"content,omitempty"`
	To      string `yaml:"to,omitempty"`
	Edits   []Edit `yaml:"edits,omitempty"`
}

type Branch struct {
	Name     string `yaml:"name,omitempty"`
	Strategy string `yaml:"strategy,omitempty"`
	Steps    []Step `yaml:"steps"`
}

// Edit is a textual edit of an update step. Offsets refer to the file as it was when the step
// started.
type Edit struct {
	InsertLeft  *int   `yaml:"insertLeft,omitempty"`
	InsertRight *int   `yaml:"insertRight,omitempty"`
	Remove      *int   `yaml:"remove,omitempty"`
	Length      int    `yaml:"length,omitempty"`
	Content     string `yaml:"content,omitempty"`
	Assert      bool   `yaml:"assert,omitempty"`
}

type Task struct {
	ID        string         `yaml:"id,omitempty"`
	Name      string         `yaml:"name"`
	DependsOn []string       `yaml:"dependsOn,omitempty"`
	Options   map[string]any `yaml:"options,omitempty"`
}

func Load(path string) (*Plan, error) {
	if !utils.HasYAMLExt(path) {
		return nil, fmt.Errorf("plan %s must be a .yaml or .yml file", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read plan %s", path)
	}

	p, err := Parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load plan %s", path)
	}
	return p, nil
}

// Parse decodes and validates a plan. Unknown fields are rejected.
func Parse(data []byte) (*Plan, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var p Plan
	if err := dec.Decode(&p); err != nil {
		return nil, errors.Wrap(err, "invalid plan")
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// OptimizeOr returns the plan's optimize setting, or fallback when it has none.
func (p *Plan) OptimizeOr(fallback bool) bool {
	if p.Optimize == nil {
		return fallback
	}
	return pointer.GetBool(p.Optimize)
}

// CheckVersion fails if current does not satisfy the plan's version constraint.
func (p *Plan) CheckVersion(current string) error {
	if p.Version == "" {
		return nil
	}

	constraint, err := version.NewConstraint(p.Version)
	if err != nil {
		return errors.Wrapf(err, "invalid version constraint %q", p.Version)
	}
	v, err := version.NewVersion(current)
	if err != nil {
		return errors.Wrapf(err, "invalid version %q", current)
	}
	if !constraint.Check(v) {
		return fmt.Errorf("plan requires version %s, running %s", p.Version, v)
	}
	return nil
}

// Validate reports every problem of the plan at once.
func (p *Plan) Validate() error {
	var errs *multierror.Error

	if p.Version != "" {
		if _, err := version.NewConstraint(p.Version); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("version: %w", err))
		}
	}
	if _, err := tree.ParseMergeStrategy(p.Strategy); err != nil {
		errs = multierror.Append(errs, fmt.Errorf("strategy: %w", err))
	}

	errs = validateSteps(errs, "steps", p.Steps)

	ids := map[string]bool{}
	for i, t := range p.Tasks {
		at := fmt.Sprintf("tasks[%d]", i)
		if strings.TrimSpace(t.Name) == "" {
			errs = multierror.Append(errs, fmt.Errorf("%s: name is required", at))
		}
		for _, dep := range t.DependsOn {
			if !ids[dep] {
				errs = multierror.Append(errs, fmt.Errorf("%s: dependency %q must be declared before it is used", at, dep))
			}
		}
		if t.ID != "" {
			if ids[t.ID] {
				errs = multierror.Append(errs, fmt.Errorf("%s: duplicate id %q", at, t.ID))
			}
			ids[t.ID] = true
		}
	}

	return errs.ErrorOrNil()
}

func validateSteps(errs *multierror.Error, at string, steps []Step) *multierror.Error {
	for i, s := range steps {
		at := fmt.Sprintf("%s[%d]", at, i)

		kinds := 0
		for _, set := range []bool{s.Create != nil, s.Overwrite != nil, s.Rename != nil, s.Delete != nil, s.Update != nil, s.Branch != nil} {
			if set {
				kinds++
			}
		}
		if kinds != 1 {
			errs = multierror.Append(errs, fmt.Errorf("%s: exactly one of create, overwrite, rename, delete, update or branch is required", at))
			continue
		}

		switch {
		case s.Rename != nil && s.To == "":
			errs = multierror.Append(errs, fmt.Errorf("%s: rename requires to", at))
		case s.Update != nil:
			for j, e := range s.Edits {
				if err := e.validate(); err != nil {
					errs = multierror.Append(errs, fmt.Errorf("%s.edits[%d]: %w", at, j, err))
				}
			}
		case s.Branch != nil:
			if _, err := tree.ParseMergeStrategy(s.Branch.Strategy); err != nil {
				errs = multierror.Append(errs, fmt.Errorf("%s.branch.strategy: %w", at, err))
			}
			errs = validateSteps(errs, at+".branch.steps", s.Branch.Steps)
		}
	}
	return errs
}

func (e Edit) validate() error {
	ops := 0
	for _, set := range []bool{e.InsertLeft != nil, e.InsertRight != nil, e.Remove != nil} {
		if set {
			ops++
		}
	}
	if ops != 1 {
		return errors.New("exactly one of insertLeft, insertRight or remove is required")
	}
	if e.Remove != nil && e.Length <= 0 {
		return errors.New("remove requires a positive length")
	}
	return nil
}
