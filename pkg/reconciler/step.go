package reconciler

import (
	"context"
	"errors"
	"fmt"
)

// Step errors raised while resolving the remediation graph.
var (
	// ErrDuplicateStep is returned when two steps share a name.
	ErrDuplicateStep = errors.New("duplicate remediation step")
	// ErrUnknownPrerequisite is returned when a step names a prerequisite that
	// is not part of the graph.
	ErrUnknownPrerequisite = errors.New("unknown prerequisite step")
	// ErrStepCycle is returned when step prerequisites form a cycle.
	ErrStepCycle = errors.New("remediation steps form a cycle")
)

// ActionFunc performs one corrective action. Actions must be idempotent:
// safe to execute against a partial or already converged target state.
type ActionFunc func(ctx context.Context) error

// Step is a named corrective action gated by one or more deficiency tags.
// A step executes only when at least one of its gating tags is present in the
// deficiency set; otherwise its target is already satisfied and it is skipped.
type Step struct {
	// Name identifies the step in reports and failure messages.
	Name string
	// Tags gate execution: the step runs when ANY of these tags is deficient.
	Tags []Tag
	// Requires names steps that must be ordered before this one. The
	// prerequisite graph is resolved into a total order once at startup.
	Requires []string
	// Action performs the corrective work.
	Action ActionFunc
}

// ResolveOrder topologically sorts steps by their declared prerequisites and
// returns them in execution order. The sort is stable: steps with no ordering
// constraint between them keep their declaration order. Resolution happens
// once at startup so ordering mistakes surface before any probe runs.
func ResolveOrder(steps []Step) ([]Step, error) {
	index := make(map[string]int, len(steps))

	for i, step := range steps {
		if _, ok := index[step.Name]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateStep, step.Name)
		}

		index[step.Name] = i
	}

	for _, step := range steps {
		for _, req := range step.Requires {
			if _, ok := index[req]; !ok {
				return nil, fmt.Errorf("%w: %s requires %s", ErrUnknownPrerequisite, step.Name, req)
			}
		}
	}

	const (
		unvisited = iota
		visiting
		visited
	)

	state := make([]int, len(steps))
	order := make([]Step, 0, len(steps))

	var visit func(i int) error

	visit = func(i int) error {
		switch state[i] {
		case visited:
			return nil
		case visiting:
			return fmt.Errorf("%w: at %s", ErrStepCycle, steps[i].Name)
		}

		state[i] = visiting

		for _, req := range steps[i].Requires {
			err := visit(index[req])
			if err != nil {
				return err
			}
		}

		state[i] = visited
		order = append(order, steps[i])

		return nil
	}

	for i := range steps {
		err := visit(i)
		if err != nil {
			return nil, err
		}
	}

	return order, nil
}
