package reconciler_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vaultlab/vaultlab/pkg/reconciler"
)

func noopStep(name string, requires ...string) reconciler.Step {
	return reconciler.Step{
		Name:     name,
		Tags:     []reconciler.Tag{reconciler.TagClusterUnavailable},
		Requires: requires,
		Action:   func(_ context.Context) error { return nil },
	}
}

func stepNames(steps []reconciler.Step) []string {
	names := make([]string, 0, len(steps))
	for _, step := range steps {
		names = append(names, step.Name)
	}

	return names
}

func TestResolveOrder_KeepsDeclarationOrderWithoutConstraints(t *testing.T) {
	t.Parallel()

	ordered, err := reconciler.ResolveOrder([]reconciler.Step{
		noopStep("a"), noopStep("b"), noopStep("c"),
	})

	require.NoError(t, err)
	require.Equal(t, []string{"a", "b", "c"}, stepNames(ordered))
}

func TestResolveOrder_PrerequisitesComeFirst(t *testing.T) {
	t.Parallel()

	ordered, err := reconciler.ResolveOrder([]reconciler.Step{
		noopStep("publish", "generate", "install"),
		noopStep("generate", "init"),
		noopStep("install"),
		noopStep("init"),
	})

	require.NoError(t, err)

	names := stepNames(ordered)
	require.Less(t, indexOf(t, names, "init"), indexOf(t, names, "generate"))
	require.Less(t, indexOf(t, names, "generate"), indexOf(t, names, "publish"))
	require.Less(t, indexOf(t, names, "install"), indexOf(t, names, "publish"))
}

func TestResolveOrder_DuplicateStep(t *testing.T) {
	t.Parallel()

	_, err := reconciler.ResolveOrder([]reconciler.Step{
		noopStep("a"), noopStep("a"),
	})

	require.ErrorIs(t, err, reconciler.ErrDuplicateStep)
}

func TestResolveOrder_UnknownPrerequisite(t *testing.T) {
	t.Parallel()

	_, err := reconciler.ResolveOrder([]reconciler.Step{
		noopStep("a", "missing"),
	})

	require.ErrorIs(t, err, reconciler.ErrUnknownPrerequisite)
}

func TestResolveOrder_Cycle(t *testing.T) {
	t.Parallel()

	_, err := reconciler.ResolveOrder([]reconciler.Step{
		noopStep("a", "b"),
		noopStep("b", "a"),
	})

	require.ErrorIs(t, err, reconciler.ErrStepCycle)
}

func indexOf(t *testing.T, names []string, name string) int {
	t.Helper()

	for i, candidate := range names {
		if candidate == name {
			return i
		}
	}

	t.Fatalf("step %q not found in %v", name, names)

	return -1
}
