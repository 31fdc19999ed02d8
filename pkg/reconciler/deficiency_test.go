package reconciler_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vaultlab/vaultlab/pkg/reconciler"
)

func TestDeficiencySet_AddAndHas(t *testing.T) {
	t.Parallel()

	set := reconciler.NewDeficiencySet()
	require.True(t, set.Empty())

	set.Add(reconciler.TagClusterUnavailable)
	set.Add(reconciler.TagClusterUnavailable)

	require.False(t, set.Empty())
	require.Equal(t, 1, set.Len())
	require.True(t, set.Has(reconciler.TagClusterUnavailable))
	require.False(t, set.Has(reconciler.TagToolsMissing))
}

func TestDeficiencySet_HasAny(t *testing.T) {
	t.Parallel()

	set := reconciler.NewDeficiencySet(reconciler.TagAuthMethodDisabled)

	require.True(t, set.HasAny(reconciler.TagToolsMissing, reconciler.TagAuthMethodDisabled))
	require.False(t, set.HasAny(reconciler.TagToolsMissing, reconciler.TagRuntimeUnavailable))
	require.False(t, set.HasAny())
}

func TestDeficiencySet_TagsSorted(t *testing.T) {
	t.Parallel()

	set := reconciler.NewDeficiencySet(
		reconciler.TagToolsMissing,
		reconciler.TagAuthMethodDisabled,
		reconciler.TagClusterUnavailable,
	)

	tags := set.Tags()
	require.Len(t, tags, 3)

	for i := 1; i < len(tags); i++ {
		require.Less(t, string(tags[i-1]), string(tags[i]))
	}
}
