package reconciler_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vaultlab/vaultlab/pkg/reconciler"
)

var errProbeBoom = errors.New("boom")

func satisfiedProbe(tag reconciler.Tag) reconciler.Probe {
	return reconciler.Probe{
		Name: string(tag),
		Tag:  tag,
		Check: func(_ context.Context) (reconciler.ProbeResult, error) {
			return reconciler.ProbeResult{Tag: tag, Status: reconciler.StatusSatisfied}, nil
		},
	}
}

func deficientProbe(tag reconciler.Tag) reconciler.Probe {
	return reconciler.Probe{
		Name: string(tag),
		Tag:  tag,
		Check: func(_ context.Context) (reconciler.ProbeResult, error) {
			return reconciler.ProbeResult{Tag: tag, Status: reconciler.StatusDeficient}, nil
		},
	}
}

func TestProber_SatisfiedProbesAddNothing(t *testing.T) {
	t.Parallel()

	prober := reconciler.NewProber([]reconciler.Probe{
		satisfiedProbe(reconciler.TagRuntimeUnavailable),
		satisfiedProbe(reconciler.TagToolsMissing),
	})

	set, results := prober.Run(context.Background())

	require.True(t, set.Empty())
	require.Len(t, results, 2)
}

func TestProber_DeficientProbesAddTags(t *testing.T) {
	t.Parallel()

	prober := reconciler.NewProber([]reconciler.Probe{
		satisfiedProbe(reconciler.TagRuntimeUnavailable),
		deficientProbe(reconciler.TagClusterUnavailable),
	})

	set, _ := prober.Run(context.Background())

	require.Equal(t, 1, set.Len())
	require.True(t, set.Has(reconciler.TagClusterUnavailable))
}

func TestProber_ErrorFailsClosed(t *testing.T) {
	t.Parallel()

	prober := reconciler.NewProber([]reconciler.Probe{
		{
			Name: "failing",
			Tag:  reconciler.TagSecretsStoreUnreachable,
			Check: func(_ context.Context) (reconciler.ProbeResult, error) {
				return reconciler.ProbeResult{}, errProbeBoom
			},
		},
	})

	set, results := prober.Run(context.Background())

	require.True(t, set.Has(reconciler.TagSecretsStoreUnreachable))
	require.Equal(t, reconciler.StatusBroken, results[0].Status)
	require.Contains(t, results[0].Detail, "boom")
}

func TestProber_PanicFailsClosed(t *testing.T) {
	t.Parallel()

	prober := reconciler.NewProber([]reconciler.Probe{
		{
			Name: "panicking",
			Tag:  reconciler.TagNetworkUnreachable,
			Check: func(_ context.Context) (reconciler.ProbeResult, error) {
				panic("unexpected")
			},
		},
		satisfiedProbe(reconciler.TagToolsMissing),
	})

	set, results := prober.Run(context.Background())

	require.True(t, set.Has(reconciler.TagNetworkUnreachable))
	require.Equal(t, reconciler.StatusBroken, results[0].Status)
	// The probe after the panicking one still runs.
	require.Len(t, results, 2)
}

func TestProber_AllProbesRunDespiteDeficiencies(t *testing.T) {
	t.Parallel()

	ran := 0
	probes := make([]reconciler.Probe, 0, 3)

	for _, tag := range []reconciler.Tag{
		reconciler.TagRuntimeUnavailable,
		reconciler.TagClusterUnavailable,
		reconciler.TagToolsMissing,
	} {
		probes = append(probes, reconciler.Probe{
			Name: string(tag),
			Tag:  tag,
			Check: func(_ context.Context) (reconciler.ProbeResult, error) {
				ran++

				return reconciler.ProbeResult{Status: reconciler.StatusDeficient}, nil
			},
		})
	}

	set, _ := reconciler.NewProber(probes).Run(context.Background())

	require.Equal(t, 3, ran)
	require.Equal(t, 3, set.Len())
}
