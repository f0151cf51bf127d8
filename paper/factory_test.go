package paper

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paperflow-ai/paperflow/agent"
	"github.com/paperflow-ai/paperflow/config"
	"github.com/paperflow-ai/paperflow/testutil"
)

func factoryFixture(t *testing.T) (*Factory, *Store, *agent.Registry) {
	t.Helper()
	store, err := NewStore(config.DatabaseConfig{Driver: "sqlite", Path: ":memory:"}, nil)
	require.NoError(t, err)

	registry := agent.NewRegistry(nil)
	provider := testutil.NewScriptedProvider("a grounded answer from the paper")
	f := NewFactory(store, registry, provider, agent.DefaultPaperAgentConfig(), nil)
	return f, store, registry
}

func TestFactory_OnboardRegistersAgent(t *testing.T) {
	t.Parallel()
	f, store, registry := factoryFixture(t)
	ctx := testutil.TestContext(t)

	p := samplePaper("2306.10001", "Paper Under Test")
	require.NoError(t, store.Create(ctx, p))

	a, err := f.Onboard(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "paper-"+p.ID, a.ID())
	assert.Equal(t, "Paper Under Test", a.Name())

	resolved, err := registry.Resolve(a.ID())
	require.NoError(t, err)
	assert.Same(t, a, resolved.(*agent.PaperAgent))

	// The agent answers with the paper as grounding.
	resp, err := a.Query(ctx, "what does it claim?", nil)
	require.NoError(t, err)
	assert.Equal(t, "a grounded answer from the paper", resp.Content)
}

func TestFactory_OnboardMissingPaper(t *testing.T) {
	t.Parallel()
	f, _, _ := factoryFixture(t)
	_, err := f.Onboard(testutil.TestContext(t), "no-such-paper")
	assert.ErrorIs(t, err, ErrPaperNotFound)
}

func TestFactory_OnboardTwiceFails(t *testing.T) {
	t.Parallel()
	f, store, _ := factoryFixture(t)
	ctx := testutil.TestContext(t)

	p := samplePaper("2306.10002", "Once Only")
	require.NoError(t, store.Create(ctx, p))

	_, err := f.Onboard(ctx, p.ID)
	require.NoError(t, err)

	_, err = f.Onboard(ctx, p.ID)
	assert.ErrorIs(t, err, agent.ErrDuplicateAgent)
}

func TestFactory_OnboardAllSkipsExisting(t *testing.T) {
	t.Parallel()
	f, store, registry := factoryFixture(t)
	ctx := testutil.TestContext(t)

	p1 := samplePaper("2306.10003", "First")
	p2 := samplePaper("2306.10004", "Second")
	require.NoError(t, store.Create(ctx, p1))
	require.NoError(t, store.Create(ctx, p2))

	_, err := f.Onboard(ctx, p1.ID)
	require.NoError(t, err)

	onboarded, err := f.OnboardAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, onboarded)
	assert.Equal(t, 2, registry.Len())
}

func TestFactory_Retire(t *testing.T) {
	t.Parallel()
	f, store, registry := factoryFixture(t)
	ctx := testutil.TestContext(t)

	p := samplePaper("2306.10005", "Retiree")
	require.NoError(t, store.Create(ctx, p))
	_, err := f.Onboard(ctx, p.ID)
	require.NoError(t, err)

	f.Retire(p.ID)
	assert.Equal(t, 0, registry.Len())

	// Retiring again is harmless.
	f.Retire(p.ID)
}
