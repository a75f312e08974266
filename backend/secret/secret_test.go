package secret

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvProvider(t *testing.T) {
	t.Setenv("TASKPILOT_TEST_KEY", "sk-test")

	p := NewEnvProvider()
	value, err := p.Get("TASKPILOT_TEST_KEY")
	require.NoError(t, err)
	assert.Equal(t, "sk-test", value)

	_, err = p.Get("TASKPILOT_MISSING_KEY")
	assert.ErrorIs(t, err, &ErrSecretNotFound{})
}

func TestEnvProviderEmptyValueIsMissing(t *testing.T) {
	t.Setenv("TASKPILOT_EMPTY_KEY", "")

	_, err := NewEnvProvider().Get("TASKPILOT_EMPTY_KEY")
	assert.ErrorIs(t, err, &ErrSecretNotFound{})
}

// fakeSecretProvider backs the chain tests without touching the OS
// keyring.
type fakeSecretProvider struct {
	values map[string]string
	err    error
}

func (f *fakeSecretProvider) Get(key string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	value, ok := f.values[key]
	if !ok {
		return "", &ErrSecretNotFound{Key: key, Err: fmt.Errorf("not stored")}
	}
	return value, nil
}

func (f *fakeSecretProvider) Set(key, value string) error {
	if f.values == nil {
		f.values = map[string]string{}
	}
	f.values[key] = value
	return nil
}

func (f *fakeSecretProvider) Delete(key string) error {
	delete(f.values, key)
	return nil
}

func TestChainFirstHitWins(t *testing.T) {
	t.Parallel()

	first := &fakeSecretProvider{values: map[string]string{"OPENAI_API_KEY": "from-first"}}
	second := &fakeSecretProvider{values: map[string]string{"OPENAI_API_KEY": "from-second"}}

	value, err := NewChain(first, second).Get("OPENAI_API_KEY")
	require.NoError(t, err)
	assert.Equal(t, "from-first", value)
}

func TestChainFallsThrough(t *testing.T) {
	t.Parallel()

	first := &fakeSecretProvider{}
	second := &fakeSecretProvider{values: map[string]string{"ANTHROPIC_API_KEY": "from-second"}}

	value, err := NewChain(first, second).Get("ANTHROPIC_API_KEY")
	require.NoError(t, err)
	assert.Equal(t, "from-second", value)
}

func TestChainAllMiss(t *testing.T) {
	t.Parallel()

	chain := NewChain(&fakeSecretProvider{}, &fakeSecretProvider{})
	_, err := chain.Get("NOPE")
	assert.ErrorIs(t, err, &ErrSecretNotFound{})
}

func TestChainSurfacesRealErrors(t *testing.T) {
	t.Parallel()

	broken := &fakeSecretProvider{err: errors.New("keyring locked")}
	_, err := NewChain(broken).Get("OPENAI_API_KEY")
	assert.EqualError(t, err, "keyring locked")
}

func TestChainWritesToFirstProvider(t *testing.T) {
	t.Parallel()

	first := &fakeSecretProvider{}
	second := &fakeSecretProvider{}
	chain := NewChain(first, second)

	require.NoError(t, chain.Set("OPENAI_API_KEY", "sk-new"))
	assert.Equal(t, "sk-new", first.values["OPENAI_API_KEY"])
	assert.Empty(t, second.values)

	require.NoError(t, chain.Delete("OPENAI_API_KEY"))
	assert.Empty(t, first.values)
}
