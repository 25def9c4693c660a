package validation

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistries_DuplicateFormatRejected(t *testing.T) {
	registries := NewRegistries()
	ok := func(any) (bool, error) { return true, nil }

	require.NoError(t, registries.AddFormatValidator("unique-name", ok))
	err := registries.AddFormatValidator("unique-name", ok)
	assert.ErrorIs(t, err, ErrDuplicateFormat)
	assert.Contains(t, err.Error(), "unique-name")
}

func TestRegistries_DuplicateDeserializerRejected(t *testing.T) {
	registries := NewRegistries()
	passthrough := func(data []byte) (any, error) { return string(data), nil }

	require.NoError(t, registries.AddDeserializer("application/backwards+json", passthrough))
	err := registries.AddDeserializer("application/backwards+json", passthrough)
	assert.ErrorIs(t, err, ErrDuplicateDeserializer)
}

func TestRegistries_NilFuncRejected(t *testing.T) {
	registries := NewRegistries()
	assert.Error(t, registries.AddFormatValidator("x", nil))
	assert.Error(t, registries.AddDeserializer("x", nil))
}

func TestRegistries_Lookup(t *testing.T) {
	registries := NewRegistries()
	require.NoError(t, registries.AddDeserializer("application/backwards+json", func(data []byte) (any, error) {
		reversed := []byte(data)
		for i, j := 0, len(reversed)-1; i < j; i, j = i+1, j-1 {
			reversed[i], reversed[j] = reversed[j], reversed[i]
		}
		var out any
		err := json.Unmarshal(reversed, &out)
		return out, err
	}))

	fn, ok := registries.deserializer("application/backwards+json")
	require.True(t, ok)
	value, err := fn([]byte(`}"opuz" :"eman"{`))
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"name": "zupo"}, value)

	_, ok = registries.deserializer("application/json")
	assert.False(t, ok)

	_, ok = registries.formatValidator("unregistered")
	assert.False(t, ok)
}

func TestRegistries_NilReceiverLookups(t *testing.T) {
	var registries *Registries
	_, ok := registries.formatValidator("x")
	assert.False(t, ok)
	_, ok = registries.deserializer("x")
	assert.False(t, ok)
}
