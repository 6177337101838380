package kv

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestMemory_SetGetDelete(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()

	err := store.Set(ctx, "key", payload{Name: "leads", Count: 3})
	require.NoError(t, err)

	var got payload
	found, err := store.Get(ctx, "key", &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, payload{Name: "leads", Count: 3}, got)

	require.NoError(t, store.Delete(ctx, "key"))
	found, err = store.Get(ctx, "key", &got)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestMemory_MissingKey(t *testing.T) {
	store := NewMemory()

	var got payload
	found, err := store.Get(context.Background(), "absent", &got)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestMemory_CorruptValueReadsAsAbsent(t *testing.T) {
	tests := []struct {
		name string
		raw  []byte
	}{
		{"повреждённый JSON", []byte("{not json")},
		{"чужая версия схемы", []byte(`{"v":99,"data":{"name":"x"}}`)},
		{"конверт без данных", []byte(`{"v":1}`)},
		{"значение без конверта", []byte(`{"name":"x","count":1}`)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := NewMemory()
			store.Put("key", tt.raw)

			var got payload
			found, err := store.Get(context.Background(), "key", &got)
			require.NoError(t, err)
			assert.False(t, found)
		})
	}
}

func TestEnvelope_RoundTrip(t *testing.T) {
	raw, err := encode(payload{Name: "export_history", Count: 10})
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"v":1`)

	var got payload
	assert.True(t, decode(raw, &got))
	assert.Equal(t, "export_history", got.Name)
}

func TestPrefixed_IsolatesKeys(t *testing.T) {
	ctx := context.Background()
	base := NewMemory()

	alice := Prefixed(base, "user:alice:")
	bob := Prefixed(base, "user:bob:")

	require.NoError(t, alice.Set(ctx, "key", payload{Name: "exports", Count: 2}))

	var got payload
	found, err := bob.Get(ctx, "key", &got)
	require.NoError(t, err)
	assert.False(t, found)

	found, err = alice.Get(ctx, "key", &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 2, got.Count)

	// Ключ в базовом хранилище лежит под полным именем.
	found, err = base.Get(ctx, "user:alice:key", &got)
	require.NoError(t, err)
	assert.True(t, found)

	require.NoError(t, alice.Delete(ctx, "key"))
	found, err = alice.Get(ctx, "key", &got)
	require.NoError(t, err)
	assert.False(t, found)
}
