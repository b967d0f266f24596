package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"market-cutover/pkg/model"
)

func TestMemoryStoreKV(t *testing.T) {
	s := NewMemoryStore()

	_, ok, err := s.Get("missing")
	require.NoError(t, err)
	assert.False(t, ok)

	in := []byte("value")
	require.NoError(t, s.Set("k", in))
	in[0] = 'X'

	got, ok, err := s.Get("k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "value", string(got), "stored value must not alias the caller's slice")

	require.NoError(t, s.Remove("k"))
	_, ok, _ = s.Get("k")
	assert.False(t, ok)
}

func TestJSONHelpers(t *testing.T) {
	var s Store = NewMemoryStore()

	flag, err := GetFlag(s, KeyFrozenFlag)
	require.NoError(t, err)
	assert.False(t, flag)

	require.NoError(t, SetJSON(s, KeyFrozenFlag, true))
	flag, err = GetFlag(s, KeyFrozenFlag)
	require.NoError(t, err)
	assert.True(t, flag)

	require.NoError(t, s.Set(KeySteps, []byte("{not json")))
	var steps []model.MigrationStep
	_, err = GetJSON(s, KeySteps, &steps)
	assert.Error(t, err)
}

func TestMemoryStoreAuditLimit(t *testing.T) {
	s := NewMemoryStore()
	for _, action := range []string{"a", "b", "c"} {
		require.NoError(t, s.AppendAudit(model.AuditEntry{Action: action}))
	}

	all, err := s.ListAudit(0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.False(t, all[0].Timestamp.IsZero())

	last, err := s.ListAudit(2)
	require.NoError(t, err)
	require.Len(t, last, 2)
	assert.Equal(t, "b", last[0].Action)
	assert.Equal(t, "c", last[1].Action)
}

func TestConsulStubFallsBackToMemory(t *testing.T) {
	s, err := NewConsulStore("127.0.0.1:8500", "test")
	require.NoError(t, err)
	require.NoError(t, s.Set("k", []byte("v")))
	_, ok, err := s.Get("k")
	require.NoError(t, err)
	assert.True(t, ok)
}
