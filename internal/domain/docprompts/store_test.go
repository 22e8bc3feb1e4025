package docprompts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_SetGetDelete(t *testing.T) {
	s := NewStore()
	key := Key{EHR: "ecw", DocumentType: "Progress Notes"}

	_, ok := s.Get(key)
	assert.False(t, ok)

	require.NoError(t, s.Set(key, "Summarize the prior visits."))
	p, ok := s.Get(key)
	require.True(t, ok)
	assert.Equal(t, "Summarize the prior visits.", p)

	s.Delete(key)
	_, ok = s.Get(key)
	assert.False(t, ok)
	s.Delete(key)
}

func TestStore_EmptyPromptIsMissing(t *testing.T) {
	s := NewStore()
	key := Key{EHR: "ecw", DocumentType: "Imaging"}
	require.NoError(t, s.Set(key, ""))

	_, ok := s.Get(key)
	assert.False(t, ok)
}

func TestStore_InvalidKey(t *testing.T) {
	s := NewStore()
	assert.ErrorIs(t, s.Set(Key{EHR: "ecw"}, "x"), ErrInvalidKey)
	assert.ErrorIs(t, s.Set(Key{DocumentType: "Imaging"}, "x"), ErrInvalidKey)
}

func TestStore_KeysWithHyphens(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.Set(Key{EHR: "ecw-v2", DocumentType: "notes"}, "a"))
	require.NoError(t, s.Set(Key{EHR: "ecw", DocumentType: "v2-notes"}, "b"))

	a, _ := s.Get(Key{EHR: "ecw-v2", DocumentType: "notes"})
	b, _ := s.Get(Key{EHR: "ecw", DocumentType: "v2-notes"})
	assert.Equal(t, "a", a)
	assert.Equal(t, "b", b)
	assert.Equal(t, 2, s.Len())
}

func TestStore_ReplaceIsAllOrNothing(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.Set(Key{EHR: "ecw", DocumentType: "Imaging"}, "old"))

	err := s.Replace([]Entry{
		{Key: Key{EHR: "epic", DocumentType: "Imaging"}, Prompt: "new"},
		{Key: Key{EHR: "", DocumentType: "Imaging"}, Prompt: "bad"},
	})
	require.ErrorIs(t, err, ErrInvalidKey)

	p, ok := s.Get(Key{EHR: "ecw", DocumentType: "Imaging"})
	require.True(t, ok)
	assert.Equal(t, "old", p)

	require.NoError(t, s.Replace([]Entry{
		{Key: Key{EHR: "epic", DocumentType: "Imaging"}, Prompt: "new"},
		{Key: Key{EHR: "athena", DocumentType: "Medications"}, Prompt: "meds"},
	}))
	list := s.List()
	require.Len(t, list, 2)
	assert.Equal(t, "athena", list[0].EHR)
	assert.Equal(t, "epic", list[1].EHR)
	_, ok = s.Get(Key{EHR: "ecw", DocumentType: "Imaging"})
	assert.False(t, ok)
}
