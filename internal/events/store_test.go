package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendAndList(t *testing.T) {
	s := NewStore()
	var seen []string
	s.OnAppend = func(e Event) { seen = append(seen, e.Type) }

	s.Append("r1", RoundOpened, nil)
	s.Append("r2", RoundOpened, nil)
	s.Append("r1", BuzzGranted, map[string]any{"contestant": 2})

	got := s.List("r1")
	require.Len(t, got, 2)
	assert.Equal(t, BuzzGranted, got[1].Type)
	assert.Less(t, got[0].Seq, got[1].Seq)
	assert.Equal(t, []string{RoundOpened, RoundOpened, BuzzGranted}, seen)

	all := s.All()
	require.Len(t, all, 3)
	assert.Equal(t, "r1", all[0].RoundID)
	assert.Equal(t, "r2", all[2].RoundID)
}

func TestRoundIsCapped(t *testing.T) {
	s := NewStore()
	for i := 0; i < maxEvents+25; i++ {
		s.Append("r", BuzzDropped, nil)
	}
	got := s.List("r")
	require.Len(t, got, maxEvents)
	assert.Equal(t, int64(26), got[0].Seq)
}
