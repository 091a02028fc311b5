package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// fakeProbe serves canned counts/visibility per selector.
type fakeProbe struct {
	counts  map[string]int
	visible map[string]bool
}

func (f fakeProbe) Count(selector string) int {
	return f.counts[selector]
}

func (f fakeProbe) IsVisible(selector string) bool {
	return f.visible[selector]
}

func TestResolveSelector_FirstExistingWins(t *testing.T) {
	probe := fakeProbe{counts: map[string]int{".missing": 0, ".real": 1}}

	selector, ok := ResolveSelector(probe, []string{".missing", ".real"})

	assert.True(t, ok)
	assert.Equal(t, ".real", selector)
}

func TestResolveSelector_ExistenceNotVisibilityGoverns(t *testing.T) {
	// .hidden exists but is invisible; resolve must still pick it over .shown.
	probe := fakeProbe{
		counts:  map[string]int{".hidden": 2, ".shown": 1},
		visible: map[string]bool{".hidden": false, ".shown": true},
	}

	selector, ok := ResolveSelector(probe, []string{".hidden", ".shown"})

	assert.True(t, ok)
	assert.Equal(t, ".hidden", selector)
}

func TestResolveSelector_NoneExists(t *testing.T) {
	probe := fakeProbe{counts: map[string]int{}}

	_, ok := ResolveSelector(probe, []string{".a", ".b"})
	assert.False(t, ok)
}

func TestResolveSelector_NilProbe(t *testing.T) {
	_, ok := ResolveSelector(nil, []string{".a"})
	assert.False(t, ok)
}

func TestFirstVisibleSelector_SkipsInvisible(t *testing.T) {
	probe := fakeProbe{
		counts:  map[string]int{".hidden": 1, ".shown": 1},
		visible: map[string]bool{".hidden": false, ".shown": true},
	}

	selector, ok := FirstVisibleSelector(probe, []string{".hidden", ".shown"})

	assert.True(t, ok)
	assert.Equal(t, ".shown", selector)
}

func TestIsAnyVisible(t *testing.T) {
	probe := fakeProbe{
		counts:  map[string]int{".a": 1},
		visible: map[string]bool{".a": true},
	}

	assert.True(t, IsAnyVisible(probe, []string{".x", ".a"}))
	assert.False(t, IsAnyVisible(probe, []string{".x", ".y"}))
}
