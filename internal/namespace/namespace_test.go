package namespace

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve(t *testing.T) {
	r := NewStatic(map[string]int{"Talk": 1, "User_talk": 3, "Straße": 100, "  ": 7})

	testCases := map[string]struct {
		name     string
		foldCase bool
		id       int
		found    bool
	}{
		"exact":               {name: "Talk", id: 1, found: true},
		"case sensitive miss": {name: "talk"},
		"folded":              {name: "TALK", foldCase: true, id: 1, found: true},
		"underscore":          {name: "User_talk", id: 3, found: true},
		"space":               {name: "User talk", id: 3, found: true},
		"folded underscore":   {name: "user_TALK", foldCase: true, id: 3, found: true},
		"unicode fold":        {name: "STRASSE", foldCase: true, id: 100, found: true},
		"unknown":             {name: "Nope", foldCase: true},
		"blank":               {name: " ", foldCase: true},
		"empty":               {name: "", foldCase: true},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			id, found := r.Resolve(tc.name, tc.foldCase)
			assert.Equal(t, tc.found, found)
			assert.Equal(t, tc.id, id)
		})
	}
	assert.Equal(t, []string{"Straße", "Talk", "User talk"}, r.Names())
}

func TestDigest(t *testing.T) {
	a := NewStatic(map[string]int{"Talk": 1, "User_talk": 3})
	b := NewStatic(map[string]int{"User talk": 3, "Talk": 1})
	assert.Equal(t, a.Digest(), b.Digest())
	assert.Equal(t, "Talk=1\nUser talk=3", a.Digest())

	a.Replace(map[string]int{"Talk": 1, "User_talk": 4})
	assert.NotEqual(t, a.Digest(), b.Digest())
	assert.Empty(t, NewStatic(nil).Digest())
}

type fakeLoader struct {
	names map[string]int
	err   error
}

func (f *fakeLoader) Load(context.Context) (map[string]int, error) {
	return f.names, f.err
}

func TestRefresher(t *testing.T) {
	r := NewStatic(nil)
	loader := &fakeLoader{names: map[string]int{"Talk": 1, "Project": 4}}
	ref := NewRefresher(r, loader, map[string]int{"Project": 99, "User": 2}, 0)
	changes := 0
	ref.OnChange(func(context.Context) { changes++ })

	require.NoError(t, ref.Refresh(context.Background()))
	require.NoError(t, ref.Refresh(context.Background()))
	assert.Equal(t, 1, changes, "an identical reload is not a change")
	id, ok := r.Resolve("Project", false)
	require.True(t, ok)
	assert.Equal(t, 4, id, "loaded names win over static ones")
	_, ok = r.Resolve("User", false)
	assert.True(t, ok)

	loader.err = errors.New("db down")
	assert.Error(t, ref.Refresh(context.Background()))
	assert.Equal(t, 3, r.Len(), "a failed refresh keeps the table")
}
