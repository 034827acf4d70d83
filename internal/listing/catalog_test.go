package listing

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dailypixel/storydesk/internal/post"
)

func TestTags_FirstSeenCaseInsensitive(t *testing.T) {
	got := Tags(eightPosts())
	assert.Equal(t, []string{
		"nature", "forest", "mountains", "travel", "sea", "photography",
		"interview", "city", "night", "food", "road",
	}, got)
}

func TestCategories(t *testing.T) {
	got := Categories(eightPosts())
	assert.Equal(t, []string{"Nature", "Travel", "Interviews", "City", "Essays"}, got)
}

func TestRecent(t *testing.T) {
	got := titlesOf(Recent(eightPosts(), 3))
	assert.Equal(t, []string{"Quiet Rooms", "Desert Roads", "Market Mornings"}, got)

	assert.Len(t, Recent(eightPosts(), 50), 8)
	assert.Empty(t, Recent(eightPosts(), 0))
	assert.Empty(t, Recent(nil, 5))
}

func TestRelated(t *testing.T) {
	posts := eightPosts()

	got := titlesOf(Related(posts, []string{"Nature", "sea"}, "The Echo of Mountains", 3))
	assert.Equal(t, []string{"Whispers Beneath the Pines", "Harbor Lights at Dusk"}, got)

	limited := Related(posts, []string{"travel", "city"}, "", 3)
	assert.Len(t, limited, 3)

	assert.Empty(t, Related(posts, nil, "", 3))
	assert.Empty(t, Related(posts, []string{"nature"}, "", 0))
}

func TestFindByTitle(t *testing.T) {
	p, ok := FindByTitle(eightPosts(), "  the echo OF mountains")
	assert.True(t, ok)
	assert.Equal(t, "Nature", p.Category)

	_, ok = FindByTitle(eightPosts(), "missing")
	assert.False(t, ok)

	_, ok = FindByTitle([]post.Post{{Title: ""}}, "")
	assert.False(t, ok)
}
