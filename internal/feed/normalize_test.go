package feed

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/castscope/castscope/internal/models"
)

func TestExtractText(t *testing.T) {
	tests := []struct {
		name     string
		cast     models.RawCast
		expected string
	}{
		{
			name:     "Top-level text",
			cast:     models.RawCast{Text: "hello"},
			expected: "hello",
		},
		{
			name:     "Nested castAddBody text only",
			cast:     models.RawCast{CastAddBody: &models.CastBody{Text: "from castAddBody"}},
			expected: "from castAddBody",
		},
		{
			name:     "Nested body text only",
			cast:     models.RawCast{Body: &models.CastBody{Text: "from body"}},
			expected: "from body",
		},
		{
			name: "Top-level wins over nested",
			cast: models.RawCast{
				Text:        "top",
				CastAddBody: &models.CastBody{Text: "nested"},
				Body:        &models.CastBody{Text: "deeper"},
			},
			expected: "top",
		},
		{
			name: "castAddBody wins over body",
			cast: models.RawCast{
				CastAddBody: &models.CastBody{Text: "nested"},
				Body:        &models.CastBody{Text: "deeper"},
			},
			expected: "nested",
		},
		{
			name:     "No text anywhere",
			cast:     models.RawCast{Hash: "0xabc"},
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, extractText(&tt.cast))
		})
	}
}

func TestEngagementOf(t *testing.T) {
	tests := []struct {
		name     string
		cast     models.RawCast
		expected models.Engagement
	}{
		{
			name: "All counts present",
			cast: models.RawCast{
				Reactions: &models.Count{Count: 4},
				Recasts:   &models.Count{Count: 3},
				Replies:   &models.Count{Count: 9},
			},
			expected: models.Engagement{Likes: 4, Recasts: 3, Replies: 9, Total: 7},
		},
		{
			name:     "All counts absent",
			cast:     models.RawCast{},
			expected: models.Engagement{},
		},
		{
			name: "Replies excluded from the score",
			cast: models.RawCast{
				Replies: &models.Count{Count: 100},
			},
			expected: models.Engagement{Replies: 100, Total: 0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, engagementOf(&tt.cast))
		})
	}
}

func TestNormalizeCast_DefaultsMissingFields(t *testing.T) {
	cast := normalizeCast(models.RawCast{Hash: "0x1"})

	assert.Equal(t, "0x1", cast.ID)
	assert.Equal(t, "", cast.Text)
	assert.Equal(t, models.CastAuthor{}, cast.Author)
	assert.Equal(t, models.Engagement{}, cast.Engagement)
}

func TestNormalizeCast_Author(t *testing.T) {
	cast := normalizeCast(models.RawCast{
		Hash: "0x2",
		Author: &models.User{
			FID:         42,
			Username:    "alice",
			DisplayName: "Alice",
			Pfp:         &models.Pfp{URL: "https://img.example/alice.png"},
		},
	})

	assert.Equal(t, models.CastAuthor{
		Username:     "alice",
		DisplayName:  "Alice",
		ProfileImage: "https://img.example/alice.png",
		FID:          42,
	}, cast.Author)
}

func TestRankCasts_SortsDescendingAndTruncates(t *testing.T) {
	raw := []models.RawCast{
		{Hash: "low", Reactions: &models.Count{Count: 1}},
		{Hash: "high", Reactions: &models.Count{Count: 10}, Recasts: &models.Count{Count: 5}},
		{Hash: "mid", Recasts: &models.Count{Count: 4}},
		{Hash: "zero"},
	}

	ranked := rankCasts(raw, 3)

	assert.Len(t, ranked, 3)
	for i := 1; i < len(ranked); i++ {
		assert.GreaterOrEqual(t, ranked[i-1].Engagement.Total, ranked[i].Engagement.Total)
	}
	assert.Equal(t, "high", ranked[0].ID)
}

func TestFormatFollower_NilSafe(t *testing.T) {
	follower := formatFollower(models.User{FID: 7, Username: "bob"})

	assert.Equal(t, int64(7), follower.FID)
	assert.Equal(t, "", follower.Pfp)
	assert.Equal(t, "", follower.Bio)
}
