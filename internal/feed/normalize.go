package feed

import (
	"encoding/json"
	"sort"

	"github.com/castscope/castscope/internal/models"
)

// textExtractors are tried in order; the first non-empty result wins. The
// upstream API has shipped the cast text in three different places across
// versions, so extraction stays centralized here.
var textExtractors = []func(*models.RawCast) string{
	func(c *models.RawCast) string {
		return c.Text
	},
	func(c *models.RawCast) string {
		if c.CastAddBody != nil {
			return c.CastAddBody.Text
		}
		return ""
	},
	func(c *models.RawCast) string {
		if c.Body != nil {
			return c.Body.Text
		}
		return ""
	},
}

func extractText(c *models.RawCast) string {
	for _, extract := range textExtractors {
		if text := extract(c); text != "" {
			return text
		}
	}
	return ""
}

func countOf(c *models.Count) int {
	if c == nil {
		return 0
	}
	return c.Count
}

// engagementOf scores a cast as likes + recasts. Replies are reported in
// the breakdown but excluded from the score.
func engagementOf(c *models.RawCast) models.Engagement {
	likes := countOf(c.Reactions)
	recasts := countOf(c.Recasts)
	return models.Engagement{
		Likes:   likes,
		Recasts: recasts,
		Replies: countOf(c.Replies),
		Total:   likes + recasts,
	}
}

// normalizeCast converts an upstream cast of any observed shape into a
// fully-defaulted FeedCast. Missing fields become zero values; nothing
// downstream checks for absence again.
func normalizeCast(c models.RawCast) models.FeedCast {
	author := models.CastAuthor{}
	if c.Author != nil {
		author.Username = c.Author.Username
		author.DisplayName = c.Author.DisplayName
		author.FID = c.Author.FID
		if c.Author.Pfp != nil {
			author.ProfileImage = c.Author.Pfp.URL
		}
	}

	embeds := c.Embeds
	if embeds == nil && c.CastAddBody != nil {
		embeds = c.CastAddBody.Embeds
	}
	if embeds == nil {
		embeds = []json.RawMessage{}
	}

	return models.FeedCast{
		ID:         c.Hash,
		Author:     author,
		Text:       extractText(&c),
		Timestamp:  c.Timestamp,
		Engagement: engagementOf(&c),
		Embeds:     embeds,
	}
}

// rankCasts normalizes, sorts descending by engagement score and truncates
// to limit. Ranking happens only after collection completes, so the cap
// reflects global engagement rank rather than arrival order.
func rankCasts(raw []models.RawCast, limit int) []models.FeedCast {
	casts := make([]models.FeedCast, 0, len(raw))
	for _, c := range raw {
		casts = append(casts, normalizeCast(c))
	}

	sort.Slice(casts, func(i, j int) bool {
		return casts[i].Engagement.Total > casts[j].Engagement.Total
	})

	if limit > 0 && len(casts) > limit {
		casts = casts[:limit]
	}
	return casts
}

func formatFollower(u models.User) models.FeedFollower {
	f := models.FeedFollower{
		FID:            u.FID,
		Username:       u.Username,
		DisplayName:    u.DisplayName,
		FollowerCount:  u.FollowerCount,
		FollowingCount: u.FollowingCount,
	}
	if u.Pfp != nil {
		f.Pfp = u.Pfp.URL
	}
	if u.Profile != nil && u.Profile.Bio != nil {
		f.Bio = u.Profile.Bio.Text
	}
	return f
}
