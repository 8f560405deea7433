package models

import (
	"encoding/json"
	"time"
)

// Channel represents a channel from the social-graph catalog
type Channel struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Description   string `json:"description,omitempty"`
	ImageURL      string `json:"imageUrl,omitempty"`
	FollowerCount int    `json:"followerCount"`
}

// User represents a user record as returned by the upstream API.
// Only FID is guaranteed; everything else is best-effort.
type User struct {
	FID            int64        `json:"fid"`
	Username       string       `json:"username,omitempty"`
	DisplayName    string       `json:"displayName,omitempty"`
	Pfp            *Pfp         `json:"pfp,omitempty"`
	Profile        *UserProfile `json:"profile,omitempty"`
	FollowerCount  int          `json:"followerCount,omitempty"`
	FollowingCount int          `json:"followingCount,omitempty"`
}

// Pfp is the upstream profile-picture wrapper
type Pfp struct {
	URL string `json:"url"`
}

// UserProfile carries the nested bio blob some API versions return
type UserProfile struct {
	Bio *UserBio `json:"bio,omitempty"`
}

// UserBio holds the bio text
type UserBio struct {
	Text string `json:"text"`
}

// RawCast is an upstream cast in any of the observed shapes. Text may live
// at Text, CastAddBody.Text or Body.Text; count sub-objects may be absent.
// Normalization treats every missing field as a zero default.
type RawCast struct {
	Hash        string            `json:"hash"`
	Text        string            `json:"text,omitempty"`
	Timestamp   int64             `json:"timestamp"`
	Author      *User             `json:"author,omitempty"`
	CastAddBody *CastBody         `json:"castAddBody,omitempty"`
	Body        *CastBody         `json:"body,omitempty"`
	Reactions   *Count            `json:"reactions,omitempty"`
	Recasts     *Count            `json:"recasts,omitempty"`
	Replies     *Count            `json:"replies,omitempty"`
	Embeds      []json.RawMessage `json:"embeds,omitempty"`
}

// CastBody is the nested cast payload used by older API versions
type CastBody struct {
	Text     string            `json:"text"`
	Mentions []int64           `json:"mentions,omitempty"`
	Embeds   []json.RawMessage `json:"embeds,omitempty"`
}

// Count is the upstream counter wrapper ({"count": n})
type Count struct {
	Count int `json:"count"`
}

// CastAuthor is the normalized author block of a feed cast
type CastAuthor struct {
	Username     string `json:"username"`
	DisplayName  string `json:"displayName"`
	ProfileImage string `json:"profileImage"`
	FID          int64  `json:"fid"`
}

// Engagement is the normalized engagement breakdown of a feed cast.
// Total is likes + recasts; replies are reported but not scored.
type Engagement struct {
	Likes   int `json:"likes"`
	Recasts int `json:"recasts"`
	Replies int `json:"replies"`
	Total   int `json:"total"`
}

// FeedCast is a fully-defaulted cast record in the external contract
type FeedCast struct {
	ID         string            `json:"id"`
	Author     CastAuthor        `json:"author"`
	Text       string            `json:"text"`
	Timestamp  int64             `json:"timestamp"`
	Engagement Engagement        `json:"engagement"`
	Embeds     []json.RawMessage `json:"embeds"`
}

// FeedMeta carries aggregation metadata alongside the casts
type FeedMeta struct {
	Channels            int       `json:"channels"`
	UniqueFollowers     int       `json:"uniqueFollowers"`
	TotalCastsCollected int       `json:"totalCastsCollected"`
	Timestamp           time.Time `json:"timestamp"`
	Message             string    `json:"message,omitempty"`
}

// FeedResult is the comprehensive-feed response. Short-circuit paths and the
// success path share this shape so callers never sniff it.
type FeedResult struct {
	Meta  FeedMeta   `json:"meta"`
	Casts []FeedCast `json:"casts"`
}

// FollowerFeedChannel is the channel block of a single-channel feed response
type FollowerFeedChannel struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	FollowerCount int    `json:"followerCount"`
}

// FollowerFeedMeta carries metadata for the single-channel feed
type FollowerFeedMeta struct {
	Channel             FollowerFeedChannel `json:"channel"`
	FollowersCount      int                 `json:"followersCount"`
	TotalCastsCollected int                 `json:"totalCastsCollected"`
	Timestamp           time.Time           `json:"timestamp"`
	Message             string              `json:"message,omitempty"`
}

// FeedFollower is the formatted follower record of a single-channel feed
type FeedFollower struct {
	FID            int64  `json:"fid"`
	Username       string `json:"username"`
	DisplayName    string `json:"displayName"`
	Pfp            string `json:"pfp"`
	Bio            string `json:"bio"`
	FollowerCount  int    `json:"followerCount"`
	FollowingCount int    `json:"followingCount"`
}

// FollowerFeedResult is the single-channel feed response
type FollowerFeedResult struct {
	Meta      FollowerFeedMeta `json:"meta"`
	Followers []FeedFollower   `json:"followers"`
	Casts     []FeedCast       `json:"casts"`
}

// TokenBalance is the ERC-20 balance lookup response
type TokenBalance struct {
	Username     string    `json:"username"`
	FID          int64     `json:"fid"`
	EthAddress   string    `json:"ethAddress"`
	TokenAddress string    `json:"tokenAddress"`
	Balance      Balance   `json:"balance"`
	Timestamp    time.Time `json:"timestamp"`
}

// Balance holds the raw and decimal-adjusted token balance
type Balance struct {
	Raw       string  `json:"raw"`
	Formatted float64 `json:"formatted"`
}
