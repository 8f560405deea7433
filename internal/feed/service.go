// Package feed implements the aggregation pipelines: channel discovery,
// follower expansion, cast collection, engagement ranking and response
// formatting. Everything here is request-scoped; nothing survives a build.
package feed

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/castscope/castscope/internal/batch"
	"github.com/castscope/castscope/internal/config"
	"github.com/castscope/castscope/internal/metrics"
	"github.com/castscope/castscope/internal/models"
)

// ErrChannelNotFound marks a follower-feed request for an unknown channel
var ErrChannelNotFound = errors.New("channel not found")

// Empty-state messages surfaced in meta.message on short-circuit paths
const (
	msgNoChannels  = "No channels found"
	msgNoFollowers = "No followers found for the selected channels"
	msgNoCasts     = "No casts found from the followers"

	msgChannelNoFollowers = "No followers found for this channel"
)

// SocialGraph is the slice of the upstream client the pipelines need.
// Tests substitute a mock.
type SocialGraph interface {
	AllChannels(ctx context.Context) ([]models.Channel, error)
	Channel(ctx context.Context, channelID string) (*models.Channel, error)
	ChannelFollowers(ctx context.Context, channelID string, limit int) ([]models.User, error)
	UserCasts(ctx context.Context, fid int64, limit int) ([]models.RawCast, error)
}

// Params are the per-request fan-out limits. Zero values take the configured
// defaults; values above the hard caps are clamped down.
type Params struct {
	ChannelLimit   int
	FollowerLimit  int
	CastLimit      int
	TotalCastLimit int
}

// Service drives the aggregation pipelines
type Service struct {
	cfg   *config.Config
	graph SocialGraph

	// sleep overrides the inter-batch delay function; nil means real time.
	// Tests use it to assert pacing without waiting.
	sleep func(ctx context.Context, d time.Duration)
	now   func() time.Time
}

// NewService creates a feed service over the given social graph
func NewService(cfg *config.Config, graph SocialGraph) *Service {
	return &Service{
		cfg:   cfg,
		graph: graph,
		now:   time.Now,
	}
}

func clamp(value, def, max int) int {
	if value <= 0 {
		return def
	}
	if value > max {
		return max
	}
	return value
}

func (s *Service) normalizeParams(p Params) Params {
	return Params{
		ChannelLimit:   clamp(p.ChannelLimit, s.cfg.DefaultChannelLimit, s.cfg.MaxChannelLimit),
		FollowerLimit:  clamp(p.FollowerLimit, s.cfg.DefaultFollowerLimit, s.cfg.MaxFollowerLimit),
		CastLimit:      clamp(p.CastLimit, s.cfg.DefaultCastLimit, s.cfg.MaxCastLimit),
		TotalCastLimit: clamp(p.TotalCastLimit, s.cfg.DefaultTotalCastLimit, s.cfg.MaxTotalCastLimit),
	}
}

// BuildComprehensiveFeed discovers the top channels, expands their follower
// sets, collects recent casts from every unique follower and returns them
// ranked by engagement. Per-item upstream failures degrade the result; only
// the initial catalog fetch is fatal.
func (s *Service) BuildComprehensiveFeed(ctx context.Context, params Params) (*models.FeedResult, error) {
	start := time.Now()
	params = s.normalizeParams(params)

	logrus.Infof("Building comprehensive feed (channels=%d followers=%d casts=%d total=%d)",
		params.ChannelLimit, params.FollowerLimit, params.CastLimit, params.TotalCastLimit)

	channels, err := s.graph.AllChannels(ctx)
	if err != nil {
		metrics.FeedBuilds.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("failed to fetch channel catalog: %w", err)
	}

	if len(channels) == 0 {
		metrics.FeedBuilds.WithLabelValues("empty").Inc()
		return s.emptyResult(0, 0, msgNoChannels), nil
	}

	// Top channels by follower count
	sort.Slice(channels, func(i, j int) bool {
		return channels[i].FollowerCount > channels[j].FollowerCount
	})
	if len(channels) > params.ChannelLimit {
		channels = channels[:params.ChannelLimit]
	}

	logrus.Infof("Processing top %d channels by follower count", len(channels))

	fids := s.collectFollowerPool(ctx, channels, params.FollowerLimit)
	uniqueFollowers := len(fids)
	if uniqueFollowers == 0 {
		metrics.FeedBuilds.WithLabelValues("empty").Inc()
		return s.emptyResult(len(channels), 0, msgNoFollowers), nil
	}

	logrus.Infof("Found %d unique followers across %d channels", uniqueFollowers, len(channels))

	if len(fids) > s.cfg.MaxFollowerPool {
		fids = fids[:s.cfg.MaxFollowerPool]
	}

	allCasts := s.collectCasts(ctx, fids, params.CastLimit)
	if len(allCasts) == 0 {
		metrics.FeedBuilds.WithLabelValues("empty").Inc()
		return s.emptyResult(len(channels), uniqueFollowers, msgNoCasts), nil
	}

	logrus.Infof("Collected %d casts from %d followers", len(allCasts), len(fids))

	casts := rankCasts(allCasts, params.TotalCastLimit)

	metrics.FeedBuilds.WithLabelValues("ok").Inc()
	metrics.FeedBuildDuration.Observe(time.Since(start).Seconds())

	return &models.FeedResult{
		Meta: models.FeedMeta{
			Channels:            len(channels),
			UniqueFollowers:     uniqueFollowers,
			TotalCastsCollected: len(casts),
			Timestamp:           s.now(),
		},
		Casts: casts,
	}, nil
}

// collectFollowerPool fetches each channel's followers in batches and
// accumulates unique fids. A channel whose fetch fails contributes nothing.
func (s *Service) collectFollowerPool(ctx context.Context, channels []models.Channel, followerLimit int) []int64 {
	groups := batch.Run(ctx, channels, batch.Options{
		Size:  s.cfg.ChannelBatchSize,
		Delay: s.cfg.ChannelBatchDelay,
		Sleep: s.sleep,
	}, func(ctx context.Context, ch models.Channel) ([]models.User, error) {
		users, err := s.graph.ChannelFollowers(ctx, ch.ID, followerLimit)
		if err != nil {
			return nil, fmt.Errorf("followers of channel %s: %w", ch.ID, err)
		}
		return users, nil
	})

	seen := make(map[int64]struct{})
	var fids []int64
	for _, users := range groups {
		for _, u := range users {
			if u.FID == 0 {
				continue
			}
			if _, ok := seen[u.FID]; ok {
				continue
			}
			seen[u.FID] = struct{}{}
			fids = append(fids, u.FID)
		}
	}
	return fids
}

// collectCasts fetches recent casts for every fid in batches. A follower
// whose fetch fails contributes nothing.
func (s *Service) collectCasts(ctx context.Context, fids []int64, castLimit int) []models.RawCast {
	groups := batch.Run(ctx, fids, batch.Options{
		Size:  s.cfg.FollowerBatchSize,
		Delay: s.cfg.FollowerBatchDelay,
		Sleep: s.sleep,
	}, func(ctx context.Context, fid int64) ([]models.RawCast, error) {
		casts, err := s.graph.UserCasts(ctx, fid, castLimit)
		if err != nil {
			return nil, fmt.Errorf("casts of fid %d: %w", fid, err)
		}
		if len(casts) > castLimit {
			casts = casts[:castLimit]
		}
		return casts, nil
	})
	return batch.Flatten(groups)
}

func (s *Service) emptyResult(channels, uniqueFollowers int, message string) *models.FeedResult {
	return &models.FeedResult{
		Meta: models.FeedMeta{
			Channels:            channels,
			UniqueFollowers:     uniqueFollowers,
			TotalCastsCollected: 0,
			Timestamp:           s.now(),
			Message:             message,
		},
		Casts: []models.FeedCast{},
	}
}

// BuildFollowerFeed is the single-channel variant: it looks the channel up,
// fetches its followers and returns their recent casts ranked by engagement
// together with the formatted follower list.
func (s *Service) BuildFollowerFeed(ctx context.Context, channelID string, params Params) (*models.FollowerFeedResult, error) {
	params = s.normalizeParams(params)

	channel, err := s.graph.Channel(ctx, channelID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch channel %s: %w", channelID, err)
	}
	if channel == nil {
		return nil, fmt.Errorf("%w: %s", ErrChannelNotFound, channelID)
	}

	meta := models.FollowerFeedMeta{
		Channel: models.FollowerFeedChannel{
			ID:            channel.ID,
			Name:          channel.Name,
			FollowerCount: channel.FollowerCount,
		},
		Timestamp: s.now(),
	}

	followers, err := s.graph.ChannelFollowers(ctx, channelID, params.FollowerLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch followers of channel %s: %w", channelID, err)
	}

	if len(followers) == 0 {
		meta.Message = msgChannelNoFollowers
		return &models.FollowerFeedResult{
			Meta:      meta,
			Followers: []models.FeedFollower{},
			Casts:     []models.FeedCast{},
		}, nil
	}

	formatted := make([]models.FeedFollower, 0, len(followers))
	fids := make([]int64, 0, len(followers))
	for _, f := range followers {
		formatted = append(formatted, formatFollower(f))
		if f.FID != 0 {
			fids = append(fids, f.FID)
		}
	}
	meta.FollowersCount = len(followers)

	allCasts := s.collectCasts(ctx, fids, params.CastLimit)
	if len(allCasts) == 0 {
		meta.Message = msgNoCasts
		return &models.FollowerFeedResult{
			Meta:      meta,
			Followers: formatted,
			Casts:     []models.FeedCast{},
		}, nil
	}

	casts := rankCasts(allCasts, params.TotalCastLimit)
	meta.TotalCastsCollected = len(casts)

	return &models.FollowerFeedResult{
		Meta:      meta,
		Followers: formatted,
		Casts:     casts,
	}, nil
}

// TopChannels returns the catalog's top channels by follower count
func (s *Service) TopChannels(ctx context.Context, limit int) ([]models.Channel, error) {
	channels, err := s.graph.AllChannels(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch channel catalog: %w", err)
	}

	sort.Slice(channels, func(i, j int) bool {
		return channels[i].FollowerCount > channels[j].FollowerCount
	})
	if limit > 0 && len(channels) > limit {
		channels = channels[:limit]
	}
	return channels, nil
}
