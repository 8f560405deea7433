package server

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/castscope/castscope/internal/etherscan"
	"github.com/castscope/castscope/internal/feed"
	"github.com/castscope/castscope/internal/models"
)

func queryInt(r *http.Request, name string) int {
	value := r.URL.Query().Get(name)
	if value == "" {
		return 0
	}
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed < 0 {
		return 0
	}
	return parsed
}

func queryInt64(r *http.Request, name string) int64 {
	value := r.URL.Query().Get(name)
	if value == "" {
		return 0
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil || parsed < 0 {
		return 0
	}
	return parsed
}

func clampLimit(value, def, max int) int {
	if value <= 0 {
		return def
	}
	if value > max {
		return max
	}
	return value
}

func feedParams(r *http.Request) feed.Params {
	return feed.Params{
		ChannelLimit:   queryInt(r, "channelLimit"),
		FollowerLimit:  queryInt(r, "followerLimit"),
		CastLimit:      queryInt(r, "castLimit"),
		TotalCastLimit: queryInt(r, "totalCastLimit"),
	}
}

func (s *Server) comprehensiveFeedHandler(w http.ResponseWriter, r *http.Request) {
	result, err := s.feed.BuildComprehensiveFeed(r.Context(), feedParams(r))
	if err != nil {
		logrus.Errorf("Error building comprehensive feed: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to build comprehensive feed", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) followerFeedHandler(w http.ResponseWriter, r *http.Request) {
	channelID := r.URL.Query().Get("channelId")
	if channelID == "" {
		writeError(w, http.StatusBadRequest, "Missing required parameter: channelId", "the channelId query parameter is required")
		return
	}

	result, err := s.feed.BuildFollowerFeed(r.Context(), channelID, feedParams(r))
	if err != nil {
		if errors.Is(err, feed.ErrChannelNotFound) {
			writeError(w, http.StatusNotFound, "Channel not found: "+channelID, err.Error())
			return
		}
		logrus.Errorf("Error building follower feed for channel %s: %v", channelID, err)
		writeError(w, http.StatusInternalServerError, "Failed to generate follower feed", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) topChannelsHandler(w http.ResponseWriter, r *http.Request) {
	limit := clampLimit(queryInt(r, "limit"), 10, 50)

	channels, err := s.feed.TopChannels(r.Context(), limit)
	if err != nil {
		logrus.Errorf("Error fetching top channels: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to fetch top channels", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"channels":  channels,
		"count":     len(channels),
		"timestamp": time.Now(),
	})
}

func (s *Server) trendingCastsHandler(w http.ResponseWriter, r *http.Request) {
	timeframe := r.URL.Query().Get("timeframe")
	if timeframe == "" {
		timeframe = "24h"
	}
	filter := r.URL.Query().Get("filter")
	limit := clampLimit(queryInt(r, "limit"), 100, 100)

	casts, err := s.social.TrendingCasts(r.Context(), timeframe, filter, limit)
	if err != nil {
		logrus.Errorf("Error fetching trending casts: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to fetch trending casts", err.Error())
		return
	}

	resp := map[string]any{
		"casts":     casts,
		"timeframe": timeframe,
		"timestamp": time.Now(),
	}
	if filter != "" {
		resp["filter"] = filter
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) castRepliesHandler(w http.ResponseWriter, r *http.Request) {
	parentFID := queryInt64(r, "parentFid")
	parentHash := r.URL.Query().Get("parentHash")
	if parentFID == 0 || parentHash == "" {
		writeError(w, http.StatusBadRequest, "Missing required parameters: parentFid and parentHash",
			"both parentFid and parentHash query parameters are required")
		return
	}

	limit := clampLimit(queryInt(r, "limit"), 20, 100)
	cursor := r.URL.Query().Get("cursor")

	replies, nextCursor, err := s.social.CastReplies(r.Context(), parentFID, parentHash, limit, cursor)
	if err != nil {
		logrus.Errorf("Error fetching cast replies: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to fetch cast replies", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"replies":    replies,
		"nextCursor": nullableCursor(nextCursor),
	})
}

func (s *Server) castMentionsHandler(w http.ResponseWriter, r *http.Request) {
	fid := queryInt64(r, "fid")
	if fid == 0 {
		writeError(w, http.StatusBadRequest, "Missing required parameter: fid",
			"the fid query parameter is required")
		return
	}

	limit := clampLimit(queryInt(r, "limit"), 20, 100)
	cursor := r.URL.Query().Get("cursor")

	mentions, nextCursor, err := s.social.CastMentions(r.Context(), fid, limit, cursor)
	if err != nil {
		logrus.Errorf("Error fetching cast mentions: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to fetch cast mentions", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"mentions":   mentions,
		"nextCursor": nullableCursor(nextCursor),
	})
}

func nullableCursor(cursor string) any {
	if cursor == "" {
		return nil
	}
	return cursor
}

func (s *Server) channelHandler(w http.ResponseWriter, r *http.Request) {
	channelID := r.URL.Query().Get("channelId")
	if channelID == "" {
		writeError(w, http.StatusBadRequest, "Missing required parameter: channelId",
			"the channelId query parameter is required")
		return
	}

	channel, err := s.social.Channel(r.Context(), channelID)
	if err != nil {
		logrus.Errorf("Error fetching channel %s: %v", channelID, err)
		writeError(w, http.StatusInternalServerError, "Failed to fetch channel", err.Error())
		return
	}
	if channel == nil {
		writeError(w, http.StatusNotFound, "Channel not found: "+channelID,
			"no channel with the given id exists")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"channel": channel})
}

func (s *Server) userHandler(w http.ResponseWriter, r *http.Request) {
	username := r.URL.Query().Get("username")
	if username == "" {
		writeError(w, http.StatusBadRequest, "Missing required parameter: username",
			"the username query parameter is required")
		return
	}

	user, err := s.social.UserByUsername(r.Context(), username)
	if err != nil {
		logrus.Errorf("Error fetching user %s: %v", username, err)
		writeError(w, http.StatusInternalServerError, "Failed to fetch user", err.Error())
		return
	}
	if user == nil {
		writeError(w, http.StatusNotFound, "User not found", "no user with the given username exists")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"user": user})
}

func (s *Server) tokenBalanceHandler(w http.ResponseWriter, r *http.Request) {
	username := r.URL.Query().Get("username")
	if username == "" {
		writeError(w, http.StatusBadRequest, "Missing required parameter: username",
			"the username query parameter is required")
		return
	}

	tokenAddress := r.URL.Query().Get("tokenAddress")
	if tokenAddress == "" {
		tokenAddress = s.cfg.TokenAddress
	}
	if tokenAddress == "" {
		writeError(w, http.StatusBadRequest, "Missing required parameter: tokenAddress",
			"provide the tokenAddress query parameter or configure TOKEN_ADDRESS")
		return
	}

	ctx := r.Context()

	user, err := s.social.UserByUsername(ctx, username)
	if err != nil {
		logrus.Errorf("Error looking up user %s: %v", username, err)
		writeError(w, http.StatusInternalServerError, "Failed to fetch token balance", err.Error())
		return
	}
	if user == nil || user.FID == 0 {
		writeError(w, http.StatusNotFound, "User not found or FID not available",
			"no user with the given username exists")
		return
	}

	ethAddress, err := s.social.PrimaryAddress(ctx, user.FID)
	if err != nil {
		logrus.Errorf("Error resolving address for fid %d: %v", user.FID, err)
		writeError(w, http.StatusInternalServerError, "Failed to fetch token balance", err.Error())
		return
	}
	if ethAddress == "" {
		writeError(w, http.StatusNotFound, "User has no verified Ethereum address",
			"the user has not verified an Ethereum address")
		return
	}

	raw, err := s.explorer.TokenBalance(ctx, tokenAddress, ethAddress)
	if err != nil {
		logrus.Errorf("Error fetching token balance for %s: %v", username, err)
		writeError(w, http.StatusInternalServerError, "Failed to fetch token balance", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, models.TokenBalance{
		Username:     username,
		FID:          user.FID,
		EthAddress:   ethAddress,
		TokenAddress: tokenAddress,
		Balance: models.Balance{
			Raw:       raw,
			Formatted: etherscan.FormatBalance(raw),
		},
		Timestamp: time.Now(),
	})
}
