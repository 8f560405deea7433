package farcaster

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/castscope/castscope/internal/config"
)

func testClient(baseURL string) *Client {
	return NewClient(&config.Config{
		FarcasterBaseURL: baseURL,
		RequestTimeout:   5 * time.Second,
		UserAgent:        "castscope-test/1.0",
		UpstreamRPS:      1000,
		UpstreamBurst:    1000,
	})
}

func TestAllChannels(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/all-channels", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"result":{"channels":[
			{"id":"books","name":"Books","followerCount":1200},
			{"id":"music","name":"Music","followerCount":800}
		]}}`))
	}))
	defer ts.Close()

	channels, err := testClient(ts.URL).AllChannels(context.Background())
	assert.NoError(t, err)

	assert.Len(t, channels, 2)
	assert.Equal(t, "books", channels[0].ID)
	assert.Equal(t, 1200, channels[0].FollowerCount)
}

func TestChannelFollowers_QueryParams(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/channel-followers", r.URL.Path)
		assert.Equal(t, "books", r.URL.Query().Get("channelId"))
		assert.Equal(t, "25", r.URL.Query().Get("limit"))
		w.Write([]byte(`{"result":{"users":[{"fid":7,"username":"alice"}]}}`))
	}))
	defer ts.Close()

	users, err := testClient(ts.URL).ChannelFollowers(context.Background(), "books", 25)
	assert.NoError(t, err)

	assert.Len(t, users, 1)
	assert.Equal(t, int64(7), users[0].FID)
}

func TestUserCasts_DecodesHeterogeneousShapes(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"result":{"casts":[
			{"hash":"0x1","text":"plain","reactions":{"count":3}},
			{"hash":"0x2","castAddBody":{"text":"nested"}},
			{"hash":"0x3","body":{"text":"legacy"}}
		]}}`))
	}))
	defer ts.Close()

	casts, err := testClient(ts.URL).UserCasts(context.Background(), 7, 10)
	assert.NoError(t, err)

	assert.Len(t, casts, 3)
	assert.Equal(t, "plain", casts[0].Text)
	assert.Equal(t, 3, casts[0].Reactions.Count)
	assert.Equal(t, "nested", casts[1].CastAddBody.Text)
	assert.Equal(t, "legacy", casts[2].Body.Text)
}

func TestGet_NonOKStatusIsAPIError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "slow down", http.StatusTooManyRequests)
	}))
	defer ts.Close()

	_, err := testClient(ts.URL).AllChannels(context.Background())
	assert.Error(t, err)

	var apiErr *APIError
	assert.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusTooManyRequests, apiErr.Status)
}

func TestCastMentions_Cursor(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "42", r.URL.Query().Get("mentionedFid"))
		assert.Equal(t, "abc", r.URL.Query().Get("cursor"))
		w.Write([]byte(`{"result":{"casts":[{"hash":"0x1"}],"next":{"cursor":"def"}}}`))
	}))
	defer ts.Close()

	casts, next, err := testClient(ts.URL).CastMentions(context.Background(), 42, 20, "abc")
	assert.NoError(t, err)

	assert.Len(t, casts, 1)
	assert.Equal(t, "def", next)
}

func TestPrimaryAddress(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/fc/primary-address", r.URL.Path)
		assert.Equal(t, "ethereum", r.URL.Query().Get("protocol"))
		w.Write([]byte(`{"result":{"address":{"address":"0xdeadbeef","protocol":"ethereum"}}}`))
	}))
	defer ts.Close()

	address, err := testClient(ts.URL).PrimaryAddress(context.Background(), 42)
	assert.NoError(t, err)
	assert.Equal(t, "0xdeadbeef", address)
}
