package etherscan

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/castscope/castscope/internal/config"
)

func testClient(baseURL string) *Client {
	return NewClient(&config.Config{
		EtherscanBaseURL: baseURL,
		EtherscanAPIKey:  "test-key",
		RequestTimeout:   5 * time.Second,
		UserAgent:        "castscope-test/1.0",
	})
}

func TestTokenBalance(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "account", q.Get("module"))
		assert.Equal(t, "tokenbalance", q.Get("action"))
		assert.Equal(t, "0xtoken", q.Get("contractaddress"))
		assert.Equal(t, "0xholder", q.Get("address"))
		assert.Equal(t, "test-key", q.Get("apikey"))
		w.Write([]byte(`{"status":"1","message":"OK","result":"2500000000000000000"}`))
	}))
	defer ts.Close()

	raw, err := testClient(ts.URL).TokenBalance(context.Background(), "0xtoken", "0xholder")
	assert.NoError(t, err)
	assert.Equal(t, "2500000000000000000", raw)
}

func TestTokenBalance_ExplorerError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"0","message":"NOTOK","result":"Max rate limit reached"}`))
	}))
	defer ts.Close()

	_, err := testClient(ts.URL).TokenBalance(context.Background(), "0xtoken", "0xholder")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "NOTOK")
}

func TestFormatBalance(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected float64
	}{
		{name: "Whole tokens", raw: "2500000000000000000", expected: 2.5},
		{name: "Zero", raw: "0", expected: 0},
		{name: "Garbage", raw: "not-a-number", expected: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, FormatBalance(tt.raw))
		})
	}
}
