package holdings

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testWallet = "9WzDXwBbmkg8ZTbNMqUxvQRAyrZzDsGYdLVL9zYtAWWM"
	usdcMint   = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"
	bonkMint   = "DezXAZ8z7PnrnRJjz3wXBoRgixCa6xjnB7YaB1pPB263"
	jupMint    = "JUPyiwrYJFskUPiHa7hkeR8VUtAeFoSYbKedZNsDvCN"
	solMint    = "So11111111111111111111111111111111111111112"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func newTestServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/"+testWallet, r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFetch_NormalizesAndOrders(t *testing.T) {
	srv := newTestServer(t, http.StatusOK, `[
		{"mint":"`+usdcMint+`","symbol":"USDC","balance":50000000,"decimals":6,"usdValue":50},
		{"mint":"`+solMint+`","symbol":"SOL","balance":2001000000,"decimals":9,"usdValue":400},
		{"mint":"`+jupMint+`","symbol":"JUP","balance":1000000,"decimals":6,"usdValue":50},
		{"mint":"`+bonkMint+`","symbol":"BONK","balance":0,"decimals":5,"usdValue":0}
	]`)

	client := NewClient(srv.URL, quietLogger())
	balances, err := client.Fetch(context.Background(), testWallet)
	require.NoError(t, err)
	require.Len(t, balances, 3)

	assert.True(t, balances[0].ID.IsNative())
	assert.Equal(t, "2", balances[0].Amount.String(), "native reserve of 0.001 SOL is deducted")

	// equal values fall back to identifier order
	assert.Equal(t, usdcMint, balances[1].ID.String())
	assert.Equal(t, jupMint, balances[2].ID.String())
	assert.Equal(t, "50", balances[1].Amount.String())
	assert.Equal(t, "1", balances[2].Amount.String())
	assert.Equal(t, uint8(6), balances[1].Decimals)
}

func TestFetch_NativeBelowReserveIsDropped(t *testing.T) {
	srv := newTestServer(t, http.StatusOK, `[
		{"mint":"`+solMint+`","symbol":"SOL","balance":900000,"decimals":9,"usdValue":0.18}
	]`)

	balances, err := NewClient(srv.URL, quietLogger()).Fetch(context.Background(), testWallet)
	require.NoError(t, err)
	assert.Empty(t, balances)
}

func TestFetch_CustomReserve(t *testing.T) {
	srv := newTestServer(t, http.StatusOK, `[
		{"mint":"`+solMint+`","symbol":"SOL","balance":1000000000,"decimals":9,"usdValue":200}
	]`)

	client := NewClient(srv.URL, quietLogger(), WithNativeReserve(decimal.RequireFromString("0.25")))
	balances, err := client.Fetch(context.Background(), testWallet)
	require.NoError(t, err)
	require.Len(t, balances, 1)
	assert.Equal(t, "0.75", balances[0].Amount.String())
}

func TestFetch_NullValueAndDuplicates(t *testing.T) {
	srv := newTestServer(t, http.StatusOK, `[
		{"mint":"`+bonkMint+`","symbol":"BONK","balance":100000,"decimals":5,"usdValue":null},
		{"mint":"`+bonkMint+`","symbol":"BONK","balance":200000,"decimals":5,"usdValue":null}
	]`)

	balances, err := NewClient(srv.URL, quietLogger()).Fetch(context.Background(), testWallet)
	require.NoError(t, err)
	require.Len(t, balances, 1)
	assert.Equal(t, "3", balances[0].Amount.String())
	assert.True(t, balances[0].EstimatedValue.IsZero())
}

func TestFetch_Errors(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantStatus int
	}{
		{name: "server error", status: http.StatusInternalServerError, body: `oops`, wantStatus: http.StatusInternalServerError},
		{name: "not found", status: http.StatusNotFound, body: `{}`, wantStatus: http.StatusNotFound},
		{name: "malformed json", status: http.StatusOK, body: `[{"mint":`, wantStatus: http.StatusOK},
		{name: "object instead of array", status: http.StatusOK, body: `{"tokens":[]}`, wantStatus: http.StatusOK},
		{name: "invalid mint", status: http.StatusOK, body: `[{"mint":"not-a-key","symbol":"X","balance":1,"decimals":0,"usdValue":1}]`, wantStatus: http.StatusOK},
		{name: "decimals out of range", status: http.StatusOK, body: `[{"mint":"` + usdcMint + `","symbol":"X","balance":1,"decimals":300,"usdValue":1}]`, wantStatus: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, tt.status, tt.body)

			_, err := NewClient(srv.URL, quietLogger()).Fetch(context.Background(), testWallet)
			require.Error(t, err)

			var fe *FetchError
			require.True(t, errors.As(err, &fe))
			assert.Equal(t, tt.wantStatus, fe.StatusCode)
			assert.Equal(t, testWallet, fe.Wallet)
		})
	}
}

func TestFetch_InvalidWallet(t *testing.T) {
	_, err := NewClient("http://127.0.0.1:0", quietLogger()).Fetch(context.Background(), "bogus")

	var fe *FetchError
	require.True(t, errors.As(err, &fe))
	assert.Zero(t, fe.StatusCode)
}
