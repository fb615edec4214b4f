package hubclient

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestConnectionConfigURLDerivation_SecureWithQueryParams(t *testing.T) {
	cfg := NewConnectionConfig("api.example.com", "deviceRHub").
		WithPort(443).
		WithQueryParam("type", "client").
		WithAccessToken("abc")

	require.Equal(t, "wss://api.example.com:443/deviceRHub?type=client&access_token=abc", cfg.SocketURL())
	require.Equal(t, "https://api.example.com:443/deviceRHub?type=client&access_token=abc&negotiate", cfg.NegotiateURL())
}

func TestConnectionConfigURLDerivation_UnsecureNoParams(t *testing.T) {
	cfg := NewConnectionConfig("localhost", "test").
		WithPort(5220).
		Unsecure()

	require.Equal(t, "ws://localhost:5220/test", cfg.SocketURL())
	require.Equal(t, "http://localhost:5220/test/negotiate", cfg.NegotiateURL())
}

func TestConnectionConfigDefaultsSecure(t *testing.T) {
	cfg := NewConnectionConfig("example.com", "hub")
	require.Equal(t, "https://example.com/hub", cfg.WebURL())
	require.Equal(t, "wss://example.com/hub", cfg.SocketURL())
}

func TestConnectionConfigNoPortOmitsColon(t *testing.T) {
	cfg := NewConnectionConfig("example.com", "hub")
	require.Equal(t, "example.com", cfg.hostport())
}
