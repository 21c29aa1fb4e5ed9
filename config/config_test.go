package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseListenDefaultsIP(t *testing.T) {
	listen, rest, err := ParseListen(Options{"Port": "9000"})
	require.NoError(t, err)
	require.Equal(t, DefaultIP, listen.IP)
	require.Equal(t, uint16(9000), listen.Port)
	require.Empty(t, rest)
}

func TestParseListenForwardsUnrecognizedKeys(t *testing.T) {
	listen, rest, err := ParseListen(Options{"Ip": "10.0.0.1", "Port": "443", "Debug": "true"})
	require.NoError(t, err)
	require.Equal(t, "10.0.0.1", listen.IP)
	require.Equal(t, uint16(443), listen.Port)
	require.Equal(t, Options{"Debug": "true"}, rest)
}

func TestParseListenRequiresPort(t *testing.T) {
	_, _, err := ParseListen(Options{"Ip": "10.0.0.1"})
	require.ErrorIs(t, err, ErrMissingPort)
}

func TestParseListenRejectsInvalidPort(t *testing.T) {
	_, _, err := ParseListen(Options{"Port": "not-a-number"})
	require.Error(t, err)
}

func TestListenAddrFormatsHostPort(t *testing.T) {
	l := Listen{IP: "127.0.0.1", Port: 4999}
	require.Equal(t, "127.0.0.1:4999", l.Addr())
}

func TestParseListenDoesNotMutateInput(t *testing.T) {
	opts := Options{"Port": "1", "Ip": "x", "Other": "y"}
	_, _, err := ParseListen(opts)
	require.NoError(t, err)
	require.Equal(t, Options{"Port": "1", "Ip": "x", "Other": "y"}, opts, "ParseListen must not mutate its input map")
}
