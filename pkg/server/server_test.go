package server

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuemby/minder/pkg/auth"
)

func TestServerStartStop(t *testing.T) {
	srv := newTestServer(t, nil, nil, nil)

	assert.True(t, srv.Running())
	require.NotNil(t, srv.Addr())

	require.NoError(t, srv.Stop())
	assert.False(t, srv.Running())

	_, err := net.DialTimeout("tcp", srv.Addr().String(), time.Second)
	assert.Error(t, err, "listener should be closed after Stop")
}

func TestServerDoubleStart(t *testing.T) {
	srv := newTestServer(t, nil, nil, nil)

	err := srv.Start()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already running")
}

func TestServerStopIdempotent(t *testing.T) {
	srv := newTestServer(t, nil, nil, nil)

	require.NoError(t, srv.Stop())
	require.NoError(t, srv.Stop())
}

func TestServerBindFailure(t *testing.T) {
	holder, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer holder.Close()

	verifier, err := auth.NewVerifier(testSecret)
	require.NoError(t, err)

	srv := NewServer(&Config{ListenAddr: holder.Addr().String()},
		verifier, &stubProvider{snap: testSnapshot()}, &stubRunner{}, nil)

	err = srv.Start()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bind")
	assert.False(t, srv.Running())
}

func TestServerDefaults(t *testing.T) {
	verifier, err := auth.NewVerifier(testSecret)
	require.NoError(t, err)

	srv := NewServer(nil, verifier, &stubProvider{snap: testSnapshot()}, &stubRunner{}, nil)

	assert.Equal(t, DefaultListenAddr, srv.cfg.ListenAddr)
	assert.Equal(t, DefaultSessionTimeout, srv.cfg.SessionTimeout)
	assert.Equal(t, DefaultUpdateTimeout, srv.cfg.UpdateTimeout)
	assert.Nil(t, srv.Addr())
}
