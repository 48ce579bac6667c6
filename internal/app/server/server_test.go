package server

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadaliyev66/CAM-APP/internal/config"
)

func TestShutdownNotifiesNil(t *testing.T) {
	t.Parallel()

	srv := New(config.HTTPServer{Address: "127.0.0.1:0", Timeout: time.Second}, http.NotFoundHandler())
	srv.Start()
	time.Sleep(20 * time.Millisecond)

	require.NoError(t, srv.Shutdown(time.Second))
	select {
	case err := <-srv.Notify():
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not report shutdown")
	}
}

func TestListenFailureIsReported(t *testing.T) {
	t.Parallel()

	srv := New(config.HTTPServer{Address: "bad-address"}, http.NotFoundHandler())
	srv.Start()
	select {
	case err := <-srv.Notify():
		assert.Error(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("listen error not reported")
	}
}
