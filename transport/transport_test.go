package transport_test

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/tls"
	"crypto/x509"
	"math/big"
	"sync"
	"testing"

	"github.com/fujin-io/rocketmq-go/remoting"
	"github.com/fujin-io/rocketmq-go/transport"
	"github.com/stretchr/testify/require"
)

type recordingHandler struct {
	mu         sync.Mutex
	reqs       []*remoting.Command
	remoteAddr []string

	// resp builds the response for a request, nil means none
	resp func(req *remoting.Command) *remoting.Command
}

func (h *recordingHandler) ProcessRequest(_ context.Context, remoteAddr string, req *remoting.Command) (*remoting.Command, error) {
	h.mu.Lock()
	h.reqs = append(h.reqs, req)
	h.remoteAddr = append(h.remoteAddr, remoteAddr)
	h.mu.Unlock()

	if h.resp == nil {
		return remoting.NewResponse(remoting.Success, ""), nil
	}
	return h.resp(req), nil
}

func (h *recordingHandler) Requests() []*remoting.Command {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]*remoting.Command(nil), h.reqs...)
}

var _ transport.Handler = (*recordingHandler)(nil)

func generateTLSConfig(t *testing.T) *tls.Config {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	template := x509.Certificate{SerialNumber: big.NewInt(1)}
	cert, err := x509.CreateCertificate(rand.Reader, &template, &template, &key.PublicKey, key)
	require.NoError(t, err)
	tlsCert := tls.Certificate{
		Certificate: [][]byte{cert},
		PrivateKey:  key,
	}
	return &tls.Config{Certificates: []tls.Certificate{tlsCert}, NextProtos: []string{transport.ALPN}}
}

func clientTLSConfig() *tls.Config {
	return &tls.Config{InsecureSkipVerify: true}
}
