package session

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"math/big"
	"net"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/drake/mudgate/internal/commands"
)

func noopLogger() *zap.Logger { return zap.NewNop() }

func selfSignedCert(t *testing.T, commonName string) x509.Certificate {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	tmpl := x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: commonName},
		NotBefore:    time.Now(),
		NotAfter:     time.Now().Add(time.Hour),
	}
	der, err := x509.CreateCertificate(rand.Reader, &tmpl, &tmpl, &key.PublicKey, key)
	if err != nil {
		t.Fatal(err)
	}
	cert, err := x509.ParseCertificate(der)
	if err != nil {
		t.Fatal(err)
	}
	return *cert
}

func TestVerifyPinnedCommonNameAccepts(t *testing.T) {
	cert := selfSignedCert(t, "mume.org")
	cs := tls.ConnectionState{PeerCertificates: []*x509.Certificate{&cert}}
	if err := verifyPinnedCommonName(cs, "mume.org"); err != nil {
		t.Fatalf("expected match to succeed, got %v", err)
	}
}

func TestVerifyPinnedCommonNameRejectsMismatch(t *testing.T) {
	cert := selfSignedCert(t, "evil.example")
	cs := tls.ConnectionState{PeerCertificates: []*x509.Certificate{&cert}}
	if err := verifyPinnedCommonName(cs, "mume.org"); err == nil {
		t.Fatal("expected a mismatched common name to be rejected")
	}
}

func TestVerifyPinnedCommonNameSkippedWhenUnset(t *testing.T) {
	cs := tls.ConnectionState{}
	if err := verifyPinnedCommonName(cs, ""); err != nil {
		t.Fatalf("expected no pin to mean no check, got %v", err)
	}
}

func TestVerifyPinnedCommonNameRejectsNoCertificate(t *testing.T) {
	cs := tls.ConnectionState{}
	if err := verifyPinnedCommonName(cs, "mume.org"); err == nil {
		t.Fatal("expected missing peer certificate to be rejected")
	}
}

func TestRouteClientInputSendsCommandsToHandlerNotUpstream(t *testing.T) {
	upstream, upstreamPeer := net.Pipe()
	defer upstream.Close()
	defer upstreamPeer.Close()

	reg := commands.New()
	var handled string
	reg.Register("wave", func(args string) error {
		handled = args
		return nil
	})

	d := &Driver{
		log:      noopLogger(),
		registry: reg,
		upstream: &guardedConn{conn: upstream},
	}

	d.routeClientInput([]byte("wave hi"))
	if handled != "hi" {
		t.Fatalf("expected handler to receive args, got %q", handled)
	}
}

func TestRouteClientInputForwardsUnrecognizedInput(t *testing.T) {
	upstream, upstreamPeer := net.Pipe()
	defer upstream.Close()
	defer upstreamPeer.Close()

	d := &Driver{
		log:      noopLogger(),
		registry: commands.New(),
		upstream: &guardedConn{conn: upstream},
	}

	done := make(chan []byte, 1)
	go func() {
		buf := make([]byte, 64)
		n, _ := upstreamPeer.Read(buf)
		done <- buf[:n]
	}()

	d.routeClientInput([]byte("north"))
	select {
	case got := <-done:
		if string(got) != "north" {
			t.Fatalf("want %q got %q", "north", got)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for forwarded data")
	}
}
