package xvc

import (
	"context"
	"errors"
	"io"
	"net"
	"testing"
	"time"

	"github.com/anshi233/xvc-server-d2xx/ftdi"
	"github.com/anshi233/xvc-server-d2xx/internal/xvclog"
)

// zeroTransport answers every flush with zero-filled TDO bytes. It is
// sufficient for exercising the XVC framing loop: bit-level scan
// correctness is covered by the ftdi package's own tests.
type zeroTransport struct{}

func (zeroTransport) Write(p []byte) (int, error) { return len(p), nil }

func (zeroTransport) ReadAll(_ context.Context, p []byte) (int, error) {
	for i := range p {
		p[i] = 0
	}
	return len(p), nil
}

func newTestSession(t *testing.T) (client net.Conn, done chan error) {
	t.Helper()
	client, server := net.Pipe()
	sc := ftdi.NewScanner(zeroTransport{})
	log := xvclog.New("debug")
	sess := NewSession(server, sc, 2048, log)
	done = make(chan error, 1)
	go func() {
		done <- sess.Serve(context.Background())
	}()
	return client, done
}

func TestSessionGetInfo(t *testing.T) {
	client, done := newTestSession(t)
	defer client.Close()

	if _, err := client.Write([]byte("getinfo:")); err != nil {
		t.Fatal(err)
	}
	buf := make([]byte, 64)
	client.SetReadDeadline(time.Now().Add(time.Second))
	n, err := client.Read(buf)
	if err != nil {
		t.Fatal(err)
	}
	got := string(buf[:n])
	if got != "xvcServer_v1.0:2048\n" {
		t.Fatalf("got %q", got)
	}
	client.Close()
	<-done
}

func TestSessionSetTCK(t *testing.T) {
	client, done := newTestSession(t)
	defer client.Close()

	req := append([]byte("settck:"), putLE32(1000)...)
	if _, err := client.Write(req); err != nil {
		t.Fatal(err)
	}
	buf := make([]byte, 4)
	client.SetReadDeadline(time.Now().Add(time.Second))
	if _, err := io.ReadFull(client, buf); err != nil {
		t.Fatal(err)
	}
	client.Close()
	<-done
}

func TestSessionShiftEchoesLength(t *testing.T) {
	client, done := newTestSession(t)
	defer client.Close()

	numBits := 20
	numBytes := (numBits + 7) / 8
	req := append([]byte("shift:"), putLE32(uint32(numBits))...)
	req = append(req, make([]byte, numBytes)...) // tms
	req = append(req, make([]byte, numBytes)...) // tdi
	if _, err := client.Write(req); err != nil {
		t.Fatal(err)
	}
	buf := make([]byte, numBytes)
	client.SetReadDeadline(time.Now().Add(time.Second))
	if _, err := io.ReadFull(client, buf); err != nil {
		t.Fatal(err)
	}
	client.Close()
	<-done
}

func TestSessionUnknownCommandIsMalformed(t *testing.T) {
	client, done := newTestSession(t)

	if _, err := client.Write([]byte("bogus:")); err != nil {
		t.Fatal(err)
	}
	err := <-done
	client.Close()
	if !errors.Is(err, ErrMalformedRequest) {
		t.Fatalf("got %v, want ErrMalformedRequest for an unknown command", err)
	}
}

func TestSessionClientDisconnect(t *testing.T) {
	client, done := newTestSession(t)
	client.Close()
	if err := <-done; err != ErrClientDisconnect {
		t.Fatalf("got %v, want ErrClientDisconnect", err)
	}
}
