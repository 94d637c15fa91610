package supervisor

import (
	"context"
	"net"
	"strconv"
	"testing"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"

	"github.com/anshi233/xvc-server-d2xx/config"
	"github.com/anshi233/xvc-server-d2xx/ftdi"
	"github.com/anshi233/xvc-server-d2xx/internal/xvclog"
)

type zeroTransport struct{}

func (zeroTransport) Write(p []byte) (int, error) { return len(p), nil }
func (zeroTransport) ReadAll(_ context.Context, p []byte) (int, error) {
	for i := range p {
		p[i] = 0
	}
	return len(p), nil
}

type fakeDev struct {
	sc *ftdi.Scanner
}

func (f *fakeDev) String() string                       { return "fakeDev" }
func (f *fakeDev) Halt() error                           { return nil }
func (f *fakeDev) Info(i *ftdi.Info)                     {}
func (f *fakeDev) Header() []gpio.PinIO                  { return nil }
func (f *fakeDev) SetSpeed(physic.Frequency) error       { return nil }
func (f *fakeDev) EEPROM(ee *ftdi.EEPROM) error          { return nil }
func (f *fakeDev) WriteEEPROM(ee *ftdi.EEPROM) error     { return nil }
func (f *fakeDev) EraseEEPROM() error                    { return nil }
func (f *fakeDev) UserArea() ([]byte, error)             { return nil, nil }
func (f *fakeDev) WriteUserArea(ua []byte) error         { return nil }
func (f *fakeDev) Scanner() *ftdi.Scanner                { return f.sc }

func freePort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close()
	return ln.Addr().(*net.TCPAddr).Port
}

func TestSupervisorServesUntilCanceled(t *testing.T) {
	port := freePort(t)
	opens := 0
	sup := &Supervisor{
		Inst: config.Instance{ID: 1, Port: port, MaxVectorSize: 2048},
		Open: func(sel ftdi.Selector, hz uint32) (ftdi.Dev, uint32, error) {
			opens++
			return &fakeDev{sc: ftdi.NewScanner(zeroTransport{})}, hz, nil
		},
		Log: xvclog.New("debug"),
	}

	ctx, cancel := context.WithCancel(context.Background())
	doneCh := make(chan struct{})
	go func() {
		sup.Run(ctx)
		close(doneCh)
	}()

	// Give the supervisor a moment to open the device and bind the port.
	time.Sleep(50 * time.Millisecond)
	conn, err := net.DialTimeout("tcp", net.JoinHostPort("127.0.0.1", strconv.Itoa(port)), time.Second)
	if err != nil {
		t.Fatalf("could not connect to supervised instance: %s", err)
	}
	conn.Close()

	cancel()
	select {
	case <-doneCh:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}
	if opens == 0 {
		t.Fatal("expected Open to have been called at least once")
	}
}

func TestSupervisorRestartsOnOpenFailure(t *testing.T) {
	port := freePort(t)
	attempts := 0
	sup := &Supervisor{
		Inst: config.Instance{ID: 1, Port: port, MaxVectorSize: 2048},
		Open: func(sel ftdi.Selector, hz uint32) (ftdi.Dev, uint32, error) {
			attempts++
			return nil, 0, ftdi.ErrNoMatchingDevice
		},
		Log: xvclog.New("debug"),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 1200*time.Millisecond)
	defer cancel()
	sup.Run(ctx)

	if attempts < 2 {
		t.Fatalf("expected at least 2 open attempts within the backoff window, got %d", attempts)
	}
}
