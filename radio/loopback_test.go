package radio_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/cristiantrapero/ctp-node/radio"
)

func TestLoopbackPairExchangesFrames(t *testing.T) {
	a, b := radio.NewLoopbackPair([]byte("node-a"), []byte("node-b"))
	want := []byte("hello over loopback")
	if err := a.Send(want); err != nil {
		t.Fatalf("Send: %v", err)
	}
	got, err := b.Recv()
	if err != nil {
		t.Fatalf("Recv: %v", err)
	}
	if !bytes.Equal(got, want) {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestLoopbackHandleSharesPipesIndependentState(t *testing.T) {
	a, b := radio.NewLoopbackPair([]byte("node-a"), []byte("node-b"))
	aRecv := a.Handle()
	aRecv.SetTimeout(10 * time.Millisecond)
	a.SetTimeout(5 * time.Second)
	if err := b.Send([]byte("ping")); err != nil {
		t.Fatalf("Send: %v", err)
	}
	got, err := aRecv.Recv()
	if err != nil {
		t.Fatalf("Recv via handle: %v", err)
	}
	if string(got) != "ping" {
		t.Fatalf("got %q, want %q", got, "ping")
	}
}

func TestLoopbackRecvTimesOutWithNoData(t *testing.T) {
	a, _ := radio.NewLoopbackPair([]byte("node-a"), []byte("node-b"))
	a.SetTimeout(5 * time.Millisecond)
	_, err := a.Recv()
	if err != radio.ErrTimeout {
		t.Fatalf("got %v, want ErrTimeout", err)
	}
}

func TestLoopbackNonBlockingRecvWithNoDataReturnsImmediately(t *testing.T) {
	a, _ := radio.NewLoopbackPair([]byte("node-a"), []byte("node-b"))
	a.SetBlocking(false)
	start := time.Now()
	_, err := a.Recv()
	if err != radio.ErrTimeout {
		t.Fatalf("got %v, want ErrTimeout", err)
	}
	if time.Since(start) > 50*time.Millisecond {
		t.Fatal("non-blocking Recv should not wait for data")
	}
}

func TestHardwareEUIPadsShortInput(t *testing.T) {
	a, _ := radio.NewLoopbackPair([]byte{0xAB}, []byte("node-b"))
	eui := a.HardwareEUI()
	if len(eui) != 8 {
		t.Fatalf("got len %d, want 8", len(eui))
	}
	if eui[7] != 0xAB {
		t.Fatalf("got %x, want last byte 0xAB", eui)
	}
}
