package cli

import (
	"bytes"
	"context"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/goleak"
)

// syncBuffer provides thread-safe access to a bytes.Buffer.
type syncBuffer struct {
	buf bytes.Buffer
	mu  sync.Mutex
}

func (s *syncBuffer) Write(p []byte) (n int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.Write(p)
}

func (s *syncBuffer) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.String()
}

func TestNewInterruptHandler(t *testing.T) {
	tests := []struct {
		writer io.Writer
		name   string
	}{
		{name: "with custom writer", writer: &bytes.Buffer{}},
		{name: "with nil writer", writer: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewInterruptHandler(tt.writer)
			assert.NotNil(t, handler)
			assert.NotNil(t, handler.writer)
			assert.False(t, handler.WasInterrupted())
		})
	}
}

func TestHandleInterrupts(t *testing.T) {
	defer goleak.VerifyNone(t)

	output := &syncBuffer{}
	handler := NewInterruptHandler(output)

	ctx, stop := handler.HandleInterrupts(context.Background(), "Replacement")
	defer stop()

	select {
	case <-ctx.Done():
		t.Fatal("Context should not be canceled initially")
	default:
	}

	handler.interrupt()
	handler.interrupt()

	<-ctx.Done()
	assert.True(t, handler.WasInterrupted())
	outputStr := output.String()
	assert.Equal(t, 1, strings.Count(outputStr, "Replacement interrupted!"), "message is shown once")
	assert.Contains(t, outputStr, "Nothing was committed")
}

func TestHandleInterrupts_Stop(t *testing.T) {
	defer goleak.VerifyNone(t)

	handler := NewInterruptHandler(&syncBuffer{})
	ctx, stop := handler.HandleInterrupts(context.Background(), "Run")

	stop()
	stop()

	<-ctx.Done()
	assert.False(t, handler.WasInterrupted(), "stopping is not an interrupt")
}

func TestShowInterruptMessage(t *testing.T) {
	var output bytes.Buffer
	handler := &InterruptHandler{writer: &output}

	handler.showInterruptMessage()
	assert.Contains(t, output.String(), "Run interrupted!")
}
