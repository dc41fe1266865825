package testutil

import (
	"bytes"
	"context"
	"log/slog"
	"sync"

	"github.com/vk/patterngrid/internal/ctxlog"
)

// SafeBuffer is a thread-safe buffer for capturing log output in tests.
type SafeBuffer struct {
	b  bytes.Buffer
	mu sync.Mutex
}

// Write implements the io.Writer interface for SafeBuffer.
func (b *SafeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.Write(p)
}

// String implements the fmt.Stringer interface for SafeBuffer.
func (b *SafeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.String()
}

// LoggedContext returns a context carrying a debug-level text logger that
// writes into the returned buffer.
func LoggedContext() (context.Context, *SafeBuffer) {
	buf := &SafeBuffer{}
	logger := slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return ctxlog.WithLogger(context.Background(), logger), buf
}
