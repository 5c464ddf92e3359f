package testutil

import (
	"bytes"
	"sync"
	"testing"

	"github.com/Sternrassler/geo-enrich/pkg/logging"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LogBuffer is a goroutine-safe sink for captured log output.
type LogBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *LogBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

// String returns everything logged so far.
func (b *LogBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// CaptureLogs routes the global logger into a buffer at debug level and
// restores the previous logger when the test ends.
func CaptureLogs(t *testing.T) *LogBuffer {
	t.Helper()

	prevLogger := log.Logger
	prevLevel := zerolog.GlobalLevel()
	t.Cleanup(func() {
		log.Logger = prevLogger
		zerolog.SetGlobalLevel(prevLevel)
	})

	buf := &LogBuffer{}
	logging.Setup(logging.Config{Level: logging.LevelDebug, Output: buf})
	return buf
}
