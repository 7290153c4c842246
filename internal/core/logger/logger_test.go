package logger

import (
	"bytes"
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type bufSyncer struct{ bytes.Buffer }

func (b *bufSyncer) Sync() error { return nil }

func TestNew_JSONLevel(t *testing.T) {
	buf := &bufSyncer{}
	l, flush := New(Options{Level: "warn", JSON: true, Output: buf})
	l.Info("hidden")
	l.Warn("shown", zap.String("k", "v"))
	flush()

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 1)
	var entry map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &entry))
	assert.Equal(t, "shown", entry["msg"])
	assert.Equal(t, "v", entry["k"])
	assert.Contains(t, entry, "ts")
}

func TestNew_BadLevelFallsBackToInfo(t *testing.T) {
	buf := &bufSyncer{}
	l, flush := New(Options{Level: "loud", JSON: true, Output: buf})
	l.Debug("hidden")
	l.Info("shown")
	flush()
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestNew_RotateFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "app.log")
	l, flush := New(Options{Level: "info", Output: &bufSyncer{}, Rotate: FileRotate{Filename: file, MaxSizeMB: 1}})
	l.Info("to file")
	flush()

	b, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"msg":"to file"`)
}

func TestRedirectStdLogAndWriter(t *testing.T) {
	buf := &bufSyncer{}
	l, flush := New(Options{Level: "info", JSON: true, Output: buf})
	defer flush()

	undo := RedirectStdLog(l, zapcore.InfoLevel)
	log.Println("[db] from std log")
	undo()

	_, err := ToWriter(l, zapcore.WarnLevel).Write([]byte("from writer\n"))
	require.NoError(t, err)

	assert.Contains(t, buf.String(), "[db] from std log")
	assert.Contains(t, buf.String(), `"msg":"from writer"`)
	assert.Contains(t, buf.String(), `"level":"warn"`)
}
