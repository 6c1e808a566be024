package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" WARN ":  slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"info":    slog.LevelInfo,
		"":        slog.LevelInfo,
		"chatty":  slog.LevelInfo,
	}
	for in, want := range cases {
		require.Equal(t, want, parseLevel(in), "level %q", in)
	}
}

func TestNew(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	file := filepath.Join(t.TempDir(), "cart.log")

	log := New(Options{Service: "cartctl", Env: "test", Level: "warn", Output: &buf, File: file})
	log.Info("dropped")
	log.Warn("kept", slog.String("key", "@GoMarketPlace:cart"))

	var line map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line))
	require.Equal(t, "kept", line["msg"])
	require.Equal(t, "cartctl", line["service"])
	require.Equal(t, "test", line["env"])

	onDisk, err := os.ReadFile(file)
	require.NoError(t, err)
	require.Contains(t, string(onDisk), `"msg":"kept"`)
}
