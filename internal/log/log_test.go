package log

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFormat(t *testing.T) {
	ts := time.Date(2025, 12, 6, 10, 45, 0, 0, time.UTC)

	got := Format(ts, LevelError, CatFetch, "fetch failed", "page", 3, "orphan")

	require.Equal(t, "2025-12-06T10:45:00 [ERROR] [fetch] fetch failed page=3 orphan=<missing>", got)
}

func TestLogger_RespectsMinLevelAndEnabled(t *testing.T) {
	var buf bytes.Buffer
	SetDefault(New(&buf))
	defer SetDefault(nil)

	SetMinLevel(LevelWarn)
	Info(CatUI, "hidden")
	Warn(CatUI, "shown")
	SetEnabled(false)
	Error(CatUI, "also hidden")

	out := buf.String()
	require.NotContains(t, out, "hidden")
	require.Contains(t, out, "[WARN] [ui] shown")
}

func TestErrorErr_AppendsError(t *testing.T) {
	var buf bytes.Buffer
	SetDefault(New(&buf))
	defer SetDefault(nil)

	ErrorErr(CatHTTP, "request failed", errors.New("boom"), "path", "/account-data")
	ErrorErr(CatHTTP, "request failed", nil)

	require.Contains(t, buf.String(), "path=/account-data error=boom")
	require.Contains(t, buf.String(), "error=<nil>")
}

func TestNoLoggerIsNoop(t *testing.T) {
	SetDefault(nil)
	require.NotPanics(t, func() { Debug(CatCache, "nothing") })
	require.Nil(t, NewListener(context.Background()))
}

func TestListenerReceivesEntries(t *testing.T) {
	var buf bytes.Buffer
	SetDefault(New(&buf))
	defer SetDefault(nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	listener := NewListener(ctx)
	require.NotNil(t, listener)

	Info(CatSession, "signed in", "user", "a@b.c")

	ev, ok := listener.Listen()().(LogEvent)
	require.True(t, ok)
	require.Contains(t, ev.Payload, "signed in user=a@b.c")
}
