package lifecycle_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/koremd/pkg/adapters/lifecycle"
	"github.com/aretw0/koremd/pkg/core"
)

func TestSource_Forwards(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	in := make(chan core.Event, 1)
	src := lifecycle.NewSource(in, nil)
	require.NoError(t, src.Start(ctx))

	in <- core.Event{Type: core.EventModify, Key: core.WebFilesKey}
	select {
	case e := <-src.Events():
		assert.Equal(t, "MODIFY "+core.WebFilesKey, e.String())
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}

	close(in)
	select {
	case _, ok := <-src.Events():
		assert.False(t, ok, "output closes with input")
	case <-time.After(time.Second):
		t.Fatal("output not closed")
	}
}

func TestSource_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	src := lifecycle.NewSource(make(chan core.Event), nil)
	require.NoError(t, src.Start(ctx))
	cancel()

	select {
	case _, ok := <-src.Events():
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("output not closed after cancel")
	}
}
