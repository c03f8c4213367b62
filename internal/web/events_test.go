package web

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rook-computer/certmaker/internal/notice"
	"github.com/rook-computer/certmaker/internal/state"
)

func TestChangeNames(t *testing.T) {
	assert.Nil(t, ChangeNames(0))
	assert.Equal(t, []string{"elements", "selection"}, ChangeNames(state.ChangeElements|state.ChangeSelection))
	assert.Equal(t, []string{"view"}, ChangeNames(state.ChangeView))
}

func TestEventsStream(t *testing.T) {
	store := state.NewStore()
	bus := notice.NewBus()
	srv := httptest.NewServer(NewDefaultMux("", APIV1Config{Deps: APIV1Deps{Store: store, Notices: bus}}))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/events"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	var ev Event
	require.NoError(t, conn.ReadJSON(&ev))
	assert.Equal(t, "hello", ev.Type)

	// hello is written after both subscriptions are in place.
	store.ToggleGrid()
	require.NoError(t, conn.ReadJSON(&ev))
	assert.Equal(t, "state", ev.Type)
	assert.Equal(t, []string{"view"}, ev.Changes)
	assert.Equal(t, store.Snapshot().Revision, ev.Revision)

	bus.Publish(notice.New(notice.Info, "Layout reset to defaults."))
	var got Event
	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, "notice", got.Type)
	require.NotNil(t, got.Notice)
	assert.Equal(t, "Layout reset to defaults.", got.Notice.Message)
}
