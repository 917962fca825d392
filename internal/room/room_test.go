package room

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/DoyleJ11/imposter-backend/internal/engine"
)

type recorder struct{ ch chan engine.Message }

func newRecorder() *recorder { return &recorder{ch: make(chan engine.Message, 256)} }

func (r *recorder) Deliver(m engine.Message) bool {
	select {
	case r.ch <- m:
		return true
	default:
		return false
	}
}

// helper: wait for a message of the given type, skipping others, so tests never hang
func recvMsg(t *testing.T, rec *recorder, name string, within time.Duration) engine.Message {
	t.Helper()
	deadline := time.After(within)
	for {
		select {
		case m := <-rec.ch:
			if m.Name() == name {
				return m
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %s", name)
			return nil // unreachable
		}
	}
}

func recvNoMsg(t *testing.T, rec *recorder, name string, within time.Duration) {
	t.Helper()
	deadline := time.After(within)
	for {
		select {
		case m := <-rec.ch:
			if m.Name() == name {
				t.Fatalf("expected no %s within %v, got %+v", name, within, m)
			}
		case <-deadline:
			return
		}
	}
}

func testSettings() engine.Settings {
	s := engine.DefaultSettings()
	s.Countdown = 20 * time.Millisecond
	s.Discussion = 0
	s.GracePeriod = time.Second
	return s
}

func newTestRoom(t *testing.T, ctx context.Context, settings engine.Settings, onClose func(string, *Room)) (*Room, *recorder) {
	t.Helper()
	host := newRecorder()
	r, name, err := New(ctx, Options{
		Code:     "QWERTY",
		Mode:     engine.ModeLocal,
		Settings: settings,
		Logger:   zaptest.NewLogger(t),
		OnClose:  onClose,
	}, Creator{ConnID: "a", Name: "Anna", Sink: host})
	require.NoError(t, err)
	require.Equal(t, "Anna", name)
	t.Cleanup(func() {
		r.Close()
		<-r.Done()
	})
	return r, host
}

func TestRoom_Join_BroadcastsLobbyUpdate(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	r, host := newTestRoom(t, ctx, testSettings(), nil)
	recvMsg(t, host, "lobbyUpdate", time.Second)

	ben := newRecorder()
	res := r.Join(ctx, "b", "Ben", ben)
	require.NoError(t, res.Err)
	assert.Equal(t, "Ben", res.Name)

	for _, rec := range []*recorder{host, ben} {
		lu := recvMsg(t, rec, "lobbyUpdate", time.Second).(engine.LobbyUpdate)
		assert.Len(t, lu.Players, 2)
		assert.Equal(t, "a", lu.HostID)
		assert.Equal(t, "QWERTY", lu.Code)
	}

	v, ok := r.State(ctx)
	require.True(t, ok)
	assert.Equal(t, 2, v.NumClients)
}

func TestRoom_Start_DeliversRolesAfterCountdown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	r, host := newTestRoom(t, ctx, testSettings(), nil)
	ben, cleo := newRecorder(), newRecorder()
	require.NoError(t, r.Join(ctx, "b", "Ben", ben).Err)
	require.NoError(t, r.Join(ctx, "c", "Cleo", cleo).Err)

	require.True(t, r.Post(FromClient{Cmd: engine.StartGame{ConnID: "a"}}))

	imposters := 0
	for _, rec := range []*recorder{host, ben, cleo} {
		recvMsg(t, rec, "countdownStart", time.Second)
		role := recvMsg(t, rec, "yourRole", time.Second).(engine.YourRole)
		if role.Role == "Imposter" {
			imposters++
		}
		recvMsg(t, rec, "gameStarted", time.Second)
	}
	assert.Equal(t, 1, imposters)

	v, ok := r.State(ctx)
	require.True(t, ok)
	assert.Equal(t, engine.PhaseReveal, v.Game.Phase)
	assert.Empty(t, v.Timers, "countdown fired and no discussion timer configured")
}

func TestRoom_RejectedCommand_ErrorOnlyToSender(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	r, host := newTestRoom(t, ctx, testSettings(), nil)
	ben := newRecorder()
	require.NoError(t, r.Join(ctx, "b", "Ben", ben).Err)

	r.Post(FromClient{Cmd: engine.StartGame{ConnID: "b"}})
	e := recvMsg(t, ben, "errorMsg", time.Second).(engine.ErrorMsg)
	assert.Equal(t, "NotHost", e.Code)
	assert.Equal(t, engine.ErrNotHost.Message, e.Text)
	recvNoMsg(t, host, "errorMsg", 50*time.Millisecond)
}

func TestRoom_Rejoin_CancelsGraceTimer(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	settings := testSettings()
	settings.GracePeriod = 100 * time.Millisecond
	r, host := newTestRoom(t, ctx, settings, nil)
	require.NoError(t, r.Join(ctx, "b", "Ben", newRecorder()).Err)

	r.Post(Disconnect{ConnID: "b"})
	v, ok := r.State(ctx)
	require.True(t, ok)
	assert.Contains(t, v.Timers, engine.TimerKey{Kind: engine.TimerGrace, Subject: "b"})

	ben2 := newRecorder()
	res := r.Join(ctx, "b2", "Ben", ben2)
	require.NoError(t, res.Err)
	assert.True(t, res.Rejoined)
	assert.Equal(t, "Ben", res.Name)

	// well past the original grace period
	time.Sleep(200 * time.Millisecond)
	recvNoMsg(t, host, "playerLeft", 20*time.Millisecond)
	v, ok = r.State(ctx)
	require.True(t, ok)
	require.Len(t, v.Game.Players, 2)
	_, present := v.Game.Player("b2")
	assert.True(t, present)
}

func TestRoom_GraceExpiry_ClosesEmptyRoom(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	settings := testSettings()
	settings.GracePeriod = 30 * time.Millisecond
	closed := make(chan string, 1)
	r, _ := newTestRoom(t, ctx, settings, func(code string, _ *Room) { closed <- code })

	r.Post(Disconnect{ConnID: "a"})

	select {
	case code := <-closed:
		assert.Equal(t, "QWERTY", code)
	case <-time.After(time.Second):
		t.Fatalf("room did not close after grace expiry")
	}
	<-r.Done()
	assert.False(t, r.Post(Sweep{At: time.Now()}))
	res := r.Join(ctx, "b", "Ben", newRecorder())
	assert.ErrorIs(t, res.Err, engine.ErrRoomNotFound)
}

func TestRoom_Sweep_EvictsIdlePlayers(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	r, host := newTestRoom(t, ctx, testSettings(), nil)
	ben := newRecorder()
	require.NoError(t, r.Join(ctx, "b", "Ben", ben).Err)

	r.Post(Sweep{At: time.Now().Add(time.Minute)})
	recvMsg(t, host, "kicked", time.Second)
	recvMsg(t, ben, "kicked", time.Second)

	select {
	case <-r.Done():
	case <-time.After(time.Second):
		t.Fatalf("room still running after everyone was evicted")
	}
}

func TestRoom_Shutdown(t *testing.T) {
	r, _ := newTestRoom(t, context.Background(), testSettings(), nil)
	r.Post(Shutdown{})
	select {
	case <-r.Done():
	case <-time.After(time.Second):
		t.Fatalf("room did not stop")
	}
	_, ok := r.State(context.Background())
	assert.False(t, ok)
}

func TestRoom_ParentCancel_Stops(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	r, _ := newTestRoom(t, ctx, testSettings(), nil)
	cancel()
	select {
	case <-r.Done():
	case <-time.After(time.Second):
		t.Fatalf("room did not stop on parent cancel")
	}
}
