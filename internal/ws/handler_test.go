package ws

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/DoyleJ11/imposter-backend/internal/engine"
	"github.com/DoyleJ11/imposter-backend/internal/hub"
	"github.com/DoyleJ11/imposter-backend/internal/room"
	"github.com/DoyleJ11/imposter-backend/pkg/types"
)

type frame struct {
	Type    string          `json:"type"`
	ReplyTo string          `json:"replyTo"`
	Data    json.RawMessage `json:"data"`
}

type testClient struct {
	t    *testing.T
	conn *websocket.Conn
	id   string
}

func newServer(t *testing.T, settings engine.Settings, opts Options) (*httptest.Server, *hub.Hub) {
	t.Helper()
	// hijacked connections outlive the test, so nothing here may log through t
	h := hub.NewHub(context.Background(), settings, zap.NewNop())
	srv := httptest.NewServer(Handler(h, opts, zap.NewNop()))
	t.Cleanup(func() {
		srv.Close()
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = h.Shutdown(ctx)
	})
	return srv, h
}

func dial(t *testing.T, srv *httptest.Server) *testClient {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	c := &testClient{t: t, conn: conn}
	t.Cleanup(func() { conn.CloseNow() })

	var hello types.Hello
	c.expect(types.TypeHello, &hello)
	require.NotEmpty(t, hello.ConnID)
	c.id = hello.ConnID
	return c
}

func (c *testClient) send(m types.ClientMessage) {
	c.t.Helper()
	payload, err := json.Marshal(m)
	require.NoError(c.t, err)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(c.t, c.conn.Write(ctx, websocket.MessageText, payload))
}

// expect reads frames until one of the given type arrives and decodes its data.
func (c *testClient) expect(typ string, into any) frame {
	c.t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	for {
		_, data, err := c.conn.Read(ctx)
		require.NoError(c.t, err, "waiting for %s", typ)
		var f frame
		require.NoError(c.t, json.Unmarshal(data, &f))
		if f.Type != typ {
			continue
		}
		if into != nil {
			require.NoError(c.t, json.Unmarshal(f.Data, into))
		}
		return f
	}
}

func fastSettings() engine.Settings {
	s := engine.DefaultSettings()
	s.Countdown = 20 * time.Millisecond
	s.Discussion = 0
	return s
}

func TestGateway_CreateJoinStart(t *testing.T) {
	srv, _ := newServer(t, fastSettings(), DefaultOptions())
	anna := dial(t, srv)

	anna.send(types.ClientMessage{Type: types.CmdCreateRoom, ID: "1", Name: "Anna", GameMode: "local"})
	var created types.CreateAck
	f := anna.expect(types.TypeAck, &created)
	assert.Equal(t, "1", f.ReplyTo)
	assert.Equal(t, "Anna", created.AssignedName)
	require.Len(t, created.Code, hub.CodeLength)

	players := []*testClient{anna}
	for i, name := range []string{"Ben", "Anna"} {
		c := dial(t, srv)
		c.send(types.ClientMessage{Type: types.CmdJoinRoom, ID: "j", Name: name, Code: strings.ToLower(created.Code)})
		var joined types.JoinAck
		c.expect(types.TypeAck, &joined)
		assert.True(t, joined.OK)
		if i == 1 {
			assert.Equal(t, "Anna (2)", joined.AssignedName)
		}
		players = append(players, c)
	}

	anna.send(types.ClientMessage{Type: types.CmdStartGame, Code: created.Code})
	imposters := 0
	for _, c := range players {
		var cd engine.CountdownStart
		c.expect("countdownStart", &cd)
		var role engine.YourRole
		c.expect("yourRole", &role)
		if role.Role == "Imposter" {
			imposters++
		}
	}
	assert.Equal(t, 1, imposters)
}

func TestGateway_JoinUnknownRoom(t *testing.T) {
	srv, _ := newServer(t, fastSettings(), DefaultOptions())
	c := dial(t, srv)

	c.send(types.ClientMessage{Type: types.CmdJoinRoom, ID: "7", Code: "ZZZZZZ", Name: "Ben"})
	var ack types.ErrorAck
	f := c.expect(types.TypeAck, &ack)
	assert.Equal(t, "7", f.ReplyTo)
	assert.Equal(t, "RoomNotFound", ack.Code)
	assert.Equal(t, engine.ErrRoomNotFound.Message, ack.Error)
}

func TestGateway_CommandsOutsideRoom(t *testing.T) {
	srv, _ := newServer(t, fastSettings(), DefaultOptions())
	c := dial(t, srv)

	c.send(types.ClientMessage{Type: types.CmdVote, TargetID: "x"})
	var e engine.ErrorMsg
	c.expect("errorMsg", &e)
	assert.Equal(t, "NotInRoom", e.Code)

	c.send(types.ClientMessage{Type: "dance"})
	c.expect("errorMsg", &e)
	assert.Equal(t, "UnsupportedCommand", e.Code)

	require.NoError(t, c.conn.Write(context.Background(), websocket.MessageText, []byte("{not json")))
	c.expect("errorMsg", &e)
	assert.Equal(t, "BadRequest", e.Code)
}

func TestGateway_HostOnlyErrorGoesToCaller(t *testing.T) {
	srv, _ := newServer(t, fastSettings(), DefaultOptions())
	anna := dial(t, srv)
	anna.send(types.ClientMessage{Type: types.CmdCreateRoom, ID: "1", Name: "Anna"})
	var created types.CreateAck
	anna.expect(types.TypeAck, &created)

	ben := dial(t, srv)
	ben.send(types.ClientMessage{Type: types.CmdJoinRoom, ID: "2", Code: created.Code, Name: "Ben"})
	ben.expect(types.TypeAck, nil)

	ben.send(types.ClientMessage{Type: types.CmdStartGame, Code: created.Code})
	var e engine.ErrorMsg
	ben.expect("errorMsg", &e)
	assert.Equal(t, "NotHost", e.Code)
}

func TestGateway_DroppedConnectionCanRejoin(t *testing.T) {
	srv, h := newServer(t, fastSettings(), DefaultOptions())
	anna := dial(t, srv)
	anna.send(types.ClientMessage{Type: types.CmdCreateRoom, ID: "1", Name: "Anna"})
	var created types.CreateAck
	anna.expect(types.TypeAck, &created)

	ben := dial(t, srv)
	ben.send(types.ClientMessage{Type: types.CmdJoinRoom, ID: "2", Code: created.Code, Name: "Ben"})
	ben.expect(types.TypeAck, nil)
	_ = ben.conn.Close(websocket.StatusGoingAway, "tab closed")

	r := h.Get(context.Background(), created.Code)
	require.NotNil(t, r)
	require.Eventually(t, func() bool {
		v, ok := r.State(context.Background())
		if !ok {
			return false
		}
		p, found := v.Game.PlayerByName("Ben")
		return found && !p.Connected
	}, time.Second, 10*time.Millisecond)

	again := dial(t, srv)
	again.send(types.ClientMessage{Type: types.CmdJoinRoom, ID: "3", Code: created.Code, Name: "Ben"})
	var joined types.JoinAck
	again.expect(types.TypeAck, &joined)
	assert.True(t, joined.OK)
	assert.True(t, joined.Rejoined)
	assert.Equal(t, "Ben", joined.AssignedName)
}

func TestGateway_RateLimited(t *testing.T) {
	opts := DefaultOptions()
	opts.CommandRate = 0.001
	opts.CommandBurst = 1
	srv, _ := newServer(t, fastSettings(), opts)
	c := dial(t, srv)

	c.send(types.ClientMessage{Type: types.CmdHeartbeat})
	c.send(types.ClientMessage{Type: types.CmdHeartbeat})
	var e engine.ErrorMsg
	c.expect("errorMsg", &e)
	assert.Equal(t, "RateLimited", e.Code)
}

func TestGateway_EvictedClientGetsNotInRoom(t *testing.T) {
	settings := fastSettings()
	settings.InactivityTimeout = 100 * time.Millisecond
	srv, h := newServer(t, settings, DefaultOptions())

	anna := dial(t, srv)
	anna.send(types.ClientMessage{Type: types.CmdCreateRoom, ID: "1", Name: "Anna"})
	var created types.CreateAck
	anna.expect(types.TypeAck, &created)

	ben := dial(t, srv)
	ben.send(types.ClientMessage{Type: types.CmdJoinRoom, ID: "2", Code: created.Code, Name: "Ben"})
	ben.expect(types.TypeAck, nil)

	time.Sleep(150 * time.Millisecond)
	// any command refreshes Anna; the error reply proves the room has seen it
	anna.send(types.ClientMessage{Type: types.CmdGetMyRole})
	var e engine.ErrorMsg
	anna.expect("errorMsg", &e)

	r := h.Get(context.Background(), created.Code)
	require.NotNil(t, r)
	require.True(t, r.Post(room.Sweep{At: time.Now()}))

	var kicked engine.Kicked
	ben.expect("kicked", &kicked)
	assert.Equal(t, created.Code, kicked.Code)
	assert.Equal(t, "inactive", kicked.Reason)

	ben.send(types.ClientMessage{Type: types.CmdVote, TargetID: "x"})
	ben.expect("errorMsg", &e)
	assert.Equal(t, "NotInRoom", e.Code)
}
