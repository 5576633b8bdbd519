package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"platefield/calculator"
	"platefield/model"
	"platefield/scenario"
)

func testParams() model.PlateParams {
	return model.PlateParams{Density: 1e-6, Distance: 1, Gap: 0.5, LengthX: 1, LengthY: 1, CellsX: 1, CellsY: 1}
}

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	s := NewServer("", websocket.Upgrader{}, calculator.VacuumEnv(), calculator.NewExecutor(2, 1), testParams())
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return s, ts
}

func dial(t *testing.T, ts *httptest.Server) *websocket.Conn {
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func roundTrip(t *testing.T, conn *websocket.Conn, typ string, content interface{}) model.Msg {
	data, err := json.Marshal(content)
	require.NoError(t, err)
	require.NoError(t, conn.WriteJSON(model.Msg{Type: typ, Content: string(data)}))
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var reply model.Msg
	require.NoError(t, conn.ReadJSON(&reply))
	return reply
}

func TestWebsocketSession(t *testing.T) {
	_, ts := newTestServer(t)
	conn := dial(t, ts)

	reply := roundTrip(t, conn, MsgField, []model.Vec3{{Z: 1}})
	assert.Equal(t, ReplyError, reply.Type)

	reply = roundTrip(t, conn, MsgScenario, model.ScenarioReq{Name: scenario.Single, Params: testParams()})
	require.Equal(t, ReplyScenarioSet, reply.Type, reply.Content)

	// 单个单元位于原点，原点是奇点
	reply = roundTrip(t, conn, MsgField, []model.Vec3{{Z: 1}, {}})
	require.Equal(t, ReplyField, reply.Type, reply.Content)
	var fields model.FieldResponse
	require.NoError(t, json.Unmarshal([]byte(reply.Content), &fields))
	require.Len(t, fields.Fields, 2)
	assert.Equal(t, []int{1}, fields.Singular)
	assert.Equal(t, model.Vec3{}, fields.Fields[1])
	want := calculator.PointChargeField(calculator.VacuumEnv(), 1e-6, model.Vec3{Z: 1})
	assert.InEpsilon(t, want.Z, fields.Fields[0].Z, 1e-12)

	reply = roundTrip(t, conn, MsgProfile, model.ProfileReq{From: model.Vec3{Z: -1}, To: model.Vec3{Z: 1}, N: 3})
	require.Equal(t, ReplyProfile, reply.Type, reply.Content)
	var profile model.ProfileResult
	require.NoError(t, json.Unmarshal([]byte(reply.Content), &profile))
	assert.Len(t, profile.Points, 3)
	assert.Equal(t, []int{1}, profile.Singular)
	assert.Less(t, profile.Fields[0].Z, 0.0)
	assert.Greater(t, profile.Fields[2].Z, 0.0)

	reply = roundTrip(t, conn, MsgSection, model.SectionReq{Plane: "xz", U0: -1, U1: 1, V0: -1, V1: 1, NU: 3, NV: 3})
	require.Equal(t, ReplySection, reply.Type, reply.Content)
	var section model.SectionResult
	require.NoError(t, json.Unmarshal([]byte(reply.Content), &section))
	require.Len(t, section.Magnitude, 3)
	assert.Equal(t, [][2]int{{1, 1}}, section.Singular)

	reply = roundTrip(t, conn, MsgSection, model.SectionReq{Plane: "uv", NU: 3, NV: 3})
	assert.Equal(t, ReplyError, reply.Type)

	reply = roundTrip(t, conn, "bogus", nil)
	assert.Equal(t, ReplyError, reply.Type)

	reply = roundTrip(t, conn, MsgScenario, model.ScenarioReq{Name: "nope"})
	assert.Equal(t, ReplyError, reply.Type)
}

func TestFieldEndpoint(t *testing.T) {
	_, ts := newTestServer(t)

	body, err := json.Marshal(model.FieldRequest{
		Scenario: scenario.Parallel,
		Points:   []model.Vec3{{}, {Z: 3}},
	})
	require.NoError(t, err)
	resp, err := http.Post(ts.URL+"/api/field", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var res model.FieldResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&res))
	require.Len(t, res.Fields, 2)
	require.Len(t, res.Potentials, 2)
	assert.Empty(t, res.Singular)
	assert.Greater(t, res.Fields[0].Z, 0.0)
	assert.InDelta(t, 0, res.Potentials[0], 1e-6)
}

func TestFieldEndpointRejectsBadInput(t *testing.T) {
	_, ts := newTestServer(t)

	resp, err := http.Post(ts.URL+"/api/field", "application/json", strings.NewReader("{"))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	body, _ := json.Marshal(model.FieldRequest{Scenario: scenario.Single, Params: model.PlateParams{LengthX: -1, LengthY: 1}})
	resp, err = http.Post(ts.URL+"/api/field", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestScenariosEndpoint(t *testing.T) {
	_, ts := newTestServer(t)
	resp, err := http.Get(ts.URL + "/api/scenarios")
	require.NoError(t, err)
	defer resp.Body.Close()

	var names []string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&names))
	assert.Equal(t, scenario.Names(), names)
}

func TestServeStopsOnCancel(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())

	s := NewServer(addr, websocket.Upgrader{}, calculator.VacuumEnv(), calculator.NewExecutor(1, 1), testParams())
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- s.Serve(ctx) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + addr + "/api/scenarios")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not stop")
	}
}
