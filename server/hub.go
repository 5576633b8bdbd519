package server

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/mat"

	"platefield/calculator"
	"platefield/model"
	"platefield/scenario"
)

// 消息类型
const (
	MsgScenario = "scenario"
	MsgField    = "field"
	MsgProfile  = "profile"
	MsgSection  = "section"

	ReplyScenarioSet = "scenarioSet"
	ReplyField       = "fieldResult"
	ReplyProfile     = "profileResult"
	ReplySection     = "sectionResult"
	ReplyError       = "error"
)

// Hub 对应一个 websocket 连接：读循环把请求放进 msg，handleRequest 计算，
// handleResponse 是唯一的写者。
type Hub struct {
	conn *websocket.Conn

	env      *calculator.Env
	exec     *calculator.Executor
	defaults model.PlateParams
	field    calculator.FieldEvaluator // 当前场景，只在 handleRequest 中读写

	// request
	msg chan model.Msg
	// response
	reply chan model.Msg
	done  chan struct{}
}

func NewHub(conn *websocket.Conn, env *calculator.Env, exec *calculator.Executor, defaults model.PlateParams) *Hub {
	return &Hub{
		conn:     conn,
		env:      env,
		exec:     exec,
		defaults: defaults,
		msg:      make(chan model.Msg, 10),
		reply:    make(chan model.Msg, 10),
		done:     make(chan struct{}),
	}
}

func (h *Hub) close() {
	close(h.done)
}

func (h *Hub) handleResponse() {
	for {
		select {
		case reply := <-h.reply:
			if err := h.conn.WriteJSON(&reply); err != nil {
				log.WithError(err).WithField("type", reply.Type).Warn("write reply failed")
			}
		case <-h.done:
			return
		}
	}
}

func (h *Hub) handleRequest() {
	for {
		select {
		case msg := <-h.msg:
			reply := h.dispatch(msg)
			select {
			case h.reply <- reply:
			case <-h.done:
				return
			}
		case <-h.done:
			return
		}
	}
}

func (h *Hub) dispatch(msg model.Msg) model.Msg {
	var (
		content interface{}
		typ     string
		err     error
	)
	switch msg.Type {
	case MsgScenario:
		typ = ReplyScenarioSet
		content, err = h.setScenario(msg.Content)
	case MsgField:
		typ = ReplyField
		content, err = h.evaluate(msg.Content)
	case MsgProfile:
		typ = ReplyProfile
		content, err = h.profile(msg.Content)
	case MsgSection:
		typ = ReplySection
		content, err = h.section(msg.Content)
	default:
		err = fmt.Errorf("no such type: %q", msg.Type)
	}
	if err != nil {
		log.WithError(err).WithField("type", msg.Type).Warn("request failed")
		return model.Msg{Type: ReplyError, Content: err.Error()}
	}

	data, err := json.Marshal(content)
	if err != nil {
		return model.Msg{Type: ReplyError, Content: err.Error()}
	}
	return model.Msg{Type: typ, Content: string(data)}
}

func (h *Hub) setScenario(content string) (interface{}, error) {
	req := model.ScenarioReq{Params: h.defaults}
	if err := json.Unmarshal([]byte(content), &req); err != nil {
		return nil, err
	}
	f, err := scenario.Build(req.Name, h.env, req.Params)
	if err != nil {
		return nil, err
	}
	h.field = f
	return req, nil
}

func (h *Hub) current() (calculator.FieldEvaluator, error) {
	if h.field == nil {
		return nil, fmt.Errorf("no scenario selected")
	}
	return h.field, nil
}

func (h *Hub) evaluate(content string) (interface{}, error) {
	f, err := h.current()
	if err != nil {
		return nil, err
	}
	var points []model.Vec3
	if err := json.Unmarshal([]byte(content), &points); err != nil {
		return nil, err
	}
	return evaluateFields(h.exec, f, points), nil
}

func (h *Hub) profile(content string) (interface{}, error) {
	f, err := h.current()
	if err != nil {
		return nil, err
	}
	var req model.ProfileReq
	if err := json.Unmarshal([]byte(content), &req); err != nil {
		return nil, err
	}
	p, err := h.exec.AxisProfile(f, req.From, req.To, req.N)
	if err != nil {
		return nil, err
	}
	fields, singular := calculator.ReplaceNonFinite(p.Fields)
	return model.ProfileResult{Points: p.Points, Fields: fields, Singular: singular}, nil
}

func (h *Hub) section(content string) (interface{}, error) {
	f, err := h.current()
	if err != nil {
		return nil, err
	}
	var req model.SectionReq
	if err := json.Unmarshal([]byte(content), &req); err != nil {
		return nil, err
	}
	plane, err := calculator.ParsePlane(req.Plane)
	if err != nil {
		return nil, err
	}
	s, err := h.exec.CrossSection(f, plane, req.U0, req.U1, req.V0, req.V1, req.NU, req.NV, req.W)
	if err != nil {
		return nil, err
	}
	return buildSectionResult(s), nil
}

// 计算场强与电势，JSON 无法表示 Inf / NaN，奇点处置 0 并记录下标
func evaluateFields(exec *calculator.Executor, f calculator.FieldEvaluator, points []model.Vec3) model.FieldResponse {
	fields, singular := calculator.ReplaceNonFinite(exec.EvaluatePoints(f, points))
	potentials := exec.PotentialPoints(f, points)

	marked := make(map[int]bool, len(singular))
	for _, i := range singular {
		marked[i] = true
	}
	for i, v := range potentials {
		if finite(v) {
			continue
		}
		potentials[i] = 0
		if !marked[i] {
			singular = append(singular, i)
		}
	}
	return model.FieldResponse{Fields: fields, Potentials: potentials, Singular: singular}
}

func buildSectionResult(s *calculator.Section) model.SectionResult {
	res := model.SectionResult{
		Plane: string(s.Plane),
		U:     s.U,
		V:     s.V,
	}
	res.EU, _ = denseRows(s.EU)
	res.EV, _ = denseRows(s.EV)
	res.Magnitude, res.Singular = denseRows(s.Magnitude)
	for _, idx := range res.Singular {
		res.EU[idx[0]][idx[1]] = 0
		res.EV[idx[0]][idx[1]] = 0
	}
	return res
}

// 矩阵转为二维切片，非有限值置 0
func denseRows(m *mat.Dense) ([][]float64, [][2]int) {
	r, c := m.Dims()
	rows := make([][]float64, r)
	var singular [][2]int
	for i := 0; i < r; i++ {
		rows[i] = mat.Row(nil, i, m)
		for j := 0; j < c; j++ {
			if !finite(rows[i][j]) {
				rows[i][j] = 0
				singular = append(singular, [2]int{i, j})
			}
		}
	}
	return rows, singular
}

func finite(v float64) bool {
	return !math.IsInf(v, 0) && !math.IsNaN(v)
}
