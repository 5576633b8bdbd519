package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"platefield/calculator"
	"platefield/model"
	"platefield/scenario"
)

type Server struct {
	addr     string
	upgrader websocket.Upgrader

	env      *calculator.Env
	exec     *calculator.Executor
	defaults model.PlateParams
}

func NewServer(addr string, upgrader websocket.Upgrader, env *calculator.Env, exec *calculator.Executor, defaults model.PlateParams) *Server {
	return &Server{
		addr:     addr,
		upgrader: upgrader,
		env:      env,
		exec:     exec,
		defaults: defaults,
	}
}

func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/ws", s.serveWs).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/scenarios", s.scenarios).Methods("GET")
	api.HandleFunc("/field", s.field).Methods("POST")
	return r
}

// serveWs handles websocket requests from the peer.
func (s *Server) serveWs(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.WithError(err).Warn("websocket upgrade failed")
		return
	}
	defer conn.Close()

	hub := NewHub(conn, s.env, s.exec, s.defaults)
	go hub.handleRequest()
	go hub.handleResponse()
	defer hub.close()

	for {
		var msg model.Msg
		if err := conn.ReadJSON(&msg); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.WithError(err).Info("websocket read stopped")
			}
			return
		}
		hub.msg <- msg
	}
}

func (s *Server) scenarios(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(scenario.Names())
}

func (s *Server) field(w http.ResponseWriter, r *http.Request) {
	var req model.FieldRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	params := req.Params
	if reflect.DeepEqual(params, model.PlateParams{}) {
		params = s.defaults
	}
	f, err := scenario.Build(req.Scenario, s.env, params)
	if err != nil {
		log.WithError(err).WithField("scenario", req.Scenario).Warn("field request rejected")
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(evaluateFields(s.exec, f, req.Points))
}

// Serve 启动服务，ctx 取消后优雅退出
func (s *Server) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.addr,
		Handler: s.Handler(),
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", s.addr).Info("server started")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	log.Info("server stopped")
	return nil
}
