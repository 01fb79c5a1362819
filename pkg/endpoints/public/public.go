package public

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/cors"
	"github.com/samber/lo"

	"github.com/mpapenbr/binkrace/log"
	"github.com/mpapenbr/binkrace/pkg/leaderboard"
	"github.com/mpapenbr/binkrace/pkg/model"
	"github.com/mpapenbr/binkrace/pkg/processing"
	"github.com/mpapenbr/binkrace/pkg/processing/control"
	"github.com/mpapenbr/binkrace/pkg/processing/race"
	"github.com/mpapenbr/binkrace/pkg/utils/broadcast"
	"github.com/mpapenbr/binkrace/version"
)

const writeWait = 2 * time.Second

// Server exposes a running race over http. Renderers poll /api/race or get
// every snapshot pushed via /ws. Input arrives via PUT /api/input or as
// json messages on the websocket.
type Server struct {
	proc      *processing.Processor
	input     *control.Static
	snapshots broadcast.BroadcastServer[model.Snapshot]
	log       *log.Logger
	upgrader  websocket.Upgrader
}

type Option func(s *Server)

func WithProcessor(p *processing.Processor) Option {
	return func(s *Server) {
		s.proc = p
	}
}

// WithInput receives the input sent by clients.
func WithInput(in *control.Static) Option {
	return func(s *Server) {
		s.input = in
	}
}

// WithSnapshots enables /ws.
func WithSnapshots(b broadcast.BroadcastServer[model.Snapshot]) Option {
	return func(s *Server) {
		s.snapshots = b
	}
}

func WithLogger(l *log.Logger) Option {
	return func(s *Server) {
		s.log = l
	}
}

func NewServer(opts ...Option) *Server {
	ret := &Server{
		log:   log.Default().Named("public"),
		input: control.NewStatic(model.Input{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
	for _, opt := range opts {
		opt(ret)
	}
	if ret.proc == nil {
		ret.proc = processing.NewProcessor(processing.WithInputSource(ret.input))
	}
	return ret
}

// Handler returns the routes wrapped in a permissive CORS handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/version", s.getVersion)
	mux.HandleFunc("GET /api/track", s.getTrack)
	mux.HandleFunc("GET /api/race", s.getRace)
	mux.HandleFunc("POST /api/race/start", s.changePhase(s.proc.Start))
	mux.HandleFunc("POST /api/race/reset", s.changePhase(s.proc.Reset))
	mux.HandleFunc("PUT /api/input", s.putInput)
	mux.HandleFunc("GET /api/leaderboard", s.getLeaderboard)
	mux.HandleFunc("DELETE /api/leaderboard", s.clearLeaderboard)
	mux.HandleFunc("GET /ws", s.serveWS)
	return newCORS().Handler(mux)
}

type (
	versionResponse struct {
		Version string `json:"version"`
	}
	entryView struct {
		model.LeaderboardEntry
		Formatted string `json:"formatted"`
	}
	leaderboardResponse struct {
		Limit   int         `json:"limit"`
		Entries []entryView `json:"entries"`
	}
	errorResponse struct {
		Error string `json:"error"`
	}
)

func (s *Server) getVersion(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, versionResponse{Version: version.Version})
}

func (s *Server) getTrack(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.proc.Track())
}

func (s *Server) getRace(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.proc.Snapshot())
}

func (s *Server) changePhase(fn func() error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := fn(); err != nil {
			if errors.Is(err, race.ErrInvalidTransition) {
				s.writeError(w, http.StatusConflict, err)
				return
			}
			s.writeError(w, http.StatusInternalServerError, err)
			return
		}
		s.writeJSON(w, http.StatusOK, s.proc.Snapshot())
	}
}

func (s *Server) putInput(w http.ResponseWriter, r *http.Request) {
	var in model.Input
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	s.input.Set(in)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) getLeaderboard(w http.ResponseWriter, r *http.Request) {
	lb := s.proc.Leaderboard()
	if lb == nil {
		s.writeError(w, http.StatusNotFound, errors.New("no leaderboard configured"))
		return
	}
	s.writeJSON(w, http.StatusOK, leaderboardResponse{
		Limit: lb.Limit(),
		Entries: lo.Map(lb.Entries(), func(e model.LeaderboardEntry, _ int) entryView {
			return entryView{LeaderboardEntry: e, Formatted: leaderboard.FormatTime(e.Time)}
		}),
	})
}

func (s *Server) clearLeaderboard(w http.ResponseWriter, r *http.Request) {
	lb := s.proc.Leaderboard()
	if lb == nil {
		s.writeError(w, http.StatusNotFound, errors.New("no leaderboard configured"))
		return
	}
	if err := lb.Clear(r.Context()); err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

//nolint:funlen // reader and writer loop
func (s *Server) serveWS(w http.ResponseWriter, r *http.Request) {
	if s.snapshots == nil {
		s.writeError(w, http.StatusNotFound, errors.New("live data not enabled"))
		return
	}
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", log.ErrorField(err))
		return
	}
	defer conn.Close()

	ch := s.snapshots.Subscribe()
	if ch == nil {
		return
	}
	defer s.snapshots.CancelSubscription(ch)
	s.log.Debug("websocket client connected", log.String("remote", r.RemoteAddr))

	// the reader notices closed connections
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			var in model.Input
			if err := conn.ReadJSON(&in); err != nil {
				var syntaxErr *json.SyntaxError
				if errors.As(err, &syntaxErr) {
					s.log.Debug("ignoring invalid input message", log.ErrorField(err))
					continue
				}
				return
			}
			s.input.Set(in)
		}
	}()

	if err := s.writeSnapshot(conn, s.proc.Snapshot()); err != nil {
		return
	}
	for {
		select {
		case <-done:
			s.log.Debug("websocket client disconnected", log.String("remote", r.RemoteAddr))
			return
		case <-r.Context().Done():
			return
		case snap, ok := <-ch:
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, ""),
					time.Now().Add(writeWait))
				return
			}
			if err := s.writeSnapshot(conn, snap); err != nil {
				s.log.Debug("websocket write failed", log.ErrorField(err))
				return
			}
		}
	}
}

func (s *Server) writeSnapshot(conn *websocket.Conn, snap model.Snapshot) error {
	if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return conn.WriteJSON(snap)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Warn("error writing response", log.ErrorField(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	s.writeJSON(w, status, errorResponse{Error: err.Error()})
}

func newCORS() *cors.Cors {
	// browser based renderers may be served from anywhere
	return cors.New(cors.Options{
		AllowedMethods: []string{
			http.MethodHead,
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodDelete,
		},
		AllowOriginFunc: func(origin string) bool {
			return true
		},
		AllowedHeaders: []string{"*"},
		MaxAge:         7200,
	})
}
