package study

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"chess_study/internal/domain/study"
	apperrors "chess_study/internal/errors"
	"chess_study/internal/httpresponse"
	"chess_study/internal/usecase/keyposition"
	"chess_study/internal/usecase/navigation"
	studyuc "chess_study/internal/usecase/study"
)

const (
	saveTimeout = 5 * time.Second
	writeWait   = 10 * time.Second
)

var errShuttingDown = errors.New("server is shutting down")

type StudyHandler struct {
	log     *zap.SugaredLogger
	studyUC *studyuc.StudyUseCase

	// Hijacked websocket connections are invisible to http.Server.Shutdown,
	// so open studies are tracked here and torn down by Shutdown.
	mu      sync.Mutex
	closing bool
	conns   map[*websocket.Conn]struct{}
	live    sync.WaitGroup
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

func NewStudyHandler(log *zap.SugaredLogger, studyUC *studyuc.StudyUseCase) *StudyHandler {
	return &StudyHandler{
		log:     log,
		studyUC: studyUC,
		conns:   make(map[*websocket.Conn]struct{}),
	}
}

func (h *StudyHandler) ListCourses(w http.ResponseWriter, r *http.Request) {
	courses, err := h.studyUC.ListCourses(r.Context())
	if err != nil {
		h.log.Errorw("failed to list courses", "error", err)
		httpresponse.WriteResponseWithStatus(w, http.StatusInternalServerError, httpresponse.ErrorResponse{ErrorDescription: apperrors.ErrInternal.Error()})
		return
	}
	httpresponse.WriteResponseWithStatus(w, http.StatusOK, courses)
}

func (h *StudyHandler) GetCourse(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	course, err := h.studyUC.GetCourse(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	httpresponse.WriteResponseWithStatus(w, http.StatusOK, course)
}

// HandleStudy upgrades to the study websocket. The first frame is the board
// snapshot; after that every change is pushed and rejected commands are
// answered with an error frame.
func (h *StudyHandler) HandleStudy(w http.ResponseWriter, r *http.Request) {
	if !h.begin() {
		httpresponse.WriteResponseWithStatus(w, http.StatusServiceUnavailable, httpresponse.ErrorResponse{ErrorDescription: errShuttingDown.Error()})
		return
	}
	defer h.live.Done()

	studyID := r.URL.Query().Get("study_id")
	courseID := r.URL.Query().Get("course_id")

	ctrl, err := h.studyUC.OpenStudy(r.Context(), studyID, courseID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Errorw("websocket upgrade failed", "error", err)
		h.closeStudy(ctrl)
		return
	}

	sock := &socket{conn: conn, log: h.log, wait: writeWait}
	h.track(conn)
	defer func() {
		h.untrack(conn)
		h.closeStudy(ctrl)
		conn.Close()
	}()

	ctrl.Subscribe(func(snap study.Snapshot) {
		sock.write(study.ServerMessage{Type: study.MessageSnapshot, Snapshot: &snap})
	})
	snap := ctrl.Snapshot()
	h.log.Infow("study opened", "study_id", snap.StudyID, "course_id", courseID)
	sock.write(study.ServerMessage{Type: study.MessageSnapshot, Snapshot: &snap})

	for {
		var cmd study.Command
		if err := conn.ReadJSON(&cmd); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Warnw("study connection lost", "study_id", snap.StudyID, "error", err)
			}
			return
		}

		if err := dispatch(ctrl, cmd); err != nil {
			h.log.Infow("study command rejected", "study_id", snap.StudyID, "type", cmd.Type, "error", err)
			sock.write(study.ServerMessage{Type: study.MessageError, Error: err.Error()})
		}
	}
}

// Shutdown refuses new studies, closes every open study connection and waits
// until their boards are saved and their engines released.
func (h *StudyHandler) Shutdown(ctx context.Context) error {
	h.mu.Lock()
	h.closing = true
	for conn := range h.conns {
		conn.Close()
	}
	h.mu.Unlock()

	done := make(chan struct{})
	go func() {
		h.live.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *StudyHandler) begin() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closing {
		return false
	}
	h.live.Add(1)
	return true
}

// track registers conn for Shutdown. A connection upgraded after Shutdown
// started is closed straight away.
func (h *StudyHandler) track(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closing {
		conn.Close()
		return
	}
	h.conns[conn] = struct{}{}
}

func (h *StudyHandler) untrack(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.conns, conn)
}

func (h *StudyHandler) closeStudy(ctrl *navigation.Controller) {
	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()
	_ = h.studyUC.CloseStudy(ctx, ctrl)
}

func (h *StudyHandler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, apperrors.ErrCourseNotFound):
		httpresponse.WriteResponseWithStatus(w, http.StatusNotFound, httpresponse.ErrorResponse{ErrorDescription: err.Error()})
	default:
		h.log.Errorw("study request failed", "error", err)
		httpresponse.WriteResponseWithStatus(w, http.StatusInternalServerError, httpresponse.ErrorResponse{ErrorDescription: apperrors.ErrInternal.Error()})
	}
}

func dispatch(ctrl *navigation.Controller, cmd study.Command) error {
	if cmd.Type == study.CommandAnalyze {
		_, err := ctrl.Analyze(study.AnalysisOptions{Lines: cmd.Lines, Depth: cmd.Depth})
		return err
	}

	ev, err := toEvent(cmd)
	if err != nil {
		return err
	}
	_, err = ctrl.Dispatch(ev)
	return err
}

func toEvent(cmd study.Command) (navigation.Event, error) {
	switch cmd.Type {
	case study.CommandPad:
		return navigation.Pad{Pad: cmd.Pad, Direction: cmd.Direction}, nil
	case study.CommandMove:
		return navigation.MakeMove{Move: study.ParseMove(cmd.Move)}, nil
	case study.CommandLoadFEN:
		return navigation.LoadPosition{FEN: cmd.FEN}, nil
	case study.CommandSelectLine:
		return navigation.SelectLine{Rank: cmd.Rank}, nil
	case study.CommandSelectKeyPosition:
		return navigation.SelectKeyPosition{Index: keyposition.FromPtr(cmd.Index)}, nil
	case study.CommandFlip:
		return navigation.FlipBoard{}, nil
	}
	return nil, fmt.Errorf("%w: %q", apperrors.ErrUnknownCommand, cmd.Type)
}

// socket serialises writes; gorilla connections allow one concurrent writer.
type socket struct {
	mu   sync.Mutex
	conn *websocket.Conn
	log  *zap.SugaredLogger
	wait time.Duration
}

// write gives up after s.wait. A client that stops reading is dropped so
// it cannot hold up the study it belongs to.
func (s *socket) write(msg study.ServerMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.conn.SetWriteDeadline(time.Now().Add(s.wait))
	if err := s.conn.WriteJSON(msg); err != nil {
		s.log.Debugw("websocket write failed", "error", err)
		s.conn.Close()
	}
}
