package study

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"chess_study/internal/domain/study"
	apperrors "chess_study/internal/errors"
	"chess_study/internal/usecase/analysis/enginetest"
	studyuc "chess_study/internal/usecase/study"
)

type courses []study.Course

func (c courses) GetCourse(_ context.Context, id string) (study.Course, error) {
	for _, course := range c {
		if course.ID == id {
			return course, nil
		}
	}
	return study.Course{}, fmt.Errorf("%w: %s", apperrors.ErrCourseNotFound, id)
}

func (c courses) ListCourses(context.Context) ([]study.Course, error) {
	return c, nil
}

var catalogue = courses{{
	ID:       "sicilian",
	Title:    "The Sicilian Defence",
	VideoURL: "https://example.org/sicilian.mp4",
	KeyPositions: []study.KeyPosition{
		{ID: "open", FEN: "rnbqkbnr/pp1ppppp/8/2p5/4P3/8/PPPP1PPP/RNBQKBNR w KQkq - 0 2", Description: "1.e4 c5"},
		{ID: "nc6", FEN: "r1bqkbnr/pp1ppppp/2n5/2p5/4P3/5N2/PPPP1PPP/RNBQKB1R w KQkq - 2 3", Description: "2.Nf3 Nc6"},
	},
}}

type savedStudies struct {
	mu    sync.Mutex
	saved map[string]study.SavedStudy
}

func (s *savedStudies) SaveStudy(_ context.Context, saved study.SavedStudy) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saved[saved.StudyID] = saved
	return nil
}

func (s *savedStudies) LoadStudy(_ context.Context, id string) (study.SavedStudy, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	saved, ok := s.saved[id]
	if !ok {
		return study.SavedStudy{}, apperrors.ErrStudyNotFound
	}
	return saved, nil
}

func newServer(t *testing.T, engines *enginetest.Factory) *httptest.Server {
	t.Helper()
	srv, _ := newHandler(t, engines, nil)
	return srv
}

func newHandler(t *testing.T, engines *enginetest.Factory, states studyuc.StateStore) (*httptest.Server, *StudyHandler) {
	t.Helper()
	log := zap.NewNop().Sugar()
	uc := studyuc.NewStudyUseCase(catalogue, states, engines, study.AnalysisOptions{Lines: 4, Depth: 15}, log)
	h := NewStudyHandler(log, uc)

	r := chi.NewRouter()
	r.Get("/courses", h.ListCourses)
	r.Get("/courses/{id}", h.GetCourse)
	r.Get("/study", h.HandleStudy)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, h
}

func TestGetCourse(t *testing.T) {
	srv := newServer(t, &enginetest.Factory{})

	resp, err := http.Get(srv.URL + "/courses/sicilian")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Status int
		Body   study.Course
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, http.StatusOK, body.Status)
	assert.Equal(t, "The Sicilian Defence", body.Body.Title)
	assert.Len(t, body.Body.KeyPositions, 2)

	missing, err := http.Get(srv.URL + "/courses/french")
	require.NoError(t, err)
	missing.Body.Close()
	assert.Equal(t, http.StatusNotFound, missing.StatusCode)
}

func TestListCourses(t *testing.T) {
	srv := newServer(t, &enginetest.Factory{})

	resp, err := http.Get(srv.URL + "/courses")
	require.NoError(t, err)
	defer resp.Body.Close()

	var body struct {
		Body []study.Course
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Len(t, body.Body, 1)
}

type client struct {
	t    *testing.T
	conn *websocket.Conn
}

func dial(t *testing.T, srv *httptest.Server, query string) *client {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/study?" + query
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return &client{t: t, conn: conn}
}

func (c *client) send(cmd study.Command) {
	c.t.Helper()
	require.NoError(c.t, c.conn.WriteJSON(cmd))
}

func (c *client) read() study.ServerMessage {
	c.t.Helper()
	require.NoError(c.t, c.conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var msg study.ServerMessage
	require.NoError(c.t, c.conn.ReadJSON(&msg))
	return msg
}

// until reads frames until a snapshot satisfies ok.
func (c *client) until(ok func(study.Snapshot) bool) study.Snapshot {
	c.t.Helper()
	for {
		msg := c.read()
		if msg.Snapshot != nil && ok(*msg.Snapshot) {
			return *msg.Snapshot
		}
	}
}

func TestStudyWebsocketKeyPad(t *testing.T) {
	srv := newServer(t, &enginetest.Factory{})
	c := dial(t, srv, "course_id=sicilian&study_id=s1")

	first := c.read()
	require.Equal(t, study.MessageSnapshot, first.Type)
	assert.Equal(t, study.StartFEN, first.Snapshot.Position)
	assert.Nil(t, first.Snapshot.KeyIndex)

	c.send(study.Command{Type: study.CommandPad, Pad: study.PadKeyPositions, Direction: study.Right})
	snap := c.until(func(s study.Snapshot) bool { return s.Advisory != "" })
	assert.Equal(t, study.AdvisoryPickPosition, snap.Advisory)

	c.send(study.Command{Type: study.CommandPad, Pad: study.PadKeyPositions, Direction: study.Down})
	c.send(study.Command{Type: study.CommandPad, Pad: study.PadKeyPositions, Direction: study.Right})
	snap = c.until(func(s study.Snapshot) bool { return s.Position != study.StartFEN })
	assert.Equal(t, catalogue[0].KeyPositions[0].FEN, snap.Position)
	require.NotNil(t, snap.KeyIndex)
	assert.Equal(t, 0, *snap.KeyIndex)
}

func TestStudyWebsocketAnalysis(t *testing.T) {
	engines := &enginetest.Factory{Script: enginetest.BestMoveScript(15, "e2e4 e7e5", "d2d4 d7d5")}
	srv := newServer(t, engines)
	c := dial(t, srv, "")
	c.read()

	c.send(study.Command{Type: study.CommandAnalyze, Lines: 2})
	snap := c.until(func(s study.Snapshot) bool { return s.Phase == study.PhaseIdle && len(s.Lines) == 2 })
	assert.Equal(t, []string{"d2d4", "d7d5"}, snap.Lines[1].Moves)

	c.send(study.Command{Type: study.CommandPad, Pad: study.PadAnalysis, Direction: study.Right})
	snap = c.until(func(s study.Snapshot) bool { return s.MoveOffset == 0 })
	assert.True(t, strings.HasPrefix(snap.Display, "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b"))

	c.send(study.Command{Type: study.CommandMove, Move: "e7e5"})
	snap = c.until(func(s study.Snapshot) bool { return s.LastMove != nil })
	assert.Equal(t, "e5", snap.LastMove.SAN)
	assert.Empty(t, snap.Lines)
}

func TestStudyWebsocketRejectedCommand(t *testing.T) {
	srv := newServer(t, &enginetest.Factory{})
	c := dial(t, srv, "")
	c.read()

	c.send(study.Command{Type: study.CommandMove, Move: "e3e4"})
	msg := c.read()
	assert.Equal(t, study.MessageError, msg.Type)
	assert.Contains(t, msg.Error, "illegal move")

	c.send(study.Command{Type: "teleport"})
	msg = c.read()
	assert.Equal(t, study.MessageError, msg.Type)
	assert.Contains(t, msg.Error, apperrors.ErrUnknownCommand.Error())
}

func TestStudyUnknownCourse(t *testing.T) {
	srv := newServer(t, &enginetest.Factory{})

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/study?course_id=french"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestStudyDisconnectReleasesEngine(t *testing.T) {
	engines := &enginetest.Factory{}
	srv := newServer(t, engines)
	c := dial(t, srv, "")
	c.read()

	c.send(study.Command{Type: study.CommandAnalyze})
	c.until(func(s study.Snapshot) bool { return s.Phase == study.PhaseAnalyzing })

	require.NoError(t, c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")))
	require.Eventually(t, engines.Last().Terminated, 5*time.Second, 10*time.Millisecond)
}

func TestShutdownClosesOpenStudies(t *testing.T) {
	engines := &enginetest.Factory{}
	states := &savedStudies{saved: map[string]study.SavedStudy{}}
	srv, h := newHandler(t, engines, states)

	c := dial(t, srv, "course_id=sicilian&study_id=s1")
	c.read()
	c.send(study.Command{Type: study.CommandPad, Pad: study.PadKeyPositions, Direction: study.Down})
	c.send(study.Command{Type: study.CommandAnalyze})
	c.until(func(s study.Snapshot) bool { return s.Phase == study.PhaseAnalyzing })

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, h.Shutdown(ctx))

	assert.True(t, engines.Last().Terminated())
	saved, err := states.LoadStudy(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, "sicilian", saved.CourseID)
	require.NotNil(t, saved.KeyIndex)
	assert.Equal(t, 0, *saved.KeyIndex)

	_, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/study", nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestSocketWriteGivesUpOnStalledClient(t *testing.T) {
	conns := make(chan *websocket.Conn, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		conns <- conn
	}))
	defer srv.Close()

	peer, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	defer peer.Close()

	conn := <-conns
	sock := &socket{conn: conn, log: zap.NewNop().Sugar(), wait: 100 * time.Millisecond}

	// The peer never reads, so a frame larger than the socket buffers stalls.
	start := time.Now()
	sock.write(study.ServerMessage{Type: study.MessageError, Error: strings.Repeat("x", 64<<20)})
	assert.Less(t, time.Since(start), 5*time.Second)
	assert.Error(t, conn.WriteMessage(websocket.TextMessage, []byte("{}")))
}
