package http

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"

	"chessrules/internal/server/core"
	"chessrules/internal/server/processor"
	"chessrules/internal/server/service"
)

type testServer struct {
	app  *fiber.App
	proc *processor.Processor
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	svc := service.New(nil, zerolog.Nop())
	t.Cleanup(func() { svc.Shutdown(time.Second) })
	proc := processor.New(svc, zerolog.Nop())
	return &testServer{app: NewFiberApp(proc, svc, true), proc: proc}
}

// do sends a request and decodes the JSON reply into out when non-nil
func (s *testServer) do(t *testing.T, method, path, body string, out any) int {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("%s %s: decode: %v", method, path, err)
		}
	}
	return resp.StatusCode
}

func (s *testServer) create(t *testing.T, body string) core.GameResponse {
	t.Helper()
	var gr core.GameResponse
	if status := s.do(t, "POST", "/api/v1/games", body, &gr); status != fiber.StatusCreated {
		t.Fatalf("create: status %d", status)
	}
	return gr
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	var out map[string]any
	if status := s.do(t, "GET", "/health", "", &out); status != fiber.StatusOK {
		t.Fatalf("status %d", status)
	}
	if out["storage"] != "disabled" || out["status"] != "healthy" {
		t.Fatalf("unexpected health %v", out)
	}
}

func TestCreateAndGetGame(t *testing.T) {
	s := newTestServer(t)

	gr := s.create(t, `{"white":{"name":"Ann"}}`)
	if gr.Players.White.Name != "Ann" || gr.Players.Black.Name != "Black" {
		t.Fatalf("unexpected players %+v", gr.Players)
	}

	// no body at all starts from the standard position
	empty := s.create(t, "")
	if empty.FEN != "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1" {
		t.Fatalf("unexpected FEN %s", empty.FEN)
	}

	var got core.GameResponse
	if status := s.do(t, "GET", "/api/v1/games/"+gr.GameID, "", &got); status != fiber.StatusOK {
		t.Fatalf("get: status %d", status)
	}
	if got.GameID != gr.GameID || got.Phase != "choosing_piece" {
		t.Fatalf("unexpected game %+v", got)
	}

	var errResp core.ErrorResponse
	if status := s.do(t, "GET", "/api/v1/games/not-a-uuid", "", &errResp); status != fiber.StatusBadRequest {
		t.Fatalf("expected 400, got %d", status)
	}
	if status := s.do(t, "GET", "/api/v1/games/00000000-0000-0000-0000-000000000000", "", &errResp); status != fiber.StatusNotFound {
		t.Fatalf("expected 404, got %d", status)
	}
	if errResp.Code != core.ErrGameNotFound {
		t.Fatalf("expected %s, got %s", core.ErrGameNotFound, errResp.Code)
	}
}

func TestCreateGame_Rejections(t *testing.T) {
	s := newTestServer(t)
	var errResp core.ErrorResponse

	if status := s.do(t, "POST", "/api/v1/games", `{"fen":"rm -rf /"}`, &errResp); status != fiber.StatusBadRequest {
		t.Fatalf("expected 400, got %d", status)
	}
	if errResp.Code != core.ErrInvalidFEN {
		t.Fatalf("expected %s, got %s", core.ErrInvalidFEN, errResp.Code)
	}

	// Black king on an open file with White to move
	if status := s.do(t, "POST", "/api/v1/games", `{"fen":"4k3/8/8/8/8/8/8/4R1K1 w - - 0 1"}`, &errResp); status != fiber.StatusBadRequest {
		t.Fatalf("expected 400 for a capturable king, got %d", status)
	}
	if errResp.Code != core.ErrInvalidFEN {
		t.Fatalf("expected %s, got %s", core.ErrInvalidFEN, errResp.Code)
	}

	if status := s.do(t, "POST", "/api/v1/games", `{"white":`, &errResp); status != fiber.StatusBadRequest {
		t.Fatalf("expected 400 on malformed body, got %d", status)
	}

	req := httptest.NewRequest("POST", "/api/v1/games", strings.NewReader("fen=x"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := s.app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != fiber.StatusUnsupportedMediaType {
		t.Fatalf("expected 415, got %d", resp.StatusCode)
	}
}

func TestPlayThroughREST(t *testing.T) {
	s := newTestServer(t)
	id := s.create(t, "").GameID
	base := "/api/v1/games/" + id

	var sel core.SelectionResponse
	if status := s.do(t, "POST", base+"/select", `{"square":"e2"}`, &sel); status != fiber.StatusOK {
		t.Fatalf("select: status %d", status)
	}
	if diff := cmp.Diff([]string{"e4", "e3"}, sel.LegalMoves); diff != "" {
		t.Fatalf("legal moves mismatch (-want +got):\n%s", diff)
	}

	var mr core.MoveResponse
	if status := s.do(t, "POST", base+"/moves", `{"to":"e4"}`, &mr); status != fiber.StatusOK {
		t.Fatalf("move: status %d", status)
	}
	if mr.Game.FEN != "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq e3 0 1" {
		t.Fatalf("unexpected FEN %s", mr.Game.FEN)
	}
	if len(mr.Delta) != 2 {
		t.Fatalf("expected a two-square delta, got %+v", mr.Delta)
	}

	var errResp core.ErrorResponse
	if status := s.do(t, "POST", base+"/moves", `{"to":"e5"}`, &errResp); status != fiber.StatusConflict {
		t.Fatalf("move without selection: expected 409, got %d", status)
	}
	if errResp.Code != core.ErrPhaseViolation {
		t.Fatalf("expected %s, got %s", core.ErrPhaseViolation, errResp.Code)
	}

	var legal core.LegalMovesResponse
	if status := s.do(t, "GET", base+"/legal?square=g8", "", &legal); status != fiber.StatusOK {
		t.Fatalf("legal: status %d", status)
	}
	if diff := cmp.Diff([]string{"f6", "h6"}, legal.LegalMoves); diff != "" {
		t.Fatalf("knight moves mismatch (-want +got):\n%s", diff)
	}

	var gr core.GameResponse
	if status := s.do(t, "POST", base+"/select", `{"square":"b8"}`, &sel); status != fiber.StatusOK {
		t.Fatalf("select b8: status %d", status)
	}
	if status := s.do(t, "POST", base+"/deselect", "", &gr); status != fiber.StatusOK {
		t.Fatalf("deselect: status %d", status)
	}
	if gr.Selected != "" || gr.Phase != "choosing_piece" {
		t.Fatalf("selection not cleared: %+v", gr)
	}

	if status := s.do(t, "POST", base+"/undo", `{"count":1}`, &gr); status != fiber.StatusOK {
		t.Fatalf("undo: status %d", status)
	}
	if len(gr.Moves) != 0 || gr.Turn != "w" {
		t.Fatalf("undo did not rewind: %+v", gr)
	}

	var br core.BoardResponse
	if status := s.do(t, "GET", base+"/board", "", &br); status != fiber.StatusOK {
		t.Fatalf("board: status %d", status)
	}
	if br.FEN != gr.FEN || br.Board == "" {
		t.Fatalf("unexpected board %+v", br)
	}

	if status := s.do(t, "DELETE", base, "", nil); status != fiber.StatusNoContent {
		t.Fatalf("delete: status %d", status)
	}
	if status := s.do(t, "GET", base+"/board", "", &errResp); status != fiber.StatusNotFound {
		t.Fatalf("board after delete: expected 404, got %d", status)
	}
}

func TestValidationFailures(t *testing.T) {
	s := newTestServer(t)
	base := "/api/v1/games/" + s.create(t, "").GameID
	var errResp core.ErrorResponse

	cases := []struct {
		path, body string
	}{
		{"/select", `{"square":"e22"}`},
		{"/select", `{}`},
		{"/moves", `{}`},
		{"/promote", `{"piece":"king"}`},
		{"/undo", `{"count":0}`},
		{"/undo", `{"count":301}`},
	}
	for _, tc := range cases {
		if status := s.do(t, "POST", base+tc.path, tc.body, &errResp); status != fiber.StatusBadRequest {
			t.Errorf("%s %s: expected 400, got %d", tc.path, tc.body, status)
		}
		if errResp.Code != core.ErrInvalidRequest || errResp.Details == "" {
			t.Errorf("%s %s: unexpected error %+v", tc.path, tc.body, errResp)
		}
	}

	if status := s.do(t, "GET", base+"/legal", "", &errResp); status != fiber.StatusBadRequest {
		t.Fatalf("legal without square: expected 400, got %d", status)
	}
}

func TestPromotionAndPlayers(t *testing.T) {
	s := newTestServer(t)
	id := s.create(t, `{"fen":"8/4P3/8/8/8/8/k7/4K3 w - - 0 1"}`).GameID
	base := "/api/v1/games/" + id

	var mr core.MoveResponse
	s.do(t, "POST", base+"/select", `{"square":"e7"}`, nil)
	if status := s.do(t, "POST", base+"/moves", `{"to":"e8"}`, &mr); status != fiber.StatusOK {
		t.Fatalf("move: status %d", status)
	}
	if mr.Game.Phase != "pawn_promotion" || mr.Game.Promotion != "e8" {
		t.Fatalf("expected pending promotion, got %+v", mr.Game)
	}

	if status := s.do(t, "POST", base+"/promote", `{"piece":"n"}`, &mr); status != fiber.StatusOK {
		t.Fatalf("promote: status %d", status)
	}
	if mr.Game.FEN != "4N3/8/8/8/8/8/k7/4K3 b - - 0 1" {
		t.Fatalf("unexpected FEN %s", mr.Game.FEN)
	}

	var gr core.GameResponse
	if status := s.do(t, "PUT", base+"/players", `{"white":{"name":"Wes"},"black":{"name":"Bea"}}`, &gr); status != fiber.StatusOK {
		t.Fatalf("players: status %d", status)
	}
	if gr.Players.White.Name != "Wes" || gr.Players.Black.Name != "Bea" {
		t.Fatalf("players not updated: %+v", gr.Players)
	}
}

func TestLongPoll(t *testing.T) {
	s := newTestServer(t)
	id := s.create(t, "").GameID
	base := "/api/v1/games/" + id

	// stale count answers at once
	var gr core.GameResponse
	if status := s.do(t, "GET", base+"?wait=true&moveCount=5", "", &gr); status != fiber.StatusOK {
		t.Fatalf("stale poll: status %d", status)
	}

	done := make(chan core.GameResponse, 1)
	go func() {
		req := httptest.NewRequest("GET", base+"?wait=true&moveCount=0", nil)
		resp, err := s.app.Test(req, -1)
		if err != nil {
			close(done)
			return
		}
		defer resp.Body.Close()
		var out core.GameResponse
		json.NewDecoder(resp.Body).Decode(&out)
		done <- out
	}()

	time.Sleep(100 * time.Millisecond)
	s.proc.Execute(processor.NewSelectCommand(id, core.SelectRequest{Square: "d2"}))
	s.proc.Execute(processor.NewMoveCommand(id, core.MoveRequest{To: "d4"}))

	select {
	case out, ok := <-done:
		if !ok {
			t.Fatalf("long poll request failed")
		}
		if diff := cmp.Diff([]string{"d2d4"}, out.Moves); diff != "" {
			t.Fatalf("moves mismatch (-want +got):\n%s", diff)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("long poll not released by move")
	}
}
