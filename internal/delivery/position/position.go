package position

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"chess_study/internal/domain/study"
	apperrors "chess_study/internal/errors"
	"chess_study/internal/httpresponse"
	"chess_study/internal/usecase/position"
	"chess_study/internal/utils"
)

type ValidateRequest struct {
	FEN string `json:"fen"`
}

type ValidateResponse struct {
	FEN        string            `json:"fen"`
	SideToMove study.Orientation `json:"side_to_move"`
}

type MoveRequest struct {
	FEN  string `json:"fen"`
	Move string `json:"move"`
}

// PositionHandler exposes the board rules without a study session.
type PositionHandler struct {
	log *zap.SugaredLogger
}

func NewPositionHandler(log *zap.SugaredLogger) *PositionHandler {
	return &PositionHandler{log: log}
}

func (h *PositionHandler) Validate(w http.ResponseWriter, r *http.Request) {
	var req ValidateRequest
	if err := utils.DecodeJSONRequest(r, &req); err != nil {
		httpresponse.WriteResponseWithStatus(w, http.StatusBadRequest, httpresponse.ErrorResponse{ErrorDescription: err.Error()})
		return
	}

	fen, err := position.Load(req.FEN)
	if err != nil {
		h.writeError(w, err)
		return
	}
	side, err := position.SideToMove(fen)
	if err != nil {
		h.writeError(w, err)
		return
	}
	httpresponse.WriteResponseWithStatus(w, http.StatusOK, ValidateResponse{FEN: fen, SideToMove: side})
}

func (h *PositionHandler) Move(w http.ResponseWriter, r *http.Request) {
	var req MoveRequest
	if err := utils.DecodeJSONRequest(r, &req); err != nil {
		httpresponse.WriteResponseWithStatus(w, http.StatusBadRequest, httpresponse.ErrorResponse{ErrorDescription: err.Error()})
		return
	}

	fen, err := position.Load(req.FEN)
	if err != nil {
		h.writeError(w, err)
		return
	}
	res, err := position.ApplyMove(fen, study.ParseMove(req.Move))
	if err != nil {
		h.writeError(w, err)
		return
	}
	httpresponse.WriteResponseWithStatus(w, http.StatusOK, res)
}

func (h *PositionHandler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, apperrors.ErrInvalidFen), errors.Is(err, apperrors.ErrIllegalMove):
		httpresponse.WriteResponseWithStatus(w, http.StatusUnprocessableEntity, httpresponse.ErrorResponse{ErrorDescription: err.Error()})
	default:
		h.log.Errorw("position request failed", "error", err)
		httpresponse.WriteInternalErrorResponse(w)
	}
}
