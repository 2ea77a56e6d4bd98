package position

import (
	"fmt"
	"strings"

	"github.com/notnil/chess"

	"chess_study/internal/domain/study"
	apperrors "chess_study/internal/errors"
)

// Load validates a FEN or the "start" keyword and returns the canonical FEN.
func Load(fenOrKeyword string) (string, error) {
	s := strings.TrimSpace(fenOrKeyword)
	if strings.EqualFold(s, study.StartKeyword) {
		return study.StartFEN, nil
	}
	canonical := strings.Join(strings.Fields(s), " ")
	if _, err := newGame(canonical); err != nil {
		return "", fmt.Errorf("%w: %v", apperrors.ErrInvalidFen, err)
	}
	return canonical, nil
}

// SideToMove returns the colour whose turn it is in fen.
func SideToMove(fen string) (study.Orientation, error) {
	fields, err := checkFields(fen)
	if err != nil {
		return "", fmt.Errorf("%w: %v", apperrors.ErrInvalidFen, err)
	}
	if fields[1] == "w" {
		return study.White, nil
	}
	return study.Black, nil
}

// ApplyMove plays m on fen. The input FEN is never modified; on rejection the
// caller keeps its previous position.
func ApplyMove(fen string, m study.Move) (study.MoveResult, error) {
	game, err := newGame(fen)
	if err != nil {
		return study.MoveResult{}, fmt.Errorf("%w: %v", apperrors.ErrInvalidFen, err)
	}
	before := game.Position()

	from, okFrom := parseSquare(m.From)
	to, okTo := parseSquare(m.To)
	promo := strings.ToLower(m.Promotion)
	if !okFrom || !okTo || (promo != "" && !strings.Contains("qrbn", promo)) || len(promo) > 1 {
		return study.MoveResult{}, fmt.Errorf("%w: malformed move %q", apperrors.ErrIllegalMove, m.UCI())
	}

	piece := before.Board().Piece(from)
	if piece == chess.NoPiece {
		return study.MoveResult{}, fmt.Errorf("%w: no piece on %s", apperrors.ErrIllegalMove, from)
	}
	if piece.Color() != before.Turn() {
		return study.MoveResult{}, fmt.Errorf("%w: piece on %s does not belong to the side to move", apperrors.ErrIllegalMove, from)
	}
	if piece.Type() == chess.Pawn && (to.Rank() == chess.Rank1 || to.Rank() == chess.Rank8) && promo == "" {
		promo = "q"
	}

	uci := from.String() + to.String() + promo
	mv, err := chess.UCINotation{}.Decode(before, uci)
	if err != nil {
		return study.MoveResult{}, fmt.Errorf("%w: %s: %v", apperrors.ErrIllegalMove, uci, err)
	}
	if err := game.Move(mv); err != nil {
		return study.MoveResult{}, fmt.Errorf("%w: %s is not legal here", apperrors.ErrIllegalMove, uci)
	}

	moves := game.Moves()
	played := moves[len(moves)-1]

	result := study.MoveResult{
		FEN: game.Position().String(),
		SAN: chess.AlgebraicNotation{}.Encode(before, played),
	}
	result.Status, result.Winner = gameStatus(game)
	result.ClaimableDraws = claimableDraws(game)
	return result, nil
}

// Replay plays moves[0..upto] from base and returns the resulting FEN.
// upto == -1 returns base unchanged.
func Replay(base string, moves []string, upto int) (string, error) {
	fen := base
	for i := 0; i <= upto && i < len(moves); i++ {
		res, err := ApplyMove(fen, study.ParseMove(moves[i]))
		if err != nil {
			return "", fmt.Errorf("move %d (%s): %w", i+1, moves[i], err)
		}
		fen = res.FEN
	}
	return fen, nil
}

func gameStatus(game *chess.Game) (study.GameStatus, string) {
	switch game.Method() {
	case chess.Checkmate:
		if game.Outcome() == chess.WhiteWon {
			return study.StatusCheckmate, string(study.White)
		}
		return study.StatusCheckmate, string(study.Black)
	case chess.Stalemate:
		return study.StatusStalemate, ""
	case chess.InsufficientMaterial:
		return study.StatusInsufficientMaterial, ""
	case chess.SeventyFiveMoveRule:
		return study.StatusSeventyFiveMoveRule, ""
	case chess.FivefoldRepetition:
		return study.StatusFivefoldRepetition, ""
	}
	return study.StatusOngoing, ""
}

func claimableDraws(game *chess.Game) []string {
	var draws []string
	for _, method := range game.EligibleDraws() {
		switch method {
		case chess.ThreefoldRepetition:
			draws = append(draws, "threefold_repetition")
		case chess.FiftyMoveRule:
			draws = append(draws, "fifty_move_rule")
		}
	}
	return draws
}
