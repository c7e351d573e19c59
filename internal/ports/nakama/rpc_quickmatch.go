package nakama

import (
	"context"
	"database/sql"

	"pan/internal/config"

	"github.com/heroiclabs/nakama-common/runtime"
)

// QuickMatchResponse is the payload returned to clients when requesting a lobby-capable match.
type QuickMatchResponse struct {
	MatchID string `json:"match_id"`
	IsNew   bool   `json:"is_new"`
	Ticket  string `json:"ticket"`
}

const quickMatchQuery = "+label.game:pan +label.state:lobby +label.open:>=1"

func (h *rpcHandlers) rpcQuickMatch(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	userID, err := callerID(ctx)
	if err != nil {
		return "", err
	}

	limit := 10
	authoritative := true
	minSize := 0
	maxSize := 5 // a six-seat room with one free seat still qualifies

	matches, err := nk.MatchList(ctx, limit, authoritative, "", &minSize, &maxSize, quickMatchQuery)
	if err != nil {
		logger.Error("QuickMatch [User:%s]: MatchList error: %v", userID, err)
		return "", err
	}

	for _, candidate := range matches {
		m, err := h.registry.Get(candidate.MatchId)
		if err != nil || m.IsRoomFull() || m.Started() {
			continue
		}
		ticket, err := h.tickets.Issue(m.ID(), userID)
		if err != nil {
			logger.Error("QuickMatch [User:%s]: Failed to issue ticket: %v", userID, err)
			return "", runtime.NewError("Internal error", codeInternal)
		}
		return encodeResponse(QuickMatchResponse{MatchID: m.ID(), Ticket: ticket})
	}

	// Create new match; seat assignment happens in MatchJoin (server-authoritative).
	matchID, err := nk.MatchCreate(ctx, MatchNamePan, map[string]interface{}{"capacity": config.DefaultRoomCapacity()})
	if err != nil {
		logger.Error("QuickMatch [User:%s]: MatchCreate error: %v", userID, err)
		return "", err
	}
	ticket, err := h.tickets.Issue(matchID, userID)
	if err != nil {
		logger.Error("QuickMatch [User:%s]: Failed to issue ticket: %v", userID, err)
		return "", runtime.NewError("Internal error", codeInternal)
	}
	return encodeResponse(QuickMatchResponse{MatchID: matchID, IsNew: true, Ticket: ticket})
}
