package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tollgate-network/tollgate/internal/domain"
)

// ─── Bounty board ───────────────────────────────────────────────────────────

func (s *Server) handlePostBounty(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		Reward      int64  `json:"reward"`
		PostedBy    string `json:"posted_by"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	bt, err := s.board.Post(body.Title, body.Description, body.Reward, body.PostedBy)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, bt)
}

func (s *Server) handleListBounties(w http.ResponseWriter, r *http.Request) {
	filter := domain.BountyStatus(r.URL.Query().Get("status"))
	if filter != "" && filter != domain.BountyOpen && filter != domain.BountySubmitted {
		writeError(w, http.StatusBadRequest, "unknown status: "+string(filter))
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"bounties": s.board.List(filter),
	})
}

func (s *Server) handleGetBounty(w http.ResponseWriter, r *http.Request) {
	bt, err := s.board.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, bt)
}

// handleUpdateBounty applies a negotiation. An accepted reward change is
// forwarded to the settlement ledger's audit trail.
func (s *Server) handleUpdateBounty(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var body struct {
		Reward      *int64  `json:"reward"`
		Description *string `json:"description"`
		PostedBy    string  `json:"posted_by"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	bt, change, err := s.board.Update(id, domain.BountyUpdate{
		Reward:      body.Reward,
		Description: body.Description,
		PostedBy:    body.PostedBy,
	})
	if err != nil {
		s.writeBountyError(w, err)
		return
	}
	if change != nil {
		s.ledger.RecordNegotiation(id, change.OldReward, change.NewReward, change.UpdatedBy)
	}
	writeJSON(w, http.StatusOK, bt)
}

func (s *Server) handleSubmitWork(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var body struct {
		Author  string `json:"author"`
		Content string `json:"content"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if body.Author == "" {
		writeError(w, http.StatusBadRequest, "author is required")
		return
	}

	bt, err := s.board.SubmitWork(id, body.Author, body.Content)
	if err != nil {
		s.writeBountyError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, bt)
}

func (s *Server) writeBountyError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrAuthorizationDenied):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, domain.ErrBountyNotOpen):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrInvalidAmount):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}
