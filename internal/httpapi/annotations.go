package httpapi

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"littlebird/internal/service"
)

func watchlistOnly(r *http.Request) bool {
	v := r.URL.Query().Get("watchlist")
	return v == "true" || v == "1"
}

func (s *Server) handleListTrackedBills(w http.ResponseWriter, r *http.Request) {
	tracked, err := s.deps.Tracking.ListBills(r.Context(), UserID(r.Context()), watchlistOnly(r))
	if err != nil {
		writeServiceError(w, r, s.logger, err)
		return
	}
	writeResult(w, http.StatusOK, tracked)
}

func (s *Server) handleTrackBill(w http.ResponseWriter, r *http.Request) {
	billID, err := pathInt64(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var in service.TrackBillInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	tracked, err := s.deps.Tracking.TrackBill(r.Context(), UserID(r.Context()), billID, in)
	if err != nil {
		writeServiceError(w, r, s.logger, err)
		return
	}
	writeResult(w, http.StatusOK, tracked)
}

func (s *Server) handleUntrackBill(w http.ResponseWriter, r *http.Request) {
	billID, err := pathInt64(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.deps.Tracking.UntrackBill(r.Context(), UserID(r.Context()), billID); err != nil {
		writeServiceError(w, r, s.logger, err)
		return
	}
	writeResult(w, http.StatusOK, nil)
}

func (s *Server) handleListTrackedLegislators(w http.ResponseWriter, r *http.Request) {
	tracked, err := s.deps.Tracking.ListLegislators(r.Context(), UserID(r.Context()), watchlistOnly(r))
	if err != nil {
		writeServiceError(w, r, s.logger, err)
		return
	}
	writeResult(w, http.StatusOK, tracked)
}

func (s *Server) handleTrackLegislator(w http.ResponseWriter, r *http.Request) {
	legislatorID, err := pathInt64(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var in service.TrackLegislatorInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	tracked, err := s.deps.Tracking.TrackLegislator(r.Context(), UserID(r.Context()), legislatorID, in)
	if err != nil {
		writeServiceError(w, r, s.logger, err)
		return
	}
	writeResult(w, http.StatusOK, tracked)
}

func (s *Server) handleUntrackLegislator(w http.ResponseWriter, r *http.Request) {
	legislatorID, err := pathInt64(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.deps.Tracking.UntrackLegislator(r.Context(), UserID(r.Context()), legislatorID); err != nil {
		writeServiceError(w, r, s.logger, err)
		return
	}
	writeResult(w, http.StatusOK, nil)
}

func (s *Server) handleListClients(w http.ResponseWriter, r *http.Request) {
	clients, err := s.deps.Clients.List(r.Context(), UserID(r.Context()))
	if err != nil {
		writeServiceError(w, r, s.logger, err)
		return
	}
	writeResult(w, http.StatusOK, clients)
}

func (s *Server) handleCreateClient(w http.ResponseWriter, r *http.Request) {
	var in service.ClientInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	client, err := s.deps.Clients.Create(r.Context(), UserID(r.Context()), in)
	if err != nil {
		writeServiceError(w, r, s.logger, err)
		return
	}
	writeResult(w, http.StatusCreated, client)
}

func (s *Server) handleGetClient(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	client, err := s.deps.Clients.Get(r.Context(), UserID(r.Context()), id)
	if err != nil {
		writeServiceError(w, r, s.logger, err)
		return
	}
	writeResult(w, http.StatusOK, client)
}

func (s *Server) handleUpdateClient(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var in service.ClientInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	client, err := s.deps.Clients.Update(r.Context(), UserID(r.Context()), id, in)
	if err != nil {
		writeServiceError(w, r, s.logger, err)
		return
	}
	writeResult(w, http.StatusOK, client)
}

func (s *Server) handleDeleteClient(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.deps.Clients.Delete(r.Context(), UserID(r.Context()), id); err != nil {
		writeServiceError(w, r, s.logger, err)
		return
	}
	writeResult(w, http.StatusOK, nil)
}

func (s *Server) handleLinkClientBill(w http.ResponseWriter, r *http.Request) {
	s.clientBill(w, r, s.deps.Clients.LinkBill)
}

func (s *Server) handleUnlinkClientBill(w http.ResponseWriter, r *http.Request) {
	s.clientBill(w, r, s.deps.Clients.UnlinkBill)
}

func (s *Server) clientBill(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, userID, clientID uuid.UUID, billID int64) error) {
	clientID, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	billID, err := pathInt64(r, "billID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := op(r.Context(), UserID(r.Context()), clientID, billID); err != nil {
		writeServiceError(w, r, s.logger, err)
		return
	}
	writeResult(w, http.StatusOK, nil)
}

func (s *Server) handleListNotes(w http.ResponseWriter, r *http.Request) {
	billID, err := queryInt64(r, "bill_id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	legislatorID, err := queryInt64(r, "legislator_id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	notes, err := s.deps.Notes.List(r.Context(), UserID(r.Context()), billID, legislatorID)
	if err != nil {
		writeServiceError(w, r, s.logger, err)
		return
	}
	writeResult(w, http.StatusOK, notes)
}

func (s *Server) handleCreateNote(w http.ResponseWriter, r *http.Request) {
	var in service.NoteInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	note, err := s.deps.Notes.Create(r.Context(), UserID(r.Context()), in)
	if err != nil {
		writeServiceError(w, r, s.logger, err)
		return
	}
	writeResult(w, http.StatusCreated, note)
}

func (s *Server) handleDeleteNote(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.deps.Notes.Delete(r.Context(), UserID(r.Context()), id); err != nil {
		writeServiceError(w, r, s.logger, err)
		return
	}
	writeResult(w, http.StatusOK, nil)
}
