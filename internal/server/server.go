// Package server exposes the engine over a thin JSON HTTP boundary.
//
// The handlers translate requests to service calls and sentinel errors to
// status codes; they hold no logic of their own. Authorization (session
// validity, caller-is-a-member checks) belongs to the upstream layer that
// fronts this server, not to the engine.
package server

import (
	"net/http"
	"strconv"

	"github.com/gatherhq/gather/internal/models"
	"github.com/gatherhq/gather/internal/service"
)

// Server bundles the engine services behind an http.Handler.
type Server struct {
	membership *service.MembershipService
	presence   *service.PresenceService
	proposals  *service.ProposalService
	allocation *service.AllocationService
	exchange   *service.ExchangeService
}

// New creates a Server over the given services.
func New(
	membership *service.MembershipService,
	presence *service.PresenceService,
	proposals *service.ProposalService,
	allocation *service.AllocationService,
	exchange *service.ExchangeService,
) *Server {
	return &Server{
		membership: membership,
		presence:   presence,
		proposals:  proposals,
		allocation: allocation,
		exchange:   exchange,
	}
}

// Handler returns the fully wired route tree with logging, CORS, and
// metrics middleware applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /groups", s.createGroup)
	mux.HandleFunc("POST /groups/{id}/members", s.addMember)
	mux.HandleFunc("DELETE /groups/{id}/members/{memberID}", s.removeMember)
	mux.HandleFunc("POST /groups/{id}/children", s.addChild)
	mux.HandleFunc("POST /groups/{id}/partners", s.setPartners)
	mux.HandleFunc("POST /events", s.createEvent)
	mux.HandleFunc("POST /events/{id}/subgroups", s.createSubgroup)
	mux.HandleFunc("PUT /subgroups/{id}/active", s.setActive)

	mux.HandleFunc("POST /presence/toggle", s.togglePresence)
	mux.HandleFunc("POST /presence/adjust", s.adjustPresence)
	mux.HandleFunc("GET /events/{id}/presence", s.listPresence)

	mux.HandleFunc("POST /proposals", s.createProposal)
	mux.HandleFunc("POST /proposals/{id}/votes", s.castVote)
	mux.HandleFunc("GET /events/{id}/ranking", s.rankProposals)

	mux.HandleFunc("GET /events/{id}/settings", s.getSettings)
	mux.HandleFunc("PUT /events/{id}/settings", s.updateSettings)
	mux.HandleFunc("GET /proposals/{id}/allocation", s.allocate)

	mux.HandleFunc("POST /groups/{id}/exchange/{year}", s.generateExchange)
	mux.HandleFunc("GET /groups/{id}/exchange/{year}/mine", s.myAssignment)

	mux.Handle("GET /metrics", metricsHandler())
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	return loggingMiddleware(corsMiddleware(metricsMiddleware(mux)))
}

func (s *Server) createGroup(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name          string `json:"name"`
		FounderUserID string `json:"founder_user_id"`
		FounderName   string `json:"founder_name"`
	}
	if err := parseJSONBody(r, &req); err != nil {
		errorResponse(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Name == "" || req.FounderUserID == "" {
		errorResponse(w, http.StatusBadRequest, "name and founder_user_id are required")
		return
	}

	group, founder, err := s.membership.CreateGroup(r.Context(), req.Name, req.FounderUserID, req.FounderName)
	if err != nil {
		serviceError(w, err)
		return
	}
	jsonResponse(w, http.StatusCreated, map[string]any{"group": group, "founder": founder})
}

func (s *Server) addMember(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID string      `json:"user_id"`
		Name   string      `json:"name"`
		Role   models.Role `json:"role"`
	}
	if err := parseJSONBody(r, &req); err != nil {
		errorResponse(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	member, err := s.membership.AddMember(r.Context(), r.PathValue("id"), req.UserID, req.Name, req.Role)
	if err != nil {
		serviceError(w, err)
		return
	}
	jsonResponse(w, http.StatusCreated, member)
}

func (s *Server) removeMember(w http.ResponseWriter, r *http.Request) {
	err := s.membership.RemoveMember(r.Context(), r.PathValue("id"), r.PathValue("memberID"))
	if err != nil {
		serviceError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, map[string]string{"status": "removed"})
}

func (s *Server) addChild(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name      string   `json:"name"`
		BirthDate string   `json:"birth_date"`
		ParentIDs []string `json:"parent_ids"`
	}
	if err := parseJSONBody(r, &req); err != nil {
		errorResponse(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	child, err := s.membership.AddChild(r.Context(), r.PathValue("id"), req.Name, req.BirthDate, req.ParentIDs)
	if err != nil {
		serviceError(w, err)
		return
	}
	jsonResponse(w, http.StatusCreated, child)
}

func (s *Server) setPartners(w http.ResponseWriter, r *http.Request) {
	var req struct {
		MemberA string `json:"member_a"`
		MemberB string `json:"member_b"`
	}
	if err := parseJSONBody(r, &req); err != nil {
		errorResponse(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	if err := s.membership.SetPartners(r.Context(), req.MemberA, req.MemberB); err != nil {
		serviceError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, map[string]string{"status": "partnered"})
}

func (s *Server) createEvent(w http.ResponseWriter, r *http.Request) {
	var req struct {
		GroupID   string           `json:"group_id"`
		Name      string           `json:"name"`
		StartDate string           `json:"start_date"`
		EndDate   string           `json:"end_date"`
		Features  []models.Feature `json:"features"`
	}
	if err := parseJSONBody(r, &req); err != nil {
		errorResponse(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	event, err := s.membership.CreateEvent(r.Context(), req.GroupID, req.Name, req.StartDate, req.EndDate, req.Features)
	if err != nil {
		serviceError(w, err)
		return
	}
	jsonResponse(w, http.StatusCreated, event)
}

func (s *Server) createSubgroup(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name           string   `json:"name"`
		AdultIDs       []string `json:"adult_ids"`
		ChildIDs       []string `json:"child_ids"`
		ActiveAdultIDs []string `json:"active_adult_ids"`
		ActiveChildIDs []string `json:"active_child_ids"`
	}
	if err := parseJSONBody(r, &req); err != nil {
		errorResponse(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	subgroup := &models.Subgroup{
		EventID:        r.PathValue("id"),
		Name:           req.Name,
		AdultIDs:       req.AdultIDs,
		ChildIDs:       req.ChildIDs,
		ActiveAdultIDs: req.ActiveAdultIDs,
		ActiveChildIDs: req.ActiveChildIDs,
	}
	if err := s.membership.CreateSubgroup(r.Context(), subgroup); err != nil {
		serviceError(w, err)
		return
	}
	jsonResponse(w, http.StatusCreated, subgroup)
}

func (s *Server) setActive(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ActiveAdultIDs []string `json:"active_adult_ids"`
		ActiveChildIDs []string `json:"active_child_ids"`
	}
	if err := parseJSONBody(r, &req); err != nil {
		errorResponse(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	if err := s.membership.SetActiveParticipants(r.Context(), r.PathValue("id"), req.ActiveAdultIDs, req.ActiveChildIDs); err != nil {
		serviceError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, map[string]string{"status": "updated"})
}

func (s *Server) togglePresence(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SubgroupID string      `json:"subgroup_id"`
		Date       string      `json:"date"`
		Slot       models.Slot `json:"slot"`
	}
	if err := parseJSONBody(r, &req); err != nil {
		errorResponse(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	record, err := s.presence.Toggle(r.Context(), req.SubgroupID, req.Date, req.Slot)
	if err != nil {
		serviceError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, record)
}

func (s *Server) adjustPresence(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SubgroupID string      `json:"subgroup_id"`
		Date       string      `json:"date"`
		Slot       models.Slot `json:"slot"`
		Headcount  int         `json:"headcount"`
	}
	if err := parseJSONBody(r, &req); err != nil {
		errorResponse(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	record, err := s.presence.Adjust(r.Context(), req.SubgroupID, req.Date, req.Slot, req.Headcount)
	if err != nil {
		serviceError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, record)
}

func (s *Server) listPresence(w http.ResponseWriter, r *http.Request) {
	records, err := s.presence.List(r.Context(), r.PathValue("id"))
	if err != nil {
		serviceError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, map[string]any{"records": records})
}

func (s *Server) createProposal(w http.ResponseWriter, r *http.Request) {
	var req struct {
		EventID   string  `json:"event_id"`
		URL       string  `json:"url"`
		Amount    float64 `json:"amount"`
		CreatorID string  `json:"creator_id"`
	}
	if err := parseJSONBody(r, &req); err != nil {
		errorResponse(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	proposal, err := s.proposals.CreateProposal(r.Context(), req.EventID, req.URL, req.Amount, req.CreatorID)
	if err != nil {
		serviceError(w, err)
		return
	}
	jsonResponse(w, http.StatusCreated, proposal)
}

func (s *Server) castVote(w http.ResponseWriter, r *http.Request) {
	var req struct {
		VoterID string `json:"voter_id"`
		Value   int    `json:"value"`
	}
	if err := parseJSONBody(r, &req); err != nil {
		errorResponse(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	vote, err := s.proposals.CastVote(r.Context(), r.PathValue("id"), req.VoterID, req.Value)
	if err != nil {
		serviceError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, vote)
}

func (s *Server) rankProposals(w http.ResponseWriter, r *http.Request) {
	ranked, err := s.proposals.Rank(r.Context(), r.PathValue("id"))
	if err != nil {
		serviceError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, map[string]any{"ranking": ranked})
}

func (s *Server) getSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := s.allocation.Settings(r.Context(), r.PathValue("id"))
	if err != nil {
		serviceError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, settings)
}

func (s *Server) updateSettings(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AdultShare float64 `json:"adult_share"`
		ChildShare float64 `json:"child_share"`
	}
	if err := parseJSONBody(r, &req); err != nil {
		errorResponse(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	settings, err := s.allocation.UpdateSettings(r.Context(), r.PathValue("id"), req.AdultShare, req.ChildShare)
	if err != nil {
		serviceError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, settings)
}

func (s *Server) allocate(w http.ResponseWriter, r *http.Request) {
	amounts, err := s.allocation.Allocate(r.Context(), r.PathValue("id"))
	if err != nil {
		serviceError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, map[string]any{"amounts": amounts})
}

func (s *Server) generateExchange(w http.ResponseWriter, r *http.Request) {
	year, err := strconv.Atoi(r.PathValue("year"))
	if err != nil {
		errorResponse(w, http.StatusBadRequest, "invalid year")
		return
	}
	replace := r.URL.Query().Get("replace") == "true"

	round, err := s.exchange.Generate(r.Context(), r.PathValue("id"), year, replace)
	if err != nil {
		serviceError(w, err)
		return
	}
	jsonResponse(w, http.StatusCreated, round)
}

func (s *Server) myAssignment(w http.ResponseWriter, r *http.Request) {
	year, err := strconv.Atoi(r.PathValue("year"))
	if err != nil {
		errorResponse(w, http.StatusBadRequest, "invalid year")
		return
	}
	memberID := r.URL.Query().Get("member")
	if memberID == "" {
		errorResponse(w, http.StatusBadRequest, "member query parameter is required")
		return
	}

	receiverID, err := s.exchange.MyAssignment(r.Context(), r.PathValue("id"), year, memberID)
	if err != nil {
		serviceError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, map[string]string{"receiver_id": receiverID})
}
