package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"rental_booking/internal/app"
	"rental_booking/internal/domain"
)

type Handlers struct {
	Bookings *app.BookingService
	Quotes   *app.QuoteService
	Limiter  *IPLimiter
}

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })
	s.mux.Get("/v1/properties/{id}/quote", h.quote)
	s.mux.Get("/v1/properties/{id}/availability", h.availability)
	s.mux.With(h.Limiter.Middleware).Post("/v1/bookings", h.createBooking)
	s.mux.Post("/v1/bookings/{id}/settlement", h.recalcSettlement)
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

// writeEngineError maps the engine's error taxonomy onto problem+json.
// Store failures get a generic detail; internals never leak to the public.
func writeEngineError(w http.ResponseWriter, err error) {
	switch {
	case domain.IsValidation(err):
		writeProblem(w, http.StatusUnprocessableEntity, "Invalid Request", err.Error())
	case domain.IsAvailabilityConflict(err) != nil:
		writeProblem(w, http.StatusConflict, "Dates Unavailable", err.Error())
	case domain.IsIdentityConflict(err):
		writeProblem(w, http.StatusConflict, "Guest Details Ambiguous", err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeProblem(w, http.StatusNotFound, "Not Found", "the requested resource does not exist")
	default:
		log.Error().Err(err).Msg("request failed")
		writeProblem(w, http.StatusInternalServerError, "Internal Error", "please try again later")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("write JSON response failed")
	}
}

func parseDay(s string) (time.Time, error) { return time.Parse("2006-01-02", s) }

func pathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

// ---- quote ----

type nightJSON struct {
	Date    string  `json:"date"`
	Rate    float64 `json:"rate"`
	Period  string  `json:"period"`
	Weekend bool    `json:"weekend,omitempty"`
}

type quoteResponse struct {
	Total           float64     `json:"total"`
	AvgNightly      float64     `json:"avg_nightly"`
	ExtraGuestTotal float64     `json:"extra_guest_total"`
	Nights          []nightJSON `json:"nights"`
	Warnings        []string    `json:"warnings,omitempty"`
}

func (h *Handlers) quote(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", "id must be a number")
		return
	}
	q := r.URL.Query()
	checkIn, err1 := parseDay(q.Get("check_in"))
	checkOut, err2 := parseDay(q.Get("check_out"))
	if err1 != nil || err2 != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid Dates", "check_in and check_out must be YYYY-MM-DD")
		return
	}
	guests, _ := strconv.Atoi(q.Get("guests"))

	out, err := h.Quotes.Quote(r.Context(), id, checkIn, checkOut, guests)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	resp := quoteResponse{
		Total:           out.Pricing.Total,
		AvgNightly:      out.Pricing.AvgNightly,
		ExtraGuestTotal: out.Pricing.ExtraGuestTotal,
		Warnings:        out.Warnings,
	}
	for _, n := range out.Pricing.Nights {
		resp.Nights = append(resp.Nights, nightJSON{
			Date: n.Date.Format("2006-01-02"), Rate: n.Rate, Period: n.PeriodName, Weekend: n.Weekend,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// ---- availability ----

type availabilityResponse struct {
	Available bool   `json:"available"`
	Detail    string `json:"detail,omitempty"`
}

func (h *Handlers) availability(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", "id must be a number")
		return
	}
	q := r.URL.Query()
	checkIn, err1 := parseDay(q.Get("check_in"))
	checkOut, err2 := parseDay(q.Get("check_out"))
	if err1 != nil || err2 != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid Dates", "check_in and check_out must be YYYY-MM-DD")
		return
	}
	var excludeID int64
	if v := q.Get("exclude"); v != "" {
		excludeID, _ = strconv.ParseInt(v, 10, 64)
	}

	err = h.Bookings.CheckAvailability(r.Context(), id, checkIn, checkOut, excludeID)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, availabilityResponse{Available: true})
	case domain.IsAvailabilityConflict(err) != nil || domain.IsValidation(err):
		writeJSON(w, http.StatusOK, availabilityResponse{Available: false, Detail: err.Error()})
	default:
		writeEngineError(w, err)
	}
}

// ---- create booking ----

type createBookingRequest struct {
	PropertyID int64   `json:"property_id"`
	CheckIn    string  `json:"check_in"`
	CheckOut   string  `json:"check_out"`
	Guests     int     `json:"guests"`
	ChannelID  *int64  `json:"channel_id,omitempty"`
	Total      float64 `json:"total,omitempty"` // advisory only; the server reprices

	Guest struct {
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
		Email     string `json:"email,omitempty"`
		Phone     string `json:"phone,omitempty"`
	} `json:"guest"`
}

type createBookingResponse struct {
	ReservationID int64          `json:"reservation_id"`
	GuestID       string         `json:"guest_id"`
	Pricing       quoteResponse  `json:"pricing"`
	Settlement    settlementJSON `json:"settlement"`
}

type settlementJSON struct {
	Total                float64 `json:"total"`
	SalesCommission      float64 `json:"sales_commission"`
	CollectionCommission float64 `json:"collection_commission"`
	Tax                  float64 `json:"tax"`
	Net                  float64 `json:"net"`
}

func toSettlementJSON(b domain.SettlementBreakdown) settlementJSON {
	return settlementJSON{
		Total:                b.Total,
		SalesCommission:      b.SalesCommission,
		CollectionCommission: b.CollectionCommission,
		Tax:                  b.Tax,
		Net:                  b.Net,
	}
}

func (h *Handlers) createBooking(w http.ResponseWriter, r *http.Request) {
	var req createBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid Body", "request body must be valid JSON")
		return
	}
	checkIn, err1 := parseDay(req.CheckIn)
	checkOut, err2 := parseDay(req.CheckOut)
	if err1 != nil || err2 != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid Dates", "check_in and check_out must be YYYY-MM-DD")
		return
	}

	out, err := h.Bookings.CreateBooking(r.Context(), app.CreateBookingInput{
		PropertyID:  req.PropertyID,
		CheckIn:     checkIn,
		CheckOut:    checkOut,
		Guests:      req.Guests,
		ChannelID:   req.ChannelID,
		ClientTotal: req.Total,
		Guest: domain.GuestCandidate{
			FirstName: req.Guest.FirstName,
			LastName:  req.Guest.LastName,
			Email:     req.Guest.Email,
			Phone:     req.Guest.Phone,
		},
	})
	if err != nil {
		writeEngineError(w, err)
		return
	}

	resp := createBookingResponse{
		ReservationID: out.ReservationID,
		GuestID:       out.Guest.ID,
		Settlement:    toSettlementJSON(out.Settlement),
	}
	resp.Pricing.Total = out.Pricing.Total
	resp.Pricing.AvgNightly = out.Pricing.AvgNightly
	resp.Pricing.ExtraGuestTotal = out.Pricing.ExtraGuestTotal
	for _, n := range out.Pricing.Nights {
		resp.Pricing.Nights = append(resp.Pricing.Nights, nightJSON{
			Date: n.Date.Format("2006-01-02"), Rate: n.Rate, Period: n.PeriodName, Weekend: n.Weekend,
		})
	}
	writeJSON(w, http.StatusCreated, resp)
}

// ---- settlement recalculation (operator edit path) ----

type recalcRequest struct {
	Total          *float64 `json:"total,omitempty"`
	ChannelChanged bool     `json:"channel_changed,omitempty"`
	ChannelID      *int64   `json:"channel_id,omitempty"`
	Pinned         struct {
		SalesCommission      bool `json:"sales_commission,omitempty"`
		CollectionCommission bool `json:"collection_commission,omitempty"`
		Tax                  bool `json:"tax,omitempty"`
	} `json:"pinned"`
}

func (h *Handlers) recalcSettlement(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", "id must be a number")
		return
	}
	var req recalcRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid Body", "request body must be valid JSON")
		return
	}

	b, err := h.Bookings.RecalculateSettlement(r.Context(), app.RecalculateInput{
		ReservationID:  id,
		NewTotal:       req.Total,
		ChannelChanged: req.ChannelChanged,
		NewChannelID:   req.ChannelID,
		Pinned: domain.PinnedFields{
			SalesCommission:      req.Pinned.SalesCommission,
			CollectionCommission: req.Pinned.CollectionCommission,
			Tax:                  req.Pinned.Tax,
		},
	})
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSettlementJSON(b))
}
