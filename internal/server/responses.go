package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel/trace"

	"city-parking/internal/parking"
)

type Meta struct {
	TraceID   string `json:"trace_id,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Meta    *Meta  `json:"meta,omitempty"`
}

type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Site    string `json:"site"`
}

type ParkVehicleRequest struct {
	Plate  string `json:"plate" validate:"required,max=16"`
	Owner  string `json:"owner" validate:"max=64"`
	Phone  string `json:"phone" validate:"max=32"`
	SlotID string `json:"slot_id" validate:"omitempty,max=32"`
}

type LeaveRequest struct {
	TicketID string `json:"ticket_id" validate:"required,max=64"`
}

type RegisterSlotRequest struct {
	SlotID   string `json:"slot_id" validate:"required,max=32"`
	Floor    *int   `json:"floor" validate:"required,gte=0"`
	Distance *int   `json:"distance" validate:"required,gte=0"`
}

// trimmer is implemented by requests whose text fields are trimmed before
// validation, so blank input fails "required".
type trimmer interface {
	trim()
}

func (r *ParkVehicleRequest) trim() {
	r.Plate = strings.TrimSpace(r.Plate)
	r.Owner = strings.TrimSpace(r.Owner)
	r.Phone = strings.TrimSpace(r.Phone)
	r.SlotID = strings.TrimSpace(r.SlotID)
}

func (r *LeaveRequest) trim() {
	r.TicketID = strings.TrimSpace(r.TicketID)
}

func (r *RegisterSlotRequest) trim() {
	r.SlotID = strings.TrimSpace(r.SlotID)
}

type TicketResponse struct {
	TicketID    string     `json:"ticket_id"`
	SlotID      string     `json:"slot_id"`
	Floor       int        `json:"floor"`
	Plate       string     `json:"plate"`
	Owner       string     `json:"owner,omitempty"`
	Phone       string     `json:"phone,omitempty"`
	CheckIn     time.Time  `json:"check_in"`
	CheckOut    *time.Time `json:"check_out,omitempty"`
	StayMinutes int64      `json:"stay_minutes"`
	Amount      *float64   `json:"amount,omitempty"`
}

type SlotResponse struct {
	SlotID   string     `json:"slot_id"`
	Floor    int        `json:"floor"`
	Distance int        `json:"distance"`
	Occupied bool       `json:"occupied"`
	Plate    string     `json:"plate,omitempty"`
	Since    *time.Time `json:"since,omitempty"`
}

type StatusResponse struct {
	Site      string         `json:"site"`
	Total     int            `json:"total"`
	Occupied  int            `json:"occupied"`
	Available int            `json:"available"`
	Slots     []SlotResponse `json:"slots"`
}

type FloorResponse struct {
	Floor     int `json:"floor"`
	Occupied  int `json:"occupied"`
	Available int `json:"available"`
	Total     int `json:"total"`
}

type RevenueResponse struct {
	Total float64 `json:"total"`
}

type EstimateResponse struct {
	Hours          float64 `json:"hours"`
	Amount         float64 `json:"amount"`
	FirstHour      float64 `json:"first_hour"`
	AdditionalHour float64 `json:"additional_hour"`
	DailyCap       float64 `json:"daily_cap"`
}

func newTicketResponse(t parking.Ticket, now time.Time) TicketResponse {
	resp := TicketResponse{
		TicketID:    t.ID,
		SlotID:      t.SlotID,
		Floor:       t.Floor,
		Plate:       t.Vehicle.Plate,
		Owner:       t.Vehicle.Owner,
		Phone:       t.Vehicle.Phone,
		CheckIn:     t.CheckIn,
		StayMinutes: int64(t.Duration(now) / time.Minute),
	}
	if t.Closed() {
		checkOut := t.CheckOut
		amount := t.Amount
		resp.CheckOut = &checkOut
		resp.Amount = &amount
	}
	return resp
}

func newTicketResponses(tickets []parking.Ticket, now time.Time) []TicketResponse {
	out := make([]TicketResponse, 0, len(tickets))
	for _, t := range tickets {
		out = append(out, newTicketResponse(t, now))
	}
	return out
}

func newSlotResponse(s parking.SlotStatus) SlotResponse {
	return SlotResponse{
		SlotID:   s.SlotID,
		Floor:    s.Floor,
		Distance: s.Distance,
		Occupied: s.Occupied,
		Plate:    s.Plate,
		Since:    s.Since,
	}
}

func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func extractMeta(ctx context.Context) *Meta {
	meta := &Meta{}

	span := trace.SpanFromContext(ctx)
	if span.SpanContext().HasTraceID() {
		meta.TraceID = span.SpanContext().TraceID().String()
	}

	if reqID, ok := ctx.Value(RequestIDKey).(string); ok {
		meta.RequestID = reqID
	}

	return meta
}

func WriteSuccess(ctx context.Context, w http.ResponseWriter, message string, data any) {
	writeSuccessStatus(ctx, w, http.StatusOK, message, data)
}

func writeSuccessStatus(ctx context.Context, w http.ResponseWriter, status int, message string, data any) {
	WriteJSON(w, status, Response{
		Success: true,
		Message: message,
		Data:    data,
		Meta:    extractMeta(ctx),
	})
}

func WriteError(ctx context.Context, w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, Response{
		Success: false,
		Error:   message,
		Meta:    extractMeta(ctx),
	})
}
