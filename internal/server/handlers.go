package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"city-parking/internal/parking"
)

type Handler struct {
	service     *parking.InstrumentedService
	serviceName string
	validate    *validator.Validate
	now         func() time.Time
}

func NewHandler(service *parking.InstrumentedService, serviceName string) *Handler {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return &Handler{
		service:     service,
		serviceName: serviceName,
		validate:    v,
		now:         time.Now,
	}
}

func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, HealthResponse{
		Status:  "healthy",
		Service: h.serviceName,
		Site:    h.service.Name(),
	})
}

func (h *Handler) GetStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	occupancy := h.service.Occupancy(ctx)
	statuses := h.service.Slots(ctx)
	slots := make([]SlotResponse, 0, len(statuses))
	for _, s := range statuses {
		slots = append(slots, newSlotResponse(s))
	}

	WriteSuccess(ctx, w, "Status retrieved successfully", StatusResponse{
		Site:      h.service.Name(),
		Total:     occupancy.Total,
		Occupied:  occupancy.Occupied,
		Available: occupancy.Available,
		Slots:     slots,
	})
}

func (h *Handler) ParkVehicle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req ParkVehicleRequest
	if !h.decode(w, r, &req) {
		return
	}

	vehicle := parking.NewVehicle(req.Plate, req.Owner, req.Phone)

	var (
		ticket parking.Ticket
		err    error
	)
	if req.SlotID != "" {
		ticket, err = h.service.AssignTo(ctx, req.SlotID, vehicle)
	} else {
		ticket, err = h.service.AssignAutomatic(ctx, vehicle)
	}
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	writeSuccessStatus(ctx, w, http.StatusCreated, "Vehicle parked successfully", newTicketResponse(ticket, h.now()))
}

func (h *Handler) LeaveSlot(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req LeaveRequest
	if !h.decode(w, r, &req) {
		return
	}

	ticket, err := h.service.Close(ctx, req.TicketID)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	WriteSuccess(ctx, w, "Ticket closed successfully", newTicketResponse(ticket, h.now()))
}

func (h *Handler) RegisterSlot(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req RegisterSlotRequest
	if !h.decode(w, r, &req) {
		return
	}

	slot, err := h.service.RegisterSlot(ctx, req.SlotID, *req.Floor, *req.Distance)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	writeSuccessStatus(ctx, w, http.StatusCreated, "Slot registered successfully", newSlotResponse(slot))
}

func (h *Handler) FindByPlate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	plate := chi.URLParam(r, "plate")
	ticket, ok := h.service.FindByPlate(ctx, plate)
	if !ok {
		WriteError(ctx, w, http.StatusNotFound, "Vehicle not found")
		return
	}

	WriteSuccess(ctx, w, "Vehicle found", newTicketResponse(ticket, h.now()))
}

func (h *Handler) FindBySlot(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	slotID := chi.URLParam(r, "slotID")
	ticket, ok := h.service.FindBySlot(ctx, slotID)
	if !ok {
		WriteError(ctx, w, http.StatusNotFound, fmt.Sprintf("No active ticket for slot %s", slotID))
		return
	}

	WriteSuccess(ctx, w, "Ticket found", newTicketResponse(ticket, h.now()))
}

func (h *Handler) GetTicket(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	ticketID := chi.URLParam(r, "ticketID")
	ticket, ok := h.service.FindTicket(ctx, ticketID)
	if !ok {
		WriteError(ctx, w, http.StatusNotFound, "Ticket not found")
		return
	}

	WriteSuccess(ctx, w, "Ticket found", newTicketResponse(ticket, h.now()))
}

func (h *Handler) ListTickets(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	WriteSuccess(ctx, w, "Active tickets retrieved successfully",
		newTicketResponses(h.service.ActiveTickets(ctx), h.now()))
}

func (h *Handler) GetHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	WriteSuccess(ctx, w, "History retrieved successfully",
		newTicketResponses(h.service.RecentHistory(ctx), h.now()))
}

func (h *Handler) GetFloors(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	loads := h.service.FloorLoad(ctx)
	floors := make([]FloorResponse, 0, len(loads))
	for _, load := range loads {
		floors = append(floors, FloorResponse{
			Floor:     load.Floor,
			Occupied:  load.Occupied,
			Available: load.Total - load.Occupied,
			Total:     load.Total,
		})
	}

	WriteSuccess(ctx, w, "Floor load retrieved successfully", floors)
}

func (h *Handler) GetRevenue(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	WriteSuccess(ctx, w, "Revenue retrieved successfully", RevenueResponse{
		Total: h.service.TotalRevenue(ctx),
	})
}

func (h *Handler) EstimateFee(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	raw := r.URL.Query().Get("hours")
	hours, err := strconv.ParseFloat(raw, 64)
	if err != nil || hours <= 0 || math.IsInf(hours, 0) || math.IsNaN(hours) {
		WriteError(ctx, w, http.StatusBadRequest, "hours must be a positive number")
		return
	}

	rates := h.service.RateCard()
	WriteSuccess(ctx, w, "Fee estimated", EstimateResponse{
		Hours:          hours,
		Amount:         h.service.EstimateFee(ctx, hours),
		FirstHour:      rates.FirstHour,
		AdditionalHour: rates.AdditionalHour,
		DailyCap:       rates.DailyCap,
	})
}

// decode reads a JSON body into dst and validates it. On failure it has
// already written the error response.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	ctx := r.Context()

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		WriteError(ctx, w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	if t, ok := dst.(trimmer); ok {
		t.trim()
	}
	if err := h.validate.Struct(dst); err != nil {
		WriteError(ctx, w, http.StatusBadRequest, validationMessage(err))
		return false
	}
	return true
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return "Invalid request"
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fe.Field()+" is required")
		case "max":
			msgs = append(msgs, fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param()))
		case "gte":
			msgs = append(msgs, fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param()))
		default:
			msgs = append(msgs, fe.Field()+" is invalid")
		}
	}
	return strings.Join(msgs, "; ")
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, parking.ErrInvalidSlotID):
		return http.StatusBadRequest
	case errors.Is(err, parking.ErrSlotNotFound), errors.Is(err, parking.ErrTicketNotFound):
		return http.StatusNotFound
	case errors.Is(err, parking.ErrLotFull),
		errors.Is(err, parking.ErrSlotOccupied),
		errors.Is(err, parking.ErrDuplicateSlotID),
		errors.Is(err, parking.ErrVehicleParked):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	status := statusFor(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		message = "Internal server error"
	}
	WriteError(ctx, w, status, message)
}
