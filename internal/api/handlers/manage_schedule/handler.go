package manage_schedule

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-DetailingService/internal/api/handlers"
	"github.com/m04kA/SMC-DetailingService/internal/service/schedule"
)

const (
	msgInvalidRequestBody = "некорректное тело запроса"
	msgUnknownAction      = "неизвестное действие, ожидается create_slot, create_weekly_slots, toggle_working_day, update_template, block_slot или unblock_slot"
	msgMissingSlotID      = "не указан slot_id"
	msgSlotNotFound       = "слот не найден"
	msgSlotExists         = "слот на это время уже существует"
	msgDayNotFound        = "день недели не найден в шаблоне"
)

type Handler struct {
	service ScheduleService
	logger  Logger
}

func NewHandler(service ScheduleService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Handle POST /api/v1/schedule (только администратор)
// action берется из тела или из query параметра
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	var req ScheduleActionRequest
	if err := handlers.DecodeJSON(r, &req); err != nil && !errors.Is(err, handlers.ErrEmptyBody) {
		h.logger.Warn("POST /schedule - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}
	if req.Action == "" {
		req.Action = r.URL.Query().Get("action")
	}

	var (
		result interface{}
		status = http.StatusOK
		err    error
	)

	ctx := r.Context()
	switch req.Action {
	case ActionCreateSlot:
		serviceReq, convErr := req.toCreateSlot()
		if convErr != nil {
			h.badRequest(w, req.Action, convErr)
			return
		}
		result, err = h.service.CreateSlot(ctx, serviceReq)
		status = http.StatusCreated

	case ActionCreateWeeklySlots:
		serviceReq, convErr := req.toCreateWeeklySlots()
		if convErr != nil {
			h.badRequest(w, req.Action, convErr)
			return
		}
		result, err = h.service.CreateWeeklySlots(ctx, serviceReq)
		status = http.StatusCreated

	case ActionToggleWorkingDay:
		serviceReq, convErr := req.toToggleWorkingDay()
		if convErr != nil {
			h.badRequest(w, req.Action, convErr)
			return
		}
		result, err = h.service.ToggleWorkingDay(ctx, serviceReq)

	case ActionUpdateTemplate:
		serviceReq, convErr := req.toUpdateTemplate()
		if convErr != nil {
			h.badRequest(w, req.Action, convErr)
			return
		}
		result, err = h.service.UpsertTemplate(ctx, serviceReq)

	case ActionBlockSlot, ActionUnblockSlot:
		if req.SlotID == nil || *req.SlotID <= 0 {
			h.logger.Warn("POST /schedule - %s without slot_id", req.Action)
			handlers.RespondBadRequest(w, msgMissingSlotID)
			return
		}
		if req.Action == ActionBlockSlot {
			result, err = h.service.BlockSlot(ctx, *req.SlotID, req.Reason)
		} else {
			result, err = h.service.UnblockSlot(ctx, *req.SlotID)
		}

	default:
		h.logger.Warn("POST /schedule - Unknown action %q", req.Action)
		handlers.RespondBadRequest(w, msgUnknownAction)
		return
	}

	if err != nil {
		h.respondServiceError(w, req.Action, err)
		return
	}

	h.logger.Info("POST /schedule - Action %s applied", req.Action)
	handlers.RespondJSON(w, status, result)
}

func (h *Handler) badRequest(w http.ResponseWriter, action string, err error) {
	h.logger.Warn("POST /schedule - Invalid %s request: %v", action, err)
	handlers.RespondBadRequest(w, err.Error())
}

func (h *Handler) respondServiceError(w http.ResponseWriter, action string, err error) {
	switch {
	case errors.Is(err, schedule.ErrInvalidInput), errors.Is(err, schedule.ErrInvalidDateRange):
		h.logger.Warn("POST /schedule - %s rejected: %v", action, err)
		handlers.RespondBadRequest(w, err.Error())
	case errors.Is(err, schedule.ErrSlotNotFound):
		h.logger.Warn("POST /schedule - %s: slot not found", action)
		handlers.RespondNotFound(w, msgSlotNotFound)
	case errors.Is(err, schedule.ErrWorkingDayNotFound):
		h.logger.Warn("POST /schedule - %s: weekday not found", action)
		handlers.RespondNotFound(w, msgDayNotFound)
	case errors.Is(err, schedule.ErrSlotExists):
		h.logger.Warn("POST /schedule - %s: slot exists", action)
		handlers.RespondConflict(w, msgSlotExists)
	default:
		h.logger.Error("POST /schedule - %s failed: %v", action, err)
		handlers.RespondInternalError(w)
	}
}
