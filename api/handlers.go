/*
handlers.go - HTTP API handlers for the leave management engine

PURPOSE:
  Exposes the leave engine via REST API. Handles HTTP request/response,
  JSON serialization, and delegates to the domain services.

ENDPOINTS:
  Employees:
    GET    /api/employees                    List all employees
    POST   /api/employees                    Create employee
    GET    /api/employees/{id}               Get employee details
    GET    /api/employees/{id}/balance       Balance record for a year
    POST   /api/employees/{id}/balance       Grant entitlement
    GET    /api/employees/{id}/requests      Request history
    GET    /api/employees/{id}/schedules     Schedule history

  Leave types:
    GET    /api/types                        List leave types
    POST   /api/types                        Create leave type

  Calendar:
    GET    /api/calendar/working-days        Working-day count and return date
    GET    /api/holidays                     Non-working days per region
    POST   /api/holidays                     Add a non-working day
    DELETE /api/holidays                     Remove a non-working day

  Requests:
    POST   /api/requests                     Submit a leave request
    POST   /api/requests/drafts              Save a draft
    GET    /api/requests/pending             All requests waiting on a stage
    GET    /api/requests/{id}                Get one request
    GET    /api/requests/{id}/audit          Audit trail
    POST   /api/requests/{id}/submit         Submit a draft
    POST   /api/requests/{id}/approve        Approve current stage
    POST   /api/requests/{id}/reject         Reject at current stage
    POST   /api/requests/{id}/withdraw       Withdraw a draft

  Schedules:
    POST   /api/schedules                    Create a schedule
    GET    /api/schedules/{id}               Get one schedule
    POST   /api/schedules/{id}/approve       Manager approval
    POST   /api/schedules/{id}/register      Register as taken
    PUT    /api/schedules/{id}               Edit (rebook)
    DELETE /api/schedules/{id}               Soft delete

IDENTITY:
  The acting user arrives in the X-Actor-ID header; X-Admin: true marks an
  administrator. The handler resolves manager scope from the employee
  directory (direct reports). A real deployment would put an auth
  middleware in front and fill the same AccessContext from a session.

ERROR HANDLING:
  Domain errors map to HTTP status by taxonomy:
  - 400: validation errors, invalid input
  - 403: authorization errors
  - 404: unknown employee/type/request/schedule
  - 409: period conflicts, invalid state transitions, insufficient balance
  - 500: everything else

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/warp/leave-engine/balance"
	"github.com/warp/leave-engine/calendar"
	"github.com/warp/leave-engine/leave"
	"github.com/warp/leave-engine/store/sqlite"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store     *sqlite.Store
	Requests  *leave.RequestService
	Schedules *leave.ScheduleService
	Ledger    *balance.Ledger
	Calendar  *calendar.Config
}

// NewHandler wires the domain services over one sqlite store.
func NewHandler(store *sqlite.Store, cfg leave.WorkflowConfig, notifier leave.NotificationHook) *Handler {
	ledger := balance.NewLedger(store, cfg.AllowNegativeBalance)
	detector := leave.NewDetector(store, store)
	return &Handler{
		Store:    store,
		Ledger:   ledger,
		Calendar: cfg.Calendar,
		Requests: &leave.RequestService{
			Config:    cfg,
			Employees: store,
			Types:     store,
			Requests:  store,
			Balances:  ledger,
			Conflicts: detector,
			Notifier:  notifier,
			Audit:     store,
		},
		Schedules: &leave.ScheduleService{
			Config:    cfg,
			Employees: store,
			Types:     store,
			Schedules: store,
			Balances:  ledger,
			Conflicts: detector,
			Notifier:  notifier,
			Audit:     store,
		},
	}
}

// accessContext resolves the acting user from request headers. Managers get
// their direct reports as accessible employees.
func (h *Handler) accessContext(r *http.Request) leave.AccessContext {
	access := leave.AccessContext{
		ActorID: r.Header.Get("X-Actor-ID"),
		IsAdmin: r.Header.Get("X-Admin") == "true",
	}
	if access.ActorID == "" {
		return access
	}
	employees, err := h.Store.ListEmployees(r.Context())
	if err != nil {
		logrus.WithError(err).Warn("failed to resolve manager scope")
		return access
	}
	for _, e := range employees {
		if e.ManagerID == access.ActorID {
			access.IsManager = true
			access.AccessibleEmployeeIDs = append(access.AccessibleEmployeeIDs, e.ID)
		}
	}
	return access
}

// =============================================================================
// EMPLOYEE HANDLERS
// =============================================================================

// ListEmployees returns all employees.
func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	employees, err := h.Store.ListEmployees(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list employees", err)
		return
	}
	dtos := make([]EmployeeDTO, len(employees))
	for i, e := range employees {
		dtos[i] = toEmployeeDTO(e)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateEmployee creates a new employee.
func (h *Handler) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	var req CreateEmployeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	region := calendar.Region(req.Region)
	if req.ID == "" || req.Name == "" || !region.Valid() {
		writeError(w, http.StatusBadRequest, "id, name and a valid region are required", nil)
		return
	}
	e := &leave.Employee{
		ID:        req.ID,
		Name:      req.Name,
		Email:     req.Email,
		ManagerID: req.ManagerID,
		Region:    region,
		CreatedAt: nowUTC(),
	}
	if err := h.Store.PutEmployee(r.Context(), e); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create employee", err)
		return
	}
	writeJSON(w, http.StatusCreated, toEmployeeDTO(e))
}

// GetEmployee returns a single employee.
func (h *Handler) GetEmployee(w http.ResponseWriter, r *http.Request) {
	e, err := h.Store.Employee(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toEmployeeDTO(e))
}

// GetBalance returns the balance record for one year. Reads never create
// records: an employee without one gets a zeroed view, an unknown employee
// gets 404.
// GET /api/employees/{id}/balance?year=2026
func (h *Handler) GetBalance(w http.ResponseWriter, r *http.Request) {
	year, ok := yearParam(w, r)
	if !ok {
		return
	}
	emp, err := h.Store.Employee(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	rec, err := h.Ledger.Peek(r.Context(), emp.ID, year)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toBalanceDTO(rec))
}

// GrantBalance sets the entitlement for an employee-year.
// POST /api/employees/{id}/balance
func (h *Handler) GrantBalance(w http.ResponseWriter, r *http.Request) {
	var req GrantBalanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	start, err := decimal.NewFromString(req.StartBalance)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid start_balance", err)
		return
	}
	yearly, err := decimal.NewFromString(req.YearlyBalance)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid yearly_balance", err)
		return
	}
	rec, err := h.Ledger.Grant(r.Context(), chi.URLParam(r, "id"), req.Year, start, yearly)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toBalanceDTO(rec))
}

// GetEmployeeRequests returns all of an employee's leave requests.
func (h *Handler) GetEmployeeRequests(w http.ResponseWriter, r *http.Request) {
	requests, err := h.Store.RequestsByEmployee(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list requests", err)
		return
	}
	dtos := make([]LeaveRequestDTO, len(requests))
	for i, req := range requests {
		dtos[i] = toLeaveRequestDTO(req)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetEmployeeSchedules returns all of an employee's leave schedules.
func (h *Handler) GetEmployeeSchedules(w http.ResponseWriter, r *http.Request) {
	schedules, err := h.Store.SchedulesByEmployee(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list schedules", err)
		return
	}
	dtos := make([]LeaveScheduleDTO, len(schedules))
	for i, s := range schedules {
		dtos[i] = toLeaveScheduleDTO(s)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// LEAVE TYPE HANDLERS
// =============================================================================

// ListTypes returns the leave type catalogue.
func (h *Handler) ListTypes(w http.ResponseWriter, r *http.Request) {
	types, err := h.Store.ListTypes(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list leave types", err)
		return
	}
	dtos := make([]LeaveTypeDTO, len(types))
	for i, t := range types {
		dtos[i] = toLeaveTypeDTO(t)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateType creates a new leave type.
func (h *Handler) CreateType(w http.ResponseWriter, r *http.Request) {
	var req CreateLeaveTypeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.ID == "" || req.Name == "" {
		writeError(w, http.StatusBadRequest, "id and name are required", nil)
		return
	}
	t := &leave.Type{
		ID:             req.ID,
		Name:           req.Name,
		RegionBOnly:    req.RegionBOnly,
		HalfDayCapable: req.HalfDayCapable,
		CreatedAt:      nowUTC(),
	}
	if err := h.Store.PutType(r.Context(), t); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create leave type", err)
		return
	}
	writeJSON(w, http.StatusCreated, toLeaveTypeDTO(t))
}

// =============================================================================
// CALENDAR HANDLERS
// =============================================================================

// GetWorkingDays counts working days and computes the return date.
// GET /api/calendar/working-days?region=region_b&start=2026-03-02&end=2026-03-06&half_day=false
func (h *Handler) GetWorkingDays(w http.ResponseWriter, r *http.Request) {
	region := calendar.Region(r.URL.Query().Get("region"))
	if !region.Valid() {
		writeError(w, http.StatusBadRequest, "Unknown region", nil)
		return
	}
	start, err := calendar.ParseDate(r.URL.Query().Get("start"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid start date", err)
		return
	}
	end, err := calendar.ParseDate(r.URL.Query().Get("end"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid end date", err)
		return
	}
	if end.Before(start) {
		writeError(w, http.StatusBadRequest, "end must not be before start", nil)
		return
	}
	halfDay := r.URL.Query().Get("half_day") == "true"

	writeJSON(w, http.StatusOK, WorkingDaysDTO{
		Region:     string(region),
		StartDate:  start.String(),
		EndDate:    end.String(),
		Days:       h.Calendar.RequestDays(start, end, region, halfDay).String(),
		ReturnDate: h.Calendar.ReturnDate(end, region).String(),
	})
}

// ListHolidays returns the configured non-working days for a region.
// GET /api/holidays?region=region_b
func (h *Handler) ListHolidays(w http.ResponseWriter, r *http.Request) {
	region := calendar.Region(r.URL.Query().Get("region"))
	if !region.Valid() {
		writeError(w, http.StatusBadRequest, "Unknown region", nil)
		return
	}
	days := h.Calendar.NonWorkingDays(region)
	dtos := make([]HolidayDTO, len(days))
	for i, d := range days {
		dtos[i] = HolidayDTO{Region: string(region), Date: d.Date.String(), Label: d.Label}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateHoliday adds a non-working day to both the persisted set and the
// in-memory snapshot the workflows use.
func (h *Handler) CreateHoliday(w http.ResponseWriter, r *http.Request) {
	var req HolidayDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	region := calendar.Region(req.Region)
	if !region.Valid() {
		writeError(w, http.StatusBadRequest, "Unknown region", nil)
		return
	}
	date, err := calendar.ParseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date", err)
		return
	}
	if err := h.Store.AddNonWorkingDay(r.Context(), region, date, req.Label); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to store non-working day", err)
		return
	}
	h.Calendar.AddNonWorkingDay(region, date, req.Label)
	writeJSON(w, http.StatusCreated, req)
}

// DeleteHoliday removes a non-working day.
// DELETE /api/holidays?region=region_b&date=2026-01-01
func (h *Handler) DeleteHoliday(w http.ResponseWriter, r *http.Request) {
	region := calendar.Region(r.URL.Query().Get("region"))
	if !region.Valid() {
		writeError(w, http.StatusBadRequest, "Unknown region", nil)
		return
	}
	date, err := calendar.ParseDate(r.URL.Query().Get("date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date", err)
		return
	}
	if err := h.Store.RemoveNonWorkingDay(r.Context(), region, date); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to remove non-working day", err)
		return
	}
	h.Calendar.RemoveNonWorkingDay(region, date)
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// LEAVE REQUEST HANDLERS
// =============================================================================

func (h *Handler) submitInput(w http.ResponseWriter, r *http.Request) (leave.SubmitRequestInput, bool) {
	var req SubmitLeaveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return leave.SubmitRequestInput{}, false
	}
	start, err := calendar.ParseDate(req.StartDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid start date", err)
		return leave.SubmitRequestInput{}, false
	}
	end, err := calendar.ParseDate(req.EndDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid end date", err)
		return leave.SubmitRequestInput{}, false
	}
	return leave.SubmitRequestInput{
		EmployeeID:  req.EmployeeID,
		TypeID:      req.TypeID,
		StartDate:   start,
		EndDate:     end,
		HalfDay:     req.HalfDay,
		HalfDayFrom: req.HalfDayFrom,
		HalfDayTo:   req.HalfDayTo,
		Reason:      req.Reason,
	}, true
}

// SubmitRequest creates and submits a leave request in one step.
// POST /api/requests
func (h *Handler) SubmitRequest(w http.ResponseWriter, r *http.Request) {
	in, ok := h.submitInput(w, r)
	if !ok {
		return
	}
	req, err := h.Requests.Submit(r.Context(), h.accessContext(r), in)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toLeaveRequestDTO(req))
}

// SaveDraft stores a draft without entering the approval workflow.
// POST /api/requests/drafts
func (h *Handler) SaveDraft(w http.ResponseWriter, r *http.Request) {
	in, ok := h.submitInput(w, r)
	if !ok {
		return
	}
	req, err := h.Requests.SaveDraft(r.Context(), h.accessContext(r), in)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toLeaveRequestDTO(req))
}

// GetRequest returns one leave request.
func (h *Handler) GetRequest(w http.ResponseWriter, r *http.Request) {
	req, err := h.Store.Request(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toLeaveRequestDTO(req))
}

// ListPendingRequests returns every request waiting on an approval stage.
func (h *Handler) ListPendingRequests(w http.ResponseWriter, r *http.Request) {
	requests, err := h.Store.PendingRequests(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list pending requests", err)
		return
	}
	dtos := make([]LeaveRequestDTO, len(requests))
	for i, req := range requests {
		dtos[i] = toLeaveRequestDTO(req)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetRequestAudit returns the audit trail of one request.
func (h *Handler) GetRequestAudit(w http.ResponseWriter, r *http.Request) {
	entries, err := h.Store.AuditEntries(r.Context(), leave.EntityRequest, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load audit trail", err)
		return
	}
	dtos := make([]AuditEntryDTO, len(entries))
	for i, e := range entries {
		dtos[i] = toAuditEntryDTO(e)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// SubmitDraft moves a draft into the approval workflow.
// POST /api/requests/{id}/submit
func (h *Handler) SubmitDraft(w http.ResponseWriter, r *http.Request) {
	req, err := h.Requests.SubmitDraft(r.Context(), h.accessContext(r), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toLeaveRequestDTO(req))
}

// ApproveRequest approves the current stage.
// POST /api/requests/{id}/approve
func (h *Handler) ApproveRequest(w http.ResponseWriter, r *http.Request) {
	var body DecisionRequest
	json.NewDecoder(r.Body).Decode(&body) // comment is optional

	req, err := h.Requests.Approve(r.Context(), h.accessContext(r), chi.URLParam(r, "id"), body.Comment)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toLeaveRequestDTO(req))
}

// RejectRequest rejects the request at its current stage. The reason is
// mandatory.
// POST /api/requests/{id}/reject
func (h *Handler) RejectRequest(w http.ResponseWriter, r *http.Request) {
	var body DecisionRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	req, err := h.Requests.Reject(r.Context(), h.accessContext(r), chi.URLParam(r, "id"), body.Reason)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toLeaveRequestDTO(req))
}

// WithdrawRequest withdraws a draft.
// POST /api/requests/{id}/withdraw
func (h *Handler) WithdrawRequest(w http.ResponseWriter, r *http.Request) {
	req, err := h.Requests.Withdraw(r.Context(), h.accessContext(r), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toLeaveRequestDTO(req))
}

// =============================================================================
// LEAVE SCHEDULE HANDLERS
// =============================================================================

// CreateSchedule creates a leave schedule.
// POST /api/schedules
func (h *Handler) CreateSchedule(w http.ResponseWriter, r *http.Request) {
	var req CreateScheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	start, err := calendar.ParseDate(req.StartDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid start date", err)
		return
	}
	end, err := calendar.ParseDate(req.EndDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid end date", err)
		return
	}
	sched, err := h.Schedules.Create(r.Context(), h.accessContext(r), leave.CreateScheduleInput{
		EmployeeID: req.EmployeeID,
		TypeID:     req.TypeID,
		StartDate:  start,
		EndDate:    end,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toLeaveScheduleDTO(sched))
}

// GetSchedule returns one schedule.
func (h *Handler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	sched, err := h.Store.Schedule(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toLeaveScheduleDTO(sched))
}

// ApproveSchedule is the single manager approval of a pending schedule.
// POST /api/schedules/{id}/approve
func (h *Handler) ApproveSchedule(w http.ResponseWriter, r *http.Request) {
	var body DecisionRequest
	json.NewDecoder(r.Body).Decode(&body)

	sched, err := h.Schedules.Approve(r.Context(), h.accessContext(r), chi.URLParam(r, "id"), body.Comment)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toLeaveScheduleDTO(sched))
}

// RegisterSchedule registers a scheduled leave as actually taken.
// POST /api/schedules/{id}/register
func (h *Handler) RegisterSchedule(w http.ResponseWriter, r *http.Request) {
	sched, err := h.Schedules.Register(r.Context(), h.accessContext(r), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toLeaveScheduleDTO(sched))
}

// EditSchedule rebooks a scheduled leave.
// PUT /api/schedules/{id}
func (h *Handler) EditSchedule(w http.ResponseWriter, r *http.Request) {
	var req EditScheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	start, err := calendar.ParseDate(req.StartDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid start date", err)
		return
	}
	end, err := calendar.ParseDate(req.EndDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid end date", err)
		return
	}
	sched, err := h.Schedules.Edit(r.Context(), h.accessContext(r), chi.URLParam(r, "id"), leave.EditScheduleInput{
		TypeID:    req.TypeID,
		StartDate: start,
		EndDate:   end,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toLeaveScheduleDTO(sched))
}

// DeleteSchedule soft-deletes a schedule that is not yet registered.
// DELETE /api/schedules/{id}
func (h *Handler) DeleteSchedule(w http.ResponseWriter, r *http.Request) {
	if err := h.Schedules.Delete(r.Context(), h.accessContext(r), chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError maps the domain error taxonomy to HTTP status codes.
func writeDomainError(w http.ResponseWriter, err error) {
	writeError(w, domainStatus(err), "Request failed", err)
}

func domainStatus(err error) int {
	switch {
	case leave.IsNotFound(err):
		return http.StatusNotFound
	case isAny(err, leave.ErrNotAuthorized):
		return http.StatusForbidden
	case isAny(err, leave.ErrConflict, leave.ErrInvalidTransition, balance.ErrInsufficientBalance):
		return http.StatusConflict
	case leave.IsClientError(err):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func isAny(err error, targets ...error) bool {
	for _, t := range targets {
		if errors.Is(err, t) {
			return true
		}
	}
	return false
}

func nowUTC() time.Time { return time.Now().UTC() }

func yearParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	yearStr := r.URL.Query().Get("year")
	if yearStr == "" {
		return calendar.Today().Year(), true
	}
	year, err := strconv.Atoi(yearStr)
	if err != nil || year < 1900 {
		writeError(w, http.StatusBadRequest, "Invalid year", err)
		return 0, false
	}
	return year, true
}
