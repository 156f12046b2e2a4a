// Package httpapi carries the HTTP handlers. Keep these thin:
// parse/validate input, call internal services, return JSON.
package httpapi

import (
	"crypto/subtle"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"telecaller-platform/internal/auth"
	"telecaller-platform/internal/catalog"
	"telecaller-platform/internal/config"
	"telecaller-platform/internal/notify"
	"telecaller-platform/internal/orchestrator"
	"telecaller-platform/internal/reporting"
	"telecaller-platform/internal/telephony"
)

// Handlers groups HTTP handlers for dependency injection.
type Handlers struct {
	Auth     *auth.Manager
	AuthCfg  config.AuthConfig
	Catalog  catalog.Store
	Calls    *orchestrator.Service
	Campaign *orchestrator.Campaign
	Reports  *reporting.Service
	OTP      *notify.OTPService
	Log      *slog.Logger
}

func fail(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"success": false, "error": msg})
}

// --- Health ---

func (h Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"success": true, "status": "ok", "active_calls": h.Calls.ActiveSessions()})
}

// --- Auth ---

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login validates the configured admin credential and issues an
// access token with the admin role.
func (h Handlers) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "invalid json")
		return
	}
	if h.AuthCfg.AdminUsername == "" || h.AuthCfg.AdminPassword == "" {
		fail(c, http.StatusUnauthorized, "login disabled")
		return
	}
	userOK := subtle.ConstantTimeCompare([]byte(req.Username), []byte(h.AuthCfg.AdminUsername)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(req.Password), []byte(h.AuthCfg.AdminPassword)) == 1
	if !userOK || !passOK {
		fail(c, http.StatusUnauthorized, "invalid credentials")
		return
	}
	token, err := h.Auth.IssueAccessToken(time.Now(), req.Username, auth.RoleAdmin)
	if err != nil {
		fail(c, http.StatusInternalServerError, "token issuance failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "access_token": token})
}

// --- Catalog ---

func (h Handlers) ListPrograms(c *gin.Context) {
	rows, err := h.Catalog.ListPrograms(c.Request.Context(), 200)
	if err != nil {
		fail(c, http.StatusInternalServerError, "program lookup failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "programs": rows})
}

func (h Handlers) ListPartners(c *gin.Context) {
	rows, err := h.Catalog.ListPartners(c.Request.Context(), 200)
	if err != nil {
		fail(c, http.StatusInternalServerError, "partner lookup failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "partners": rows})
}

// ListProgramEvents returns all scheduled events for one program.
func (h Handlers) ListProgramEvents(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		fail(c, http.StatusBadRequest, "invalid program id")
		return
	}
	rows, err := h.Catalog.ListEventsByProgram(c.Request.Context(), id)
	if err != nil {
		fail(c, http.StatusInternalServerError, "event lookup failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "events": rows})
}

// UpcomingEvents lists events starting within the window, soonest
// first, for campaign target selection.
func (h Handlers) UpcomingEvents(c *gin.Context) {
	days := 90
	if v := c.Query("days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			fail(c, http.StatusBadRequest, "days must be a positive integer")
			return
		}
		days = n
	}
	rows, err := h.Catalog.UpcomingEvents(c.Request.Context(), time.Now().UTC(), time.Duration(days)*24*time.Hour)
	if err != nil {
		fail(c, http.StatusInternalServerError, "event lookup failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "events": rows})
}

func (h Handlers) CreatePartner(c *gin.Context) {
	var p catalog.Partner
	if err := c.ShouldBindJSON(&p); err != nil {
		fail(c, http.StatusBadRequest, "invalid json")
		return
	}
	created, err := h.Catalog.CreatePartner(c.Request.Context(), p)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, catalog.ErrInvalidArgument) {
			status = http.StatusBadRequest
		}
		fail(c, status, "partner create failed")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "partner": created})
}

func (h Handlers) CreateProgram(c *gin.Context) {
	var p catalog.Program
	if err := c.ShouldBindJSON(&p); err != nil {
		fail(c, http.StatusBadRequest, "invalid json")
		return
	}
	created, err := h.Catalog.CreateProgram(c.Request.Context(), p)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, catalog.ErrInvalidArgument) {
			status = http.StatusBadRequest
		}
		fail(c, status, "program create failed")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "program": created})
}

func (h Handlers) CreateEvent(c *gin.Context) {
	var e catalog.ProgramEvent
	if err := c.ShouldBindJSON(&e); err != nil {
		fail(c, http.StatusBadRequest, "invalid json")
		return
	}
	created, err := h.Catalog.CreateEvent(c.Request.Context(), e)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, catalog.ErrInvalidArgument) {
			status = http.StatusBadRequest
		}
		fail(c, status, "event create failed")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "event": created})
}

// --- Calls ---

func (h Handlers) StartCall(c *gin.Context) {
	var req orchestrator.StartCallRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "to_number is required")
		return
	}
	res, err := h.Calls.StartCall(c.Request.Context(), req)
	switch {
	case errors.Is(err, telephony.ErrInvalidNumber):
		fail(c, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, orchestrator.ErrTooManyCalls):
		fail(c, http.StatusTooManyRequests, "active call limit reached")
		return
	case err != nil:
		h.Log.Error("start call failed", "error", err)
		fail(c, http.StatusBadGateway, "call could not be placed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "call": res})
}

// VoiceWebhook always answers 200 with well-formed TwiML; a broken
// pipeline must apologize and hang up, not drop the call.
func (h Handlers) VoiceWebhook(c *gin.Context) {
	form, err := telephony.ParseVoiceWebhook(c.Request)
	if err != nil || form.CallSid == "" {
		c.Data(http.StatusOK, "application/xml", []byte(telephony.FallbackTwiML()))
		return
	}
	markup := h.Calls.HandleVoice(c.Request.Context(), form)
	c.Data(http.StatusOK, "application/xml", []byte(markup))
}

func (h Handlers) StatusWebhook(c *gin.Context) {
	form, err := telephony.ParseStatusWebhook(c.Request)
	if err != nil || form.CallSid == "" {
		fail(c, http.StatusBadRequest, "invalid status callback")
		return
	}
	if err := h.Calls.HandleStatus(c.Request.Context(), form); err != nil {
		h.Log.Error("status webhook failed", "call_sid", form.CallSid, "error", err)
		fail(c, http.StatusInternalServerError, "status processing failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h Handlers) GetCallStatus(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		fail(c, http.StatusBadRequest, "call id required")
		return
	}
	row, err := h.Calls.GetCall(c.Request.Context(), id)
	if errors.Is(err, orchestrator.ErrNoSuchCall) {
		fail(c, http.StatusNotFound, "call not found")
		return
	}
	if err != nil {
		fail(c, http.StatusInternalServerError, "call lookup failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "call": row})
}

// --- Campaign ---

type campaignRequest struct {
	ProgramEventID int64   `json:"program_event_id" binding:"required"`
	PartnerIDs     []int64 `json:"partner_ids" binding:"required"`
}

func (h Handlers) ExecuteCampaign(c *gin.Context) {
	var req campaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "program_event_id and partner_ids required")
		return
	}
	res, err := h.Campaign.Execute(c.Request.Context(), req.ProgramEventID, req.PartnerIDs)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			fail(c, http.StatusNotFound, "program event not found")
			return
		}
		h.Log.Error("campaign failed", "event_id", req.ProgramEventID, "error", err)
		fail(c, http.StatusInternalServerError, "campaign execution failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "result": res})
}

// --- Notify ---

type otpRequest struct {
	Email string `json:"email"`
	Phone string `json:"phone"`
}

func (h Handlers) SendOTP(c *gin.Context) {
	var req otpRequest
	if err := c.ShouldBindJSON(&req); err != nil || (req.Email == "" && req.Phone == "") {
		fail(c, http.StatusBadRequest, "email or phone required")
		return
	}
	var err error
	if req.Email != "" {
		err = h.OTP.SendEmailOTP(c.Request.Context(), req.Email)
	} else {
		err = h.OTP.SendSMSOTP(c.Request.Context(), req.Phone)
	}
	if errors.Is(err, notify.ErrRateLimited) {
		fail(c, http.StatusTooManyRequests, "too many otp requests")
		return
	}
	if err != nil {
		h.Log.Error("otp send failed", "error", err)
		fail(c, http.StatusBadGateway, "otp delivery failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

type otpVerifyRequest struct {
	Email string `json:"email"`
	Phone string `json:"phone"`
	Code  string `json:"code" binding:"required"`
}

func (h Handlers) VerifyOTP(c *gin.Context) {
	var req otpVerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil || (req.Email == "" && req.Phone == "") {
		fail(c, http.StatusBadRequest, "destination and code required")
		return
	}
	dest := req.Email
	if dest == "" {
		dest = req.Phone
	}
	if err := h.OTP.Verify(c.Request.Context(), dest, req.Code); err != nil {
		fail(c, http.StatusUnauthorized, "invalid or expired code")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "verified": true})
}

// --- Reporting ---

func (h Handlers) CallsReport(c *gin.Context) {
	from, err := parseTimeParam(c.Query("from"))
	if err != nil {
		fail(c, http.StatusBadRequest, "invalid from timestamp")
		return
	}
	to, err := parseTimeParam(c.Query("to"))
	if err != nil {
		fail(c, http.StatusBadRequest, "invalid to timestamp")
		return
	}
	if to.IsZero() {
		to = time.Now().UTC()
	}
	if from.IsZero() {
		from = to.Add(-24 * time.Hour)
	}
	summary, err := h.Reports.CallsSummary(c.Request.Context(), reporting.CallsSummaryRequest{
		Range: reporting.TimeRange{From: from, To: to},
	})
	if errors.Is(err, reporting.ErrInvalidRequest) {
		fail(c, http.StatusBadRequest, "invalid report range")
		return
	}
	if err != nil {
		fail(c, http.StatusInternalServerError, "report failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "summary": summary})
}

func parseTimeParam(v string) (time.Time, error) {
	if v == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339, v)
}
