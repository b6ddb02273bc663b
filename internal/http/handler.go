package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/brightserv/facilityops/internal/http/middleware"
	"github.com/brightserv/facilityops/internal/model"
	"github.com/brightserv/facilityops/internal/service"
)

type Handler struct {
	leads       *service.LeadService
	quotes      *service.QuoteService
	orders      *service.WorkOrderService
	billing     *service.BillingService
	commissions *service.CommissionService
	log         zerolog.Logger
}

func NewHandler(
	leads *service.LeadService,
	quotes *service.QuoteService,
	orders *service.WorkOrderService,
	billing *service.BillingService,
	commissions *service.CommissionService,
	log zerolog.Logger,
) *Handler {
	return &Handler{
		leads:       leads,
		quotes:      quotes,
		orders:      orders,
		billing:     billing,
		commissions: commissions,
		log:         log,
	}
}

func (h *Handler) Register(router *gin.Engine, authMiddleware gin.HandlerFunc) {
	// Public surface: the lead funnel and the token-keyed quote review.
	router.POST("/public/leads", h.createFunnelLead)
	router.GET("/quote/review/:token", h.reviewQuote)
	router.POST("/quote/review/:token/respond", h.respondToQuote)

	protected := router.Group("/")
	protected.Use(authMiddleware)

	protected.POST("/leads", h.createLead)
	protected.GET("/leads", h.listLeads)
	protected.GET("/leads/:id", h.getLead)
	protected.PATCH("/leads/:id/status", h.updateLeadStatus)
	protected.GET("/leads/:id/quotes", h.listQuotesForLead)
	protected.GET("/leads/:id/work-orders", h.listWorkOrdersForLead)

	protected.POST("/quotes", h.createQuote)
	protected.GET("/quotes/:id", h.getQuote)
	protected.POST("/quotes/:id/send", h.sendQuote)
	protected.POST("/quotes/:id/accept", h.acceptQuote)
	protected.POST("/quotes/:id/reject", h.rejectQuote)

	protected.POST("/vendors", h.createVendor)
	protected.GET("/vendors", h.listVendors)
	protected.POST("/scope-templates", h.createTemplate)
	protected.GET("/work-orders/:id", h.getWorkOrder)
	protected.POST("/work-orders/:id/assign", h.assignVendor)
	protected.POST("/work-orders/:id/transition", h.transitionWorkOrder)
	protected.PUT("/work-orders/:id/schedule", h.updateWorkOrderSchedule)
	protected.POST("/work-orders/:id/check-ins", h.checkIn)
	protected.GET("/work-orders/:id/check-ins", h.listCheckIns)

	protected.POST("/invoices", h.generateInvoice)
	protected.GET("/invoices", h.listInvoices)
	protected.GET("/invoices/:id", h.getInvoice)
	protected.GET("/invoices/:id/remittances", h.listRemittances)
	protected.GET("/invoices/:id/completeness", h.invoiceCompleteness)
	protected.POST("/invoices/:id/mark-paid", h.markInvoicePaid)
	protected.POST("/remittances/:id/mark-paid", h.markRemittancePaid)
	protected.GET("/invoices/:id/export/pdf", h.exportInvoicePDF)
	protected.GET("/invoices/:id/export/xlsx", h.exportInvoiceExcel)

	protected.POST("/commissions", h.createCommission)
	protected.GET("/commissions/summary", h.commissionSummary)
	protected.POST("/commissions/:id/payouts/:month/paid", h.markPayoutPaid)
	protected.POST("/commissions/:id/payouts/:month/cancelled", h.markPayoutCancelled)
	protected.GET("/commissions/export", h.exportCommissionLedger)
}

type createLeadRequest struct {
	BusinessName string            `json:"business_name" binding:"required"`
	ContactName  string            `json:"contact_name"`
	Email        string            `json:"email"`
	Phone        string            `json:"phone"`
	Address      string            `json:"address"`
	Zip          string            `json:"zip"`
	FacilityType string            `json:"facility_type"`
	Source       string            `json:"source"`
	Notes        string            `json:"notes"`
	AuditSlots   []model.AuditSlot `json:"audit_slots"`
}

func (r createLeadRequest) toInput(principal model.Principal) service.CreateLeadInput {
	return service.CreateLeadInput{
		BusinessName: r.BusinessName,
		ContactName:  r.ContactName,
		Email:        r.Email,
		Phone:        r.Phone,
		Address:      r.Address,
		Zip:          r.Zip,
		FacilityType: r.FacilityType,
		Source:       r.Source,
		Notes:        r.Notes,
		AuditSlots:   r.AuditSlots,
		Principal:    principal,
	}
}

func (h *Handler) createLead(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	var req createLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	lead, err := h.leads.Create(c.Request.Context(), req.toInput(principal))
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, lead)
}

func (h *Handler) createFunnelLead(c *gin.Context) {
	var req createLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	lead, err := h.leads.CreateFromFunnel(c.Request.Context(), req.toInput(model.Principal{}))
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, lead)
}

func (h *Handler) listLeads(c *gin.Context) {
	var status *model.LeadStatus
	if raw := strings.TrimSpace(c.Query("status")); raw != "" {
		s := model.LeadStatus(strings.ToUpper(raw))
		status = &s
	}
	leads, err := h.leads.List(c.Request.Context(), status)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, leads)
}

func (h *Handler) getLead(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	lead, err := h.leads.Get(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, lead)
}

type updateLeadStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

func (h *Handler) updateLeadStatus(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	id, err := parseID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	var req updateLeadStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	err = h.leads.UpdateStatus(c.Request.Context(), service.UpdateLeadStatusInput{
		LeadID:    id,
		Status:    model.LeadStatus(strings.ToUpper(strings.TrimSpace(req.Status))),
		Principal: principal,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type quoteLineItemRequest struct {
	Location    string  `json:"location" binding:"required"`
	Zip         string  `json:"zip"`
	ServiceType string  `json:"service_type" binding:"required"`
	Frequency   string  `json:"frequency"`
	MonthlyRate float64 `json:"monthly_rate" binding:"required"`
}

type createQuoteRequest struct {
	LeadID       string                 `json:"lead_id" binding:"required"`
	LineItems    []quoteLineItemRequest `json:"line_items" binding:"required"`
	TenureMonths int                    `json:"tenure_months"`
	PaymentTerms string                 `json:"payment_terms"`
	ExitClause   string                 `json:"exit_clause"`
}

func (h *Handler) createQuote(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	var req createQuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	leadID, err := uuid.Parse(strings.TrimSpace(req.LeadID))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid lead_id"})
		return
	}

	lineItems := make([]service.QuoteLineItemInput, 0, len(req.LineItems))
	for _, item := range req.LineItems {
		lineItems = append(lineItems, service.QuoteLineItemInput{
			Location:    item.Location,
			Zip:         item.Zip,
			ServiceType: item.ServiceType,
			Frequency:   model.ServiceFrequency(strings.ToUpper(strings.TrimSpace(item.Frequency))),
			MonthlyRate: item.MonthlyRate,
		})
	}

	quote, err := h.quotes.Create(c.Request.Context(), service.CreateQuoteInput{
		LeadID:       leadID,
		LineItems:    lineItems,
		TenureMonths: req.TenureMonths,
		PaymentTerms: req.PaymentTerms,
		ExitClause:   req.ExitClause,
		Principal:    principal,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, quote)
}

func (h *Handler) getQuote(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	quote, err := h.quotes.Get(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, quote)
}

func (h *Handler) listQuotesForLead(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	quotes, err := h.quotes.ListForLead(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, quotes)
}

func (h *Handler) sendQuote(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	id, err := parseID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	if err := h.quotes.Send(c.Request.Context(), id, principal); err != nil {
		h.handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type acceptQuoteRequest struct {
	StartDate string `json:"start_date"`
}

func (h *Handler) acceptQuote(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	id, err := parseID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	var req acceptQuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	var startDate time.Time
	if req.StartDate != "" {
		startDate, err = parseDate(req.StartDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid start_date"})
			return
		}
	}

	result, err := h.quotes.Accept(c.Request.Context(), service.AcceptQuoteInput{
		QuoteID:   id,
		StartDate: startDate,
		Principal: principal,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

type rejectQuoteRequest struct {
	Reason string `json:"reason"`
}

func (h *Handler) rejectQuote(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	id, err := parseID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	var req rejectQuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	err = h.quotes.Reject(c.Request.Context(), service.RejectQuoteInput{
		QuoteID:   id,
		Reason:    req.Reason,
		Principal: principal,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// reviewQuote is the public read view behind the emailed link. The review
// token is the credential; the secret itself is not echoed back.
func (h *Handler) reviewQuote(c *gin.Context) {
	token := strings.TrimSpace(c.Param("token"))
	quote, err := h.quotes.GetByToken(c.Request.Context(), token)
	if err != nil {
		h.handleError(c, err)
		return
	}
	quote.ReviewToken = ""
	c.JSON(http.StatusOK, quote)
}

type respondToQuoteRequest struct {
	Action string `json:"action" binding:"required"`
	Note   string `json:"note"`
}

func (h *Handler) respondToQuote(c *gin.Context) {
	token := strings.TrimSpace(c.Param("token"))
	var req respondToQuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	result, err := h.quotes.RespondByToken(c.Request.Context(), token, req.Action, req.Note)
	if err != nil {
		h.handleError(c, err)
		return
	}
	if result == nil {
		c.Status(http.StatusNoContent)
		return
	}
	c.JSON(http.StatusOK, result)
}

type createVendorRequest struct {
	Name        string `json:"name" binding:"required"`
	ContactName string `json:"contact_name"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	ServiceArea string `json:"service_area"`
}

func (h *Handler) createVendor(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	var req createVendorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	vendor, err := h.orders.CreateVendor(c.Request.Context(), service.CreateVendorInput{
		Name:        req.Name,
		ContactName: req.ContactName,
		Email:       req.Email,
		Phone:       req.Phone,
		ServiceArea: req.ServiceArea,
		Principal:   principal,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, vendor)
}

type createTemplateRequest struct {
	Name        string               `json:"name"`
	ServiceType string               `json:"service_type" binding:"required"`
	Tasks       []model.TemplateTask `json:"tasks" binding:"required"`
	StartTime   string               `json:"start_time"`
}

func (h *Handler) createTemplate(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	var req createTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	template, err := h.quotes.CreateTemplate(c.Request.Context(), service.CreateTemplateInput{
		Name:        req.Name,
		ServiceType: req.ServiceType,
		Tasks:       req.Tasks,
		StartTime:   req.StartTime,
		Principal:   principal,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, template)
}

func (h *Handler) listVendors(c *gin.Context) {
	vendors, err := h.orders.ListVendors(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, vendors)
}

func (h *Handler) getWorkOrder(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	order, err := h.orders.Get(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *Handler) listWorkOrdersForLead(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	orders, err := h.orders.ListForLead(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

type assignVendorRequest struct {
	VendorID   string  `json:"vendor_id" binding:"required"`
	VendorRate float64 `json:"vendor_rate" binding:"required"`
}

func (h *Handler) assignVendor(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	id, err := parseID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	var req assignVendorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	vendorID, err := uuid.Parse(strings.TrimSpace(req.VendorID))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid vendor_id"})
		return
	}

	order, err := h.orders.AssignVendor(c.Request.Context(), service.AssignVendorInput{
		WorkOrderID: id,
		VendorID:    vendorID,
		VendorRate:  req.VendorRate,
		Principal:   principal,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

type transitionRequest struct {
	Status string `json:"status" binding:"required"`
}

func (h *Handler) transitionWorkOrder(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	id, err := parseID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	var req transitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	order, err := h.orders.Transition(c.Request.Context(), service.TransitionInput{
		WorkOrderID: id,
		Target:      model.WorkOrderStatus(strings.ToUpper(strings.TrimSpace(req.Status))),
		Principal:   principal,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *Handler) updateWorkOrderSchedule(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	id, err := parseID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	var schedule model.Schedule
	if err := c.ShouldBindJSON(&schedule); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	order, err := h.orders.UpdateSchedule(c.Request.Context(), service.UpdateScheduleInput{
		WorkOrderID: id,
		Schedule:    schedule,
		Principal:   principal,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

type checkInRequest struct {
	ScannedCode      string   `json:"scanned_code"`
	CompletedTaskIDs []string `json:"completed_task_ids"`
	Score            int      `json:"score" binding:"required"`
	Notes            string   `json:"notes"`
}

func (h *Handler) checkIn(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	id, err := parseID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	var req checkInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	checkIn, err := h.orders.CheckIn(c.Request.Context(), service.CheckInInput{
		WorkOrderID:      id,
		ScannedCode:      req.ScannedCode,
		CompletedTaskIDs: req.CompletedTaskIDs,
		Score:            req.Score,
		Notes:            req.Notes,
		Principal:        principal,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, checkIn)
}

func (h *Handler) listCheckIns(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	checkIns, err := h.orders.ListCheckIns(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, checkIns)
}

type generateInvoiceRequest struct {
	LeadID      string `json:"lead_id" binding:"required"`
	PeriodStart string `json:"period_start" binding:"required"`
	PeriodEnd   string `json:"period_end" binding:"required"`
	DueDate     string `json:"due_date"`
}

func (h *Handler) generateInvoice(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	var req generateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	leadID, err := uuid.Parse(strings.TrimSpace(req.LeadID))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid lead_id"})
		return
	}
	periodStart, err := parseDate(req.PeriodStart)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid period_start"})
		return
	}
	periodEnd, err := parseDate(req.PeriodEnd)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid period_end"})
		return
	}
	var dueDate time.Time
	if req.DueDate != "" {
		dueDate, err = parseDate(req.DueDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid due_date"})
			return
		}
	}

	result, err := h.billing.GenerateInvoice(c.Request.Context(), service.GenerateInvoiceInput{
		LeadID:      leadID,
		PeriodStart: periodStart,
		PeriodEnd:   periodEnd,
		DueDate:     dueDate,
		Principal:   principal,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h *Handler) listInvoices(c *gin.Context) {
	var leadID *uuid.UUID
	if raw := strings.TrimSpace(c.Query("lead_id")); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid lead_id"})
			return
		}
		leadID = &id
	}
	invoices, err := h.billing.ListInvoices(c.Request.Context(), leadID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, invoices)
}

func (h *Handler) getInvoice(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	invoice, err := h.billing.GetInvoice(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, invoice)
}

func (h *Handler) listRemittances(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	remittances, err := h.billing.ListRemittances(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, remittances)
}

func (h *Handler) invoiceCompleteness(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	missing, err := h.billing.MissingRemittances(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"complete":           len(missing) == 0,
		"missing_vendor_ids": missing,
	})
}

func (h *Handler) markInvoicePaid(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	id, err := parseID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	if err := h.billing.MarkInvoicePaid(c.Request.Context(), id, principal); err != nil {
		h.handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type markRemittancePaidRequest struct {
	Method    string `json:"method"`
	Reference string `json:"reference"`
}

func (h *Handler) markRemittancePaid(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	id, err := parseID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	var req markRemittancePaidRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	err = h.billing.MarkRemittancePaid(c.Request.Context(), service.MarkRemittancePaidInput{
		RemittanceID: id,
		Method:       req.Method,
		Reference:    req.Reference,
		Principal:    principal,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) exportInvoicePDF(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	id, err := parseID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	result, err := h.billing.ExportInvoicePDF(c.Request.Context(), id, principal)
	if err != nil {
		h.handleError(c, err)
		return
	}
	serveAttachment(c, result, "application/pdf")
}

func (h *Handler) exportInvoiceExcel(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	id, err := parseID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	result, err := h.billing.ExportInvoiceExcel(c.Request.Context(), id, principal)
	if err != nil {
		h.handleError(c, err)
		return
	}
	serveAttachment(c, result, xlsxContentType)
}

type createCommissionRequest struct {
	StaffID      string  `json:"staff_id" binding:"required"`
	QuoteID      string  `json:"quote_id"`
	LeadID       string  `json:"lead_id"`
	Type         string  `json:"type"`
	MRR          float64 `json:"mrr" binding:"required"`
	Rate         float64 `json:"rate" binding:"required"`
	PayoutMonths int     `json:"payout_months"`
}

func (h *Handler) createCommission(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	var req createCommissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	staffID, err := uuid.Parse(strings.TrimSpace(req.StaffID))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid staff_id"})
		return
	}
	quoteID, _ := uuid.Parse(strings.TrimSpace(req.QuoteID))
	leadID, _ := uuid.Parse(strings.TrimSpace(req.LeadID))

	commission, err := h.commissions.Create(c.Request.Context(), service.CreateCommissionInput{
		StaffID:      staffID,
		QuoteID:      quoteID,
		LeadID:       leadID,
		Type:         model.CommissionType(strings.ToUpper(strings.TrimSpace(req.Type))),
		MRR:          req.MRR,
		Rate:         req.Rate,
		PayoutMonths: req.PayoutMonths,
		Principal:    principal,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, commission)
}

func (h *Handler) commissionSummary(c *gin.Context) {
	staffID, err := parseStaffID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid staff_id"})
		return
	}
	ledger, err := h.commissions.Summary(c.Request.Context(), staffID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, ledger)
}

func (h *Handler) markPayoutPaid(c *gin.Context) {
	h.resolvePayout(c, h.commissions.MarkPayoutPaid)
}

func (h *Handler) markPayoutCancelled(c *gin.Context) {
	h.resolvePayout(c, h.commissions.MarkPayoutCancelled)
}

func (h *Handler) resolvePayout(c *gin.Context, resolve func(ctx context.Context, input service.ResolvePayoutInput) error) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	id, err := parseID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	month, err := strconv.Atoi(c.Param("month"))
	if err != nil || month < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid month"})
		return
	}
	err = resolve(c.Request.Context(), service.ResolvePayoutInput{
		CommissionID: id,
		MonthIndex:   month,
		Principal:    principal,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) exportCommissionLedger(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	staffID, err := parseStaffID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid staff_id"})
		return
	}
	result, err := h.commissions.ExportLedger(c.Request.Context(), staffID, principal)
	if err != nil {
		h.handleError(c, err)
		return
	}
	serveAttachment(c, result, xlsxContentType)
}

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func serveAttachment(c *gin.Context, result *service.ExportResult, contentType string) {
	c.Header("Content-Disposition", "attachment; filename=\""+result.FileName+"\"")
	c.Data(http.StatusOK, contentType, result.Content)
}

func (h *Handler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrPermissionDenied):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrQuoteNotOpen),
		errors.Is(err, service.ErrInvalidState):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrNoBillableWork):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	default:
		h.log.Error().Err(err).Msg("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func parseID(c *gin.Context) (uuid.UUID, error) {
	return uuid.Parse(strings.TrimSpace(c.Param("id")))
}

func parseStaffID(c *gin.Context) (*uuid.UUID, error) {
	raw := strings.TrimSpace(c.Query("staff_id"))
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, service.ErrInvalidInput
	}
	layouts := []string{
		time.RFC3339,
		"2006-01-02",
		"2006-01-02T15:04:05",
	}
	for _, layout := range layouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, service.ErrInvalidInput
}
