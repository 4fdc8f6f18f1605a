package handlers

import (
	"strings"

	"bursary-portal/internal/adapters/http/middleware"
	"bursary-portal/internal/core/domain"
	"bursary-portal/internal/core/services"
	"bursary-portal/internal/pkg/pagination"
	"bursary-portal/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// ApplicationHandler handles application lifecycle endpoints
type ApplicationHandler struct {
	lifecycle services.Lifecycle
	log       *zap.Logger
}

// NewApplicationHandler creates a new application handler
func NewApplicationHandler(lifecycle services.Lifecycle, log *zap.Logger) *ApplicationHandler {
	return &ApplicationHandler{lifecycle: lifecycle, log: log}
}

// VerifyDocumentsRequest represents verify documents request body
type VerifyDocumentsRequest struct {
	Results []domain.DocumentResult `json:"results"`
}

// RequestCorrectionsRequest represents request corrections request body
type RequestCorrectionsRequest struct {
	MissingDocuments []string `json:"missingDocuments"`
}

// Create handles draft creation
// @Summary Create draft application
// @Tags Applications
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body domain.DraftInput true "Application data"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 422 {object} response.Response
// @Router /applications [post]
func (h *ApplicationHandler) Create(c *fiber.Ctx) error {
	var req domain.DraftInput
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	app, err := h.lifecycle.CreateDraft(c.UserContext(), middleware.CurrentActor(c), req)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return response.Created(c, "Application created successfully", app)
}

// Update handles draft edits
// @Summary Update draft application
// @Tags Applications
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Application ID"
// @Param body body domain.DraftInput true "Application data"
// @Success 200 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /applications/{id} [put]
func (h *ApplicationHandler) Update(c *fiber.Ctx) error {
	var req domain.DraftInput
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	app, err := h.lifecycle.UpdateDraft(c.UserContext(), middleware.CurrentActor(c), c.Params("id"), req)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return response.Success(c, "Application updated successfully", app)
}

// AttachDocument handles document uploads by reference
// @Summary Attach document
// @Tags Applications
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Application ID"
// @Param body body domain.Document true "Document"
// @Success 200 {object} response.Response
// @Router /applications/{id}/documents [post]
func (h *ApplicationHandler) AttachDocument(c *fiber.Ctx) error {
	var req domain.Document
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	app, err := h.lifecycle.AttachDocument(c.UserContext(), middleware.CurrentActor(c), c.Params("id"), req)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return response.Success(c, "Document attached successfully", app)
}

// Submit handles draft submission
// @Summary Submit application
// @Tags Applications
// @Produce json
// @Security BearerAuth
// @Param id path string true "Application ID"
// @Success 200 {object} response.Response
// @Failure 409 {object} response.Response
// @Failure 422 {object} response.Response
// @Router /applications/{id}/submit [post]
func (h *ApplicationHandler) Submit(c *fiber.Ctx) error {
	app, err := h.lifecycle.SubmitApplication(c.UserContext(), middleware.CurrentActor(c), c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return response.Success(c, "Application submitted successfully", app)
}

// Review handles ARO decisions
// @Summary Review application
// @Tags Applications
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Application ID"
// @Param body body services.ReviewInput true "Decision"
// @Success 200 {object} response.Response
// @Failure 409 {object} response.Response
// @Failure 422 {object} response.Response
// @Router /applications/{id}/review [post]
func (h *ApplicationHandler) Review(c *fiber.Ctx) error {
	var req services.ReviewInput
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	app, err := h.lifecycle.Review(c.UserContext(), middleware.CurrentActor(c), c.Params("id"), req)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return response.Success(c, "Application reviewed successfully", app)
}

// Forward handles forwarding an approved application to the FAO
// @Summary Forward application to FAO
// @Tags Applications
// @Produce json
// @Security BearerAuth
// @Param id path string true "Application ID"
// @Success 200 {object} response.Response
// @Router /applications/{id}/forward [post]
func (h *ApplicationHandler) Forward(c *fiber.Ctx) error {
	app, err := h.lifecycle.ForwardToFAO(c.UserContext(), middleware.CurrentActor(c), c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return response.Success(c, "Application forwarded successfully", app)
}

// VerifyDocuments handles document verification
// @Summary Verify documents
// @Tags Applications
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Application ID"
// @Param body body VerifyDocumentsRequest true "Results"
// @Success 200 {object} response.Response
// @Router /applications/{id}/verify-documents [post]
func (h *ApplicationHandler) VerifyDocuments(c *fiber.Ctx) error {
	var req VerifyDocumentsRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	app, err := h.lifecycle.VerifyDocuments(c.UserContext(), middleware.CurrentActor(c), c.Params("id"), req.Results)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return response.Success(c, "Documents verified successfully", app)
}

// RequestCorrections handles returning an application to the student
// @Summary Request corrections
// @Tags Applications
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Application ID"
// @Param body body RequestCorrectionsRequest true "Missing documents"
// @Success 200 {object} response.Response
// @Router /applications/{id}/request-corrections [post]
func (h *ApplicationHandler) RequestCorrections(c *fiber.Ctx) error {
	var req RequestCorrectionsRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	app, err := h.lifecycle.RequestCorrections(c.UserContext(), middleware.CurrentActor(c), c.Params("id"), req.MissingDocuments)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return response.Success(c, "Corrections requested successfully", app)
}

// Allocate handles fund allocation
// @Summary Allocate funds
// @Tags Applications
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Application ID"
// @Param body body services.AllocateInput true "Allocation"
// @Success 200 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /applications/{id}/allocate [post]
func (h *ApplicationHandler) Allocate(c *fiber.Ctx) error {
	var req services.AllocateInput
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	app, err := h.lifecycle.Allocate(c.UserContext(), middleware.CurrentActor(c), c.Params("id"), req)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return response.Success(c, "Funds allocated successfully", app)
}

// Disburse handles payouts
// @Summary Disburse funds
// @Tags Applications
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Application ID"
// @Param body body domain.DisbursementDetails true "Disbursement"
// @Success 200 {object} response.Response
// @Router /applications/{id}/disburse [post]
func (h *ApplicationHandler) Disburse(c *fiber.Ctx) error {
	var req domain.DisbursementDetails
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	app, err := h.lifecycle.Disburse(c.UserContext(), middleware.CurrentActor(c), c.Params("id"), req)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return response.Success(c, "Funds disbursed successfully", app)
}

// Get handles fetching one application
// @Summary Get application
// @Tags Applications
// @Produce json
// @Security BearerAuth
// @Param id path string true "Application ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /applications/{id} [get]
func (h *ApplicationHandler) Get(c *fiber.Ctx) error {
	app, err := h.lifecycle.Get(c.UserContext(), middleware.CurrentActor(c), c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return response.Success(c, "Application retrieved successfully", app)
}

// List handles searching applications
// @Summary List applications
// @Tags Applications
// @Produce json
// @Security BearerAuth
// @Param q query string false "Search text"
// @Param status query string false "Comma separated statuses"
// @Param academicYear query string false "Academic year"
// @Param institutionType query string false "Institution type"
// @Param fundCategory query string false "Fund category"
// @Param sortBy query string false "date, amount or name"
// @Param order query string false "asc or desc"
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(20)
// @Success 200 {object} response.Response
// @Router /applications [get]
func (h *ApplicationHandler) List(c *fiber.Ctx) error {
	query, err := parseQuery(c)
	if err != nil {
		return response.BadRequest(c, err.Error())
	}
	params := pagination.GetParams(c)

	result, err := h.lifecycle.List(c.UserContext(), middleware.CurrentActor(c), &services.ListApplicationsInput{
		Query: query,
		Page:  params.Page,
		Limit: params.Limit,
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	return response.Paginated(c, "Applications retrieved successfully", result.Applications, result.Meta)
}

func parseQuery(c *fiber.Ctx) (domain.Query, error) {
	q := domain.Query{
		Text:            c.Query("q"),
		AcademicYear:    c.Query("academicYear"),
		InstitutionType: c.Query("institutionType"),
		FundCategory:    c.Query("fundCategory"),
		Descending:      strings.EqualFold(c.Query("order"), "desc"),
	}

	switch sortBy := domain.SortField(c.Query("sortBy", string(domain.SortByDate))); sortBy {
	case domain.SortByDate, domain.SortByAmount, domain.SortByName:
		q.SortBy = sortBy
	default:
		return domain.Query{}, fiber.NewError(fiber.StatusBadRequest, "Invalid sortBy: "+string(sortBy))
	}

	if raw := c.Query("status"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			status, ok := domain.ParseStatus(strings.TrimSpace(part))
			if !ok {
				return domain.Query{}, fiber.NewError(fiber.StatusBadRequest, "Invalid status: "+part)
			}
			q.Statuses = append(q.Statuses, status)
		}
	}
	return q, nil
}

// Counts handles status counts
// @Summary Count applications by status
// @Tags Applications
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /applications/counts [get]
func (h *ApplicationHandler) Counts(c *fiber.Ctx) error {
	counts, err := h.lifecycle.CountsByStatus(c.UserContext(), middleware.CurrentActor(c))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return response.Success(c, "Counts retrieved successfully", counts)
}

// Pending handles officer queues
// @Summary Pending applications for a role
// @Tags Applications
// @Produce json
// @Security BearerAuth
// @Param role query string false "Role, defaults to the caller's role"
// @Success 200 {object} response.Response
// @Router /applications/pending [get]
func (h *ApplicationHandler) Pending(c *fiber.Ctx) error {
	var role domain.Role
	if raw := c.Query("role"); raw != "" {
		r, ok := domain.ParseRole(raw)
		if !ok {
			return response.BadRequest(c, "Invalid role: "+raw)
		}
		role = r
	}

	apps, err := h.lifecycle.PendingForRole(c.UserContext(), middleware.CurrentActor(c), role)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return response.Success(c, "Pending applications retrieved successfully", apps)
}

// History handles lifecycle history
// @Summary Application history
// @Tags Applications
// @Produce json
// @Security BearerAuth
// @Param id path string true "Application ID"
// @Success 200 {object} response.Response
// @Router /applications/{id}/history [get]
func (h *ApplicationHandler) History(c *fiber.Ctx) error {
	events, err := h.lifecycle.History(c.UserContext(), middleware.CurrentActor(c), c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return response.Success(c, "History retrieved successfully", events)
}

// Disbursements handles payout records
// @Summary Application disbursements
// @Tags Applications
// @Produce json
// @Security BearerAuth
// @Param id path string true "Application ID"
// @Success 200 {object} response.Response
// @Router /applications/{id}/disbursements [get]
func (h *ApplicationHandler) Disbursements(c *fiber.Ctx) error {
	records, err := h.lifecycle.Disbursements(c.UserContext(), middleware.CurrentActor(c), c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return response.Success(c, "Disbursements retrieved successfully", records)
}
