package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/andresuchdata/autoorder/internal/cache"
	"github.com/andresuchdata/autoorder/internal/domain"
	"github.com/andresuchdata/autoorder/internal/ledger"
	"github.com/andresuchdata/autoorder/internal/recommend"
	"github.com/andresuchdata/autoorder/internal/session"
	"github.com/andresuchdata/autoorder/internal/tableio"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var validate = validator.New()

type computeRequest struct {
	Period *int `json:"period" validate:"omitempty,gte=1"`
}

type overrideRequest struct {
	Quantity *float64 `json:"quantity" validate:"required,gte=0"`
}

type exportRequest struct {
	StartDate string `json:"start_date" validate:"required"`
}

// RecommendationResponse is a ledger row with its read-time level.
type RecommendationResponse struct {
	domain.Recommendation
	Level string `json:"level"`
}

// LedgerResponse is the ledger as returned by compute and search.
type LedgerResponse struct {
	ID             string                   `json:"id"`
	Period         int                      `json:"period"`
	Overrides      int                      `json:"overrides"`
	MissingWeights []string                 `json:"missing_weights"`
	Rows           []RecommendationResponse `json:"rows"`
	Warning        string                   `json:"warning,omitempty"`
}

type PlanHandler struct {
	session       *session.Session
	uploadDir     string
	defaultPeriod int
	log           zerolog.Logger
}

func NewPlanHandler(sess *session.Session, uploadDir string, defaultPeriod int, log zerolog.Logger) *PlanHandler {
	if defaultPeriod < 1 {
		defaultPeriod = recommend.DefaultPeriod
	}
	return &PlanHandler{
		session:       sess,
		uploadDir:     uploadDir,
		defaultPeriod: defaultPeriod,
		log:           log,
	}
}

// UploadSales loads the sales matrix from the multipart field "file".
func (h *PlanHandler) UploadSales(c *gin.Context) {
	t, ok := h.readUpload(c)
	if !ok {
		return
	}
	if err := h.session.LoadSales(t); err != nil {
		h.fail(c, err)
		return
	}
	st := h.session.Status()
	c.JSON(http.StatusOK, gin.H{
		"rows":         st.SalesRows,
		"date_columns": st.DateColumns,
	})
}

// UploadWeights loads the weight table from the multipart field "file".
func (h *PlanHandler) UploadWeights(c *gin.Context) {
	t, ok := h.readUpload(c)
	if !ok {
		return
	}
	if err := h.session.LoadWeights(t); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": h.session.Status().Weights})
}

func (h *PlanHandler) readUpload(c *gin.Context) (*tableio.Table, bool) {
	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return nil, false
	}

	format, err := tableio.FormatFromPath(fh.Filename)
	if err != nil {
		h.fail(c, err)
		return nil, false
	}

	t, err := readMultipart(fh, format)
	if err != nil {
		h.fail(c, err)
		return nil, false
	}

	if h.uploadDir != "" {
		dst := filepath.Join(h.uploadDir, filepath.Base(fh.Filename))
		if err := c.SaveUploadedFile(fh, dst); err != nil {
			h.log.Warn().Err(err).Str("filename", fh.Filename).Msg("failed to keep uploaded file")
		}
	}
	return t, true
}

func readMultipart(fh *multipart.FileHeader, format tableio.Format) (*tableio.Table, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open upload %s: %w", fh.Filename, err)
	}
	defer f.Close()
	return tableio.Read(f, format)
}

// Compute runs the engine for the requested period.
func (h *PlanHandler) Compute(c *gin.Context) {
	var req computeRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
	}
	if err := validate.Struct(req); err != nil {
		validationFailed(c, err)
		return
	}

	period, err := recommend.ParsePeriod(c.Query("period"), h.defaultPeriod)
	if err != nil {
		h.fail(c, err)
		return
	}
	if req.Period != nil {
		period = *req.Period
	}

	snap, err := h.session.Compute(c.Request.Context(), period)
	if err != nil && !errors.Is(err, session.ErrSnapshot) {
		h.fail(c, err)
		return
	}

	resp := ledgerResponse(snap, snap.Rows)
	if err != nil {
		resp.Warning = err.Error()
	}
	c.JSON(http.StatusOK, resp)
}

// GetLedger returns the rows matching the optional q and level parameters.
func (h *PlanHandler) GetLedger(c *gin.Context) {
	var (
		level    domain.Level
		byLevel  bool
		rawLevel = c.Query("level")
	)
	if rawLevel != "" {
		var ok bool
		if level, ok = domain.ParseLevel(rawLevel); !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("unknown level %q (low, normal or high)", rawLevel)})
			return
		}
		byLevel = true
	}

	snap, err := h.session.Current()
	if err != nil {
		h.fail(c, err)
		return
	}
	rows, err := h.session.Find(c.Query("q"))
	if err != nil {
		h.fail(c, err)
		return
	}
	if byLevel {
		rows = slices.DeleteFunc(rows, func(r domain.Recommendation) bool {
			return r.Level() != level
		})
	}
	c.JSON(http.StatusOK, ledgerResponse(snap, rows))
}

// OverridePosition sets the quantity of the row at :position.
func (h *PlanHandler) OverridePosition(c *gin.Context) {
	position, err := strconv.Atoi(c.Param("position"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "position must be an integer"})
		return
	}
	qty, ok := bindOverride(c)
	if !ok {
		return
	}
	row, err := h.session.Override(c.Request.Context(), position, qty)
	h.respondOverride(c, row, err)
}

// OverrideKey sets the quantity of the row with the stable row key :key.
func (h *PlanHandler) OverrideKey(c *gin.Context) {
	key := strings.TrimSpace(c.Param("key"))
	qty, ok := bindOverride(c)
	if !ok {
		return
	}
	row, err := h.session.OverrideKey(c.Request.Context(), key, qty)
	h.respondOverride(c, row, err)
}

// OverrideSKU sets the quantity of the row with :sku.
func (h *PlanHandler) OverrideSKU(c *gin.Context) {
	sku := strings.TrimSpace(c.Param("sku"))
	qty, ok := bindOverride(c)
	if !ok {
		return
	}
	row, err := h.session.OverrideSKU(c.Request.Context(), sku, qty)
	h.respondOverride(c, row, err)
}

func bindOverride(c *gin.Context) (float64, bool) {
	var req overrideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return 0, false
	}
	if err := validate.Struct(req); err != nil {
		validationFailed(c, err)
		return 0, false
	}
	return *req.Quantity, true
}

func (h *PlanHandler) respondOverride(c *gin.Context, row domain.Recommendation, err error) {
	if err != nil && !errors.Is(err, session.ErrSnapshot) {
		h.fail(c, err)
		return
	}
	body := gin.H{"row": toResponse(row)}
	if err != nil {
		body["warning"] = err.Error()
	}
	c.JSON(http.StatusOK, body)
}

// Export writes the 14-day schedule and returns it with the file name.
func (h *PlanHandler) Export(c *gin.Context) {
	var req exportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if err := validate.Struct(req); err != nil {
		validationFailed(c, err)
		return
	}

	result, err := h.session.Export(c.Request.Context(), req.StartDate)
	if err != nil && result == nil {
		h.fail(c, err)
		return
	}

	body := gin.H{
		"file":       result.Name,
		"path":       result.Path,
		"projection": result.Projection,
	}
	if result.URL != "" {
		body["url"] = result.URL
	}
	if err != nil {
		body["warning"] = err.Error()
	}
	c.JSON(http.StatusOK, body)
}

// DownloadExport streams the schedule for ?start_date= as an xlsx attachment.
func (h *PlanHandler) DownloadExport(c *gin.Context) {
	startDate := c.Query("start_date")
	if strings.TrimSpace(startDate) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "start_date is required"})
		return
	}

	var buf bytes.Buffer
	name, err := h.session.WriteExport(&buf, startDate)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, name))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

// Status reports what the session currently holds.
func (h *PlanHandler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, h.session.Status())
}

func (h *PlanHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func ledgerResponse(snap ledger.Snapshot, rows []domain.Recommendation) LedgerResponse {
	out := make([]RecommendationResponse, len(rows))
	for i, r := range rows {
		out[i] = toResponse(r)
	}
	missing := snap.MissingWeights
	if missing == nil {
		missing = []string{}
	}
	return LedgerResponse{
		ID:             snap.ID,
		Period:         snap.Period,
		Overrides:      snap.Overrides,
		MissingWeights: missing,
		Rows:           out,
	}
}

func toResponse(r domain.Recommendation) RecommendationResponse {
	return RecommendationResponse{
		Recommendation: r,
		Level:          strings.ToLower(r.Level().Label()),
	}
}

// StatusFor maps an error to the HTTP status the API reports it with.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrFormat):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrOutOfRange):
		return http.StatusNotFound
	case errors.Is(err, session.ErrSalesNotLoaded),
		errors.Is(err, session.ErrWeightsNotLoaded),
		errors.Is(err, session.ErrNoLedger),
		errors.Is(err, cache.ErrLocked):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (h *PlanHandler) fail(c *gin.Context, err error) {
	status := StatusFor(err)
	if status >= http.StatusInternalServerError {
		h.log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("request failed")
		_ = c.Error(err)
		c.JSON(status, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func validationFailed(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = fe.Tag()
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": "validation failed", "fields": fields})
}
