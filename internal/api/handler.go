// Package api serves statement conversion over HTTP: upload a PDF, get the
// categorized ledger as JSON and download the workbook.
package api

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/insightdelivered/bnp-ledger/internal/extractor"
	"github.com/insightdelivered/bnp-ledger/internal/ledger"
	"github.com/insightdelivered/bnp-ledger/internal/logging"
	"github.com/insightdelivered/bnp-ledger/internal/models"
	"github.com/insightdelivered/bnp-ledger/internal/report"
	"github.com/insightdelivered/bnp-ledger/internal/rules"
)

const (
	Version = "1.0.0"

	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	maxReports      = 64
)

// ConvertResponse is the JSON response from the /api/convert endpoint.
type ConvertResponse struct {
	Success      bool                   `json:"success"`
	Error        string                 `json:"error,omitempty"`
	ReportID     string                 `json:"reportId,omitempty"`
	ReportURL    string                 `json:"reportUrl,omitempty"`
	Month        int                    `json:"month,omitempty"`
	Year         int                    `json:"year,omitempty"`
	Period       models.StatementPeriod `json:"period"`
	Transactions []models.Transaction   `json:"transactions"`
	Stats        models.Stats           `json:"stats"`
	Budget       *models.Budget         `json:"budget,omitempty"`
	Count        int                    `json:"count"`
}

// Options configure a Handler.
type Options struct {
	Extractor extractor.Extractor
	// Rules is read on every request; nil classifies everything as Autre.
	Rules          rules.Store
	Format         models.Format
	Strict         bool
	IncludeSavings bool
	// UploadDir receives uploaded statements; empty uses the system temp dir.
	UploadDir string
	Log       *logging.Logger
}

// Handler holds the HTTP handlers for the API.
type Handler struct {
	opts Options

	mu      sync.Mutex
	reports map[string]storedReport
	order   []string
}

type storedReport struct {
	name string
	data []byte
}

// NewHandler returns a handler keeping the latest workbooks in memory.
func NewHandler(opts Options) *Handler {
	if opts.Log == nil {
		opts.Log = logging.Nop()
	}
	if opts.Format == "" {
		opts.Format = models.FormatText
	}
	return &Handler{opts: opts, reports: make(map[string]storedReport)}
}

// NewApp returns a fiber app with every route registered.
func NewApp(h *Handler) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "bnp-ledger",
		BodyLimit:             32 << 20,
		DisableStartupMessage: true,
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{AllowMethods: "GET,POST,OPTIONS"}))
	h.RegisterRoutes(app)
	return app
}

// RegisterRoutes sets up the HTTP routes.
func (h *Handler) RegisterRoutes(app *fiber.App) {
	app.Get("/api/health", h.HandleHealth)
	app.Post("/api/convert", h.HandleConvert)
	app.Get("/api/reports/:id", h.HandleReport)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
}

func (h *Handler) HandleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "ok",
		"version": Version,
		"engine":  "fiber",
	})
}

func (h *Handler) HandleConvert(c *fiber.Ctx) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return writeError(c, fiber.StatusBadRequest, "No file uploaded. Use form field 'file'.")
	}
	if !strings.HasSuffix(strings.ToLower(fh.Filename), ".pdf") {
		return writeError(c, fiber.StatusBadRequest, "Only PDF files are supported.")
	}

	format := h.opts.Format
	if m := c.FormValue("mode"); m != "" {
		f, ok := models.ParseFormat(m)
		if !ok {
			return writeError(c, fiber.StatusBadRequest, fmt.Sprintf("Unknown mode: %q. Use text or markdown.", m))
		}
		format = f
	}
	var budget *float64
	if b := c.FormValue("budget"); b != "" {
		v, err := strconv.ParseFloat(b, 64)
		if err != nil || v < 0 {
			return writeError(c, fiber.StatusBadRequest, fmt.Sprintf("Invalid budget: %q.", b))
		}
		budget = &v
	}

	id := uuid.NewString()
	log := h.opts.Log.With("report", id)

	dir := h.opts.UploadDir
	if dir == "" {
		dir = os.TempDir()
	}
	path := filepath.Join(dir, id+".pdf")
	if err := c.SaveFile(fh, path); err != nil {
		log.Error("upload not saved", "err", err)
		return writeError(c, fiber.StatusInternalServerError, "Failed to save uploaded file.")
	}
	defer os.Remove(path)

	var engine *rules.Engine
	if h.opts.Rules != nil {
		engine, err = rules.Load(h.opts.Rules, rules.WithLogger(log))
		if err != nil {
			log.Warn("rules partially loaded", "err", err)
		}
	}

	summary, err := ledger.New(path, h.opts.Extractor, engine, ledger.Options{
		Format:         format,
		Strict:         h.opts.Strict,
		IncludeSavings: h.opts.IncludeSavings,
		Log:            log,
	})
	if err != nil {
		return writeError(c, fiber.StatusInternalServerError, err.Error())
	}
	if err := summary.AddOperations(c.UserContext()); err != nil {
		status := fiber.StatusUnprocessableEntity
		if errors.Is(err, models.ErrExtraction) {
			status = fiber.StatusBadGateway
		}
		return writeError(c, status, fmt.Sprintf("Conversion failed: %v", err))
	}
	if _, err := summary.AddMonthlyBudget(budget); err != nil {
		log.Warn("no budget", "err", err)
	}

	sheet := summary.Report()
	data, err := (&report.ExcelWriter{}).Bytes(sheet)
	if err != nil {
		log.Error("workbook not rendered", "err", err)
		return writeError(c, fiber.StatusInternalServerError, "Failed to render the workbook.")
	}
	h.store(id, storedReport{name: sheet.Name() + ".xlsx", data: data})

	txs := sheet.Transactions
	if txs == nil {
		txs = []models.Transaction{}
	}
	return c.JSON(ConvertResponse{
		Success:      true,
		ReportID:     id,
		ReportURL:    "/api/reports/" + id,
		Month:        sheet.Month,
		Year:         sheet.Year,
		Period:       sheet.Period,
		Transactions: txs,
		Stats:        sheet.Stats,
		Budget:       sheet.Budget,
		Count:        len(txs),
	})
}

func (h *Handler) HandleReport(c *fiber.Ctx) error {
	h.mu.Lock()
	r, ok := h.reports[c.Params("id")]
	h.mu.Unlock()
	if !ok {
		return writeError(c, fiber.StatusNotFound, "Unknown report.")
	}
	c.Set(fiber.HeaderContentType, xlsxContentType)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, r.name))
	return c.Send(r.data)
}

// store keeps the newest maxReports workbooks.
func (h *Handler) store(id string, r storedReport) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.reports[id] = r
	h.order = append(h.order, id)
	for len(h.order) > maxReports {
		delete(h.reports, h.order[0])
		h.order = h.order[1:]
	}
}

func writeError(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(ConvertResponse{
		Success: false,
		Error:   msg,
	})
}
