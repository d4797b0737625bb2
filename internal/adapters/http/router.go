package httpadapter

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/BradRyan1/Receipt-Processor/internal/config"
	"github.com/BradRyan1/Receipt-Processor/internal/core/domain"
	"github.com/BradRyan1/Receipt-Processor/internal/core/ports"
	"github.com/BradRyan1/Receipt-Processor/internal/observability/metrics"
)

const (
	serviceName     = "api"
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

type Router struct {
	cfg     config.Config
	ingest  ports.ReceiptIngestor
	sched   ports.BatchScheduler
	reader  ports.ReceiptReader
	reports ports.ReportBuilder
	metrics *metrics.HTTPServerMetrics
}

// NewRouter wires the HTTP surface to the inbound ports. Metrics may be nil;
// recording stays off without it.
func NewRouter(
	cfg config.Config,
	ingest ports.ReceiptIngestor,
	sched ports.BatchScheduler,
	reader ports.ReceiptReader,
	reports ports.ReportBuilder,
	m *metrics.HTTPServerMetrics,
) *Router {
	return &Router{
		cfg:     cfg,
		ingest:  ingest,
		sched:   sched,
		reader:  reader,
		reports: reports,
		metrics: m,
	}
}

// Handler assembles the middleware chain: request id and access log outermost,
// then metrics, traffic shedding, and the OpenAPI contract check in front of
// the route handlers.
func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/v1/batches", rt.createBatch)
	mux.HandleFunc("/v1/batches/", rt.batchRoutes)
	mux.HandleFunc("/v1/receipts/", rt.getReceipt)

	handler := contractMiddleware(mux)
	if rt.cfg.APIMaxInFlight > 0 {
		wait := time.Duration(rt.cfg.APIBackpressureWaitMS) * time.Millisecond
		handler = backpressureMiddleware(handler, rt.cfg.APIMaxInFlight, wait, rt.backpressureRejected)
	}
	if rt.cfg.APIRateLimitRPS > 0 {
		burst := rt.cfg.APIRateLimitBurst
		if burst < 1 {
			burst = 1
		}
		limiter := rate.NewLimiter(rate.Limit(rt.cfg.APIRateLimitRPS), burst)
		handler = rateLimitMiddleware(handler, limiter, rt.rateLimitRejected)
	}
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(serviceName, handler)
	}
	return requestIDMiddleware(accessLogMiddleware(handler))
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) createBatch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	batch, err := rt.ingest.CreateBatch(r.Context())
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, batch)
}

// batchRoutes dispatches /v1/batches/{id} and its subresources. The contract
// middleware has already rejected paths outside the published surface.
func (rt *Router) batchRoutes(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.TrimPrefix(r.URL.Path, "/v1/batches/"), "/")
	batchID := parts[0]
	if batchID == "" {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "batch id is required"})
		return
	}

	switch {
	case len(parts) == 1:
		rt.getBatch(w, r, batchID)
	case len(parts) == 2 && parts[1] == "receipts":
		rt.batchReceipts(w, r, batchID)
	case len(parts) == 2 && parts[1] == "process":
		rt.processBatch(w, r, batchID)
	case len(parts) == 2 && parts[1] == "report.xlsx":
		rt.downloadReport(w, r, batchID)
	default:
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown route"})
	}
}

func (rt *Router) getBatch(w http.ResponseWriter, r *http.Request, batchID string) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	batch, err := rt.reader.GetBatchByID(r.Context(), batchID)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, batch)
}

func (rt *Router) batchReceipts(w http.ResponseWriter, r *http.Request, batchID string) {
	switch r.Method {
	case http.MethodPost:
		rt.uploadReceipt(w, r, batchID)
	case http.MethodGet:
		rt.listReceipts(w, r, batchID)
	default:
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
	}
}

func (rt *Router) uploadReceipt(w http.ResponseWriter, r *http.Request, batchID string) {
	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "multipart field 'file' is required"})
		return
	}
	defer file.Close()

	receipt, err := rt.ingest.Upload(
		r.Context(),
		batchID,
		fileHeader.Filename,
		fileHeader.Header.Get("Content-Type"),
		file,
	)
	if err != nil {
		if rt.metrics != nil {
			rt.metrics.RecordUpload(serviceName, "rejected", fileHeader.Size)
		}
		rt.writeError(w, r, err)
		return
	}

	if rt.metrics != nil {
		rt.metrics.RecordUpload(serviceName, "accepted", fileHeader.Size)
	}
	writeJSON(w, http.StatusAccepted, receipt)
}

func (rt *Router) listReceipts(w http.ResponseWriter, r *http.Request, batchID string) {
	receipts, err := rt.reader.ListByBatch(r.Context(), batchID)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	if receipts == nil {
		receipts = []domain.Receipt{}
	}
	writeJSON(w, http.StatusOK, receipts)
}

func (rt *Router) processBatch(w http.ResponseWriter, r *http.Request, batchID string) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	batch, err := rt.sched.RequestRun(r.Context(), batchID)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}

	if rt.metrics != nil {
		rt.metrics.RecordBatchRunRequested(serviceName)
	}
	writeJSON(w, http.StatusAccepted, batch)
}

func (rt *Router) downloadReport(w http.ResponseWriter, r *http.Request, batchID string) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	report, err := rt.reports.BuildBatchReport(r.Context(), batchID)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}

	if rt.metrics != nil {
		rt.metrics.RecordReportDownload(serviceName, "xlsx")
	}
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", batchID+"-report.xlsx"))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(report)
}

func (rt *Router) getReceipt(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/v1/receipts/")
	if id == "" || strings.Contains(id, "/") {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown route"})
		return
	}

	receipt, err := rt.reader.GetByID(r.Context(), id)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, receipt)
}

func (rt *Router) backpressureRejected() {
	if rt.metrics != nil {
		rt.metrics.RecordBackpressureRejection(serviceName)
	}
}

func (rt *Router) rateLimitRejected() {
	if rt.metrics != nil {
		rt.metrics.RecordRateLimitRejection(serviceName)
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
