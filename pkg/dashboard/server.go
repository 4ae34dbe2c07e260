package dashboard

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"math/rand"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Masterminds/sprig"
	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/gocarina/gocsv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"github.com/iwatch-health/health-pipeline/pkg/healthdata"
	"github.com/iwatch-health/health-pipeline/pkg/util/chiprometheus"
)

const APIV1MetricsEndpointPrefix = "/api/v1/metrics"

var prometheusMiddleware = chiprometheus.NewMiddleware("health-dashboard")

//go:embed templates/*.html
var templateFS embed.FS

var dashboardTemplate = template.Must(
	template.New("dashboard.html").
		Funcs(sprig.FuncMap()).
		Funcs(template.FuncMap{
			"fmtFloat": func(precision int, v float64) string { return strconv.FormatFloat(v, 'f', precision, 64) },
			"fmtDate":  func(t time.Time) string { return t.Format("2006-01-02") },
			"percent":  percent,
		}).
		ParseFS(templateFS, "templates/dashboard.html"),
)

type server struct {
	logger log.FieldLogger
	rand   *lockedRand
	cache  *Cache
}

type requestLogger struct {
	log.FieldLogger
}

func (l *requestLogger) Print(v ...interface{}) {
	l.FieldLogger.Info(v...)
}

// NewRouter returns the dashboard's HTTP handler.
func NewRouter(logger log.FieldLogger, rand *rand.Rand, cache *Cache) chi.Router {
	router := chi.NewRouter()
	logger = logger.WithField("component", "api")
	requestLogger := middleware.RequestLogger(&middleware.DefaultLogFormatter{Logger: &requestLogger{logger}})
	router.Use(requestLogger)
	router.Use(prometheusMiddleware)

	srv := &server{
		logger: logger,
		rand:   &lockedRand{rand: rand},
		cache:  cache,
	}

	router.Get("/", srv.dashboardHandler)
	router.Get(APIV1MetricsEndpointPrefix+"/{metric}", srv.metricHandler)
	router.Method(http.MethodGet, "/metrics", promhttp.Handler())
	router.Get("/healthz", srv.healthzHandler)
	return router
}

// parseSelection reads the optional year and month query parameters. Zero
// means unset.
func parseSelection(r *http.Request) (int, time.Month, error) {
	var year, month int
	var err error
	if v := r.URL.Query().Get("year"); v != "" {
		year, err = strconv.Atoi(v)
		if err != nil || year <= 0 {
			return 0, 0, fmt.Errorf("invalid year: %q", v)
		}
	}
	if v := r.URL.Query().Get("month"); v != "" {
		month, err = strconv.Atoi(v)
		if err != nil || month < 1 || month > 12 {
			return 0, 0, fmt.Errorf("invalid month: %q, must be between 1 and 12", v)
		}
	}
	return year, time.Month(month), nil
}

func (srv *server) dashboardHandler(w http.ResponseWriter, r *http.Request) {
	logger := newRequestLogger(srv.logger, r, srv.rand)
	year, month, err := parseSelection(r)
	if err != nil {
		writeErrorResponse(logger, w, r, http.StatusBadRequest, "%v", err)
		return
	}
	datasets, err := srv.cache.Datasets(r.Context())
	if err != nil {
		writeErrorResponse(logger, w, r, http.StatusInternalServerError, "failed to load datasets: %v", err)
		return
	}

	report := NewReport(datasets, year, month)
	var buf bytes.Buffer
	if err := dashboardTemplate.Execute(&buf, report); err != nil {
		writeErrorResponse(logger, w, r, http.StatusInternalServerError, "failed to render dashboard: %v", err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		logger.WithError(err).Error("failed writing HTTP response")
	}
}

type metricRow struct {
	CreatedAt string  `json:"created_at" csv:"created_at"`
	Value     float64 `json:"value" csv:"value"`
	Year      int     `json:"year" csv:"year"`
	Month     int     `json:"month" csv:"month"`
	Day       int     `json:"day" csv:"day"`
}

type metricResponse struct {
	Metric      healthdata.Metric `json:"metric"`
	ValueColumn string            `json:"valueColumn"`
	Unit        string            `json:"unit"`
	Year        int               `json:"year"`
	Month       int               `json:"month"`
	Rows        []*metricRow      `json:"rows"`
}

func (srv *server) metricHandler(w http.ResponseWriter, r *http.Request) {
	logger := newRequestLogger(srv.logger, r, srv.rand)
	metric, err := healthdata.ParseMetric(chi.URLParam(r, "metric"))
	if err != nil {
		writeErrorResponse(logger, w, r, http.StatusNotFound, "%v", err)
		return
	}
	def, _ := healthdata.Lookup(metric)

	format := strings.ToLower(r.URL.Query().Get("format"))
	if format == "" {
		format = "json"
	}
	if format != "json" && format != "csv" {
		writeErrorResponse(logger, w, r, http.StatusBadRequest, "format must be one of: csv or json")
		return
	}
	year, month, err := parseSelection(r)
	if err != nil {
		writeErrorResponse(logger, w, r, http.StatusBadRequest, "%v", err)
		return
	}

	datasets, err := srv.cache.Datasets(r.Context())
	if err != nil {
		writeErrorResponse(logger, w, r, http.StatusInternalServerError, "failed to load datasets: %v", err)
		return
	}
	sel := Select(datasets, year, month)

	rows := []*metricRow{}
	for _, v := range Filter(datasets[metric], sel.Year, sel.Month) {
		rows = append(rows, &metricRow{
			CreatedAt: v.Date.Format("2006-01-02"),
			Value:     v.Value,
			Year:      v.Year(),
			Month:     int(v.Month()),
			Day:       v.Day(),
		})
	}

	if format == "csv" {
		var buf bytes.Buffer
		if err := gocsv.Marshal(rows, &buf); err != nil {
			writeErrorResponse(logger, w, r, http.StatusInternalServerError, "failed to encode csv: %v", err)
			return
		}
		w.Header().Set("Content-Type", "text/csv")
		w.WriteHeader(http.StatusOK)
		if _, err := buf.WriteTo(w); err != nil {
			logger.WithError(err).Error("failed writing HTTP response")
		}
		return
	}

	writeResponseAsJSON(logger, w, http.StatusOK, metricResponse{
		Metric:      metric,
		ValueColumn: def.ValueColumn,
		Unit:        def.Unit,
		Year:        sel.Year,
		Month:       int(sel.Month),
		Rows:        rows,
	})
}

func (srv *server) healthzHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok\n"))
}

func percent(part, total int) int {
	if total == 0 {
		return 0
	}
	return part * 100 / total
}

// Serve runs handler on addr until ctx is cancelled, then shuts the server
// down gracefully.
func Serve(ctx context.Context, logger log.FieldLogger, addr string, handler http.Handler, shutdownTimeout time.Duration) error {
	httpServer := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("HTTP server listening on %s", addr)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Infof("shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != http.ErrServerClosed {
		return err
	}
	return nil
}
