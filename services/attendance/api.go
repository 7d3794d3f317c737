package attendance

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"misattend/lib/attendstore"
	"misattend/lib/scrapers/mis"
	"misattend/lib/serviceutil"
	"misattend/lib/sink"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

const defaultHistoryLimit = 30

type ApiConfig struct {
	// AccessToken enables bearer token authentication when set.
	AccessToken string
	// ScrapesPerMinute bounds POST /scrape, defaults to 2.
	ScrapesPerMinute float64
}

// Handler exposes the service over http, every response is a sink.Envelope.
type Handler struct {
	service     *Service
	limiter     *rate.Limiter
	accessToken string
}

func NewHandler(service *Service, config ApiConfig) Handler {
	perMinute := config.ScrapesPerMinute
	if perMinute <= 0 {
		perMinute = 2
	}
	return Handler{
		service:     service,
		limiter:     rate.NewLimiter(rate.Limit(perMinute/60), 1),
		accessToken: config.AccessToken,
	}
}

// Router builds the gin engine, /healthz is never authenticated.
func (h Handler) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/")
	api.Use(serviceutil.VerifyAccessToken(h.accessToken))
	h.RegisterRoutes(api)

	return router
}

func (h Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/scrape", h.scrape)
	rg.GET("/attendance", h.latest)
	rg.GET("/history", h.history)
	rg.GET("/history/:subject", h.subject)
}

// statusFor maps a failure onto the status code returned to api clients.
func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrHistoryDisabled):
		return http.StatusNotImplemented
	case errors.Is(err, attendstore.ErrNoSnapshots), errors.Is(err, ErrUnknownSubject):
		return http.StatusNotFound
	case errors.Is(err, mis.ErrNavigationTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, mis.ErrAuthenticationFailed), errors.Is(err, mis.ErrTableNotFound):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func fail(c *gin.Context, err error) {
	c.JSON(statusFor(err), sink.Fail(err))
}

func (h Handler) scrape(c *gin.Context) {
	if !h.limiter.Allow() {
		c.JSON(http.StatusTooManyRequests, sink.Fail(errors.New("too many scrape requests, try again later")))
		return
	}

	result, err := h.service.Run(c.Request.Context())
	if err != nil && result.Report == nil {
		fail(c, err)
		return
	}
	envelope := sink.OK(result)
	if err != nil {
		// the report is complete, only delivery failed
		envelope.Error = err.Error()
	}
	c.JSON(http.StatusOK, envelope)
}

func (h Handler) latest(c *gin.Context) {
	snapshot, err := h.service.Latest(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, sink.OK(snapshot))
}

func (h Handler) history(c *gin.Context) {
	limit := parseInt(c.Query("limit"), defaultHistoryLimit)
	snapshots, err := h.service.History(c.Request.Context(), limit)
	if err != nil {
		fail(c, err)
		return
	}
	if snapshots == nil {
		snapshots = []attendstore.Snapshot{}
	}
	c.JSON(http.StatusOK, sink.OK(snapshots))
}

func (h Handler) subject(c *gin.Context) {
	series, err := h.service.SubjectSeries(c.Request.Context(), c.Param("subject"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, sink.OK(series))
}

func parseInt(s string, def int) int {
	if strings.TrimSpace(s) == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return def
	}
	return n
}
