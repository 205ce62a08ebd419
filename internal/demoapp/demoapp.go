// Package demoapp is a small gin application for exercising the harness
// against a real browser: a login form, a dashboard that can log console
// errors or throw, and a drop zone. Request counts are exported at /metrics.
package demoapp

import (
	"embed"
	"html/template"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gotrs-io/pwharness/internal/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Password accepted for every user.
const Password = "secret"

// Roles offered by the login form. The last ones are loaded after the page.
var (
	InitialRoles = []string{"Agent", "Customer"}
	Roles        = []string{"Agent", "Customer", "Admin"}
)

//go:embed templates/*.html
var templates embed.FS

type options struct {
	log        *zap.Logger
	rolesDelay time.Duration
}

type Option func(*options)

func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.log = l }
}

// WithRolesDelay sets how long the login page waits before loading the late roles.
func WithRolesDelay(d time.Duration) Option {
	return func(o *options) { o.rolesDelay = d }
}

// New builds the router.
func New(opts ...Option) *gin.Engine {
	o := options{rolesDelay: 300 * time.Millisecond}
	for _, opt := range opts {
		opt(&o)
	}
	log := logging.OrNop(o.log).Named("demoapp")

	reg := prometheus.NewRegistry()
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "demoapp_requests_total",
		Help: "Requests served by the demo app",
	}, []string{"method", "route", "status"})
	reg.MustRegister(requests)

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(log, requests))
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
	r.SetHTMLTemplate(template.Must(template.ParseFS(templates, "templates/*.html")))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "service": "pwharness-demo"})
	})
	r.GET("/api/roles", func(c *gin.Context) {
		c.JSON(http.StatusOK, Roles)
	})

	login := func(c *gin.Context, status int, username, msg string) {
		c.HTML(status, "login.html", gin.H{
			"Username":   username,
			"Error":      msg,
			"RolesDelay": o.rolesDelay.Milliseconds(),
		})
	}
	r.GET("/", func(c *gin.Context) {
		login(c, http.StatusOK, "", "")
	})
	r.POST("/login", func(c *gin.Context) {
		username := c.PostForm("username")
		switch {
		case username == "":
			login(c, http.StatusUnprocessableEntity, "", "Username is required")
			return
		case c.PostForm("password") != Password:
			login(c, http.StatusUnauthorized, username, "Invalid username or password")
			return
		}
		q := url.Values{"user": {username}, "role": {c.DefaultPostForm("role", "Agent")}}
		c.Redirect(http.StatusSeeOther, "/dashboard?"+q.Encode())
	})
	r.GET("/dashboard", func(c *gin.Context) {
		user := c.Query("user")
		if user == "" {
			c.Redirect(http.StatusSeeOther, "/")
			return
		}
		c.HTML(http.StatusOK, "dashboard.html", gin.H{
			"User": user,
			"Role": c.DefaultQuery("role", "Agent"),
		})
	})
	return r
}

func requestLogger(log *zap.Logger, requests *prometheus.CounterVec) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		requests.WithLabelValues(c.Request.Method, c.FullPath(), strconv.Itoa(c.Writer.Status())).Inc()
		log.Debug("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}
