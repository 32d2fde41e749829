package main

import (
	"fmt"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/rhyrak/go-allocate/internal/allocator"
	"github.com/rhyrak/go-allocate/internal/config"
	"github.com/rhyrak/go-allocate/internal/logging"
	"github.com/rhyrak/go-allocate/internal/metrics"
	"github.com/rhyrak/go-allocate/internal/store"
)

// server holds the dependencies shared by the handlers.
type server struct {
	cfg     *allocator.Configuration
	runs    *store.Store
	metrics *metrics.Metrics
	logger  *zap.Logger
}

func main() {
	fs := pflag.NewFlagSet("server", pflag.ExitOnError)
	config.AddFlags(fs)
	configFile := fs.String("config", "", "optional YAML config file")
	fs.Parse(os.Args[1:])

	if err := run(fs, *configFile); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(fs *pflag.FlagSet, configFile string) error {
	cfg, err := config.Load(fs, configFile)
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.Verbose, cfg.JSONLogs)
	if err != nil {
		return err
	}
	defer logger.Sync()

	runs, err := store.Open(cfg.DatabasePath)
	if err != nil {
		return err
	}
	defer runs.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m, err := metrics.New(reg)
	if err != nil {
		return err
	}

	s := &server{cfg: cfg, runs: runs, metrics: m, logger: logger}
	r := s.router()
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	logger.Info("listening", zap.String("address", cfg.ServerAddress), zap.String("database", runs.Path()))
	return r.Run(cfg.ServerAddress)
}

func (s *server) router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())

	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	r.GET("/allocation", s.handleGetAllocations)
	r.GET("/allocation/:id", s.handleGetAllocationWithId)
	r.GET("/allocation/:id/export", s.handleExportAllocationWithId)
	r.DELETE("/allocation/:id", s.handleDeleteAllocationWithId)
	r.POST("/allocation", s.handlePostAllocation)
	r.GET("/template", s.handleGetTemplate)

	return r
}

func (s *server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		s.logger.Debug("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()))
	}
}
