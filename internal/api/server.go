// Package api exposes registry lookups over HTTP.
//
//	GET /healthz
//	GET /companies?name=&city=
//	GET /companies/:id
//	GET /companies/:id/legal-form
//	GET /companies/:id/tax-id
//	GET /companies/:id/officers
//
// Lookup errors map to 400 (invalid input), 404 (not found) and 503 (source
// unavailable).
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"ares/internal/ares"
	"ares/internal/justice"
	"ares/internal/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Lookup is the part of *ares.Client the API serves.
type Lookup interface {
	FindByID(ctx context.Context, id string) (ares.Record, error)
	FindLegalFormByID(ctx context.Context, id string) (ares.Record, error)
	FindTaxIDByID(ctx context.Context, id string) (string, error)
	FindByName(ctx context.Context, name, city string) (ares.Records, error)
	Officers(ctx context.Context, companyID string) (*justice.OfficerSet, bool, error)
}

// Server routes HTTP requests to a Lookup.
type Server struct {
	lookup Lookup
	log    *zap.Logger
	engine *gin.Engine
}

type errorBody struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

type taxIDBody struct {
	CompanyID string `json:"company_id"`
	TaxID     string `json:"tax_id"`
}

type officersBody struct {
	CompanyID string              `json:"company_id"`
	Officers  *justice.OfficerSet `json:"officers"`
}

// New builds the router. Gin's mode is left to the caller.
func New(lookup Lookup, log *zap.Logger) *Server {
	log = logger.OrNop(log).Named("api")
	s := &Server{lookup: lookup, log: log}

	r := gin.New()
	r.Use(requestID(), requestLogger(log), recovery(log))

	r.GET("/healthz", s.health)
	r.GET("/companies", s.search)
	r.GET("/companies/:id", s.company)
	r.GET("/companies/:id/legal-form", s.legalForm)
	r.GET("/companies/:id/tax-id", s.taxID)
	r.GET("/companies/:id/officers", s.officers)

	s.engine = r
	return s
}

// Handler returns the router as an http.Handler.
func (s *Server) Handler() http.Handler { return s.engine }

// Run serves on addr until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	s.log.Info("listening", zap.String("addr", addr))

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) search(c *gin.Context) {
	recs, err := s.lookup.FindByName(c.Request.Context(), c.Query("name"), c.Query("city"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, recs)
}

func (s *Server) company(c *gin.Context) {
	rec, err := s.lookup.FindByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (s *Server) legalForm(c *gin.Context) {
	rec, err := s.lookup.FindLegalFormByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (s *Server) taxID(c *gin.Context) {
	id := c.Param("id")
	taxID, err := s.lookup.FindTaxIDByID(c.Request.Context(), id)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, taxIDBody{CompanyID: id, TaxID: taxID})
}

func (s *Server) officers(c *gin.Context) {
	id := c.Param("id")
	set, found, err := s.lookup.Officers(c.Request.Context(), id)
	if err != nil {
		s.fail(c, err)
		return
	}
	if !found {
		c.JSON(http.StatusNotFound, errorBody{Error: "no court registry extract for " + id, Kind: ares.NotFound.String()})
		return
	}
	c.JSON(http.StatusOK, officersBody{CompanyID: id, Officers: set})
}

// fail writes err with the status of its kind.
func (s *Server) fail(c *gin.Context, err error) {
	_ = c.Error(err)

	kind := ares.KindOf(err)
	body := errorBody{Error: err.Error()}
	if kind != 0 {
		body.Kind = kind.String()
	}
	c.JSON(statusFor(kind), body)
}

func statusFor(kind ares.Kind) int {
	switch kind {
	case ares.InvalidInput:
		return http.StatusBadRequest
	case ares.NotFound:
		return http.StatusNotFound
	case ares.SourceUnavailable:
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}
