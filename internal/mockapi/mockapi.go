// Package mockapi serves a local stand-in for the hosted JSON fixture the
// remote backend talks to. Like the hosted service, writes are answered as if
// they succeeded but the fixture itself never changes.
package mockapi

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"portfolio-cli/internal/model"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type record struct {
	ID          int         `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	URL         string      `json:"url"`
	Cover       model.Cover `json:"cover"`
}

type body struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	URL         string      `json:"url"`
	Cover       model.Cover `json:"cover"`
}

type Server struct {
	fixture []record
	log     *zap.Logger
}

// New builds a server over fixture. Ids are assigned from 0 in order, so
// the id of a record equals its position.
func New(fixture []model.Project, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	recs := make([]record, 0, len(fixture))
	for i, p := range fixture {
		recs = append(recs, record{ID: i, Name: p.Name, Description: p.Description, URL: p.URL, Cover: p.Cover})
	}
	return &Server{fixture: recs, log: log}
}

// Register attaches the routes under rg (normally /projects).
func (s *Server) Register(rg *gin.RouterGroup) {
	rg.GET("", s.list)
	rg.POST("", s.create)
	rg.GET("/:id", s.get)
	rg.PUT("/:id", s.replace)
	rg.DELETE("/:id", s.delete)
}

func (s *Server) Handler() http.Handler {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(s.log))
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true, "projects": len(s.fixture)})
	})
	s.Register(r.Group("/projects"))
	return r
}

func (s *Server) list(c *gin.Context) {
	c.JSON(http.StatusOK, s.fixture)
}

func (s *Server) get(c *gin.Context) {
	rec, ok := s.lookup(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (s *Server) create(c *gin.Context) {
	var req body
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	c.JSON(http.StatusCreated, req.record(s.nextID()))
}

func (s *Server) replace(c *gin.Context) {
	rec, ok := s.lookup(c)
	if !ok {
		return
	}
	var req body
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	c.JSON(http.StatusOK, req.record(rec.ID))
}

func (s *Server) delete(c *gin.Context) {
	if _, ok := s.lookup(c); !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{})
}

func (s *Server) lookup(c *gin.Context) (record, bool) {
	id, err := strconv.Atoi(strings.TrimSpace(c.Param("id")))
	if err == nil {
		for _, r := range s.fixture {
			if r.ID == id {
				return r, true
			}
		}
	}
	c.JSON(http.StatusNotFound, gin.H{})
	return record{}, false
}

func (s *Server) nextID() int {
	next := 0
	for _, r := range s.fixture {
		if r.ID >= next {
			next = r.ID + 1
		}
	}
	return next
}

func (b body) record(id int) record {
	return record{ID: id, Name: b.Name, Description: b.Description, URL: b.URL, Cover: b.Cover}
}

func requestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader("X-Request-Id")
		if strings.TrimSpace(rid) == "" {
			rid = uuid.NewString()
		}
		c.Writer.Header().Set("X-Request-Id", rid)

		start := time.Now()
		c.Next()

		log.Info("request",
			zap.String("id", rid),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)))
	}
}
