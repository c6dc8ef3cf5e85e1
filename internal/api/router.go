package api

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/LJTian/ycomb-poster/internal/scheduler"
	"github.com/LJTian/ycomb-poster/internal/storage"
)

// RunController 手动触发与状态查询，由 *scheduler.Runner 实现
type RunController interface {
	Run(ctx context.Context) error
	Running() bool
	LastResult() (scheduler.RunResult, bool)
}

type Server struct {
	runner  RunController
	openLog storage.Opener
}

func NewServer(runner RunController, openLog storage.Opener) *Server {
	return &Server{runner: runner, openLog: openLog}
}

func (s *Server) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", s.health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/api/v1")
	{
		v1.GET("/status", s.status)
		v1.GET("/sent", s.listSent)
		v1.POST("/run", s.triggerRun)
	}
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) status(c *gin.Context) {
	data := gin.H{"running": s.runner.Running()}
	if last, ok := s.runner.LastResult(); ok {
		data["last"] = last
	}
	c.JSON(http.StatusOK, gin.H{
		"code":    "ok",
		"message": "success",
		"data":    data,
	})
}

func (s *Server) listSent(c *gin.Context) {
	log, err := s.openLog(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    "internal_error",
			"message": err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"sent": log.Entries()})
}

// triggerRun 同步执行一轮；客户端断开不会中断已开始的推送
func (s *Server) triggerRun(c *gin.Context) {
	err := s.runner.Run(context.WithoutCancel(c.Request.Context()))
	if errors.Is(err, scheduler.ErrRunInProgress) {
		c.JSON(http.StatusConflict, gin.H{
			"code":    "conflict",
			"message": err.Error(),
		})
		return
	}

	last, _ := s.runner.LastResult()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    "run_failed",
			"message": err.Error(),
			"data":    last,
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"code":    "ok",
		"message": "success",
		"data":    last,
	})
}

// BasicAuth 为整个站点增加一个简单的 Basic Auth 访问密码。
// /health 不做认证，便于健康检查。
func BasicAuth(user, pass string) gin.HandlerFunc {
	const realm = "Restricted"
	uBytes := []byte(user)
	pBytes := []byte(pass)

	return func(c *gin.Context) {
		if c.Request.URL.Path == "/health" {
			c.Next()
			return
		}
		u, p, ok := c.Request.BasicAuth()
		if !ok ||
			subtle.ConstantTimeCompare([]byte(u), uBytes) != 1 ||
			subtle.ConstantTimeCompare([]byte(p), pBytes) != 1 {
			c.Header("WWW-Authenticate", `Basic realm="`+realm+`"`)
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		c.Next()
	}
}
