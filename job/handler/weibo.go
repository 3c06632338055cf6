// Package handler provides the HTTP endpoints of the weibo jobs.
package handler

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/ncobase/weibo-agent/config"
	"github.com/ncobase/weibo-agent/ecode"
	"github.com/ncobase/weibo-agent/job"
	"github.com/ncobase/weibo-agent/job/structs"
	"github.com/ncobase/weibo-agent/logging/logger"
	"github.com/ncobase/weibo-agent/net/resp"
	weibo "github.com/ncobase/weibo-agent/weibo/structs"
)

// TaskResponse acknowledges a submitted job.
type TaskResponse struct {
	TaskID  string        `json:"task_id"`
	Status  structs.State `json:"status"`
	Message string        `json:"message"`
}

// LoginRequest starts a login. Credentials are only used by password login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AnalyzeRequest selects the posts to analyze.
type AnalyzeRequest struct {
	TimeRange *weibo.TimeRange `json:"time_range"`
	Keywords  []string         `json:"keywords"`
	MaxPosts  *int             `json:"max_posts" binding:"omitempty,min=1,max=1000"`
}

// DeleteRequest lists the posts to delete. Confirm must be set.
type DeleteRequest struct {
	PostIDs []string `json:"post_ids" binding:"required,min=1,dive,required"`
	Confirm bool     `json:"confirm"`
}

// WeiboHandler handles weibo job requests.
type WeiboHandler struct {
	manager *job.Manager
	cfg     *config.Weibo
}

// NewWeiboHandler creates a new weibo handler.
func NewWeiboHandler(mgr *job.Manager, cfg *config.Weibo) *WeiboHandler {
	return &WeiboHandler{
		manager: mgr,
		cfg:     cfg,
	}
}

// Register mounts the routes on r.
func (h *WeiboHandler) Register(r gin.IRouter) {
	g := r.Group("/weibo")
	g.POST("/login", h.Login)
	g.POST("/login/password", h.LoginPassword)
	g.GET("/login/qr-status/:task_id", h.QRStatus)
	g.POST("/analyze", h.Analyze)
	g.POST("/delete", h.Delete)
	g.GET("/tasks", h.ListTasks)
	g.GET("/task/:task_id", h.TaskStatus)
	g.DELETE("/task/:task_id", h.CancelTask)
	g.GET("/stats", h.Stats)
}

// Login starts a QR code login.
func (h *WeiboHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		resp.Fail(c.Writer, resp.BadRequest(err.Error()))
		return
	}

	h.submit(c, structs.KindLogin, structs.LoginPayload{Username: req.Username},
		"qr login task created, scan the qr code with the weibo app")
}

// LoginPassword starts a password login.
func (h *WeiboHandler) LoginPassword(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		resp.Fail(c.Writer, resp.BadRequest(err.Error()))
		return
	}
	if strings.TrimSpace(req.Username) == "" || req.Password == "" {
		resp.Fail(c.Writer, resp.BadRequest(ecode.FieldIsRequired("username and password")))
		return
	}

	h.submit(c, structs.KindLogin, structs.LoginPayload{
		Username:    req.Username,
		Password:    req.Password,
		UsePassword: true,
	}, "password login task created")
}

// QRStatus reports the QR login state of a login task.
func (h *WeiboHandler) QRStatus(c *gin.Context) {
	v, err := h.manager.QRStatus(c.Request.Context(), c.Param("task_id"))
	if err != nil {
		h.fail(c, "failed to check qr login status", err)
		return
	}
	resp.Success(c.Writer, v)
}

// Analyze starts a content analysis.
func (h *WeiboHandler) Analyze(c *gin.Context) {
	var req AnalyzeRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		resp.Fail(c.Writer, resp.BadRequest(err.Error()))
		return
	}

	criteria := weibo.Criteria{
		TimeRange: req.TimeRange,
		Keywords:  req.Keywords,
		MaxPosts:  100,
	}
	if req.MaxPosts != nil {
		criteria.MaxPosts = *req.MaxPosts
	}

	h.submit(c, structs.KindAnalyze, structs.AnalyzePayload{Criteria: criteria}, "analysis task created")
}

// Delete starts a batch deletion.
func (h *WeiboHandler) Delete(c *gin.Context) {
	var req DeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		resp.Fail(c.Writer, resp.BadRequest(err.Error()))
		return
	}
	if !req.Confirm {
		resp.Fail(c.Writer, resp.WithCode(ecode.ConfirmRequired))
		return
	}
	if limit := h.cfg.MaxDeletePerHour; len(req.PostIDs) > limit {
		resp.Fail(c.Writer, resp.WithCode(ecode.BatchTooLarge, ecode.ExceedsLimit("post_ids", limit)))
		return
	}

	h.submit(c, structs.KindDelete, structs.DeletePayload{PostIDs: req.PostIDs},
		fmt.Sprintf("delete task created for %d posts", len(req.PostIDs)))
}

// ListTasks lists every known task.
func (h *WeiboHandler) ListTasks(c *gin.Context) {
	jobs, err := h.manager.List(c.Request.Context())
	if err != nil {
		h.fail(c, "failed to list tasks", err)
		return
	}
	views := make([]*structs.StatusView, 0, len(jobs))
	for _, j := range jobs {
		views = append(views, job.View(j))
	}
	resp.Success(c.Writer, views)
}

// TaskStatus reports the state of a task.
func (h *WeiboHandler) TaskStatus(c *gin.Context) {
	v, err := h.manager.Status(c.Request.Context(), c.Param("task_id"))
	if err != nil {
		h.fail(c, "failed to get task status", err)
		return
	}
	resp.Success(c.Writer, v)
}

// CancelTask revokes a task.
func (h *WeiboHandler) CancelTask(c *gin.Context) {
	id := c.Param("task_id")
	if err := h.manager.Cancel(c.Request.Context(), id); err != nil {
		h.fail(c, "failed to cancel task", err)
		return
	}
	resp.Success(c.Writer, map[string]any{
		"success": true,
		"message": fmt.Sprintf("task %s cancelled", id),
		"task_id": id,
	})
}

// Stats reports queue counters and deletion limits.
func (h *WeiboHandler) Stats(c *gin.Context) {
	s, err := h.manager.Stats(c.Request.Context())
	if err != nil {
		h.fail(c, "failed to get stats", err)
		return
	}
	s.MaxDeletePerHour = h.cfg.MaxDeletePerHour
	s.OperationDelayRange = fmt.Sprintf("%g-%g seconds",
		h.cfg.OperationDelayMin.Seconds(), h.cfg.OperationDelayMax.Seconds())
	resp.Success(c.Writer, s)
}

func (h *WeiboHandler) submit(c *gin.Context, kind structs.Kind, payload any, message string) {
	j, err := h.manager.Submit(c.Request.Context(), kind, payload)
	if err != nil {
		h.fail(c, fmt.Sprintf("failed to create %s task", kind), err)
		return
	}
	resp.Success(c.Writer, &TaskResponse{TaskID: j.ID, Status: j.State, Message: message})
}

func (h *WeiboHandler) fail(c *gin.Context, message string, err error) {
	if errors.Is(err, job.ErrJobNotFound) {
		resp.Fail(c.Writer, resp.NotFound("task not found"))
		return
	}
	if errors.Is(err, job.ErrQueueUnavailable) {
		logger.Warn(c.Request.Context(), message, "error", err)
		resp.Fail(c.Writer, resp.WithCode(ecode.QueueUnavailable, fmt.Sprintf("%s: %v", message, err)))
		return
	}
	logger.Error(c.Request.Context(), message, "error", err)
	resp.Fail(c.Writer, resp.InternalServer(fmt.Sprintf("%s: %v", message, err)))
}

// bindOptionalJSON binds the body when there is one.
func bindOptionalJSON(c *gin.Context, v any) error {
	if c.Request.ContentLength == 0 {
		return nil
	}
	return c.ShouldBindJSON(v)
}
