package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/example/studycore/internal/apperr"
	"github.com/example/studycore/internal/logger"
	"github.com/example/studycore/internal/study"
)

const (
	maxUploadSize = 5 << 20
	xlsxMIME      = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

type StudyHandler struct {
	log *logger.Logger
	svc *study.Service
}

func NewStudyHandler(log *logger.Logger, svc *study.Service) *StudyHandler {
	return &StudyHandler{log: log.With("handler", "study"), svc: svc}
}

func (h *StudyHandler) fail(c *gin.Context, err error) {
	RespondError(c, h.log, err)
}

func (h *StudyHandler) bind(c *gin.Context, v any) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		if apperr.KindOf(err) == apperr.KindInvalidInput {
			h.fail(c, err)
		} else {
			h.fail(c, apperr.InvalidInput("invalid request body: %v", err))
		}
		return false
	}
	return true
}

// GET /api/me
func (h *StudyHandler) GetMe(c *gin.Context) {
	RespondOK(c, currentUser(c))
}

// PUT /api/me/preferences
func (h *StudyHandler) UpdatePreferences(c *gin.Context) {
	var in study.PreferencesInput
	if !h.bind(c, &in) {
		return
	}
	user, err := h.svc.UpdatePreferences(c.Request.Context(), currentUser(c).ID, in)
	if err != nil {
		h.fail(c, err)
		return
	}
	RespondOK(c, user)
}

// POST /api/topics
func (h *StudyHandler) CreateTopic(c *gin.Context) {
	var in study.TopicInput
	if !h.bind(c, &in) {
		return
	}
	topic, err := h.svc.CreateTopic(c.Request.Context(), currentUser(c).ID, in)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, topic)
}

// GET /api/topics
func (h *StudyHandler) ListTopics(c *gin.Context) {
	topics, err := h.svc.ListTopics(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		h.fail(c, err)
		return
	}
	RespondOK(c, topics)
}

// GET /api/topics/:id
func (h *StudyHandler) GetTopic(c *gin.Context) {
	detail, err := h.svc.GetTopic(c.Request.Context(), currentUser(c).ID, c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	RespondOK(c, detail)
}

// DELETE /api/topics/:id
func (h *StudyHandler) DeleteTopic(c *gin.Context) {
	if err := h.svc.DeleteTopic(c.Request.Context(), currentUser(c).ID, c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	RespondOK(c, gin.H{"message": "Topic deleted"})
}

// GET /api/topics/:id/sessions
func (h *StudyHandler) ListTopicSessions(c *gin.Context) {
	sessions, err := h.svc.ListTopicSessions(c.Request.Context(), currentUser(c).ID, c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	RespondOK(c, sessions)
}

// POST /api/topics/import
func (h *StudyHandler) ImportTopics(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		h.fail(c, apperr.InvalidInput("a file upload named \"file\" is required"))
		return
	}
	if header.Size > maxUploadSize {
		h.fail(c, apperr.InvalidInput("file is larger than %d MB", maxUploadSize>>20))
		return
	}
	f, err := header.Open()
	if err != nil {
		h.fail(c, apperr.InvalidInput("could not read upload: %v", err))
		return
	}
	defer f.Close()

	result, err := h.svc.ImportTopics(c.Request.Context(), currentUser(c).ID, header.Filename, f)
	if err != nil {
		h.fail(c, err)
		return
	}
	RespondOK(c, result)
}

// GET /api/topics/export
func (h *StudyHandler) ExportHistory(c *gin.Context) {
	data, err := h.svc.ExportHistory(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		h.fail(c, err)
		return
	}
	name := fmt.Sprintf("study-history-%s.xlsx", time.Now().In(h.svc.Location()).Format("2006-01-02"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	c.Data(http.StatusOK, xlsxMIME, data)
}

// POST /api/explain
func (h *StudyHandler) RecordSession(c *gin.Context) {
	var in study.SessionInput
	if !h.bind(c, &in) {
		return
	}
	result, err := h.svc.RecordSession(c.Request.Context(), currentUser(c).ID, in)
	if err != nil {
		h.fail(c, err)
		return
	}
	RespondOK(c, result)
}

// GET /api/due-today
func (h *StudyHandler) DueToday(c *gin.Context) {
	due, err := h.svc.ResolveDue(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		h.fail(c, err)
		return
	}
	RespondOK(c, due)
}

// POST /api/schedules
func (h *StudyHandler) CreateSchedule(c *gin.Context) {
	var in study.ScheduleInput
	if !h.bind(c, &in) {
		return
	}
	result, err := h.svc.CreateOrUpdateSchedule(c.Request.Context(), currentUser(c).ID, in)
	if err != nil {
		h.fail(c, err)
		return
	}
	RespondOK(c, result)
}

// GET /api/schedules
func (h *StudyHandler) ListSchedules(c *gin.Context) {
	schedules, err := h.svc.ListSchedules(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		h.fail(c, err)
		return
	}
	RespondOK(c, schedules)
}

// GET /api/analytics/stats
func (h *StudyHandler) Stats(c *gin.Context) {
	stats, err := h.svc.Stats(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		h.fail(c, err)
		return
	}
	RespondOK(c, stats)
}

// POST /api/feedback
func (h *StudyHandler) SubmitFeedback(c *gin.Context) {
	var in study.FeedbackInput
	if !h.bind(c, &in) {
		return
	}
	var userID *string
	if user := currentUser(c); user != nil {
		userID = &user.ID
	}
	fb, err := h.svc.SubmitFeedback(c.Request.Context(), userID, in)
	if err != nil {
		h.fail(c, err)
		return
	}
	RespondOK(c, gin.H{"message": "Thank you for your feedback!", "id": fb.ID})
}
