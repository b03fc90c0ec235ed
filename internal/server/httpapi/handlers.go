package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/dmitrijs2005/mediminder/internal/api"
	"github.com/dmitrijs2005/mediminder/internal/common"
	"github.com/dmitrijs2005/mediminder/internal/logging"
	"github.com/dmitrijs2005/mediminder/internal/server/hub"
	"github.com/dmitrijs2005/mediminder/internal/server/records"
	"github.com/dmitrijs2005/mediminder/internal/server/users"
	"github.com/gin-gonic/gin"
)

const (
	ServiceName = "MediMinder API v1"

	maxBodyBytes = 8 << 20
	writeTimeout = 5 * time.Second
)

type Handler struct {
	users   *users.Service
	records *records.Service
	hub     *hub.Hub
	origins []string
	logger  logging.Logger
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, api.HealthResponse{Status: "UP", Service: ServiceName})
}

func bindAuth(c *gin.Context) (api.AuthRequest, bool) {
	var req api.AuthRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, fmt.Errorf("%w: %v", common.ErrValidation, err))
		return req, false
	}
	return req, true
}

func (h *Handler) register(c *gin.Context) {
	req, ok := bindAuth(c)
	if !ok {
		return
	}
	resp, err := h.users.Register(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *Handler) login(c *gin.Context) {
	req, ok := bindAuth(c)
	if !ok {
		return
	}
	resp, err := h.users.Login(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) me(c *gin.Context) {
	u, err := h.users.Me(c.Request.Context(), c.GetString(ctxUserID))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

func items(list []json.RawMessage) []json.RawMessage {
	if list == nil {
		return []json.RawMessage{}
	}
	return list
}

func (h *Handler) list(segment string) gin.HandlerFunc {
	return func(c *gin.Context) {
		list, err := h.records.List(c.Request.Context(), c.GetString(ctxUserID), segment)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, items(list))
	}
}

func (h *Handler) replace(segment string) gin.HandlerFunc {
	return func(c *gin.Context) {
		body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes))
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				abort(c, http.StatusRequestEntityTooLarge, "request body too large")
				return
			}
			fail(c, fmt.Errorf("%w: %v", common.ErrValidation, err))
			return
		}
		saved, err := h.records.Replace(c.Request.Context(), c.GetString(ctxUserID), segment, body)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, items(saved))
	}
}

func (h *Handler) deleteAll(segment string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := h.records.DeleteAll(c.Request.Context(), c.GetString(ctxUserID), segment); err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, api.MessageResponse{Message: "All " + strings.ReplaceAll(segment, "-", " ") + " deleted"})
	}
}

func (h *Handler) getProfile(c *gin.Context) {
	p, err := h.records.Profile(c.Request.Context(), c.GetString(ctxUserID))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *Handler) putProfile(c *gin.Context) {
	var p api.Profile
	if err := c.ShouldBindJSON(&p); err != nil {
		fail(c, fmt.Errorf("%w: %v", common.ErrValidation, err))
		return
	}
	saved, err := h.records.PutProfile(c.Request.Context(), c.GetString(ctxUserID), p)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, saved)
}

func (h *Handler) adminUsers(c *gin.Context) {
	ps, err := h.records.AdminProfiles(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, ps)
}

func (h *Handler) adminRecords(c *gin.Context) {
	list, err := h.records.AdminRecords(c.Request.Context(), c.Param("id"), c.Param("collection"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, items(list))
}

// changes streams api.ChangeEvent values over a websocket until the client
// goes away. The optional collection query narrows the stream.
func (h *Handler) changes(c *gin.Context) {
	userID := c.GetString(ctxUserID)
	collection := ""
	if q := c.Query("collection"); q != "" {
		col, err := records.Collection(q)
		if err != nil {
			fail(c, err)
			return
		}
		collection = col
	}

	conn, err := websocket.Accept(c.Writer, c.Request, &websocket.AcceptOptions{OriginPatterns: h.origins})
	if err != nil {
		h.logger.Warn(c.Request.Context(), "websocket upgrade failed", "error", err)
		return
	}
	defer conn.CloseNow()

	events, unsubscribe := h.hub.Subscribe(userID, collection)
	defer unsubscribe()
	h.logger.Info(c.Request.Context(), "changes subscriber connected", "user_id", userID, "collection", collection)

	ctx := conn.CloseRead(c.Request.Context())
	for {
		select {
		case <-ctx.Done():
			conn.Close(websocket.StatusNormalClosure, "")
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			wctx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := wsjson.Write(wctx, conn, ev)
			cancel()
			if err != nil {
				h.logger.Warn(ctx, "changes write failed", "user_id", userID, "error", err)
				return
			}
		}
	}
}
