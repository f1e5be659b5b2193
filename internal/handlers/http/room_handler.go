package http

import (
	"net/http"

	"watchparty/internal/core/domain"
	"watchparty/internal/core/ports"

	"github.com/gin-gonic/gin"
)

// RoomHandler is the thin REST boundary over the room lifecycle service.
// It binds raw input and shapes responses; validation and permission
// decisions all live in the core.
type RoomHandler struct {
	rooms    ports.RoomService
	channels ports.ChannelService
}

func NewRoomHandler(rooms ports.RoomService, channels ports.ChannelService) *RoomHandler {
	return &RoomHandler{rooms: rooms, channels: channels}
}

func (h *RoomHandler) SetupRoutes(router *gin.Engine) {
	api := router.Group("/api/v1")
	{
		api.POST("/rooms", h.CreateRoom)
		api.GET("/rooms", h.ListRooms)
		api.GET("/rooms/:id", h.GetRoom)
		api.POST("/rooms/:id/verify-password", h.VerifyPassword)
		api.POST("/rooms/:id/join", h.JoinRoom)
		api.POST("/rooms/:id/leave", h.LeaveRoom)
		api.POST("/rooms/:id/dissolve", h.DissolveRoom)
		api.PATCH("/rooms/:id", h.UpdateRoom)
		api.POST("/rooms/:id/video", h.UpdateVideo)
		api.POST("/rooms/:id/channel", h.JoinChannel)
		api.POST("/rooms/:id/messages", h.PostMessage)
		api.GET("/stats", h.Stats)
	}
}

func (h *RoomHandler) CreateRoom(c *gin.Context) {
	var req struct {
		Name            string `json:"name"`
		Capacity        *int   `json:"capacity"`
		Password        string `json:"password"`
		Announcement    string `json:"announcement"`
		CreatorNickname string `json:"creator_nickname"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "MALFORMED_BODY", "message": err.Error()})
		return
	}

	result, err := h.rooms.CreateRoom(c.Request.Context(), ports.CreateRoomParams{
		Name:            req.Name,
		Capacity:        req.Capacity,
		Password:        req.Password,
		Announcement:    req.Announcement,
		CreatorNickname: req.CreatorNickname,
	})
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h *RoomHandler) ListRooms(c *gin.Context) {
	var query struct {
		Keyword  string `form:"keyword"`
		Status   string `form:"status"`
		Page     int    `form:"page"`
		PageSize int    `form:"page_size"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "MALFORMED_QUERY", "message": err.Error()})
		return
	}

	result, err := h.rooms.ListRooms(c.Request.Context(), ports.ListRoomsParams{
		Keyword:  query.Keyword,
		Status:   query.Status,
		Page:     query.Page,
		PageSize: query.PageSize,
	})
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *RoomHandler) GetRoom(c *gin.Context) {
	view, err := h.rooms.GetRoom(c.Request.Context(), domain.RoomID(c.Param("id")))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"room": view})
}

func (h *RoomHandler) VerifyPassword(c *gin.Context) {
	var req struct {
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "MALFORMED_BODY", "message": err.Error()})
		return
	}

	ok, err := h.rooms.VerifyPassword(c.Request.Context(), domain.RoomID(c.Param("id")), req.Password)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"valid": ok})
}

func (h *RoomHandler) JoinRoom(c *gin.Context) {
	var req struct {
		Nickname string `json:"nickname"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "MALFORMED_BODY", "message": err.Error()})
		return
	}

	result, err := h.rooms.JoinRoom(c.Request.Context(), domain.RoomID(c.Param("id")), req.Nickname, req.Password)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *RoomHandler) LeaveRoom(c *gin.Context) {
	var req struct {
		ParticipantID string `json:"participant_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "MALFORMED_BODY", "message": err.Error()})
		return
	}

	removed, err := h.rooms.LeaveRoom(c.Request.Context(), domain.RoomID(c.Param("id")), domain.ParticipantID(req.ParticipantID))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"left": removed})
}

func (h *RoomHandler) DissolveRoom(c *gin.Context) {
	var req struct {
		OperatorID string `json:"operator_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "MALFORMED_BODY", "message": err.Error()})
		return
	}

	dissolved, err := h.rooms.DissolveRoom(c.Request.Context(), domain.RoomID(c.Param("id")), domain.ParticipantID(req.OperatorID))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"dissolved": dissolved})
}

func (h *RoomHandler) UpdateRoom(c *gin.Context) {
	var req struct {
		OperatorID   string  `json:"operator_id"`
		Name         *string `json:"name"`
		Capacity     *int    `json:"capacity"`
		Password     *string `json:"password"`
		Announcement *string `json:"announcement"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "MALFORMED_BODY", "message": err.Error()})
		return
	}

	view, err := h.rooms.UpdateRoom(c.Request.Context(), domain.RoomID(c.Param("id")), domain.ParticipantID(req.OperatorID), ports.UpdateRoomParams{
		Name:         req.Name,
		Capacity:     req.Capacity,
		Password:     req.Password,
		Announcement: req.Announcement,
	})
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"room": view})
}

func (h *RoomHandler) UpdateVideo(c *gin.Context) {
	var req struct {
		OperatorID   string   `json:"operator_id"`
		Source       *string  `json:"source"`
		Status       *string  `json:"status"`
		Progress     *float64 `json:"progress"`
		PlaybackRate *float64 `json:"playback_rate"`
		SubtitleRef  *string  `json:"subtitle_ref"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "MALFORMED_BODY", "message": err.Error()})
		return
	}

	video, err := h.rooms.UpdateVideo(c.Request.Context(), domain.RoomID(c.Param("id")), domain.ParticipantID(req.OperatorID), ports.VideoUpdateParams{
		Source:       req.Source,
		Status:       req.Status,
		Progress:     req.Progress,
		PlaybackRate: req.PlaybackRate,
		SubtitleRef:  req.SubtitleRef,
	})
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"video": video})
}

func (h *RoomHandler) JoinChannel(c *gin.Context) {
	var req struct {
		ParticipantID string `json:"participant_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "MALFORMED_BODY", "message": err.Error()})
		return
	}

	token, err := h.channels.JoinChannel(c.Request.Context(), domain.RoomID(c.Param("id")), domain.ParticipantID(req.ParticipantID))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"channel_token": token})
}

func (h *RoomHandler) PostMessage(c *gin.Context) {
	var req struct {
		ParticipantID string `json:"participant_id"`
		Content       string `json:"content"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "MALFORMED_BODY", "message": err.Error()})
		return
	}

	message, err := h.channels.PostMessage(c.Request.Context(), domain.RoomID(c.Param("id")), domain.ParticipantID(req.ParticipantID), req.Content)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": message})
}

func (h *RoomHandler) Stats(c *gin.Context) {
	stats, err := h.rooms.Stats(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
