package services

import (
	"context"
	"errors"
	"sort"

	"watchparty/internal/core/domain"
	"watchparty/internal/core/ports"
	"watchparty/pkg/validation"

	"go.uber.org/zap"
)

const (
	defaultPage     = 1
	defaultPageSize = 20
)

type roomService struct {
	registry        ports.RoomRegistry
	allocator       ports.IdentifierAllocator
	broadcaster     ports.Broadcaster
	defaultCapacity int
	metrics         Metrics
	logger          *zap.SugaredLogger
}

type RoomServiceOption func(*roomService)

// WithDefaultCapacity overrides the capacity applied when a creator omits
// one.
func WithDefaultCapacity(capacity int) RoomServiceOption {
	return func(s *roomService) { s.defaultCapacity = capacity }
}

// WithMetrics attaches a metrics sink.
func WithMetrics(m Metrics) RoomServiceOption {
	return func(s *roomService) { s.metrics = m }
}

// WithBroadcaster attaches the realtime fan-out used for room lifecycle and
// playback events.
func WithBroadcaster(b ports.Broadcaster) RoomServiceOption {
	return func(s *roomService) { s.broadcaster = b }
}

func NewRoomService(registry ports.RoomRegistry, allocator ports.IdentifierAllocator, logger *zap.SugaredLogger, opts ...RoomServiceOption) ports.RoomService {
	s := &roomService{
		registry:        registry,
		allocator:       allocator,
		defaultCapacity: domain.DefaultCapacity,
		metrics:         nopMetrics{},
		logger:          logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *roomService) CreateRoom(ctx context.Context, params ports.CreateRoomParams) (*ports.CreateRoomResult, error) {
	vErr := domain.NewValidationError()
	if err := validation.ValidateRoomName(params.Name); err != nil {
		vErr.Add("name", err.Error())
	}
	capacity := s.defaultCapacity
	if params.Capacity != nil {
		capacity = *params.Capacity
		if err := validation.ValidateCapacity(capacity); err != nil {
			vErr.Add("capacity", err.Error())
		}
	}
	if err := validation.ValidatePassword(params.Password); err != nil {
		vErr.Add("password", err.Error())
	}
	if err := validation.ValidateAnnouncement(params.Announcement); err != nil {
		vErr.Add("announcement", err.Error())
	}
	if err := validation.ValidateNickname(params.CreatorNickname); err != nil {
		vErr.Add("creator_nickname", err.Error())
	}
	if vErr.HasErrors() {
		return nil, vErr
	}

	room, err := s.registry.Create(ctx, ports.CreateRoomSpec{
		Name:            params.Name,
		Capacity:        capacity,
		Password:        params.Password,
		Announcement:    params.Announcement,
		CreatorNickname: params.CreatorNickname,
	})
	if err != nil {
		s.logger.Errorw("room creation failed", "error", err)
		return nil, err
	}

	s.metrics.RoomCreated()
	s.logger.Infow("room created", "room_id", room.ID(), "capacity", capacity)

	view := room.Snapshot()
	creator, _ := room.Participant(room.CreatorID())
	return &ports.CreateRoomResult{
		Room: view,
		Creator: ports.ParticipantInfo{
			ID:       creator.ID,
			Nickname: creator.Nickname,
			Role:     creator.Role,
		},
	}, nil
}

func (s *roomService) ListRooms(ctx context.Context, params ports.ListRoomsParams) (*ports.ListRoomsResult, error) {
	if params.Page == 0 {
		params.Page = defaultPage
	}
	if params.PageSize == 0 {
		params.PageSize = defaultPageSize
	}

	vErr := domain.NewValidationError()
	if err := validation.ValidateRoomStatusFilter(params.Status); err != nil {
		vErr.Add("status", err.Error())
	}
	if err := validation.ValidatePage(params.Page, params.PageSize); err != nil {
		vErr.Add("pagination", err.Error())
	}
	if vErr.HasErrors() {
		return nil, vErr
	}

	rooms := s.registry.Search(ctx, params.Keyword, domain.RoomStatus(params.Status))

	summaries := make([]ports.RoomSummary, 0, len(rooms))
	for _, room := range rooms {
		view := room.Snapshot()
		summaries = append(summaries, ports.RoomSummary{
			ID:           view.ID,
			Name:         view.Name,
			Status:       view.Status,
			Capacity:     view.Capacity,
			CurrentCount: len(view.Participants),
			HasPassword:  view.HasPassword,
			CreatedAt:    view.CreatedAt,
		})
	}
	// Newest first; id as tiebreak keeps the order deterministic.
	sort.Slice(summaries, func(i, j int) bool {
		if summaries[i].CreatedAt.Equal(summaries[j].CreatedAt) {
			return summaries[i].ID > summaries[j].ID
		}
		return summaries[i].CreatedAt.After(summaries[j].CreatedAt)
	})

	total := len(summaries)
	totalPages := (total + params.PageSize - 1) / params.PageSize
	start := (params.Page - 1) * params.PageSize
	if start > total {
		start = total
	}
	end := start + params.PageSize
	if end > total {
		end = total
	}

	return &ports.ListRoomsResult{
		List: summaries[start:end],
		Pagination: ports.Pagination{
			Page:       params.Page,
			PageSize:   params.PageSize,
			Total:      total,
			TotalPages: totalPages,
		},
	}, nil
}

func (s *roomService) GetRoom(ctx context.Context, roomID domain.RoomID) (*domain.RoomView, error) {
	room, err := s.registry.GetByID(ctx, roomID)
	if err != nil {
		return nil, err
	}
	view := room.Snapshot()
	return &view, nil
}

func (s *roomService) VerifyPassword(ctx context.Context, roomID domain.RoomID, password string) (bool, error) {
	room, err := s.registry.GetByID(ctx, roomID)
	if err != nil {
		return false, err
	}
	return room.ValidatePassword(password), nil
}

func (s *roomService) JoinRoom(ctx context.Context, roomID domain.RoomID, nickname, password string) (*ports.JoinRoomResult, error) {
	vErr := domain.NewValidationError()
	if err := validation.ValidateNickname(nickname); err != nil {
		vErr.Add("nickname", err.Error())
	}
	if vErr.HasErrors() {
		return nil, vErr
	}

	room, err := s.registry.GetByID(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if !room.ValidatePassword(password) {
		s.metrics.JoinRejected("invalid_password")
		return nil, domain.ErrInvalidPassword
	}

	participant, err := room.Admit(&domain.Participant{
		ID:       domain.ParticipantID(s.allocator.OpaqueID()),
		Nickname: nickname,
		Role:     domain.RoleViewer,
		Status:   domain.PresenceOnline,
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrRoomFull):
			s.metrics.JoinRejected("room_full")
		case errors.Is(err, domain.ErrRoomClosed):
			s.metrics.JoinRejected("room_closed")
		}
		return nil, err
	}

	s.metrics.ParticipantJoined()
	s.logger.Infow("participant joined", "room_id", roomID, "participant_id", participant.ID)
	s.broadcast(roomID, "participant_joined", ports.ParticipantInfo{
		ID:       participant.ID,
		Nickname: participant.Nickname,
		Role:     participant.Role,
	})

	view := room.Snapshot()
	return &ports.JoinRoomResult{
		Room: view,
		Participant: ports.ParticipantInfo{
			ID:       participant.ID,
			Nickname: participant.Nickname,
			Role:     participant.Role,
		},
	}, nil
}

func (s *roomService) LeaveRoom(ctx context.Context, roomID domain.RoomID, participantID domain.ParticipantID) (bool, error) {
	room, err := s.registry.GetByID(ctx, roomID)
	if err != nil {
		return false, err
	}
	removed := room.Remove(participantID)
	if removed {
		s.metrics.ParticipantLeft()
		s.logger.Infow("participant left", "room_id", roomID, "participant_id", participantID)
		s.broadcast(roomID, "participant_left", map[string]interface{}{
			"participant_id": participantID,
		})
	}
	return removed, nil
}

func (s *roomService) DissolveRoom(ctx context.Context, roomID domain.RoomID, operatorID domain.ParticipantID) (bool, error) {
	room, err := s.registry.GetByID(ctx, roomID)
	if err != nil {
		return false, err
	}
	if operatorID != room.CreatorID() {
		return false, &domain.PermissionError{Action: "dissolve room"}
	}

	// Close first so the room refuses mutations even for callers holding a
	// reference from before the registry removal.
	room.Close()
	s.registry.Delete(ctx, roomID)
	s.metrics.RoomDissolved()
	s.logger.Infow("room dissolved", "room_id", roomID)
	s.broadcast(roomID, "room_closed", map[string]interface{}{
		"room_id": roomID,
	})
	return true, nil
}

func (s *roomService) UpdateRoom(ctx context.Context, roomID domain.RoomID, operatorID domain.ParticipantID, params ports.UpdateRoomParams) (*domain.RoomView, error) {
	vErr := domain.NewValidationError()
	if params.Name != nil {
		if err := validation.ValidateRoomName(*params.Name); err != nil {
			vErr.Add("name", err.Error())
		}
	}
	if params.Capacity != nil {
		if err := validation.ValidateCapacity(*params.Capacity); err != nil {
			vErr.Add("capacity", err.Error())
		}
	}
	if params.Password != nil {
		if err := validation.ValidatePassword(*params.Password); err != nil {
			vErr.Add("password", err.Error())
		}
	}
	if params.Announcement != nil {
		if err := validation.ValidateAnnouncement(*params.Announcement); err != nil {
			vErr.Add("announcement", err.Error())
		}
	}
	if vErr.HasErrors() {
		return nil, vErr
	}

	room, err := s.registry.GetByID(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if err := room.UpdateConfig(operatorID, domain.ConfigUpdate{
		Name:         params.Name,
		Capacity:     params.Capacity,
		Password:     params.Password,
		Announcement: params.Announcement,
	}); err != nil {
		return nil, err
	}

	s.logger.Infow("room updated", "room_id", roomID)
	view := room.Snapshot()
	s.broadcast(roomID, "room_updated", view)
	return &view, nil
}

func (s *roomService) UpdateVideo(ctx context.Context, roomID domain.RoomID, operatorID domain.ParticipantID, params ports.VideoUpdateParams) (*domain.VideoView, error) {
	vErr := domain.NewValidationError()
	if params.Status != nil {
		if err := validation.ValidateVideoStatus(*params.Status); err != nil {
			vErr.Add("status", err.Error())
		}
	}
	if params.Progress != nil {
		if err := validation.ValidateProgress(*params.Progress); err != nil {
			vErr.Add("progress", err.Error())
		}
	}
	if vErr.HasErrors() {
		return nil, vErr
	}

	room, err := s.registry.GetByID(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if _, ok := room.Participant(operatorID); !ok {
		return nil, domain.ErrParticipantNotFound
	}

	update := domain.VideoUpdate{
		Source:       params.Source,
		Progress:     params.Progress,
		PlaybackRate: params.PlaybackRate,
		SubtitleRef:  params.SubtitleRef,
	}
	if params.Status != nil {
		status := domain.VideoStatus(*params.Status)
		update.Status = &status
	}
	if err := room.SetVideo(update); err != nil {
		return nil, err
	}

	view := room.Snapshot()
	s.broadcast(roomID, "video_state", view.Video)
	return &view.Video, nil
}

func (s *roomService) SetConnection(ctx context.Context, roomID domain.RoomID, participantID domain.ParticipantID, ref string) error {
	room, err := s.registry.GetByID(ctx, roomID)
	if err != nil {
		return err
	}
	return room.SetConnection(participantID, ref)
}

func (s *roomService) Stats(ctx context.Context) (*ports.Stats, error) {
	rooms := s.registry.Search(ctx, "", "")

	stats := &ports.Stats{}
	for _, room := range rooms {
		stats.TotalRooms++
		stats.TotalParticipants += room.Size()
		switch room.Status() {
		case domain.RoomWaiting:
			stats.WaitingRooms++
		case domain.RoomPlaying:
			stats.PlayingRooms++
		}
	}
	return stats, nil
}

func (s *roomService) broadcast(roomID domain.RoomID, eventType string, payload interface{}) {
	if s.broadcaster == nil {
		return
	}
	s.broadcaster.Broadcast(roomID, ports.Event{Type: eventType, Payload: payload})
}
