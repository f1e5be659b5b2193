package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"watchparty/internal/core/domain"
	"watchparty/internal/core/ports"
	"watchparty/pkg/validation"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

// ErrInvalidChannelToken is returned when a channel token fails verification.
var ErrInvalidChannelToken = errors.New("invalid channel token")

type channelClaims struct {
	RoomID        string `json:"room_id"`
	ParticipantID string `json:"participant_id"`
	jwt.RegisteredClaims
}

type channelService struct {
	registry    ports.RoomRegistry
	broadcaster ports.Broadcaster
	allocator   ports.IdentifierAllocator
	secret      []byte
	tokenTTL    time.Duration
	now         func() time.Time
	metrics     Metrics
	logger      *zap.SugaredLogger
}

type ChannelServiceOption func(*channelService)

// WithChannelClock injects a time source for deterministic tests.
func WithChannelClock(now func() time.Time) ChannelServiceOption {
	return func(s *channelService) { s.now = now }
}

// WithChannelMetrics attaches a metrics sink.
func WithChannelMetrics(m Metrics) ChannelServiceOption {
	return func(s *channelService) { s.metrics = m }
}

func NewChannelService(registry ports.RoomRegistry, broadcaster ports.Broadcaster, allocator ports.IdentifierAllocator, secret string, tokenTTL time.Duration, logger *zap.SugaredLogger, opts ...ChannelServiceOption) ports.ChannelService {
	s := &channelService{
		registry:    registry,
		broadcaster: broadcaster,
		allocator:   allocator,
		secret:      []byte(secret),
		tokenTTL:    tokenTTL,
		now:         time.Now,
		metrics:     nopMetrics{},
		logger:      logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// JoinChannel mints a signed channel token. The participant must already be
// on the room's roster; the realtime channel never admits anyone by itself.
func (s *channelService) JoinChannel(ctx context.Context, roomID domain.RoomID, participantID domain.ParticipantID) (string, error) {
	room, err := s.registry.GetByID(ctx, roomID)
	if err != nil {
		return "", err
	}
	if _, ok := room.Participant(participantID); !ok {
		return "", domain.ErrParticipantNotFound
	}

	now := s.now()
	claims := channelClaims{
		RoomID:        string(roomID),
		ParticipantID: string(participantID),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign channel token: %w", err)
	}

	s.logger.Infow("channel token minted", "room_id", roomID, "participant_id", participantID)
	return token, nil
}

func (s *channelService) Authorize(token string) (domain.RoomID, domain.ParticipantID, error) {
	claims := &channelClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil || !parsed.Valid {
		return "", "", ErrInvalidChannelToken
	}
	return domain.RoomID(claims.RoomID), domain.ParticipantID(claims.ParticipantID), nil
}

// PostMessage relays a chat message to the room's listeners. The message id
// and timestamp are assigned here; clients never supply either.
func (s *channelService) PostMessage(ctx context.Context, roomID domain.RoomID, participantID domain.ParticipantID, content string) (*domain.Message, error) {
	if err := validation.ValidateMessageContent(content); err != nil {
		vErr := domain.NewValidationError()
		vErr.Add("content", err.Error())
		return nil, vErr
	}

	room, err := s.registry.GetByID(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if room.Status() == domain.RoomClosed {
		return nil, &domain.ClosedError{RoomID: roomID}
	}
	participant, ok := room.Participant(participantID)
	if !ok {
		return nil, domain.ErrParticipantNotFound
	}

	message := &domain.Message{
		ID:            s.allocator.OpaqueID(),
		RoomID:        roomID,
		ParticipantID: participantID,
		Nickname:      participant.Nickname,
		Content:       content,
		SentAt:        s.now(),
	}
	if s.broadcaster != nil {
		s.broadcaster.Broadcast(roomID, ports.Event{Type: "chat", Payload: message})
	}
	s.metrics.MessagePosted()
	return message, nil
}
