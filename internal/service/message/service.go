// Package message 一对一会话：发送、删除（墓碑）、拉取历史
package message

import (
	"context"
	"errors"
	"strings"
	"time"

	"pulse_chat_server/internal/dao/mysql/repository"
	"pulse_chat_server/internal/dto/event"
	"pulse_chat_server/internal/dto/respond"
	ws "pulse_chat_server/internal/gateway/websocket"
	"pulse_chat_server/internal/infrastructure/mq"
	"pulse_chat_server/internal/infrastructure/storage"
	"pulse_chat_server/internal/model"
	"pulse_chat_server/pkg/errorx"
	"pulse_chat_server/pkg/util/snowflake"

	"go.uber.org/zap"
)

type Pusher interface {
	Push(userID, name string, data any) error
}

type Service struct {
	repos     *repository.Repositories
	images    storage.ImageStore
	pusher    Pusher
	publisher mq.Publisher
}

func NewService(repos *repository.Repositories, images storage.ImageStore, pusher Pusher, publisher mq.Publisher) *Service {
	return &Service{repos: repos, images: images, pusher: pusher, publisher: publisher}
}

// Send 只能给好友发消息，text 和 image 至少有一个
func (s *Service) Send(ctx context.Context, senderID, receiverID, text, image string) (*respond.MessageRespond, error) {
	text = strings.TrimSpace(text)
	image = strings.TrimSpace(image)
	if text == "" && image == "" {
		return nil, errorx.New(errorx.CodeInvalidParam, "Message must contain text or an image")
	}
	if err := s.requireFriend(ctx, senderID, receiverID, "You can only message your friends"); err != nil {
		return nil, err
	}

	msg := &model.Message{
		Uuid:       snowflake.WithPrefix("M"),
		SenderID:   senderID,
		ReceiverID: receiverID,
		Text:       text,
	}
	if image != "" {
		if s.images == nil {
			return nil, errorx.New(errorx.CodeNotConfigured, "image upload is not available")
		}
		url, err := s.images.SaveDataURL(ctx, image)
		if err != nil {
			return nil, err
		}
		msg.Image = &url
	}

	if err := s.repos.Message.Create(ctx, msg); err != nil {
		return nil, err
	}

	out := respond.NewMessageRespond(msg)
	s.push(receiverID, event.NewMessage, out)
	mq.PublishAsync(s.publisher, mq.EventMessageSent, out)
	return out, nil
}

// Delete 只有发送者可以删除；重复删除返回同一条墓碑
func (s *Service) Delete(ctx context.Context, requesterID, messageID string) (*respond.MessageRespond, error) {
	msg, err := s.repos.Message.FindByUuid(ctx, messageID)
	if err != nil {
		if errorx.IsNotFound(err) {
			return nil, errorx.New(errorx.CodeNotFound, "Message not found")
		}
		return nil, err
	}
	if msg.SenderID != requesterID {
		return nil, errorx.New(errorx.CodeForbidden, "You can only delete your own messages")
	}

	first, err := s.repos.Message.Tombstone(ctx, messageID, requesterID, time.Now())
	if err != nil {
		return nil, err
	}
	// 无论是否由本次删除完成，都以墓碑为准重新读取，避免推送删除前的内容
	if msg, err = s.repos.Message.FindByUuid(ctx, messageID); err != nil {
		return nil, err
	}

	out := respond.NewMessageRespond(msg)
	s.push(msg.SenderID, event.MessageDeleted, out)
	s.push(msg.ReceiverID, event.MessageDeleted, out)
	if first {
		mq.PublishAsync(s.publisher, mq.EventMessageDeleted, out)
	}
	return out, nil
}

// List 双方全部消息，按时间升序
func (s *Service) List(ctx context.Context, userID, otherID string) ([]*respond.MessageRespond, error) {
	if err := s.requireFriend(ctx, userID, otherID, "You can only view messages from friends"); err != nil {
		return nil, err
	}
	msgs, err := s.repos.Message.ListBetween(ctx, userID, otherID)
	if err != nil {
		return nil, err
	}
	return respond.NewMessageList(msgs), nil
}

// Recent 最近 n 条，升序
func (s *Service) Recent(ctx context.Context, userID, otherID string, n int) ([]model.Message, error) {
	return s.repos.Message.RecentBetween(ctx, userID, otherID, n)
}

func (s *Service) requireFriend(ctx context.Context, userID, otherID, msg string) error {
	if strings.TrimSpace(otherID) == "" {
		return errorx.New(errorx.CodeInvalidParam, "user id is required")
	}
	ok, err := s.repos.Friendship.Exists(ctx, userID, otherID)
	if err != nil {
		return err
	}
	if !ok {
		return errorx.New(errorx.CodeForbidden, msg)
	}
	return nil
}

func (s *Service) push(userID, name string, data any) {
	if s.pusher == nil {
		return
	}
	if err := s.pusher.Push(userID, name, data); err != nil && !errors.Is(err, ws.ErrNotConnected) {
		zap.L().Warn("realtime push failed", zap.String("user_id", userID), zap.String("event", name), zap.Error(err))
	}
}
