package telegram

import (
	"errors"
	"fmt"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"

	"codewars-tracker/internal/domain"
)

func TestUserMessageMapsSentinels(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{domain.ErrNotRegistered, "/register"},
		{domain.ErrUpstreamUnavailable, "Codewars"},
		{domain.ErrGroupExists, "already exists"},
		{domain.ErrGroupNotFound, "does not exist"},
		{domain.ErrAlreadyMember, "already a member"},
		{domain.ErrInvalidInput, "/help"},
	}

	for _, tc := range cases {
		assert.Contains(t, userMessage(tc.err), tc.want, "for %v", tc.err)
	}
}

func TestUserMessageWrappedError(t *testing.T) {
	wrapped := fmt.Errorf("fetch alice: %w", domain.ErrUpstreamUnavailable)
	assert.Contains(t, userMessage(wrapped), "Codewars")
}

func TestUserMessageUnknownErrorLeaksNothing(t *testing.T) {
	msg := userMessage(errors.New("pq: connection reset"))
	assert.NotContains(t, msg, "pq")
	assert.Contains(t, msg, "try again")
}

func TestNewReplyQuotesTriggeringMessage(t *testing.T) {
	trigger := &tgbotapi.Message{
		MessageID: 42,
		Chat:      &tgbotapi.Chat{ID: -100123},
	}

	msg := newReply(trigger, "hello")
	assert.Equal(t, int64(-100123), msg.ChatID)
	assert.Equal(t, 42, msg.ReplyToMessageID)
	assert.Equal(t, "hello", msg.Text)
}

func TestNewReplyPhotoQuotesTriggeringMessage(t *testing.T) {
	trigger := &tgbotapi.Message{
		MessageID: 7,
		Chat:      &tgbotapi.Chat{ID: 555},
	}

	photo := newReplyPhoto(trigger, "progress.png", []byte{0x89, 'P', 'N', 'G'}, "Progress for alice")
	assert.Equal(t, int64(555), photo.ChatID)
	assert.Equal(t, 7, photo.ReplyToMessageID)
	assert.Equal(t, "Progress for alice", photo.Caption)

	file, ok := photo.File.(tgbotapi.FileBytes)
	assert.True(t, ok)
	assert.Equal(t, "progress.png", file.Name)
}
