// Package telegram hosts the long-polling bot transport. It translates
// updates into service calls and service results into replies; all domain
// logic lives below it.
package telegram

import (
	"context"
	"fmt"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"codewars-tracker/internal/config"
	"codewars-tracker/internal/service"
)

type Bot struct {
	api         *tgbotapi.BotAPI
	users       *service.UserService
	groups      *service.GroupService
	logger      zerolog.Logger
	pollTimeout int

	wg sync.WaitGroup
}

func New(cfg *config.Config, users *service.UserService, groups *service.GroupService, logger zerolog.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to telegram: %w", err)
	}

	logger.Info().Str("bot_username", api.Self.UserName).Msg("Authorized on Telegram")

	return &Bot{
		api:         api,
		users:       users,
		groups:      groups,
		logger:      logger,
		pollTimeout: int(cfg.PollTimeout.Seconds()),
	}, nil
}

// Start registers the command menu and begins consuming updates until ctx is
// cancelled. Each update is handled on its own goroutine so a slow upstream
// fetch does not stall the poll loop.
func (b *Bot) Start(ctx context.Context) error {
	commands := tgbotapi.NewSetMyCommands(
		tgbotapi.BotCommand{Command: "start", Description: "Start the bot"},
		tgbotapi.BotCommand{Command: "help", Description: "Show available commands"},
		tgbotapi.BotCommand{Command: "register", Description: "Register your Codewars account"},
		tgbotapi.BotCommand{Command: "creategroup", Description: "Create a group"},
		tgbotapi.BotCommand{Command: "joingroup", Description: "Join a group"},
		tgbotapi.BotCommand{Command: "mystats", Description: "Show your Codewars statistics"},
		tgbotapi.BotCommand{Command: "groupstats", Description: "Show group leaderboard"},
		tgbotapi.BotCommand{Command: "daily", Description: "Show today's group activity"},
		tgbotapi.BotCommand{Command: "weekly", Description: "Show the last 7 days of group activity"},
	)
	if _, err := b.api.Request(commands); err != nil {
		b.logger.Warn().Err(err).Msg("Failed to set bot command list")
	}

	updateCfg := tgbotapi.NewUpdate(0)
	updateCfg.Timeout = b.pollTimeout
	updates := b.api.GetUpdatesChan(updateCfg)

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case update, ok := <-updates:
				if !ok {
					return
				}
				b.wg.Add(1)
				go func() {
					defer b.wg.Done()
					b.handleUpdate(ctx, update)
				}()
			}
		}
	}()

	return nil
}

// Stop halts polling and waits for in-flight handlers to finish.
func (b *Bot) Stop() {
	b.api.StopReceivingUpdates()
	b.wg.Wait()
	b.logger.Info().Msg("Telegram bot stopped")
}

// newReply builds a text message quoting the one that triggered it.
func newReply(to *tgbotapi.Message, text string) tgbotapi.MessageConfig {
	msg := tgbotapi.NewMessage(to.Chat.ID, text)
	msg.ReplyToMessageID = to.MessageID
	return msg
}

func newReplyPhoto(to *tgbotapi.Message, name string, png []byte, caption string) tgbotapi.PhotoConfig {
	photo := tgbotapi.NewPhoto(to.Chat.ID, tgbotapi.FileBytes{Name: name, Bytes: png})
	photo.Caption = caption
	photo.ReplyToMessageID = to.MessageID
	return photo
}

func (b *Bot) reply(to *tgbotapi.Message, text string) {
	if _, err := b.api.Send(newReply(to, text)); err != nil {
		b.logger.Error().Err(err).Int64("chat_id", to.Chat.ID).Msg("Failed to send message")
	}
}

func (b *Bot) replyPhoto(to *tgbotapi.Message, name string, png []byte, caption string) {
	if _, err := b.api.Send(newReplyPhoto(to, name, png, caption)); err != nil {
		b.logger.Error().Err(err).Int64("chat_id", to.Chat.ID).Msg("Failed to send photo")
	}
}
