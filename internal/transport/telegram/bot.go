package telegram

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/sandevgo/medichat/internal/config"
	"github.com/sandevgo/medichat/internal/core"
	"github.com/sandevgo/medichat/internal/service/assistant"
	"github.com/sandevgo/medichat/internal/service/library"
	"github.com/sandevgo/medichat/pkg/log"
	tele "gopkg.in/telebot.v3"
)

const baseContextKey = "base_context"

type Sessions interface {
	Get(id string) *assistant.Session
}

type Ingester interface {
	Ingest(ctx context.Context, name string, data []byte) (library.Document, error)
}

type Bot struct {
	bot       *tele.Bot
	sender    *sender
	sessions  Sessions
	router    core.CmdRouter
	lib       Ingester
	ownerID   int64
	maxUpload int64
}

func NewBot(
	ctx context.Context,
	cfg *config.TelegramConfig,
	sessions Sessions,
	router core.CmdRouter,
	lib Ingester,
	maxUpload int64,
) (*Bot, error) {
	pref := tele.Settings{
		Token:  cfg.GetTelegramToken(),
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	}

	b, err := tele.NewBot(pref)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	bot := &Bot{
		bot:       b,
		sender:    newSender(b),
		sessions:  sessions,
		router:    router,
		lib:       lib,
		ownerID:   cfg.GetTelegramOwnerID(),
		maxUpload: maxUpload,
	}

	b.Use(func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			c.Set(baseContextKey, ctx)
			return next(c)
		}
	})

	// Only the owner may talk to the bot, everyone else is ignored.
	b.Use(func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			if c.Sender() == nil || c.Sender().ID != bot.ownerID {
				return nil
			}
			return next(c)
		}
	})

	b.Handle(tele.OnText, bot.handleMessage)
	b.Handle(tele.OnDocument, bot.handleDocument)

	return bot, nil
}

func (b *Bot) Start(ctx context.Context) error {
	log.FromCtx(ctx).Info().Msg("starting telegram bot")
	b.bot.Start()
	return nil
}

func (b *Bot) Shutdown(ctx context.Context) error {
	b.bot.Stop()
	return nil
}

func sessionID(chatID int64) string {
	return fmt.Sprintf("telegram-%d", chatID)
}

func (b *Bot) handleMessage(c tele.Context) error {
	ctx := c.Get(baseContextKey).(context.Context)
	_ = c.Notify(tele.Typing)

	reply := b.reply(ctx, sessionID(c.Chat().ID), c.Text())
	return b.sender.sendMarkdown(ctx, c.Chat(), reply, false)
}

// reply returns markdown for a text message: command output or an answer.
func (b *Bot) reply(ctx context.Context, sessionID, text string) string {
	if out, handled := b.router.Execute(ctx, sessionID, text); handled {
		return out
	}

	outcome, err := b.sessions.Get(sessionID).Ask(ctx, text)
	if err != nil {
		log.FromCtx(ctx).Error().Err(err).Str("session", sessionID).Msg("question failed")
		return assistant.FormatError(err)
	}
	return assistant.FormatResponse(outcome)
}

func (b *Bot) handleDocument(c tele.Context) error {
	ctx := c.Get(baseContextKey).(context.Context)
	doc := c.Message().Document
	if doc == nil {
		return nil
	}

	if b.maxUpload > 0 && doc.FileSize > b.maxUpload {
		return c.Send(fmt.Sprintf("❌ %s is too large (limit %d MB).", doc.FileName, b.maxUpload>>20))
	}
	_ = c.Notify(tele.UploadingDocument)

	rc, err := b.bot.File(&doc.File)
	if err != nil {
		log.FromCtx(ctx).Error().Err(err).Str("file", doc.FileName).Msg("failed to download document")
		return c.Send("❌ Could not download the document.")
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return c.Send("❌ Could not download the document.")
	}

	return b.sender.sendMarkdown(ctx, c.Chat(), b.ingest(ctx, doc.FileName, data), true)
}

func (b *Bot) ingest(ctx context.Context, name string, data []byte) string {
	doc, err := b.lib.Ingest(ctx, name, data)
	if err != nil {
		log.FromCtx(ctx).Warn().Err(err).Str("file", name).Msg("document rejected")
		return fmt.Sprintf("❌ **%s** was not indexed: %v", name, err)
	}

	parts := []string{fmt.Sprintf("✅ Indexed **%s**", doc.Name), fmt.Sprintf("%d chunks", doc.Chunks)}
	if doc.Pages > 0 {
		parts = append(parts, fmt.Sprintf("%d pages", doc.Pages))
	}
	return strings.Join(parts, " | ")
}
