package telegram

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"zoggy.app/waitlist/internal/config"
)

// Bot — long polling Telegram: /start и заявки на вступление в канал.
type Bot struct {
	api       *tgbotapi.BotAPI
	cfg       *config.Config
	service   *Service
	channelID int64
	joinLink  string

	// ограничитель параллелизма обработки апдейтов
	inflight chan struct{}
}

// NewBot создаёт бота.
func NewBot(api *tgbotapi.BotAPI, cfg *config.Config, service *Service) *Bot {
	maxInFlight := cfg.TelegramMaxInflight
	if maxInFlight <= 0 {
		maxInFlight = 16
	}
	return &Bot{
		api:       api,
		cfg:       cfg,
		service:   service,
		channelID: cfg.TelegramChannelID,
		joinLink:  cfg.TelegramJoinLink(),
		inflight:  make(chan struct{}, maxInFlight),
	}
}

// Start запускает polling и блокируется до отмены ctx.
func (b *Bot) Start(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = b.cfg.TelegramTimeoutSec
	u.AllowedUpdates = []string{"message", "chat_join_request"}

	updates := b.api.GetUpdatesChan(u)

	log.WithFields(log.Fields{
		"bot":          b.api.Self.UserName,
		"channel_id":   b.channelID,
		"max_inflight": cap(b.inflight),
	}).Info("[TG] Бот запущен и ожидает апдейты...")

	for {
		select {
		case <-ctx.Done():
			log.Info("[TG] Бот останавливается (ctx done)...")
			b.api.StopReceivingUpdates()
			return

		case update, ok := <-updates:
			if !ok {
				log.Info("[TG] Канал updates закрыт, бот остановлен")
				return
			}

			b.inflight <- struct{}{}
			go func(upd tgbotapi.Update) {
				defer func() { <-b.inflight }()
				b.handleUpdate(ctx, upd)
			}(update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			log.WithField("panic", r).Error("[TG] Паника при обработке апдейта")
		}
	}()

	switch {
	case update.ChatJoinRequest != nil:
		b.handleJoinRequest(ctx, update.ChatJoinRequest)
	case update.Message != nil && update.Message.IsCommand() && update.Message.Chat.IsPrivate():
		if update.Message.Command() == "start" {
			b.handleStart(ctx, update.Message)
		}
	}
}

func (b *Bot) handleStart(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil {
		return
	}
	tg := TgUser{ID: msg.From.ID, Username: msg.From.UserName}
	out, err := b.service.HandleStart(ctx, msg.CommandArguments(), tg, b)
	if err != nil {
		log.WithError(err).WithField("tg_user_id", tg.ID).Error("[TG] Ошибка обработки /start")
		return
	}
	b.reply(msg.Chat.ID, out)
}

func (b *Bot) handleJoinRequest(ctx context.Context, req *tgbotapi.ChatJoinRequest) {
	if req.Chat.ID != b.channelID {
		return
	}
	logger := log.WithField("tg_user_id", req.From.ID)

	approve := tgbotapi.ApproveChatJoinRequestConfig{
		ChatConfig: tgbotapi.ChatConfig{ChatID: req.Chat.ID},
		UserID:     req.From.ID,
	}
	if _, err := b.api.Request(approve); err != nil {
		logger.WithError(err).Error("[TG] Не удалось одобрить заявку")
	}

	tg := TgUser{ID: req.From.ID, Username: req.From.UserName}
	out, err := b.service.HandleJoinRequest(ctx, tg)
	if err != nil {
		logger.WithError(err).Error("[TG] Ошибка обработки заявки")
	}
	b.reply(req.From.ID, out)
}

// IsMember проверяет членство в канале через getChatMember.
func (b *Bot) IsMember(_ context.Context, tgUserID int64) (bool, error) {
	cm, err := b.api.GetChatMember(tgbotapi.GetChatMemberConfig{
		ChatConfigWithUser: tgbotapi.ChatConfigWithUser{
			ChatID: b.channelID,
			UserID: tgUserID,
		},
	})
	if err != nil {
		return false, err
	}
	return IsMemberStatus(cm.Status), nil
}

// IsMemberStatus — статусы, считающиеся членством в канале.
func IsMemberStatus(status string) bool {
	switch status {
	case "creator", "administrator", "member", "restricted":
		return true
	}
	return false
}

func (b *Bot) reply(chatID int64, out Outcome) {
	text := ReplyText(out)
	if text == "" {
		return
	}
	msg := tgbotapi.NewMessage(chatID, text)
	if out == OutcomeAskToJoin {
		msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonURL(JoinButtonLabel, b.joinLink)),
		)
	}
	if _, err := b.api.Send(msg); err != nil {
		log.WithError(err).WithField("chat_id", chatID).Warn("[TG] Не удалось отправить сообщение")
	}
}

// ReplyText — текст ответа на результат.
func ReplyText(out Outcome) string {
	switch out {
	case OutcomeNoPayload:
		return MsgNoPayload
	case OutcomeExpired:
		return MsgExpired
	case OutcomeAskToJoin:
		return MsgAskToJoin
	case OutcomeVerified:
		return MsgVerified
	case OutcomeSessionError:
		return MsgSessionError
	case OutcomeGreeting:
		return MsgGreeting
	}
	return ""
}
