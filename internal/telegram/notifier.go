package telegram

import (
	"fmt"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"megasena-service/internal/cache"
	"megasena-service/internal/config"
	"megasena-service/internal/database"
	"megasena-service/internal/logger"
	"megasena-service/internal/lottery"
)

// Notifier Telegram通知机器人（可选组件）。
// 支持私聊命令查询，并向订阅的会话推送新开奖通知。
type Notifier struct {
	api       *tgbotapi.BotAPI
	cache     *cache.Manager
	generator *lottery.Generator

	mu          sync.RWMutex
	subscribers map[int64]bool

	stopped chan struct{}
}

// NewNotifier 创建通知机器人
func NewNotifier(cfg *config.Telegram, cacheManager *cache.Manager, generator *lottery.Generator) (*Notifier, error) {
	api, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %v", err)
	}

	logger.Infof("Telegram bot authorized: @%s", api.Self.UserName)

	return &Notifier{
		api:         api,
		cache:       cacheManager,
		generator:   generator,
		subscribers: make(map[int64]bool),
		stopped:     make(chan struct{}),
	}, nil
}

// Start 启动命令处理循环
func (n *Notifier) Start() {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 30

	updates := n.api.GetUpdatesChan(updateConfig)

	go func() {
		for {
			select {
			case <-n.stopped:
				return
			case update, ok := <-updates:
				if !ok {
					return
				}
				if update.Message == nil || !update.Message.IsCommand() {
					continue
				}
				n.handleCommand(update.Message)
			}
		}
	}()
}

// Stop 停止命令处理循环
func (n *Notifier) Stop() {
	close(n.stopped)
	n.api.StopReceivingUpdates()
}

// handleCommand 处理用户命令
func (n *Notifier) handleCommand(message *tgbotapi.Message) {
	chatID := message.Chat.ID

	switch message.Command() {
	case "start":
		n.subscribe(chatID)
		n.reply(chatID, "Subscribed to draw notifications.\nUse /help to see available commands.")
	case "stop":
		n.unsubscribe(chatID)
		n.reply(chatID, "Unsubscribed from draw notifications.")
	case "palpite":
		n.handlePalpite(chatID)
	case "latest":
		n.handleLatest(chatID)
	case "stats":
		n.handleStats(chatID)
	case "help":
		n.reply(chatID, helpText())
	default:
		n.reply(chatID, "Unknown command. Use /help to see available commands.")
	}
}

// handlePalpite 生成一注号码建议
func (n *Notifier) handlePalpite(chatID int64) {
	ticket, err := n.generator.Generate(nil, database.TicketSize)
	if err != nil {
		logger.Errorf("Failed to generate ticket: %v", err)
		n.reply(chatID, "Failed to generate numbers, try again later.")
		return
	}

	n.reply(chatID, fmt.Sprintf("Suggested numbers: %s", formatNumbers(ticket)))
}

// handleLatest 查询最近一期开奖
func (n *Notifier) handleLatest(chatID int64) {
	draws, err := n.cache.GetOfficialDraws()
	if err != nil || len(draws) == 0 {
		n.reply(chatID, "No draw results available yet.")
		return
	}

	// 存储按concurso号降序返回，首条即最新
	latest := draws[0]
	numbers, err := database.ParseNumbers(latest.Numbers)
	if err != nil {
		n.reply(chatID, "No draw results available yet.")
		return
	}

	text := fmt.Sprintf("Contest %d (%s)\nNumbers: %s", latest.ContestNumber, latest.Date, formatNumbers(numbers))
	if lottery.IsMegaDaVirada(latest.Date) {
		text += "\nMega da Virada!"
	}
	n.reply(chatID, text)
}

// handleStats 查询存储统计
func (n *Notifier) handleStats(chatID int64) {
	stats, err := n.cache.GetStoreStats()
	if err != nil {
		logger.Errorf("Failed to get store stats: %v", err)
		n.reply(chatID, "Failed to load statistics, try again later.")
		return
	}

	n.reply(chatID, fmt.Sprintf("Saved games: %d\nReal bets: %d\nOfficial draws: %d",
		stats.TotalGames, stats.TotalBets, stats.TotalDraws))
}

// BroadcastNewDraw 向所有订阅会话推送新开奖，附带已保存投注的命中摘要
func (n *Notifier) BroadcastNewDraw(draw *database.OfficialDraw) {
	drawNumbers, err := database.ParseNumbers(draw.Numbers)
	if err != nil {
		logger.Errorf("Malformed draw %d, skipping broadcast: %v", draw.ContestNumber, err)
		return
	}

	text := fmt.Sprintf("New draw!\nContest %d (%s)\nNumbers: %s",
		draw.ContestNumber, draw.Date, formatNumbers(drawNumbers))
	if lottery.IsMegaDaVirada(draw.Date) {
		text += "\nMega da Virada!"
	}

	if games, err := n.cache.GetGeneratedGames(); err == nil && len(games) > 0 {
		results := lottery.RankGames(games, drawNumbers, lottery.HitsTerno)
		if len(results) > 0 {
			text += fmt.Sprintf("\n\n%d saved game(s) with 3+ hits, best: %d (%s)",
				len(results), results[0].HitCount, formatNumbers(results[0].Hits))
		}
	}

	n.mu.RLock()
	chatIDs := make([]int64, 0, len(n.subscribers))
	for chatID := range n.subscribers {
		chatIDs = append(chatIDs, chatID)
	}
	n.mu.RUnlock()

	for _, chatID := range chatIDs {
		n.reply(chatID, text)
	}
	logger.Infof("Broadcast draw %d to %d subscriber(s)", draw.ContestNumber, len(chatIDs))
}

func (n *Notifier) subscribe(chatID int64) {
	n.mu.Lock()
	n.subscribers[chatID] = true
	n.mu.Unlock()
}

func (n *Notifier) unsubscribe(chatID int64) {
	n.mu.Lock()
	delete(n.subscribers, chatID)
	n.mu.Unlock()
}

// reply 发送文本消息
func (n *Notifier) reply(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := n.api.Send(msg); err != nil {
		logger.Errorf("Failed to send telegram message to %d: %v", chatID, err)
	}
}

// formatNumbers 格式化号码列表用于消息展示
func formatNumbers(numbers []int) string {
	parts := make([]string, len(numbers))
	for i, num := range numbers {
		parts[i] = fmt.Sprintf("%02d", num)
	}
	return strings.Join(parts, " ")
}

func helpText() string {
	return strings.Join([]string{
		"/palpite - generate a number suggestion",
		"/latest - show the latest draw",
		"/stats - show storage statistics",
		"/start - subscribe to draw notifications",
		"/stop - unsubscribe",
		"/help - show this message",
	}, "\n")
}
