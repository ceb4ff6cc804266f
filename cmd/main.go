package main

import (
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"megasena-service/internal/api"
	"megasena-service/internal/cache"
	"megasena-service/internal/config"
	"megasena-service/internal/database"
	"megasena-service/internal/logger"
	"megasena-service/internal/lottery"
	"megasena-service/internal/telegram"
	"megasena-service/internal/web"
)

// App 应用程序主结构
type App struct {
	config    *config.Config
	db        *database.MySQLDB
	cache     *cache.Manager
	generator *lottery.Generator
	caixa     *api.Client
	hub       *web.Hub
	server    *web.Server
	notifier  *telegram.Notifier
	stopSync  chan struct{}
}

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}

	logger.InitLogger(cfg.App.LogLevel)
	logger.Info("Starting mega-sena service...")

	app, err := NewApp(cfg)
	if err != nil {
		logger.Fatalf("Failed to initialize application: %v", err)
	}
	defer app.Close()

	app.Start()

	// 等待退出信号
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan

	logger.Infof("Received signal %v, shutting down...", sig)
	app.Stop()
}

// NewApp 初始化应用程序的全部组件
func NewApp(cfg *config.Config) (*App, error) {
	db, err := database.NewMySQLDB(&cfg.Database)
	if err != nil {
		return nil, err
	}

	cacheManager := cache.NewManager(db, cfg.App.CacheTTL)
	generator := lottery.NewGenerator(nil)
	caixaClient := api.NewClient(&cfg.Caixa)
	hub := web.NewHub()

	app := &App{
		config:    cfg,
		db:        db,
		cache:     cacheManager,
		generator: generator,
		caixa:     caixaClient,
		hub:       hub,
		server:    web.NewServer(cfg, db, cacheManager, generator, caixaClient, hub),
		stopSync:  make(chan struct{}),
	}

	// Telegram通知为可选组件，初始化失败不阻塞启动
	if cfg.Telegram.Enabled {
		notifier, err := telegram.NewNotifier(&cfg.Telegram, cacheManager, generator)
		if err != nil {
			logger.Warnf("Telegram notifier disabled: %v", err)
		} else {
			app.notifier = notifier
		}
	}

	return app, nil
}

// Start 启动所有后台组件
func (a *App) Start() {
	go a.hub.Run()

	if a.notifier != nil {
		a.notifier.Start()
	}

	if a.config.App.SyncInterval > 0 {
		go a.syncLoop()
	}

	go func() {
		if err := a.server.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Web server error: %v", err)
		}
	}()
}

// Stop 停止所有后台组件
func (a *App) Stop() {
	close(a.stopSync)
	if a.notifier != nil {
		a.notifier.Stop()
	}
	a.server.Stop()
	logger.Info("Application stopped")
}

// Close 释放资源
func (a *App) Close() {
	if a.cache != nil {
		a.cache.Close()
	}
	if a.db != nil {
		a.db.Close()
	}
}

// syncLoop 定时从官方接口拉取最新开奖结果
func (a *App) syncLoop() {
	logger.Infof("Results sync loop started, interval: %v", a.config.App.SyncInterval)

	ticker := time.NewTicker(a.config.App.SyncInterval)
	defer ticker.Stop()

	// 启动时先同步一次
	a.syncLatestDraw()

	for {
		select {
		case <-a.stopSync:
			logger.Info("Results sync loop stopped")
			return
		case <-ticker.C:
			a.syncLatestDraw()
		}
	}
}

// syncLatestDraw 拉取并保存最新开奖，新数据触发缓存失效和推送
func (a *App) syncLatestDraw() {
	draw, err := a.caixa.FetchLatestDraw()
	if err != nil {
		logger.Warnf("Failed to fetch latest draw: %v", err)
		return
	}

	added, err := a.db.SaveOfficialDraw(draw)
	if err != nil {
		logger.Errorf("Failed to save draw %d: %v", draw.ContestNumber, err)
		return
	}
	if !added {
		logger.Debugf("Draw %d already stored", draw.ContestNumber)
		return
	}

	logger.Infof("New draw %d (%s) stored", draw.ContestNumber, draw.Date)
	a.cache.OnDrawAdded()

	numbers, err := database.ParseNumbers(draw.Numbers)
	if err == nil {
		a.hub.Broadcast(web.EventDrawAdded, map[string]interface{}{
			"contest_number": draw.ContestNumber,
			"date":           draw.Date,
			"numbers":        numbers,
			"virada":         lottery.IsMegaDaVirada(draw.Date),
		})
	}

	if a.notifier != nil {
		a.notifier.BroadcastNewDraw(draw)
	}
}
