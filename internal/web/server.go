package web

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/rs/cors"

	"megasena-service/internal/api"
	"megasena-service/internal/cache"
	"megasena-service/internal/config"
	"megasena-service/internal/database"
	"megasena-service/internal/logger"
	"megasena-service/internal/lottery"
)

// Server Web服务：JSON API + WebSocket推送 + 静态前端
type Server struct {
	config     *config.Config
	store      database.Store
	cache      *cache.Manager
	generator  *lottery.Generator
	caixa      *api.Client // 可为nil（未配置同步）
	hub        *Hub
	httpServer *http.Server
	upgrader   websocket.Upgrader
}

// NewServer 创建Web服务
func NewServer(cfg *config.Config, store database.Store, cacheManager *cache.Manager, generator *lottery.Generator, caixaClient *api.Client, hub *Hub) *Server {
	return &Server{
		config:    cfg,
		store:     store,
		cache:     cacheManager,
		generator: generator,
		caixa:     caixaClient,
		hub:       hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true // 允许所有来源(生产环境需要限制)
			},
		},
	}
}

// Handler 构建完整的HTTP处理器（路由 + CORS）
func (s *Server) Handler() http.Handler {
	router := mux.NewRouter()

	// API路由
	apiRouter := router.PathPrefix("/api").Subrouter()
	apiRouter.HandleFunc("/health", s.handleHealth).Methods("GET")

	apiRouter.HandleFunc("/games/propose", s.handleProposeGames).Methods("POST")
	apiRouter.HandleFunc("/games", s.handleCommitGames).Methods("POST")
	apiRouter.HandleFunc("/games", s.handleListGames).Methods("GET")

	apiRouter.HandleFunc("/draws", s.handleAddDraw).Methods("POST")
	apiRouter.HandleFunc("/draws", s.handleListDraws).Methods("GET")
	apiRouter.HandleFunc("/draws/import", s.handleImportDraws).Methods("POST")
	apiRouter.HandleFunc("/draws/sync", s.handleSyncDraw).Methods("POST")
	apiRouter.HandleFunc("/draws/search", s.handleSearchDraws).Methods("GET")
	apiRouter.HandleFunc("/draws/{contest}/conference", s.handleConference).Methods("GET")

	apiRouter.HandleFunc("/simulate", s.handleSimulate).Methods("GET")
	apiRouter.HandleFunc("/stats", s.handleStats).Methods("GET")
	apiRouter.HandleFunc("/stats/combinations", s.handleCombinations).Methods("GET")

	// WebSocket路由
	router.HandleFunc("/ws", s.handleWebSocket)

	// 静态前端
	router.PathPrefix("/").Handler(http.FileServer(http.Dir(s.config.Server.StaticDir)))

	// CORS配置
	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})

	return c.Handler(router)
}

// Start 启动HTTP服务
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:         ":" + s.config.Server.Port,
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.Infof("Web server listening on :%s", s.config.Server.Port)
	return s.httpServer.ListenAndServe()
}

// Stop 优雅停止HTTP服务
func (s *Server) Stop() {
	if s.httpServer == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		logger.Errorf("Server shutdown error: %v", err)
	}
}

// handleWebSocket WebSocket连接处理
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Errorf("WebSocket upgrade error: %v", err)
		return
	}

	client := &Client{
		hub:  s.hub,
		conn: conn,
		send: make(chan []byte, 256),
	}

	client.hub.register <- client

	go client.writePump()
	go client.readPump()
}
