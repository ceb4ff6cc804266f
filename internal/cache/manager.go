package cache

import (
	"time"

	"megasena-service/internal/database"
	"megasena-service/internal/logger"
)

// 缓存键
const (
	keyDrawsAll   = "draws:all"
	keyGamesAll   = "games:all"
	keyStoreStats = "stats:store"
)

// Manager 存储读取的旁路缓存。写入不经过缓存：
// 每次写库后由调用方显式触发对应的失效钩子。
type Manager struct {
	memory     *MemoryCache
	store      database.Store
	defaultTTL time.Duration
}

// NewManager 创建缓存管理器
func NewManager(store database.Store, defaultTTL time.Duration) *Manager {
	manager := &Manager{
		memory:     NewMemoryCache(100),
		store:      store,
		defaultTTL: defaultTTL,
	}

	logger.Info("Cache manager initialized with Memory + store read-through")
	return manager
}

// Close 关闭缓存管理器
func (cm *Manager) Close() error {
	cm.memory.Clear()
	return nil
}

// GetOfficialDraws 读取全部官方开奖记录，缓存未命中时回源
func (cm *Manager) GetOfficialDraws() ([]database.OfficialDraw, error) {
	var draws []database.OfficialDraw
	if err := cm.memory.Get(keyDrawsAll, &draws); err == nil {
		return draws, nil
	}

	draws, err := cm.store.GetOfficialDraws()
	if err != nil {
		return nil, err
	}

	cm.memory.Set(keyDrawsAll, draws, cm.defaultTTL)
	return draws, nil
}

// GetGeneratedGames 读取全部生成记录，缓存未命中时回源
func (cm *Manager) GetGeneratedGames() ([]database.GeneratedGame, error) {
	var games []database.GeneratedGame
	if err := cm.memory.Get(keyGamesAll, &games); err == nil {
		return games, nil
	}

	games, err := cm.store.GetGeneratedGames()
	if err != nil {
		return nil, err
	}

	cm.memory.Set(keyGamesAll, games, cm.defaultTTL)
	return games, nil
}

// GetStoreStats 读取行数统计
func (cm *Manager) GetStoreStats() (*database.StoreStats, error) {
	var stats database.StoreStats
	if err := cm.memory.Get(keyStoreStats, &stats); err == nil {
		return &stats, nil
	}

	statsPtr, err := cm.store.GetStoreStats()
	if err != nil {
		return nil, err
	}

	cm.memory.Set(keyStoreStats, *statsPtr, cm.defaultTTL)
	return statsPtr, nil
}

// OnDrawAdded 官方开奖写入后的失效钩子
func (cm *Manager) OnDrawAdded() {
	cm.memory.DeletePattern("draws:*")
	cm.memory.DeletePattern("stats:*")
	logger.Debug("Cache invalidated after official draw write")
}

// OnGamesSaved 生成记录写入后的失效钩子
func (cm *Manager) OnGamesSaved() {
	cm.memory.DeletePattern("games:*")
	cm.memory.DeletePattern("stats:*")
	logger.Debug("Cache invalidated after generated games write")
}

// GetStats 获取缓存统计信息
func (cm *Manager) GetStats() map[string]interface{} {
	return map[string]interface{}{
		"memory_cache": cm.memory.Stats(),
	}
}
