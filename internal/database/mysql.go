package database

import (
	"database/sql"
	"fmt"
	"time"

	"megasena-service/internal/config"
	"megasena-service/internal/logger"

	"github.com/go-sql-driver/mysql"
)

// MySQLDB MySQL数据库客户端
type MySQLDB struct {
	db *sql.DB
}

// NewMySQLDB 创建新的MySQL数据库连接
func NewMySQLDB(cfg *config.Database) (*MySQLDB, error) {
	db, err := sql.Open("mysql", cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %v", err)
	}

	// 设置连接池参数
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	// 测试连接
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %v", err)
	}

	mysqlDB := &MySQLDB{db: db}

	// 自动创建表结构
	if err := mysqlDB.createTablesIfNotExists(); err != nil {
		return nil, fmt.Errorf("failed to create tables: %v", err)
	}

	return mysqlDB, nil
}

// Close 关闭数据库连接
func (m *MySQLDB) Close() error {
	return m.db.Close()
}

// GetOfficialDraws 获取全部官方开奖记录，按concurso号降序
func (m *MySQLDB) GetOfficialDraws() ([]OfficialDraw, error) {
	query := `SELECT contest_number, date, numbers
			  FROM official_draws
			  ORDER BY contest_number DESC`

	rows, err := m.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query official draws: %v", err)
	}
	defer rows.Close()

	var draws []OfficialDraw
	for rows.Next() {
		var draw OfficialDraw
		if err := rows.Scan(&draw.ContestNumber, &draw.Date, &draw.Numbers); err != nil {
			return nil, fmt.Errorf("failed to scan official draw: %v", err)
		}
		draws = append(draws, draw)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error reading official draw rows: %v", err)
	}

	return draws, nil
}

// GetGeneratedGames 获取全部生成记录，新的在前
func (m *MySQLDB) GetGeneratedGames() ([]GeneratedGame, error) {
	query := `SELECT id, date, numbers, is_bet
			  FROM generated_games
			  ORDER BY id DESC`

	rows, err := m.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query generated games: %v", err)
	}
	defer rows.Close()

	var games []GeneratedGame
	for rows.Next() {
		var game GeneratedGame
		var isBet int
		if err := rows.Scan(&game.ID, &game.Date, &game.Numbers, &isBet); err != nil {
			return nil, fmt.Errorf("failed to scan generated game: %v", err)
		}
		game.IsBet = isBet == 1
		games = append(games, game)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error reading generated game rows: %v", err)
	}

	return games, nil
}

// SaveGeneratedGames 批量保存生成结果，返回保存条数
func (m *MySQLDB) SaveGeneratedGames(games []GameInput) (int, error) {
	if len(games) == 0 {
		return 0, nil
	}

	query := `INSERT INTO generated_games (date, numbers, is_bet) VALUES (?, ?, ?)`
	now := time.Now().Format("2006-01-02 15:04:05")

	saved := 0
	for _, game := range games {
		isBet := 0
		if game.IsBet {
			isBet = 1
		}
		if _, err := m.db.Exec(query, now, FormatNumbers(game.Numbers), isBet); err != nil {
			return saved, fmt.Errorf("failed to save generated game: %v", err)
		}
		saved++
	}

	logger.Debugf("Saved %d generated games", saved)
	return saved, nil
}

// SaveOfficialDraw 保存官方开奖记录；concurso号已存在时返回(false, nil)，不覆盖
func (m *MySQLDB) SaveOfficialDraw(draw *OfficialDraw) (bool, error) {
	query := `INSERT INTO official_draws (contest_number, date, numbers) VALUES (?, ?, ?)`

	_, err := m.db.Exec(query, draw.ContestNumber, draw.Date, draw.Numbers)
	if err != nil {
		if mysqlErr, ok := err.(*mysql.MySQLError); ok && mysqlErr.Number == 1062 {
			// 主键冲突属于预期情况：该期已登记
			logger.Debugf("Contest %d already registered, not added", draw.ContestNumber)
			return false, nil
		}
		return false, fmt.Errorf("failed to save official draw: %v", err)
	}

	logger.Debugf("Saved official draw: contest %d", draw.ContestNumber)
	return true, nil
}

// ContestExists 检查concurso号是否已登记
func (m *MySQLDB) ContestExists(contestNumber int64) (bool, error) {
	var count int
	query := `SELECT COUNT(*) FROM official_draws WHERE contest_number = ?`
	if err := m.db.QueryRow(query, contestNumber).Scan(&count); err != nil {
		return false, fmt.Errorf("failed to check contest existence: %v", err)
	}
	return count > 0, nil
}

// GetLatestContestNumber 获取最新登记的concurso号，无记录时返回0
func (m *MySQLDB) GetLatestContestNumber() (int64, error) {
	var contest int64
	query := `SELECT contest_number FROM official_draws ORDER BY contest_number DESC LIMIT 1`
	err := m.db.QueryRow(query).Scan(&contest)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get latest contest number: %v", err)
	}
	return contest, nil
}

// GetStoreStats 获取存储行数统计
func (m *MySQLDB) GetStoreStats() (*StoreStats, error) {
	var stats StoreStats

	if err := m.db.QueryRow(`SELECT COUNT(*) FROM generated_games`).Scan(&stats.TotalGames); err != nil {
		return nil, fmt.Errorf("failed to count generated games: %v", err)
	}
	if err := m.db.QueryRow(`SELECT COUNT(*) FROM generated_games WHERE is_bet = 1`).Scan(&stats.TotalBets); err != nil {
		return nil, fmt.Errorf("failed to count bets: %v", err)
	}
	if err := m.db.QueryRow(`SELECT COUNT(*) FROM official_draws`).Scan(&stats.TotalDraws); err != nil {
		return nil, fmt.Errorf("failed to count official draws: %v", err)
	}

	return &stats, nil
}

// createTablesIfNotExists 自动创建表结构
func (m *MySQLDB) createTablesIfNotExists() error {
	createGeneratedGames := `CREATE TABLE IF NOT EXISTS generated_games (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		date VARCHAR(30) NOT NULL COMMENT '生成时间',
		numbers VARCHAR(60) NOT NULL COMMENT '排序后的号码CSV',
		is_bet TINYINT NOT NULL DEFAULT 0 COMMENT '是否真实投注',
		INDEX idx_is_bet (is_bet)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci COMMENT='生成的投注建议表'`

	if _, err := m.db.Exec(createGeneratedGames); err != nil {
		return fmt.Errorf("failed to create generated_games table: %v", err)
	}

	createOfficialDraws := `CREATE TABLE IF NOT EXISTS official_draws (
		contest_number BIGINT PRIMARY KEY COMMENT 'concurso号',
		date VARCHAR(10) NOT NULL COMMENT '开奖日期 YYYY-MM-DD',
		numbers VARCHAR(60) NOT NULL COMMENT '排序后的号码CSV',
		INDEX idx_date (date)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci COMMENT='官方开奖记录表'`

	if _, err := m.db.Exec(createOfficialDraws); err != nil {
		return fmt.Errorf("failed to create official_draws table: %v", err)
	}

	return nil
}
