package database

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Mega-Sena 取数范围
const (
	MinNumber  = 1
	MaxNumber  = 60
	TicketSize = 6
)

// OfficialDraw 官方开奖记录，concurso号为主键，只增不改
type OfficialDraw struct {
	ContestNumber int64  `json:"contest_number" db:"contest_number"`
	Date          string `json:"date" db:"date"` // YYYY-MM-DD
	Numbers       string `json:"numbers" db:"numbers"`
}

// GeneratedGame 生成的投注建议记录
type GeneratedGame struct {
	ID      int64  `json:"id" db:"id"`
	Date    string `json:"date" db:"date"` // 生成时间 YYYY-MM-DD HH:MM:SS
	Numbers string `json:"numbers" db:"numbers"`
	IsBet   bool   `json:"is_bet" db:"is_bet"` // true=真实投注, false=仅建议
}

// GameInput 待保存的生成结果（两阶段提交的commit输入）
type GameInput struct {
	Numbers []int `json:"numbers"`
	IsBet   bool  `json:"is_bet"`
}

// StoreStats 存储行数统计
type StoreStats struct {
	TotalGames int `json:"total_games"`
	TotalBets  int `json:"total_bets"`
	TotalDraws int `json:"total_draws"`
}

// Store 核心所需的存储操作集合
type Store interface {
	GetOfficialDraws() ([]OfficialDraw, error)
	GetGeneratedGames() ([]GeneratedGame, error)
	SaveGeneratedGames(games []GameInput) (int, error)
	SaveOfficialDraw(draw *OfficialDraw) (bool, error)
	ContestExists(contestNumber int64) (bool, error)
	GetStoreStats() (*StoreStats, error)
}

// FormatNumbers 将号码列表格式化为排序后的CSV字符串
func FormatNumbers(numbers []int) string {
	sorted := make([]int, len(numbers))
	copy(sorted, numbers)
	sort.Ints(sorted)

	parts := make([]string, len(sorted))
	for i, n := range sorted {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ",")
}

// ParseNumbers 解析CSV号码字符串
func ParseNumbers(numbersStr string) ([]int, error) {
	parts := strings.Split(numbersStr, ",")
	nums := make([]int, 0, len(parts))
	for _, part := range parts {
		num, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("failed to parse number: %s", part)
		}
		nums = append(nums, num)
	}
	return nums, nil
}

// ValidateTicket 校验一组号码是否为合法的Mega-Sena投注
func ValidateTicket(numbers []int, minSize, maxSize int) error {
	if len(numbers) < minSize || len(numbers) > maxSize {
		return fmt.Errorf("ticket must have between %d and %d numbers, got %d", minSize, maxSize, len(numbers))
	}

	seen := make(map[int]bool, len(numbers))
	for _, n := range numbers {
		if n < MinNumber || n > MaxNumber {
			return fmt.Errorf("number out of range (%d-%d): %d", MinNumber, MaxNumber, n)
		}
		if seen[n] {
			return fmt.Errorf("duplicate number: %d", n)
		}
		seen[n] = true
	}
	return nil
}

// ParseDrawDate 解析开奖日期
func ParseDrawDate(dateStr string) (time.Time, error) {
	return time.Parse("2006-01-02", dateStr)
}
