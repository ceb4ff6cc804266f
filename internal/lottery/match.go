package lottery

import (
	"sort"

	"megasena-service/internal/database"
)

// 奖级对应的命中数
const (
	HitsSena   = 6
	HitsQuina  = 5
	HitsQuadra = 4
	HitsTerno  = 3

	// MinSimulationHits 模拟查询的固定最低命中数，业务规则，不可配置
	MinSimulationHits = 3

	// MaxSimulationSize 模拟投注允许的最大号码数（对应实际投注上限）
	MaxSimulationSize = 15
)

// MatchResult 一注号码与一期开奖的比对结果，不持久化
type MatchResult struct {
	Numbers  []int  `json:"numbers"`
	Hits     []int  `json:"hits"`
	HitCount int    `json:"hit_count"`
	Tier     string `json:"tier,omitempty"`

	// 来源元数据，按比对对象填充其一
	GameID        int64  `json:"game_id,omitempty"`
	GameDate      string `json:"game_date,omitempty"`
	IsBet         bool   `json:"is_bet,omitempty"`
	ContestNumber int64  `json:"contest_number,omitempty"`
	DrawDate      string `json:"draw_date,omitempty"`
}

// Score 计算candidate与reference的交集命中
func Score(candidate, reference []int) MatchResult {
	refSet := make(map[int]bool, len(reference))
	for _, n := range reference {
		refSet[n] = true
	}

	var hits []int
	for _, n := range candidate {
		if refSet[n] {
			hits = append(hits, n)
		}
	}
	sort.Ints(hits)

	sorted := make([]int, len(candidate))
	copy(sorted, candidate)
	sort.Ints(sorted)

	return MatchResult{
		Numbers:  sorted,
		Hits:     hits,
		HitCount: len(hits),
		Tier:     TierForHits(len(hits)),
	}
}

// TierForHits 命中数对应的奖级名称，低于Terno为空
func TierForHits(hits int) string {
	switch hits {
	case HitsSena:
		return "sena"
	case HitsQuina:
		return "quina"
	case HitsQuadra:
		return "quadra"
	case HitsTerno:
		return "terno"
	default:
		return ""
	}
}

// RankGames 按命中数对生成记录排序：命中降序，平局时真实投注在前，再新者在前
func RankGames(games []database.GeneratedGame, reference []int, minHits int) []MatchResult {
	var results []MatchResult
	for _, game := range games {
		nums, err := database.ParseNumbers(game.Numbers)
		if err != nil {
			continue
		}

		result := Score(nums, reference)
		if result.HitCount < minHits {
			continue
		}

		result.GameID = game.ID
		result.GameDate = game.Date
		result.IsBet = game.IsBet
		results = append(results, result)
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].HitCount != results[j].HitCount {
			return results[i].HitCount > results[j].HitCount
		}
		if results[i].IsBet != results[j].IsBet {
			return results[i].IsBet
		}
		return results[i].GameID > results[j].GameID
	})

	return results
}

// RankDraws 按命中数对历史开奖排序：命中降序，平局时concurso号大者（更近期）在前
func RankDraws(draws []database.OfficialDraw, candidate []int, minHits int) []MatchResult {
	var results []MatchResult
	for _, draw := range draws {
		nums, err := database.ParseNumbers(draw.Numbers)
		if err != nil {
			continue
		}

		// 开奖号码作为参照，命中的是candidate中的号码
		result := Score(nums, candidate)
		if result.HitCount < minHits {
			continue
		}

		result.ContestNumber = draw.ContestNumber
		result.DrawDate = draw.Date
		results = append(results, result)
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].HitCount != results[j].HitCount {
			return results[i].HitCount > results[j].HitCount
		}
		return results[i].ContestNumber > results[j].ContestNumber
	})

	return results
}
