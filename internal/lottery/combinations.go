package lottery

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// TopCombinations 组合频率排行的固定条数
const TopCombinations = 15

// FrequencyEntry 某个k元组合在历史开奖中的出现次数，不持久化
type FrequencyEntry struct {
	Combination []int `json:"combination"`
	Count       int   `json:"count"`
}

// Frequencies 统计全部开奖中每个k元组合的同期共现频率，
// 按次数降序取前15条。同次数的先后顺序未定义，保持首次出现顺序。
// 组合只在单期内部枚举，不跨期组合。
func Frequencies(draws [][]int, k int) ([]FrequencyEntry, error) {
	if k < 2 || k > 5 {
		return nil, fmt.Errorf("combination size must be between 2 and 5, got %d", k)
	}

	counts := make(map[string]int)
	var order []string

	for _, draw := range draws {
		sorted := make([]int, len(draw))
		copy(sorted, draw)
		sort.Ints(sorted)

		forEachCombination(sorted, k, func(combo []int) {
			key := comboKey(combo)
			if _, seen := counts[key]; !seen {
				order = append(order, key)
			}
			counts[key]++
		})
	}

	entries := make([]FrequencyEntry, 0, len(order))
	for _, key := range order {
		entries = append(entries, FrequencyEntry{
			Combination: parseComboKey(key),
			Count:       counts[key],
		})
	}

	// 稳定排序保持首次出现顺序作为平局顺序
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Count > entries[j].Count
	})

	if len(entries) > TopCombinations {
		entries = entries[:TopCombinations]
	}
	return entries, nil
}

// forEachCombination 枚举已排序号码的全部k元子集
func forEachCombination(numbers []int, k int, fn func([]int)) {
	n := len(numbers)
	if k > n {
		return
	}

	indices := make([]int, k)
	for i := range indices {
		indices[i] = i
	}

	combo := make([]int, k)
	for {
		for i, idx := range indices {
			combo[i] = numbers[idx]
		}
		fn(combo)

		// 找到可推进的最右位置
		i := k - 1
		for i >= 0 && indices[i] == n-k+i {
			i--
		}
		if i < 0 {
			return
		}
		indices[i]++
		for j := i + 1; j < k; j++ {
			indices[j] = indices[j-1] + 1
		}
	}
}

func comboKey(combo []int) string {
	parts := make([]string, len(combo))
	for i, n := range combo {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ",")
}

func parseComboKey(key string) []int {
	parts := strings.Split(key, ",")
	combo := make([]int, len(parts))
	for i, part := range parts {
		combo[i], _ = strconv.Atoi(part)
	}
	return combo
}
