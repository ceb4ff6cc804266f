package lottery

import "sort"

// NumberFrequency 单个号码的出现频率
type NumberFrequency struct {
	Number int `json:"number"`
	Count  int `json:"count"`
}

// NumberFrequencies 统计一批号码集合中每个号码的出现次数，
// 按次数降序取前topN条，同次数按号码升序
func NumberFrequencies(tickets [][]int, topN int) []NumberFrequency {
	counts := make(map[int]int)
	for _, ticket := range tickets {
		for _, n := range ticket {
			counts[n]++
		}
	}

	entries := make([]NumberFrequency, 0, len(counts))
	for n, c := range counts {
		entries = append(entries, NumberFrequency{Number: n, Count: c})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Count != entries[j].Count {
			return entries[i].Count > entries[j].Count
		}
		return entries[i].Number < entries[j].Number
	})

	if topN > 0 && len(entries) > topN {
		entries = entries[:topN]
	}
	return entries
}

// MostFrequentNumber 返回出现最多的号码及次数，空输入时返回(0, 0)
func MostFrequentNumber(tickets [][]int) (int, int) {
	top := NumberFrequencies(tickets, 1)
	if len(top) == 0 {
		return 0, 0
	}
	return top[0].Number, top[0].Count
}
