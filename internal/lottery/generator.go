package lottery

import (
	"fmt"
	"math/rand"
	"sort"
	"time"

	"megasena-service/internal/database"
)

// Generator 号码生成器，随机源可注入以便测试
type Generator struct {
	rng *rand.Rand
}

// NewGenerator 创建生成器，rng为nil时使用时间种子
func NewGenerator(rng *rand.Rand) *Generator {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Generator{rng: rng}
}

// Generate 生成一注号码：固定号码 + 从剩余范围等概率无放回抽取
func (g *Generator) Generate(fixed []int, size int) ([]int, error) {
	if size < 1 || size > database.MaxNumber {
		return nil, fmt.Errorf("invalid ticket size: %d", size)
	}
	if len(fixed) >= size {
		return nil, fmt.Errorf("too many fixed numbers: max %d, got %d", size-1, len(fixed))
	}

	fixedSet := make(map[int]bool, len(fixed))
	for _, n := range fixed {
		if n < database.MinNumber || n > database.MaxNumber {
			return nil, fmt.Errorf("fixed number out of range (%d-%d): %d", database.MinNumber, database.MaxNumber, n)
		}
		if fixedSet[n] {
			return nil, fmt.Errorf("duplicate fixed number: %d", n)
		}
		fixedSet[n] = true
	}

	// 候选池 = [1,60] \ fixed
	pool := make([]int, 0, database.MaxNumber-len(fixed))
	for n := database.MinNumber; n <= database.MaxNumber; n++ {
		if !fixedSet[n] {
			pool = append(pool, n)
		}
	}

	needed := size - len(fixed)
	g.rng.Shuffle(len(pool), func(i, j int) {
		pool[i], pool[j] = pool[j], pool[i]
	})

	ticket := make([]int, 0, size)
	ticket = append(ticket, fixed...)
	ticket = append(ticket, pool[:needed]...)
	sort.Ints(ticket)

	return ticket, nil
}

// ProposeBatch 生成n注候选号码，不做任何持久化；
// 保存与投注标记由调用方在确认后另行提交
func (g *Generator) ProposeBatch(n int, fixed []int) ([][]int, error) {
	if n < 1 {
		return nil, fmt.Errorf("batch size must be positive, got %d", n)
	}

	batch := make([][]int, 0, n)
	for i := 0; i < n; i++ {
		ticket, err := g.Generate(fixed, database.TicketSize)
		if err != nil {
			return nil, err
		}
		batch = append(batch, ticket)
	}
	return batch, nil
}
