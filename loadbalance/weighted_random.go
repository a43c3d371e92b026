package loadbalance

import (
	"math/rand"

	"github.com/juju/errors"
	"zabbix-rpc/registry"
)

type WeightedRandomBalancer struct{}

// Pick selects an endpoint with probability proportional to its weight.
// Endpoints with a non-positive weight count as weight 1.
func (b *WeightedRandomBalancer) Pick(endpoints []registry.Endpoint, _ string) (*registry.Endpoint, error) {
	if len(endpoints) == 0 {
		return nil, ErrNoEndpoints
	}

	// 计算总权重
	totalWeight := 0
	for _, v := range endpoints {
		totalWeight += weightOf(v)
	}

	// 生成一个随机数，范围是0到总权重
	r := rand.Intn(totalWeight)
	for i := range endpoints {
		r -= weightOf(endpoints[i])
		if r < 0 {
			return &endpoints[i], nil
		}
	}

	return nil, errors.New("unexpected error in weighted random selection")
}

func weightOf(e registry.Endpoint) int {
	if e.Weight <= 0 {
		return 1
	}
	return e.Weight
}

func (b *WeightedRandomBalancer) Name() string {
	return "WeightedRandom"
}
