package bot

import (
	"dominion/internal/domain"
	"dominion/internal/engine"
)

// BuyContext holds the state for the buy decision pipeline.
type BuyContext struct {
	Match    *domain.Match
	Player   string
	Treasure int
	// Pick is the pile chosen so far; the first rule to set it wins.
	Pick string
}

// BuyRule represents a logic unit that may pick the pile to buy from.
type BuyRule interface {
	Name() string
	Apply(ctx *BuyContext)
}

func runPipeline(rules []BuyRule, ctx *BuyContext) string {
	for _, r := range rules {
		if ctx.Pick != "" {
			break
		}
		r.Apply(ctx)
	}
	return ctx.Pick
}

func (c *BuyContext) affordable(key string) bool {
	top, ok := c.Match.PileTop(key)
	return ok && engine.EffectiveCost(c.Match, c.Player, top) <= c.Treasure
}

func (c *BuyContext) owned(key string) int {
	n := 0
	for _, id := range c.Match.Owned(c.Player) {
		if c.Match.Card(id).Key == key {
			n++
		}
	}
	return n
}

func (c *BuyContext) pick(key string) {
	if c.affordable(key) {
		c.Pick = key
	}
}

type BuyProvinceRule struct{ GoldFirst int }

func (r *BuyProvinceRule) Name() string { return "BuyProvince" }

func (r *BuyProvinceRule) Apply(ctx *BuyContext) {
	if ctx.owned("gold") >= r.GoldFirst {
		ctx.pick(domain.ProvinceKey)
	}
}

// BuyVictoryRule greens once the Province pile runs low.
type BuyVictoryRule struct {
	Key           string
	ProvincesLeft int
}

func (r *BuyVictoryRule) Name() string { return "Buy_" + r.Key }

func (r *BuyVictoryRule) Apply(ctx *BuyContext) {
	if ctx.Match.PileSize(domain.ProvinceKey) <= r.ProvincesLeft {
		ctx.pick(r.Key)
	}
}

type BuyTreasureRule struct{ Key string }

func (r *BuyTreasureRule) Name() string { return "Buy_" + r.Key }

func (r *BuyTreasureRule) Apply(ctx *BuyContext) { ctx.pick(r.Key) }

// BuySmithyRule keeps roughly one Smithy per Per cards owned.
type BuySmithyRule struct {
	Per int
	Max int
}

func (r *BuySmithyRule) Name() string { return "BuySmithy" }

func (r *BuySmithyRule) Apply(ctx *BuyContext) {
	have := ctx.owned("smithy")
	if have >= r.Max {
		return
	}
	if have*r.Per <= len(ctx.Match.Owned(ctx.Player)) {
		ctx.pick("smithy")
	}
}
