// Package catalog loads card definitions and lays out the piles of a match.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"slices"
	"sort"

	"gopkg.in/yaml.v3"

	"dominion/internal/domain"
)

//go:embed base.yaml
var baseYAML []byte

var (
	ErrBadCardLine   = errors.New("invalid card line")
	ErrUnknownCard   = errors.New("unknown card")
	ErrUnknownPreset = errors.New("unknown kingdom preset")
	ErrBadKingdom    = errors.New("invalid kingdom")
	ErrPlayerCount   = errors.New("unsupported player count")
)

// Definition is the printed identity of a card.
type Definition struct {
	Key     string
	Name    string
	Cost    int
	Types   []domain.CardType
	Cards   int
	Actions int
	Buys    int
	Coins   int
	VP      int
	Text    string
}

func (d Definition) HasType(t domain.CardType) bool {
	return slices.Contains(d.Types, t)
}

// PileSpec sizes one supply pile.
type PileSpec struct {
	Key         string `yaml:"key"`
	Count       int    `yaml:"count"`
	Victory     bool   `yaml:"victory"`
	PerOpponent int    `yaml:"per_opponent"`
}

type file struct {
	Cards            []string            `yaml:"cards"`
	Supply           []PileSpec          `yaml:"supply"`
	StartingDeck     []PileSpec          `yaml:"starting_deck"`
	KingdomSize      int                 `yaml:"kingdom_size"`
	VictorySize      int                 `yaml:"victory_size"`
	VictorySizeLarge int                 `yaml:"victory_size_large"`
	Presets          map[string][]string `yaml:"presets"`
}

// Catalog is an immutable set of card definitions plus setup rules.
type Catalog struct {
	defs  map[string]Definition
	order []string

	supply           []PileSpec
	startingDeck     []PileSpec
	kingdomSize      int
	victorySize      int
	victorySizeLarge int
	presets          map[string][]string
}

// Default returns the embedded base set.
func Default() (*Catalog, error) {
	return Parse(baseYAML)
}

// Load reads a catalog file.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	return Parse(data)
}

// Parse decodes a catalog document and validates its references.
func Parse(data []byte) (*Catalog, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to unmarshal catalog: %w", err)
	}

	c := &Catalog{
		defs:             make(map[string]Definition, len(f.Cards)),
		supply:           f.Supply,
		startingDeck:     f.StartingDeck,
		kingdomSize:      f.KingdomSize,
		victorySize:      f.VictorySize,
		victorySizeLarge: f.VictorySizeLarge,
		presets:          f.Presets,
	}
	if c.kingdomSize <= 0 {
		c.kingdomSize = 10
	}
	if c.victorySize <= 0 {
		c.victorySize = 8
	}
	if c.victorySizeLarge <= 0 {
		c.victorySizeLarge = 12
	}

	for _, line := range f.Cards {
		def, err := ParseLine(line)
		if err != nil {
			return nil, err
		}
		if _, dup := c.defs[def.Key]; dup {
			return nil, fmt.Errorf("%w: %s defined twice", ErrBadCardLine, def.Key)
		}
		c.defs[def.Key] = def
		c.order = append(c.order, def.Key)
	}

	for _, spec := range slices.Concat(f.Supply, f.StartingDeck) {
		if _, ok := c.defs[spec.Key]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownCard, spec.Key)
		}
	}
	for name, keys := range f.Presets {
		if err := c.validateKingdom(keys); err != nil {
			return nil, fmt.Errorf("preset %s: %w", name, err)
		}
	}
	return c, nil
}

// Definition returns the definition for a key.
func (c *Catalog) Definition(key string) (Definition, bool) {
	d, ok := c.defs[key]
	return d, ok
}

// Definitions returns every definition in file order.
func (c *Catalog) Definitions() []Definition {
	out := make([]Definition, 0, len(c.order))
	for _, k := range c.order {
		out = append(out, c.defs[k])
	}
	return out
}

// Preset returns the kingdom of a named preset.
func (c *Catalog) Preset(name string) ([]string, error) {
	keys, ok := c.presets[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPreset, name)
	}
	return slices.Clone(keys), nil
}

// PresetNames lists the presets in lexical order.
func (c *Catalog) PresetNames() []string {
	names := make([]string, 0, len(c.presets))
	for n := range c.presets {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func (c *Catalog) validateKingdom(keys []string) error {
	seen := make(map[string]bool, len(keys))
	for _, k := range keys {
		if _, ok := c.defs[k]; !ok {
			return fmt.Errorf("%w: %s", ErrUnknownCard, k)
		}
		if seen[k] {
			return fmt.Errorf("%w: %s listed twice", ErrBadKingdom, k)
		}
		if slices.ContainsFunc(c.supply, func(p PileSpec) bool { return p.Key == k }) {
			return fmt.Errorf("%w: %s is a base supply pile", ErrBadKingdom, k)
		}
		seen[k] = true
	}
	return nil
}

func (c *Catalog) pileSize(spec PileSpec, players int) int {
	switch {
	case spec.Victory:
		return c.victoryPileSize(players)
	case spec.PerOpponent > 0:
		return spec.PerOpponent * (players - 1)
	}
	return spec.Count
}

func (c *Catalog) victoryPileSize(players int) int {
	if players <= 2 {
		return c.victorySize
	}
	return c.victorySizeLarge
}

// NewCard builds a card instance from a definition. The id is assigned by
// the library.
func (c *Catalog) NewCard(key, owner string) (domain.Card, error) {
	def, ok := c.defs[key]
	if !ok {
		return domain.Card{}, fmt.Errorf("%w: %s", ErrUnknownCard, key)
	}
	return domain.Card{
		Key:   def.Key,
		Name:  def.Name,
		Owner: owner,
		Cost:  def.Cost,
		Types: slices.Clone(def.Types),
		VP:    def.VP,
		Coins: def.Coins,
	}, nil
}

// Setup populates an empty match: base supply piles, the kingdom piles
// ordered by cost, and a shuffled starting deck per player.
func (c *Catalog) Setup(m *domain.Match, kingdom []string, rng *rand.Rand) error {
	players := len(m.Players)
	if players < domain.MinPlayers || players > domain.MaxPlayers {
		return fmt.Errorf("%w: %d", ErrPlayerCount, players)
	}
	if err := c.validateKingdom(kingdom); err != nil {
		return err
	}

	supply := domain.KeyOf(domain.Supply, "")
	for _, spec := range c.supply {
		if err := c.fill(m, spec.Key, "", supply, c.pileSize(spec, players)); err != nil {
			return err
		}
		m.Piles = append(m.Piles, spec.Key)
	}

	ordered := slices.Clone(kingdom)
	sort.SliceStable(ordered, func(i, j int) bool {
		a, b := c.defs[ordered[i]], c.defs[ordered[j]]
		if a.Cost != b.Cost {
			return a.Cost < b.Cost
		}
		return a.Key < b.Key
	})
	kingdomLoc := domain.KeyOf(domain.Kingdom, "")
	for _, key := range ordered {
		size := c.kingdomSize
		if c.defs[key].HasType(domain.TypeVictory) {
			size = c.victoryPileSize(players)
		}
		if err := c.fill(m, key, "", kingdomLoc, size); err != nil {
			return err
		}
		m.Piles = append(m.Piles, key)
	}

	for _, p := range m.Players {
		deck := domain.DeckOf(p)
		for _, spec := range c.startingDeck {
			if err := c.fill(m, spec.Key, p, deck, spec.Count); err != nil {
				return err
			}
		}
		ids := m.Locations[deck]
		rng.Shuffle(len(ids), func(i, j int) { ids[i], ids[j] = ids[j], ids[i] })
	}
	return nil
}

func (c *Catalog) fill(m *domain.Match, key, owner string, loc domain.LocationKey, n int) error {
	for i := 0; i < n; i++ {
		card, err := c.NewCard(key, owner)
		if err != nil {
			return err
		}
		created := m.Library.Create(card)
		m.Insert(loc, created.ID, false)
	}
	return nil
}
