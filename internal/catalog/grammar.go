package catalog

import (
	"fmt"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"dominion/internal/domain"
)

// A card line reads:
//
//	market "Market": $5 Action = +1 card, +1 action, +1 buy, +$1
//
// The part after "=" lists the printed bonuses, which the vanilla rule applies.
type cardLine struct {
	Key     string   `parser:"@Ident"`
	Name    string   `parser:"@String \":\""`
	Cost    int      `parser:"\"$\" @Int"`
	Types   []string `parser:"@Ident+"`
	Bonuses []*bonus `parser:"( \"=\" @@ ( \",\" @@ )* )?"`
}

type bonus struct {
	Coins  *int    `parser:"  \"+\" \"$\" @Int"`
	Amount *amount `parser:"| @@"`
}

type amount struct {
	Sign string `parser:"@(\"+\" | \"-\")?"`
	N    int    `parser:"@Int"`
	Unit string `parser:"@Ident"`
}

var cardLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Comment", Pattern: `#[^\n]*`},
	{Name: "String", Pattern: `"(?:\\.|[^"])*"`},
	{Name: "Int", Pattern: `\d+`},
	{Name: "Ident", Pattern: `[a-zA-Z_][a-zA-Z0-9_]*`},
	{Name: "Punct", Pattern: `[-+,:=$]`},
	{Name: "Whitespace", Pattern: `\s+`},
})

var lineParser = participle.MustBuild[cardLine](
	participle.Lexer(cardLexer),
	participle.Elide("Whitespace", "Comment"),
	participle.Unquote("String"),
	participle.UseLookahead(2),
)

var typeNames = map[string]domain.CardType{
	"action":   domain.TypeAction,
	"treasure": domain.TypeTreasure,
	"victory":  domain.TypeVictory,
	"attack":   domain.TypeAttack,
	"reaction": domain.TypeReaction,
	"curse":    domain.TypeCurse,
}

// ParseLine parses one card line into a Definition.
func ParseLine(line string) (Definition, error) {
	parsed, err := lineParser.ParseString("", line)
	if err != nil {
		return Definition{}, fmt.Errorf("%w: %v", ErrBadCardLine, err)
	}

	def := Definition{Key: parsed.Key, Name: parsed.Name, Cost: parsed.Cost, Text: line}
	for _, t := range parsed.Types {
		ct, ok := typeNames[strings.ToLower(t)]
		if !ok {
			return Definition{}, fmt.Errorf("%w: %s: unknown type %q", ErrBadCardLine, parsed.Key, t)
		}
		def.Types = append(def.Types, ct)
	}

	for _, b := range parsed.Bonuses {
		if b.Coins != nil {
			def.Coins += *b.Coins
			continue
		}
		n := b.Amount.N
		if b.Amount.Sign == "-" {
			n = -n
		}
		switch strings.ToLower(b.Amount.Unit) {
		case "card", "cards":
			def.Cards += n
		case "action", "actions":
			def.Actions += n
		case "buy", "buys":
			def.Buys += n
		case "vp":
			def.VP += n
		default:
			return Definition{}, fmt.Errorf("%w: %s: unknown bonus %q", ErrBadCardLine, parsed.Key, b.Amount.Unit)
		}
	}
	return def, nil
}
