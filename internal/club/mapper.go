package club

import (
	"context"
	"errors"
	"sort"
	"strings"
	"unicode"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/pong-ladder/internal/ledger"
)

// PlayerSuggestion is a player whose name resembles a query.
type PlayerSuggestion struct {
	Player     ledger.Player
	Confidence float64
}

// PlayerResolver turns what people type ("wes", "J Lin", a player id) into a
// ladder player.
type PlayerResolver struct {
	store ClubStore
}

// NewPlayerResolver creates a resolver over store.
func NewPlayerResolver(store ClubStore) *PlayerResolver {
	return &PlayerResolver{store: store}
}

// Resolve finds the player a query refers to. An id or an exact name wins
// outright; otherwise the closest name is accepted when it is a confident,
// unambiguous match. When no player can be chosen the suggestions are
// returned alongside a NotFoundError.
func (r *PlayerResolver) Resolve(ctx context.Context, query string) (*ledger.Player, []PlayerSuggestion, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil, &ledger.ValidationError{Field: "player", Reason: "is required"}
	}

	if p, err := r.store.GetPlayer(ctx, query); err == nil {
		return p, nil, nil
	} else if !errors.Is(err, ledger.ErrNotFound) {
		return nil, nil, err
	}
	if p, err := r.store.FindPlayerByName(ctx, query); err == nil {
		return p, nil, nil
	} else if !errors.Is(err, ledger.ErrNotFound) {
		return nil, nil, err
	}

	players, err := r.store.ListPlayers(ctx)
	if err != nil {
		return nil, nil, err
	}
	suggestions := findSimilarPlayers(query, players)

	if len(suggestions) > 0 && suggestions[0].Confidence > 0.8 &&
		(len(suggestions) == 1 || suggestions[1].Confidence < suggestions[0].Confidence) {
		log.Debug("Resolved player by similarity", "query", query, "player", suggestions[0].Player.Name, "confidence", suggestions[0].Confidence)
		p := suggestions[0].Player
		return &p, nil, nil
	}
	return nil, suggestions, &ledger.NotFoundError{Kind: "player", ID: query}
}

// findSimilarPlayers ranks players by name similarity, best five first.
func findSimilarPlayers(query string, players []ledger.Player) []PlayerSuggestion {
	var suggestions []PlayerSuggestion
	for _, p := range players {
		score := similarity(query, p.Name)
		if score > 0.3 {
			suggestions = append(suggestions, PlayerSuggestion{Player: p, Confidence: score})
		}
	}

	sort.SliceStable(suggestions, func(i, j int) bool {
		return suggestions[i].Confidence > suggestions[j].Confidence
	})
	if len(suggestions) > 5 {
		suggestions = suggestions[:5]
	}
	return suggestions
}

// similarity scores how well query matches name. A query that is a prefix of
// the name or of one of its words counts as a strong match, since people type
// "wes" for Wesley.
func similarity(query, name string) float64 {
	q, n := normalizeName(query), normalizeName(name)
	if q == "" || n == "" {
		return 0
	}
	if q == n {
		return 1
	}
	best := stringSimilarity(q, n)
	if t := tokenSimilarity(q, n); t > best {
		best = t
	}
	for _, word := range strings.Fields(n) {
		if !strings.HasPrefix(word, q) {
			continue
		}
		if prefix := min(0.85+0.15*float64(len(q))/float64(len(word)), 0.99); prefix > best {
			best = prefix
		}
	}
	return best
}

func normalizeName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))

	var result strings.Builder
	for _, r := range name {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			result.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(result.String()), " ")
}

func stringSimilarity(s1, s2 string) float64 {
	if s1 == s2 {
		return 1
	}
	if s1 == "" || s2 == "" {
		return 0
	}
	r1, r2 := []rune(s1), []rune(s2)
	return 1 - float64(levenshteinDistance(r1, r2))/float64(max(len(r1), len(r2)))
}

// tokenSimilarity is the share of words that nearly match a word of the other
// name.
func tokenSimilarity(s1, s2 string) float64 {
	tokens1, tokens2 := strings.Fields(s1), strings.Fields(s2)
	if len(tokens1) == 0 || len(tokens2) == 0 {
		return 0
	}

	var matchCount int
	for _, t1 := range tokens1 {
		for _, t2 := range tokens2 {
			if stringSimilarity(t1, t2) > 0.8 {
				matchCount++
				break
			}
		}
	}
	return float64(matchCount) / float64(max(len(tokens1), len(tokens2)))
}

func levenshteinDistance(s1, s2 []rune) int {
	prev := make([]int, len(s2)+1)
	cur := make([]int, len(s2)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(s1); i++ {
		cur[0] = i
		for j := 1; j <= len(s2); j++ {
			cost := 1
			if s1[i-1] == s2[j-1] {
				cost = 0
			}
			cur[j] = min(prev[j]+1, cur[j-1]+1, prev[j-1]+cost)
		}
		prev, cur = cur, prev
	}
	return prev[len(s2)]
}
