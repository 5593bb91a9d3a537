// Package detect contains the lightweight text detectors that drive the
// display surface: the keyword mapper that flips the equipment carousel to
// the card the user is talking about, and the topic mapper that picks the
// 3D model shown alongside the conversation.
//
// Both run on every normalized transcript, independent of how the response
// itself is produced.
package detect

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"sort"
	"strings"

	"github.com/wiredbrain/axiom/internal/retrieval"
)

var (
	brandPrefixPattern = regexp.MustCompile(`(?i)^(nvidia|intel|raspberry|unitree|arduino)\s+`)
	ramPattern         = regexp.MustCompile(`(?i)(\d+GB)`)
	modelNumberPattern = regexp.MustCompile(`([A-Z]\d+[A-Za-z]*)`)
	versionPattern     = regexp.MustCompile(`v(\d+)`)
	wordPattern        = regexp.MustCompile(`\b\w{3,}\b`)
)

// Architecture names that disambiguate otherwise similar boards, such as the
// Jetson Nano (Maxwell) from the Jetson Orin Nano (Ampere).
var architectureNames = []string{"maxwell", "ampere", "cortex", "turing", "pascal"}

var keywordStopwords = map[string]struct{}{
	"the": {}, "and": {}, "with": {}, "for": {}, "from": {},
	"ltd": {}, "inc": {}, "corp": {},
}

// KeywordMatch reports a detected product mention: the carousel card to show
// and the keyword that triggered it.
type KeywordMatch struct {
	CardIndex int
	Keyword   string
}

type keywordEntry struct {
	keyword      string
	inventoryIdx int
	// pattern is set for single words, which need word-boundary matching.
	// Multi-word phrases match by plain substring.
	pattern *regexp.Regexp
}

// KeywordMapper maps product mentions in transcripts to carousel card
// indices. Keywords are derived from the inventory: full names, brand-
// stripped names, disambiguating spec terms, categories and significant name
// words. Longer keywords win, so "jetson orin nano" beats "jetson".
type KeywordMapper struct {
	inventory     []*retrieval.Equipment
	entries       []keywordEntry
	carouselByInv map[int]int
	invByCarousel map[int]int
	log           *slog.Logger
}

// NewKeywordMapper builds the keyword table from an inventory. mappingPath
// points to the carousel layout file; if it is empty or missing, inventory
// order is assumed to match carousel order.
func NewKeywordMapper(inv *retrieval.Inventory, mappingPath string, log *slog.Logger) *KeywordMapper {
	if log == nil {
		log = slog.Default()
	}
	m := &KeywordMapper{
		inventory: inv.Items,
		log:       log,
	}
	m.carouselByInv = loadCarouselMapping(mappingPath, len(inv.Items), log)
	m.invByCarousel = make(map[int]int, len(m.carouselByInv))
	for invIdx, carIdx := range m.carouselByInv {
		m.invByCarousel[carIdx] = invIdx
	}
	m.buildEntries()

	log.Info("keyword mapper ready",
		slog.Int("products", len(m.inventory)),
		slog.Int("keywords", len(m.entries)))
	return m
}

// loadCarouselMapping reads the inventory-to-carousel index file. Both a bare
// array and an object with a "carousel_mapping" array are accepted. Any load
// failure falls back to a 1:1 mapping.
func loadCarouselMapping(path string, inventorySize int, log *slog.Logger) map[int]int {
	identity := func() map[int]int {
		m := make(map[int]int, inventorySize)
		for i := 0; i < inventorySize; i++ {
			m[i] = i
		}
		return m
	}
	if path == "" {
		return identity()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		log.Warn("carousel mapping unavailable, using direct indices", slog.String("error", err.Error()))
		return identity()
	}

	type pair struct {
		InventoryIndex *int `json:"inventory_index"`
		CarouselIndex  *int `json:"carousel_index"`
	}
	var pairs []pair
	if err := json.Unmarshal(data, &pairs); err != nil {
		var wrapper struct {
			CarouselMapping []pair `json:"carousel_mapping"`
		}
		if err := json.Unmarshal(data, &wrapper); err != nil {
			log.Warn("carousel mapping malformed, using direct indices", slog.String("path", path))
			return identity()
		}
		pairs = wrapper.CarouselMapping
	}

	m := make(map[int]int, len(pairs))
	for _, p := range pairs {
		if p.InventoryIndex != nil && p.CarouselIndex != nil {
			m[*p.InventoryIndex] = *p.CarouselIndex
		}
	}
	return m
}

func (m *KeywordMapper) buildEntries() {
	claimed := make(map[string]struct{})
	for idx, product := range m.inventory {
		for _, kw := range extractKeywords(product) {
			// Keyword collisions between products go to the earlier
			// inventory entry.
			if _, taken := claimed[kw]; taken {
				continue
			}
			claimed[kw] = struct{}{}

			entry := keywordEntry{keyword: kw, inventoryIdx: idx}
			if !strings.Contains(kw, " ") {
				entry.pattern = regexp.MustCompile(`\b` + regexp.QuoteMeta(kw) + `\b`)
			}
			m.entries = append(m.entries, entry)
		}
	}
	// Longest keyword first, so the most specific product mention wins.
	sort.SliceStable(m.entries, func(i, j int) bool {
		return len(m.entries[i].keyword) > len(m.entries[j].keyword)
	})
}

// extractKeywords derives the keyword list for one product, most specific
// first, de-duplicated.
func extractKeywords(product *retrieval.Equipment) []string {
	var keywords []string
	name := product.Name

	keywords = append(keywords, strings.ToLower(name))

	noBrand := brandPrefixPattern.ReplaceAllString(name, "")
	if !strings.EqualFold(noBrand, name) {
		keywords = append(keywords, strings.ToLower(noBrand))
	}

	keywords = append(keywords, specKeywords(name, specsText(product))...)
	keywords = append(keywords, strings.ToLower(product.Category))

	for _, word := range wordPattern.FindAllString(strings.ToLower(name), -1) {
		if _, stop := keywordStopwords[word]; !stop {
			keywords = append(keywords, word)
		}
	}

	sort.SliceStable(keywords, func(i, j int) bool {
		return len(keywords[i]) > len(keywords[j])
	})
	seen := make(map[string]struct{}, len(keywords))
	var unique []string
	for _, kw := range keywords {
		kw = strings.TrimSpace(kw)
		if kw == "" {
			continue
		}
		if _, dup := seen[kw]; dup {
			continue
		}
		seen[kw] = struct{}{}
		unique = append(unique, kw)
	}
	return unique
}

// specsText renders the product's spec pairs as one searchable string.
func specsText(product *retrieval.Equipment) string {
	var parts []string
	for _, k := range product.SpecOrder {
		parts = append(parts, k+": "+product.Specs[k])
	}
	return strings.Join(parts, "; ")
}

// specKeywords pulls the terms that tell similar products apart: RAM sizes,
// model numbers, GPU architectures and version suffixes.
func specKeywords(name, specs string) []string {
	var out []string

	if m := ramPattern.FindStringSubmatch(name + " " + specs); m != nil {
		out = append(out, strings.ToLower(m[1]))
	}
	if m := modelNumberPattern.FindStringSubmatch(name); m != nil {
		out = append(out, strings.ToLower(m[1]))
	}
	specsLower := strings.ToLower(specs)
	for _, arch := range architectureNames {
		if strings.Contains(specsLower, arch) {
			out = append(out, arch)
		}
	}
	if m := versionPattern.FindStringSubmatch(strings.ToLower(name)); m != nil {
		out = append(out, "v"+m[1])
	}
	return out
}

// Detect scans text for the most specific product keyword and returns the
// carousel card to show. The boolean is false when nothing matched.
func (m *KeywordMapper) Detect(text string) (KeywordMatch, bool) {
	if text == "" {
		return KeywordMatch{}, false
	}
	textLower := strings.ToLower(text)

	for _, entry := range m.entries {
		var hit bool
		if entry.pattern != nil {
			hit = entry.pattern.MatchString(textLower)
		} else {
			hit = strings.Contains(textLower, entry.keyword)
		}
		if !hit {
			continue
		}

		carouselIdx, ok := m.carouselByInv[entry.inventoryIdx]
		if !ok {
			carouselIdx = entry.inventoryIdx
		}
		m.log.Debug("keyword match",
			slog.String("keyword", entry.keyword),
			slog.Int("card", carouselIdx),
			slog.String("product", m.inventory[entry.inventoryIdx].Name))
		return KeywordMatch{CardIndex: carouselIdx, Keyword: entry.keyword}, true
	}
	return KeywordMatch{}, false
}

// ProductName returns the inventory name behind a carousel card, or an error
// when the card maps to nothing.
func (m *KeywordMapper) ProductName(cardIndex int) (string, error) {
	invIdx, ok := m.invByCarousel[cardIndex]
	if !ok || invIdx < 0 || invIdx >= len(m.inventory) {
		return "", fmt.Errorf("detect: no product behind carousel card %d", cardIndex)
	}
	return m.inventory[invIdx].Name, nil
}
