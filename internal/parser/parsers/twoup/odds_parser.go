package twoup

import (
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/bangersure/twoupfeed/internal/pkg/models"
)

const bookmakerKey = "2up"
const siteURL = "https://2up.io"

// Market names and type codes the upstream uses for the three markets
// we keep. Everything else is ignored.
const (
	nameMoneyline = "ft 1x2"
	nameTotals    = "ft o/u"
	nameHandicap  = "ft asian handicap"
	codeMoneyline = "ml0"
	codeTotals    = "ou0"
	codeHandicap  = "hc0"
)

// EventToFixture converts one raw event node into a FixtureRecord with
// normalized market blocks. Field-level failures (unparseable price,
// point or timestamp) drop the offending value and never abort the
// fixture.
func EventToFixture(ev *EventNode, now time.Time) *models.FixtureRecord {
	home := strings.TrimSpace(ev.HomeTeamName)
	away := strings.TrimSpace(ev.AwayTeamName)
	date := parseEventDate(ev.EventTime)

	sportSlug := ev.SportURL
	if sportSlug == "" {
		sportSlug = "soccer"
	}
	prettyURL := ""
	if ev.EventURL != "" {
		prettyURL = fmt.Sprintf("%s/pt/sports/%s/%s/%s/%s", siteURL, sportSlug, ev.RegionURL, ev.LeagueURL, ev.EventURL)
	}

	var id int64
	if eventID := string(ev.EventID); eventID != "" {
		id = models.FixtureIDFromEvent(eventID)
	} else {
		id = models.FixtureIDFromTeams(home, away, date)
	}

	fixture := &models.FixtureRecord{
		ID:         id,
		Home:       home,
		Away:       away,
		Date:       date,
		Sport:      models.NameRef{Name: "Football", Slug: "soccer"},
		League:     models.NameRef{Name: ev.LeagueName, Slug: leagueSlug(ev.LeagueName)},
		URLs:       map[string]string{bookmakerKey: prettyURL},
		Bookmakers: map[string][]models.MarketBlock{bookmakerKey: {}},
		Status:     models.StatusPending,
	}

	blocks := ExtractMarkets(ev, now)
	if len(blocks) > 0 {
		fixture.Bookmakers[bookmakerKey] = blocks
	}
	logFixtureSummary(ev, home, away, blocks)
	return fixture
}

// mlSlot holds the at-most-one moneyline block together with whether it
// came from a confirmed primary market, so a later confirmed match can
// replace an earlier ambiguous one in place.
type mlSlot struct {
	block     *models.MarketBlock
	confirmed bool
}

// ExtractMarkets normalizes the event's markets into the fixed order
// [ML?, Totals?, Handicap?], each block present only when it has at
// least one fully priced line.
func ExtractMarkets(ev *EventNode, now time.Time) []models.MarketBlock {
	updatedAt := now.UTC().Format(time.RFC3339)

	var ml mlSlot
	totals := make(map[float64]*models.OddsEntry)
	handicaps := make(map[float64]models.OddsEntry)

	for i := range ev.Markets {
		m := &ev.Markets[i]
		name := strings.ToLower(strings.TrimSpace(m.Name))
		code := strings.ToLower(strings.TrimSpace(string(m.MarketTypeID)))

		if match, confirmed := classifyMoneyline(name, code); match {
			if ml.block != nil && (ml.confirmed || !confirmed) {
				continue
			}
			if b := buildMoneyline(m, updatedAt); b != nil {
				ml = mlSlot{block: b, confirmed: confirmed}
			}
			continue
		}
		if name == nameTotals || code == codeTotals {
			collectTotals(m, totals)
			continue
		}
		if name == nameHandicap || code == codeHandicap {
			collectHandicap(m, handicaps)
			continue
		}
	}

	var out []models.MarketBlock
	if ml.block != nil {
		out = append(out, *ml.block)
	}
	if lines := completeLines(totals); len(lines) > 0 {
		out = append(out, models.MarketBlock{Name: models.MarketTotals, UpdatedAt: updatedAt, Odds: lines})
	}
	if lines := handicapLines(handicaps); len(lines) > 0 {
		out = append(out, models.MarketBlock{Name: models.MarketHandicap, UpdatedAt: updatedAt, Odds: lines})
	}
	return out
}

// classifyMoneyline keeps the empirical precedence rule observed in
// production traffic: the exact name "ft 1x2" or type code "ml0" marks
// the confirmed primary market; other 1X2-looking names are taken only
// while nothing confirmed has shown up. Double chance shares the 1X2
// shape and must never be taken.
func classifyMoneyline(name, code string) (match, confirmed bool) {
	if strings.Contains(name, "double") || strings.Contains(name, "chance") {
		return false, false
	}
	if name == nameMoneyline || code == codeMoneyline {
		return true, true
	}
	if strings.Contains(name, "1x2") {
		return true, false
	}
	return false, false
}

// buildMoneyline returns nil unless all three legs price: partial
// moneylines are never emitted.
func buildMoneyline(m *RawMarket, updatedAt string) *models.MarketBlock {
	var home, draw, away string
	for i := range m.Selections {
		s := &m.Selections[i]
		price, ok := selectionPrice(s)
		if !ok {
			continue
		}
		switch strings.ToLower(strings.TrimSpace(s.OutcomeType)) {
		case "home":
			home = price
		case "tie", "draw":
			draw = price
		case "away":
			away = price
		}
	}
	if home == "" || draw == "" || away == "" {
		return nil
	}
	return &models.MarketBlock{
		Name:      models.MarketML,
		UpdatedAt: updatedAt,
		Odds:      []models.OddsEntry{{Home: home, Draw: draw, Away: away}},
	}
}

func collectTotals(m *RawMarket, lines map[float64]*models.OddsEntry) {
	for i := range m.Selections {
		s := &m.Selections[i]
		side := strings.ToLower(strings.TrimSpace(s.OutcomeType))
		if side == "" {
			side = strings.ToLower(strings.TrimSpace(s.Name))
		}
		point, ok := parseDecimal(string(s.Points))
		if !ok {
			continue
		}
		price, ok := selectionPrice(s)
		if !ok {
			continue
		}
		entry := lines[point]
		if entry == nil {
			hdp := point
			entry = &models.OddsEntry{Hdp: &hdp}
			lines[point] = entry
		}
		switch {
		case strings.Contains(side, "over"):
			entry.Over = price
		case strings.Contains(side, "under"):
			entry.Under = price
		}
	}
}

// collectHandicap keys lines by the home side's point. One market
// instance carries one home leg and one away leg; the line survives
// only when both legs price.
func collectHandicap(m *RawMarket, lines map[float64]models.OddsEntry) {
	var homePoint float64
	var homeSeen, awaySeen bool
	var homePrice, awayPrice string
	for i := range m.Selections {
		s := &m.Selections[i]
		point, ok := parseDecimal(string(s.Points))
		if !ok {
			continue
		}
		price, ok := selectionPrice(s)
		if !ok {
			continue
		}
		switch strings.ToLower(strings.TrimSpace(s.OutcomeType)) {
		case "home":
			homePoint = point
			homeSeen = true
			homePrice = price
		case "away":
			awaySeen = true
			awayPrice = price
		}
	}
	if homeSeen && awaySeen && homePrice != "" && awayPrice != "" {
		hdp := homePoint
		lines[homePoint] = models.OddsEntry{Hdp: &hdp, Home: homePrice, Away: awayPrice}
	}
}

func completeLines(lines map[float64]*models.OddsEntry) []models.OddsEntry {
	out := make([]models.OddsEntry, 0, len(lines))
	for _, entry := range lines {
		if entry.Over != "" && entry.Under != "" {
			out = append(out, *entry)
		}
	}
	sort.Slice(out, func(i, j int) bool { return *out[i].Hdp < *out[j].Hdp })
	return out
}

func handicapLines(lines map[float64]models.OddsEntry) []models.OddsEntry {
	out := make([]models.OddsEntry, 0, len(lines))
	for _, entry := range lines {
		out = append(out, entry)
	}
	sort.Slice(out, func(i, j int) bool { return *out[i].Hdp < *out[j].Hdp })
	return out
}

// selectionPrice prefers trueOdds; displayOdds.Decimal is the fallback
// some payload versions use.
func selectionPrice(s *RawSelection) (string, bool) {
	raw := string(s.TrueOdds)
	if strings.TrimSpace(raw) == "" {
		raw = string(s.DisplayOdds.Decimal)
	}
	return FormatPrice(raw)
}

// FormatPrice repairs the decimal format and re-emits the price as a
// fixed-point string with exactly 3 decimals. Unparseable or
// non-positive values are absent, not zero.
func FormatPrice(raw string) (string, bool) {
	f, ok := parseDecimal(raw)
	if !ok || f <= 0 {
		return "", false
	}
	return strconv.FormatFloat(f, 'f', 3, 64), true
}

// parseDecimal accepts comma decimal separators and the unicode minus
// sign (U+2212) the upstream mixes in depending on locale.
func parseDecimal(raw string) (float64, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, false
	}
	s = strings.ReplaceAll(s, ",", ".")
	s = strings.ReplaceAll(s, "−", "-")
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// parseEventDate converts the upstream kickoff (UTC ms, string or
// number) into an ISO-8601 UTC string, empty when unparseable.
func parseEventDate(raw FlexString) string {
	s := strings.TrimSpace(string(raw))
	if s == "" {
		return ""
	}
	ms, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil {
			return ""
		}
		ms = int64(f)
	}
	if ms <= 0 {
		return ""
	}
	return time.UnixMilli(ms).UTC().Format(time.RFC3339)
}

func leagueSlug(league string) string {
	if league == "" {
		return ""
	}
	return strings.ReplaceAll(strings.ToLower(league), " ", "-")
}

func logFixtureSummary(ev *EventNode, home, away string, blocks []models.MarketBlock) {
	label := ev.EventName
	if label == "" {
		label = home + " vs " + away
	}
	var mlFound bool
	var totalsCount, handicapCount int
	for _, b := range blocks {
		switch b.Name {
		case models.MarketML:
			mlFound = true
		case models.MarketTotals:
			totalsCount = len(b.Odds)
		case models.MarketHandicap:
			handicapCount = len(b.Odds)
		}
	}
	slog.Info("2up: fixture normalized", "fixture", label, "ml", mlFound, "totals", totalsCount, "handicap", handicapCount)
}
