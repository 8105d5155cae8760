package twoup

import "encoding/json"

// The 2up API is loosely typed: depending on locale and payload version
// the same field arrives as a JSON string or a raw number, and string
// numbers may use comma decimal separators or the unicode minus sign.
// FlexString captures either form as text; numeric repair happens later
// in the normalizer.
type FlexString string

func (f *FlexString) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*f = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	*f = FlexString(b)
	return nil
}

// envelope is the outer response wrapper. Code "200" marks success;
// anything else usually means missing or expired signed headers.
type envelope struct {
	Code FlexString     `json:"code"`
	Msg  string         `json:"msg"`
	Data *EventDateList `json:"data"`
}

// EventDateList is one page of the event/date/list result.
type EventDateList struct {
	Items      []EventNode `json:"items"`
	Page       int         `json:"page"`
	TotalPages int         `json:"totalPages"`
}

// EventNode is one raw fixture with its markets as the API reports it.
type EventNode struct {
	EventID      FlexString  `json:"eventId"`
	EventName    string      `json:"eventName"`
	HomeTeamName string      `json:"homeTeamName"`
	AwayTeamName string      `json:"awayTeamName"`
	EventTime    FlexString  `json:"eventTime"` // UTC milliseconds
	LeagueName   string      `json:"leagueName"`
	SportURL     string      `json:"sportUrl"`
	RegionURL    string      `json:"regionUrl"`
	LeagueURL    string      `json:"leagueUrl"`
	EventURL     string      `json:"eventUrl"`
	Markets      []RawMarket `json:"markets"`
}

type RawMarket struct {
	Name         string         `json:"name"`
	MarketTypeID FlexString     `json:"marketTypeId"`
	Selections   []RawSelection `json:"selections"`
}

type RawSelection struct {
	OutcomeType string      `json:"outcomeType"`
	Name        string      `json:"name"`
	Points      FlexString  `json:"points"`
	TrueOdds    FlexString  `json:"trueOdds"`
	DisplayOdds DisplayOdds `json:"displayOdds"`
}

type DisplayOdds struct {
	Decimal FlexString `json:"Decimal"`
}
