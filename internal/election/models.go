// Package election defines the upstream document shapes and their defensive
// decoding. Malformed individual fields decode to zero values instead of
// failing the record.
package election

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// Code is an integer identifier that upstream serves either as a JSON number
// or as a numeric string. Anything unparseable decodes to zero.
type Code int

// UnmarshalJSON implements tolerant decoding for Code.
func (c *Code) UnmarshalJSON(b []byte) error {
	*c = 0

	s := strings.TrimSpace(string(b))
	if s == "" || s == "null" {
		return nil
	}

	s = strings.Trim(s, `"`)

	if n, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
		*c = Code(n)

		return nil
	}

	if fl, err := strconv.ParseFloat(s, 64); err == nil {
		*c = Code(int(fl))
	}

	return nil
}

// Count is a tolerant non-negative integer counter.
type Count int

// UnmarshalJSON implements tolerant decoding for Count.
func (c *Count) UnmarshalJSON(b []byte) error {
	code := Code(0)
	_ = code.UnmarshalJSON(b)
	*c = Count(code)

	return nil
}

// Percent is a tolerant float, used for turnout percentages.
type Percent float64

// UnmarshalJSON implements tolerant decoding for Percent.
func (p *Percent) UnmarshalJSON(b []byte) error {
	*p = 0

	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	if s == "" || s == "null" {
		return nil
	}

	if fl, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64); err == nil {
		*p = Percent(fl)
	}

	return nil
}

// Label is a tolerant string: numbers decode to their text form.
type Label string

// UnmarshalJSON implements tolerant decoding for Label.
func (l *Label) UnmarshalJSON(b []byte) error {
	*l = ""

	s := strings.TrimSpace(string(b))
	if s == "" || s == "null" {
		return nil
	}

	if strings.HasPrefix(s, `"`) {
		var str string
		if err := json.Unmarshal(b, &str); err == nil {
			*l = Label(str)
		}

		return nil
	}

	if !strings.HasPrefix(s, "{") && !strings.HasPrefix(s, "[") {
		*l = Label(s)
	}

	return nil
}

// Municipality is one entry of the reference municipality list. Each distinct
// (maz, taz) pair addresses one station document and one results document.
type Municipality struct {
	Maz Code `json:"maz"`
	Taz Code `json:"taz"`
}

// Candidate is one entry of the individual-candidate roster.
type Candidate struct {
	Maz   Code   `json:"maz"`
	Evk   Label  `json:"evk"`
	EjID  Code   `json:"ej_id"`
	Party string `json:"jlcs_nev"`
	Name  string `json:"neve"`
}

// ListEntry is one entry of the list/roster metadata document.
type ListEntry struct {
	TlID  Code   `json:"tl_id"`
	Party string `json:"jlcs_nev"`
	// Type is one of the upstream type codes K, O or N; other codes pass
	// through downstream lowercased.
	Type string `json:"lista_tip"`
}

// Station is one polling station entry of a station document.
type Station struct {
	Sorszam            Code             `json:"sorszam"`
	Name               string           `json:"szk_nev"`
	Evk                Label            `json:"evk"`
	EvkName            string           `json:"evk_nev"`
	Address            string           `json:"cim"`
	Accessible         Count            `json:"akadaly"`
	CountingDesignated Count            `json:"szamlKijelolt"`
	TransferDesignated Count            `json:"atjKijelolt"`
	MunicipalityLevel  Count            `json:"telepSzintu"`
	Electorate         map[string]Count `json:"letszam"`
}

// StationDocument is a per-pair polling-station document. Its payload nests
// either directly or under a "data" key.
type StationDocument struct {
	Stations []Station
}

type stationPayload struct {
	Stations []Station `json:"szavazokorok"`
}

// UnmarshalJSON accepts both nesting variants.
func (d *StationDocument) UnmarshalJSON(b []byte) error {
	var outer struct {
		Data     json.RawMessage `json:"data"`
		Stations []Station       `json:"szavazokorok"`
	}

	if err := json.Unmarshal(b, &outer); err != nil {
		return err
	}

	if len(outer.Stations) > 0 || len(outer.Data) == 0 || bytes.Equal(outer.Data, []byte("null")) {
		d.Stations = outer.Stations

		return nil
	}

	var inner stationPayload
	if err := json.Unmarshal(outer.Data, &inner); err != nil {
		return err
	}

	d.Stations = inner.Stations

	return nil
}

// Protocol carries the aggregate counters and vote line items of one ballot
// type at one station.
type Protocol struct {
	EligibleVoters Count      `json:"vp_osszes"`
	TotalVoted     Count      `json:"szavazott_osszesen"`
	TurnoutPct     Percent    `json:"szavazott_osszesen_szaz"`
	ValidVotes     Count      `json:"szl_ervenyes"`
	InvalidVotes   Count      `json:"szl_ervenytelen"`
	Items          []VoteItem `json:"tetelek"`
}

// VoteItem is one (entity, votes) line item. EjID is set on individual
// ballots, TlID on list ballots.
type VoteItem struct {
	EjID  Code  `json:"ej_id"`
	TlID  Code  `json:"tl_id"`
	Votes Count `json:"szavazat"`
}

// ResultRecord carries both ballot protocols for one station.
type ResultRecord struct {
	Maz        Code     `json:"maz"`
	Taz        Code     `json:"taz"`
	Sorsz      Code     `json:"sorsz"`
	Individual Protocol `json:"egyeni_jkv"`
	List       Protocol `json:"listas_jkv"`
}

// ResultsDocument is a per-pair results document.
type ResultsDocument struct {
	List []ResultRecord `json:"list"`
}
