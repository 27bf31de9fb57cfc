// Package pipeline implements the station/result aggregation pipeline: it
// enumerates all (maz, taz) pairs, fetches their documents, pivots the
// long-format vote records and joins everything into the two output tables.
package pipeline

import (
	"context"
	"encoding/json"
	"sort"
	"strings"

	"ogyscraper/internal/config"
	"ogyscraper/internal/constituency"
	"ogyscraper/internal/election"
	"ogyscraper/internal/fetch"
	"ogyscraper/internal/logger"
	"ogyscraper/internal/names"
	"ogyscraper/internal/refdata"
	"ogyscraper/internal/table"
)

// Pair is one (administrative area, sub-area) unit of remote-document
// partitioning.
type Pair struct {
	Maz int
	Taz int
}

// Output carries the two final tables plus run diagnostics.
type Output struct {
	Results *table.Table
	Info    *table.Table

	// First successfully fetched raw documents, kept for diagnostics.
	SampleStation json.RawMessage
	SampleResults json.RawMessage

	TotalPairs     int
	PairsProcessed int
	PairsSkipped   int
	ResultsMissing int
}

// Empty reports whether no usable station documents were fetched. This is
// the run's explicit empty-result signal; it is not an error.
func (o *Output) Empty() bool {
	return o.Results.Len() == 0
}

// Aggregator runs the scraping pipeline.
type Aggregator struct {
	cfg      *config.ScraperConfig
	fetcher  *fetch.Fetcher
	log      *logger.Logger
	progress func(done, total int)
}

// New creates an aggregator.
func New(cfg *config.ScraperConfig, fetcher *fetch.Fetcher, log *logger.Logger) *Aggregator {
	return &Aggregator{
		cfg:     cfg,
		fetcher: fetcher,
		log:     log,
	}
}

// SetProgress installs a callback invoked after each pair as
// (completed, total).
func (a *Aggregator) SetProgress(fn func(done, total int)) {
	a.progress = fn
}

// Pairs returns the deduplicated (maz, taz) pairs of the reference
// municipality list in sorted order, truncated when test mode is enabled.
// The sort is mandated: progress reporting and test-mode sampling must be
// reproducible across runs.
func (a *Aggregator) Pairs(ref *refdata.Reference) []Pair {
	seen := make(map[Pair]bool)

	var pairs []Pair

	for _, m := range ref.Municipalities {
		p := Pair{Maz: int(m.Maz), Taz: int(m.Taz)}
		if !seen[p] {
			seen[p] = true
			pairs = append(pairs, p)
		}
	}

	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].Maz != pairs[j].Maz {
			return pairs[i].Maz < pairs[j].Maz
		}

		return pairs[i].Taz < pairs[j].Taz
	})

	if a.cfg.TestMode.Enabled && len(pairs) > a.cfg.TestMode.PairLimit {
		pairs = pairs[:a.cfg.TestMode.PairLimit]
	}

	return pairs
}

// Run executes the pipeline over the complete reference data. Per-document
// fetch failures degrade output completeness but never abort the run; the
// only error returned is context cancellation.
func (a *Aggregator) Run(ctx context.Context, ref *refdata.Reference) (*Output, error) {
	candParty := make(map[int]string, len(ref.Candidates))
	for _, c := range ref.Candidates {
		if _, seen := candParty[int(c.EjID)]; !seen {
			candParty[int(c.EjID)] = c.Party
		}
	}

	type listInfo struct {
		party string
		typ   string
	}

	listMeta := make(map[int]listInfo, len(ref.Lists))
	for _, l := range ref.Lists {
		if _, seen := listMeta[int(l.TlID)]; !seen {
			listMeta[int(l.TlID)] = listInfo{party: l.Party, typ: l.Type}
		}
	}

	// Constituency ids are derived from the complete candidate roster before
	// any per-pair fetch, so they are independent of fetch ordering.
	constTable := constituency.BuildTable(ref.Candidates)

	pairs := a.Pairs(ref)

	stations := table.New(keyColumns...)
	turnout := table.New(keyColumns...)
	candPivot := table.NewPivot(keyColumns...)
	listPivot := table.NewPivot(keyColumns...)

	out := &Output{TotalPairs: len(pairs)}

	for idx, pair := range pairs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		a.log.Debug("processing pair", "maz", pair.Maz, "taz", pair.Taz, "index", idx+1, "total", len(pairs))

		stationURL := refdata.StationURL(a.cfg.Sources.ReferenceBase, pair.Maz, pair.Taz)

		var stationDoc election.StationDocument
		if err := a.fetcher.JSON(ctx, stationURL, &stationDoc); err != nil {
			a.log.Warn("station document unavailable, skipping pair", "maz", pair.Maz, "taz", pair.Taz, "error", err)
			out.PairsSkipped++
			a.report(idx+1, len(pairs))

			continue
		}

		if out.SampleStation == nil {
			if raw, err := a.fetcher.Raw(ctx, stationURL); err == nil {
				out.SampleStation = raw
			}
		}

		// Constituency code lookup for this pair, populated only from the
		// successfully fetched station document.
		evkBySorsz := make(map[int]string, len(stationDoc.Stations))

		for _, st := range stationDoc.Stations {
			sorsz := int(st.Sorszam)
			evk := string(st.Evk)
			evkBySorsz[sorsz] = evk

			row := table.Row{
				colMaz:                pair.Maz,
				colTaz:                pair.Taz,
				colSorsz:              sorsz,
				colEvk:                evk,
				colStationName:        st.Name,
				colEvkName:            st.EvkName,
				colAddress:            st.Address,
				colAccessible:         int(st.Accessible),
				colCountingDesignated: int(st.CountingDesignated),
				colTransferDesignated: int(st.TransferDesignated),
				colMunicipalityLevel:  int(st.MunicipalityLevel),
			}

			for category, count := range st.Electorate {
				row[electoratePrefix+category] = int(count)
			}

			stations.Append(row)
		}

		resultsURL := refdata.ResultsURL(a.cfg.Sources.ResultsBase, pair.Maz, pair.Taz)

		var resultsDoc election.ResultsDocument
		if err := a.fetcher.JSON(ctx, resultsURL, &resultsDoc); err != nil {
			a.log.Warn("results document unavailable, keeping station rows", "maz", pair.Maz, "taz", pair.Taz, "error", err)
			out.ResultsMissing++
			out.PairsProcessed++
			a.report(idx+1, len(pairs))

			continue
		}

		if out.SampleResults == nil {
			if raw, err := a.fetcher.Raw(ctx, resultsURL); err == nil {
				out.SampleResults = raw
			}
		}

		for _, rec := range resultsDoc.List {
			sorsz := int(rec.Sorsz)

			key := table.Row{
				colMaz:   pair.Maz,
				colTaz:   pair.Taz,
				colSorsz: sorsz,
				colEvk:   evkBySorsz[sorsz],
			}

			turnoutRow := table.Row{
				colMaz:   pair.Maz,
				colTaz:   pair.Taz,
				colSorsz: sorsz,
				colEvk:   evkBySorsz[sorsz],

				colEligibleIndividual:   int(rec.Individual.EligibleVoters),
				colTurnoutIndividual:    int(rec.Individual.TotalVoted),
				colTurnoutPctIndividual: float64(rec.Individual.TurnoutPct),
				colValidIndividual:      int(rec.Individual.ValidVotes),
				colInvalidIndividual:    int(rec.Individual.InvalidVotes),
				colEligibleList:         int(rec.List.EligibleVoters),
				colTurnoutList:          int(rec.List.TotalVoted),
				colTurnoutPctList:       float64(rec.List.TurnoutPct),
				colValidList:            int(rec.List.ValidVotes),
				colInvalidList:          int(rec.List.InvalidVotes),
			}
			turnout.Append(turnoutRow)

			// Individual ballot: one long-format contribution per candidate,
			// aggregated by party. Zero counts are real data.
			for _, item := range rec.Individual.Items {
				party, ok := candParty[int(item.EjID)]
				if !ok {
					party = "UNKNOWN"
				}

				col := "votes_individual_party_" + names.Slugify(names.CanonicalPartyName(party))
				candPivot.Add(key, col, int(item.Votes))
			}

			// List ballot: one contribution per list.
			for _, item := range rec.List.Items {
				meta, ok := listMeta[int(item.TlID)]
				if !ok {
					meta.party = "UNKNOWN"
					meta.typ = "X"
				}

				typ, mapped := listTypeNames[meta.typ]
				if !mapped {
					typ = strings.ToLower(meta.typ)
				}

				col := "votes_list_" + typ + "_" + names.Slugify(names.CanonicalPartyName(meta.party))
				listPivot.Add(key, col, int(item.Votes))
			}
		}

		out.PairsProcessed++
		a.report(idx+1, len(pairs))
	}

	if stations.Len() == 0 {
		out.Results = stations
		out.Info = table.New(keyColumns...)

		return out, nil
	}

	results := table.LeftJoin(stations, turnout, keyColumns)

	if candPivot.Len() > 0 {
		results = table.LeftJoin(results, candPivot.Table(), keyColumns)
	}

	if listPivot.Len() > 0 {
		results = table.LeftJoin(results, listPivot.Table(), keyColumns)
	}

	info := results.Select(a.infoColumns(results))

	results = table.LeftJoin(results, constTable, constituencyJoinColumns)
	info = table.LeftJoin(info, constTable, constituencyJoinColumns)

	results.RenameColumns(renameTranslations)
	info.RenameColumns(renameTranslations)

	out.Results = results
	out.Info = info

	return out, nil
}

// infoColumns builds the info-table allow-list: station identity, electorate
// and aggregate turnout columns, and nothing vote-related.
func (a *Aggregator) infoColumns(results *table.Table) []string {
	cols := append([]string(nil), infoIdentityColumns...)

	for _, c := range results.Columns() {
		if strings.HasPrefix(c, electoratePrefix) {
			cols = append(cols, c)
		}
	}

	return append(cols, infoTurnoutColumns...)
}

func (a *Aggregator) report(done, total int) {
	if a.progress != nil {
		a.progress(done, total)
	}
}
