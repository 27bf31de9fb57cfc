// Package refdata loads the global reference documents needed before
// per-station scraping begins.
package refdata

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"ogyscraper/internal/election"
	"ogyscraper/internal/fetch"
	"ogyscraper/internal/logger"
)

// Reference document file names.
const (
	DocMunicipalities = "Telepulesek.json"
	DocCandidates     = "EgyeniJeloltek.json"
	DocLists          = "ListakEsJeloltek.json"
	DocListGroups     = "Jlcs.json"
	DocOrganizations  = "Szervezetek.json"
)

// Reference holds the five global reference lists. A list is empty when its
// document could not be fetched; the run proceeds regardless.
type Reference struct {
	Municipalities []election.Municipality
	Candidates     []election.Candidate
	Lists          []election.ListEntry

	// ListGroups and Organizations are kept raw: they provide context for
	// diagnostics and previews but feed no pipeline decision.
	ListGroups    []json.RawMessage
	Organizations []json.RawMessage
}

// Loader fetches reference documents from a fixed base path.
type Loader struct {
	fetcher *fetch.Fetcher
	base    string
	log     *logger.Logger
}

// NewLoader creates a reference loader rooted at base.
func NewLoader(fetcher *fetch.Fetcher, base string, log *logger.Logger) *Loader {
	return &Loader{
		fetcher: fetcher,
		base:    strings.TrimRight(base, "/"),
		log:     log,
	}
}

// listDocument is the wrapper object every reference document uses.
type listDocument[T any] struct {
	List []T `json:"list"`
}

// Load fetches all five reference documents. Individual fetch failures yield
// an empty list and a log entry; they never abort the load.
func (l *Loader) Load(ctx context.Context) *Reference {
	ref := &Reference{}

	ref.Municipalities = loadList[election.Municipality](ctx, l, DocMunicipalities)
	ref.Candidates = loadList[election.Candidate](ctx, l, DocCandidates)
	ref.Lists = loadList[election.ListEntry](ctx, l, DocLists)
	ref.ListGroups = loadList[json.RawMessage](ctx, l, DocListGroups)
	ref.Organizations = loadList[json.RawMessage](ctx, l, DocOrganizations)

	return ref
}

func loadList[T any](ctx context.Context, l *Loader, name string) []T {
	url := l.DocumentURL(name)

	var doc listDocument[T]
	if err := l.fetcher.JSON(ctx, url, &doc); err != nil {
		l.log.Warn("reference document unavailable, continuing with empty list", "document", name, "error", err)

		return nil
	}

	l.log.Info("reference document loaded", "document", name, "entries", len(doc.List))

	return doc.List
}

// DocumentURL returns the URL of a named reference document.
func (l *Loader) DocumentURL(name string) string {
	return l.base + "/" + name
}

// StationURL returns the polling-station document URL for one (maz, taz)
// pair, served under the reference base.
func StationURL(referenceBase string, maz, taz int) string {
	return fmt.Sprintf("%s/Szavazokorok-%d-%d.json", strings.TrimRight(referenceBase, "/"), maz, taz)
}

// ResultsURL returns the results document URL for one (maz, taz) pair. The
// administrative area appears twice: once as a scoping prefix and once in the
// file name.
func ResultsURL(resultsBase string, maz, taz int) string {
	return fmt.Sprintf("%s/%d/SzavkorJkv-%d-%d.json", strings.TrimRight(resultsBase, "/"), maz, maz, taz)
}
