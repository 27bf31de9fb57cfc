package integration

import (
	"context"
	"database/sql"
	"encoding/csv"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	_ "modernc.org/sqlite"

	"ogyscraper/internal/config"
	"ogyscraper/internal/fetch"
	"ogyscraper/internal/logger"
	"ogyscraper/internal/pipeline"
	"ogyscraper/internal/refdata"
	"ogyscraper/internal/storage"
)

// fixtureDocuments serves two municipalities. Pair 1-1 has one station with
// full results; pair 1-2 has one station whose results document is missing.
var fixtureDocuments = map[string]string{
	"/ver/Telepulesek.json": `{"list":[{"maz":1,"taz":1},{"maz":1,"taz":2}]}`,

	"/ver/EgyeniJeloltek.json": `{"list":[
		{"maz":1,"evk":"01","ej_id":11,"jlcs_nev":"FIDESZ-KDNP","neve":"Nagy Péter"},
		{"maz":1,"evk":"01","ej_id":12,"jlcs_nev":"MI HAZÁNK MOZGALOM","neve":"Kis Pál"},
		{"maz":1,"evk":"02","ej_id":21,"jlcs_nev":"FIDESZ-KDNP","neve":"Tóth Éva"},
		{"maz":1,"evk":"02","ej_id":22,"jlcs_nev":"MI HAZÁNK MOZGALOM","neve":"Szabó Gábor"}
	]}`,

	"/ver/ListakEsJeloltek.json": `{"list":[
		{"tl_id":5,"jlcs_nev":"FIDESZ-KDNP","lista_tip":"O"},
		{"tl_id":6,"jlcs_nev":"NÉMET NEMZETISÉGI LISTA","lista_tip":"N"}
	]}`,

	"/ver/Jlcs.json":        `{"list":[]}`,
	"/ver/Szervezetek.json": `{"list":[]}`,

	"/ver/Szavazokorok-1-1.json": `{"data":{"szavazokorok":[
		{"sorszam":1,"szk_nev":"Általános Iskola","evk":"01","evk_nev":"Budapest 1.",
		 "cim":"Fő utca 1.","akadaly":1,
		 "letszam":{"indulo":500,"honos":480}}
	]}}`,

	"/ver/Szavazokorok-1-2.json": `{"szavazokorok":[
		{"sorszam":1,"szk_nev":"Művelődési Ház","evk":"02","evk_nev":"Budapest 2.",
		 "cim":"Kossuth tér 2.","akadaly":0,
		 "letszam":{"indulo":300,"honos":290,"osszesen":300}}
	]}`,

	"/szavossz/1/SzavkorJkv-1-1.json": `{"list":[
		{"maz":1,"taz":1,"sorsz":1,
		 "egyeni_jkv":{
			"vp_osszes":500,"szavazott_osszesen":350,"szavazott_osszesen_szaz":"70,0",
			"szl_ervenyes":345,"szl_ervenytelen":5,
			"tetelek":[{"ej_id":11,"szavazat":100},{"ej_id":12,"szavazat":50}]},
		 "listas_jkv":{
			"vp_osszes":500,"szavazott_osszesen":348,"szavazott_osszesen_szaz":69.6,
			"szl_ervenyes":340,"szl_ervenytelen":8,
			"tetelek":[{"tl_id":5,"szavazat":250},{"tl_id":6,"szavazat":0}]}}
	]}`,
}

func runPipeline(t *testing.T) *pipeline.Output {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := fixtureDocuments[r.URL.Path]
		if !ok {
			http.NotFound(w, r)

			return
		}

		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	cfg := config.Default().Scraper
	cfg.Sources.ReferenceBase = srv.URL + "/ver"
	cfg.Sources.ResultsBase = srv.URL + "/szavossz"
	cfg.Retry.MaxAttempts = 1
	cfg.Retry.InitialDelayMs = 0

	fetcher := fetch.New(&cfg.Retry, logger.Nop())
	ref := refdata.NewLoader(fetcher, cfg.Sources.ReferenceBase, logger.Nop()).Load(context.Background())

	out, err := pipeline.New(&cfg, fetcher, logger.Nop()).Run(context.Background(), ref)
	if err != nil {
		t.Fatalf("pipeline run failed: %v", err)
	}

	return out
}

func rowByName(t *testing.T, out *pipeline.Output, name string) map[string]any {
	t.Helper()

	for _, r := range out.Results.Rows() {
		if r["polling_station_name"] == name {
			return r
		}
	}

	t.Fatalf("station %q not found in results table", name)

	return nil
}

func TestPipeline_SharedConstituencyAndVotes(t *testing.T) {
	out := runPipeline(t)

	row := rowByName(t, out, "Általános Iskola")

	if row["votes_individual_party_fidesz_kdnp"] != 100 {
		t.Errorf("Fidesz votes = %v, want 100", row["votes_individual_party_fidesz_kdnp"])
	}

	if row["votes_individual_party_our_homeland_movement"] != 50 {
		t.Errorf("Our Homeland votes = %v, want 50", row["votes_individual_party_our_homeland_movement"])
	}

	if row["votes_list_party_fidesz_kdnp"] != 250 {
		t.Errorf("list votes = %v, want 250", row["votes_list_party_fidesz_kdnp"])
	}

	// The minority list polled zero: the cell is a real 0, not null.
	minority := "votes_list_minority_german_minority"
	if v, present := row[minority]; !present || v != 0 {
		t.Errorf("minority list cell = %v (present=%v), want 0", v, present)
	}

	// Comma-decimal percentage decodes.
	if row["turnout_rate_pct_individual"] != 70.0 {
		t.Errorf("turnout pct = %v, want 70", row["turnout_rate_pct_individual"])
	}

	// The two constituencies field distinct candidate-id sets, so ids are
	// assigned in sorted key order: evk 01 first, evk 02 second.
	other := rowByName(t, out, "Művelődési Ház")
	if row["constituency_id"] != 1 || other["constituency_id"] != 2 {
		t.Errorf("constituency ids = %v / %v, want 1 / 2", row["constituency_id"], other["constituency_id"])
	}

	if row["candidate_fidesz_kdnp_name"] != "Nagy Péter" {
		t.Errorf("candidate name = %v", row["candidate_fidesz_kdnp_name"])
	}
}

func TestPipeline_MissingResultsLeavesNulls(t *testing.T) {
	out := runPipeline(t)

	if out.ResultsMissing != 1 {
		t.Fatalf("ResultsMissing = %d, want 1", out.ResultsMissing)
	}

	row := rowByName(t, out, "Művelődési Ház")

	// Station and electorate data are present.
	if row["electorate_initial"] != 300 || row["electorate_total"] != 300 {
		t.Errorf("electorate cells = %v / %v", row["electorate_initial"], row["electorate_total"])
	}

	// Turnout and vote cells are null.
	for _, col := range []string{"turnout_individual", "votes_individual_party_fidesz_kdnp"} {
		if v, present := row[col]; present {
			t.Errorf("%s should be null, got %v", col, v)
		}
	}
}

func TestPipeline_ElectorateColumnsAreObservedOnly(t *testing.T) {
	out := runPipeline(t)

	observed := map[string]bool{}

	for _, c := range out.Info.Columns() {
		if strings.HasPrefix(c, "electorate_") {
			observed[c] = true
		}
	}

	for _, c := range []string{"electorate_initial", "electorate_resident", "electorate_total"} {
		if !observed[c] {
			t.Errorf("expected electorate column %q", c)
		}
	}

	// Categories never served by the fixtures must not materialize.
	if observed["electorate_transferred_in"] || observed["electorate_transferred_out"] {
		t.Errorf("unobserved electorate categories materialized: %v", observed)
	}
}

func TestPipeline_CSVRoundTrip(t *testing.T) {
	out := runPipeline(t)
	dir := t.TempDir()

	w, err := storage.NewCSVWriter(dir, logger.Nop())
	if err != nil {
		t.Fatalf("NewCSVWriter failed: %v", err)
	}

	if err := w.WriteTable(context.Background(), "polling_station_results", out.Results); err != nil {
		t.Fatalf("writing results: %v", err)
	}

	if err := w.WriteTable(context.Background(), "polling_station_info", out.Info); err != nil {
		t.Fatalf("writing info: %v", err)
	}

	f, err := os.Open(filepath.Join(dir, "polling_station_results.csv"))
	if err != nil {
		t.Fatalf("opening results csv: %v", err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("reading results csv: %v", err)
	}

	if len(records) != 3 {
		t.Fatalf("csv records = %d, want header + 2 rows", len(records))
	}

	col := map[string]int{}
	for i, name := range records[0] {
		col[name] = i
	}

	var orphan []string

	for _, rec := range records[1:] {
		if rec[col["polling_station_name"]] == "Művelődési Ház" {
			orphan = rec
		}
	}

	if orphan == nil {
		t.Fatal("orphan station missing from csv")
	}

	if orphan[col["votes_individual_party_fidesz_kdnp"]] != "" {
		t.Errorf("null vote cell rendered as %q, want empty", orphan[col["votes_individual_party_fidesz_kdnp"]])
	}
}

func TestPipeline_SQLiteRoundTrip(t *testing.T) {
	out := runPipeline(t)
	path := filepath.Join(t.TempDir(), "elections.sqlite")

	w, err := storage.NewSQLiteWriter(path, logger.Nop())
	if err != nil {
		t.Fatalf("NewSQLiteWriter failed: %v", err)
	}

	if err := w.WriteTable(context.Background(), "polling_station_results", out.Results); err != nil {
		t.Fatalf("writing results: %v", err)
	}

	if err := w.WriteTable(context.Background(), "polling_station_info", out.Info); err != nil {
		t.Fatalf("writing info: %v", err)
	}

	if err := w.Close(); err != nil {
		t.Fatalf("closing writer: %v", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("reopening database: %v", err)
	}
	defer db.Close()

	var votes sql.NullInt64
	query := `SELECT "votes_individual_party_fidesz_kdnp" FROM "polling_station_results" WHERE "taz" = 2`

	if err := db.QueryRow(query).Scan(&votes); err != nil {
		t.Fatalf("querying orphan votes: %v", err)
	}

	if votes.Valid {
		t.Errorf("orphan vote cell = %v, want NULL", votes.Int64)
	}

	var infoRows int
	if err := db.QueryRow(`SELECT COUNT(*) FROM "polling_station_info"`).Scan(&infoRows); err != nil {
		t.Fatalf("counting info rows: %v", err)
	}

	if infoRows != 2 {
		t.Errorf("info rows = %d, want 2", infoRows)
	}
}
