package pipeline

import "ogyscraper/internal/table"

// Internal field identifiers. Every column name the pipeline emits is built
// from this single table of byte-exact ASCII tokens; upstream spellings are
// never used directly as output columns.
const (
	colMaz   = "maz"
	colTaz   = "taz"
	colSorsz = "sorsz"
	colEvk   = "evk"

	colStationName        = "szk_nev"
	colEvkName            = "evk_nev"
	colAddress            = "cim"
	colAccessible         = "akadaly"
	colCountingDesignated = "szamlKijelolt"
	colTransferDesignated = "atjKijelolt"
	colMunicipalityLevel  = "telepSzintu"

	electoratePrefix = "letszam_"

	colEligibleIndividual   = "vp_osszes_egyeni"
	colTurnoutIndividual    = "szavazott_osszesen_egyeni"
	colTurnoutPctIndividual = "szavazott_osszesen_szaz_egyeni"
	colValidIndividual      = "szl_ervenyes_egyeni"
	colInvalidIndividual    = "szl_ervenytelen_egyeni"
	colEligibleList         = "vp_osszes_lista"
	colTurnoutList          = "szavazott_osszesen_lista"
	colTurnoutPctList       = "szavazott_osszesen_szaz_lista"
	colValidList            = "szl_ervenyes_lista"
	colInvalidList          = "szl_ervenytelen_lista"
)

// keyColumns is the shared join key of every per-station table.
var keyColumns = []string{colMaz, colTaz, colSorsz, colEvk}

// constituencyJoinColumns joins the grouping-engine output onto station rows.
var constituencyJoinColumns = []string{colMaz, colEvk}

// infoIdentityColumns is the explicit allow-list of station-identity columns
// in the info table.
var infoIdentityColumns = []string{
	colMaz,
	colTaz,
	colSorsz,
	colStationName,
	colEvk,
	colEvkName,
	colAddress,
	colAccessible,
	colCountingDesignated,
	colTransferDesignated,
	colMunicipalityLevel,
}

// infoTurnoutColumns is the explicit allow-list of aggregate turnout columns
// in the info table.
var infoTurnoutColumns = []string{
	colEligibleIndividual,
	colTurnoutIndividual,
	colTurnoutPctIndividual,
	colValidIndividual,
	colInvalidIndividual,
	colEligibleList,
	colTurnoutList,
	colTurnoutPctList,
	colValidList,
	colInvalidList,
}

// renameTranslations is the fixed, ordered translation of station, turnout
// and electorate field names to English display names. Vote and
// candidate-name columns keep their generated names.
var renameTranslations = []table.Rename{
	{From: colStationName, To: "polling_station_name"},
	{From: colEvk, To: "constituency_code"},
	{From: colEvkName, To: "constituency_name"},
	{From: colAddress, To: "polling_station_address"},
	{From: colAccessible, To: "accessible_for_disabled"},
	{From: colCountingDesignated, To: "designated_counting_station"},
	{From: colTransferDesignated, To: "designated_transfer_station"},
	{From: colMunicipalityLevel, To: "municipality_level_station"},
	{From: electoratePrefix + "indulo", To: "electorate_initial"},
	{From: electoratePrefix + "honos", To: "electorate_resident"},
	{From: electoratePrefix + "atjel", To: "electorate_transferred_in"},
	{From: electoratePrefix + "atjelInnen", To: "electorate_transferred_out"},
	{From: electoratePrefix + "osszesen", To: "electorate_total"},
	{From: colEligibleIndividual, To: "eligible_voters_individual"},
	{From: colTurnoutIndividual, To: "turnout_individual"},
	{From: colTurnoutPctIndividual, To: "turnout_rate_pct_individual"},
	{From: colValidIndividual, To: "valid_votes_individual"},
	{From: colInvalidIndividual, To: "invalid_votes_individual"},
	{From: colEligibleList, To: "eligible_voters_list"},
	{From: colTurnoutList, To: "turnout_list"},
	{From: colTurnoutPctList, To: "turnout_rate_pct_list"},
	{From: colValidList, To: "valid_votes_list"},
	{From: colInvalidList, To: "invalid_votes_list"},
}

// listTypeNames maps upstream list type codes to column name fragments.
// Unmapped codes pass through lowercased.
var listTypeNames = map[string]string{
	"K": "comp",
	"O": "party",
	"N": "minority",
}
