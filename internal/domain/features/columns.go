package features

// Input columns read by the builder.
const (
	ColEventID        = "event_id"
	ColAthleteID      = "athlete_id"
	ColAthleteCountry = "athlete_country"
	ColDCat           = "dcat"
	ColRound          = "round"
	ColCompRank       = "comp_rank"
	ColStatusAsOf     = "status_as_of"
	ColBirthday       = "birthday"
	ColFirstSeason    = "first_season"
)

// Engineered columns.
const (
	ColAgeInDays          = "athlete_age_in_days"
	ColYearsActive        = "athlete_years_active"
	ColIsOnPodium         = "is_on_podium"
	ColEventsLastYear     = "events_last_year"
	ColPodiumsLastYear    = "podiums_last_year"
	ColFinalsLastYear     = "finals_last_year"
	ColSemisLastYear      = "semis_last_year"
	ColAvgRankLastYear    = "avg_rank_last_year"
	ColProgressionToSemi  = "progression_to_semi_last_year"
	ColProgressionToFinal = "progression_to_final_last_year"
)

// DateLayout formats status_as_of and birthday in the output table. ISO dates
// sort lexicographically in chronological order.
const DateLayout = "2006-01-02"

var requiredColumns = []string{
	ColEventID,
	ColAthleteID,
	ColAthleteCountry,
	ColDCat,
	ColRound,
	ColCompRank,
	ColStatusAsOf,
	ColBirthday,
	ColFirstSeason,
}
