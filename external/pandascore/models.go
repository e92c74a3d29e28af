package pandascore

// Raw payload shapes for the matches endpoints. Only the fields the
// pipeline reads are declared; the provider sends far more.

type matchPayload struct {
	ID        int64             `json:"id"`
	Name      string            `json:"name"`
	BeginAt   *string           `json:"begin_at"`
	Status    string            `json:"status"`
	League    *leaguePayload    `json:"league"`
	Opponents []opponentPayload `json:"opponents"`
	Winner    *teamPayload      `json:"winner"`
	WinnerID  *int64            `json:"winner_id"`
	Games     []gamePayload     `json:"games"`
}

type leaguePayload struct {
	Name string `json:"name"`
}

type opponentPayload struct {
	Opponent *teamPayload `json:"opponent"`
}

type teamPayload struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Slug     string `json:"slug"`
	ImageURL string `json:"image_url"`
}

type gamePayload struct {
	Status string      `json:"status"`
	Map    *mapPayload `json:"map"`
}

type mapPayload struct {
	Name string `json:"name"`
}
