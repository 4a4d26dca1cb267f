package catalog

// Category is a question grouping, read-only from the quiz perspective.
type Category struct {
	ID   int64  `json:"id"`
	Type string `json:"type"`
}

// Question is the formatted question payload delivered to clients.
// Answer is included: the game client reveals it after the player responds.
type Question struct {
	ID         int64  `json:"id"`
	Question   string `json:"question"`
	Answer     string `json:"answer"`
	Category   int64  `json:"category"`
	Difficulty int    `json:"difficulty"`
}

// InsertQuestionParams carries the content fields for a new question.
type InsertQuestionParams struct {
	Question   string
	Answer     string
	Category   int64
	Difficulty int
}
