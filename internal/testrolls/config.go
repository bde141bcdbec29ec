package testrolls

import "time"

// Config holds configuration for the roll test
type Config struct {
	BaseURL    string        // Base URL of the service
	Requests   int           // Number of roll requests to send
	Workers    int           // Number of concurrent workers
	Timeout    time.Duration // HTTP request timeout
	Origin     string        // Allowed origin used for the cross-origin checks
	OutputFile string        // Output file for the JSON report
	LogFile    string        // Log file for test output
	Verbose    bool          // Enable verbose logging
}

// SingleRoll is the body of /api/roll/single and /api/roll-dice.
type SingleRoll struct {
	Status string `json:"status"`
	Die    string `json:"die"`
	Result int    `json:"result"`
}

// MultipleRoll is the body of /api/roll/multiple/{count}.
type MultipleRoll struct {
	Status  string `json:"status"`
	Dice    string `json:"dice"`
	Count   int    `json:"count"`
	Results []int  `json:"results"`
	Total   int    `json:"total"`
}

// Stats holds test statistics
type Stats struct {
	RequestsSent       int           `json:"requestsSent"`
	RequestsSuccessful int           `json:"requestsSuccessful"`
	RequestsFailed     int           `json:"requestsFailed"`
	DiceRolled         int           `json:"diceRolled"`
	Faces              [6]int        `json:"faces"`
	ChiSquare          float64       `json:"chiSquare"`
	Violations         []string      `json:"violations,omitempty"`
	StartTime          time.Time     `json:"startTime"`
	EndTime            time.Time     `json:"endTime"`
	Duration           time.Duration `json:"duration"`
}
