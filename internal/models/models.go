package models

type WordCount struct {
	Word  string `json:"word" yaml:"word"`
	Count int    `json:"count" yaml:"count"`
}

type Stats struct {
	TotalTokens    int `json:"totalTokens" yaml:"totalTokens"`
	DistinctTokens int `json:"distinctTokens" yaml:"distinctTokens"`
	Lines          int `json:"lines" yaml:"lines"`
	TimeElapsed    int `json:"timeElapsedMs" yaml:"timeElapsedMs"`
}

// Result is the outcome of counting a single resource. Error is set instead
// of MostFrequent when the resource could not be counted.
type Result struct {
	Resource     string      `json:"resource" yaml:"resource"`
	MostFrequent *WordCount  `json:"mostFrequent,omitempty" yaml:"mostFrequent,omitempty"`
	TopWords     []WordCount `json:"topWords,omitempty" yaml:"topWords,omitempty"`
	Stats        *Stats      `json:"stats,omitempty" yaml:"stats,omitempty"`
	Error        string      `json:"error,omitempty" yaml:"error,omitempty"`
}

type Report struct {
	Results []Result `json:"results" yaml:"results"`
}
