package model

// BinCommandResult is what the gate reports after a command went out.
type BinCommandResult struct {
	Index        BinIndex
	Label        Label
	StatusBefore string
}

// Prediction is the classifier output; confidences are percentages keyed by label.
type Prediction struct {
	Label       Label
	Confidences map[Label]float64
}
