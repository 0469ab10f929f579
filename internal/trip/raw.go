package trip

// RawProposal is the wire shape producers return: possibly sparse, possibly
// malformed. Clock times are "15:04" strings; missing times are empty. The
// normalizer converts RawProposals into NormalizedCandidates and records a
// rejection for anything it cannot place.
type RawProposal struct {
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Day         int     `json:"day"`
	Start       string  `json:"start_time,omitempty"`
	End         string  `json:"end_time,omitempty"`
	Location    string  `json:"location,omitempty"`
	Lat         float64 `json:"lat,omitempty"`
	Lng         float64 `json:"lng,omitempty"`
	Cost        float64 `json:"cost"`

	// Confidence is the producer's own score for the proposal, in [0, 1].
	Confidence float64 `json:"confidence,omitempty"`

	Source string `json:"source,omitempty"`
}
