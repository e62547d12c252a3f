package stockfeed

// DealerStock is one row of the dealer-stock feed: available units of a
// (trim, color) at a dealer. Count arrives string-encoded and unvalidated,
// the same as the region stock feed.
type DealerStock struct {
	DealerID string `json:"dealerId"`
	Count    string `json:"count"`
}

// stockResponse is the feed's wire envelope.
type stockResponse struct {
	Status string        `json:"status"`
	Data   []DealerStock `json:"data"`
}
