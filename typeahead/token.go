package typeahead

// Token is the in-progress completion left of the cursor.
// Offsets are rune offsets into the compose text.
type Token struct {
	Kind Kind `json:"kind"`
	// Query is what matchers see: trigger and delimiters stripped
	Query string `json:"query"`
	// Raw is the text from Start to End as typed
	Raw    string `json:"raw"`
	Start  int    `json:"start"`
	End    int    `json:"end"`
	Silent bool   `json:"silent,omitempty"`
	// Stream is the channel name of topic_list and topic_jump tokens
	Stream string `json:"stream,omitempty"`
	// Enumerate is set when the mention opener (@** or @*) is complete;
	// the whole universe is listed with non-matches ranked last.
	Enumerate bool `json:"enumerate,omitempty"`
}

// IsZero reports whether t is the empty token
func (t Token) IsZero() bool {
	return t.Kind == ""
}
