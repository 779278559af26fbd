package usage

// DefaultHighThreshold is the combined token count above which a session is
// shown as a heavy consumer. It never blocks anything.
const DefaultHighThreshold int64 = 150000

// Delta is one usage report as delivered by the runtime.
type Delta struct {
	Input         int64
	Output        int64
	CacheRead     int64
	CacheCreation int64
}

// Counter holds running token totals for one session. Totals only grow;
// a counter is reset by dropping the session that owns it.
type Counter struct {
	InputTokens         int64 `json:"input_tokens"`
	OutputTokens        int64 `json:"output_tokens"`
	CacheReadTokens     int64 `json:"cache_read_tokens,omitempty"`
	CacheCreationTokens int64 `json:"cache_creation_tokens,omitempty"`
}

// Accumulate adds d to the counter. Negative components are ignored.
func (c *Counter) Accumulate(d Delta) {
	c.InputTokens += positive(d.Input)
	c.OutputTokens += positive(d.Output)
	c.CacheReadTokens += positive(d.CacheRead)
	c.CacheCreationTokens += positive(d.CacheCreation)
}

// Total is input plus output tokens.
func (c Counter) Total() int64 {
	return c.InputTokens + c.OutputTokens
}

// High reports whether Total has reached threshold. A non-positive threshold
// falls back to DefaultHighThreshold.
func (c Counter) High(threshold int64) bool {
	if threshold <= 0 {
		threshold = DefaultHighThreshold
	}
	return c.Total() >= threshold
}

func positive(n int64) int64 {
	if n < 0 {
		return 0
	}
	return n
}
