package domain

import "time"

// Document is an immutable source artifact owned by a tenant. Re-uploading
// under the same name keeps the ID stable and replaces its chunks atomically.
type Document struct {
	ID         string
	TenantID   string
	Name       string
	Format     string // MIME-style format tag, e.g. "text/plain"
	Size       int
	UploadedAt time.Time
}

// Chunk is a bounded span of a document's normalized text. Offsets are rune
// positions into the normalized stream, [Start, End).
type Chunk struct {
	ID     string
	DocID  string
	Seq    int
	Start  int
	End    int
	Text   string
	Tokens []string
}

// ScoredChunk is a retrieval result with provenance.
type ScoredChunk struct {
	Chunk    Chunk
	Doc      Document
	Score    float64
	Semantic float64
	Lexical  float64
}

// Citation points at a retrieved chunk; it is only ever derived from a
// ScoredChunk actually returned by the retriever.
type Citation struct {
	DocID   string  `json:"doc_id"`
	DocName string  `json:"doc_name"`
	ChunkID string  `json:"chunk_id"`
	Start   int     `json:"start"`
	End     int     `json:"end"`
	Score   float64 `json:"score"`
}

// RoutingDecision records how a turn was dispatched.
type RoutingDecision struct {
	Intent     string             `json:"intent"`
	Confidence float64            `json:"confidence"`
	Agent      string             `json:"agent"`
	Ambiguous  bool               `json:"ambiguous,omitempty"`
	Attempted  []string           `json:"attempted,omitempty"`
	Scores     map[string]float64 `json:"scores,omitempty"`
}

// Result is what an agent produces for a single turn. Degraded results carry
// an explanatory text instead of failing the turn.
type Result struct {
	Text      string            `json:"text"`
	Agent     string            `json:"agent"`
	Citations []Citation        `json:"citations,omitempty"`
	Payload   map[string]string `json:"payload,omitempty"`
	Degraded  bool              `json:"degraded,omitempty"`
}

// Turn is one exchange in a conversation.
type Turn struct {
	UserMessage string          `json:"user_message"`
	Agent       string          `json:"agent"`
	Response    string          `json:"response"`
	Citations   []Citation      `json:"citations,omitempty"`
	Decision    RoutingDecision `json:"decision"`
	At          time.Time       `json:"at"`
}

// Conversation is an append-only sequence of turns scoped to one tenant.
type Conversation struct {
	ID       string
	TenantID string
	Turns    []Turn
}

// LastAgent returns the agent that handled the most recent turn, or "".
func (c Conversation) LastAgent() string {
	if len(c.Turns) == 0 {
		return ""
	}
	return c.Turns[len(c.Turns)-1].Agent
}

// TenantStats summarizes a tenant's corpus.
type TenantStats struct {
	Documents     int
	Chunks        int
	Conversations int
	Files         []string
}
