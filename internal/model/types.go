package model

// VersionedRecord captures schema and codec evolution for persistent data.
type VersionedRecord struct {
	SchemaVersion int `json:"schema_version"`
	CodecVersion  int `json:"codec_version"`
}

// NodeRecord is one node of a flattened tree in preorder. Arity is implied by
// the referenced definition, so child records follow immediately after their
// parent without explicit links.
type NodeRecord struct {
	Def   string `json:"def"`
	Value string `json:"value,omitempty"`
}

// TreeRecord is the persistent form of an expression tree: the construction
// parameters it was built under plus its nodes in preorder.
type TreeRecord struct {
	VersionedRecord
	ID        string       `json:"id"`
	Returns   string       `json:"returns"`
	MaxDepth  int          `json:"max_depth"`
	Forbidden []string     `json:"forbidden,omitempty"`
	Nodes     []NodeRecord `json:"nodes"`
}

type Individual struct {
	ID       string  `json:"id"`
	TreeID   string  `json:"tree_id"`
	Fitness  float64 `json:"fitness"`
	RawScore float64 `json:"raw_score"`
	Size     int     `json:"size"`
	Depth    int     `json:"depth"`
}

type Population struct {
	VersionedRecord
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Generation  int          `json:"generation"`
	Individuals []Individual `json:"individuals"`
}

type GenerationDiagnostics struct {
	Generation  int     `json:"generation"`
	Population  string  `json:"population"`
	BestFitness float64 `json:"best_fitness"`
	MeanFitness float64 `json:"mean_fitness"`
	MinFitness  float64 `json:"min_fitness"`
	MeanSize    float64 `json:"mean_size"`
	LargestSize int     `json:"largest_size"`
	MeanDepth   float64 `json:"mean_depth"`
}

type LineageRecord struct {
	TreeID     string   `json:"tree_id"`
	ParentIDs  []string `json:"parent_ids,omitempty"`
	Generation int      `json:"generation"`
	Operation  string   `json:"operation"`
}
