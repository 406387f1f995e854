package config

// RetrievalConfig tunes evidence selection. The defaults preserve the
// engine's reference behavior; changing them shifts when external
// sources are consulted and how much evidence survives filtering.
type RetrievalConfig struct {
	// SearchK is how many chunks a document index search returns (1-10).
	SearchK int `mapstructure:"search_k" json:"search_k"`
	// DocumentKeep is the minimum relevance for an indexed chunk to
	// count as evidence.
	DocumentKeep float64 `mapstructure:"document_keep" json:"document_keep"`
	// ExternalTrigger: a mean document score below this turns on both
	// external sources.
	ExternalTrigger float64 `mapstructure:"external_trigger" json:"external_trigger"`
	// ExternalKeep is the minimum relevance for cloud file or web
	// evidence.
	ExternalKeep float64 `mapstructure:"external_keep" json:"external_keep"`
}
