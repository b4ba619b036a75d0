package config

// LLMConfig configures the LLM gateway (internal/llmgw).
type LLMConfig struct {
	Provider    string  `yaml:"provider"` // zai, openai, anthropic, gemini
	APIKey      string  `yaml:"api_key"`
	Model       string  `yaml:"model"`
	BaseURL     string  `yaml:"base_url"`
	Timeout     string  `yaml:"timeout"`
	MaxTokens   int     `yaml:"max_tokens"`
	Temperature float64 `yaml:"temperature"`
}

// EmbeddingConfig configures the embedding store's backing engine.
type EmbeddingConfig struct {
	Provider string `yaml:"provider"` // ollama or genai

	OllamaEndpoint string `yaml:"ollama_endpoint"`
	OllamaModel    string `yaml:"ollama_model"`

	GenAIAPIKey string `yaml:"genai_api_key"`
	GenAIModel  string `yaml:"genai_model"`
	TaskType    string `yaml:"task_type"`

	// OntologyPath points at a JSON file holding a nested feature ontology
	// (maps of maps of leaf-lists), consumed by EmbeddingStore.BuildFromOntology.
	OntologyPath string `yaml:"ontology_path"`
}
