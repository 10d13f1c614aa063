package config

// Axis is one of a small fixed set of topical categories used to classify
// and diversify selections.
type Axis struct {
	ID          int    `yaml:"id"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

// Source describes a single deep-read feed with its quality tier
// (lower tier = higher priority).
type Source struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
	Tier int    `yaml:"tier"`
}

// Profile holds the reader's declared interest facts. The curation stages
// bind their output to these instead of hard-coding personal context.
type Profile struct {
	Name       string   `yaml:"name"`
	Identity   string   `yaml:"identity"`
	Background []string `yaml:"background"`
	Practices  []string `yaml:"practices"`
	Beliefs    []string `yaml:"beliefs"`
	Needs      []string `yaml:"needs"`
}

// Reference bundles all static reference data loaded at startup.
type Reference struct {
	Axes         []Axis   `yaml:"axes"`
	Sources      []Source `yaml:"deep_read_sources"`
	NewsKeywords []string `yaml:"news_keywords"`
	Profile      Profile  `yaml:"profile"`
}
