package cfg

type Cfg struct {
	// Storage configuration
	DBPath string

	// Curation model configuration
	GroqAPIKey   string
	GroqEndpoint string
	GroqModel    string
	ModelTimeout int

	// Collector configuration
	NewsAPIKey   string
	FetchWorkers int
	FetchHours   int

	// Delivery configuration
	SlackBotToken     string
	SlackSigningToken string
	ChannelDaily      string
	ChannelWeekend    string
	ChannelReport     string

	// Archive configuration
	NotionAPIKey string
	NotionDBID   string

	// Curation policy
	DedupWindowDays     int
	ExclusionThreshold  int
	DailyNewsCount      int
	DailyArticleCount   int
	WeekendArticleCount int

	// Server configuration
	Port         string
	TickInterval int
	ConfigDir    string

	// Application metadata
	Timezone string
	Debug    bool
	Version  string
}
