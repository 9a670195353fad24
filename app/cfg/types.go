package cfg

type Cfg struct {
	// Storage configuration
	DBPath string

	// Provider configuration
	NewsAPIKey      string
	MarketauxAPIKey string
	MaxArticles     int

	// Application configuration
	HoldingsFile      string
	Port              string
	BaseUrl           string
	WorkerCount       int
	SchedulerInterval int
	RefreshInterval   int
	RetentionDays     int
	APIAccessKey      string

	// Application metadata
	UserAgent string
	Timezone  string
	Debug     bool
	Version   string
}
