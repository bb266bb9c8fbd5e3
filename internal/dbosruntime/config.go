package dbosruntime

// Config holds DBOS runtime configuration
type Config struct {
	// DatabaseURL is the PostgreSQL connection string for DBOS state storage.
	// Required.
	DatabaseURL string

	// AppName identifies this application in DBOS.
	// Required. Used for workflow isolation and logging.
	AppName string

	// QueueName is the name of the workflow queue.
	// Optional. Defaults to "imports".
	QueueName string

	// Concurrency is the number of concurrent workers per queue.
	// Optional. Defaults to 4. Note this bounds concurrent jobs; within one
	// job the pipeline is strictly sequential.
	Concurrency int

	// ApplicationVersion overrides the default binary hash for version
	// matching. Optional.
	ApplicationVersion string
}

// WithDefaults fills in default values for optional fields
func (c *Config) WithDefaults() {
	if c.QueueName == "" {
		c.QueueName = "imports"
	}
	if c.Concurrency == 0 {
		c.Concurrency = 4
	}
}
