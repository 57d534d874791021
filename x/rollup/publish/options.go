package publish

import "github.com/rs/zerolog"

// Option configures a Publisher at construction time.
type Option func(*Dependencies)

// Dependencies holds the publisher's external collaborators.
type Dependencies struct {
	Chain    ChainClient
	Database RollupDatabase
	Metrics  MetricsRecorder
	Logger   zerolog.Logger
}

// WithChainClient sets the upstream chain client.
func WithChainClient(c ChainClient) Option {
	return func(d *Dependencies) { d.Chain = c }
}

// WithRollupDatabase sets the downstream rollup database.
func WithRollupDatabase(db RollupDatabase) Option {
	return func(d *Dependencies) { d.Database = db }
}

// WithMetricsRecorder sets the metrics collaborator.
func WithMetricsRecorder(m MetricsRecorder) Option {
	return func(d *Dependencies) { d.Metrics = m }
}

// WithLogger sets the logger; components attach a "component" field to it.
func WithLogger(log zerolog.Logger) Option {
	return func(d *Dependencies) { d.Logger = log }
}
