package v1

import "io"

// Option configures a Client.
type Option func(*clientConfig)

type clientConfig struct {
	configPath string
	logOut     io.Writer
	logLevel   string
	apply      []func(*settings)
}

type settings struct {
	model        string
	dim          *int
	window       *int
	epochs       *int
	threads      *int
	negative     *int
	hs           *bool
	seed         *uint64
	sample       *float64
	alpha        *float64
	randomWindow *bool
	minCount     *uint64
	lowercase    *bool
	tableSize    *int
}

// WithConfig loads defaults from a YAML config file before other options
// apply.
func WithConfig(path string) Option {
	return func(c *clientConfig) {
		c.configPath = path
	}
}

// WithLogger sends training logs to w at the given level.
func WithLogger(w io.Writer, level string) Option {
	return func(c *clientConfig) {
		c.logOut = w
		c.logLevel = level
	}
}

func with(f func(*settings)) Option {
	return func(c *clientConfig) {
		c.apply = append(c.apply, f)
	}
}

// WithModel selects cbow, skipgram, pvdm or pvdbow.
func WithModel(model string) Option {
	return with(func(s *settings) { s.model = model })
}

// WithDimension sets the vector size.
func WithDimension(dim int) Option {
	return with(func(s *settings) { s.dim = &dim })
}

func WithWindow(window int) Option {
	return with(func(s *settings) { s.window = &window })
}

func WithEpochs(epochs int) Option {
	return with(func(s *settings) { s.epochs = &epochs })
}

// WithThreads sets the number of training goroutines. Zero means one per CPU.
func WithThreads(n int) Option {
	return with(func(s *settings) { s.threads = &n })
}

// WithNegative sets the negative samples per target. Zero disables negative
// sampling.
func WithNegative(n int) Option {
	return with(func(s *settings) { s.negative = &n })
}

func WithHierarchicalSoftmax(on bool) Option {
	return with(func(s *settings) { s.hs = &on })
}

func WithSeed(seed uint64) Option {
	return with(func(s *settings) { s.seed = &seed })
}

// WithSample sets the subsampling threshold. Zero keeps every word.
func WithSample(sample float64) Option {
	return with(func(s *settings) { s.sample = &sample })
}

func WithAlpha(alpha float64) Option {
	return with(func(s *settings) { s.alpha = &alpha })
}

func WithRandomWindow(on bool) Option {
	return with(func(s *settings) { s.randomWindow = &on })
}

func WithMinCount(n uint64) Option {
	return with(func(s *settings) { s.minCount = &n })
}

func WithLowercase(on bool) Option {
	return with(func(s *settings) { s.lowercase = &on })
}

// WithTableSize sets the negative sampling table size.
func WithTableSize(n int) Option {
	return with(func(s *settings) { s.tableSize = &n })
}
