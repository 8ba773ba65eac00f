package alloc

import (
	"fmt"
	"log/slog"
	"math/bits"

	"github.com/joshuapare/memkit/internal/logger"
)

const (
	// DefaultPages is the reservation size used when neither WithPages nor
	// WithMaxElements is given.
	DefaultPages = 16

	// DefaultGranularity is the number of pages committed per growth step.
	DefaultGranularity = 1
)

// Option configures FixedBlock and Arena construction.
type Option func(*config) error

type config struct {
	pages       int
	maxElements int
	granularity int
	logger      *slog.Logger
}

func defaultConfig() config {
	return config{granularity: DefaultGranularity}
}

func applyOptions(opts []Option) (config, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		if err := opt(&cfg); err != nil {
			return config{}, err
		}
	}
	if cfg.logger == nil {
		cfg.logger = logger.L()
	}
	return cfg, nil
}

// WithPages sets the reservation size in pages. It overrides WithMaxElements.
func WithPages(n int) Option {
	return func(c *config) error {
		if n <= 0 {
			return fmt.Errorf("%w: pages %d", ErrBadOption, n)
		}
		c.pages = n
		return nil
	}
}

// WithMaxElements sizes the reservation to hold n blocks. For an Arena, n is
// a byte count.
func WithMaxElements(n int) Option {
	return func(c *config) error {
		if n <= 0 {
			return fmt.Errorf("%w: max elements %d", ErrBadOption, n)
		}
		c.maxElements = n
		return nil
	}
}

// WithGranularity sets how many pages are committed or decommitted per step.
// The value is rounded up to a power of two.
func WithGranularity(pages int) Option {
	return func(c *config) error {
		if pages <= 0 {
			return fmt.Errorf("%w: granularity %d", ErrBadOption, pages)
		}
		c.granularity = nextPow2(pages)
		return nil
	}
}

// WithLogger sets the logger for commit, decommit and leak events.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) error {
		if l == nil {
			return fmt.Errorf("%w: nil logger", ErrBadOption)
		}
		c.logger = l
		return nil
	}
}

// reservedPages resolves the page budget for elements of stride bytes.
func (c config) reservedPages(stride, pageSize uintptr) int {
	switch {
	case c.pages > 0:
		return c.pages
	case c.maxElements > 0:
		bytes := uintptr(c.maxElements) * stride
		return int((bytes + pageSize - 1) / pageSize)
	default:
		return DefaultPages
	}
}

func nextPow2(n int) int {
	if n <= 1 {
		return 1
	}
	return 1 << bits.Len(uint(n-1))
}

func alignUp(n, align uintptr) uintptr {
	return (n + align - 1) &^ (align - 1)
}
