package stress

import (
	"encoding/json"
	"os"

	"github.com/cockroachdb/errors"
)

type Options struct {
	Workers          int
	Rounds           int
	UpgradesPerRound int
	ReportDurationMS int64
	LogLevel         string
	MetricsNamespace string
}

var ErrInvalidOptions = errors.New("invalid stress options")

func LoadOptionsFile(path string, options *Options) error {
	var (
		content []byte
		err     error
	)

	content, err = os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "read options file %s", path)
	}

	err = json.Unmarshal(content, options)
	if err != nil {
		return errors.Wrapf(err, "decode options file %s", path)
	}

	return options.Validate()
}

func (p *Options) Validate() error {
	if p.Workers <= 0 {
		return errors.Wrapf(ErrInvalidOptions, "Workers must be positive, got %d", p.Workers)
	}
	if p.Rounds <= 0 {
		return errors.Wrapf(ErrInvalidOptions, "Rounds must be positive, got %d", p.Rounds)
	}
	if p.UpgradesPerRound <= 0 {
		p.UpgradesPerRound = 100
	}
	if p.ReportDurationMS <= 0 {
		p.ReportDurationMS = 1000
	}
	return nil
}
