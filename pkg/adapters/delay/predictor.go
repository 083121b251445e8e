package delay

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/aretw0/railchat/internal/logging"
	"github.com/aretw0/railchat/pkg/domain"
)

// Predictor implements ports.DelayPredictor over a Network. The train is assumed to
// leave the departure station now; each leg's running time is not modelled, so the
// same clock time decides peak for every leg.
type Predictor struct {
	network *Network
	clock   func() time.Time
	logger  *slog.Logger
}

// PredictorOption configures a Predictor.
type PredictorOption func(*Predictor)

// WithClock replaces time.Now.
func WithClock(clock func() time.Time) PredictorOption {
	return func(p *Predictor) {
		p.clock = clock
	}
}

// WithLogger sets a structured logger.
func WithLogger(logger *slog.Logger) PredictorOption {
	return func(p *Predictor) {
		p.logger = logger
	}
}

// NewPredictor creates a predictor for the given network.
func NewPredictor(n *Network, opts ...PredictorOption) *Predictor {
	p := &Predictor{network: n, clock: time.Now, logger: logging.NewNop()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Predict projects delayMinutes at fromCode onto toCode.
func (p *Predictor) Predict(ctx context.Context, fromCode, toCode string, delayMinutes int) (int, error) {
	from, ok := p.network.Tiploc(fromCode)
	if !ok {
		return 0, &domain.LookupError{Service: "delays", Reason: fmt.Sprintf("%s is not on the %s network", fromCode, p.network.Name)}
	}
	to, ok := p.network.Tiploc(toCode)
	if !ok {
		return 0, &domain.LookupError{Service: "delays", Reason: fmt.Sprintf("%s is not on the %s network", toCode, p.network.Name)}
	}
	legs, ok := p.network.Path(from, to)
	if !ok {
		return 0, &domain.LookupError{Service: "delays", Reason: fmt.Sprintf("no route from %s to %s", fromCode, toCode)}
	}

	hhmm := p.clock().Format("1504")
	delay := float64(delayMinutes)
	for _, leg := range legs {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		delay = leg.Model.apply(delay, leg.Peak(hhmm))
	}
	predicted := int(math.Round(delay))

	p.logger.Debug("delay predicted",
		"from", fromCode, "to", toCode, "legs", len(legs),
		"observed", delayMinutes, "predicted", predicted)
	return predicted, nil
}
