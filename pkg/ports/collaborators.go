package ports

import (
	"context"

	"github.com/aretw0/railchat/pkg/domain"
)

// StationDirectory resolves station names.
type StationDirectory interface {
	// Lookup finds a station by exact name, ignoring case.
	// Returns domain.ErrStationNotFound when there is no such station.
	Lookup(ctx context.Context, name string) (domain.Station, error)

	// Search returns up to limit stations whose name contains query, ignoring case.
	Search(ctx context.Context, query string, limit int) ([]domain.Station, error)
}

// StationLister enumerates a whole directory, e.g. to build a phrase matcher.
type StationLister interface {
	Stations(ctx context.Context) ([]domain.Station, error)
}

// StationCoder is implemented by directories that can verify station codes.
type StationCoder interface {
	// LookupCode finds a station by its code, ignoring case.
	// Returns domain.ErrStationNotFound for an unknown code.
	LookupCode(ctx context.Context, code string) (domain.Station, error)
}

// FareFinder quotes cheapest fares. A *domain.LookupError reports a journey the
// service cannot price; any other error is treated as an outage.
type FareFinder interface {
	Single(ctx context.Context, q domain.SingleQuery) (domain.SingleQuote, error)
	Return(ctx context.Context, q domain.ReturnQuery) (domain.ReturnQuote, error)
}

// DelayPredictor estimates the delay, in minutes, at the arrival station given the
// delay observed at the departure station. A *domain.LookupError reports an unknown
// route.
type DelayPredictor interface {
	Predict(ctx context.Context, fromCode, toCode string, delayMinutes int) (int, error)
}

// HelpSource answers help topics.
// Returns domain.ErrUnknownTopic for topics it has no answer for.
type HelpSource interface {
	Answer(ctx context.Context, topic string) (string, error)
	Topics(ctx context.Context) ([]string, error)
}

// MessageSink receives the replies of a turn.
type MessageSink interface {
	SendMessage(ctx context.Context, text string) error
	SendChoiceList(ctx context.Context, prompt string, options []string) error
}

// Extractor reads a free-text message into the structured record a turn consumes.
type Extractor interface {
	Extract(ctx context.Context, raw string) (domain.Extraction, error)
}
