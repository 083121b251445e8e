// Package delay projects a delay observed at one station onto a later station of the
// same rail network.
//
// A Network is a directed graph of stations keyed by TIPLOC code. Every leg carries
// the windows in which trains leaving the source station count as peak trains and a
// linear model that maps the delay at the start of the leg to the delay at its end.
package delay

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed ga_intercity.yaml
var gaIntercity []byte

// Model is a per-leg linear regressor: delay' = Intercept + Factor*delay, with
// PeakFactor replacing Factor for peak trains.
type Model struct {
	Intercept  float64 `yaml:"intercept"`
	Factor     float64 `yaml:"factor"`
	PeakFactor float64 `yaml:"peak_factor"`
}

func (m Model) apply(delay float64, peak bool) float64 {
	f := m.Factor
	if peak && m.PeakFactor != 0 {
		f = m.PeakFactor
	}
	return max(0, m.Intercept+f*delay)
}

// Window is a peak period as HHMM bounds, inclusive.
type Window struct {
	From string
	To   string
}

func (w Window) contains(hhmm string) bool {
	return w.From <= hhmm && hhmm <= w.To
}

// Leg is a directed connection between two adjacent stations.
type Leg struct {
	From  string
	To    string
	Peaks []Window
	Model Model
}

// Peak reports whether a train leaving at hhmm runs in a peak window.
func (l Leg) Peak(hhmm string) bool {
	for _, w := range l.Peaks {
		if w.contains(hhmm) {
			return true
		}
	}
	return false
}

// Network is a rail line graph.
type Network struct {
	Name  string
	codes map[string]string // CRS -> TIPLOC
	legs  map[string][]Leg  // TIPLOC -> outgoing legs, in declaration order
}

type fileFormat struct {
	Name         string            `yaml:"name"`
	Codes        map[string]string `yaml:"codes"`
	DefaultModel Model             `yaml:"default_model"`
	Lines        []struct {
		Stations []string `yaml:"stations"`
		Peaks    []struct {
			From []string `yaml:"from"`
			To   []string `yaml:"to"`
		} `yaml:"peaks"`
	} `yaml:"lines"`
	Models []struct {
		From  string `yaml:"from"`
		To    string `yaml:"to"`
		Model `yaml:",inline"`
	} `yaml:"models"`
}

// Load reads a network description.
func Load(r io.Reader) (*Network, error) {
	var f fileFormat
	if err := yaml.NewDecoder(r).Decode(&f); err != nil {
		return nil, fmt.Errorf("decoding network: %w", err)
	}
	if f.Name == "" {
		return nil, errors.New("network has no name")
	}
	if f.DefaultModel.Factor == 0 {
		f.DefaultModel.Factor = 1
	}

	n := &Network{Name: f.Name, codes: make(map[string]string), legs: make(map[string][]Leg)}
	for tpl, crs := range f.Codes {
		n.codes[strings.ToUpper(crs)] = tpl
	}

	for li, line := range f.Lines {
		if len(line.Stations) < 2 {
			return nil, fmt.Errorf("line %d: needs at least two stations", li+1)
		}
		for pi, p := range line.Peaks {
			if len(p.From) != len(line.Stations) || len(p.To) != len(line.Stations) {
				return nil, fmt.Errorf("line %d peak %d: want one window bound per station", li+1, pi+1)
			}
		}
		for i := 0; i < len(line.Stations)-1; i++ {
			leg := Leg{From: line.Stations[i], To: line.Stations[i+1], Model: f.DefaultModel}
			for _, p := range line.Peaks {
				leg.Peaks = append(leg.Peaks, Window{From: p.From[i], To: p.To[i]})
			}
			n.legs[leg.From] = append(n.legs[leg.From], leg)
		}
		if _, ok := n.legs[line.Stations[len(line.Stations)-1]]; !ok {
			n.legs[line.Stations[len(line.Stations)-1]] = nil
		}
	}

	for _, m := range f.Models {
		if !n.setModel(m.From, m.To, m.Model) {
			return nil, fmt.Errorf("model %s-%s: no such leg", m.From, m.To)
		}
	}
	return n, nil
}

// LoadFile reads a network description from disk.
func LoadFile(path string) (*Network, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening network: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// GreaterAnglia returns the built-in Norwich to London network.
func GreaterAnglia() *Network {
	n, err := Load(bytes.NewReader(gaIntercity))
	if err != nil {
		panic(fmt.Sprintf("embedded network: %v", err))
	}
	return n
}

func (n *Network) setModel(from, to string, m Model) bool {
	for i, leg := range n.legs[from] {
		if leg.To == to {
			n.legs[from][i].Model = m
			return true
		}
	}
	return false
}

// Tiploc maps a CRS code to the network's station code.
func (n *Network) Tiploc(crs string) (string, bool) {
	tpl, ok := n.codes[strings.ToUpper(crs)]
	return tpl, ok
}

// Path finds the legs of the shortest route between two TIPLOC codes.
func (n *Network) Path(from, to string) ([]Leg, bool) {
	if _, ok := n.legs[from]; !ok {
		return nil, false
	}
	if from == to {
		return []Leg{}, true
	}

	type step struct {
		at  string
		via []Leg
	}
	seen := map[string]bool{from: true}
	queue := []step{{at: from}}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, leg := range n.legs[cur.at] {
			if seen[leg.To] {
				continue
			}
			via := append(append([]Leg(nil), cur.via...), leg)
			if leg.To == to {
				return via, true
			}
			seen[leg.To] = true
			queue = append(queue, step{at: leg.To, via: via})
		}
	}
	return nil, false
}
