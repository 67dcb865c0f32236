package sample

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/floats"

	"github.com/roach88/geometrix/internal/symbolic"
)

// Domain is the closed interval [Start, Stop] of one coordinate.
type Domain struct {
	Name  string  `json:"name"`
	Start float64 `json:"start"`
	Stop  float64 `json:"stop"`
}

// Linspace returns count evenly spaced values from Start to Stop inclusive.
func (d Domain) Linspace(count int) ([]float64, error) {
	if count <= 1 {
		return nil, &DomainError{Code: ErrDomainCount, Name: d.Name, Message: fmt.Sprintf("count must be > 1, got %d", count)}
	}
	return floats.Span(make([]float64, count), d.Start, d.Stop), nil
}

// ValidateDomains checks that every domain has finite bounds with
// Start < Stop. The first invalid domain is reported.
func ValidateDomains(domains []Domain) error {
	for _, d := range domains {
		switch {
		case math.IsNaN(d.Start) || math.IsInf(d.Start, 0) || math.IsNaN(d.Stop) || math.IsInf(d.Stop, 0):
			return &DomainError{Code: ErrDomainBounds, Name: d.Name, Message: fmt.Sprintf("bounds must be finite, got [%g, %g]", d.Start, d.Stop)}
		case d.Start >= d.Stop:
			return &DomainError{Code: ErrDomainBounds, Name: d.Name, Message: fmt.Sprintf("start must be less than stop, got [%g, %g]", d.Start, d.Stop)}
		}
	}
	return nil
}

// DefaultDomains returns [0, 1] for every coordinate.
func DefaultDomains(coords []string) []Domain {
	out := make([]Domain, len(coords))
	for i, c := range coords {
		out[i] = Domain{Name: c, Start: 0, Stop: 1}
	}
	return out
}

// ParseDomains reads whitespace separated ranges such as
// "u:[0,pi] v:[0,2*pi]". Bounds are expressions over params and the
// constants pi and E.
func ParseDomains(text string, params map[string]float64) ([]Domain, error) {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return nil, &DomainError{Code: ErrDomainSyntax, Message: "empty domain specification"}
	}
	bindings := make(map[string]symbolic.Expr, len(params))
	for k, v := range params {
		bindings[k] = symbolic.NFloat(v)
	}

	out := make([]Domain, 0, len(fields))
	for _, entry := range fields {
		name, rng, ok := strings.Cut(entry, ":")
		if !ok || name == "" {
			return nil, &DomainError{Code: ErrDomainSyntax, Message: fmt.Sprintf("range %q must look like name:[start,stop]", entry)}
		}
		rng = strings.TrimSuffix(strings.TrimPrefix(rng, "["), "]")
		startText, stopText, ok := strings.Cut(rng, ",")
		if !ok {
			return nil, &DomainError{Code: ErrDomainSyntax, Name: name, Message: fmt.Sprintf("range %q needs start and stop", entry)}
		}
		start, err := evalBound(startText, bindings)
		if err != nil {
			return nil, &DomainError{Code: ErrDomainSyntax, Name: name, Message: fmt.Sprintf("start: %v", err)}
		}
		stop, err := evalBound(stopText, bindings)
		if err != nil {
			return nil, &DomainError{Code: ErrDomainSyntax, Name: name, Message: fmt.Sprintf("stop: %v", err)}
		}
		out = append(out, Domain{Name: name, Start: start, Stop: stop})
	}
	return out, nil
}

func evalBound(text string, bindings map[string]symbolic.Expr) (float64, error) {
	e, err := symbolic.Parse(strings.TrimSpace(text), symbolic.ParseOptions{Bindings: bindings})
	if err != nil {
		return 0, err
	}
	return e.Eval(nil)
}

// Meshgrid returns one flattened grid per domain in ij order: the first
// domain varies slowest. Every grid has the product of counts entries.
func Meshgrid(domains []Domain, counts []int) ([][]float64, error) {
	if len(domains) != len(counts) {
		return nil, &DomainError{Code: ErrDomainCount, Message: fmt.Sprintf("%d domains but %d counts", len(domains), len(counts))}
	}
	axes := make([][]float64, len(domains))
	total := 1
	for i, d := range domains {
		axis, err := d.Linspace(counts[i])
		if err != nil {
			return nil, err
		}
		axes[i] = axis
		total *= counts[i]
	}

	grids := make([][]float64, len(axes))
	for i := range grids {
		grids[i] = make([]float64, total)
	}
	// stride of axis i is the product of the counts after it
	stride := total
	for i, axis := range axes {
		stride /= len(axis)
		for k := range total {
			grids[i][k] = axis[(k/stride)%len(axis)]
		}
	}
	return grids, nil
}
