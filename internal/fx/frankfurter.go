package fx

import (
	"context"
	"net/http"
	"strings"

	"github.com/eugenenazirov/nuts-optimizer/internal/currency"
)

// DefaultFrankfurterURL is the public Frankfurter API.
const DefaultFrankfurterURL = "https://api.frankfurter.app"

type frankfurterResponse struct {
	Base  string             `json:"base"`
	Rates map[string]float64 `json:"rates"`
}

// Frankfurter queries GET {baseURL}/latest?from=X&to=Y,Z.
type Frankfurter struct {
	httpSource
}

// NewFrankfurter creates a Frankfurter source.
func NewFrankfurter(baseURL string, session *http.Client) *Frankfurter {
	return &Frankfurter{httpSource: newHTTPSource("frankfurter", baseURL, session)}
}

func (f *Frankfurter) Latest(ctx context.Context, from currency.Code, to ...currency.Code) (map[currency.Code]float64, error) {
	req, err := f.newRequest(ctx, f.baseURL+"/latest")
	if err != nil {
		return nil, err
	}

	q := req.URL.Query()
	q.Set("from", string(from))
	if len(to) > 0 {
		targets := make([]string, len(to))
		for i, code := range to {
			targets[i] = string(code)
		}
		q.Set("to", strings.Join(targets, ","))
	}
	req.URL.RawQuery = q.Encode()

	var decoded frankfurterResponse
	if err := f.getJSON(req, &decoded); err != nil {
		return nil, err
	}

	return pickRates(decoded.Rates, to)
}
