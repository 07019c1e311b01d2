package fx

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/eugenenazirov/nuts-optimizer/internal/currency"
)

// DefaultOpenERURL is the public open.er-api.com endpoint.
const DefaultOpenERURL = "https://open.er-api.com"

type openERResponse struct {
	Result    string             `json:"result"`
	ErrorType string             `json:"error-type"`
	Rates     map[string]float64 `json:"rates"`
}

// OpenER queries GET {baseURL}/v6/latest/{X}, which returns every rate for X.
type OpenER struct {
	httpSource
}

// NewOpenER creates an open.er-api.com source.
func NewOpenER(baseURL string, session *http.Client) *OpenER {
	return &OpenER{httpSource: newHTTPSource("open-er-api", baseURL, session)}
}

func (o *OpenER) Latest(ctx context.Context, from currency.Code, to ...currency.Code) (map[currency.Code]float64, error) {
	req, err := o.newRequest(ctx, o.baseURL+"/v6/latest/"+url.PathEscape(string(from)))
	if err != nil {
		return nil, err
	}

	var decoded openERResponse
	if err := o.getJSON(req, &decoded); err != nil {
		return nil, err
	}
	if decoded.Result != "" && decoded.Result != "success" {
		return nil, fmt.Errorf("%w: result %q (%s)", ErrMalformedResponse, decoded.Result, decoded.ErrorType)
	}

	return pickRates(decoded.Rates, to)
}
