// Package fx supplies exchange rates into the base currency.
//
// Rates come from an ordered list of upstream sources: the first source that
// returns a valid rate wins, and a failing source (network error, non-2xx
// status, malformed body, open circuit breaker) hands over to the next one.
// When every source fails the lookup returns ErrRateUnavailable. Results can be
// memoised for a fixed freshness window with NewCache.
package fx
