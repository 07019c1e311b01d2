// Package currency converts user-entered amounts into the base currency used
// by the allocation search. It performs no I/O: the exchange rate is supplied
// by the caller, typically from an fx.Provider.
package currency
