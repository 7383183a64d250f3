// Package utility implements small everyday helpers: currency and unit
// conversion, world clock, bill splitting, age and an arithmetic calculator.
// Dispatcher routes free-text commands to them.
package utility
