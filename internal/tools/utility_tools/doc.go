// Package utility_tools provides the calculator, the one-line utility
// dispatcher and the dedicated conversion tools.
package utility_tools
