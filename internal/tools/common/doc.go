// Package common provides helpers shared by the tool groups: the
// instrumentation wrapper, session access and result formatting.
package common
