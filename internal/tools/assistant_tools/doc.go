// Package assistant_tools groups the general purpose assistant tools:
// translation, image conversion, legal questions and job search.
package assistant_tools
