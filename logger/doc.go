// Package logger provides structured logging for voiceid components,
// built on zerolog. Components obtain a tagged sub-logger via
// WithComponent and attach request-scoped fields with WithFields.
package logger
