// Package logs reads run log files for the show command.
//
// Reads are bounded: the last N lines are kept in a ring buffer, and follow
// mode polls from a byte offset until new lines arrive or the wait expires.
package logs
