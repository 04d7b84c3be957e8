// Package ui renders command lifecycle events as short console messages.
//
// Command lines are shell escaped and passed through a credential redactor
// before they reach the console.
package ui
