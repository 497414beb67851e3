// Package shared provides utilities used by more than one mode.
package shared

import "github.com/atotto/clipboard"

// Clipboard copies text for the user.
type Clipboard interface {
	Copy(text string) error
}

// SystemClipboard writes to the OS clipboard.
type SystemClipboard struct{}

func (SystemClipboard) Copy(text string) error {
	return clipboard.WriteAll(text)
}

// MemoryClipboard remembers the last copied text.
type MemoryClipboard struct {
	Last string
	Err  error
}

func (c *MemoryClipboard) Copy(text string) error {
	if c.Err != nil {
		return c.Err
	}
	c.Last = text
	return nil
}
