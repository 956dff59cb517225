package wsclient

// Listener is notified when a text frame arrives on a Client.
// OnTextMessage runs on the client's read goroutine.
type Listener interface {
	OnTextMessage(c *Client, text string)
}

// ListenerFunc adapts an ordinary function to the Listener interface.
type ListenerFunc func(c *Client, text string)

// OnTextMessage calls f(c, text).
func (f ListenerFunc) OnTextMessage(c *Client, text string) {
	f(c, text)
}
