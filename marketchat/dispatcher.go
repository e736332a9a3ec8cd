package marketchat

import "sync"

// ReadReceipt reports messages the server marked read.
type ReadReceipt struct {
	ConversationID string
	MessageIDs     []string
}

// Dispatcher routes decoded events to registered callbacks.
type Dispatcher struct {
	mu             sync.RWMutex
	onMessage      func(Message)
	onRead         func(ReadReceipt)
	onTyping       func(TypingState)
	onStateChanged func(StateEvent)
	onError        func(error)
}

func (d *Dispatcher) SetOnMessage(fn func(Message))         { d.set(func() { d.onMessage = fn }) }
func (d *Dispatcher) SetOnRead(fn func(ReadReceipt))        { d.set(func() { d.onRead = fn }) }
func (d *Dispatcher) SetOnTyping(fn func(TypingState))      { d.set(func() { d.onTyping = fn }) }
func (d *Dispatcher) SetOnStateChanged(fn func(StateEvent)) { d.set(func() { d.onStateChanged = fn }) }
func (d *Dispatcher) SetOnError(fn func(error))             { d.set(func() { d.onError = fn }) }

func (d *Dispatcher) set(assign func()) {
	d.mu.Lock()
	assign()
	d.mu.Unlock()
}

func (d *Dispatcher) fireMessage(m Message) {
	d.mu.RLock()
	fn := d.onMessage
	d.mu.RUnlock()
	if fn != nil {
		fn(m)
	}
}

func (d *Dispatcher) fireRead(r ReadReceipt) {
	d.mu.RLock()
	fn := d.onRead
	d.mu.RUnlock()
	if fn != nil {
		fn(r)
	}
}

func (d *Dispatcher) fireTyping(s TypingState) {
	d.mu.RLock()
	fn := d.onTyping
	d.mu.RUnlock()
	if fn != nil {
		fn(s)
	}
}

func (d *Dispatcher) fireState(ev StateEvent) {
	d.mu.RLock()
	fn := d.onStateChanged
	d.mu.RUnlock()
	if fn != nil {
		fn(ev)
	}
}

func (d *Dispatcher) fireError(err error) {
	d.mu.RLock()
	fn := d.onError
	d.mu.RUnlock()
	if fn != nil && err != nil {
		fn(err)
	}
}
