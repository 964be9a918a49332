package editor

// Subscribe returns a channel that receives the latest revision after
// every committed change, and a func that ends the subscription. Sends
// never block: a slow reader sees only the newest revision.
func (e *Editor) Subscribe() (<-chan uint64, func()) {
	ch := make(chan uint64, 1)

	e.subMu.Lock()
	id := e.nextID
	e.nextID++
	e.subs[id] = ch
	e.subMu.Unlock()

	var once bool
	cancel := func() {
		e.subMu.Lock()
		defer e.subMu.Unlock()
		if once {
			return
		}
		once = true
		delete(e.subs, id)
		close(ch)
	}
	return ch, cancel
}

func (e *Editor) notify(rev uint64) {
	e.subMu.Lock()
	defer e.subMu.Unlock()
	for _, ch := range e.subs {
		select {
		case ch <- rev:
		default:
			// Replace the stale revision with the newest one.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- rev:
			default:
			}
		}
	}
}
