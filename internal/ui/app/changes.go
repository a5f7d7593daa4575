package app

// ChangeFeed turns working-set notifications into a channel the model can wait on.
// Bursts collapse into a single pending signal.
type ChangeFeed struct {
	ch chan struct{}
}

func NewChangeFeed() *ChangeFeed {
	return &ChangeFeed{ch: make(chan struct{}, 1)}
}

func (f *ChangeFeed) Changed() {
	select {
	case f.ch <- struct{}{}:
	default:
	}
}

func (f *ChangeFeed) C() <-chan struct{} {
	return f.ch
}
