package memory

import (
	"context"
	"sync"

	"github.com/jhoicas/inventario-ledger/internal/application/ports"
)

// Notifier difusión de cambios en proceso (una sola instancia del servicio).
// Un suscriptor lento pierde eventos en lugar de bloquear al ledger; como cada evento
// provoca una recarga completa, basta con el siguiente.
type Notifier struct {
	mu     sync.Mutex
	subs   map[int]chan ports.ChangeEvent
	nextID int
	buffer int
}

var _ ports.ChangeNotifier = (*Notifier)(nil)

func NewNotifier() *Notifier {
	return &Notifier{subs: make(map[int]chan ports.ChangeEvent), buffer: 64}
}

func (n *Notifier) Publish(_ context.Context, ev ports.ChangeEvent) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, ch := range n.subs {
		select {
		case ch <- ev:
		default:
		}
	}
	return nil
}

func (n *Notifier) Subscribe(ctx context.Context) (<-chan ports.ChangeEvent, error) {
	n.mu.Lock()
	id := n.nextID
	n.nextID++
	ch := make(chan ports.ChangeEvent, n.buffer)
	n.subs[id] = ch
	n.mu.Unlock()

	go func() {
		<-ctx.Done()
		n.mu.Lock()
		delete(n.subs, id)
		close(ch)
		n.mu.Unlock()
	}()
	return ch, nil
}
