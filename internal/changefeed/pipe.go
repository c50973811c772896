package changefeed

import (
	"context"
	"sync"
)

// SendFunc entrega un evento al consumidor. Devuelve false si el stream se cerró.
type SendFunc func(Event) bool

// ProduceFunc corre en su propia goroutine hasta que ctx se cancela o la
// fuente se agota. Es dueña de sus recursos y debe liberarlos al salir.
type ProduceFunc func(ctx context.Context, send SendFunc) error

// Pipe es el Stream que comparten las implementaciones. El canal de eventos no
// tiene buffer, así que cada entrega es una cita con el consumidor; Close
// cancela al productor, espera a que salga y recién entonces cierra el canal.
type Pipe struct {
	events chan Event
	cancel context.CancelFunc
	exited chan struct{}
	once   sync.Once

	mu  sync.Mutex
	err error
}

// StartPipe lanza produce. El stream no hereda la cancelación de ctx: vive
// hasta Close o hasta que el productor termina.
func StartPipe(ctx context.Context, produce ProduceFunc) *Pipe {
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	p := &Pipe{
		events: make(chan Event),
		cancel: cancel,
		exited: make(chan struct{}),
	}
	send := func(ev Event) bool {
		select {
		case <-runCtx.Done():
			return false
		default:
		}
		select {
		case p.events <- ev:
			return true
		case <-runCtx.Done():
			return false
		}
	}
	go func() {
		defer close(p.exited)
		defer close(p.events)
		err := produce(runCtx, send)
		p.mu.Lock()
		p.err = err
		p.mu.Unlock()
	}()
	return p
}

func (p *Pipe) Events() <-chan Event {
	return p.events
}

// Close es idempotente y bloquea hasta que el productor terminó.
func (p *Pipe) Close() error {
	p.once.Do(func() {
		p.cancel()
	})
	<-p.exited
	return nil
}

// Done se cierra cuando el productor terminó, por Close o por su cuenta.
func (p *Pipe) Done() <-chan struct{} {
	return p.exited
}

// Err devuelve el error con el que terminó el productor, si lo hubo.
func (p *Pipe) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}
