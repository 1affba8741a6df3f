package ports

import (
	"context"

	"github.com/alejandrodnm/polysniper/internal/domain"
)

// Subscription es una suscripción abierta al feed de mercado.
type Subscription interface {
	// Updates devuelve el canal de eventos del book. El primer evento tras
	// suscribirse siempre es un snapshot completo; el resto son deltas.
	// El canal se cierra cuando la conexión cae o se llama a Close.
	Updates() <-chan domain.BookUpdate

	// Err devuelve la causa del cierre del canal, o nil si fue Close().
	Err() error

	// Close cierra la conexión. Idempotente.
	Close() error
}

// BookStreamer abre suscripciones de streaming a los books de un mercado.
type BookStreamer interface {
	// Subscribe abre una conexión y se suscribe a los token IDs dados.
	// La lectura bloquea solo a la goroutine dueña de la suscripción.
	Subscribe(ctx context.Context, tokenIDs []string) (Subscription, error)
}
