package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/jhoicas/inventario-ledger/internal/application/ports"
)

// DefaultChannel canal de pub/sub de los cambios del ledger.
const DefaultChannel = "inventario:ledger:changes"

var _ ports.ChangeNotifier = (*Notifier)(nil)

// Notifier difunde los commits del ledger a todas las instancias del servicio.
// Pub/sub no guarda mensajes: un suscriptor desconectado pierde eventos y se
// resincroniza con el siguiente, porque cada evento provoca una recarga completa.
type Notifier struct {
	rdb     *redis.Client
	channel string
	log     zerolog.Logger
}

func NewNotifier(rdb *redis.Client, channel string, log zerolog.Logger) *Notifier {
	if channel == "" {
		channel = DefaultChannel
	}
	return &Notifier{rdb: rdb, channel: channel, log: log}
}

func (n *Notifier) Publish(ctx context.Context, ev ports.ChangeEvent) error {
	payload, err := encodeEvent(ev)
	if err != nil {
		return err
	}
	if err := n.rdb.Publish(ctx, n.channel, payload).Err(); err != nil {
		return fmt.Errorf("redis publish: %w", err)
	}
	return nil
}

// Subscribe entrega los eventos del canal hasta que ctx se cancela.
func (n *Notifier) Subscribe(ctx context.Context) (<-chan ports.ChangeEvent, error) {
	sub := n.rdb.Subscribe(ctx, n.channel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, fmt.Errorf("redis subscribe: %w", err)
	}

	out := make(chan ports.ChangeEvent, 64)
	go func() {
		defer close(out)
		defer sub.Close()
		msgs := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				ev, err := decodeEvent(msg.Payload)
				if err != nil {
					n.log.Warn().Err(err).Str("channel", msg.Channel).Msg("evento de cambios ilegible")
					continue
				}
				select {
				case out <- ev:
				default:
					n.log.Warn().Str("company_id", ev.CompanyID).Msg("suscriptor lento, evento descartado")
				}
			}
		}
	}()
	return out, nil
}

func encodeEvent(ev ports.ChangeEvent) (string, error) {
	b, err := json.Marshal(ev)
	if err != nil {
		return "", fmt.Errorf("codificar evento: %w", err)
	}
	return string(b), nil
}

func decodeEvent(payload string) (ports.ChangeEvent, error) {
	var ev ports.ChangeEvent
	if err := json.Unmarshal([]byte(payload), &ev); err != nil {
		return ports.ChangeEvent{}, fmt.Errorf("decodificar evento: %w", err)
	}
	if ev.CompanyID == "" {
		return ports.ChangeEvent{}, fmt.Errorf("decodificar evento: company_id vacío")
	}
	return ev, nil
}
