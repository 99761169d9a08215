package alerts

import (
	"sync"
	"time"
)

// recentMax borne le tampon des alertes récentes (les plus anciennes sont évincées)
const recentMax = 50

// subscriberBuffer dimensionne le canal de chaque abonné. Un abonné dont le
// canal est plein ne bloque jamais la publication : l'événement est perdu pour
// lui seul, la livraison aux autres continue.
const subscriberBuffer = 64

// Alert est une notification éphémère de nouvelle commande pour les
// dashboards employés. Jamais persistée, perdue au redémarrage.
type Alert struct {
	ID           string    `json:"id"`
	Type         string    `json:"type"`
	Title        string    `json:"title"`
	Detail       string    `json:"detail,omitempty"`
	At           time.Time `json:"at"`
	OrderID      string    `json:"orderId"`
	OrderNumber  string    `json:"orderNumber"`
	Amount       float64   `json:"amount,omitempty"`
	CustomerName string    `json:"customerName,omitempty"`
}

// Event est une trame prête à être poussée sur un flux (SSE ou WebSocket)
type Event struct {
	Name string
	Data interface{}
}

// Subscriber représente une connexion dashboard active. Les trames arrivent
// sur C dans l'ordre de publication ; hello et prime sont déjà dans le canal
// au retour de Subscribe.
type Subscriber struct {
	C chan Event
}

// Bus est le canal publish/subscribe en mémoire des alertes commandes.
// Construit une fois dans main puis injecté — pas de singleton de package,
// les tests instancient leurs propres bus isolés.
type Bus struct {
	mu     sync.Mutex
	recent []Alert
	subs   map[*Subscriber]struct{}
}

func New() *Bus {
	return &Bus{
		subs: make(map[*Subscriber]struct{}),
	}
}

// Subscribe enregistre une nouvelle connexion et lui envoie immédiatement
// une trame hello puis une trame prime contenant le tampon récent tel qu'il
// existe à cet instant. Les publications concurrentes postérieures arrivent
// après prime, jamais dedans.
func (b *Bus) Subscribe() *Subscriber {
	sub := &Subscriber{C: make(chan Event, subscriberBuffer)}

	b.mu.Lock()
	defer b.mu.Unlock()

	sub.C <- Event{Name: "hello", Data: map[string]interface{}{"t": time.Now().UnixMilli()}}
	sub.C <- Event{Name: "prime", Data: map[string]interface{}{"recent": b.recentLocked()}}
	b.subs[sub] = struct{}{}

	return sub
}

// Unsubscribe retire une connexion du registre et ferme son canal.
// Idempotent : un double appel (heartbeat cassé + hook de déconnexion) est sans effet.
func (b *Bus) Unsubscribe(sub *Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.subs[sub]; !ok {
		return
	}
	delete(b.subs, sub)
	close(sub.C)
}

// Publish insère l'alerte en tête du tampon récent puis la diffuse à tous les
// abonnés. L'envoi est non bloquant par abonné : un flux cassé ou lent
// n'empêche pas la livraison aux suivants.
func (b *Bus) Publish(a Alert) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.recent = append([]Alert{a}, b.recent...)
	if len(b.recent) > recentMax {
		b.recent = b.recent[:recentMax]
	}

	for sub := range b.subs {
		select {
		case sub.C <- Event{Name: "alert", Data: a}:
		default:
			// abonné saturé, on ne bloque pas la publication
		}
	}
}

// Recent retourne une copie du tampon des alertes récentes, la plus récente en premier
func (b *Bus) Recent() []Alert {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.recentLocked()
}

// SubscriberCount retourne le nombre de connexions actives (pour les logs)
func (b *Bus) SubscriberCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

func (b *Bus) recentLocked() []Alert {
	out := make([]Alert, len(b.recent))
	copy(out, b.recent)
	return out
}
