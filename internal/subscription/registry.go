// Package subscription хранит живые соединения наблюдателей и их подписки на камеры.
package subscription

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"sync"
)

// Global - подписка на все камеры. Все прочие id камер - положительные целые числа.
const Global = "global"

var (
	ErrBufferFull        = errors.New("observer buffer is full")
	ErrClosed            = errors.New("observer connection is closed")
	ErrInvalidFeed       = errors.New("invalid feed id")
	ErrUnknownConnection = errors.New("unknown connection")
)

// Observer - живое соединение наблюдателя. Send не блокирует.
type Observer interface {
	ID() string
	Send(payload []byte) error
	Close()
}

// Registry - единственное хранилище состояния соединений.
// Мутации сериализованы, чтения выполняются параллельно на согласованном снимке.
type Registry struct {
	mu        sync.RWMutex
	observers map[string]Observer
	byFeed    map[string]map[string]struct{}
	byConn    map[string]map[string]struct{}
}

func NewRegistry() *Registry {
	return &Registry{
		observers: make(map[string]Observer),
		byFeed:    make(map[string]map[string]struct{}),
		byConn:    make(map[string]map[string]struct{}),
	}
}

// ValidateFeed проверяет id камеры и возвращает его каноническую форму
func ValidateFeed(feedID string) (string, error) {
	if feedID == Global {
		return Global, nil
	}
	n, err := strconv.ParseInt(feedID, 10, 64)
	if err != nil || n <= 0 {
		return "", fmt.Errorf("%w: %q", ErrInvalidFeed, feedID)
	}
	return strconv.FormatInt(n, 10), nil
}

// FeedKey - ключ подписки для числового id камеры
func FeedKey(feedID int64) string {
	return strconv.FormatInt(feedID, 10)
}

// Connect регистрирует наблюдателя без подписок
func (r *Registry) Connect(o Observer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.observers[o.ID()] = o
	if _, ok := r.byConn[o.ID()]; !ok {
		r.byConn[o.ID()] = make(map[string]struct{})
	}
}

// Subscribe добавляет подписку. Повторная подписка ничего не меняет.
func (r *Registry) Subscribe(connID, feedID string) error {
	feed, err := ValidateFeed(feedID)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	feeds, ok := r.byConn[connID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownConnection, connID)
	}
	feeds[feed] = struct{}{}
	conns, ok := r.byFeed[feed]
	if !ok {
		conns = make(map[string]struct{})
		r.byFeed[feed] = conns
	}
	conns[connID] = struct{}{}
	return nil
}

// Unsubscribe удаляет подписку, отсутствие подписки не ошибка
func (r *Registry) Unsubscribe(connID, feedID string) error {
	feed, err := ValidateFeed(feedID)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	feeds, ok := r.byConn[connID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownConnection, connID)
	}
	delete(feeds, feed)
	r.removeFromFeed(feed, connID)
	return nil
}

// DropConnection удаляет соединение и все его подписки одной операцией.
// Повторный вызов ничего не делает.
func (r *Registry) DropConnection(connID string) {
	r.mu.Lock()
	o, ok := r.observers[connID]
	if ok {
		for feed := range r.byConn[connID] {
			r.removeFromFeed(feed, connID)
		}
		delete(r.byConn, connID)
		delete(r.observers, connID)
	}
	r.mu.Unlock()

	if ok {
		o.Close()
	}
}

func (r *Registry) removeFromFeed(feed, connID string) {
	conns, ok := r.byFeed[feed]
	if !ok {
		return
	}
	delete(conns, connID)
	if len(conns) == 0 {
		delete(r.byFeed, feed)
	}
}

// SubscribersFor возвращает отсортированные id соединений, подписанных на камеру
func (r *Registry) SubscribersFor(feedID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	conns := r.byFeed[feedID]
	out := make([]string, 0, len(conns))
	for id := range conns {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Targets возвращает наблюдателей, подписанных хотя бы на одну из камер, без повторов
func (r *Registry) Targets(feedIDs ...string) []Observer {
	r.mu.RLock()
	defer r.mu.RUnlock()
	seen := make(map[string]struct{})
	out := make([]Observer, 0)
	for _, feed := range feedIDs {
		for id := range r.byFeed[feed] {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			if o, ok := r.observers[id]; ok {
				out = append(out, o)
			}
		}
	}
	return out
}

// Subscriptions возвращает подписки соединения
func (r *Registry) Subscriptions(connID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	feeds := r.byConn[connID]
	out := make([]string, 0, len(feeds))
	for feed := range feeds {
		out = append(out, feed)
	}
	sort.Strings(out)
	return out
}

// Len - число подключенных наблюдателей
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.observers)
}
